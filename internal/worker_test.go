package internal_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/internal"
	"github.com/dmitrymomot/anvil/pkg/logger"
)

// logBuffer is a goroutine safe log sink.
type logBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) count(s string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Count(b.buf.String(), s)
}

func (b *logBuffer) logger() *logger.Logger {
	return logger.Wrap(slog.New(slog.NewTextHandler(b, nil)))
}

func newWorker(t *testing.T, cfg internal.WorkerConfig) *internal.Worker {
	t.Helper()
	cfg.Host = "127.0.0.1"
	if cfg.CreateServer == nil {
		cfg.CreateServer = func() *http.Server {
			return &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, "ok")
			})}
		}
	}
	w := internal.NewWorker(cfg)
	require.NoError(t, w.Listen())
	t.Cleanup(func() {
		w.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = w.Wait(ctx)
	})
	return w
}

func waitClosed(t *testing.T, w *internal.Worker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, w.Wait(ctx))
	require.Equal(t, internal.WorkerClosed, w.State())
}

func TestWorker_Lifecycle(t *testing.T) {
	t.Parallel()

	w := internal.NewWorker(internal.WorkerConfig{Host: "127.0.0.1"})
	require.Equal(t, internal.WorkerCreated, w.State())
	require.Nil(t, w.Addr())

	require.NoError(t, w.Listen())
	require.Equal(t, internal.WorkerListening, w.State())
	require.ErrorIs(t, w.Listen(), internal.ErrWorkerListening)

	resp, err := http.Get("http://" + w.Addr().String() + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	w.Close()
	w.Close()
	waitClosed(t, w)
	require.Equal(t, "closed", w.State().String())
}

func TestWorker_CloseBeforeListen(t *testing.T) {
	t.Parallel()

	w := internal.NewWorker(internal.WorkerConfig{})
	w.Close()
	waitClosed(t, w)
}

func TestWorker_ListenError(t *testing.T) {
	t.Parallel()

	busy := newWorker(t, internal.WorkerConfig{})

	w := internal.NewWorker(internal.WorkerConfig{Host: "127.0.0.1", Port: busy.Addr().(*net.TCPAddr).Port})
	require.Error(t, w.Listen())
	require.Equal(t, internal.WorkerClosed, w.State())
}

func TestWorker_Crashes(t *testing.T) {
	t.Parallel()

	t.Run("first uncaught exception closes once", func(t *testing.T) {
		t.Parallel()

		logs := &logBuffer{}
		var (
			mu    sync.Mutex
			kinds []string
		)
		w := newWorker(t, internal.WorkerConfig{
			Logger: logs.logger(),
			OnCrash: func(kind string) {
				mu.Lock()
				defer mu.Unlock()
				kinds = append(kinds, kind)
			},
		})

		w.UncaughtException(errors.New("first"))
		waitClosed(t, w)
		w.UncaughtException(errors.New("second"))

		uncaught, rejected := w.Crashes()
		require.EqualValues(t, 2, uncaught)
		require.Zero(t, rejected)
		require.Equal(t, 1, logs.count("closing server"))
		require.Equal(t, 2, logs.count(internal.CrashUncaughtException))

		mu.Lock()
		defer mu.Unlock()
		require.Equal(t, []string{internal.CrashUncaughtException, internal.CrashUncaughtException}, kinds)
	})

	t.Run("handler keeps the server", func(t *testing.T) {
		t.Parallel()

		var seen []error
		var mu sync.Mutex
		w := newWorker(t, internal.WorkerConfig{
			OnUnhandledRejection: func(err error) bool {
				mu.Lock()
				defer mu.Unlock()
				seen = append(seen, err)
				return false
			},
		})

		w.UnhandledRejection(errors.New("lost"))
		require.Equal(t, internal.WorkerListening, w.State())
		_, rejected := w.Crashes()
		require.EqualValues(t, 1, rejected)

		mu.Lock()
		defer mu.Unlock()
		require.Len(t, seen, 1)
	})

	t.Run("later crash after handler declined is logged only", func(t *testing.T) {
		t.Parallel()

		calls := 0
		w := newWorker(t, internal.WorkerConfig{
			OnUncaughtException: func(error) bool {
				calls++
				return calls > 1
			},
		})

		w.UncaughtException(errors.New("one"))
		w.UncaughtException(errors.New("two"))
		require.Equal(t, internal.WorkerListening, w.State())
	})
}

func TestWorker_Draining(t *testing.T) {
	t.Parallel()

	t.Run("responses close the connection", func(t *testing.T) {
		t.Parallel()

		var srv *http.Server
		w := newWorker(t, internal.WorkerConfig{
			CreateServer: func() *http.Server {
				srv = &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(http.StatusNoContent)
				})}
				return srv
			},
		})

		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Empty(t, rec.Header().Get("Connection"))

		w.Close()
		rec = httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, "close", rec.Header().Get("Connection"))
		waitClosed(t, w)
	})

	t.Run("kill timeout exits", func(t *testing.T) {
		t.Parallel()

		entered := make(chan struct{})
		release := make(chan struct{})
		exited := make(chan int, 1)
		logs := &logBuffer{}

		w := newWorker(t, internal.WorkerConfig{
			Logger:             logs.logger(),
			ProcessKillTimeout: 50 * time.Millisecond,
			Exit:               func(code int) { exited <- code },
			CreateServer: func() *http.Server {
				return &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					close(entered)
					<-release
				})}
			},
		})

		go func() {
			resp, err := http.Get("http://" + w.Addr().String() + "/")
			if err == nil {
				_ = resp.Body.Close()
			}
		}()
		<-entered

		w.Close()
		require.Equal(t, internal.WorkerDraining, w.State())

		select {
		case code := <-exited:
			require.Equal(t, 1, code)
		case <-time.After(2 * time.Second):
			t.Fatal("watchdog did not fire")
		}
		require.Equal(t, 1, logs.count("process exit by kill timeout"))

		close(release)
		waitClosed(t, w)
	})

	t.Run("finished drain stops the watchdog", func(t *testing.T) {
		t.Parallel()

		exited := make(chan int, 1)
		w := newWorker(t, internal.WorkerConfig{
			ProcessKillTimeout: 50 * time.Millisecond,
			Exit:               func(code int) { exited <- code },
		})

		w.Close()
		waitClosed(t, w)

		select {
		case <-exited:
			t.Fatal("exit called after clean shutdown")
		case <-time.After(100 * time.Millisecond):
		}
	})
}

func TestWorker_CaptureSignals(t *testing.T) {
	w := newWorker(t, internal.WorkerConfig{})
	w.CaptureSignals(context.Background())

	p, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)
	require.NoError(t, p.Signal(syscall.SIGTERM))

	waitClosed(t, w)
}

func TestWorkerState_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "created", internal.WorkerCreated.String())
	require.Equal(t, "listening", internal.WorkerListening.String())
	require.Equal(t, "draining", internal.WorkerDraining.String())
	require.Equal(t, "closed", internal.WorkerClosed.String())
	require.Equal(t, "unknown", internal.WorkerState(9).String())
}
