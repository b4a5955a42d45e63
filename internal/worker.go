package internal

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dmitrymomot/anvil/pkg/logger"
	"github.com/dmitrymomot/anvil/pkg/metrics"
)

// Crash kinds reported to WorkerConfig.OnCrash.
const (
	CrashUncaughtException  = metrics.CrashUncaughtException
	CrashUnhandledRejection = metrics.CrashUnhandledRejection
)

// DefaultProcessKillTimeout is the stock processKillTimeout.
const DefaultProcessKillTimeout = 10 * time.Second

// WorkerState is the lifecycle state of a Worker.
type WorkerState int32

const (
	WorkerCreated WorkerState = iota
	WorkerListening
	WorkerDraining
	WorkerClosed
)

func (s WorkerState) String() string {
	switch s {
	case WorkerCreated:
		return "created"
	case WorkerListening:
		return "listening"
	case WorkerDraining:
		return "draining"
	case WorkerClosed:
		return "closed"
	}
	return "unknown"
}

// CrashHandler is called for every crash of its kind. Returning true on the
// first crash starts a graceful shutdown.
type CrashHandler func(err error) bool

// WorkerConfig configures a Worker.
type WorkerConfig struct {
	// CreateServer returns the server to run. Addr is overwritten with
	// Host and Port. A nil factory uses a bare http.Server.
	CreateServer         func() *http.Server
	Logger               *logger.Logger
	OnUncaughtException  CrashHandler
	OnUnhandledRejection CrashHandler
	// OnCrash is notified of every crash with its kind.
	OnCrash func(kind string)
	// Exit terminates the process when draining exceeds ProcessKillTimeout.
	// Defaults to os.Exit.
	Exit func(code int)
	Host string
	Port int
	// ProcessKillTimeout bounds draining. Zero disables the watchdog.
	ProcessKillTimeout time.Duration
}

// Worker runs one HTTP server with graceful shutdown and crash accounting.
type Worker struct {
	cfg      WorkerConfig
	server   *http.Server
	listener net.Listener
	done     chan struct{}
	err      error
	watchdog *time.Timer

	uncaught atomic.Int64
	rejected atomic.Int64
	state    atomic.Int32
	draining atomic.Bool

	finishOnce sync.Once
	mu         sync.Mutex
}

func alwaysClose(error) bool { return true }

// NewWorker creates a worker in the created state.
func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNope()
	}
	if cfg.OnUncaughtException == nil {
		cfg.OnUncaughtException = alwaysClose
	}
	if cfg.OnUnhandledRejection == nil {
		cfg.OnUnhandledRejection = alwaysClose
	}
	if cfg.Exit == nil {
		cfg.Exit = os.Exit
	}
	if cfg.CreateServer == nil {
		cfg.CreateServer = func() *http.Server { return &http.Server{} }
	}
	return &Worker{cfg: cfg, done: make(chan struct{})}
}

// Listen creates the server, binds host:port and serves in the background.
func (w *Worker) Listen() error {
	if !w.state.CompareAndSwap(int32(WorkerCreated), int32(WorkerListening)) {
		return ErrWorkerListening
	}

	srv := w.cfg.CreateServer()
	if srv == nil {
		srv = &http.Server{}
	}
	srv.Addr = net.JoinHostPort(w.cfg.Host, strconv.Itoa(w.cfg.Port))
	srv.Handler = w.wrap(srv.Handler)

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		w.finish(err)
		return err
	}

	w.mu.Lock()
	w.server, w.listener = srv, ln
	w.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.cfg.Logger.Error("server stopped", slog.String("error", err.Error()))
			w.finish(err)
		}
	}()
	return nil
}

// wrap marks responses served while draining as non keep-alive.
func (w *Worker) wrap(h http.Handler) http.Handler {
	if h == nil {
		h = http.NotFoundHandler()
	}
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if w.draining.Load() {
			rw.Header().Set("Connection", "close")
		}
		h.ServeHTTP(rw, r)
	})
}

// Addr returns the bound address, or nil before Listen.
func (w *Worker) Addr() net.Addr {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.listener == nil {
		return nil
	}
	return w.listener.Addr()
}

// State returns the current lifecycle state.
func (w *Worker) State() WorkerState {
	return WorkerState(w.state.Load())
}

// Done is closed once the worker is closed.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Wait blocks until the worker is closed or ctx ends.
func (w *Worker) Wait(ctx context.Context) error {
	select {
	case <-w.done:
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Crashes returns the uncaught exception and unhandled rejection counts.
func (w *Worker) Crashes() (uncaught, rejected int64) {
	return w.uncaught.Load(), w.rejected.Load()
}

// Close starts a graceful shutdown: keep-alives are disabled, the listener
// is closed and in-flight requests are drained. If draining outlasts
// ProcessKillTimeout the process exits with code 1. Close does not wait;
// use Done or Wait.
func (w *Worker) Close() {
	if !w.draining.CompareAndSwap(false, true) {
		return
	}

	w.mu.Lock()
	srv := w.server
	w.mu.Unlock()
	if srv == nil {
		w.finish(nil)
		return
	}

	w.state.Store(int32(WorkerDraining))
	w.cfg.Logger.Info("closing server", slog.Int("pid", os.Getpid()))
	srv.SetKeepAlivesEnabled(false)

	if kt := w.cfg.ProcessKillTimeout; kt > 0 {
		w.mu.Lock()
		w.watchdog = time.AfterFunc(kt, func() {
			w.cfg.Logger.Error("process exit by kill timeout",
				slog.Int64("timeout_ms", kt.Milliseconds()),
				slog.Int("pid", os.Getpid()),
			)
			w.cfg.Exit(1)
		})
		w.mu.Unlock()
	}

	go func() {
		err := srv.Shutdown(context.Background())
		w.cfg.Logger.Info("server closed", slog.Int("pid", os.Getpid()))
		w.finish(err)
	}()
}

func (w *Worker) finish(err error) {
	w.finishOnce.Do(func() {
		w.mu.Lock()
		w.err = err
		if w.watchdog != nil {
			w.watchdog.Stop()
		}
		w.mu.Unlock()
		w.draining.Store(true)
		w.state.Store(int32(WorkerClosed))
		close(w.done)
	})
}

// UncaughtException records a crash of a request handler, usually a
// recovered panic.
func (w *Worker) UncaughtException(err error) {
	w.crash(CrashUncaughtException, &w.uncaught, w.cfg.OnUncaughtException, err)
}

// UnhandledRejection records an error nobody handled, usually from a
// background goroutine.
func (w *Worker) UnhandledRejection(err error) {
	w.crash(CrashUnhandledRejection, &w.rejected, w.cfg.OnUnhandledRejection, err)
}

func (w *Worker) crash(kind string, counter *atomic.Int64, handle CrashHandler, err error) {
	times := counter.Add(1)
	w.cfg.Logger.Error(kind,
		slog.Int64("times", times),
		slog.Int("pid", os.Getpid()),
		slog.Any("error", err),
	)
	if w.cfg.OnCrash != nil {
		w.cfg.OnCrash(kind)
	}
	if handle(err) && times == 1 {
		w.Close()
	}
}

// CaptureSignals closes the worker on SIGINT or SIGTERM. It stops listening
// for signals when ctx ends or the worker is closed.
func (w *Worker) CaptureSignals(ctx context.Context) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			w.cfg.Logger.Info("signal received", slog.String("signal", sig.String()))
			w.Close()
		case <-ctx.Done():
		case <-w.done:
		}
	}()
}
