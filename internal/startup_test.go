package internal_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/internal"
)

func TestApp_StartShutdown(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(s string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, s)
			return nil
		}
	}

	app := newApp(t, listenLocal)
	app.OnReady(record("ready"))
	app.OnShutdown(record("first"))
	app.OnShutdown(record("second"))

	w, err := app.Start()
	require.NoError(t, err)
	require.Same(t, w, app.Worker())
	require.Equal(t, internal.WorkerListening, w.State())

	resp, err := http.Get("http://" + w.Addr().String() + "/health/live")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "OK", string(body))

	c, err := app.Cache()
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), time.Minute))

	_, err = app.Start()
	require.ErrorIs(t, err, internal.ErrWorkerListening)

	require.NoError(t, app.Shutdown(context.Background()))
	require.NoError(t, app.Shutdown(context.Background()))
	require.Equal(t, internal.WorkerClosed, w.State())

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"ready", "second", "first"}, order)
}

func TestApp_Run(t *testing.T) {
	t.Parallel()

	app := newApp(t, listenLocal)
	require.NoError(t, app.Run())
	require.NotNil(t, app.Worker())
	require.NoError(t, app.Shutdown(context.Background()))
}

func TestApp_StartupTimeout(t *testing.T) {
	t.Parallel()

	app := newApp(t, listenLocal, internal.WithConfig(map[string]any{"startServerTimeout": 50}))
	app.BeforeStart(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

	_, err := app.Start()
	require.ErrorIs(t, err, internal.ErrStartTimeout)
	require.EqualError(t, err, "waiting for start server timeout, time: 50ms")
	require.Nil(t, app.Worker())
}

func TestApp_StartupError(t *testing.T) {
	t.Parallel()

	boom := errors.New("warmup failed")
	app := newApp(t, listenLocal)
	app.BeforeStart(func(context.Context) error { return boom })

	_, err := app.Start()
	require.ErrorIs(t, err, boom)
}

func TestApp_StartupErrorBeforeTimeout(t *testing.T) {
	t.Parallel()

	boom := errors.New("warmup failed")
	app := newApp(t, listenLocal, internal.WithConfig(map[string]any{"startServerTimeout": 5000}))
	app.BeforeStart(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	app.BeforeStart(func(context.Context) error { return boom })
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

	start := time.Now()
	_, err := app.Start()
	require.ErrorIs(t, err, boom)
	require.Less(t, time.Since(start), 2*time.Second)
	require.Nil(t, app.Worker())
}

func TestApp_OnShutdownAfterShutdown(t *testing.T) {
	t.Parallel()

	app := newApp(t)
	require.NoError(t, app.Shutdown(context.Background()))

	called := false
	app.OnShutdown(func(context.Context) error {
		called = true
		return nil
	})
	require.True(t, called)
}

func TestApp_ShutdownHookErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("flush failed")
	app := newApp(t, listenLocal)
	app.OnShutdown(func(context.Context) error { return boom })

	_, err := app.Start()
	require.NoError(t, err)
	require.ErrorIs(t, app.Shutdown(context.Background()), boom)
}

func TestApp_Crashes(t *testing.T) {
	t.Parallel()

	t.Run("background panic is a rejection", func(t *testing.T) {
		t.Parallel()

		errs := make(chan error, 1)
		app := newApp(t,
			listenLocal,
			internal.WithCrashHandlers(nil, func(err error) bool {
				errs <- err
				return false
			}),
		)
		_, err := app.Start()
		require.NoError(t, err)
		t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

		app.Go(func(context.Context) error { panic("lost") })

		select {
		case err := <-errs:
			pe, ok := internal.AsPanicError(err)
			require.True(t, ok)
			require.Equal(t, "lost", pe.Value)
			require.NotEmpty(t, pe.Stack)
		case <-time.After(2 * time.Second):
			t.Fatal("rejection not reported")
		}
		require.Equal(t, internal.WorkerListening, app.Worker().State())
	})

	t.Run("uncaught exception closes the worker", func(t *testing.T) {
		t.Parallel()

		app := newApp(t, listenLocal)
		w, err := app.Start()
		require.NoError(t, err)
		t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

		app.UncaughtException(errors.New("handler crashed"))
		select {
		case <-w.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("worker did not close")
		}
	})

	t.Run("crashes are counted", func(t *testing.T) {
		t.Parallel()

		app := newApp(t,
			internal.WithMetricsRegistry(prometheus.NewRegistry()),
			internal.WithConfig(map[string]any{"metrics": map[string]any{"enable": true, "namespace": "shop"}}),
		)
		require.NotNil(t, app.Metrics())

		app.UncaughtException(errors.New("before start"))
		app.UnhandledRejection(errors.New("before start"))

		rec := serve(t, app, http.MethodGet, "/metrics", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		out := rec.Body.String()
		require.True(t, strings.Contains(out, `shop_process_crashes_total{kind="uncaught_exception"} 1`), out)
		require.True(t, strings.Contains(out, `shop_process_crashes_total{kind="unhandled_rejection"} 1`), out)
	})
}

func TestApp_MetricsDisabled(t *testing.T) {
	t.Parallel()

	app := newApp(t)
	require.Nil(t, app.Metrics())
	require.Equal(t, http.StatusNotFound, serve(t, app, http.MethodGet, "/metrics", nil).Code)
}
