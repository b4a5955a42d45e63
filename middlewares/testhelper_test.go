package middlewares_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/internal"
	"github.com/dmitrymomot/anvil/pkg/logger"
)

func newApp(t *testing.T, opts ...internal.Option) *internal.App {
	t.Helper()
	app := internal.New(append([]internal.Option{
		internal.WithRoot(t.TempDir()),
		internal.WithEnv(internal.EnvTest),
		internal.WithLogger(logger.NewNope()),
	}, opts...)...)
	require.NoError(t, app.Load())
	return app
}

// wrap builds the middleware of factory around final.
func wrap(t *testing.T, app *internal.App, factory internal.MiddlewareFactory, opts map[string]any, final internal.HandlerFunc) internal.HandlerFunc {
	t.Helper()
	if opts == nil {
		opts = map[string]any{}
	}
	mw, err := factory(opts, app)
	require.NoError(t, err)
	require.NotNil(t, mw)
	return mw(final)
}

// call runs h for req and returns the recorder and the returned error.
func call(app *internal.App, h internal.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, error) {
	rec := httptest.NewRecorder()
	err := h(internal.NewContext(rec, req, app))
	return rec, err
}

func get(target string) *http.Request {
	return httptest.NewRequest(http.MethodGet, target, nil)
}

// terminal is a middleware factory ending the pipeline in h.
func terminal(h internal.HandlerFunc) internal.MiddlewareSpec {
	return internal.MiddlewareSpec{
		Handle: "terminal",
		Factory: func(map[string]any, *internal.App) (internal.Middleware, error) {
			return func(internal.HandlerFunc) internal.HandlerFunc { return h }, nil
		},
	}
}

func ok(c internal.Context) error { return c.String(http.StatusOK, "ok") }

type logBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) contains(s string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Contains(b.buf.String(), s)
}

func (b *logBuffer) logger() *logger.Logger {
	return logger.Wrap(slog.New(slog.NewTextHandler(b, nil)))
}

func serveReq(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
