package anvil_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/dmitrymomot/anvil"
	"github.com/dmitrymomot/anvil/pkg/logger"
)

type userController struct{}

func (userController) DetailAction(c anvil.Context) anvil.Result {
	if err := c.Success(map[string]any{"id": anvil.Param[int](c, "id")}); err != nil {
		return anvil.Error(err)
	}
	return anvil.Continue()
}

func (userController) CrashAction(anvil.Context) anvil.Result {
	panic("controller crashed")
}

func newApp(t *testing.T, opts ...anvil.Option) *anvil.App {
	t.Helper()
	app := anvil.New(append([]anvil.Option{
		anvil.WithRoot(t.TempDir()),
		anvil.WithEnv(anvil.EnvTest),
		anvil.WithLogger(logger.NewNope()),
		anvil.WithControllers(map[string]anvil.HandlerFactory{
			"user": func(anvil.Context) any { return userController{} },
		}),
		anvil.WithRoutes([]any{
			[]any{"/user/crash", "/user/crash"},
			[]any{"/user/:id", "/user/detail"},
		}),
	}, opts...)...)
	if err := app.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return app
}

func do(app http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func TestNew(t *testing.T) {
	t.Parallel()

	app := anvil.New()
	if app == nil {
		t.Fatal("New() returned nil")
	}
	if err := app.Load(); !errors.Is(err, anvil.ErrRootPathRequired) {
		t.Errorf("Load() error = %v, want ErrRootPathRequired", err)
	}
}

func TestMiddlewares(t *testing.T) {
	t.Parallel()

	want := []string{"cors", "locale", "meta", "metrics", "recover", "requestid", "resource", "timeout"}
	got := make([]string, 0, len(want))
	for name := range anvil.Middlewares() {
		got = append(got, name)
	}
	slices.Sort(got)
	if !slices.Equal(got, want) {
		t.Errorf("Middlewares() = %v, want %v", got, want)
	}

	var handles []string
	for _, spec := range anvil.DefaultMiddleware() {
		handles = append(handles, spec.Handle)
	}
	if want := []string{"recover", "meta", "resource", "router", "logic", "controller"}; !slices.Equal(handles, want) {
		t.Errorf("DefaultMiddleware() = %v, want %v", handles, want)
	}
}

func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	app := newApp(t, anvil.WithStatic(fstest.MapFS{
		"static/app.js": {Data: []byte("console.log(1)")},
	}))

	t.Run("controller action", func(t *testing.T) {
		t.Parallel()

		rec := do(app, http.MethodGet, "/user/7", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		data, _ := body["data"].(map[string]any)
		if body["errno"] != float64(0) || data["id"] != float64(7) {
			t.Errorf("body = %v", body)
		}
		if got := rec.Header().Get("X-Powered-By"); got != "anvil" {
			t.Errorf("X-Powered-By = %q, want anvil", got)
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("X-Request-ID is empty")
		}
		if !strings.HasSuffix(rec.Header().Get("X-Response-Time"), "ms") {
			t.Errorf("X-Response-Time = %q", rec.Header().Get("X-Response-Time"))
		}
	})

	t.Run("static file", func(t *testing.T) {
		t.Parallel()

		rec := do(app, http.MethodGet, "/static/app.js", nil)
		if rec.Code != http.StatusOK || rec.Body.String() != "console.log(1)" {
			t.Errorf("got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("panic becomes 500", func(t *testing.T) {
		t.Parallel()

		rec := do(app, http.MethodGet, "/user/crash", nil)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
		}
	})

	t.Run("unknown path", func(t *testing.T) {
		t.Parallel()

		rec := do(app, http.MethodGet, "/nothing/here", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestMiddlewareFile(t *testing.T) {
	t.Parallel()

	app := newApp(t, anvil.WithFS(fstest.MapFS{
		"config/middleware.yaml": {Data: []byte(`
- handle: cors
  options:
    origin: https://app.example.com
- locale
- router
- controller
`)},
	}))

	rec := do(app, http.MethodGet, "/user/1", http.Header{
		"Origin":          {"https://app.example.com"},
		"Accept-Language": {"en-US"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Content-Language"); got != "en" {
		t.Errorf("Content-Language = %q, want en", got)
	}
	if got := rec.Header().Get("X-Powered-By"); got != "" {
		t.Errorf("X-Powered-By = %q, want none without meta", got)
	}
}

func TestWithMiddlewareFactories(t *testing.T) {
	t.Parallel()

	tag := func(map[string]any, *anvil.App) (anvil.Middleware, error) {
		return func(next anvil.HandlerFunc) anvil.HandlerFunc {
			return func(c anvil.Context) error {
				c.SetHeader("X-Tag", "custom")
				return next(c)
			}
		}, nil
	}

	t.Run("custom handle", func(t *testing.T) {
		t.Parallel()

		app := newApp(t,
			anvil.WithMiddlewareFactories(map[string]anvil.MiddlewareFactory{"tag": tag}),
			anvil.WithMiddleware(anvil.Use("tag", nil), anvil.Use("router", nil), anvil.Use("controller", nil)),
		)
		if got := do(app, http.MethodGet, "/user/1", nil).Header().Get("X-Tag"); got != "custom" {
			t.Errorf("X-Tag = %q, want custom", got)
		}
	})

	t.Run("bundled handle collides", func(t *testing.T) {
		t.Parallel()

		app := anvil.New(
			anvil.WithRoot(t.TempDir()),
			anvil.WithMiddlewareFactories(map[string]anvil.MiddlewareFactory{"cors": tag}),
		)
		if err := app.Load(); err == nil {
			t.Error("Load() succeeded with a duplicate handle")
		}
	})
}
