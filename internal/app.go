package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/anvil/pkg/cache"
	"github.com/dmitrymomot/anvil/pkg/config"
	"github.com/dmitrymomot/anvil/pkg/db"
	"github.com/dmitrymomot/anvil/pkg/health"
	"github.com/dmitrymomot/anvil/pkg/loader"
	"github.com/dmitrymomot/anvil/pkg/logger"
	"github.com/dmitrymomot/anvil/pkg/metrics"
	"github.com/dmitrymomot/anvil/pkg/router"
)

// Default server timeouts.
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// DBFactory opens a database pool from the options of a model adapter item.
type DBFactory func(ctx context.Context, opts map[string]any) (*pgxpool.Pool, error)

// Paths locates an application on disk.
type Paths struct {
	Root    string
	App     string
	Runtime string
}

// App is an MVC application: handler registries, configuration, adapters
// and the request pipeline mounted on a chi router.
//
// Create it with New, then call Load (or Start/Run, which load on demand).
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	paths Paths
	env   string
	fsys  fs.FS

	conf       *config.Config
	adapterCfg map[string]any
	overrides  map[string]any
	logger     *logger.Logger
	extractors []logger.ContextExtractor
	custom     bool // logger set with WithLogger

	adapters    *loader.Adapters
	controllers *loader.Registry[HandlerFactory]
	logics      *loader.Registry[HandlerFactory]
	services    *loader.Registry[ServiceFactory]
	models      *loader.Registry[ModelFactory]
	middlewares *loader.Registry[MiddlewareFactory]

	validate     *validator.Validate
	errorHandler ErrorHandler

	routes   any // programmatic routes, compiled ahead of the router file
	resolver atomic.Pointer[router.Resolver]
	table    atomic.Pointer[router.Table]

	specs             []MiddlewareSpec
	defaultMiddleware []MiddlewareSpec
	pipeline          HandlerFunc
	mux               chi.Router
	static            fs.FS

	cache cache.Cache[[]byte]
	db    *pgxpool.Pool
	resMu sync.RWMutex

	registry *prometheus.Registry
	metrics  *metrics.Metrics
	checks   health.Checks

	startup       *startup
	adapterTasks  []StartupTask
	adaptersOnce  sync.Once
	worker        atomic.Pointer[Worker]
	serverFactory func(h http.Handler) *http.Server
	onUncaught    CrashHandler
	onRejected    CrashHandler
	exit          func(int)
	readyHooks    []func(ctx context.Context) error
	shutdownHooks []func(ctx context.Context) error
	hooksMu       sync.Mutex
	hooksDone     bool

	optErrs      []error
	loaded       atomic.Bool
	loadMu       sync.Mutex
	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates an application. Configuration files are read by Load.
//
// Example:
//
//	app := anvil.New(
//	    anvil.WithRoot("."),
//	    anvil.WithControllers(map[string]anvil.HandlerFactory{
//	        "user": func(c anvil.Context) any { return &UserController{} },
//	    }),
//	)
//	err := app.Run()
func New(opts ...Option) *App {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		ctx:          ctx,
		cancel:       cancel,
		env:          envFromOS(),
		logger:       logger.NewNope(),
		conf:         config.New(defaultConfig()),
		adapters:     loader.NewAdapters(),
		controllers:  loader.NewRegistry[HandlerFactory](),
		logics:       loader.NewRegistry[HandlerFactory](),
		services:     loader.NewRegistry[ServiceFactory](),
		models:       loader.NewRegistry[ModelFactory](),
		middlewares:  loader.NewRegistry[MiddlewareFactory](),
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		errorHandler: DefaultErrorHandler,
		checks:       health.Checks{},
		mux:          chi.NewRouter(),
		exit:         os.Exit,
		defaultMiddleware: []MiddlewareSpec{
			Use("router", nil),
			Use("logic", nil),
			Use("controller", nil),
		},
	}
	a.startup = newStartup(ctx)

	a.middlewares.MustRegister("router", RouterMiddleware)
	a.middlewares.MustRegister("logic", LogicMiddleware)
	a.middlewares.MustRegister("controller", ControllerMiddleware)
	a.adapters.MustRegister("cache", cache.HandleMemory, cache.Factory(cache.OpenMemory))
	a.adapters.MustRegister("cache", cache.HandleRedis, cache.Factory(cache.OpenRedis))
	a.adapters.MustRegister("model", "postgres", DBFactory(openPostgres))

	for _, opt := range opts {
		opt(a)
	}
	return a
}

func envFromOS() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return EnvDevelopment
}

// Env returns the application environment.
func (a *App) Env() string { return a.env }

// Paths returns the resolved application paths. Relative or empty values
// are resolved by Load.
func (a *App) Paths() Paths { return a.paths }

// Config returns the configuration store.
func (a *App) Config() *config.Config { return a.conf }

// AdapterConfig returns the resolved adapter config of kind with handles
// replaced by their implementations.
func (a *App) AdapterConfig(kind string) map[string]any {
	m, _ := a.adapterCfg[kind].(map[string]any)
	return m
}

// Logger returns the application logger.
func (a *App) Logger() *logger.Logger { return a.logger }

// Validator returns the validator used by logic handlers.
func (a *App) Validator() *validator.Validate { return a.validate }

// Metrics returns the collectors, or nil when metrics are disabled.
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// Static returns the file system served by the resource middleware.
func (a *App) Static() fs.FS {
	if a.static != nil {
		return a.static
	}
	return os.DirFS(filepath.Join(a.paths.Root, "www"))
}

// Controllers returns the registered controller names.
func (a *App) Controllers() []string { return a.controllers.Names() }

// Service creates the service registered under name.
func (a *App) Service(name string, args ...any) (any, error) {
	f, ok := a.services.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, name)
	}
	return f(a, args...), nil
}

// Model creates the model registered under name.
func (a *App) Model(name string) (any, error) {
	f, ok := a.models.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return f(a), nil
}

// Cache returns the cache adapter. It is available once the server started.
func (a *App) Cache() (cache.Cache[[]byte], error) {
	a.resMu.RLock()
	defer a.resMu.RUnlock()
	if a.cache == nil {
		return nil, ErrNoCache
	}
	return a.cache, nil
}

// DB returns the model adapter pool. It is available once the server started.
func (a *App) DB() (*pgxpool.Pool, error) {
	a.resMu.RLock()
	defer a.resMu.RUnlock()
	if a.db == nil {
		return nil, ErrNoDatabase
	}
	return a.db, nil
}

// Tx runs fn in a transaction on the model adapter pool.
func (a *App) Tx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	pool, err := a.DB()
	if err != nil {
		return err
	}
	return db.WithTx(ctx, pool, fn)
}

// Table returns the current compiled route table.
func (a *App) Table() router.Table {
	if t := a.table.Load(); t != nil {
		return *t
	}
	return nil
}

// Resolve routes path and method against the current table.
func (a *App) Resolve(path, method string) (*router.Resolved, bool) {
	res := a.resolver.Load()
	if res == nil {
		return nil, false
	}
	return res.Resolve(path, method, a.Table())
}

// ReloadRouter recompiles the routes from raw, which replaces the router
// file contents, and swaps the table. Programmatic routes are kept in front.
// Requests in flight keep the table they started with.
func (a *App) ReloadRouter(raw any) error {
	table, err := a.compileRoutes(raw)
	if err != nil {
		return err
	}
	a.table.Store(&table)
	a.logger.Debug("router reloaded", slog.Int("entries", len(table)))
	return nil
}

func (a *App) compileRoutes(fileRaw any) (router.Table, error) {
	var table router.Table
	for _, src := range []any{a.routes, fileRaw} {
		if src == nil {
			continue
		}
		t, err := router.Compile(src)
		if err != nil {
			return nil, err
		}
		table = append(table, t...)
	}
	return table, nil
}

// BeforeStart registers a task that must finish before the server listens.
// The task starts immediately with a context cancelled on shutdown.
// Tasks must be registered before Start.
func (a *App) BeforeStart(task StartupTask) {
	a.startup.Go(task)
}

// OnReady registers a hook run once the server is listening.
// Hook errors are logged.
func (a *App) OnReady(fn func(ctx context.Context) error) {
	a.hooksMu.Lock()
	defer a.hooksMu.Unlock()
	a.readyHooks = append(a.readyHooks, fn)
}

// OnShutdown registers a hook run after the server closed. Hooks run in
// reverse registration order. A hook added once shutdown hooks have run is
// called right away.
func (a *App) OnShutdown(fn func(ctx context.Context) error) {
	a.hooksMu.Lock()
	if !a.hooksDone {
		a.shutdownHooks = append(a.shutdownHooks, fn)
		a.hooksMu.Unlock()
		return
	}
	a.hooksMu.Unlock()
	if err := fn(context.Background()); err != nil {
		a.logger.Error("shutdown hook failed", slog.String("error", err.Error()))
	}
}

// Go runs fn in the background. Errors and panics are reported as
// unhandled rejections.
func (a *App) Go(fn func(ctx context.Context) error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.UnhandledRejection(&PanicError{Value: r, Stack: debug.Stack()})
			}
		}()
		if err := fn(a.ctx); err != nil {
			a.UnhandledRejection(err)
		}
	}()
}

// UncaughtException reports a request crash to the worker.
func (a *App) UncaughtException(err error) {
	if w := a.worker.Load(); w != nil {
		w.UncaughtException(err)
		return
	}
	a.logger.Error(CrashUncaughtException, slog.Any("error", err))
	a.observeCrash(CrashUncaughtException)
}

// UnhandledRejection reports a background failure to the worker.
func (a *App) UnhandledRejection(err error) {
	if w := a.worker.Load(); w != nil {
		w.UnhandledRejection(err)
		return
	}
	a.logger.Error(CrashUnhandledRejection, slog.Any("error", err))
	a.observeCrash(CrashUnhandledRejection)
}

func (a *App) observeCrash(kind string) {
	if a.metrics != nil {
		a.metrics.Crash(kind)
	}
}

// Worker returns the running worker, or nil before Start.
func (a *App) Worker() *Worker { return a.worker.Load() }

// ServeHTTP serves r through the chi router. The application must be loaded.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !a.loaded.Load() {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	a.mux.ServeHTTP(w, r)
}

// Router returns the chi router the pipeline is mounted on.
func (a *App) Router() chi.Router { return a.mux }

func (a *App) setupRoutes() {
	if a.conf.Bool("health.enable") {
		a.mux.Get(a.conf.StringOr("health.livenessPath", "/health/live"), health.LivenessHandler())
		a.mux.Get(a.conf.StringOr("health.readinessPath", "/health/ready"),
			health.ReadinessHandler(a.checks, health.WithLogger(a.logger.Slog())))
	}
	if a.metrics != nil {
		a.mux.Handle(a.conf.StringOr("metrics.path", "/metrics"), metrics.Handler(a.registry))
	}
	a.mux.HandleFunc("/*", a.dispatch)
}

func (a *App) dispatch(w http.ResponseWriter, r *http.Request) {
	c := NewContext(w, r, a)
	err := a.pipeline(c)
	if err == nil {
		err = endOfPipeline(c)
	}
	if err != nil {
		a.handleError(c, err)
	}
}

// endOfPipeline answers requests nothing wrote to, aborted ones included:
// preset status when one was set, otherwise not found.
func endOfPipeline(c Context) error {
	if c.Written() {
		return nil
	}
	if code := c.ResponseWriter().PresetStatus(); code > 0 {
		c.ResponseWriter().WriteHeader(code)
		return nil
	}
	return ErrNotFound("")
}

func (a *App) handleError(c Context, err error) {
	if c.Written() {
		a.logger.DebugContext(c, "error after response was written", slog.String("error", err.Error()))
		return
	}
	if herr := a.errorHandler(c, err); herr != nil {
		a.logger.ErrorContext(c, "error handler failed", slog.String("error", herr.Error()))
		if !c.Written() {
			http.Error(c.Response(), http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

// DefaultErrorHandler renders err as {errno: status, errmsg: message} with
// the status of an HTTPError, or 500 for other errors.
func DefaultErrorHandler(c Context, err error) error {
	code, msg := http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	body := map[string]any{}
	if he, ok := AsHTTPError(err); ok {
		code, msg = he.Code, he.Message
		if he.ErrorCode != "" {
			body["code"] = he.ErrorCode
		}
		if he.RequestID != "" {
			body["request_id"] = he.RequestID
		}
		if he.Detail != "" {
			body["detail"] = he.Detail
		}
	}
	if code >= http.StatusInternalServerError {
		c.LogError("request failed", slog.String("error", err.Error()))
	}

	errnoField, errmsgField := c.App().errorFields()
	body[errnoField], body[errmsgField] = code, msg
	return c.JSON(code, body)
}

func (a *App) jsonContentType() string {
	return a.conf.StringOr("jsonContentType", "application/json")
}

func (a *App) errorFields() (string, string) {
	return a.conf.StringOr("errnoField", "errno"), a.conf.StringOr("errmsgField", "errmsg")
}

func (a *App) validateErrno() int {
	if n := a.conf.Int("validateDefaultErrno"); n != 0 {
		return n
	}
	return 1001
}

func (a *App) createServer() *http.Server {
	if a.serverFactory != nil {
		return a.serverFactory(a)
	}
	return &http.Server{
		Handler:           a,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return a.ctx },
	}
}

// Start loads the application, waits for the before-start tasks and
// listens. It returns the running worker without blocking.
func (a *App) Start() (*Worker, error) {
	if err := a.Load(); err != nil {
		return nil, err
	}

	a.adaptersOnce.Do(func() {
		for _, task := range a.adapterTasks {
			a.BeforeStart(task)
		}
	})

	timeout := a.conf.Duration("startServerTimeout")
	if err := a.startup.Wait(timeout); err != nil {
		a.logger.Error("server start failed", slog.String("error", err.Error()))
		return nil, err
	}

	w := NewWorker(WorkerConfig{
		Host:                 a.conf.String("host"),
		Port:                 a.conf.Int("port"),
		CreateServer:         a.createServer,
		Logger:               a.logger,
		OnUncaughtException:  a.onUncaught,
		OnUnhandledRejection: a.onRejected,
		OnCrash:              a.observeCrash,
		Exit:                 a.exit,
		ProcessKillTimeout:   a.conf.Duration("processKillTimeout"),
	})
	if !a.worker.CompareAndSwap(nil, w) {
		return nil, ErrWorkerListening
	}
	if err := w.Listen(); err != nil {
		return nil, fmt.Errorf("anvil: listen: %w", err)
	}

	a.logger.Info("server running",
		slog.String("address", "http://"+w.Addr().String()),
		slog.String("env", a.env),
	)
	a.ready()
	return w, nil
}

func (a *App) ready() {
	a.hooksMu.Lock()
	hooks := append([]func(context.Context) error(nil), a.readyHooks...)
	a.hooksMu.Unlock()

	for _, fn := range hooks {
		if err := fn(a.ctx); err != nil {
			a.logger.Error("ready hook failed", slog.String("error", err.Error()))
		}
	}
}

// Run starts the server and blocks until it is closed by a signal, a
// crash or Shutdown. In the test environment Run returns right after
// the server started.
func (a *App) Run() error {
	w, err := a.Start()
	if err != nil {
		return err
	}
	if a.env == EnvTest {
		return nil
	}

	w.CaptureSignals(a.ctx)
	<-w.Done()

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	return a.Shutdown(ctx)
}

// Shutdown closes the worker, waits for it, then runs the shutdown hooks.
// It is safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		var errs []error
		if w := a.worker.Load(); w != nil {
			w.Close()
			if err := w.Wait(ctx); err != nil {
				errs = append(errs, err)
			}
		}

		a.hooksMu.Lock()
		hooks := a.shutdownHooks
		a.shutdownHooks = nil
		a.hooksDone = true
		a.hooksMu.Unlock()
		for i := len(hooks) - 1; i >= 0; i-- {
			if err := hooks[i](ctx); err != nil {
				a.logger.Error("shutdown hook failed", slog.String("error", err.Error()))
				errs = append(errs, err)
			}
		}

		a.cancel()
		if len(errs) > 0 {
			a.logger.Error("shutdown completed with errors")
		} else {
			a.logger.Info("shutdown completed")
		}
		a.shutdownErr = errors.Join(errs...)
		_ = a.logger.Close()
	})
	return a.shutdownErr
}
