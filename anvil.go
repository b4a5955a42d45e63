package anvil

import (
	"github.com/dmitrymomot/anvil/internal"
	"github.com/dmitrymomot/anvil/middlewares"
	"github.com/dmitrymomot/anvil/pkg/logger"
)

// Type aliases - public API
type (
	// App is one application: config, adapters, routes, the middleware
	// pipeline and the worker serving it.
	App = internal.App

	// Context provides request/response access and helper methods.
	Context = internal.Context

	// HandlerFunc is one step of the pipeline.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps a HandlerFunc to add cross-cutting concerns.
	Middleware = internal.Middleware

	// MiddlewareFactory builds a middleware from its options.
	MiddlewareFactory = internal.MiddlewareFactory

	// MiddlewareSpec is one entry of the middleware list.
	MiddlewareSpec = internal.MiddlewareSpec

	// OptionsFunc resolves middleware options before the server starts.
	OptionsFunc = internal.OptionsFunc

	// ErrorHandler handles errors returned from the pipeline.
	ErrorHandler = internal.ErrorHandler

	// Option configures the application.
	Option = internal.Option

	// Result is the outcome of a before hook or a logic action.
	Result = internal.Result

	// HandlerFactory creates a controller or logic instance per request.
	HandlerFactory = internal.HandlerFactory
	ServiceFactory = internal.ServiceFactory
	ModelFactory   = internal.ModelFactory

	// Beforer, Afterer, Caller and the other hook interfaces are
	// implemented by controllers and logic.
	Beforer       = internal.Beforer
	Afterer       = internal.Afterer
	Caller        = internal.Caller
	MethodAllower = internal.MethodAllower
	Ruler         = internal.Ruler
	Scoper        = internal.Scoper

	// StartupTask must finish before the server listens.
	StartupTask = internal.StartupTask

	// CrashHandler decides whether the first crash closes the server.
	CrashHandler = internal.CrashHandler

	Worker       = internal.Worker
	WorkerConfig = internal.WorkerConfig
	WorkerState  = internal.WorkerState

	// ResponseWriter wraps http.ResponseWriter with status presets and
	// before write hooks.
	ResponseWriter = internal.ResponseWriter

	HTTPError       = internal.HTTPError
	HTTPErrorOption = internal.HTTPErrorOption
	PanicError      = internal.PanicError

	// Paths are the resolved application directories.
	Paths = internal.Paths

	// ContextExtractor extracts a slog attribute from context.
	// Used with WithLogExtractors to add request-scoped values to logs.
	ContextExtractor = logger.ContextExtractor
)

// Environments.
const (
	EnvDevelopment = internal.EnvDevelopment
	EnvProduction  = internal.EnvProduction
	EnvTest        = internal.EnvTest
)

// Crash kinds.
const (
	CrashUncaughtException  = internal.CrashUncaughtException
	CrashUnhandledRejection = internal.CrashUnhandledRejection
)

// Errors
var (
	ErrRootPathRequired  = internal.ErrRootPathRequired
	ErrNotLoaded         = internal.ErrNotLoaded
	ErrUnknownController = internal.ErrUnknownController
	ErrUnknownService    = internal.ErrUnknownService
	ErrUnknownModel      = internal.ErrUnknownModel
	ErrUnknownMiddleware = internal.ErrUnknownMiddleware
	ErrInvalidMiddleware = internal.ErrInvalidMiddleware
	ErrNoDatabase        = internal.ErrNoDatabase
	ErrNoCache           = internal.ErrNoCache
	ErrStartTimeout      = internal.ErrStartTimeout
	ErrWorkerListening   = internal.ErrWorkerListening
)

// Middlewares returns the bundled middleware factories by handle.
func Middlewares() map[string]MiddlewareFactory {
	return map[string]MiddlewareFactory{
		"recover":   middlewares.Recover,
		"meta":      middlewares.Meta,
		"resource":  middlewares.Resource,
		"requestid": middlewares.RequestID,
		"metrics":   middlewares.Metrics,
		"cors":      middlewares.CORS,
		"timeout":   middlewares.Timeout,
		"locale":    middlewares.Locale,
	}
}

// DefaultMiddleware is the pipeline used without config/middleware.*.
func DefaultMiddleware() []MiddlewareSpec {
	return []MiddlewareSpec{
		Use("recover", nil),
		Use("meta", nil),
		Use("resource", nil),
		Use("router", nil),
		Use("logic", nil),
		Use("controller", nil),
	}
}

// New creates an application with the bundled middlewares registered and
// the default pipeline. Call Load, then Start or Run.
//
// Example:
//
//	app := anvil.New(
//	    anvil.WithRoot("."),
//	    anvil.WithControllers(map[string]anvil.HandlerFactory{
//	        "index": func(anvil.Context) any { return &IndexController{} },
//	    }),
//	)
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
func New(opts ...Option) *App {
	base := []Option{
		internal.WithMiddlewareFactories(Middlewares()),
		internal.WithDefaultMiddleware(DefaultMiddleware()...),
	}
	return internal.New(append(base, opts...)...)
}

// NewContext creates the context serving a request. Useful in tests.
var NewContext = internal.NewContext

// NewWorker creates a worker outside an application.
var NewWorker = internal.NewWorker

// Use returns a MiddlewareSpec for a registered middleware.
func Use(handle string, opts map[string]any) MiddlewareSpec {
	return internal.Use(handle, opts)
}

// ParseMiddleware decodes a middleware list.
var ParseMiddleware = internal.ParseMiddleware

// DefaultErrorHandler renders errors as {errno, errmsg} JSON.
var DefaultErrorHandler = internal.DefaultErrorHandler

// Results

// Continue lets the pipeline carry on.
func Continue() Result { return internal.Continue() }

// Abort ends the pipeline without an error.
func Abort() Result { return internal.Abort() }

// Fail ends the pipeline with an errno/errmsg response.
func Fail(errno int, errmsg any) Result { return internal.Fail(errno, errmsg) }

// Error ends the pipeline with err for the error handler.
func Error(err error) Result { return internal.Error(err) }

// ActionMethod returns the method name serving action, e.g. "detail" -> "DetailAction".
func ActionMethod(action string) string { return internal.ActionMethod(action) }

// Context helpers

// Scalar is the set of types Param and Query convert to.
type Scalar = internal.Scalar

// ContextValue retrieves a typed value from the context.
// Returns the zero value of T if the key is not found or type assertion fails.
//
// Example:
//
//	type tenantKey struct{}
//
//	tenant := anvil.ContextValue[string](c, tenantKey{})
func ContextValue[T any](c Context, key any) T {
	return internal.ContextValue[T](c, key)
}

// Param returns the route parameter name converted to T.
func Param[T Scalar](c Context, name string) T {
	return internal.Param[T](c, name)
}

// Query returns the query parameter name converted to T.
func Query[T Scalar](c Context, name string) T {
	return internal.Query[T](c, name)
}

// QueryDefault returns the query parameter name converted to T, or
// defaultValue when missing or invalid.
func QueryDefault[T Scalar](c Context, name string, defaultValue T) T {
	return internal.QueryDefault(c, name, defaultValue)
}

// HTTP errors

var (
	NewHTTPError          = internal.NewHTTPError
	ErrBadRequest         = internal.ErrBadRequest
	ErrForbidden          = internal.ErrForbidden
	ErrNotFound           = internal.ErrNotFound
	ErrMethodNotAllowed   = internal.ErrMethodNotAllowed
	ErrInternal           = internal.ErrInternal
	ErrServiceUnavailable = internal.ErrServiceUnavailable
	AsHTTPError           = internal.AsHTTPError
	AsPanicError          = internal.AsPanicError
	WithDetail            = internal.WithDetail
	WithErrorCode         = internal.WithErrorCode
	WithRequestID         = internal.WithRequestID
	WithError             = internal.WithError
)
