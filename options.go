package anvil

import (
	"io/fs"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/anvil/internal"
	"github.com/dmitrymomot/anvil/pkg/logger"
)

// App options

// WithRoot sets the application root. Required.
func WithRoot(root string) Option { return internal.WithRoot(root) }

// WithAppPath overrides the application directory.
func WithAppPath(p string) Option { return internal.WithAppPath(p) }

// WithRuntimePath overrides the runtime directory.
func WithRuntimePath(p string) Option { return internal.WithRuntimePath(p) }

// WithFS reads config, router and middleware files from fsys.
func WithFS(fsys fs.FS) Option { return internal.WithFS(fsys) }

// WithStatic sets the file system served by the resource middleware.
func WithStatic(fsys fs.FS) Option { return internal.WithStatic(fsys) }

// WithEnv sets the environment, overriding APP_ENV.
func WithEnv(env string) Option { return internal.WithEnv(env) }

// WithConfig merges values over the config files.
//
// Example:
//
//	anvil.WithConfig(map[string]any{
//	    "port":    3000,
//	    "adapter": map[string]any{"cache": map[string]any{"type": "redis"}},
//	})
func WithConfig(values map[string]any) Option { return internal.WithConfig(values) }

// WithControllers registers controller factories by name.
func WithControllers(factories map[string]HandlerFactory) Option {
	return internal.WithControllers(factories)
}

// WithLogics registers logic factories by controller name.
func WithLogics(factories map[string]HandlerFactory) Option {
	return internal.WithLogics(factories)
}

// WithServices registers service factories by name.
func WithServices(factories map[string]ServiceFactory) Option {
	return internal.WithServices(factories)
}

// WithModels registers model factories by name.
func WithModels(factories map[string]ModelFactory) Option {
	return internal.WithModels(factories)
}

// WithMiddlewareFactories registers middleware factories next to the
// bundled ones. Handles must not collide.
func WithMiddlewareFactories(factories map[string]MiddlewareFactory) Option {
	return internal.WithMiddlewareFactories(factories)
}

// WithAdapter registers an adapter implementation as kind/name.
func WithAdapter(kind, name string, impl any) Option {
	return internal.WithAdapter(kind, name, impl)
}

// WithMiddleware sets the middleware list, replacing config/middleware.*.
func WithMiddleware(specs ...MiddlewareSpec) Option {
	return internal.WithMiddleware(specs...)
}

// WithDefaultMiddleware replaces the pipeline used without
// config/middleware.*.
func WithDefaultMiddleware(specs ...MiddlewareSpec) Option {
	return internal.WithDefaultMiddleware(specs...)
}

// WithRoutes adds routes compiled ahead of config/router.*.
func WithRoutes(raw any) Option { return internal.WithRoutes(raw) }

// WithErrorHandler sets the handler for errors returned from the pipeline.
func WithErrorHandler(h ErrorHandler) Option { return internal.WithErrorHandler(h) }

// WithLogger sets the logger, bypassing the logger adapter config.
func WithLogger(l *logger.Logger) Option { return internal.WithLogger(l) }

// WithLogExtractors adds context extractors to the logger.
//
// Example:
//
//	anvil.New(
//	    anvil.WithRoot("."),
//	    anvil.WithLogExtractors(middlewares.RequestIDExtractor()),
//	)
func WithLogExtractors(extractors ...ContextExtractor) Option {
	return internal.WithLogExtractors(extractors...)
}

// WithMetricsRegistry sets the Prometheus registry used when metrics are
// enabled.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return internal.WithMetricsRegistry(reg)
}

// WithServer sets the factory of the HTTP server.
func WithServer(factory func(h http.Handler) *http.Server) Option {
	return internal.WithServer(factory)
}

// WithCrashHandlers sets the handlers deciding whether the first crash of
// each kind closes the server.
func WithCrashHandlers(uncaught, rejected CrashHandler) Option {
	return internal.WithCrashHandlers(uncaught, rejected)
}

// WithExit replaces os.Exit for the kill timeout watchdog.
func WithExit(exit func(code int)) Option { return internal.WithExit(exit) }
