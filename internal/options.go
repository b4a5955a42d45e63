package internal

import (
	"fmt"
	"io/fs"
	"maps"
	"net/http"
	"slices"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/anvil/pkg/config"
	"github.com/dmitrymomot/anvil/pkg/logger"
)

// Option configures the application.
type Option func(*App)

// WithRoot sets the application root. Required.
func WithRoot(root string) Option {
	return func(a *App) {
		a.paths.Root = root
	}
}

// WithAppPath overrides the application directory. Defaults to <root>/app,
// or <root>/src when app does not exist.
func WithAppPath(p string) Option {
	return func(a *App) {
		a.paths.App = p
	}
}

// WithRuntimePath overrides the runtime directory. Defaults to <root>/runtime.
func WithRuntimePath(p string) Option {
	return func(a *App) {
		a.paths.Runtime = p
	}
}

// WithFS reads config, router, middleware and adapter files from fsys
// instead of the application directory.
//
// Example:
//
//	//go:embed config
//	var files embed.FS
//
//	anvil.New(anvil.WithRoot("."), anvil.WithFS(files))
func WithFS(fsys fs.FS) Option {
	return func(a *App) {
		a.fsys = fsys
	}
}

// WithStatic sets the file system served by the resource middleware.
// Defaults to <root>/www.
func WithStatic(fsys fs.FS) Option {
	return func(a *App) {
		a.static = fsys
	}
}

// WithEnv sets the environment, overriding APP_ENV.
func WithEnv(env string) Option {
	return func(a *App) {
		if env != "" {
			a.env = env
		}
	}
}

// WithConfig merges values over the config files. An "adapter" key is
// merged over the adapter files.
func WithConfig(values map[string]any) Option {
	return func(a *App) {
		merged, err := config.Merge(a.overrides, values)
		if err != nil {
			a.optErrs = append(a.optErrs, err)
			return
		}
		a.overrides = merged
	}
}

// WithControllers registers controller factories by name. Names may contain
// "/" for namespaced controllers such as "admin/user".
func WithControllers(factories map[string]HandlerFactory) Option {
	return func(a *App) {
		registerAll(a, "controller", factories, a.controllers.Register)
	}
}

// WithLogics registers logic factories by controller name.
func WithLogics(factories map[string]HandlerFactory) Option {
	return func(a *App) {
		registerAll(a, "logic", factories, a.logics.Register)
	}
}

// WithServices registers service factories by name.
func WithServices(factories map[string]ServiceFactory) Option {
	return func(a *App) {
		registerAll(a, "service", factories, a.services.Register)
	}
}

// WithModels registers model factories by name.
func WithModels(factories map[string]ModelFactory) Option {
	return func(a *App) {
		registerAll(a, "model", factories, a.models.Register)
	}
}

// WithMiddlewareFactories registers middleware factories usable as handles
// in middleware specs and config/middleware.*.
func WithMiddlewareFactories(factories map[string]MiddlewareFactory) Option {
	return func(a *App) {
		registerAll(a, "middleware", factories, a.middlewares.Register)
	}
}

func registerAll[T any](a *App, kind string, items map[string]T, register func(string, T) error) {
	for _, name := range slices.Sorted(maps.Keys(items)) {
		if err := register(name, items[name]); err != nil {
			a.optErrs = append(a.optErrs, fmt.Errorf("anvil: register %s %q: %w", kind, name, err))
		}
	}
}

// WithAdapter registers an adapter implementation as kind/name. Adapter
// config selects it through its type or handle field.
//
// Example:
//
//	anvil.WithAdapter("cache", "custom", cache.Factory(openCustom))
func WithAdapter(kind, name string, impl any) Option {
	return func(a *App) {
		if err := a.adapters.Register(kind, name, impl); err != nil {
			a.optErrs = append(a.optErrs, fmt.Errorf("anvil: register adapter: %w", err))
		}
	}
}

// WithMiddleware sets the middleware list, replacing config/middleware.*.
//
// Example:
//
//	anvil.WithMiddleware(
//	    anvil.Use("recover", nil),
//	    anvil.Use("router", nil),
//	    anvil.MiddlewareSpec{Factory: auth, Match: "/admin/(.*)"},
//	    anvil.Use("logic", nil),
//	    anvil.Use("controller", nil),
//	)
func WithMiddleware(specs ...MiddlewareSpec) Option {
	return func(a *App) {
		a.specs = append(a.specs, specs...)
	}
}

// WithDefaultMiddleware sets the list used when neither WithMiddleware nor
// config/middleware.* provides one.
func WithDefaultMiddleware(specs ...MiddlewareSpec) Option {
	return func(a *App) {
		a.defaultMiddleware = specs
	}
}

// WithRoutes adds a route table compiled ahead of config/router.*.
// Raw takes every form accepted by router.Compile.
func WithRoutes(raw any) Option {
	return func(a *App) {
		a.routes = raw
	}
}

// WithErrorHandler sets the handler for errors returned from the pipeline.
//
// Example:
//
//	anvil.WithErrorHandler(func(c anvil.Context, err error) error {
//	    if he, ok := anvil.AsHTTPError(err); ok {
//	        return c.JSON(he.StatusCode(), map[string]string{"error": he.Message})
//	    }
//	    return c.JSON(500, map[string]string{"error": "internal"})
//	})
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		if h != nil {
			a.errorHandler = h
		}
	}
}

// WithLogger sets the logger, bypassing the logger adapter config.
func WithLogger(l *logger.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
			a.custom = true
		}
	}
}

// WithLogExtractors decorates the configured logger with context extractors.
func WithLogExtractors(extractors ...logger.ContextExtractor) Option {
	return func(a *App) {
		a.extractors = append(a.extractors, extractors...)
	}
}

// WithMetricsRegistry sets the registry metrics are registered on and
// gathered from. Metrics are enabled with the metrics.enable config key.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(a *App) {
		a.registry = reg
	}
}

// WithServer sets the factory of the HTTP server. The handler must be
// used as the server handler.
func WithServer(factory func(h http.Handler) *http.Server) Option {
	return func(a *App) {
		a.serverFactory = factory
	}
}

// WithCrashHandlers sets the handlers deciding whether the first uncaught
// exception or unhandled rejection closes the server. Nil keeps the default,
// which closes it.
func WithCrashHandlers(uncaught, rejected CrashHandler) Option {
	return func(a *App) {
		a.onUncaught = uncaught
		a.onRejected = rejected
	}
}

// WithExit replaces os.Exit for the kill timeout watchdog.
func WithExit(exit func(code int)) Option {
	return func(a *App) {
		if exit != nil {
			a.exit = exit
		}
	}
}
