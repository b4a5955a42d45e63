package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/anvil/pkg/cache"
	"github.com/dmitrymomot/anvil/pkg/config"
	"github.com/dmitrymomot/anvil/pkg/db"
	"github.com/dmitrymomot/anvil/pkg/loader"
	"github.com/dmitrymomot/anvil/pkg/logger"
	"github.com/dmitrymomot/anvil/pkg/metrics"
	"github.com/dmitrymomot/anvil/pkg/router"
)

// Load prepares the application: paths, config, logger, runtime config
// file, metrics, adapters, route table and middleware pipeline, in that
// order. A successful Load is not repeated.
func (a *App) Load() error {
	a.loadMu.Lock()
	defer a.loadMu.Unlock()

	if a.loaded.Load() {
		return nil
	}
	if err := errors.Join(a.optErrs...); err != nil {
		return err
	}

	steps := []struct {
		fn   func() error
		name string
	}{
		{a.resolvePaths, "paths"},
		{a.loadConfig, "config"},
		{a.loadLogger, "logger"},
		{a.writeRuntimeConfig, "runtime config"},
		{a.loadMetrics, "metrics"},
		{a.loadAdapters, "adapters"},
		{a.loadRouter, "router"},
		{a.loadMiddleware, "middleware"},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("anvil: load %s: %w", step.name, err)
		}
	}

	a.setupRoutes()
	a.loaded.Store(true)
	a.logger.Debug("application loaded",
		slog.String("root", a.paths.Root),
		slog.String("env", a.env),
		slog.Int("controllers", a.controllers.Len()),
		slog.Int("routes", len(a.Table())),
	)
	return nil
}

func (a *App) resolvePaths() error {
	if a.paths.Root == "" {
		return ErrRootPathRequired
	}
	root, err := filepath.Abs(a.paths.Root)
	if err != nil {
		return err
	}
	a.paths.Root = root

	if a.paths.App == "" {
		a.paths.App = filepath.Join(root, "app")
		if info, err := os.Stat(a.paths.App); err != nil || !info.IsDir() {
			a.paths.App = filepath.Join(root, "src")
		}
	}
	if a.paths.Runtime == "" {
		a.paths.Runtime = filepath.Join(root, "runtime")
	}
	if a.fsys == nil {
		a.fsys = os.DirFS(a.paths.App)
	}
	return nil
}

// loadConfig merges, lowest first: defaults, config/config, the env file
// and WithConfig values. Adapters merge defaults, adapter/<kind>/<name>
// files, config/adapter, its env file and the "adapter" key of the above.
func (a *App) loadConfig() error {
	files, err := config.LoadEnv(a.fsys, "config", "config", a.env)
	if err != nil {
		return err
	}
	data, err := config.Merge(defaultConfig(), files, a.overrides)
	if err != nil {
		return err
	}

	shipped, err := a.adapterDefaults()
	if err != nil {
		return err
	}
	adapterFiles, err := config.LoadEnv(a.fsys, "config", "adapter", a.env)
	if err != nil {
		return err
	}
	inline, _ := data["adapter"].(map[string]any)
	adapters, err := config.Merge(defaultAdapters(), shipped, adapterFiles, inline)
	if err != nil {
		return err
	}
	formatted, err := config.FormatAdapters(adapters, a.adapters)
	if err != nil {
		return err
	}

	data["adapter"] = adapters
	data["env"] = a.env
	a.conf = config.New(data)
	a.adapterCfg = formatted
	return nil
}

// adapterDefaults reads adapter/<kind>/<name>.* files as the base options
// of adapter item <kind>.<name>.
func (a *App) adapterDefaults() (map[string]any, error) {
	found, err := loader.ScanAdapters(a.fsys, "adapter", config.Extensions...)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(found))
	for kind := range found {
		items, err := loader.LoadDir(a.fsys, "adapter/"+kind, config.Decode, config.Extensions...)
		if err != nil {
			return nil, err
		}
		section := make(map[string]any, len(items))
		for name, m := range items {
			if _, nested := found[kind][name]; nested {
				section[name] = m
			}
		}
		out[kind] = section
	}
	return out, nil
}

func (a *App) loadLogger() error {
	if a.custom {
		a.logger = a.logger.WithExtractors(a.extractors...)
		return nil
	}
	typ, item, ok := config.ActiveAdapter(a.adapterCfg, "logger")
	if !ok {
		return nil
	}

	cfg := logger.ConfigFrom(item)
	if cfg.Type == "" {
		cfg.Type = typ
	}
	if cfg.Filename != "" && !filepath.IsAbs(cfg.Filename) {
		cfg.Filename = filepath.Join(a.paths.Runtime, cfg.Filename)
	}
	if cfg.Sentry.Environment == "" {
		cfg.Sentry.Environment = a.env
	}

	l, err := logger.New(cfg, a.extractors...)
	if err != nil {
		return err
	}
	a.logger = l
	return nil
}

// writeRuntimeConfig stores the resolved config as <runtime>/config/<env>.json.
func (a *App) writeRuntimeConfig() error {
	data, err := json.MarshalIndent(a.conf.All(), "", "  ")
	if err != nil {
		a.logger.Warn("resolved config is not serializable", slog.String("error", err.Error()))
		return nil
	}
	dir := filepath.Join(a.paths.Runtime, "config")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, a.env+".json"), data, 0o644)
}

func (a *App) loadMetrics() error {
	if !a.conf.Bool("metrics.enable") {
		return nil
	}
	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
	}
	a.metrics = metrics.New(a.registry, a.conf.StringOr("metrics.namespace", "anvil"))
	return nil
}

// loadAdapters resolves the cache and model adapters. Start opens them as
// before-start tasks, so a loaded but never started app dials nothing.
func (a *App) loadAdapters() error {
	a.adapterTasks = nil
	if typ, item, ok := config.ActiveAdapter(a.adapterCfg, "cache"); ok {
		open, err := resolveHandle[cache.Factory](a, "cache", typ, item)
		if err != nil {
			return err
		}
		a.adapterTasks = append(a.adapterTasks, func(ctx context.Context) error {
			c, err := open(ctx, item)
			if err != nil {
				return fmt.Errorf("anvil: open cache %s: %w", typ, err)
			}
			a.resMu.Lock()
			a.cache = c
			a.resMu.Unlock()
			a.OnShutdown(func(context.Context) error { return c.Close() })
			return nil
		})
		a.checks["cache"] = a.cacheCheck
	}

	if typ, item, ok := config.ActiveAdapter(a.adapterCfg, "model"); ok {
		open, err := resolveHandle[DBFactory](a, "model", typ, item)
		if err != nil {
			return err
		}
		a.adapterTasks = append(a.adapterTasks, func(ctx context.Context) error {
			pool, err := open(ctx, item)
			if err != nil {
				return fmt.Errorf("anvil: open model %s: %w", typ, err)
			}
			if err := db.Migrate(ctx, pool, a.fsys, db.ConfigFrom(item), a.logger.Slog()); err != nil {
				pool.Close()
				return err
			}
			a.resMu.Lock()
			a.db = pool
			a.resMu.Unlock()
			a.OnShutdown(db.Shutdown(pool))
			return nil
		})
		a.checks["db"] = func(ctx context.Context) error {
			pool, err := a.DB()
			if err != nil {
				return err
			}
			return db.Healthcheck(pool)(ctx)
		}
	}
	return nil
}

func (a *App) cacheCheck(ctx context.Context) error {
	c, err := a.Cache()
	if err != nil {
		return err
	}
	if p, ok := c.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// resolveHandle returns the implementation of adapter kind/typ: the item
// handle if set, else the adapter registered under the type name.
func resolveHandle[F any](a *App, kind, typ string, item map[string]any) (F, error) {
	var zero F
	impl, ok := item["handle"]
	if !ok {
		impl, ok = a.adapters.Adapter(kind, typ)
	}
	if !ok {
		return zero, fmt.Errorf("%w: %s/%s", config.ErrUnknownHandle, kind, typ)
	}
	f, ok := impl.(F)
	if !ok {
		return zero, fmt.Errorf("%w: %s/%s handle is %T", config.ErrInvalidAdapter, kind, typ, impl)
	}
	return f, nil
}

func openPostgres(ctx context.Context, opts map[string]any) (*pgxpool.Pool, error) {
	return db.Connect(ctx, db.ConfigFrom(opts))
}

func (a *App) loadRouter() error {
	var raw any
	if name, ok := config.Find(a.fsys, "config", "router"); ok {
		var err error
		if raw, err = router.LoadFile(a.fsys, name); err != nil {
			return err
		}
	}

	table, err := a.compileRoutes(raw)
	if err != nil {
		return err
	}
	a.table.Store(&table)
	a.resolver.Store(router.NewResolver(router.OptionsFrom(a.conf.Map("router")), a.controllers.Names()...))
	return nil
}

// loadMiddleware builds the pipeline from WithMiddleware specs, else
// config/middleware.*, else the default list.
func (a *App) loadMiddleware() error {
	specs := a.specs
	if specs == nil {
		fromFile, found, err := LoadMiddlewareFile(a.fsys)
		if err != nil {
			return err
		}
		specs = a.defaultMiddleware
		if found {
			specs = fromFile
		}
	}

	h, err := a.chain(specs, func(Context) error { return nil })
	if err != nil {
		return err
	}
	a.pipeline = h
	return nil
}
