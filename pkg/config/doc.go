// Package config provides a hierarchical key-path configuration store and the
// file loading that feeds it.
//
// Values are addressed with dot paths:
//
//	cfg := config.New(map[string]any{
//	    "db": map[string]any{"common": map[string]any{"host": "localhost"}},
//	})
//	cfg.Get("db.common.host")  // "localhost"
//	cfg.Get("db.missing.host") // nil, unknown intermediates never fail
//	_ = cfg.Set("db.common.port", 5432)
//
// Typed getters convert loosely with github.com/spf13/cast:
//
//	port := cfg.Int("port")
//	timeout := cfg.Duration("startServerTimeout") // 3000 means 3000ms, "3s" also works
//
// # Files
//
// [LoadEnv] reads <dir>/<name>.<ext> and <dir>/<name>.<env>.<ext> from an
// fs.FS and deep-merges the second over the first. YAML, JSON and TOML are
// accepted. [Merge] performs the same deep merge over plain mappings.
//
// # Adapters
//
// Adapter configuration follows a fixed shape: every adapter kind names its
// active type and carries one section per type plus an optional common section.
//
//	cache:
//	  type: redis
//	  common: {ttl: 1h}
//	  redis:  {handle: redis, url: "redis://localhost:6379/0"}
//	  memory: {handle: memory}
//
// [FormatAdapters] merges common into every type section and resolves handle
// names through a [HandleResolver].
package config
