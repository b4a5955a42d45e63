// Package loader holds the named registries an application is assembled from
// and scans directories of declarative files.
//
// Go has no runtime module import, so controllers, logic, services, models and
// middleware are registered explicitly under their conventional names:
//
//	controllers := loader.NewRegistry[anvil.HandlerFactory]()
//	controllers.MustRegister("admin/user", NewAdminUser)
//
//	f, ok := controllers.Lookup("admin/user")
//
// Adapters are namespaced twice, by kind and by name ("cache/redis"):
//
//	adapters := loader.NewAdapters()
//	adapters.MustRegister("cache", "redis", cache.OpenRedis)
//
// Directory scanning works over any fs.FS. [Scan] returns file names keyed by
// their slash-separated path without extension; [ScanAdapters] does the same
// for the two-level <kind>/<name> layout.
package loader
