// Package db opens the PostgreSQL pool used by models.
//
// The pool is configured from the active db adapter item:
//
//	pool, err := db.Connect(ctx, db.ConfigFrom(opts))
//
// [Connect] retries with a linear backoff until the server answers a ping.
// [Migrate] applies goose migrations from any fs.FS before the app starts.
// [Healthcheck] and [Shutdown] plug the pool into the app lifecycle.
package db
