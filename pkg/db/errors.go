package db

import "errors"

// Errors returned by Connect, Migrate and the readiness check.
var (
	ErrNoDSN       = errors.New("db: adapter url is not set")
	ErrBadDSN      = errors.New("db: invalid connection url")
	ErrUnreachable = errors.New("db: server unreachable")
	ErrNotReady    = errors.New("db: not ready")
	ErrMigrate     = errors.New("db: migration failed")
)
