package redis

import "errors"

// Errors returned by Open and the readiness check.
var (
	ErrNoURL       = errors.New("redis: adapter url is not set")
	ErrBadURL      = errors.New("redis: invalid connection url")
	ErrUnreachable = errors.New("redis: server unreachable")
	ErrNotReady    = errors.New("redis: not ready")
)
