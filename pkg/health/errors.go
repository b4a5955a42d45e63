package health

import "errors"

// ErrCheckFailed wraps the failures returned by Run.
var ErrCheckFailed = errors.New("health: unhealthy")

// ErrCheckTimeout is the error of a check still running at the deadline.
var ErrCheckTimeout = errors.New("health: check timed out")
