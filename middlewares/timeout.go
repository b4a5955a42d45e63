package middlewares

import (
	"context"
	"time"

	"github.com/dmitrymomot/anvil/internal"
	"github.com/dmitrymomot/anvil/pkg/config"
)

// DefaultTimeout is the request deadline when the timeout option is unset.
const DefaultTimeout = 30 * time.Second

type deadlineKey struct{}

// outcome is what the handler goroutine hands back to the request goroutine.
type outcome struct {
	err      error
	panicked bool
	value    any
}

// Timeout runs the rest of the pipeline under a deadline taken from the
// timeout option: a duration string or milliseconds. Past the deadline the
// request fails with a TimeoutError while the handler finishes in the
// background; handlers should watch GetTimeoutContext(c).Done().
//
// A panic in the handler is raised again on the request goroutine so that
// recover, placed before timeout, still sees it.
//
// After the deadline the handler still holds the same Context and writer
// that the error handler uses to render the TimeoutError. Handlers must stop
// touching c once the deadline context is done; writing to it or calling
// c.Set then races with the error response.
func Timeout(opts map[string]any, _ *internal.App) (internal.Middleware, error) {
	limit := DefaultTimeout
	if d := config.ToDuration(opts["timeout"]); d > 0 {
		limit = d
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			ctx, cancel := context.WithTimeout(c.Context(), limit)
			defer cancel()
			c.Set(deadlineKey{}, ctx)

			res := make(chan outcome, 1)
			go func() {
				defer func() {
					if v := recover(); v != nil {
						res <- outcome{panicked: true, value: v}
					}
				}()
				res <- outcome{err: next(c)}
			}()

			select {
			case out := <-res:
				if out.panicked {
					panic(out.value)
				}
				return out.err
			case <-ctx.Done():
				if ctx.Err() != context.DeadlineExceeded {
					return ctx.Err()
				}
				c.LogWarn("request deadline exceeded", "timeout", limit.String())
				return &TimeoutError{Duration: limit}
			}
		}
	}, nil
}

// GetTimeoutContext returns the deadline context of the timeout middleware,
// or the request context when it is not installed.
func GetTimeoutContext(c internal.Context) context.Context {
	if ctx, ok := c.Get(deadlineKey{}).(context.Context); ok {
		return ctx
	}
	return c.Context()
}
