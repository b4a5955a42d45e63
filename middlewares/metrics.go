package middlewares

import (
	"net/http"
	"time"

	"github.com/dmitrymomot/anvil/internal"
)

// Metrics records request counts, latency and in-flight requests on the
// application collectors. It passes requests through when metrics are
// disabled.
func Metrics(_ map[string]any, app *internal.App) (internal.Middleware, error) {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		m := app.Metrics()
		if m == nil {
			return next
		}
		return func(c internal.Context) error {
			done := m.Begin()
			defer done()

			start := time.Now()
			err := next(c)
			m.ObserveRequest(c.ControllerName(), c.ActionName(), c.Method(), responseStatus(c, err), time.Since(start))
			return err
		}
	}, nil
}

// responseStatus is the status sent, or the one the error handler will send.
func responseStatus(c internal.Context, err error) int {
	if code := c.ResponseWriter().Status(); code > 0 {
		return code
	}
	if err == nil {
		if code := c.ResponseWriter().PresetStatus(); code > 0 {
			return code
		}
		return http.StatusNotFound
	}
	if he, ok := internal.AsHTTPError(err); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}
