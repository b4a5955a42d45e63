package middlewares_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/internal"
	"github.com/dmitrymomot/anvil/middlewares"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	t.Run("records status of each outcome", func(t *testing.T) {
		t.Parallel()

		app := newApp(t,
			internal.WithMetricsRegistry(prometheus.NewRegistry()),
			internal.WithConfig(map[string]any{"metrics": map[string]any{"enable": true, "namespace": "mw"}}),
			internal.WithMiddleware(
				internal.MiddlewareSpec{Handle: "metrics", Factory: middlewares.Metrics},
				terminal(func(c internal.Context) error {
					switch c.Path() {
					case "/created":
						return c.NoContent(http.StatusCreated)
					case "/forbidden":
						return c.Error(http.StatusForbidden, "nope")
					case "/broken":
						return errors.New("broken")
					case "/preset":
						c.ResponseWriter().Preset(http.StatusAccepted)
					}
					return nil
				}),
			),
		)

		for _, target := range []string{"/created", "/created", "/forbidden", "/broken", "/preset", "/nothing"} {
			serveReq(app, get(target))
		}

		out := serveReq(app, get("/metrics")).Body.String()
		for _, line := range []string{
			`mw_http_requests_total{action="-",controller="-",method="GET",status="201"} 2`,
			`mw_http_requests_total{action="-",controller="-",method="GET",status="202"} 1`,
			`mw_http_requests_total{action="-",controller="-",method="GET",status="403"} 1`,
			`mw_http_requests_total{action="-",controller="-",method="GET",status="404"} 1`,
			`mw_http_requests_total{action="-",controller="-",method="GET",status="500"} 1`,
			`mw_http_request_duration_seconds_count{action="-",controller="-"} 6`,
			`mw_http_requests_in_flight 0`,
		} {
			require.True(t, strings.Contains(out, line), "missing %s in\n%s", line, out)
		}
	})

	t.Run("labels resolved routes", func(t *testing.T) {
		t.Parallel()

		app := newApp(t,
			internal.WithMetricsRegistry(prometheus.NewRegistry()),
			internal.WithConfig(map[string]any{"metrics": map[string]any{"enable": true, "namespace": "routed"}}),
			internal.WithControllers(map[string]internal.HandlerFactory{
				"user": func(internal.Context) any { return struct{}{} },
			}),
			internal.WithMiddleware(
				internal.Use("router", nil),
				internal.MiddlewareSpec{Handle: "metrics", Factory: middlewares.Metrics},
				terminal(ok),
			),
		)

		serveReq(app, get("/user/profile"))

		out := serveReq(app, get("/metrics")).Body.String()
		require.True(t, strings.Contains(out,
			`routed_http_requests_total{action="profile",controller="user",method="GET",status="200"} 1`), out)
	})

	t.Run("passthrough when disabled", func(t *testing.T) {
		t.Parallel()

		app := newApp(t)
		h := wrap(t, app, middlewares.Metrics, nil, ok)

		rec, err := call(app, h, get("/"))
		require.NoError(t, err)
		require.Equal(t, "ok", rec.Body.String())
	})
}
