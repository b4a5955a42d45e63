package internal

import "log/slog"

// RouterMiddleware resolves controller, action and route params for the
// request against the current route table. Redirect rules are answered
// here and never dispatched. Unresolved requests continue unrouted.
func RouterMiddleware(_ map[string]any, app *App) (Middleware, error) {
	return func(next HandlerFunc) HandlerFunc {
		return func(c Context) error {
			res, ok := app.Resolve(c.Path(), c.Method())
			if !ok {
				app.logger.DebugContext(c, "route not matched", slog.String("path", c.Path()))
				return next(c)
			}

			if res.IsRedirect() {
				app.logger.DebugContext(c, "route redirect",
					slog.String("path", c.Path()),
					slog.String("location", res.Redirect),
					slog.Int("status", res.RedirectCode),
				)
				return c.Redirect(res.RedirectCode, res.Redirect)
			}

			app.logger.DebugContext(c, "route matched",
				slog.String("path", c.Path()),
				slog.String("controller", res.Controller),
				slog.String("action", res.Action),
				slog.Any("query", res.Query),
			)
			c.SetRoute(res.Controller, res.Action, res.Query)
			return next(c)
		}
	}, nil
}
