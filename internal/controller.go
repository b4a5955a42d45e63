package internal

import (
	"log/slog"
	"net/http"

	"github.com/spf13/cast"
)

// ControllerMiddleware dispatches the resolved action to its controller.
//
// Options:
//   - emptyController: controller used when the resolved one is unknown
//   - preSetStatus: status preset before the action runs (default 200, 0 disables)
//
// Unknown controllers without a usable emptyController pass the request on.
func ControllerMiddleware(opts map[string]any, app *App) (Middleware, error) {
	empty := cast.ToString(opts["emptyController"])
	preset := http.StatusOK
	if v, ok := opts["preSetStatus"]; ok {
		preset = cast.ToInt(v)
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(c Context) error {
			name, action := c.ControllerName(), c.ActionName()
			if name == "" || action == "" {
				return ErrNotFound("")
			}

			factory, ok := app.controllers.Lookup(name)
			if !ok && empty != "" {
				factory, ok = app.controllers.Lookup(empty)
			}
			if !ok {
				return next(c)
			}

			h := factory(c)
			if proceed, err := settle(c, before(c, h)); !proceed {
				return err
			}

			if fn, ok := resolveAction(h, action); ok {
				if preset > 0 && !c.Written() {
					c.ResponseWriter().Preset(preset)
				}
				if proceed, err := settle(c, fn(c)); !proceed {
					return err
				}
			} else {
				app.logger.TraceContext(c, "controller has no action",
					slog.String("controller", name),
					slog.String("action", action),
				)
			}

			if a, ok := h.(Afterer); ok {
				if proceed, err := settle(c, a.After(c)); !proceed {
					return err
				}
			}
			return next(c)
		}
	}, nil
}
