package middlewares

import (
	"runtime"

	"github.com/spf13/cast"

	"github.com/dmitrymomot/anvil/internal"
)

// DefaultStackSize is the default maximum stack trace size in bytes.
const DefaultStackSize = 4096

// RecoverConfig configures the recover middleware.
type RecoverConfig struct {
	StackSize         int  // Max stack trace size (default: 4096)
	DisablePrintStack bool // Disable stack trace in logs
}

// RecoverConfigFrom reads stackSize and printStack options.
func RecoverConfigFrom(opts map[string]any) (RecoverConfig, error) {
	cfg := RecoverConfig{StackSize: DefaultStackSize}
	if v, ok := opts["stackSize"]; ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return cfg, invalidOption("recover", "stackSize", err)
		}
		if n > 0 {
			cfg.StackSize = n
		}
	}
	if v, ok := opts["printStack"]; ok {
		cfg.DisablePrintStack = !cast.ToBool(v)
	}
	return cfg, nil
}

// Recover recovers panics of the rest of the pipeline. A panic is logged,
// reported to the application as an uncaught exception and returned as a
// PanicError for the error handler.
func Recover(opts map[string]any, app *internal.App) (internal.Middleware, error) {
	cfg, err := RecoverConfigFrom(opts)
	if err != nil {
		return nil, err
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				var stack []byte
				if !cfg.DisablePrintStack {
					stack = make([]byte, cfg.StackSize)
					stack = stack[:runtime.Stack(stack, false)]
					c.LogError("panic recovered", "panic", r, "stack", string(stack))
				} else {
					c.LogError("panic recovered", "panic", r)
				}

				pe := &PanicError{Value: r, Stack: stack}
				app.UncaughtException(pe)
				err = pe
			}()

			return next(c)
		}
	}, nil
}
