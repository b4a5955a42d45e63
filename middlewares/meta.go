package middlewares

import (
	"strconv"
	"time"

	"github.com/spf13/cast"

	"github.com/dmitrymomot/anvil/internal"
)

// MetaConfig configures the meta middleware.
type MetaConfig struct {
	// PoweredBy is sent as X-Powered-By. Empty disables the header.
	PoweredBy    string
	ResponseTime bool
	RequestID    bool
	RequestIDCfg RequestIDConfig
}

// MetaConfigFrom reads sendPowerBy, sendResponseTime and requestId options.
// The X-Powered-By value comes from the poweredBy application config.
func MetaConfigFrom(opts map[string]any, app *internal.App) (MetaConfig, error) {
	cfg := MetaConfig{
		PoweredBy:    app.Config().StringOr("poweredBy", "anvil"),
		ResponseTime: true,
		RequestID:    true,
	}
	if v, ok := opts["sendPowerBy"]; ok && !cast.ToBool(v) {
		cfg.PoweredBy = ""
	}
	if v, ok := opts["sendResponseTime"]; ok {
		cfg.ResponseTime = cast.ToBool(v)
	}
	if v, ok := opts["requestId"]; ok {
		cfg.RequestID = cast.ToBool(v)
	}

	rid, err := RequestIDConfigFrom(opts)
	if err != nil {
		return cfg, err
	}
	cfg.RequestIDCfg = rid
	return cfg, nil
}

// Meta sets X-Powered-By, X-Response-Time and the request ID header.
// X-Response-Time is measured until the header is written.
func Meta(opts map[string]any, app *internal.App) (internal.Middleware, error) {
	cfg, err := MetaConfigFrom(opts, app)
	if err != nil {
		return nil, err
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			start := time.Now()
			if cfg.PoweredBy != "" {
				c.SetHeader("X-Powered-By", cfg.PoweredBy)
			}
			if cfg.RequestID {
				assignRequestID(c, cfg.RequestIDCfg)
			}
			if cfg.ResponseTime {
				c.ResponseWriter().OnBeforeWrite(func() {
					c.SetHeader("X-Response-Time", strconv.FormatInt(time.Since(start).Milliseconds(), 10)+"ms")
				})
			}
			return next(c)
		}
	}, nil
}
