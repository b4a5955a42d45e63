package middlewares

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/dmitrymomot/anvil/internal"
)

// DefaultCORSMaxAge is the default preflight cache duration in seconds.
const DefaultCORSMaxAge = 12 * 60 * 60

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOriginFunc is a dynamic origin validator.
	// When set, it completely overrides AllowOrigins for that request.
	AllowOriginFunc func(origin string) bool

	// AllowOrigins is a static list of allowed origins.
	// Use "*" to allow all origins.
	AllowOrigins []string

	AllowMethods  []string
	AllowHeaders  []string
	ExposeHeaders []string

	// AllowCredentials echoes the actual origin instead of "*".
	AllowCredentials bool

	// MaxAge is the preflight cache duration in seconds.
	MaxAge int
}

// DefaultCORSConfig returns the configuration used for missing options.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       DefaultCORSMaxAge,
	}
}

// CORSConfigFrom reads origin, methods, headers, exposeHeaders, credentials
// and maxAge options. The origin option is a string, a list of strings or
// a func(string) bool.
func CORSConfigFrom(opts map[string]any) (CORSConfig, error) {
	cfg := DefaultCORSConfig()

	switch v := opts["origin"].(type) {
	case nil:
	case func(string) bool:
		cfg.AllowOriginFunc = v
	case string:
		cfg.AllowOrigins = splitList(v)
	default:
		origins, err := cast.ToStringSliceE(v)
		if err != nil {
			return cfg, invalidOption("cors", "origin", err)
		}
		cfg.AllowOrigins = origins
	}

	lists := []struct {
		dst *[]string
		key string
	}{
		{&cfg.AllowMethods, "methods"},
		{&cfg.AllowHeaders, "headers"},
		{&cfg.ExposeHeaders, "exposeHeaders"},
	}
	for _, l := range lists {
		v, ok := opts[l.key]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok {
			*l.dst = splitList(s)
			continue
		}
		items, err := cast.ToStringSliceE(v)
		if err != nil {
			return cfg, invalidOption("cors", l.key, err)
		}
		*l.dst = items
	}

	if v, ok := opts["credentials"]; ok {
		cfg.AllowCredentials = cast.ToBool(v)
	}
	if v, ok := opts["maxAge"]; ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return cfg, invalidOption("cors", "maxAge", err)
		}
		cfg.MaxAge = n
	}
	return cfg, nil
}

// CORS handles Cross-Origin Resource Sharing. Preflight requests are
// answered with 204 and never reach the rest of the pipeline.
func CORS(opts map[string]any, _ *internal.App) (internal.Middleware, error) {
	cfg, err := CORSConfigFrom(opts)
	if err != nil {
		return nil, err
	}

	allowMethods := strings.Join(cfg.AllowMethods, ", ")
	allowHeaders := strings.Join(cfg.AllowHeaders, ", ")
	exposeHeaders := strings.Join(cfg.ExposeHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)
	hasWildcard := slices.Contains(cfg.AllowOrigins, "*")

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			origin := c.Header("Origin")
			if origin == "" || !isOriginAllowed(origin, cfg, hasWildcard) {
				return next(c)
			}

			headers := c.Response().Header()
			headers.Add("Vary", "Origin")

			if cfg.AllowCredentials || !hasWildcard {
				headers.Set("Access-Control-Allow-Origin", origin)
			} else {
				headers.Set("Access-Control-Allow-Origin", "*")
			}
			if cfg.AllowCredentials {
				headers.Set("Access-Control-Allow-Credentials", "true")
			}
			if exposeHeaders != "" {
				headers.Set("Access-Control-Expose-Headers", exposeHeaders)
			}

			if c.Method() == http.MethodOptions {
				headers.Add("Vary", "Access-Control-Request-Method")
				headers.Add("Vary", "Access-Control-Request-Headers")
				headers.Set("Access-Control-Allow-Methods", allowMethods)
				headers.Set("Access-Control-Allow-Headers", allowHeaders)
				if cfg.MaxAge > 0 {
					headers.Set("Access-Control-Max-Age", maxAge)
				}
				return c.NoContent(http.StatusNoContent)
			}

			return next(c)
		}
	}, nil
}

func isOriginAllowed(origin string, cfg CORSConfig, hasWildcard bool) bool {
	if cfg.AllowOriginFunc != nil {
		return cfg.AllowOriginFunc(origin)
	}
	if hasWildcard {
		return true
	}
	return slices.Contains(cfg.AllowOrigins, origin)
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
