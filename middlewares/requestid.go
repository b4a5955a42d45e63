package middlewares

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/dmitrymomot/anvil/internal"
	"github.com/dmitrymomot/anvil/pkg/logger"
)

// requestIDKey is the context key for storing the request ID.
type requestIDKey struct{}

// DefaultRequestIDHeaders are the headers checked (in order) for an existing request ID.
var DefaultRequestIDHeaders = []string{"X-Request-ID", "X-Correlation-ID"}

// RequestIDConfig configures the request ID middleware.
type RequestIDConfig struct {
	Generator      func() string // ID generator function
	ResponseHeader string        // Response header name
	Headers        []string      // Headers to check for existing ID (in order)
}

// RequestIDConfigFrom reads headers, responseHeader and generator options.
// The generator option must be a func() string.
func RequestIDConfigFrom(opts map[string]any) (RequestIDConfig, error) {
	cfg := RequestIDConfig{
		Headers:        DefaultRequestIDHeaders,
		Generator:      uuid.NewString,
		ResponseHeader: "X-Request-ID",
	}
	if v, ok := opts["headers"]; ok {
		headers, err := cast.ToStringSliceE(v)
		if err != nil {
			return cfg, invalidOption("requestid", "headers", err)
		}
		cfg.Headers = headers
	}
	if v := cast.ToString(opts["responseHeader"]); v != "" {
		cfg.ResponseHeader = v
	}
	if v, ok := opts["generator"]; ok {
		gen, ok := v.(func() string)
		if !ok {
			return cfg, invalidOption("requestid", "generator", errNotFunc)
		}
		cfg.Generator = gen
	}
	return cfg, nil
}

// RequestID assigns an ID to each request. It reuses the first ID found in
// the configured headers, stores it in the context and echoes it in the
// response header.
func RequestID(opts map[string]any, _ *internal.App) (internal.Middleware, error) {
	cfg, err := RequestIDConfigFrom(opts)
	if err != nil {
		return nil, err
	}
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			assignRequestID(c, cfg)
			return next(c)
		}
	}, nil
}

func assignRequestID(c internal.Context, cfg RequestIDConfig) string {
	if id := GetRequestID(c); id != "" {
		return id
	}

	var id string
	for _, header := range cfg.Headers {
		if v := c.Header(header); v != "" {
			id = v
			break
		}
	}
	if id == "" {
		id = cfg.Generator()
	}

	c.Set(requestIDKey{}, id)
	c.SetHeader(cfg.ResponseHeader, id)
	return id
}

// GetRequestID extracts the request ID from the context.
// Returns an empty string if no request ID is set.
func GetRequestID(c internal.Context) string {
	if v, ok := c.Get(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// RequestIDExtractor returns a ContextExtractor for use with WithLogExtractors.
// Adds "request_id" to all log entries.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v, ok := ctx.Value(requestIDKey{}).(string); ok && v != "" {
			return slog.String("request_id", v), true
		}
		return slog.Attr{}, false
	}
}
