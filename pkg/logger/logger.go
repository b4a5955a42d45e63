package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
)

// LevelTrace sits below slog.LevelDebug.
const LevelTrace = slog.LevelDebug - 4

// Logger is a slog.Logger with a trace level and an optional resource to
// release on Close (open log files).
type Logger struct {
	*slog.Logger
	closers []io.Closer
}

// Wrap adapts an existing slog.Logger.
func Wrap(l *slog.Logger) *Logger {
	if l == nil {
		return NewNope()
	}
	return &Logger{Logger: l}
}

// NewNope creates a logger that discards everything.
func NewNope() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// Trace logs at LevelTrace.
func (l *Logger) Trace(msg string, args ...any) {
	l.Log(context.Background(), LevelTrace, msg, args...)
}

// TraceContext logs at LevelTrace with ctx.
func (l *Logger) TraceContext(ctx context.Context, msg string, args ...any) {
	l.Log(ctx, LevelTrace, msg, args...)
}

// With returns a logger carrying args on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), closers: l.closers}
}

// WithExtractors returns a logger adding the attributes of extractors
// to every record logged with a context.
func (l *Logger) WithExtractors(extractors ...ContextExtractor) *Logger {
	if len(extractors) == 0 {
		return l
	}
	h := NewLogHandlerDecorator(l.Handler(), extractors...)
	return &Logger{Logger: slog.New(h), closers: l.closers}
}

// Slog returns the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.Logger
}

// Close releases files opened by the logger.
func (l *Logger) Close() error {
	var errs []error
	for _, c := range l.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ParseLevel maps trace, debug, info, warn and error to slog levels.
// Unknown names fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace", "all":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// replaceLevel renders LevelTrace as TRACE instead of DEBUG-4.
func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}
