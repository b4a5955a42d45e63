package logger

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryConfig holds Sentry integration configuration.
type SentryConfig struct {
	DSN         string
	Environment string
	// MinLevel selects the levels stored as Sentry logs (warn or error).
	// Errors always create Sentry events.
	MinLevel slog.Level
}

// NewWithSentry creates a JSON stdout logger that also reports to Sentry.
// Without a DSN only stdout is used.
func NewWithSentry(cfg SentryConfig, extractors ...ContextExtractor) *Logger {
	l, _ := New(Config{Type: TypeSentry, Sentry: cfg}, extractors...)
	return l
}

// newSentryHandler combines base with a Sentry handler. Initialization
// failures are reported on base and degrade to base alone.
func newSentryHandler(cfg SentryConfig, base slog.Handler) slog.Handler {
	if cfg.DSN == "" {
		return base
	}

	env := cfg.Environment
	if env == "" {
		env = "production"
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: env,
		EnableLogs:  true,
	}); err != nil {
		slog.New(base).Error("failed to initialize sentry", slog.String("error", err.Error()))
		return base
	}

	logLevel := []slog.Level{slog.LevelWarn, slog.LevelError}
	if cfg.MinLevel >= slog.LevelError {
		logLevel = []slog.Level{slog.LevelError}
	}

	return fanout{
		base,
		sentryslog.Option{
			EventLevel: []slog.Level{slog.LevelError},
			LogLevel:   logLevel,
		}.NewSentryHandler(context.Background()),
	}
}
