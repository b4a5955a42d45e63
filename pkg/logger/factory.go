package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cast"
)

// Adapter types.
const (
	TypeConsole  = "console"
	TypeJSON     = "json"
	TypeFile     = "file"
	TypeDateFile = "dateFile"
	TypeSentry   = "sentry"
)

// Config selects and configures a logger adapter.
type Config struct {
	// Output overrides the destination of console and json adapters.
	Output io.Writer
	// Type is one of the Type* constants. Unknown types use console.
	Type  string
	Level string
	// Filename is the target of file and dateFile adapters.
	Filename string
	// Layout is the time layout of dateFile suffixes. Default "2006-01-02".
	Layout string
	Sentry SentryConfig
}

// ConfigFrom reads a logger config from a generic mapping such as the
// "logger" section of application config.
func ConfigFrom(m map[string]any) Config {
	cfg := Config{
		Type:     cast.ToString(m["type"]),
		Level:    cast.ToString(m["level"]),
		Filename: cast.ToString(m["filename"]),
		Layout:   cast.ToString(m["layout"]),
	}
	if s, ok := m["sentry"].(map[string]any); ok {
		cfg.Sentry = SentryConfig{
			DSN:         cast.ToString(s["dsn"]),
			Environment: cast.ToString(s["environment"]),
			MinLevel:    ParseLevel(cast.ToString(s["level"])),
		}
	}
	return cfg
}

// New builds a logger for cfg. Extractors decorate every adapter.
func New(cfg Config, extractors ...ContextExtractor) (*Logger, error) {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level), ReplaceAttr: replaceLevel}

	var (
		handler slog.Handler
		closers []io.Closer
	)
	switch cfg.Type {
	case TypeJSON:
		handler = slog.NewJSONHandler(writerOr(cfg.Output, os.Stdout), opts)
	case TypeFile:
		f, err := openFile(cfg.Filename)
		if err != nil {
			return nil, err
		}
		closers = append(closers, f)
		handler = slog.NewJSONHandler(f, opts)
	case TypeDateFile:
		w, err := newDateFile(cfg.Filename, cfg.Layout)
		if err != nil {
			return nil, err
		}
		closers = append(closers, w)
		handler = slog.NewJSONHandler(w, opts)
	case TypeSentry:
		handler = newSentryHandler(cfg.Sentry, slog.NewJSONHandler(writerOr(cfg.Output, os.Stdout), opts))
	default:
		handler = slog.NewTextHandler(writerOr(cfg.Output, os.Stderr), opts)
	}

	return &Logger{
		Logger:  slog.New(NewLogHandlerDecorator(handler, extractors...)),
		closers: closers,
	}, nil
}

func writerOr(w, def io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return def
}

func openFile(name string) (*os.File, error) {
	if name == "" {
		return nil, ErrMissingFilename
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFile, err)
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFile, err)
	}
	return f, nil
}
