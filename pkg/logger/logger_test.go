package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/pkg/logger"
)

type ctxKey struct{}

func requestID(ctx context.Context) (slog.Attr, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return slog.String("request_id", id), ok
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"trace":   logger.LevelTrace,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		require.Equal(t, want, logger.ParseLevel(in), in)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json with trace level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log, err := logger.New(logger.Config{Type: logger.TypeJSON, Level: "trace", Output: &buf})
		require.NoError(t, err)

		log.Trace("resolved", slog.String("controller", "user"))

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		require.Equal(t, "TRACE", rec["level"])
		require.Equal(t, "resolved", rec["msg"])
		require.Equal(t, "user", rec["controller"])
	})

	t.Run("level filter", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log, err := logger.New(logger.Config{Type: logger.TypeJSON, Level: "warn", Output: &buf})
		require.NoError(t, err)

		log.Debug("hidden")
		log.Info("hidden")
		log.Warn("shown")
		log.Error("shown")
		require.Equal(t, 2, strings.Count(buf.String(), "shown"))
		require.NotContains(t, buf.String(), "hidden")
	})

	t.Run("console is the default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log, err := logger.New(logger.Config{Type: "nope", Output: &buf})
		require.NoError(t, err)

		log.Info("hello")
		require.Contains(t, buf.String(), "level=INFO")
		require.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("extractors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log, err := logger.New(logger.Config{Type: logger.TypeJSON, Output: &buf}, requestID, nil)
		require.NoError(t, err)

		ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
		log.InfoContext(ctx, "handled")
		log.With("component", "router").InfoContext(context.Background(), "no id")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)
		require.Contains(t, lines[0], `"request_id":"req-1"`)
		require.NotContains(t, lines[1], "request_id")
		require.Contains(t, lines[1], `"component":"router"`)
	})

	t.Run("file", func(t *testing.T) {
		t.Parallel()

		name := filepath.Join(t.TempDir(), "logs", "app.log")
		log, err := logger.New(logger.Config{Type: logger.TypeFile, Filename: name})
		require.NoError(t, err)

		log.Info("to file")
		require.NoError(t, log.Close())

		data, err := os.ReadFile(name)
		require.NoError(t, err)
		require.Contains(t, string(data), "to file")
	})

	t.Run("file without name", func(t *testing.T) {
		t.Parallel()

		_, err := logger.New(logger.Config{Type: logger.TypeFile})
		require.ErrorIs(t, err, logger.ErrMissingFilename)

		_, err = logger.New(logger.Config{Type: logger.TypeDateFile})
		require.ErrorIs(t, err, logger.ErrMissingFilename)
	})

	t.Run("sentry without dsn falls back", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log, err := logger.New(logger.Config{Type: logger.TypeSentry, Output: &buf})
		require.NoError(t, err)

		log.Error("boom")
		require.Contains(t, buf.String(), "boom")
	})
}

func TestConfigFrom(t *testing.T) {
	t.Parallel()

	cfg := logger.ConfigFrom(map[string]any{
		"type":     "dateFile",
		"level":    "debug",
		"filename": "runtime/logs/app.log",
		"sentry":   map[string]any{"dsn": "https://x@sentry.io/1", "level": "error"},
	})
	require.Equal(t, logger.TypeDateFile, cfg.Type)
	require.Equal(t, "debug", cfg.Level)
	require.Equal(t, "runtime/logs/app.log", cfg.Filename)
	require.Equal(t, "https://x@sentry.io/1", cfg.Sentry.DSN)
	require.Equal(t, slog.LevelError, cfg.Sentry.MinLevel)
}

func TestNope(t *testing.T) {
	t.Parallel()

	log := logger.NewNope()
	log.Trace("nothing")
	log.Error("nothing")
	require.NoError(t, log.Close())

	require.NotNil(t, logger.Wrap(nil).Slog())
}

func TestLogger_WithExtractors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := logger.Wrap(slog.New(slog.NewJSONHandler(&buf, nil)))
	require.Same(t, base, base.WithExtractors())

	log := base.WithExtractors(requestID)
	log.InfoContext(context.WithValue(context.Background(), ctxKey{}, "r-7"), "served")
	log.Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], `"request_id":"r-7"`)
	require.NotContains(t, lines[1], "request_id")
}
