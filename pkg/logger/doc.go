// Package logger builds structured loggers on log/slog from adapter config.
//
// Adapters are selected by Config.Type:
//
//   - console: text records on stderr (default)
//   - json: JSON records on stdout
//   - file: JSON records appended to Filename
//   - dateFile: JSON records in Filename with a date suffix, switched daily
//     (app.log becomes app-2026-01-02.log)
//   - sentry: JSON on stdout plus Sentry events for errors; without a DSN it
//     degrades to stdout only
//
// Levels are trace, debug, info, warn and error. Trace is [LevelTrace], one
// step below slog.LevelDebug:
//
//	log, err := logger.New(logger.Config{Type: "dateFile", Level: "debug", Filename: "runtime/logs/app.log"})
//	if err != nil {
//	    return err
//	}
//	defer log.Close()
//
//	log.Trace("router resolved", slog.String("controller", "user"))
//	log.Info("server started", slog.Int("port", 8360))
//
// # Context Extractors
//
// A [ContextExtractor] pulls a request-scoped attribute out of a context on
// every call, so request ids end up on every record logged with that context:
//
//	requestID := func(ctx context.Context) (slog.Attr, bool) {
//	    id, ok := ctx.Value(ctxKey{}).(string)
//	    return slog.String("request_id", id), ok
//	}
//	log, _ := logger.New(cfg, requestID)
//	log.InfoContext(ctx, "handled")
//
// [LogHandlerDecorator] applies extractors to any slog.Handler.
package logger
