// Package logging provides the logging facade used by the privid wrapper.
//
// The Logger interface is the small, context-aware subset of log/slog the
// wrapper needs:
//
//	type Logger interface {
//	    Debug(ctx context.Context, msg string, args ...any)
//	    Info(ctx context.Context, msg string, args ...any)
//	    Warn(ctx context.Context, msg string, args ...any)
//	    Error(ctx context.Context, msg string, args ...any)
//	    With(args ...any) Logger
//	}
//
// Two adapters are provided. New binds a *slog.Logger. NewZap binds a
// *zap.Logger; the library uses it by default with a JSON core on stderr whose
// level follows privid.SetLogLevel.
//
// # Files
//
// NewFileWriter returns a size-rotated file (lumberjack) that FileCore turns
// into a zap core:
//
//	w := logging.NewFileWriter("/var/log/privid.log", logging.FileConfig{})
//	defer w.Close()
//	logger := logging.NewZap(zap.New(logging.FileCore(w, zap.InfoLevel)))
//
// # Redaction
//
// PUIDs, session tokens and image bytes are never logged. Use Redacted to keep
// the attribute key while dropping its value:
//
//	logger.Info(ctx, "user deleted", logging.Redacted("puid"))
//	// puid="[redacted]"
package logging
