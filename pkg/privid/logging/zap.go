package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults applied to zero FileConfig fields.
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
)

// FileConfig controls log file rotation. Zero fields use the defaults.
type FileConfig struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewZap returns a Logger backed by z. Passing nil binds to zap.L().
func NewZap(z *zap.Logger) Logger {
	if z == nil {
		z = zap.L()
	}
	return &zapLogger{logger: z}
}

// NewDefault returns a zap-backed Logger writing JSON to stderr at level.
func NewDefault(level zap.AtomicLevel) Logger {
	return NewZap(zap.New(NewCore(zapcore.Lock(os.Stderr), level)))
}

// NewCore returns a JSON core using the zap production encoder.
func NewCore(w zapcore.WriteSyncer, level zapcore.LevelEnabler) zapcore.Core {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewCore(zapcore.NewJSONEncoder(enc), w, level)
}

// NewFileWriter returns a size-rotated log file. The caller closes it.
func NewFileWriter(path string, cfg FileConfig) *lumberjack.Logger {
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = DefaultMaxSizeMB
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = DefaultMaxBackups
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = DefaultMaxAgeDays
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}

// FileCore returns a JSON core writing to w, typically a NewFileWriter.
func FileCore(w io.Writer, level zapcore.LevelEnabler) zapcore.Core {
	return NewCore(zapcore.AddSync(w), level)
}

type zapLogger struct {
	logger *zap.Logger
}

func (l *zapLogger) Debug(_ context.Context, msg string, args ...any) {
	l.logger.Debug(msg, fields(args)...)
}

func (l *zapLogger) Info(_ context.Context, msg string, args ...any) {
	l.logger.Info(msg, fields(args)...)
}

func (l *zapLogger) Warn(_ context.Context, msg string, args ...any) {
	l.logger.Warn(msg, fields(args)...)
}

func (l *zapLogger) Error(_ context.Context, msg string, args ...any) {
	l.logger.Error(msg, fields(args)...)
}

func (l *zapLogger) With(args ...any) Logger {
	return &zapLogger{logger: l.logger.With(fields(args)...)}
}

// fields converts slog-style arguments (alternating key/value pairs,
// slog.Attr or zap.Field values) into zap fields.
func fields(args []any) []zap.Field {
	out := make([]zap.Field, 0, len(args))
	for i := 0; i < len(args); i++ {
		switch a := args[i].(type) {
		case zap.Field:
			out = append(out, a)
		case slog.Attr:
			out = append(out, zap.Any(a.Key, a.Value.Resolve().Any()))
		case string:
			if i+1 < len(args) {
				out = append(out, zap.Any(a, args[i+1]))
				i++
			} else {
				out = append(out, zap.String("!BADKEY", a))
			}
		default:
			out = append(out, zap.Any("!BADKEY", a))
		}
	}
	return out
}
