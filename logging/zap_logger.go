package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls how NewLogger builds the underlying zap logger.
type Config struct {
	// Level is a zapcore level name (debug, info, warn, error). Defaults
	// to info on an unrecognized value.
	Level string
	// Format is "json" or "console". Empty leaves the environment
	// default (json in production, console otherwise).
	Format string
	// Production selects zap's production defaults (JSON, sampled) over
	// its development defaults (console, no sampling).
	Production bool
}

// NewLogger builds a Logger backed by zap, the ambient logging library
// used throughout this framework.
func NewLogger(cfg Config) (Logger, error) {
	var zapConfig zap.Config
	if cfg.Production {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	switch cfg.Format {
	case "json":
		zapConfig.Encoding = "json"
	case "console":
		zapConfig.Encoding = "console"
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	z, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return &ZapLogger{logger: z}, nil
}

// ZapLogger wraps zap.Logger to implement Logger.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger adapts an existing zap.Logger.
func NewZapLogger(logger *zap.Logger) Logger {
	return &ZapLogger{logger: logger}
}

func (z *ZapLogger) Debug(msg string, fields ...Field) { z.logger.Debug(msg, toZapFields(fields)...) }
func (z *ZapLogger) Info(msg string, fields ...Field)  { z.logger.Info(msg, toZapFields(fields)...) }
func (z *ZapLogger) Warn(msg string, fields ...Field)  { z.logger.Warn(msg, toZapFields(fields)...) }
func (z *ZapLogger) Error(msg string, fields ...Field) { z.logger.Error(msg, toZapFields(fields)...) }

func (z *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{logger: z.logger.With(toZapFields(fields)...)}
}

func (z *ZapLogger) Sync() error { return z.logger.Sync() }

// Underlying returns the wrapped zap.Logger for callers that need
// zap-specific functionality.
func (z *ZapLogger) Underlying() *zap.Logger { return z.logger }

func toZapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, toZapField(f))
	}
	return out
}

func toZapField(f Field) zap.Field {
	switch v := f.Value.(type) {
	case string:
		return zap.String(f.Key, v)
	case int:
		return zap.Int(f.Key, v)
	case int64:
		return zap.Int64(f.Key, v)
	case float64:
		return zap.Float64(f.Key, v)
	case bool:
		return zap.Bool(f.Key, v)
	case time.Duration:
		return zap.Duration(f.Key, v)
	case error:
		return zap.Error(v)
	default:
		return zap.Any(f.Key, v)
	}
}

// NopLogger discards everything. Used in tests and by callers that don't
// configure logging.
type NopLogger struct{}

// NewNopLogger creates a Logger that discards all messages.
func NewNopLogger() Logger { return &NopLogger{} }

func (n *NopLogger) Debug(string, ...Field) {}
func (n *NopLogger) Info(string, ...Field)  {}
func (n *NopLogger) Warn(string, ...Field)  {}
func (n *NopLogger) Error(string, ...Field) {}
func (n *NopLogger) With(...Field) Logger   { return n }
func (n *NopLogger) Sync() error            { return nil }
