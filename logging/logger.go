// Package logging provides the structured logging abstraction used
// throughout the framework, plus the built-in logging and debug
// middleware that exercise it on the request path.
package logging

import (
	"time"

	"github.com/iruldev/switchboard/middleware"
)

// Field represents a structured log field. It is an alias for
// middleware.Field so a Logger satisfies middleware.PerformanceLogger
// without any adapter: the pipeline's performance-monitoring hook can
// pass a Logger straight into Pipeline.SetLogger/AsyncPipeline.SetLogger.
type Field = middleware.Field

// Field constructors for common value types.

func String(key, val string) Field          { return Field{Key: key, Value: val} }
func Int(key string, val int) Field         { return Field{Key: key, Value: val} }
func Int64(key string, val int64) Field     { return Field{Key: key, Value: val} }
func Duration(key string, val time.Duration) Field { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field       { return Field{Key: key, Value: val} }
func Err(err error) Field                   { return Field{Key: "error", Value: err} }
func Any(key string, val any) Field         { return Field{Key: key, Value: val} }

// Logger defines the logging abstraction every framework component
// accepts, so callers can swap in zap, logrus, slog, or a test double
// without touching component code.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a new Logger with fields added to every subsequent
	// message.
	With(fields ...Field) Logger

	// Sync flushes any buffered log entries.
	Sync() error
}
