package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// -----------------------------------------------------------------------------

// Logger wraps a zap sugared logger behind the printf-style API used across
// the service (Info/Warning/Error take a format string plus arguments).
type Logger struct {
	name string
	zl   *zap.SugaredLogger
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance for the given component name.
// level is one of debug/info/warn/error; unknown values fall back to info.
func NewLogger(level string, name string) *Logger {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true

	base, err := cfg.Build()
	if err != nil {
		// Build only fails on invalid config; fall back to the no-op logger
		// rather than taking the process down during startup.
		base = zap.NewNop()
	}

	return &Logger{
		name: name,
		zl:   base.Named(name).Sugar(),
	}
}

// -----------------------------------------------------------------------------

// Debug logs a debug-level message.
func (l *Logger) Debug(format string, args ...any) {
	l.zl.Debugf(format, args...)
}

// -----------------------------------------------------------------------------

// Info logs an info-level message.
func (l *Logger) Info(format string, args ...any) {
	l.zl.Infof(format, args...)
}

// -----------------------------------------------------------------------------

// Warning logs a warn-level message.
func (l *Logger) Warning(format string, args ...any) {
	l.zl.Warnf(format, args...)
}

// -----------------------------------------------------------------------------

// Error logs an error-level message.
func (l *Logger) Error(format string, args ...any) {
	l.zl.Errorf(format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs an error-level message for unrecoverable conditions.
// The caller decides whether to exit; Critical itself never does.
func (l *Logger) Critical(format string, args ...any) {
	l.zl.Errorf(format, args...)
}

// -----------------------------------------------------------------------------

// Sync flushes buffered log entries.
func (l *Logger) Sync() {
	_ = l.zl.Sync()
}
