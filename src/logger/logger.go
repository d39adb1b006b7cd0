package logger

import (
	"os"
	"strings"

	"gateway-stream/src/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// -----------------------------------------------------------------------------

// Logger provides named, printf-style logging on top of zap.
type Logger struct {
	name  string
	sugar *zap.SugaredLogger
	base  *zap.Logger
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance. cfg may be nil, in which case the
// logger writes INFO and above to stdout.
func NewLogger(cfg *models.MConfig, name string) *Logger {
	base := zap.New(newCore(cfg), zap.AddCaller(), zap.AddCallerSkip(1)).Named(name)
	return &Logger{
		name:  name,
		sugar: base.Sugar(),
		base:  base,
	}
}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger(name string) *Logger {
	base := zap.NewNop()
	return &Logger{name: name, sugar: base.Sugar(), base: base}
}

// FromZap wraps an existing zap logger.
func FromZap(base *zap.Logger, name string) *Logger {
	base = base.Named(name)
	return &Logger{name: name, sugar: base.Sugar(), base: base}
}

// -----------------------------------------------------------------------------

func newCore(cfg *models.MConfig) zapcore.Core {
	level := zapcore.InfoLevel
	var writer zapcore.WriteSyncer = zapcore.AddSync(os.Stdout)

	if cfg != nil {
		if parsed, err := zapcore.ParseLevel(normalizeLevel(cfg.LogLevel)); err == nil {
			level = parsed
		}
		if cfg.LogFile != "" {
			writer = zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    50, // MB
				MaxBackups: 5,
				MaxAge:     14, // days
				Compress:   true,
			})
		}
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	return zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), writer, level)
}

// normalizeLevel accepts upper case names and the WARNING/CRITICAL aliases.
func normalizeLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return "warn"
	}
	if level == "critical" {
		return "fatal"
	}
	return level
}

// -----------------------------------------------------------------------------

// With returns a child logger carrying structured key/value pairs.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	sugar := l.sugar.With(keysAndValues...)
	return &Logger{name: l.name, sugar: sugar, base: sugar.Desugar()}
}

// Named returns a child logger with name appended.
func (l *Logger) Named(name string) *Logger {
	base := l.base.Named(name)
	return &Logger{name: l.name + "." + name, sugar: base.Sugar(), base: base}
}

// Zap exposes the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	return l.base
}

// -----------------------------------------------------------------------------

// Debug logs diagnostic messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.sugar.Fatalf(format, args...)
}

// -----------------------------------------------------------------------------

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.base.Sync()
}
