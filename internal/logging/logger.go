// Package logging provides structured logging for the dispatcher.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.SugaredLogger behind the small surface the dispatcher
// needs.
type Logger struct {
	zap   *zap.Logger
	sugar *zap.SugaredLogger
}

// New creates a Logger. Format is "json" or "console"; level is one of
// debug, info, warn, error.
func New(level, format string) *Logger {
	var lvl zapcore.Level
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	default:
		lvl = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), lvl)
	zapLogger := zap.New(core)

	return &Logger{
		zap:   zapLogger,
		sugar: zapLogger.Sugar(),
	}
}

// NewNop returns a logger that discards everything. Useful in tests.
func NewNop() *Logger {
	zapLogger := zap.NewNop()
	return &Logger{
		zap:   zapLogger,
		sugar: zapLogger.Sugar(),
	}
}

// With returns a child logger with the given key-value pairs attached.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	sugar := l.sugar.With(keysAndValues...)
	return &Logger{
		zap:   sugar.Desugar(),
		sugar: sugar,
	}
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// Close flushes buffered log entries.
func (l *Logger) Close() error {
	return l.zap.Sync()
}
