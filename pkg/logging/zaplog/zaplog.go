// Package zaplog provides a zap-backed sprintf-style logger for the
// logging.Logger interface.
package zaplog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SprintfLogger exposes printf-style log functions backed by zap
type SprintfLogger struct {
	sugar *zap.SugaredLogger
}

// NewSprintfLogger creates a console logger at the given level.
// Recognized levels: debug, info, warn, error. Anything else defaults to info.
func NewSprintfLogger(level string) (*SprintfLogger, error) {
	zapLevel := parseLevel(level)

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, err
	}

	return &SprintfLogger{sugar: logger.Sugar()}, nil
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *SprintfLogger) Debugf(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

func (l *SprintfLogger) Infof(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

func (l *SprintfLogger) Warnf(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

func (l *SprintfLogger) Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Sync flushes buffered log entries. Call before process exit.
func (l *SprintfLogger) Sync() error {
	return l.sugar.Sync()
}
