// Package logger wraps a zap SugaredLogger so the rest of the service only
// depends on a small set of leveled helpers.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

// New builds a production logger, or a development one when dev is true.
// Timestamps are always ISO8601.
func New(dev bool) (*Logger, error) {
	config := zap.NewProductionConfig()
	if dev {
		config = zap.NewDevelopmentConfig()
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := config.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: l.Sugar()}, nil
}

// Nop returns a logger that discards everything. Tests use it.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...)}
}

func (l *Logger) Info(args ...interface{})  { l.SugaredLogger.Info(args...) }
func (l *Logger) Error(args ...interface{}) { l.SugaredLogger.Error(args...) }
func (l *Logger) Debug(args ...interface{}) { l.SugaredLogger.Debug(args...) }
func (l *Logger) Warn(args ...interface{})  { l.SugaredLogger.Warn(args...) }
func (l *Logger) Fatal(args ...interface{}) { l.SugaredLogger.Fatal(args...) }

func (l *Logger) Infof(format string, args ...interface{})  { l.SugaredLogger.Infof(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.SugaredLogger.Errorf(format, args...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.SugaredLogger.Debugf(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.SugaredLogger.Warnf(format, args...) }
func (l *Logger) Fatalf(format string, args ...interface{}) { l.SugaredLogger.Fatalf(format, args...) }

// Infow logs a message with structured key/value context.
func (l *Logger) Infow(msg string, kv ...interface{})  { l.SugaredLogger.Infow(msg, kv...) }
func (l *Logger) Errorw(msg string, kv ...interface{}) { l.SugaredLogger.Errorw(msg, kv...) }
func (l *Logger) Warnw(msg string, kv ...interface{})  { l.SugaredLogger.Warnw(msg, kv...) }
func (l *Logger) Fatalw(msg string, kv ...interface{}) { l.SugaredLogger.Fatalw(msg, kv...) }

// Sync flushes buffered entries.
func (l *Logger) Sync() error { return l.SugaredLogger.Sync() }
