// Package logging provides the structured logger used across graphplan's
// components, backed by zap the way the teacher's logging package is.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface passed to every component constructor.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Named(name string) Logger
	Sync() error
}

type impl struct {
	sugar *zap.SugaredLogger
}

// NewConfig returns the console-encoder zap config graphplan loggers are
// built from: ISO8601 timestamps, capitalized colored levels, no
// stacktraces by default.
func NewConfig() zap.Config {
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(zap.InfoLevel),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// New returns a new named Logger that outputs Info+ logs to stdout.
func New(name string) Logger {
	cfg := NewConfig()
	built, err := cfg.Build()
	if err != nil {
		// Build only fails on a malformed static config; fall back to a
		// no-op core rather than panicking a caller that just wants a logger.
		built = zap.NewNop()
	}
	return &impl{sugar: built.Named(name).Sugar()}
}

// NewDebug returns a new named Logger that outputs Debug+ logs to stdout.
func NewDebug(name string) Logger {
	cfg := NewConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	built, err := cfg.Build()
	if err != nil {
		built = zap.NewNop()
	}
	return &impl{sugar: built.Named(name).Sugar()}
}

// NewTest returns a Logger suitable for use in tests: Debug+ to stdout,
// no sampling.
func NewTest() Logger {
	built := zap.NewExample()
	return &impl{sugar: built.Sugar()}
}

func (l *impl) Debugw(msg string, kv ...interface{}) { l.sugar.Debugw(msg, kv...) }
func (l *impl) Infow(msg string, kv ...interface{})  { l.sugar.Infow(msg, kv...) }
func (l *impl) Warnw(msg string, kv ...interface{})  { l.sugar.Warnw(msg, kv...) }
func (l *impl) Errorw(msg string, kv ...interface{}) { l.sugar.Errorw(msg, kv...) }

func (l *impl) Named(name string) Logger {
	return &impl{sugar: l.sugar.Named(name)}
}

func (l *impl) Sync() error {
	return l.sugar.Sync()
}
