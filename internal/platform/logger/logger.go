// Package logger wraps zap behind a small global accessor so services can
// log structured fields without threading a logger through every
// constructor.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global *zap.Logger = zap.NewNop()

// Init builds the global logger. Level is one of debug, info, warn, error.
func Init(level string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(zap.AddCallerSkip(0))
	if err != nil {
		return err
	}
	global = l
	return nil
}

// L returns the global logger.
func L() *zap.Logger {
	return global
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	_ = global.Sync()
}
