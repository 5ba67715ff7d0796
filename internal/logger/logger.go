// Package logger provides the structured logger shared by the backtest,
// regime and data-fetch components.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap so the rest of the module depends on a single local type
// rather than the zap API surface.
type Logger struct {
	*zap.Logger
}

// NewLogger builds the production logger used by the command line tools.
// Log output goes to stdout and zap-internal errors to stderr, keeping run
// results and diagnostics separately redirectable. The level defaults to
// info and can be changed with GPW_QUANT_LOG_LEVEL (e.g. "debug").
func NewLogger() (*Logger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.InfoLevel
	if raw := os.Getenv("GPW_QUANT_LOG_LEVEL"); raw != "" {
		if err := level.Set(raw); err != nil {
			return nil, err
		}
	}

	config.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{
		Logger: zapLogger,
	}, nil
}

// NewNopLogger returns a logger that discards all output. Used by tests and
// by callers that treat the engine as a pure function.
func NewNopLogger() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	if l.Logger != nil {
		return l.Logger.Sync()
	}
	return nil
}
