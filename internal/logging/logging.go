// Package logging wires zap for AeonFix. One logger is built at startup
// and handed down; components hold a *zap.Logger named for their subsystem.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process-wide logger. Verbose enables debug level.
// Log output goes to stderr so it never interleaves with console panels.
func New(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return cfg.Build()
}

// Nop returns a logger that discards everything. Used by tests and as a
// safe default before configuration is loaded.
func Nop() *zap.Logger {
	return zap.NewNop()
}
