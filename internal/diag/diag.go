// Package diag provides podtext's diagnostics channel: a leveled logger
// that distinguishes warnings (recovered failures — degraded analysis, a
// missing prompt file) from errors (fatal for the current episode). Built
// on zap, console-encoded for a human reading a terminal at default
// verbosity.
package diag

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap.SugaredLogger with the fields podtext cares about:
// episode-scoped children and a plain Warn/Error/Info surface. No stack
// traces are attached at default verbosity.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New builds the default console-encoded logger. verbose enables debug
// level; otherwise only info and above are emitted.
func New(verbose bool) *Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	return &Logger{sugar: logger.Sugar()}
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// ForEpisode returns a child logger with the episode index attached to
// every subsequent line, so diagnostics for a batch run stay attributable.
func (l *Logger) ForEpisode(index int) *Logger {
	return &Logger{sugar: l.sugar.With("episode_index", index)}
}

func (l *Logger) Info(msg string, kv ...any)  { l.sugar.Infow(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.sugar.Warnw(msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.sugar.Errorw(msg, kv...) }

// Sync flushes buffered log entries. Sync errors on stdout/stderr are
// expected in many environments and are intentionally ignored.
func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}

// Default returns a ready-to-use logger writing to stderr, for commands
// that haven't constructed one explicitly.
func Default() *Logger {
	l := New(os.Getenv("PODTEXT_VERBOSE") != "")
	return l
}
