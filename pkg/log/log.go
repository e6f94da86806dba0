// Package log configures the process-wide structured logger.
package log

import (
	"io"
	"log/slog"
	"os"
)

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Setup installs the default slog logger writing text to stderr.
// Unknown level names fall back to info.
func Setup(logLevel string) {
	slog.SetDefault(NewLogger(os.Stderr, logLevel))
}

// NewLogger builds a logger for the given writer and level name.
func NewLogger(w io.Writer, logLevel string) *slog.Logger {
	level, ok := levels[logLevel]
	if !ok {
		level = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// WithModule returns the default logger tagged with a module name.
func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
