// Package logger builds the process-wide slog logger. Components receive it
// by injection; nothing in this repository logs through a package-level
// default.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New returns a text-format slog logger writing to stdout. The level comes
// from WELLFILE_LOG_LEVEL (debug, info, warn, error), defaulting to info.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromEnv(),
	}))
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("WELLFILE_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
