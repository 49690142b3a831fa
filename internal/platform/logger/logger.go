package logger

import (
	"log/slog"
	"os"
)

// New returns the root structured logger. Level defaults to info and can be
// lowered with PLANCHECK_LOG_LEVEL=debug.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("PLANCHECK_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
