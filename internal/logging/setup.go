package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup builds the process logger from the LOG_LEVEL environment variable
// and installs it as the slog default. Unknown or empty values fall back to
// info.
func Setup() *slog.Logger {
	return SetupWithLevel(os.Getenv("LOG_LEVEL"))
}

// SetupWithLevel builds a tinted console logger at the named level.
func SetupWithLevel(level string) *slog.Logger {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      parseLevel(level),
		TimeFormat: time.TimeOnly,
	}))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
