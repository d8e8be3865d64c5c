package logger

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup installs a tinted stderr handler as the process-wide slog default.
// Level names follow slog's text form (debug, info, warn, error); anything
// unrecognized falls back to info.
func Setup(level string) {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		logLevel = slog.LevelInfo
	}

	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.TimeOnly,
	})
	slog.SetDefault(slog.New(handler))
}
