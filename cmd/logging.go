package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
)

// SetupLogging configures slog with charmbracelet/log for colorful output.
func SetupLogging(levelStr string) {
	slog.SetDefault(newLogger(os.Stderr, levelStr))
}

func newLogger(w io.Writer, levelStr string) *slog.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Level:           parseLevel(levelStr),
		ReportTimestamp: true,
	})
	return slog.New(logger)
}

func parseLevel(levelStr string) log.Level {
	switch levelStr {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
