package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jwebster45206/dialogue-engine/internal/config"
)

// Setup configures the global slog logger based on environment, writing to w
func Setup(cfg *config.Config, w io.Writer) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	if cfg.Environment == "production" {
		// JSON format for production
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// OpenFile opens cfg.LogFile for appending, or returns io.Discard when no
// log file is configured. The terminal belongs to the UI, so the console
// never logs to stdout.
func OpenFile(cfg *config.Config) (io.Writer, func() error, error) {
	if cfg.LogFile == "" {
		return io.Discard, func() error { return nil }, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, f.Close, nil
}

// WithError adds error to logger context
func WithError(logger *slog.Logger, err error) *slog.Logger {
	return logger.With("error", err.Error())
}
