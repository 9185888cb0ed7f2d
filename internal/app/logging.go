package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lmittmann/tint"

	"github.com/queuewatch/queuewatch/internal/config"
)

// SetupLogger installs the default slog logger. Headless runs log to stderr
// with color; the TUI owns the terminal, so it logs to a file instead. The
// returned closer releases the log file.
func SetupLogger(cfg config.Config, headless bool, stderr io.Writer) (*slog.Logger, func() error, error) {
	if headless {
		logger := slog.New(tint.NewHandler(stderr, &tint.Options{
			Level:      cfg.Level(),
			TimeFormat: "2006-01-02 15:04:05",
		}))
		slog.SetDefault(logger)
		return logger, func() error { return nil }, nil
	}

	path := cfg.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(tint.NewHandler(file, &tint.Options{
		Level:      cfg.Level(),
		TimeFormat: "2006-01-02 15:04:05",
		AddSource:  true,
		NoColor:    true,
	}))
	slog.SetDefault(logger)
	return logger, file.Close, nil
}
