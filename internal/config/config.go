package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the client settings.
type Config struct {
	ServerURL         string
	SocketPath        string
	LogDir            string
	LogLevel          string
	NotificationsFile string
	RequestTimeout    time.Duration
	EventBuffer       int
	MetricsAddr       string
}

const (
	defaultConfigPath        = "~/.config/queuewatch/config.toml"
	defaultServerURL         = "http://127.0.0.1:8081"
	defaultSocketPath        = "/ws"
	defaultLogDir            = "~/.local/share/queuewatch/logs"
	defaultLogLevel          = "info"
	defaultNotificationsFile = "~/.local/share/queuewatch/notifications.toml"
	defaultRequestTimeout    = 10 * time.Second
	defaultEventBuffer       = 256

	envServerURL = "QUEUEWATCH_SERVER_URL"
	envLogLevel  = "QUEUEWATCH_LOG_LEVEL"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ServerURL:         defaultServerURL,
		SocketPath:        defaultSocketPath,
		LogDir:            mustExpand(defaultLogDir),
		LogLevel:          defaultLogLevel,
		NotificationsFile: mustExpand(defaultNotificationsFile),
		RequestTimeout:    defaultRequestTimeout,
		EventBuffer:       defaultEventBuffer,
	}
}

// Load locates and parses the config file, falling back to defaults when it is
// missing. Environment overrides apply last.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		ServerURL         string `toml:"server_url"`
		SocketPath        string `toml:"socket_path"`
		LogDir            string `toml:"log_dir"`
		LogLevel          string `toml:"log_level"`
		NotificationsFile string `toml:"notifications_file"`
		RequestTimeout    int    `toml:"request_timeout_seconds"`
		EventBuffer       int    `toml:"event_buffer"`
		MetricsAddr       string `toml:"metrics_addr"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.ServerURL); v != "" {
		cfg.ServerURL = v
	}
	if v := strings.TrimSpace(raw.SocketPath); v != "" {
		cfg.SocketPath = v
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.LogDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.NotificationsFile); v != "" {
		cfg.NotificationsFile = mustExpand(v)
	}
	if raw.RequestTimeout > 0 {
		cfg.RequestTimeout = time.Duration(raw.RequestTimeout) * time.Second
	}
	if raw.EventBuffer > 0 {
		cfg.EventBuffer = raw.EventBuffer
	}
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(envServerURL)); v != "" {
		cfg.ServerURL = v
	}
	if v := strings.TrimSpace(os.Getenv(envLogLevel)); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
}

// Level maps LogLevel onto slog, defaulting to info for unknown names.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
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

// LogPath returns the client log file used in TUI mode.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/queuewatch.log")
	}
	return filepath.Join(c.LogDir, "queuewatch.log")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
