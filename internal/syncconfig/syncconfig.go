package syncconfig

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AutoSyncConfig holds auto-sync settings.
type AutoSyncConfig struct {
	Enabled  *bool  `json:"enabled,omitempty"`  // nil = default true
	Debounce string `json:"debounce,omitempty"` // duration string, default "1s"
	Interval string `json:"interval,omitempty"` // duration string, default "10m"
}

// SyncConfig holds sync-related settings.
type SyncConfig struct {
	URL  string         `json:"url"`
	Auto AutoSyncConfig `json:"auto"`
}

// StatusConfig holds status message settings.
type StatusConfig struct {
	MessageDuration string `json:"message_duration,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	File  string `json:"file,omitempty"`
	Level string `json:"level,omitempty"`
}

// Config is the global tock config stored at ~/.config/tock/config.json.
type Config struct {
	DataDir string       `json:"data_dir,omitempty"`
	Sync    SyncConfig   `json:"sync"`
	Status  StatusConfig `json:"status"`
	Log     LogConfig    `json:"log"`
}

const (
	DefaultServerURL       = "https://sync.furtherance.app"
	DefaultInterval        = 10 * time.Minute
	DefaultDebounce        = time.Second
	DefaultMessageDuration = 8 * time.Second
)

// ConfigDir returns ~/.config/tock, creating it if necessary.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "tock")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// LoadConfig reads the global config from ~/.config/tock/config.json.
func LoadConfig() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes the global config to ~/.config/tock/config.json.
func SaveConfig(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// load returns the config, or an empty one when the file is unreadable.
func load() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		slog.Debug("syncconfig: load", "err", err)
		return &Config{}
	}
	return cfg
}

// GetServerURL returns the sync server URL.
// Priority: TOCK_SYNC_URL env > config.json > default.
func GetServerURL() string {
	if v := os.Getenv("TOCK_SYNC_URL"); v != "" {
		return v
	}
	if cfg := load(); cfg.Sync.URL != "" {
		return cfg.Sync.URL
	}
	return DefaultServerURL
}

// SetServerURL persists the server URL used for the next login.
func SetServerURL(url string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	cfg.Sync.URL = url
	return SaveConfig(cfg)
}

// GetDataDir returns the directory holding the local database.
// Priority: TOCK_DATA_DIR env > config.json > ~/.local/share/tock.
func GetDataDir() (string, error) {
	if v := os.Getenv("TOCK_DATA_DIR"); v != "" {
		return v, nil
	}
	if cfg := load(); cfg.DataDir != "" {
		return cfg.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "tock"), nil
}

// parseBoolEnv returns nil if env not set, pointer to bool if set.
func parseBoolEnv(envKey string) *bool {
	v := os.Getenv(envKey)
	if v == "" {
		return nil
	}
	v = strings.ToLower(v)
	if v == "1" || v == "true" {
		b := true
		return &b
	}
	if v == "0" || v == "false" {
		b := false
		return &b
	}
	return nil
}

// durationSetting resolves env > config > fallback. Non-positive values are ignored.
func durationSetting(envKey, configured string, fallback time.Duration) time.Duration {
	if v := os.Getenv(envKey); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	if configured != "" {
		if d, err := time.ParseDuration(configured); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// GetAutoSyncEnabled returns whether auto-sync is enabled.
// Priority: TOCK_SYNC_AUTO env > config.json sync.auto.enabled > true
func GetAutoSyncEnabled() bool {
	if v := parseBoolEnv("TOCK_SYNC_AUTO"); v != nil {
		return *v
	}
	if cfg := load(); cfg.Sync.Auto.Enabled != nil {
		return *cfg.Sync.Auto.Enabled
	}
	return true
}

// GetAutoSyncDebounce returns the quiet period after a local change before syncing.
// Priority: TOCK_SYNC_DEBOUNCE env > config.json sync.auto.debounce > 1s
func GetAutoSyncDebounce() time.Duration {
	return durationSetting("TOCK_SYNC_DEBOUNCE", load().Sync.Auto.Debounce, DefaultDebounce)
}

// GetAutoSyncInterval returns the periodic sync interval.
// Priority: TOCK_SYNC_INTERVAL env > config.json sync.auto.interval > 10m
func GetAutoSyncInterval() time.Duration {
	return durationSetting("TOCK_SYNC_INTERVAL", load().Sync.Auto.Interval, DefaultInterval)
}

// GetMessageDuration returns how long a status message stays visible.
// Priority: TOCK_MESSAGE_DURATION env > config.json status.message_duration > 8s
func GetMessageDuration() time.Duration {
	return durationSetting("TOCK_MESSAGE_DURATION", load().Status.MessageDuration, DefaultMessageDuration)
}

// GetLogFile returns the daemon log file path, or "" for stderr.
func GetLogFile() string {
	if v := os.Getenv("TOCK_LOG_FILE"); v != "" {
		return v
	}
	return load().Log.File
}

// GetLogLevel returns the configured log level name, default "info".
func GetLogLevel() string {
	if v := os.Getenv("TOCK_LOG_LEVEL"); v != "" {
		return v
	}
	if lvl := load().Log.Level; lvl != "" {
		return lvl
	}
	return "info"
}
