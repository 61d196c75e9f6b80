package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backend names accepted in StorageConfig.Backend.
const (
	BackendSQLite  = "sqlite"
	BackendFile    = "file"
	BackendKeyring = "keyring"
	BackendMemory  = "memory"
)

// DefaultBlobKey is the name of the blob holding the notification list.
const DefaultBlobKey = "mediadash_notifications"

// StorageConfig selects where the notification blob is persisted.
type StorageConfig struct {
	// Backend is one of "sqlite", "file", "keyring" or "memory".
	Backend string `mapstructure:"backend" yaml:"backend"`

	// Path is the database file (sqlite) or directory (file, keyring).
	Path string `mapstructure:"path" yaml:"path"`

	// Key is the blob name.
	Key string `mapstructure:"key" yaml:"key"`

	// Passphrase protects the keyring file backend when no system
	// keychain is available.
	Passphrase string `mapstructure:"passphrase" yaml:"passphrase"`
}

// ExpiryConfig controls the archived-notification sweep.
type ExpiryConfig struct {
	Window           time.Duration `mapstructure:"window" yaml:"window"`
	SweepIntervalSec int           `mapstructure:"sweep_interval_sec" yaml:"sweep_interval_sec"`
}

// IngestConfig controls how notifications are picked up from the
// classification service.
type IngestConfig struct {
	SpoolDir        string `mapstructure:"spool_dir" yaml:"spool_dir"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig holds the optional local metrics listener.
type MetricsConfig struct {
	// Addr is the listen address for /metrics. Empty disables it.
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Expiry  ExpiryConfig  `mapstructure:"expiry" yaml:"expiry"`
	Ingest  IngestConfig  `mapstructure:"ingest" yaml:"ingest"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// configDir returns ~/.config/mediadash, or the working directory when
// the home directory cannot be resolved.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "mediadash")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/mediadash/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	dir := configDir()
	return &AppConfig{
		Storage: StorageConfig{
			Backend: BackendSQLite,
			Path:    filepath.Join(dir, "mediadash.db"),
			Key:     DefaultBlobKey,
		},
		Expiry: ExpiryConfig{
			Window:           24 * time.Hour,
			SweepIntervalSec: 900,
		},
		Ingest: IngestConfig{
			SpoolDir:        filepath.Join(dir, "spool"),
			PollIntervalSec: 60,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with MEDIADASH_ override file values.
// If the file does not exist, defaults are used.
func LoadConfig(path string) (*AppConfig, error) {
	def := DefaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("storage.backend", def.Storage.Backend)
	v.SetDefault("storage.path", def.Storage.Path)
	v.SetDefault("storage.key", def.Storage.Key)
	v.SetDefault("storage.passphrase", "")
	v.SetDefault("expiry.window", def.Expiry.Window)
	v.SetDefault("expiry.sweep_interval_sec", def.Expiry.SweepIntervalSec)
	v.SetDefault("ingest.spool_dir", def.Ingest.SpoolDir)
	v.SetDefault("ingest.poll_interval_sec", def.Ingest.PollIntervalSec)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("metrics.addr", "")

	v.SetEnvPrefix("MEDIADASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values that viper cannot check on its own.
func (c *AppConfig) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendFile, BackendKeyring, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Key == "" {
		return errors.New("storage key must not be empty")
	}
	if c.Expiry.Window <= 0 {
		return fmt.Errorf("expiry window must be positive, got %s", c.Expiry.Window)
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("storage", map[string]any{
		"backend":    cfg.Storage.Backend,
		"path":       cfg.Storage.Path,
		"key":        cfg.Storage.Key,
		"passphrase": cfg.Storage.Passphrase,
	})
	v.Set("expiry", map[string]any{
		"window":             cfg.Expiry.Window.String(),
		"sweep_interval_sec": cfg.Expiry.SweepIntervalSec,
	})
	v.Set("ingest", map[string]any{
		"spool_dir":         cfg.Ingest.SpoolDir,
		"poll_interval_sec": cfg.Ingest.PollIntervalSec,
	})
	v.Set("log", map[string]any{
		"level":  cfg.Log.Level,
		"format": cfg.Log.Format,
	})
	v.Set("metrics", map[string]any{
		"addr": cfg.Metrics.Addr,
	})

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
