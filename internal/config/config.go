package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config holds scrobz runtime configuration loaded from TOML.
type Config struct {
	ConfigVersion int           `toml:"config_version"`
	Username      string        `toml:"username"`
	Product       string        `toml:"product"`
	Cache         CacheConfig   `toml:"cache"`
	History       HistoryConfig `toml:"history"`
}

// CacheConfig holds submission cache settings.
type CacheConfig struct {
	// Dir overrides the directory holding the cache file. Empty means
	// the default state directory.
	Dir string `toml:"dir"`
}

// HistoryConfig holds submission journal settings.
type HistoryConfig struct {
	// Enabled toggles the journal. Left unset it defaults to on;
	// use JournalEnabled to read it.
	Enabled *bool `toml:"enabled"`
	// DB overrides the journal database path.
	DB string `toml:"db"`
}

// JournalEnabled reports whether the submission journal is on. A
// config that does not mention it gets the default, true.
func (h HistoryConfig) JournalEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// Load reads configuration from disk. If path is empty, a default
// OS-specific location is used; a missing file at the default location
// yields defaults rather than an error so the CLI can run on flags
// alone. An explicit path must exist.
func Load(path string) (*Config, string, error) {
	cfgPath := path
	if cfgPath == "" {
		var err error
		cfgPath, err = defaultPath()
		if err != nil {
			return nil, "", fmt.Errorf("resolve config path: %w", err)
		}
	}

	data, err := os.ReadFile(cfgPath)
	if err != nil {
		if path == "" && errors.Is(err, os.ErrNotExist) {
			cfg := &Config{}
			applyDefaults(cfg)
			return cfg, cfgPath, nil
		}
		return nil, cfgPath, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, cfgPath, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(cfg); err != nil {
		return nil, cfgPath, err
	}

	return &cfg, cfgPath, nil
}

func defaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	base := filepath.Join(dir, "scrobz")
	return filepath.Join(base, "config.toml"), nil
}

func applyDefaults(cfg *Config) {
	if cfg.ConfigVersion == 0 {
		cfg.ConfigVersion = 1
	}
	if cfg.Product == "" {
		cfg.Product = "scrobz"
	}
}

// Validate performs semantic validation of config.
func Validate(cfg Config) error {
	if cfg.ConfigVersion > 1 {
		return fmt.Errorf("unsupported config_version %d", cfg.ConfigVersion)
	}
	if cfg.Cache.Dir != "" {
		if info, err := os.Stat(cfg.Cache.Dir); err == nil && !info.IsDir() {
			return fmt.Errorf("cache.dir %s is not a directory", cfg.Cache.Dir)
		}
	}
	return nil
}
