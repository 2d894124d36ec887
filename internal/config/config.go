package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvPath overrides the default config file location.
const EnvPath = "TILECENTRIC_CONFIG"

// DefaultPath is used when EnvPath is unset.
const DefaultPath = "config.toml"

type Config struct {
	StorePath string         `toml:"store_path"`
	Logging   LoggingConfig  `toml:"logging"`
	Database  DatabaseConfig `toml:"database"`
	Scenario  ScenarioConfig `toml:"scenario"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// DatabaseConfig configures the optional PostgreSQL lineage mirror.
type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty disables the mirror
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

func (c DatabaseConfig) Enabled() bool { return strings.TrimSpace(c.DSN) != "" }

type ScenarioConfig struct {
	Path string `toml:"path"` // YAML scenario; empty uses the built-in default
	Size int    `toml:"size"` // grid size for gen when none is given
}

// Path resolves the config file location from the environment.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.StorePath = strings.TrimSpace(cfg.StorePath)
	if cfg.StorePath == "" {
		return nil, errors.New(`config must define a non-empty string key: "store_path"`)
	}
	if cfg.StorePath, err = expandHome(cfg.StorePath); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.Scenario.Path != "" {
		if cfg.Scenario.Path, err = expandHome(cfg.Scenario.Path); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if cfg.Scenario.Size <= 0 || cfg.Scenario.Size%2 == 0 {
		return nil, fmt.Errorf("config %s: scenario.size must be a positive odd integer", path)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Scenario: ScenarioConfig{
			Size: 3,
		},
	}
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", p, err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
