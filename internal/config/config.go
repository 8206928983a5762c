// Package config implements layered configuration for interpinfo.
// Precedence: defaults < config file < env (INTERPINFO_*) < flags.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
)

// Durable store backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendDisabled = "disabled"
)

// Config is the top-level configuration structure.
type Config struct {
	Cache   CacheConfig   `toml:"cache" mapstructure:"cache"`
	Log     LogConfig     `toml:"log" mapstructure:"log"`
	Metrics MetricsConfig `toml:"metrics" mapstructure:"metrics"`
}

// CacheConfig selects where and how interpreter records are persisted.
type CacheConfig struct {
	AppData string `toml:"app_data" mapstructure:"app_data"` // empty: platform default
	Backend string `toml:"backend" mapstructure:"backend"`   // file | sqlite | disabled
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level" mapstructure:"level"`
}

// MetricsConfig holds metrics export settings.
type MetricsConfig struct {
	Textfile string `toml:"textfile" mapstructure:"textfile"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Cache: CacheConfig{Backend: BackendFile},
		Log:   LogConfig{Level: "info"},
	}
}

// Validate rejects values no component can act on.
func Validate(cfg Config) error {
	switch cfg.Cache.Backend {
	case BackendFile, BackendSQLite, BackendDisabled:
	default:
		return fmt.Errorf("cache.backend must be one of file, sqlite, disabled; got %q", cfg.Cache.Backend)
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", cfg.Log.Level)
	}
	return nil
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg Config) error {
	enc := toml.NewEncoder(w)
	enc.Indent = "  "
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
