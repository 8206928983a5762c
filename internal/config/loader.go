package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. INTERPINFO_CACHE_BACKEND.
const EnvPrefix = "INTERPINFO"

// keys lists every supported dotted key.
var keys = []string{
	"cache.app_data",
	"cache.backend",
	"log.level",
	"metrics.textfile",
}

// LoadOptions controls configuration loading.
type LoadOptions struct {
	// ConfigPath is the TOML file to merge. A missing file is not an error.
	ConfigPath string
	// FlagOverrides are highest-priority overrides from CLI flags (dotted keys).
	// Empty string values are ignored so unset flags do not mask lower layers.
	FlagOverrides map[string]string
}

// Load returns the effective configuration.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := mergeConfigFile(v, opts.ConfigPath); err != nil {
		return Config{}, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for k, val := range opts.FlagOverrides {
		if val != "" {
			v.Set(k, val)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("cache.app_data", def.Cache.AppData)
	v.SetDefault("cache.backend", def.Cache.Backend)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("metrics.textfile", def.Metrics.Textfile)
}

// mergeConfigFile merges the TOML config file if it exists.
func mergeConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat config %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("merge config %s: %w", path, err)
	}
	return nil
}

// IsKey reports whether key is a supported dotted key.
func IsKey(key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// WriteValue sets a single key/value in the TOML file at path, creating it if
// needed, and validates the result.
func WriteValue(path, key, value string) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	if !IsKey(key) {
		return fmt.Errorf("unsupported key %q", key)
	}

	existing := map[string]any{}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &existing); err != nil {
			return fmt.Errorf("decode config: %w", err)
		}
	}

	section, name, _ := strings.Cut(key, ".")
	table, ok := existing[section].(map[string]any)
	if !ok {
		table = map[string]any{}
		existing[section] = table
	}
	table[name] = value

	probe := DefaultConfig()
	if err := decodeInto(existing, &probe); err != nil {
		return err
	}
	if err := Validate(probe); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create config %s: %w", path, err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	enc.Indent = "  "
	if err := enc.Encode(existing); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// decodeInto overlays a generic TOML document onto cfg.
func decodeInto(doc map[string]any, cfg *Config) error {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(doc); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if _, err := toml.Decode(b.String(), cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}
