package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// AppDataEnv overrides the application data directory.
const AppDataEnv = "INTERPINFO_APP_DATA"

// Platform resolves per-user filesystem locations.
type Platform struct {
	cacheDir  string
	configDir string
}

// New creates a Platform from the current user's cache and config
// directories.
func New() (*Platform, error) {
	cache, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("resolve cache directory: %w", err)
	}
	config, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config directory: %w", err)
	}
	return &Platform{cacheDir: cache, configDir: config}, nil
}

// ResolveAppDataDir returns the application data directory, checking flag,
// env, then the default under the user cache directory.
func (p *Platform) ResolveAppDataDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(AppDataEnv); v != "" {
		return v
	}
	return p.DefaultAppDataDir()
}

// DefaultAppDataDir returns <user cache dir>/interpinfo.
func (p *Platform) DefaultAppDataDir() string {
	return filepath.Join(p.cacheDir, "interpinfo")
}

// ScriptDir returns where the bootstrap script is extracted.
func (p *Platform) ScriptDir(appData string) string {
	return filepath.Join(appData, "scripts")
}

// UserConfigPath returns <user config dir>/interpinfo/config.toml.
func (p *Platform) UserConfigPath() string {
	return filepath.Join(p.configDir, "interpinfo", "config.toml")
}
