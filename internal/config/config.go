// Package config loads the user-facing wutag configuration file. It is a
// thin collaborator consumed only by cmd/wutag: none of the core packages
// (internal/registry, internal/query, internal/exec) import it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk shape of ~/.config/wutag/config.yml.
type Config struct {
	// RegistryPath overrides the default registry file location.
	RegistryPath string `yaml:"registry_path,omitempty"`
	// DefaultColor is loaded from the file but not read by cmd/wutag, which
	// creates tags with ids.DefaultColor.
	DefaultColor string `yaml:"default_color,omitempty"`
	// MaxWorkers overrides the default executor worker count (0 = NumCPU).
	MaxWorkers int `yaml:"max_workers,omitempty"`
	// ColorWhen holds "auto", "always", or "never". It is loaded from the
	// file but not read by cmd/wutag; colored output follows the --color
	// flag and NO_COLOR only.
	ColorWhen string `yaml:"color_when,omitempty"`
}

// Default returns a Config with sane defaults applied.
func Default() Config {
	return Config{
		DefaultColor: "#14b8a6",
		MaxWorkers:   runtime.NumCPU(),
		ColorWhen:    "auto",
	}
}

// Load reads and parses the config file at path. A missing file is not an
// error; Default() is returned instead.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath returns the conventional config file location, honoring
// $XDG_CONFIG_HOME.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", "wutag", "config.yml")
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "wutag", "config.yml")
}

// RegistryPath resolves the registry file location in priority order:
// explicit flag, WUTAG_REGISTRY env var, config file, then the XDG default.
func RegistryPath(flagValue string, cfg Config) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("WUTAG_REGISTRY"); env != "" {
		return env
	}
	if cfg.RegistryPath != "" {
		return cfg.RegistryPath
	}
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			base = filepath.Join(home, ".local", "share")
		}
	}
	return filepath.Join(base, "wutag", "wutag.registry")
}
