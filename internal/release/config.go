// Package release implements the package storage service: a
// GitHub-releases-compatible HTTP API over a directory of immutable blobs.
package release

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when CONFIG_PATH is not set.
const DefaultConfigPath = "/etc/release-server/config.yaml"

// Config holds the service settings.
type Config struct {
	StoragePath string `yaml:"storage_path"`
	MaxPackages int    `yaml:"max_packages"`
	AuthToken   string `yaml:"auth_token"`
	Port        int    `yaml:"port"`
	LogLevel    string `yaml:"log_level"`
}

// DefaultConfig returns the documented defaults. AuthToken has no default;
// a missing token is a startup error.
func DefaultConfig() Config {
	return Config{
		StoragePath: "/data",
		MaxPackages: 10,
		Port:        8000,
		LogLevel:    "info",
	}
}

// LoadConfig resolves the config: defaults, then the YAML file at
// CONFIG_PATH (or the default path) when present, then RELEASE_* environment
// variables. Later sources win.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultConfigPath
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("RELEASE_STORAGE_PATH"); v != "" {
		cfg.StoragePath = v
	}
	if v := os.Getenv("RELEASE_MAX_PACKAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("RELEASE_MAX_PACKAGES: %w", err)
		}
		cfg.MaxPackages = n
	}
	if v := os.Getenv("RELEASE_AUTH_TOKEN"); v != "" {
		cfg.AuthToken = v
	}
	if v := os.Getenv("RELEASE_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("RELEASE_PORT: %w", err)
		}
		cfg.Port = n
	}
	if v := os.Getenv("RELEASE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if cfg.AuthToken == "" {
		return cfg, fmt.Errorf("auth_token is required (set RELEASE_AUTH_TOKEN or auth_token in %s)", path)
	}
	if cfg.MaxPackages < 1 {
		return cfg, fmt.Errorf("max_packages must be positive, got %d", cfg.MaxPackages)
	}

	return cfg, nil
}
