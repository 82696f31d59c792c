// Package config handles the application's own preferences: where the
// profile catalog lives, logging, and background refresh.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// CatalogFileName is the catalog's file name in the user's home directory.
const CatalogFileName = ".dnsswitcher.json"

// Config represents the preferences file.
type Config struct {
	Version         int    `yaml:"version"`
	CatalogPath     string `yaml:"catalog_path"`
	LogLevel        string `yaml:"log_level"`
	RefreshInterval int    `yaml:"refresh_interval"` // seconds, 0 disables the background refresh
	FlushCache      bool   `yaml:"flush_cache"`
}

// DefaultConfig returns the default preferences.
func DefaultConfig() *Config {
	return &Config{
		Version:         1,
		CatalogPath:     filepath.Join("~", CatalogFileName),
		LogLevel:        "info",
		RefreshInterval: 30,
		FlushCache:      true,
	}
}

// ResolvedCatalogPath returns CatalogPath with a leading ~ expanded.
func (c *Config) ResolvedCatalogPath() string {
	return expandHome(c.CatalogPath)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}
