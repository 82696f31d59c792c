//go:build linux

package config

import (
	"os"
	"path/filepath"
)

// GetConfigDir returns the directory next to the executable.
func GetConfigDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// GetConfigPath returns the preferences file path next to the executable.
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "prefs.yaml")
}
