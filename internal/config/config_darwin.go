//go:build darwin

package config

import (
	"os"
	"path/filepath"
)

// GetConfigDir returns ~/Library/Application Support/DNS Switcher, which
// stays writable when the app runs from a signed bundle.
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, "Library", "Application Support", "DNS Switcher")
	}
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// GetConfigPath returns the preferences file path.
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "prefs.yaml")
}
