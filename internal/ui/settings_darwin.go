//go:build darwin

package ui

import (
	"os"
	"os/exec"

	"github.com/user/dns-switcher/internal/logger"
)

// ShowSettingsWindow opens the catalog in the user's editor on macOS.
func ShowSettingsWindow(path string) {
	editor := os.Getenv("EDITOR")
	if editor != "" {
		if err := exec.Command(editor, path).Start(); err == nil {
			return
		}
	}
	if err := exec.Command("open", "-t", path).Start(); err != nil {
		logger.Error("Failed to open catalog %s: %v", path, err)
	}
}

func openLogFile() {
	logPath := logger.GetLogPath()
	if logPath == "" {
		logger.Warning("No log file to open")
		return
	}
	if err := exec.Command("open", logPath).Start(); err != nil {
		logger.Error("Failed to open log file: %v", err)
	}
}
