package ui

import (
	"strings"

	"github.com/user/dns-switcher/internal/logger"
	"github.com/user/dns-switcher/internal/procutil"
)

// showError logs the message and shows it in a native alert.
func showError(r procutil.Runner, title, message string) {
	logger.Error("%s: %s", title, message)
	name, args := alertCommand(title, message)
	if name == "" {
		return
	}
	if code, out, err := r.Run(name, args...); err != nil || code != 0 {
		logger.Warning("Failed to show alert: code=%d err=%v %s", code, err, strings.TrimSpace(out))
	}
}

// escapeAppleScript escapes a string for use inside an AppleScript double-quoted string.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return s
}
