//go:build darwin

package ui

import "fmt"

func alertCommand(title, message string) (string, []string) {
	script := fmt.Sprintf(`display alert "%s" message "%s" as critical`,
		escapeAppleScript(title), escapeAppleScript(message))
	return "osascript", []string{"-e", script}
}
