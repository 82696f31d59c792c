//go:build linux

package ui

func alertCommand(title, message string) (string, []string) {
	return "notify-send", []string{"--urgency=critical", title, message}
}
