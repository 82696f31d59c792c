//go:build darwin

package main

import (
	"os"
	"strings"
)

func init() {
	// When launched from Finder / launchd the PATH is minimal
	// (/usr/bin:/bin:/usr/sbin:/sbin) and does not include the Homebrew
	// or MacPorts directories that profile pre-commands usually live in.
	extraPaths := []string{
		"/opt/homebrew/bin", // Homebrew on Apple Silicon
		"/opt/homebrew/sbin",
		"/usr/local/bin", // Homebrew on Intel
		"/usr/local/sbin",
		"/opt/local/bin", // MacPorts
		"/opt/local/sbin",
	}

	current := os.Getenv("PATH")
	existing := make(map[string]bool)
	for _, p := range strings.Split(current, ":") {
		existing[p] = true
	}

	var toAdd []string
	for _, p := range extraPaths {
		if !existing[p] {
			toAdd = append(toAdd, p)
		}
	}

	if len(toAdd) > 0 {
		os.Setenv("PATH", current+":"+strings.Join(toAdd, ":"))
	}
}
