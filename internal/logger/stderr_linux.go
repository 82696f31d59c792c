//go:build linux

package logger

import (
	"os"

	"golang.org/x/sys/unix"
)

// redirectStderr redirects stderr to the log file so panics are captured.
// Dup3 is used because linux/arm64 has no dup2 syscall.
func redirectStderr(f *os.File) {
	unix.Dup3(int(f.Fd()), int(os.Stderr.Fd()), 0) //nolint:errcheck
}
