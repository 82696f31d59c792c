// Package procutil runs external commands for the rest of the application.
package procutil

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/user/dns-switcher/internal/logger"
)

// ErrInvalidOutput is returned when a command writes bytes that are not valid UTF-8.
var ErrInvalidOutput = errors.New("command output is not valid UTF-8")

// Runner executes a command and reports its exit code and combined output.
// A non-zero exit code is not an error; err is only set when the command
// could not be launched or its output could not be decoded.
type Runner interface {
	Run(name string, args ...string) (exitCode int, output string, err error)
}

// ExecRunner is a Runner backed by os/exec.
type ExecRunner struct{}

// NewExecRunner creates a Runner that spawns real processes.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run starts the command, waits for it and returns its combined output.
func (r *ExecRunner) Run(name string, args ...string) (int, string, error) {
	logger.Debug("exec: %s", FormatCommand(name, args))

	var buf bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	exitCode := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return -1, "", fmt.Errorf("start %s: %w", name, err)
		}
		exitCode = exitErr.ExitCode()
	}

	if !utf8.Valid(buf.Bytes()) {
		return exitCode, "", fmt.Errorf("%s: %w", name, ErrInvalidOutput)
	}
	return exitCode, buf.String(), nil
}

// FormatCommand renders a command line for logs and dialogs.
func FormatCommand(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quoteArg(name))
	for _, arg := range args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg string) string {
	if arg == "" {
		return "\"\""
	}
	if strings.IndexAny(arg, " \t\"") == -1 {
		return arg
	}
	return "\"" + strings.ReplaceAll(arg, "\"", "\\\"") + "\""
}
