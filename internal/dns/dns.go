// Package dns applies DNS profiles to a network service and reads back the
// servers the OS currently has configured.
package dns

import (
	"fmt"
	"strings"
)

// Outcome classifies the result of an activation.
type Outcome int

const (
	Success Outcome = iota
	PreCommandFailed
	DnsChangeFailed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case PreCommandFailed:
		return "pre-command failed"
	case DnsChangeFailed:
		return "dns change failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result describes what happened when a profile was activated.
type Result struct {
	Outcome  Outcome
	ExitCode int
	Output   string
	// Err is set when networksetup itself could not be launched. The
	// application cannot work without it and treats this as fatal.
	Err error
}

// OK reports whether the profile was applied.
func (r Result) OK() bool {
	return r.Outcome == Success && r.Err == nil
}

// Message renders the result for a dialog.
func (r Result) Message() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	if r.Outcome == Success {
		return "DNS servers updated"
	}
	msg := fmt.Sprintf("%s (exit code %d)", capitalize(r.Outcome.String()), r.ExitCode)
	if out := strings.TrimSpace(r.Output); out != "" {
		msg += "\n\n" + out
	}
	return msg
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
