package dns

import (
	"fmt"
	"strings"

	"github.com/user/dns-switcher/internal/catalog"
	"github.com/user/dns-switcher/internal/logger"
	"github.com/user/dns-switcher/internal/netsvc"
	"github.com/user/dns-switcher/internal/procutil"
)

const dscacheutil = "dscacheutil"

// Activator applies profiles through networksetup.
type Activator struct {
	runner     procutil.Runner
	flushCache bool
}

// NewActivator creates an activator that runs commands with r.
func NewActivator(r procutil.Runner) *Activator {
	return &Activator{runner: r}
}

// SetFlushCache enables flushing the resolver cache after a successful change.
func (a *Activator) SetFlushCache(enabled bool) {
	a.flushCache = enabled
}

// Activate runs the profile's pre-command, if any, then sets its servers on
// iface. A failing pre-command stops the activation before DNS is touched.
// Nothing is rolled back on failure.
func (a *Activator) Activate(p catalog.Profile, iface string) Result {
	if p.HasLoadCmd() {
		if res, ok := a.runPreCommand(p); !ok {
			return res
		}
	}

	args := append([]string{"-setdnsservers", iface}, p.Servers...)
	code, out, err := a.runner.Run(netsvc.NetworkSetup, args...)
	if err != nil {
		logger.Error("Failed to launch %s: %v", netsvc.NetworkSetup, err)
		return Result{Outcome: DnsChangeFailed, ExitCode: -1, Err: fmt.Errorf("failed to set DNS: %w", err)}
	}
	if code != 0 {
		logger.Error("Error changing DNS servers for %q: exit code %d: %s", iface, code, strings.TrimSpace(out))
		return Result{Outcome: DnsChangeFailed, ExitCode: code, Output: out}
	}

	logger.Info("Profile %q applied to %q: %s", p.Name, iface, strings.Join(p.Servers, ", "))
	if a.flushCache {
		a.flush()
	}
	return Result{Outcome: Success, Output: out}
}

func (a *Activator) runPreCommand(p catalog.Profile) (Result, bool) {
	fields := strings.Fields(p.LoadCmd)
	if len(fields) == 0 {
		return Result{}, true
	}

	logger.Info("Running pre-command for %q: %s", p.Name, strings.Join(fields, " "))
	code, out, err := a.runner.Run(fields[0], fields[1:]...)
	if err != nil {
		logger.Error("Pre-command for %q could not run: %v", p.Name, err)
		return Result{Outcome: PreCommandFailed, ExitCode: -1, Output: err.Error()}, false
	}
	if code != 0 {
		logger.Error("Pre-command for %q exited with %d: %s", p.Name, code, strings.TrimSpace(out))
		return Result{Outcome: PreCommandFailed, ExitCode: code, Output: out}, false
	}
	return Result{}, true
}

func (a *Activator) flush() {
	code, out, err := a.runner.Run(dscacheutil, "-flushcache")
	if err != nil || code != 0 {
		logger.Warning("Failed to flush DNS cache: code=%d err=%v %s", code, err, strings.TrimSpace(out))
	}
}
