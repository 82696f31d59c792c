// Package netsvc enumerates macOS network services and picks the one DNS
// changes are applied to.
package netsvc

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/user/dns-switcher/internal/catalog"
	"github.com/user/dns-switcher/internal/logger"
	"github.com/user/dns-switcher/internal/procutil"
)

// NetworkSetup is the macOS network configuration tool.
const NetworkSetup = "networksetup"

const (
	disabledMarker = "*"
	headerPrefix   = "An asterisk"
)

var (
	// ErrListFailed is returned when the service list cannot be obtained.
	ErrListFailed = errors.New("failed to list network services")
	// ErrNoInterfaces is returned when no enabled service exists.
	ErrNoInterfaces = errors.New("no network interfaces available")
)

// ListInterfaces returns the enabled network services in the order the OS reports them.
func ListInterfaces(r procutil.Runner) ([]string, error) {
	code, out, err := r.Run(NetworkSetup, "-listallnetworkservices")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListFailed, err)
	}
	if code != 0 {
		return nil, fmt.Errorf("%w: exit code %d: %s", ErrListFailed, code, strings.TrimSpace(out))
	}
	return ParseServices(out), nil
}

// ParseServices parses `networksetup -listallnetworkservices` output.
// Blank lines, the explanatory header and disabled services are dropped.
func ParseServices(out string) []string {
	var services []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, headerPrefix) {
			continue
		}
		if strings.HasPrefix(line, disabledMarker) || strings.HasSuffix(line, disabledMarker) {
			continue
		}
		services = append(services, line)
	}
	return services
}

// ResolveActive returns the interface DNS changes apply to. The catalog's
// interface is kept when it is available; otherwise the first available one
// is stored in the catalog and changed is true so the caller can persist it.
func ResolveActive(cat *catalog.Catalog, available []string) (name string, changed bool, err error) {
	if slices.Contains(available, cat.Interface) {
		return cat.Interface, false, nil
	}
	if len(available) == 0 {
		return "", false, ErrNoInterfaces
	}

	logger.Warning("Interface %q not available, falling back to %q", cat.Interface, available[0])
	cat.Interface = available[0]
	return cat.Interface, true, nil
}
