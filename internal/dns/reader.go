package dns

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/user/dns-switcher/internal/catalog"
	"github.com/user/dns-switcher/internal/netsvc"
	"github.com/user/dns-switcher/internal/procutil"
)

// ErrStateUnknown is returned when the current servers cannot be queried.
var ErrStateUnknown = errors.New("current DNS servers unknown")

const noServersMarker = "There aren't any DNS Servers"

// Reader queries the DNS servers configured on a network service.
type Reader struct {
	runner procutil.Runner
}

// NewReader creates a reader that runs commands with r.
func NewReader(r procutil.Runner) *Reader {
	return &Reader{runner: r}
}

// CurrentServers returns the servers configured on iface in order. An empty
// result means the service uses the DHCP-provided servers.
func (r *Reader) CurrentServers(iface string) ([]string, error) {
	code, out, err := r.runner.Run(netsvc.NetworkSetup, "-getdnsservers", iface)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStateUnknown, err)
	}
	if code != 0 {
		return nil, fmt.Errorf("%w: exit code %d: %s", ErrStateUnknown, code, strings.TrimSpace(out))
	}
	return ParseServers(out), nil
}

// ParseServers parses `networksetup -getdnsservers` output.
func ParseServers(out string) []string {
	if strings.Contains(out, noServersMarker) {
		return nil
	}
	var servers []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			servers = append(servers, line)
		}
	}
	return servers
}

// MatchingProfile returns the first profile, in catalog order, whose servers
// equal current exactly. An empty current list never matches.
func MatchingProfile(cat *catalog.Catalog, current []string) (catalog.Profile, bool) {
	i := MatchingIndex(cat, current)
	if i < 0 {
		return catalog.Profile{}, false
	}
	return cat.Profiles[i].Clone(), true
}

// MatchingIndex is MatchingProfile returning the storage index, or -1.
func MatchingIndex(cat *catalog.Catalog, current []string) int {
	if cat == nil || len(current) == 0 {
		return -1
	}
	for i, p := range cat.Profiles {
		if slices.Equal(p.Servers, current) {
			return i
		}
	}
	return -1
}
