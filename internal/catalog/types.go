// Package catalog reads, validates and writes the DNS profile catalog file.
package catalog

import (
	"slices"
	"strings"
)

// DefaultInterface is used when the catalog does not name an interface.
const DefaultInterface = "Wi-Fi"

// Profile is a named list of DNS servers with an optional pre-command.
type Profile struct {
	Name    string
	Servers []string
	// LoadCmd runs before the servers are applied. Blank means no pre-command.
	// Kept as written; only activation splits it.
	LoadCmd string
}

// HasLoadCmd reports whether the profile carries a pre-command.
func (p Profile) HasLoadCmd() bool {
	return strings.TrimSpace(p.LoadCmd) != ""
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	p.Servers = slices.Clone(p.Servers)
	return p
}

// Catalog is the full set of profiles plus the interface DNS changes apply to.
// Profiles are kept in file order.
type Catalog struct {
	Interface string
	Profiles  []Profile
}

// Clone returns a deep copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	if c == nil {
		return nil
	}
	out := &Catalog{
		Interface: c.Interface,
		Profiles:  make([]Profile, len(c.Profiles)),
	}
	for i, p := range c.Profiles {
		out.Profiles[i] = p.Clone()
	}
	return out
}

// DisplayProfiles returns the profiles in menu order, which is the
// reverse of the order they are stored in.
func (c *Catalog) DisplayProfiles() []Profile {
	out := make([]Profile, 0, len(c.Profiles))
	for i := len(c.Profiles) - 1; i >= 0; i-- {
		out = append(out, c.Profiles[i].Clone())
	}
	return out
}

// Lookup returns the first profile with the given name.
func (c *Catalog) Lookup(name string) (Profile, bool) {
	for _, p := range c.Profiles {
		if p.Name == name {
			return p.Clone(), true
		}
	}
	return Profile{}, false
}
