package core

import (
	"github.com/user/dns-switcher/internal/catalog"
	"github.com/user/dns-switcher/internal/dns"
	"github.com/user/dns-switcher/internal/logger"
)

// DisplayProfile is a profile in menu order, marked when its servers are the
// ones the OS currently uses.
type DisplayProfile struct {
	catalog.Profile
	Active bool
}

// MenuState is everything the tray needs to draw one menu, taken under a
// single lock so the parts agree with each other.
type MenuState struct {
	Interfaces []string
	Interface  string
	Profiles   []DisplayProfile
}

// MenuState reloads the catalog if needed, resolves the interface and marks
// the profile matching the current DNS servers.
func (s *Service) MenuState() (*MenuState, error) {
	s.mu.Lock()
	state, err := s.menuStateUnsafe()
	s.mu.Unlock()

	if err == nil {
		s.broadcastStatus()
	}
	return state, err
}

// ProfilesForDisplay returns the profiles in menu order with the one matching
// the current DNS servers marked. When the current servers cannot be read no
// profile is marked.
func (s *Service) ProfilesForDisplay() ([]DisplayProfile, error) {
	state, err := s.MenuState()
	if err != nil {
		return nil, err
	}
	return state.Profiles, nil
}

func (s *Service) menuStateUnsafe() (*MenuState, error) {
	if err := s.reloadUnsafe(); err != nil {
		return nil, err
	}
	available, iface, err := s.resolveInterfaceUnsafe()
	if err != nil {
		return nil, err
	}

	active := -1
	current, err := s.reader.CurrentServers(iface)
	if err != nil {
		logger.Warning("Could not read DNS servers for %q: %v", iface, err)
	} else {
		active = dns.MatchingIndex(s.catalog, current)
	}

	s.activeName = ""
	if active >= 0 {
		s.activeName = s.catalog.Profiles[active].Name
	}

	// Display order is reversed, so storage index i sits at n-1-i.
	display := s.catalog.DisplayProfiles()
	n := len(display)
	profiles := make([]DisplayProfile, n)
	for j, p := range display {
		profiles[j] = DisplayProfile{Profile: p, Active: n-1-j == active}
	}
	return &MenuState{Interfaces: available, Interface: iface, Profiles: profiles}, nil
}

// ActivateProfile applies p to the active interface. Activations are
// serialized with every other catalog operation.
func (s *Service) ActivateProfile(p catalog.Profile) dns.Result {
	s.mu.Lock()
	res := s.activateUnsafe(p)
	s.lastResult = &res
	if res.OK() {
		s.activeName = p.Name
	}
	s.mu.Unlock()

	s.broadcastStatus()
	return res
}

func (s *Service) activateUnsafe(p catalog.Profile) dns.Result {
	if err := s.reloadUnsafe(); err != nil {
		return dns.Result{Outcome: dns.DnsChangeFailed, ExitCode: -1, Err: err}
	}
	_, iface, err := s.resolveInterfaceUnsafe()
	if err != nil {
		return dns.Result{Outcome: dns.DnsChangeFailed, ExitCode: -1, Err: err}
	}

	// The menu may predate an edit; apply what the file says now.
	if cur, ok := s.catalog.Lookup(p.Name); ok {
		p = cur
	} else {
		logger.Warning("Profile %q is no longer in the catalog, applying it as shown", p.Name)
	}

	logger.Info("Activating profile %q on %q", p.Name, iface)
	return s.activator.Activate(p, iface)
}
