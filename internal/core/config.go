package core

import (
	"fmt"
	"slices"

	"github.com/user/dns-switcher/internal/logger"
	"github.com/user/dns-switcher/internal/netsvc"
)

// ListInterfacesForDisplay returns the enabled network services and the one
// DNS changes currently apply to. When the stored interface is gone the first
// service is selected and persisted.
func (s *Service) ListInterfacesForDisplay() ([]string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reloadUnsafe(); err != nil {
		return nil, "", err
	}
	available, active, err := s.resolveInterfaceUnsafe()
	if err != nil {
		return nil, "", err
	}
	return available, active, nil
}

// resolveInterfaceUnsafe must be called with s.mu held and a loaded catalog.
func (s *Service) resolveInterfaceUnsafe() ([]string, string, error) {
	available, err := netsvc.ListInterfaces(s.runner)
	if err != nil {
		logger.Error("Critical error: %v", err)
		return nil, "", err
	}
	active, changed, err := netsvc.ResolveActive(s.catalog, available)
	if err != nil {
		logger.Error("Critical error: %v", err)
		return nil, "", err
	}
	if changed {
		if err := s.saveUnsafe(); err != nil {
			return nil, "", fmt.Errorf("failed to persist interface %q: %w", active, err)
		}
	}
	s.activeIface = active
	return available, active, nil
}

// SelectInterface makes name the interface DNS changes apply to and saves it.
func (s *Service) SelectInterface(name string) error {
	s.mu.Lock()
	err := s.selectInterfaceUnsafe(name)
	s.mu.Unlock()

	if err == nil {
		s.broadcastStatus()
	}
	return err
}

func (s *Service) selectInterfaceUnsafe(name string) error {
	if err := s.reloadUnsafe(); err != nil {
		return err
	}
	available, err := netsvc.ListInterfaces(s.runner)
	if err != nil {
		return err
	}
	if !slices.Contains(available, name) {
		return fmt.Errorf("%w: %q", ErrUnknownInterface, name)
	}
	if s.catalog.Interface == name {
		s.activeIface = name
		return nil
	}

	logger.Info("Interface changed: %q -> %q", s.catalog.Interface, name)
	s.catalog.Interface = name
	s.activeIface = name
	return s.saveUnsafe()
}
