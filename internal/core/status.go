package core

import "github.com/user/dns-switcher/internal/dns"

// StatusPayload is the state shown by the tray icon and tooltip.
type StatusPayload struct {
	Interface     string
	ActiveProfile string // empty when no profile matches the current servers
	LastResult    *dns.Result
}

// StatusListener is a callback invoked when the status changes.
type StatusListener func(status *StatusPayload)

// SetStatusListener sets a callback that will be called on every status change.
func (s *Service) SetStatusListener(listener StatusListener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.statusListener = listener
}

// GetStatusPayload returns the current status.
func (s *Service) GetStatusPayload() *StatusPayload {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := &StatusPayload{
		Interface:     s.activeIface,
		ActiveProfile: s.activeName,
	}
	if s.lastResult != nil {
		res := *s.lastResult
		status.LastResult = &res
	}
	return status
}

// broadcastStatus sends status update to listener. Must not be called with s.mu held.
func (s *Service) broadcastStatus() {
	s.listenerMu.RLock()
	listener := s.statusListener
	s.listenerMu.RUnlock()
	if listener != nil {
		listener(s.GetStatusPayload())
	}
}
