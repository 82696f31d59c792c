// Package core ties the catalog, interface resolution and activation together
// behind the API the tray UI calls.
package core

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/dns-switcher/internal/catalog"
	"github.com/user/dns-switcher/internal/dns"
	"github.com/user/dns-switcher/internal/logger"
	"github.com/user/dns-switcher/internal/procutil"
)

// ErrUnknownInterface is returned when selecting an interface the OS does not list.
var ErrUnknownInterface = errors.New("unknown network interface")

// Options configures a Service.
type Options struct {
	CatalogPath  string
	TemplatePath string
	Runner       procutil.Runner
	FlushCache   bool
}

// Service owns the in-memory catalog. Every operation that loads, saves or
// activates runs under one mutex, so callers on different goroutines queue
// behind each other and never see a half-updated catalog.
type Service struct {
	mu           sync.Mutex
	catalogPath  string
	templatePath string
	runner       procutil.Runner
	activator    *dns.Activator
	reader       *dns.Reader

	catalog     *catalog.Catalog
	lastModTime time.Time
	activeIface string
	activeName  string
	lastResult  *dns.Result

	listenerMu     sync.RWMutex
	statusListener StatusListener
}

// NewService creates the service and makes sure a catalog file exists.
// An error here is fatal: without a catalog no menu can be built.
func NewService(opts Options) (*Service, error) {
	if opts.Runner == nil {
		opts.Runner = procutil.NewExecRunner()
	}
	if err := catalog.EnsureDefaultExists(opts.TemplatePath, opts.CatalogPath); err != nil {
		logger.Error("Critical error: failed to create default config file: %v", err)
		return nil, fmt.Errorf("failed to create default catalog: %w", err)
	}

	activator := dns.NewActivator(opts.Runner)
	activator.SetFlushCache(opts.FlushCache)

	s := &Service{
		catalogPath:  opts.CatalogPath,
		templatePath: opts.TemplatePath,
		runner:       opts.Runner,
		activator:    activator,
		reader:       dns.NewReader(opts.Runner),
	}
	logger.Info("DNS Switcher core initialized (catalog: %s)", opts.CatalogPath)
	return s, nil
}

// ConfigPath returns the path of the catalog file.
func (s *Service) ConfigPath() string {
	return s.catalogPath
}

// CheckAndMaybeReload reloads the catalog when the file changed since the
// last load and returns a copy of the current catalog.
func (s *Service) CheckAndMaybeReload() (*catalog.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reloadUnsafe(); err != nil {
		return nil, err
	}
	return s.catalog.Clone(), nil
}

// reloadUnsafe must be called with s.mu held. A failed reload keeps a
// previously loaded catalog and is only fatal when there is none.
func (s *Service) reloadUnsafe() error {
	changed, mod := catalog.HasChangedSince(s.catalogPath, s.lastModTime)
	if !changed && s.catalog != nil {
		return nil
	}

	cat, err := catalog.Load(s.catalogPath)
	if err != nil {
		if s.catalog != nil {
			logger.Error("Reload failed, keeping previous catalog: %v", err)
			return nil
		}
		logger.Error("Critical error: configuration file failed to load: %v", err)
		return err
	}

	s.catalog = cat
	s.lastModTime = mod
	logger.Info("Catalog loaded: %d profiles, interface %q", len(cat.Profiles), cat.Interface)
	return nil
}

func (s *Service) saveUnsafe() error {
	if err := catalog.Save(s.catalogPath, s.catalog); err != nil {
		logger.Error("Failed to save catalog: %v", err)
		return err
	}
	// Our own write is not an external edit.
	_, s.lastModTime = catalog.HasChangedSince(s.catalogPath, s.lastModTime)
	return nil
}

// RestoreDefaults replaces the catalog file with the default template and
// reloads it. Any edits are discarded.
func (s *Service) RestoreDefaults() error {
	s.mu.Lock()
	err := s.restoreDefaultsUnsafe()
	s.mu.Unlock()

	if err == nil {
		s.broadcastStatus()
	}
	return err
}

func (s *Service) restoreDefaultsUnsafe() error {
	logger.Info("Restoring default catalog from %s", s.templatePath)
	if err := catalog.RestoreDefaults(s.templatePath, s.catalogPath); err != nil {
		logger.Error("Failed to restore defaults: %v", err)
		return err
	}
	s.catalog = nil
	s.lastModTime = time.Time{}
	s.activeName = ""
	return s.reloadUnsafe()
}
