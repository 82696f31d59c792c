// Package ui provides the system tray UI for DNS Switcher.
package ui

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"fyne.io/systray"

	"github.com/user/dns-switcher/internal/catalog"
	"github.com/user/dns-switcher/internal/config"
	"github.com/user/dns-switcher/internal/core"
	"github.com/user/dns-switcher/internal/logger"
	"github.com/user/dns-switcher/internal/procutil"
)

// tray holds the state the menu needs between refreshes.
type tray struct {
	version string
	prefs   *config.Config
	runner  procutil.Runner
	service *core.Service
	watcher *catalog.Watcher

	mu       sync.Mutex
	menuDone chan struct{}
	stopCh   chan struct{}
}

// Run starts the tray application and blocks until it quits.
func Run(version string) {
	if err := logger.Init(); err != nil {
		log.Printf("Failed to open log file: %v", err)
	}

	prefsManager := config.NewManager(config.GetConfigPath())
	if err := prefsManager.Load(); err != nil {
		logger.Error("Failed to load preferences: %v", err)
		log.Fatalf("Failed to load preferences: %v", err)
	}
	prefs := prefsManager.Get()
	logger.SetLevel(logger.ParseLevel(prefs.LogLevel))
	logger.CaptureStderr()
	logger.Info("DNS Switcher %s starting (preferences: %s)", version, prefsManager.Path())

	templatePath, err := catalog.InstallTemplate(config.GetConfigDir())
	if err != nil {
		logger.Error("Critical error: failed to install default catalog: %v", err)
		log.Fatalf("Failed to install default catalog: %v", err)
	}

	runner := procutil.NewExecRunner()
	service, err := core.NewService(core.Options{
		CatalogPath:  prefs.ResolvedCatalogPath(),
		TemplatePath: templatePath,
		Runner:       runner,
		FlushCache:   prefs.FlushCache,
	})
	if err != nil {
		showError(runner, "DNS Switcher cannot start", err.Error())
		log.Fatalf("Failed to create service: %v", err)
	}

	t := &tray{
		version: version,
		prefs:   prefs,
		runner:  runner,
		service: service,
		stopCh:  make(chan struct{}),
	}
	t.watcher = catalog.NewWatcher(service.ConfigPath(), catalog.DefaultDebounce, func() {
		logger.Info("Catalog changed on disk, refreshing menu")
		t.refresh()
	})

	// Status listener updates icon and tooltip on every change
	service.SetStatusListener(t.updateStatus)

	systray.Run(t.onReady, t.onExit)
}

// onReady is called when systray is ready
func (t *tray) onReady() {
	systray.SetTemplateIcon(GetIcon("idle"), GetIcon("idle"))
	systray.SetTooltip("DNS Switcher")

	t.refresh()

	if err := t.watcher.Start(); err != nil {
		logger.Warning("Catalog watcher unavailable, edits are picked up on refresh: %v", err)
	}
	if t.prefs.RefreshInterval > 0 {
		go t.pollLoop(time.Duration(t.prefs.RefreshInterval) * time.Second)
	}
}

// onExit is called when systray exits
func (t *tray) onExit() {
	logger.Info("DNS Switcher shutting down")
	close(t.stopCh)
	t.watcher.Stop()
	logger.Close()
}

func (t *tray) pollLoop(interval time.Duration) {
	defer logger.Recover("refresh-loop")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			t.refresh()
		}
	}
}

// refresh rebuilds the whole menu from one consistent snapshot. Refreshes
// are serialized so an older snapshot never replaces a newer menu.
func (t *tray) refresh() {
	defer logger.Recover("refresh")

	t.mu.Lock()
	defer t.mu.Unlock()

	state, err := t.service.MenuState()
	if err != nil {
		t.fatal(err)
		return
	}

	if t.menuDone != nil {
		close(t.menuDone)
	}
	t.menuDone = make(chan struct{})
	systray.ResetMenu()

	for _, p := range state.Profiles {
		t.addProfileItem(p, state.Interface)
	}
	if len(state.Profiles) == 0 {
		empty := systray.AddMenuItem("No DNS profiles configured", "")
		empty.Disable()
	}

	systray.AddSeparator()
	t.addInterfaceMenu(state.Interfaces, state.Interface)

	systray.AddSeparator()
	mEdit := systray.AddMenuItem("Edit Servers…", "Open "+t.service.ConfigPath())
	mRestore := systray.AddMenuItem("Restore Default Servers", "Replace the catalog with the defaults")
	mLogs := systray.AddMenuItem("Show Log", "")
	systray.AddSeparator()
	mVersion := systray.AddMenuItem("v"+t.version, "")
	mVersion.Disable()
	mQuit := systray.AddMenuItem("Quit", "")

	t.onClick(mEdit, "edit", func() { ShowSettingsWindow(t.service.ConfigPath()) })
	t.onClick(mRestore, "restore", t.doRestore)
	t.onClick(mLogs, "logs", openLogFile)
	t.onClick(mQuit, "quit", systray.Quit)
}

func (t *tray) addProfileItem(p core.DisplayProfile, iface string) {
	item := systray.AddMenuItemCheckbox(p.Name, strings.Join(p.Servers, ", "), p.Active)

	load := item.AddSubMenuItem("Load", "Apply "+p.Name)
	info := item.AddSubMenuItem("Interface: "+iface, "")
	info.Disable()
	title := item.AddSubMenuItem("Servers:", "")
	title.Disable()
	for _, server := range p.Servers {
		s := item.AddSubMenuItem(server, "")
		s.Disable()
	}
	if p.HasLoadCmd() {
		cmd := item.AddSubMenuItem("Pre-command: "+strings.TrimSpace(p.LoadCmd), "")
		cmd.Disable()
	}

	profile := p.Profile
	t.onClick(load, "load", func() { t.doActivate(profile) })
}

func (t *tray) addInterfaceMenu(interfaces []string, active string) {
	parent := systray.AddMenuItem("Interface: "+active, "Network service DNS changes apply to")
	for _, name := range interfaces {
		item := parent.AddSubMenuItemCheckbox(name, "", name == active)
		selected := name
		t.onClick(item, "interface", func() { t.doSelectInterface(selected) })
	}
}

// onClick runs fn for every click on item until the menu is rebuilt.
// Must be called with t.mu held.
func (t *tray) onClick(item *systray.MenuItem, name string, fn func()) {
	done := t.menuDone
	go func() {
		defer logger.Recover("menu-" + name)
		for {
			select {
			case <-done:
				return
			case <-item.ClickedCh:
				logger.SafeGo(name, fn)
			}
		}
	}()
}

func (t *tray) doActivate(p catalog.Profile) {
	logger.Info("User requested profile %q", p.Name)
	res := t.service.ActivateProfile(p)
	if res.Err != nil {
		t.fatal(res.Err)
		return
	}
	if !res.OK() {
		showError(t.runner, fmt.Sprintf("Could not load %q", p.Name), res.Message())
	}
	t.refresh()
}

func (t *tray) doSelectInterface(name string) {
	if err := t.service.SelectInterface(name); err != nil {
		logger.Error("Failed to select interface %q: %v", name, err)
		showError(t.runner, "Could not select interface", err.Error())
	}
	t.refresh()
}

func (t *tray) doRestore() {
	if err := t.service.RestoreDefaults(); err != nil {
		showError(t.runner, "Could not restore default servers", err.Error())
		return
	}
	t.refresh()
}

func (t *tray) updateStatus(status *core.StatusPayload) {
	defer logger.Recover("updateStatus")
	if status == nil {
		return
	}

	if status.ActiveProfile != "" {
		systray.SetTemplateIcon(GetIcon("active"), GetIcon("active"))
		systray.SetTooltip(fmt.Sprintf("DNS Switcher - %s (%s)", status.ActiveProfile, status.Interface))
	} else {
		systray.SetTemplateIcon(GetIcon("idle"), GetIcon("idle"))
		systray.SetTooltip(fmt.Sprintf("DNS Switcher - %s", status.Interface))
	}
}

// fatal reports an unrecoverable error and quits.
func (t *tray) fatal(err error) {
	logger.Error("Critical error: %v", err)
	showError(t.runner, "DNS Switcher must quit", err.Error())
	systray.Quit()
}
