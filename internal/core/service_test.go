package core_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/dns-switcher/internal/catalog"
	"github.com/user/dns-switcher/internal/core"
	"github.com/user/dns-switcher/internal/dns"
	"github.com/user/dns-switcher/internal/netsvc"
)

// fakeNetworkSetup emulates networksetup and arbitrary pre-commands.
type fakeNetworkSetup struct {
	mu        sync.Mutex
	services  string
	listCode  int
	getCode   int
	setCode   int
	servers   map[string][]string
	exitCodes map[string]int
	setDelay  time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	setCalls    atomic.Int32
}

func newFake() *fakeNetworkSetup {
	return &fakeNetworkSetup{
		services:  "An asterisk (*) denotes that a network service is disabled.\nWi-Fi\nEthernet\n*Bluetooth PAN\n",
		servers:   map[string][]string{},
		exitCodes: map[string]int{},
	}
}

func (f *fakeNetworkSetup) Run(name string, args ...string) (int, string, error) {
	if name != netsvc.NetworkSetup {
		if name == "dscacheutil" {
			return 0, "", nil
		}
		return f.exitCodes[name], name + " output", nil
	}

	switch args[0] {
	case "-listallnetworkservices":
		return f.listCode, f.services, nil
	case "-getdnsservers":
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.getCode != 0 {
			return f.getCode, "error", nil
		}
		cur := f.servers[args[1]]
		if len(cur) == 0 {
			return 0, "There aren't any DNS Servers set on " + args[1] + ".\n", nil
		}
		return 0, strings.Join(cur, "\n") + "\n", nil
	case "-setdnsservers":
		n := f.inFlight.Add(1)
		for {
			m := f.maxInFlight.Load()
			if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(f.setDelay)
		f.inFlight.Add(-1)
		f.setCalls.Add(1)
		if f.setCode != 0 {
			return f.setCode, "** Error", nil
		}
		f.mu.Lock()
		f.servers[args[1]] = append([]string(nil), args[2:]...)
		f.mu.Unlock()
		return 0, "", nil
	}
	return 1, "unknown", nil
}

const sampleCatalog = `{
  "interface": "Wi-Fi",
  "settings": [
    {"name": "Cloudflare", "servers": ["1.1.1.1", "1.0.0.1"]},
    {"name": "Google", "servers": ["8.8.8.8", "8.8.4.4"]},
    {"name": "Work", "servers": ["10.0.0.53"], "load_cmd": "vpnctl up"}
  ]
}`

type fixture struct {
	dir      string
	path     string
	template string
	fake     *fakeNetworkSetup
	svc      *core.Service
}

func newFixture(t *testing.T, content string) *fixture {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "dnsswitcher.json")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	tmpl, err := catalog.InstallTemplate(filepath.Join(dir, "support"))
	require.NoError(t, err)

	fake := newFake()
	svc, err := core.NewService(core.Options{CatalogPath: path, TemplatePath: tmpl, Runner: fake})
	require.NoError(t, err)
	return &fixture{dir: dir, path: path, template: tmpl, fake: fake, svc: svc}
}

func bumpMtime(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	later := info.ModTime().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))
}

// =============================================================================
// Construction and reload
// =============================================================================

func TestNewService_CreatesDefaultCatalog(t *testing.T) {
	f := newFixture(t, "")
	_, err := os.Stat(f.path)
	require.NoError(t, err)

	cat, err := f.svc.CheckAndMaybeReload()
	require.NoError(t, err)
	assert.NotEmpty(t, cat.Profiles)
}

func TestNewService_MissingTemplateIsFatal(t *testing.T) {
	dir := t.TempDir()
	_, err := core.NewService(core.Options{
		CatalogPath:  filepath.Join(dir, "catalog.json"),
		TemplatePath: filepath.Join(dir, "missing.json"),
		Runner:       newFake(),
	})
	assert.Error(t, err)
}

func TestCheckAndMaybeReload_PicksUpEdits(t *testing.T) {
	f := newFixture(t, sampleCatalog)

	cat, err := f.svc.CheckAndMaybeReload()
	require.NoError(t, err)
	require.Len(t, cat.Profiles, 3)

	require.NoError(t, os.WriteFile(f.path, []byte(`{"interface": "Wi-Fi", "settings": [{"name": "Only", "servers": ["9.9.9.9"]}]}`), 0644))
	bumpMtime(t, f.path)

	cat, err = f.svc.CheckAndMaybeReload()
	require.NoError(t, err)
	require.Len(t, cat.Profiles, 1)
	assert.Equal(t, "Only", cat.Profiles[0].Name)
}

func TestCheckAndMaybeReload_FirstLoadFailureIsFatal(t *testing.T) {
	f := newFixture(t, `{not json`)
	_, err := f.svc.CheckAndMaybeReload()
	assert.ErrorIs(t, err, catalog.ErrCatalogUnreadable)
}

func TestCheckAndMaybeReload_KeepsPreviousOnBrokenEdit(t *testing.T) {
	f := newFixture(t, sampleCatalog)
	_, err := f.svc.CheckAndMaybeReload()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(f.path, []byte(`{broken`), 0644))
	bumpMtime(t, f.path)

	cat, err := f.svc.CheckAndMaybeReload()
	require.NoError(t, err)
	assert.Len(t, cat.Profiles, 3)
}

func TestCheckAndMaybeReload_ReturnsCopy(t *testing.T) {
	f := newFixture(t, sampleCatalog)
	cat, err := f.svc.CheckAndMaybeReload()
	require.NoError(t, err)
	cat.Profiles[0].Name = "mutated"

	again, err := f.svc.CheckAndMaybeReload()
	require.NoError(t, err)
	assert.Equal(t, "Cloudflare", again.Profiles[0].Name)
}

// =============================================================================
// Interfaces
// =============================================================================

func TestListInterfacesForDisplay(t *testing.T) {
	f := newFixture(t, sampleCatalog)
	names, active, err := f.svc.ListInterfacesForDisplay()
	require.NoError(t, err)
	assert.Equal(t, []string{"Wi-Fi", "Ethernet"}, names)
	assert.Equal(t, "Wi-Fi", active)
}

func TestListInterfacesForDisplay_FallsBackAndPersists(t *testing.T) {
	f := newFixture(t, strings.Replace(sampleCatalog, `"Wi-Fi"`, `"VPN"`, 1))
	f.fake.services = "Ethernet\nWi-Fi\n"

	_, active, err := f.svc.ListInterfacesForDisplay()
	require.NoError(t, err)
	assert.Equal(t, "Ethernet", active)

	onDisk, err := catalog.Load(f.path)
	require.NoError(t, err)
	assert.Equal(t, "Ethernet", onDisk.Interface)
	assert.Len(t, onDisk.Profiles, 3, "persisting the interface keeps the profiles")
	assert.Equal(t, "vpnctl up", onDisk.Profiles[2].LoadCmd)
}

func TestListInterfacesForDisplay_ListFailureIsFatal(t *testing.T) {
	f := newFixture(t, sampleCatalog)
	f.fake.listCode = 1
	_, _, err := f.svc.ListInterfacesForDisplay()
	assert.ErrorIs(t, err, netsvc.ErrListFailed)
}

func TestListInterfacesForDisplay_NoInterfaces(t *testing.T) {
	f := newFixture(t, sampleCatalog)
	f.fake.services = "An asterisk (*) denotes that a network service is disabled.\n*Wi-Fi\n"
	_, _, err := f.svc.ListInterfacesForDisplay()
	assert.ErrorIs(t, err, netsvc.ErrNoInterfaces)
}

func TestSelectInterface(t *testing.T) {
	f := newFixture(t, sampleCatalog)

	var got *core.StatusPayload
	f.svc.SetStatusListener(func(s *core.StatusPayload) { got = s })

	require.NoError(t, f.svc.SelectInterface("Ethernet"))

	onDisk, err := catalog.Load(f.path)
	require.NoError(t, err)
	assert.Equal(t, "Ethernet", onDisk.Interface)
	require.NotNil(t, got)
	assert.Equal(t, "Ethernet", got.Interface)

	err = f.svc.SelectInterface("Bluetooth PAN")
	assert.ErrorIs(t, err, core.ErrUnknownInterface)
}

// =============================================================================
// Profiles
// =============================================================================

func TestProfilesForDisplay_ReverseOrderAndHighlight(t *testing.T) {
	f := newFixture(t, sampleCatalog)
	f.fake.servers["Wi-Fi"] = []string{"8.8.8.8", "8.8.4.4"}

	profiles, err := f.svc.ProfilesForDisplay()
	require.NoError(t, err)
	require.Len(t, profiles, 3)

	assert.Equal(t, "Work", profiles[0].Name)
	assert.Equal(t, "Google", profiles[1].Name)
	assert.Equal(t, "Cloudflare", profiles[2].Name)

	assert.False(t, profiles[0].Active)
	assert.True(t, profiles[1].Active)
	assert.False(t, profiles[2].Active)
	assert.Equal(t, "Google", f.svc.GetStatusPayload().ActiveProfile)
}

func TestProfilesForDisplay_DuplicateServersHighlightFirstStored(t *testing.T) {
	f := newFixture(t, `{"settings": [
		{"name": "A", "servers": ["1.1.1.1"]},
		{"name": "B", "servers": ["1.1.1.1"]}
	]}`)
	f.fake.servers["Wi-Fi"] = []string{"1.1.1.1"}

	profiles, err := f.svc.ProfilesForDisplay()
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "B", profiles[0].Name)
	assert.False(t, profiles[0].Active)
	assert.Equal(t, "A", profiles[1].Name)
	assert.True(t, profiles[1].Active)
}

func TestProfilesForDisplay_UnknownStateHighlightsNothing(t *testing.T) {
	f := newFixture(t, sampleCatalog)
	f.fake.servers["Wi-Fi"] = []string{"1.1.1.1", "1.0.0.1"}
	f.fake.getCode = 1

	profiles, err := f.svc.ProfilesForDisplay()
	require.NoError(t, err)
	for _, p := range profiles {
		assert.False(t, p.Active, p.Name)
	}
}

func TestProfilesForDisplay_DHCPHighlightsNothing(t *testing.T) {
	f := newFixture(t, sampleCatalog)
	profiles, err := f.svc.ProfilesForDisplay()
	require.NoError(t, err)
	for _, p := range profiles {
		assert.False(t, p.Active, p.Name)
	}
}

func TestMenuState(t *testing.T) {
	f := newFixture(t, sampleCatalog)
	f.fake.servers["Wi-Fi"] = []string{"1.1.1.1", "1.0.0.1"}

	state, err := f.svc.MenuState()
	require.NoError(t, err)
	assert.Equal(t, []string{"Wi-Fi", "Ethernet"}, state.Interfaces)
	assert.Equal(t, "Wi-Fi", state.Interface)
	require.Len(t, state.Profiles, 3)
	assert.Equal(t, "Cloudflare", state.Profiles[2].Name)
	assert.True(t, state.Profiles[2].Active)
}

func activeName(state *core.MenuState) string {
	for _, p := range state.Profiles {
		if p.Active {
			return p.Name
		}
	}
	return ""
}

func TestMenuState_ConsistentWithInterfaceChanges(t *testing.T) {
	f := newFixture(t, sampleCatalog)
	f.fake.servers["Wi-Fi"] = []string{"8.8.8.8", "8.8.4.4"}
	f.fake.servers["Ethernet"] = []string{"1.1.1.1", "1.0.0.1"}
	want := map[string]string{"Wi-Fi": "Google", "Ethernet": "Cloudflare"}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			name := "Ethernet"
			if i%2 == 1 {
				name = "Wi-Fi"
			}
			assert.NoError(t, f.svc.SelectInterface(name))
		}
	}()

	for i := 0; i < 20; i++ {
		state, err := f.svc.MenuState()
		require.NoError(t, err)
		assert.Equal(t, want[state.Interface], activeName(state), "highlight must belong to %q", state.Interface)
	}
	<-done
}

// =============================================================================
// Activation
// =============================================================================

func TestActivateProfile(t *testing.T) {
	f := newFixture(t, sampleCatalog)
	cat, err := f.svc.CheckAndMaybeReload()
	require.NoError(t, err)

	res := f.svc.ActivateProfile(cat.Profiles[0])
	require.True(t, res.OK(), res.Message())
	assert.Equal(t, []string{"1.1.1.1", "1.0.0.1"}, f.fake.servers["Wi-Fi"])

	status := f.svc.GetStatusPayload()
	assert.Equal(t, "Cloudflare", status.ActiveProfile)
	require.NotNil(t, status.LastResult)
	assert.Equal(t, dns.Success, status.LastResult.Outcome)
}

func TestActivateProfile_PreCommandFailure(t *testing.T) {
	f := newFixture(t, sampleCatalog)
	f.fake.exitCodes["vpnctl"] = 2
	cat, err := f.svc.CheckAndMaybeReload()
	require.NoError(t, err)

	res := f.svc.ActivateProfile(cat.Profiles[2])
	assert.Equal(t, dns.PreCommandFailed, res.Outcome)
	assert.Equal(t, 2, res.ExitCode)
	assert.Equal(t, int32(0), f.fake.setCalls.Load())
	assert.Empty(t, f.svc.GetStatusPayload().ActiveProfile)
}

func TestActivateProfile_DNSChangeFailure(t *testing.T) {
	f := newFixture(t, sampleCatalog)
	f.fake.setCode = 4
	cat, err := f.svc.CheckAndMaybeReload()
	require.NoError(t, err)

	res := f.svc.ActivateProfile(cat.Profiles[1])
	assert.Equal(t, dns.DnsChangeFailed, res.Outcome)
	assert.Equal(t, 4, res.ExitCode)
}

func TestActivateProfile_ListFailureIsFatal(t *testing.T) {
	f := newFixture(t, sampleCatalog)
	cat, err := f.svc.CheckAndMaybeReload()
	require.NoError(t, err)
	f.fake.listCode = 1

	res := f.svc.ActivateProfile(cat.Profiles[0])
	assert.ErrorIs(t, res.Err, netsvc.ErrListFailed)
	assert.Equal(t, int32(0), f.fake.setCalls.Load())
}

func TestActivateProfile_AppliesCurrentDefinition(t *testing.T) {
	f := newFixture(t, sampleCatalog)
	stale, err := f.svc.CheckAndMaybeReload()
	require.NoError(t, err)

	edited := strings.Replace(sampleCatalog, `["8.8.8.8", "8.8.4.4"]`, `["8.8.8.8"]`, 1)
	require.NoError(t, os.WriteFile(f.path, []byte(edited), 0644))
	bumpMtime(t, f.path)

	res := f.svc.ActivateProfile(stale.Profiles[1])
	require.True(t, res.OK(), res.Message())
	assert.Equal(t, []string{"8.8.8.8"}, f.fake.servers["Wi-Fi"])
}

func TestActivateProfile_RemovedProfileAppliedAsShown(t *testing.T) {
	f := newFixture(t, sampleCatalog)
	_, err := f.svc.CheckAndMaybeReload()
	require.NoError(t, err)

	res := f.svc.ActivateProfile(catalog.Profile{Name: "Gone", Servers: []string{"9.9.9.9"}})
	require.True(t, res.OK(), res.Message())
	assert.Equal(t, []string{"9.9.9.9"}, f.fake.servers["Wi-Fi"])
}

func TestActivateProfile_Serialized(t *testing.T) {
	f := newFixture(t, sampleCatalog)
	f.fake.setDelay = 20 * time.Millisecond
	cat, err := f.svc.CheckAndMaybeReload()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(p catalog.Profile) {
			defer wg.Done()
			f.svc.ActivateProfile(p)
		}(cat.Profiles[i%2])
	}
	wg.Wait()

	assert.Equal(t, int32(8), f.fake.setCalls.Load())
	assert.Equal(t, int32(1), f.fake.maxInFlight.Load(), "at most one DNS change in flight")
}

// =============================================================================
// Defaults
// =============================================================================

func TestRestoreDefaults(t *testing.T) {
	f := newFixture(t, sampleCatalog)
	_, err := f.svc.CheckAndMaybeReload()
	require.NoError(t, err)

	require.NoError(t, f.svc.RestoreDefaults())

	got, err := f.svc.CheckAndMaybeReload()
	require.NoError(t, err)
	want, err := catalog.Load(f.template)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
