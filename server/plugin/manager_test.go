package plugin

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/artedaguerra/eralobby/server/permission"
	"github.com/artedaguerra/eralobby/server/worlds"
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/google/uuid"
)

type testHost struct{}

func (testHost) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
func (testHost) StartTime() time.Time     { return time.Time{} }
func (testHost) World() *world.World      { return nil }
func (testHost) Worlds() *worlds.Registry { return nil }
func (testHost) Operators() *permission.Operators {
	return nil
}
func (testHost) MaxPlayerCount() int { return 0 }
func (testHost) PlayerCount() int    { return 0 }
func (testHost) Players(*world.Tx) iter.Seq[*player.Player] {
	return func(func(*player.Player) bool) {}
}
func (testHost) Player(uuid.UUID) (*world.EntityHandle, bool)    { return nil, false }
func (testHost) PlayerByName(string) (*world.EntityHandle, bool) { return nil, false }
func (testHost) ExecuteCommand(cmd.Source, string)               {}
func (testHost) PlayerSummaries() []PlayerSummary                { return nil }
func (testHost) Close() error                                    { return nil }

func TestSanitizePluginDirectory(t *testing.T) {
	cases := map[string]string{
		"":                  "plugin",
		"   ":               "plugin",
		"Example Plugin":    "example-plugin",
		"Example_Plugin":    "example_plugin",
		"Example.Plugin":    "example.plugin",
		"Example@Plugin#":   "example-plugin",
		"--Already-Safe--":  "already-safe",
		"MiXeD CaSe Name":   "mixed-case-name",
		"    dots...here  ": "dots...here",
	}

	for input, want := range cases {
		if got := sanitizePluginDirectory(input); got != want {
			t.Fatalf("sanitizePluginDirectory(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestManagerPluginDataDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	manager := NewManager(testHost{}, Config{Enabled: true, DataDirectory: root})

	got := manager.pluginDataDirectory("Example Plugin")
	want := filepath.Join(root, "example-plugin")
	if got != want {
		t.Fatalf("pluginDataDirectory returned %q, want %q", got, want)
	}

	manager.cfg.DataDirectory = ""
	if got, want := manager.DataRoot(), "plugins"; got != want {
		t.Fatalf("DataRoot() default = %q, want %q", got, want)
	}
}

type closingPlugin struct {
	name   string
	closed chan struct{}
}

func (p *closingPlugin) Name() string { return p.name }

func (p *closingPlugin) Close() error {
	select {
	case <-p.closed:
	default:
		close(p.closed)
	}
	return nil
}

type versionedPlugin struct {
	closingPlugin
}

func (versionedPlugin) Version() string { return "1.0.0" }

func TestManagerRegisterAndEnable(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	manager := NewManager(testHost{}, Config{Enabled: true, DataDirectory: root})

	var gotAPI *API
	err := manager.Register("Lobby", func(api *API) (Plugin, error) {
		gotAPI = api
		return &versionedPlugin{closingPlugin{name: "Lobby Display", closed: make(chan struct{})}}, nil
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := manager.Register("lobby", func(*API) (Plugin, error) { return nil, nil }); !errors.Is(err, ErrNameConflict) {
		t.Fatalf("Register() duplicate error = %v, want ErrNameConflict", err)
	}

	manager.LoadConfigured()

	infos := manager.Infos()
	if len(infos) != 1 || infos[0].Name != "Lobby" || infos[0].Version != "1.0.0" {
		t.Fatalf("Infos() = %v", infos)
	}
	if gotAPI == nil {
		t.Fatalf("factory was not invoked")
	}
	if info, err := os.Stat(gotAPI.DataDirectory()); err != nil || !info.IsDir() {
		t.Fatalf("data directory not created: %v", err)
	}
	if _, err := manager.Enable("LOBBY"); !errors.Is(err, ErrAlreadyLoaded) {
		t.Fatalf("Enable() twice error = %v, want ErrAlreadyLoaded", err)
	}
	if _, err := manager.Enable("unknown"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Enable() unknown error = %v, want ErrNotFound", err)
	}
	if _, ok := manager.Plugin("lobby"); !ok {
		t.Fatalf("Plugin() did not find enabled plugin")
	}
}

func TestManagerReloadConstructsNewInstance(t *testing.T) {
	t.Parallel()

	manager := NewManager(testHost{}, Config{Enabled: true, DataDirectory: t.TempDir()})
	var built []*closingPlugin
	_ = manager.Register("lobby", func(*API) (Plugin, error) {
		p := &closingPlugin{name: "lobby", closed: make(chan struct{})}
		built = append(built, p)
		return p, nil
	})
	if _, err := manager.Enable("lobby"); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	if _, err := manager.Reload("lobby"); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if len(built) != 2 {
		t.Fatalf("factory invoked %d times, want 2", len(built))
	}
	select {
	case <-built[0].closed:
	default:
		t.Fatalf("first instance was not closed on reload")
	}
	if got := len(manager.Infos()); got != 1 {
		t.Fatalf("Infos() after reload has %d entries, want 1", got)
	}
}

func TestManagerFactoryPanicIsError(t *testing.T) {
	t.Parallel()

	manager := NewManager(testHost{}, Config{Enabled: true, DataDirectory: t.TempDir()})
	_ = manager.Register("broken", func(*API) (Plugin, error) { panic("boom") })
	if _, err := manager.Enable("broken"); err == nil {
		t.Fatalf("Enable() of panicking factory returned nil error")
	}
	if got := len(manager.Infos()); got != 0 {
		t.Fatalf("panicking plugin left %d entries", got)
	}
}

func TestManagerDisabledSubsystem(t *testing.T) {
	t.Parallel()

	manager := NewManager(testHost{}, Config{Enabled: false})
	_ = manager.Register("lobby", func(*API) (Plugin, error) {
		t.Fatalf("factory invoked while plugins disabled")
		return nil, nil
	})
	manager.LoadConfigured()
	if _, err := manager.Enable("lobby"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("Enable() error = %v, want ErrDisabled", err)
	}
}

func TestManagerDisableAll(t *testing.T) {
	t.Parallel()

	manager := NewManager(testHost{}, Config{Enabled: true})

	first := &closingPlugin{name: "first", closed: make(chan struct{})}
	second := &closingPlugin{name: "second", closed: make(chan struct{})}

	manager.plugins = []pluginInstance{
		{name: first.name, plugin: first},
		{name: second.name, plugin: second},
	}

	infos, err := manager.DisableAll()
	if err != nil {
		t.Fatalf("DisableAll() error = %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("DisableAll() returned %d infos, want 2", len(infos))
	}
	if infos[0].Name != "second" || infos[1].Name != "first" {
		t.Fatalf("DisableAll() order = %v", infos)
	}

	select {
	case <-first.closed:
	default:
		t.Fatalf("first plugin was not closed")
	}
	select {
	case <-second.closed:
	default:
		t.Fatalf("second plugin was not closed")
	}

	if got := manager.Infos(); len(got) != 0 {
		t.Fatalf("DisableAll() left %d plugins loaded", len(got))
	}
}

func TestManagerDisableAllDisabled(t *testing.T) {
	t.Parallel()

	manager := NewManager(testHost{}, Config{Enabled: false})

	if infos, err := manager.DisableAll(); !errors.Is(err, ErrDisabled) || infos != nil {
		t.Fatalf("DisableAll() = (%v, %v), want (nil, ErrDisabled)", infos, err)
	}
}

func TestManagerHandlePluginPanicDisablesPlugin(t *testing.T) {
	t.Parallel()

	manager := NewManager(testHost{}, Config{Enabled: true})

	closed := make(chan struct{})
	plugin := &closingPlugin{name: "panic", closed: closed}
	manager.plugins = []pluginInstance{{name: "panic", plugin: plugin}}
	manager.events.addPlayer("panic", player.NopHandler{})

	manager.handlePluginPanic("panic", errors.New("boom"))

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatalf("plugin close was not invoked after panic")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		manager.mu.RLock()
		remaining := len(manager.plugins)
		manager.mu.RUnlock()
		if remaining == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("plugin was not removed after panic")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if regs := manager.events.loadPlayerChain(); len(regs) != 0 {
		t.Fatalf("expected player handlers to be cleared, got %d registrations", len(regs))
	}
}

func TestEventHubRemoveAndClear(t *testing.T) {
	t.Parallel()

	manager := NewManager(testHost{}, Config{Enabled: true})
	hub := manager.events

	removeA := hub.addPlayer("a", player.NopHandler{})
	hub.addPlayer("b", player.NopHandler{})
	joins := 0
	hub.addJoin("a", func(*player.Player) { joins++ })

	if got := len(hub.loadPlayerChain()); got != 2 {
		t.Fatalf("player chain has %d entries, want 2", got)
	}
	removeA()
	removeA()
	if got := len(hub.loadPlayerChain()); got != 1 {
		t.Fatalf("player chain after remove has %d entries, want 1", got)
	}

	hub.joined(nil)
	if joins != 1 {
		t.Fatalf("join listener invoked %d times, want 1", joins)
	}
	hub.clear("a")
	hub.joined(nil)
	if joins != 1 {
		t.Fatalf("join listener invoked after clear")
	}
	hub.clear("b")
	if got := len(hub.loadPlayerChain()); got != 0 {
		t.Fatalf("player chain after clear has %d entries, want 0", got)
	}
}

func TestAPIResolveDataPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	manager := NewManager(testHost{}, Config{Enabled: true, DataDirectory: root})
	api := newAPI(manager, testHost{}, "lobby")
	api.setDataDirectory(filepath.Join(root, "lobby"))

	path, err := api.DataPath("config.yml")
	if err != nil {
		t.Fatalf("DataPath() error = %v", err)
	}
	if want := filepath.Join(root, "lobby", "config.yml"); path != want {
		t.Fatalf("DataPath() = %q, want %q", path, want)
	}
	if _, err := api.DataPath("../escape.yml"); err == nil {
		t.Fatalf("DataPath() allowed escaping the data directory")
	}
	if _, err := api.DataPath(filepath.Join(root, "abs.yml")); err == nil {
		t.Fatalf("DataPath() allowed an absolute path")
	}
}

// Ensure compile-time conformance for the test host.
var _ Host = testHost{}

func TestManagerPluginContextFollowsLifecycle(t *testing.T) {
	t.Parallel()

	manager := NewManager(testHost{}, Config{Enabled: true, DataDirectory: t.TempDir()})
	var api *API
	_ = manager.Register("lobby", func(a *API) (Plugin, error) {
		api = a
		if err := a.Context().Err(); err != nil {
			t.Errorf("Context() inside factory = %v", err)
		}
		return &closingPlugin{name: "lobby", closed: make(chan struct{})}, nil
	})
	if _, err := manager.Enable("lobby"); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	ctx := api.Context()
	if ctx.Err() != nil {
		t.Fatalf("Context() of enabled plugin is done: %v", ctx.Err())
	}

	ran := make(chan context.Context, 1)
	api.Go(func(ctx context.Context) { ran <- ctx })
	select {
	case got := <-ran:
		if got != ctx {
			t.Fatalf("Go() passed a context other than the plugin's")
		}
	case <-time.After(time.Second):
		t.Fatalf("Go() did not run fn")
	}

	if _, err := manager.Disable("lobby"); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}
	select {
	case <-ctx.Done():
	default:
		t.Fatalf("Context() still live after Disable()")
	}
}

type summaryHost struct {
	testHost
	started time.Time
	players []PlayerSummary
}

func (h summaryHost) StartTime() time.Time             { return h.started }
func (h summaryHost) MaxPlayerCount() int              { return 40 }
func (h summaryHost) PlayerSummaries() []PlayerSummary { return h.players }

func TestAPIPlayerHelpers(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	alex := PlayerSummary{UUID: uuid.New(), Name: "Alex", World: "lobby", Connected: true}
	host := summaryHost{started: started, players: []PlayerSummary{alex}}
	manager := NewManager(host, Config{Enabled: true, DataDirectory: t.TempDir()})
	var api *API
	_ = manager.Register("lobby", func(a *API) (Plugin, error) {
		api = a
		return &versionedPlugin{closingPlugin{name: "lobby", closed: make(chan struct{})}}, nil
	})
	if _, err := manager.Enable("lobby"); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	if !api.StartTime().Equal(started) {
		t.Fatalf("StartTime() = %v, want %v", api.StartTime(), started)
	}
	if got := api.MaxPlayerCount(); got != 40 {
		t.Fatalf("MaxPlayerCount() = %d, want 40", got)
	}
	if got, ok := api.PlayerSummary(alex.UUID); !ok || got.World != "lobby" {
		t.Fatalf("PlayerSummary(alex) = %+v, %v", got, ok)
	}
	if _, ok := api.PlayerSummary(uuid.New()); ok {
		t.Fatalf("PlayerSummary() found a player that is not online")
	}
	if api.MessagePlayer(alex.UUID, "hello") {
		t.Fatalf("MessagePlayer() reported delivery without a player handle")
	}
	plugins := api.Plugins()
	if len(plugins) != 1 || plugins[0].Name != "lobby" || plugins[0].Version != "1.0.0" {
		t.Fatalf("Plugins() = %v", plugins)
	}
}
