package lobby

import (
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/artedaguerra/eralobby/server/permission"
	"github.com/artedaguerra/eralobby/server/plugin"
	"github.com/artedaguerra/eralobby/server/worlds"
	dfserver "github.com/df-mc/dragonfly/server"
	"github.com/df-mc/dragonfly/server/block"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/google/uuid"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

var blocksOnce sync.Once

// finaliseBlocks builds a listener-less server once so that the block
// registry is finalised before worlds are created.
func finaliseBlocks() {
	blocksOnce.Do(func() {
		_ = dfserver.Config{Log: discard, DisableResourceBuilding: true}.New()
	})
}

func tempRegistry(t *testing.T) *worlds.Registry {
	t.Helper()
	finaliseBlocks()
	reg := worlds.NewRegistry(worlds.Config{Log: discard, Dir: t.TempDir()})
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

// fakeHost is a plugin.Host with no players whose worlds live in reg.
type fakeHost struct {
	reg *worlds.Registry
}

func (fakeHost) Logger() *slog.Logger             { return discard }
func (fakeHost) StartTime() time.Time             { return time.Now() }
func (fakeHost) World() *world.World              { return nil }
func (h fakeHost) Worlds() *worlds.Registry       { return h.reg }
func (fakeHost) Operators() *permission.Operators { return nil }
func (fakeHost) MaxPlayerCount() int              { return 40 }
func (fakeHost) PlayerCount() int                 { return 0 }
func (fakeHost) Players(*world.Tx) iter.Seq[*player.Player] {
	return func(func(*player.Player) bool) {}
}
func (fakeHost) Player(uuid.UUID) (*world.EntityHandle, bool)    { return nil, false }
func (fakeHost) PlayerByName(string) (*world.EntityHandle, bool) { return nil, false }
func (fakeHost) ExecuteCommand(cmd.Source, string)               {}
func (fakeHost) PlayerSummaries() []plugin.PlayerSummary         { return nil }
func (fakeHost) Close() error                                    { return nil }

func blockAt(w *world.World, pos cube.Pos) world.Block {
	var b world.Block
	<-w.Exec(func(tx *world.Tx) {
		b = tx.Block(pos)
	})
	return b
}

func TestSetupBuildsLobby(t *testing.T) {
	t.Parallel()

	reg := tempRegistry(t)
	conf := DefaultConfig()
	m := NewManager(conf, reg, permission.NewChecker(nil, nil, discard), &countingVisits{}, discard)
	if err := m.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	w := m.Lobby()
	if w == nil {
		t.Fatalf("Lobby() is nil after Setup()")
	}
	if got, ok := reg.Get("lobby"); !ok || got != w {
		t.Fatalf("lobby world not registered under %q", "lobby")
	}
	if got := w.Spawn(); got != (cube.Pos{0, 100, 0}) {
		t.Fatalf("Spawn() = %v, want (0, 100, 0)", got)
	}
	if b, ok := blockAt(w, cube.Pos{0, 99, 0}).(block.Quartz); !ok {
		t.Fatalf("block below spawn = %#v, want quartz", b)
	}
	if b, ok := blockAt(w, cube.Pos{0, 100, 0}).(block.Beacon); !ok {
		t.Fatalf("block at spawn = %#v, want beacon", b)
	}

	centre, ok := m.layout.Pad(7)
	if !ok {
		t.Fatalf("no pad for era 7")
	}
	top := cube.PosFromVec3(centre)
	if b, ok := blockAt(w, top.Sub(cube.Pos{0, 1, 0})).(block.Diamond); !ok {
		t.Fatalf("era 7 floor = %#v, want diamond", b)
	}
	if b, ok := blockAt(w, top.Add(cube.Pos{0, 1, 0})).(block.EndRod); !ok || b.Facing != cube.FaceUp {
		t.Fatalf("era 7 landmark = %#v, want an upward end rod", b)
	}

	m.Close()
	if m.Lobby() != nil {
		t.Fatalf("Lobby() kept after Close()")
	}
}

func writeConfig(t *testing.T, path string, edit func(string) string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create data directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(edit(string(defaultConfig))), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestPluginLifecycle(t *testing.T) {
	reg := tempRegistry(t)
	root := t.TempDir()
	confPath := filepath.Join(root, "artedaguerra", configFile)
	sameFolder := func(s string) string {
		return strings.Replace(s, "pasta_mundos: worlds", "pasta_mundos: "+reg.Dir(), 1)
	}
	writeConfig(t, confPath, sameFolder)

	manager := plugin.NewManager(fakeHost{reg: reg}, plugin.Config{Enabled: true, DataDirectory: root})
	if err := manager.Register(Name, New); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	manager.LoadConfigured()
	t.Cleanup(manager.Shutdown)

	infos := manager.Infos()
	if len(infos) != 1 || infos[0].Name != Name || infos[0].Version != Version {
		t.Fatalf("Infos() = %v", infos)
	}
	p, ok := manager.Plugin(Name)
	if !ok {
		t.Fatalf("plugin %s not enabled", Name)
	}
	pl := p.(*lobbyPlugin)
	if pl.worlds != nil {
		t.Fatalf("plugin opened its own registry for the host worlds folder")
	}
	lobby, ok := reg.Get("lobby")
	if !ok || pl.Manager().Lobby() != lobby {
		t.Fatalf("lobby world not opened through the host registry")
	}
	if _, err := os.Stat(filepath.Join(root, "artedaguerra", storeFile)); err != nil {
		t.Fatalf("store not created: %v", err)
	}
	if _, ok := cmd.ByAlias("era"); !ok {
		t.Fatalf("/era not registered")
	}

	writeConfig(t, confPath, func(s string) string {
		return strings.Replace(sameFolder(s), "teleport_cooldown: 3", "teleport_cooldown: 9", 1)
	})
	if err := pl.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := pl.Manager().Config().Cooldown(); got != 9*time.Second {
		t.Fatalf("cooldown after reload = %v, want 9s", got)
	}

	writeConfig(t, confPath, func(string) string { return "lobby: [" })
	if err := pl.Reload(); err == nil {
		t.Fatalf("Reload() of a broken file returned nil error")
	}
	if got := pl.Manager().Config().Cooldown(); got != 9*time.Second {
		t.Fatalf("cooldown after failed reload = %v, want 9s kept", got)
	}

	m := pl.Manager()
	if _, err := manager.Disable(Name); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}
	if m.Lobby() != nil {
		t.Fatalf("lobby kept after Close()")
	}
	if pl.store != nil {
		t.Fatalf("store left open after Close()")
	}
	if _, ok := reg.Get("lobby"); !ok {
		t.Fatalf("Close() dropped a world owned by the host registry")
	}
}
