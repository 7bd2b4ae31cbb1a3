package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/artedaguerra/eralobby/server/permission"
	"github.com/artedaguerra/eralobby/server/worlds"
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/item/inventory"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/google/uuid"
)

// API exposes functionality of the server core to plugins.
type API struct {
	manager *Manager
	host    Host
	name    string

	mu      sync.RWMutex
	ctx     context.Context
	dataDir string
}

func newAPI(manager *Manager, host Host, name string) *API {
	return &API{manager: manager, host: host, name: name, ctx: context.Background()}
}

func (api *API) pluginName() string {
	if api.name == "" {
		return "plugin"
	}
	return api.name
}

func (api *API) setContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	api.mu.Lock()
	api.ctx = ctx
	api.mu.Unlock()
}

// Context returns a cancellable context that is invalidated when the plugin is disabled.
func (api *API) Context() context.Context {
	api.mu.RLock()
	defer api.mu.RUnlock()
	if api.ctx == nil {
		return context.Background()
	}
	return api.ctx
}

func (api *API) setDataDirectory(dir string) {
	if dir != "" {
		dir = filepath.Clean(dir)
	}
	api.mu.Lock()
	api.dataDir = dir
	api.mu.Unlock()
}

// DataDirectory returns the path to the plugin's data directory.
func (api *API) DataDirectory() string {
	api.mu.RLock()
	dir := api.dataDir
	api.mu.RUnlock()
	if dir != "" {
		return dir
	}
	return api.manager.pluginDataDirectory(api.pluginName())
}

func (api *API) resolveDataPath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("data path is empty")
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("data path must be relative")
	}
	base := api.DataDirectory()
	target := filepath.Join(base, filepath.Clean(name))
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("data path escapes plugin directory")
	}
	return target, nil
}

// DataPath resolves name inside the plugin data directory without touching
// the filesystem.
func (api *API) DataPath(name string) (string, error) {
	return api.resolveDataPath(name)
}

// Go launches fn on a new goroutine tied to the plugin's lifecycle context. Panics cause the plugin to be disabled.
func (api *API) Go(fn func(context.Context)) {
	if fn == nil {
		return
	}
	ctx := api.Context()
	name := api.pluginName()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				api.manager.handlePluginPanic(name, r)
			}
		}()
		fn(ctx)
	}()
}

// StartTime reports when the server started listening for connections.
func (api *API) StartTime() time.Time {
	return api.host.StartTime()
}

// Logger returns a logger scoped to the plugin's name for structured logging.
func (api *API) Logger() *slog.Logger {
	logger := api.host.Logger()
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("plugin", api.pluginName())
}

// Worlds returns the named world registry.
func (api *API) Worlds() *worlds.Registry {
	return api.host.Worlds()
}

// Operators returns the server operator list, or nil when the server keeps
// none.
func (api *API) Operators() *permission.Operators {
	return api.host.Operators()
}

// MaxPlayerCount returns the configured player cap.
func (api *API) MaxPlayerCount() int {
	return api.host.MaxPlayerCount()
}

// PlayerCount returns the number of players currently connected to the server.
func (api *API) PlayerCount() int {
	return api.host.PlayerCount()
}

// PlayerByName looks up an online player by their name.
func (api *API) PlayerByName(name string) (*world.EntityHandle, bool) {
	return api.host.PlayerByName(name)
}

// PlayerSummaries returns metadata snapshots for all connected players.
func (api *API) PlayerSummaries() []PlayerSummary {
	return api.host.PlayerSummaries()
}

// PlayerSummary returns metadata for a specific player by UUID.
func (api *API) PlayerSummary(id uuid.UUID) (PlayerSummary, bool) {
	for _, summary := range api.PlayerSummaries() {
		if summary.UUID == id {
			return summary, true
		}
	}
	return PlayerSummary{}, false
}

// RegisterCommand registers a command with the global command registry.
func (api *API) RegisterCommand(command cmd.Command) {
	cmd.Register(command)
}

// Plugins returns metadata for all currently loaded plugins.
func (api *API) Plugins() []Info {
	return api.manager.Infos()
}

// MessagePlayer sends a formatted chat message to the player with the provided
// UUID. It reports whether the player was online. It enters the player's world
// transaction, so it must not be called from within one.
func (api *API) MessagePlayer(id uuid.UUID, message ...any) bool {
	return api.withPlayerByUUID(id, func(p *player.Player) {
		p.Message(message...)
	})
}

// Events returns helpers for subscribing to player, world, and inventory events.
func (api *API) Events() *PluginEvents {
	return &PluginEvents{api: api}
}

// PluginEvents exposes registration helpers for subscribing to core event streams.
type PluginEvents struct {
	api *API
}

// OnPlayer registers a player.Handler that is invoked for every player event.
// The returned function removes the handler when called.
func (pe *PluginEvents) OnPlayer(handler player.Handler) func() {
	if pe == nil || handler == nil {
		return func() {}
	}
	return pe.api.manager.events.addPlayer(pe.api.pluginName(), handler)
}

// OnWorld registers a world.Handler for events in w.
// The returned function removes the handler when called.
func (pe *PluginEvents) OnWorld(w *world.World, handler world.Handler) func() {
	if pe == nil || handler == nil || w == nil {
		return func() {}
	}
	return pe.api.manager.events.addWorld(pe.api.pluginName(), w, handler)
}

// OnInventory registers an inventory.Handler that observes inventory events.
// The returned function removes the handler when called.
func (pe *PluginEvents) OnInventory(handler inventory.Handler) func() {
	if pe == nil || handler == nil {
		return func() {}
	}
	return pe.api.manager.events.addInventory(pe.api.pluginName(), handler)
}

// OnJoin registers fn to be called inside the join transaction of every
// player after the handler chains were attached.
func (pe *PluginEvents) OnJoin(fn func(p *player.Player)) func() {
	if pe == nil || fn == nil {
		return func() {}
	}
	return pe.api.manager.events.addJoin(pe.api.pluginName(), fn)
}

// Clear removes all handlers previously registered by the plugin.
func (pe *PluginEvents) Clear() {
	if pe == nil {
		return
	}
	pe.api.manager.events.clear(pe.api.pluginName())
}

func (api *API) withPlayerByUUID(id uuid.UUID, fn func(*player.Player)) bool {
	if fn == nil {
		return false
	}
	handle, ok := api.host.Player(id)
	if !ok {
		return false
	}
	executed := false
	ok = handle.ExecWorld(func(tx *world.Tx, entity world.Entity) {
		if p, ok := entity.(*player.Player); ok {
			fn(p)
			executed = true
		}
	})
	return ok && executed
}
