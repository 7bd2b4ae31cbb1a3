// Package lobby is the Arte da Guerra lobby: a hub world with a pad for each
// of the seven eras, navigation items and menus, and teleports guarded by
// permissions and a cooldown.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/artedaguerra/eralobby/server/permission"
	"github.com/artedaguerra/eralobby/server/plugin"
	"github.com/artedaguerra/eralobby/server/store"
	"github.com/artedaguerra/eralobby/server/worlds"
)

const (
	// Name is the name the plugin registers under.
	Name = "ArteDaGuerra"
	// Version is reported by /artedaguerra info and the query plugin list.
	Version = "1.0.0"
	// Author is shown by /artedaguerra info.
	Author = "Arte da Guerra"
	// Website is shown by /artedaguerra info.
	Website = "https://github.com/artedaguerra/eralobby"

	configFile = "config.yml"
	storeFile  = "lobby.db"
)

type lobbyPlugin struct {
	api      *plugin.API
	log      *slog.Logger
	confPath string

	manager *Manager
	store   *store.Store
	worlds  *worlds.Registry // owned when pasta_mundos differs from the host
	watch   *watcher
	unsub   []func()
}

// New is the plugin factory. Enabling fails when config.yml is incomplete.
func New(api *plugin.API) (plugin.Plugin, error) {
	pl := &lobbyPlugin{api: api, log: api.Logger().With("component", "lobby")}
	if err := pl.init(); err != nil {
		pl.release()
		return nil, err
	}
	return pl, nil
}

// Name is part of the plugin.Plugin interface.
func (pl *lobbyPlugin) Name() string { return "Arte da Guerra" }

// Version is part of the plugin.VersionedPlugin interface.
func (pl *lobbyPlugin) Version() string { return Version }

// Manager returns the lobby manager.
func (pl *lobbyPlugin) Manager() *Manager { return pl.manager }

func (pl *lobbyPlugin) init() error {
	path, err := pl.api.DataPath(configFile)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	pl.confPath = path
	conf, err := LoadConfig(path)
	if err != nil {
		return err
	}

	dbPath, err := pl.api.DataPath(storeFile)
	if err != nil {
		return fmt.Errorf("resolve store path: %w", err)
	}
	if pl.store, err = store.Open(dbPath, pl.log); err != nil {
		return err
	}

	src, err := pl.worldSource(conf)
	if err != nil {
		return err
	}
	perms := permission.NewChecker(pl.api.Operators(), pl.store, pl.log)
	pl.manager = NewManager(conf, src, perms, pl.store, pl.log)
	pl.manager.SetConfigPath(path)
	if err := pl.manager.Setup(); err != nil {
		return err
	}

	pl.registerCommands()
	pl.registerEvents()
	pl.startWatcher()
	pl.log.Info("Lobby initialised.",
		"world", conf.Lobby.World,
		"cooldown", conf.Cooldown(),
		"protection", conf.Lobby.Protection,
		"dataDir", pl.api.DataDirectory(),
	)
	return nil
}

// worldSource returns the host registry, or a registry of its own when the
// configured worlds folder is not the one of the host.
func (pl *lobbyPlugin) worldSource(conf Config) (*worlds.Registry, error) {
	host := pl.api.Worlds()
	dir := conf.General.WorldsFolder
	if host != nil && (dir == "" || filepath.Clean(dir) == filepath.Clean(host.Dir())) {
		return host, nil
	}
	if dir == "" {
		return nil, errors.New("no world registry available")
	}
	pl.worlds = worlds.NewRegistry(worlds.Config{Log: pl.log, Dir: dir})
	return pl.worlds, nil
}

func (pl *lobbyPlugin) registerEvents() {
	events := pl.api.Events()
	pl.unsub = append(pl.unsub,
		events.OnPlayer(playerHandler{m: pl.manager}),
		events.OnInventory(inventoryHandler{m: pl.manager}),
		events.OnWorld(pl.manager.Lobby(), worldHandler{m: pl.manager}),
		events.OnJoin(pl.manager.join),
	)
}

func (pl *lobbyPlugin) startWatcher() {
	w, err := newWatcher(pl.api.DataDirectory(), configFile)
	if err != nil {
		pl.log.Warn("Watch config.", "error", err)
		return
	}
	pl.watch = w
	pl.api.Go(func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case name, ok := <-w.Events:
				if !ok {
					return
				}
				pl.log.Info("Config changed on disk.", "file", name)
				_ = pl.Reload()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				pl.log.Warn("Watch config.", "error", err)
			}
		}
	})
}

// Reload re-reads config.yml. The previous configuration stays active when
// the file cannot be loaded.
func (pl *lobbyPlugin) Reload() error {
	conf, err := LoadConfig(pl.confPath)
	if err != nil {
		pl.log.Error("Reload config.", "error", err)
		return err
	}
	pl.manager.Apply(conf)
	pl.log.Info("Config reloaded.", "cooldown", conf.Cooldown(), "protection", conf.Lobby.Protection)
	return nil
}

// Close tears down runtime state when the plugin is disabled.
func (pl *lobbyPlugin) Close() error {
	pl.release()
	pl.log.Info("Lobby shut down.")
	return nil
}

func (pl *lobbyPlugin) release() {
	for i := len(pl.unsub) - 1; i >= 0; i-- {
		pl.unsub[i]()
	}
	pl.unsub = nil
	pl.api.Events().Clear()
	if pl.watch != nil {
		_ = pl.watch.Close()
		pl.watch = nil
	}
	if pl.manager != nil {
		pl.manager.Close()
	}
	if pl.store != nil {
		if err := pl.store.Close(); err != nil {
			pl.log.Error("Close store.", "error", err)
		}
		pl.store = nil
	}
	if pl.worlds != nil {
		if err := pl.worlds.Close(); err != nil {
			pl.log.Error("Close worlds.", "error", err)
		}
		pl.worlds = nil
	}
}

var (
	_ plugin.Plugin          = (*lobbyPlugin)(nil)
	_ plugin.VersionedPlugin = (*lobbyPlugin)(nil)
)
