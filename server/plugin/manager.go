package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"slices"
	"strings"
	"sync"

	"github.com/df-mc/dragonfly/server/item/inventory"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/google/uuid"
)

type pluginInstance struct {
	name    string
	version string
	plugin  Plugin
	api     *API
	cancel  context.CancelFunc
}

func (pi pluginInstance) info() Info {
	return Info{Name: pi.name, Version: pi.version}
}

type registration struct {
	name    string
	factory Factory
}

// tracker is implemented by hosts that keep their own list of online players.
type tracker interface {
	Track(p *player.Player)
	Moved(id uuid.UUID, w *world.World)
	Untrack(id uuid.UUID)
}

// Manager coordinates plugin registration and lifecycle management.
type Manager struct {
	host       Host
	cfg        Config
	log        *slog.Logger
	runtimeLog *slog.Logger

	once      sync.Once
	mu        sync.RWMutex
	factories []registration
	plugins   []pluginInstance
	events    *eventHub
}

// NewManager constructs a Manager using the provided host and configuration snapshot.
func NewManager(host Host, cfg Config) *Manager {
	manager := &Manager{host: host, cfg: cfg}
	logger := host.Logger()
	if logger == nil {
		logger = slog.Default()
	}
	manager.log = logger
	manager.runtimeLog = logger.With("subsystem", "plugin.runtime")
	manager.events = newEventHub(manager, logger)
	return manager
}

// Enabled reports whether the plugin subsystem should run.
func (m *Manager) Enabled() bool {
	return m.cfg.Enabled
}

// DataRoot returns the root directory used for plugin data storage.
func (m *Manager) DataRoot() string {
	dir := m.cfg.DataDirectory
	if dir == "" {
		dir = "plugins"
	}
	return filepath.Clean(dir)
}

// Register makes a plugin factory known under name. Registered plugins are
// enabled by LoadConfigured or explicitly through Enable.
func (m *Manager) Register(name string, factory Factory) error {
	name = strings.TrimSpace(name)
	if name == "" || factory == nil {
		return fmt.Errorf("register plugin: empty name or nil factory")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.factories {
		if strings.EqualFold(r.name, name) {
			return fmt.Errorf("%w: %s", ErrNameConflict, name)
		}
	}
	m.factories = append(m.factories, registration{name: name, factory: factory})
	return nil
}

// LoadConfigured enables every registered plugin once.
func (m *Manager) LoadConfigured() {
	m.once.Do(func() {
		if !m.cfg.Enabled {
			m.log.Debug("Plugin system disabled.")
			return
		}
		m.mu.RLock()
		names := make([]string, len(m.factories))
		for i, r := range m.factories {
			names[i] = r.name
		}
		m.mu.RUnlock()

		if len(names) == 0 {
			m.log.Debug("No plugins registered.")
			return
		}
		for _, name := range names {
			if _, err := m.Enable(name); err != nil {
				m.log.Error("Enable plugin.", "error", err, "name", name)
			}
		}
	})
}

// Infos returns metadata for all enabled plugins.
func (m *Manager) Infos() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, len(m.plugins))
	for i, p := range m.plugins {
		infos[i] = p.info()
	}
	return infos
}

// Plugin returns an enabled plugin by its case-insensitive name.
func (m *Manager) Plugin(name string) (Plugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.plugins {
		if strings.EqualFold(p.name, name) {
			return p.plugin, true
		}
	}
	return nil, false
}

// Enable constructs and enables the plugin registered under name.
func (m *Manager) Enable(name string) (info Info, err error) {
	if !m.Enabled() {
		return Info{}, ErrDisabled
	}
	reg, ok := m.registration(name)
	if !ok {
		return Info{}, ErrNotFound
	}

	m.mu.RLock()
	for _, existing := range m.plugins {
		if strings.EqualFold(existing.name, reg.name) {
			m.mu.RUnlock()
			return existing.info(), ErrAlreadyLoaded
		}
	}
	m.mu.RUnlock()

	ctx, cancel := context.WithCancel(context.Background())
	api := newAPI(m, m.host, reg.name)
	api.setContext(ctx)
	dataDir := m.pluginDataDirectory(reg.name)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		cancel()
		return Info{}, fmt.Errorf("create plugin data directory: %w", err)
	}
	api.setDataDirectory(dataDir)
	defer func() {
		if err != nil {
			cancel()
			m.events.clear(reg.name)
		}
	}()

	inst, err := m.construct(reg, api)
	if err != nil {
		return Info{}, fmt.Errorf("initialise plugin %s: %w", reg.name, err)
	}
	if inst == nil {
		return Info{}, fmt.Errorf("initialise plugin %s: factory returned nil", reg.name)
	}

	version := ""
	if v, ok := inst.(VersionedPlugin); ok {
		version = v.Version()
	}
	entry := pluginInstance{
		name:    reg.name,
		version: version,
		plugin:  inst,
		api:     api,
		cancel:  cancel,
	}

	m.mu.Lock()
	m.plugins = append(m.plugins, entry)
	m.mu.Unlock()

	attrs := []any{"name", entry.name}
	if entry.version != "" {
		attrs = append(attrs, "version", entry.version)
	}
	if display := inst.Name(); display != "" && display != entry.name {
		attrs = append(attrs, "display", display)
	}
	m.log.Info("Plugin enabled.", attrs...)
	return entry.info(), nil
}

// construct runs the factory, turning a panic into an error so a broken plugin
// never takes the server down during start-up.
func (m *Manager) construct(reg registration, api *API) (p Plugin, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.runtimeLog.Error("Plugin factory panic.", "plugin", reg.name, "panic", r, "stack", string(debug.Stack()))
			p, err = nil, fmt.Errorf("factory panic: %v", r)
		}
	}()
	return reg.factory(api)
}

// Disable disables a plugin by its case-insensitive name and removes it from the manager.
func (m *Manager) Disable(name string) (Info, error) {
	if !m.Enabled() {
		return Info{}, ErrDisabled
	}

	m.mu.Lock()
	index := -1
	var entry pluginInstance
	for i, p := range m.plugins {
		if strings.EqualFold(p.name, name) {
			index = i
			entry = p
			m.plugins = append(m.plugins[:i], m.plugins[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	if index == -1 {
		return Info{}, ErrNotFound
	}

	if entry.cancel != nil {
		entry.cancel()
	}
	m.events.clear(entry.name)
	if err := entry.plugin.Close(); err != nil {
		m.log.Error("Close plugin.", "error", err, "name", entry.name)
		return entry.info(), fmt.Errorf("close plugin: %w", err)
	}

	m.log.Info("Plugin disabled.", "name", entry.name)
	return entry.info(), nil
}

// Reload disables and then re-enables a plugin by name.
func (m *Manager) Reload(name string) (Info, error) {
	info, err := m.Disable(name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		m.log.Warn("Disable plugin before reload.", "name", name, "error", err)
	}
	target := name
	if info.Name != "" {
		target = info.Name
	}

	reloaded, err := m.Enable(target)
	if err != nil {
		return Info{}, err
	}

	attrs := []any{"name", reloaded.Name}
	if reloaded.Version != "" {
		attrs = append(attrs, "version", reloaded.Version)
	}
	m.log.Info("Plugin reloaded.", attrs...)
	return reloaded, nil
}

// DisableAll disables all currently loaded plugins in reverse load order.
// The returned slice contains metadata for every plugin that was disabled in
// the order the operations were performed.
func (m *Manager) DisableAll() ([]Info, error) {
	if !m.Enabled() {
		return nil, ErrDisabled
	}

	m.mu.RLock()
	names := make([]string, len(m.plugins))
	for i, p := range m.plugins {
		names[i] = p.name
	}
	m.mu.RUnlock()

	infos := make([]Info, 0, len(names))
	for i := len(names) - 1; i >= 0; i-- {
		info, err := m.Disable(names[i])
		if err != nil {
			return infos, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Shutdown disables all plugins in reverse load order.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	plugins := slices.Clone(m.plugins)
	m.plugins = nil
	m.mu.Unlock()

	for i := len(plugins) - 1; i >= 0; i-- {
		entry := plugins[i]
		if entry.cancel != nil {
			entry.cancel()
		}
		m.events.clear(entry.name)
		if err := entry.plugin.Close(); err != nil {
			m.log.Error("Disable plugin.", "error", err, "name", entry.name)
			continue
		}
		m.log.Info("Plugin disabled.", "name", entry.name)
	}
}

// PlayerHandler wraps base so plugin callbacks run before it. The result is
// meant to be passed straight to Player.Handle.
func (m *Manager) PlayerHandler(base player.Handler) player.Handler {
	return m.events.wrapPlayer(base)
}

// InventoryHandler wraps base so plugin callbacks run before it.
func (m *Manager) InventoryHandler(base inventory.Handler) inventory.Handler {
	return m.events.wrapInventory(base)
}

// Join attaches the plugin handler chains to p and notifies join listeners.
// It must be called from within the transaction p was accepted in.
func (m *Manager) Join(p *player.Player) {
	if t, ok := m.host.(tracker); ok {
		t.Track(p)
	}
	p.Handle(m.PlayerHandler(nil))
	p.Inventory().Handle(m.InventoryHandler(nil))
	p.Armour().Inventory().Handle(m.InventoryHandler(nil))
	m.events.joined(p)
}

func (m *Manager) moved(p *player.Player, w *world.World) {
	if t, ok := m.host.(tracker); ok {
		t.Moved(p.UUID(), w)
	}
}

func (m *Manager) untrack(p *player.Player) {
	if t, ok := m.host.(tracker); ok {
		t.Untrack(p.UUID())
	}
}

func (m *Manager) registration(name string) (registration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.factories {
		if strings.EqualFold(r.name, name) {
			return r, true
		}
	}
	return registration{}, false
}

func (m *Manager) pluginDataDirectory(name string) string {
	return filepath.Join(m.DataRoot(), sanitizePluginDirectory(name))
}

func (m *Manager) handlePluginPanic(name string, reason any) {
	pluginName := name
	if pluginName == "" {
		pluginName = "plugin"
	}
	stack := debug.Stack()
	m.events.clear(pluginName)
	m.runtimeLog.Error("Plugin panic.", "plugin", pluginName, "panic", reason, "stack", string(stack))
	go func() {
		info, err := m.Disable(pluginName)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				m.runtimeLog.Error("Disable panic plugin.", "plugin", pluginName, "error", err)
			}
			return
		}
		attrs := []any{"name", info.Name}
		if info.Version != "" {
			attrs = append(attrs, "version", info.Version)
		}
		m.runtimeLog.Warn("Plugin disabled after panic.", attrs...)
	}()
}

func sanitizePluginDirectory(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "plugin"
	}
	lower := strings.ToLower(trimmed)
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '-'
		}
	}, lower)
	sanitized = strings.Trim(sanitized, "-_.")
	if sanitized == "" {
		return "plugin"
	}
	return sanitized
}
