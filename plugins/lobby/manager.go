package lobby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/artedaguerra/eralobby/server/cooldown"
	"github.com/artedaguerra/eralobby/server/lang"
	"github.com/artedaguerra/eralobby/server/permission"
	"github.com/artedaguerra/eralobby/server/store"
	"github.com/artedaguerra/eralobby/server/worlds"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/sandertv/gophertunnel/minecraft/text"
	"golang.org/x/text/language"
)

// worldSource resolves world names to worlds.
type worldSource interface {
	Open(name string, opts worlds.Options) (*world.World, error)
	Lookup(name string) (*world.World, error)
}

// visitLog records era visits.
type visitLog interface {
	RecordVisit(v store.Visit)
	VisitCounts(ctx context.Context) (map[int]int, error)
}

// refusal is a player-facing reason an operation did not happen.
type refusal struct {
	key  string
	args []any
}

func (r *refusal) Error() string { return r.key }

func refuse(key string, args ...any) error { return &refusal{key: key, args: args} }

// Manager owns the lobby world, the era pads and the teleport rules.
type Manager struct {
	log    *slog.Logger
	worlds worldSource
	perms  *permission.Checker
	visits visitLog
	cool   *cooldown.Map

	mu     sync.RWMutex
	conf   Config
	path   string
	lobby  *world.World
	layout *padLayout
	near   map[uuid.UUID]int
}

// NewManager returns a Manager for conf. Setup must be called before players
// can be sent to the lobby.
func NewManager(conf Config, src worldSource, perms *permission.Checker, visits visitLog, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	perms.SetDefaults(conf.Permissions.Defaults)
	return &Manager{
		log:    log,
		worlds: src,
		perms:  perms,
		visits: visits,
		cool:   cooldown.New(conf.Cooldown()),
		conf:   conf,
		near:   make(map[uuid.UUID]int),
	}
}

// Setup opens the lobby world, creating it when missing, moves its spawn to
// the configured position and builds the platform and era pads.
func (m *Manager) Setup() error {
	conf := m.Config()
	w, err := m.worlds.Open(conf.Lobby.World, worlds.Options{Create: true, Lobby: true})
	if err != nil {
		return fmt.Errorf("open lobby world: %w", err)
	}
	spawn := mgl64.Vec3{conf.Lobby.SpawnX, conf.Lobby.SpawnY, conf.Lobby.SpawnZ}
	w.SetSpawn(cube.PosFromVec3(spawn))
	layout := newPadLayout(spawn, conf.Lobby.EraRadius)

	m.mu.Lock()
	m.lobby, m.layout = w, layout
	m.mu.Unlock()

	placements := decorate(spawn, layout)
	w.Exec(func(tx *world.Tx) {
		build(tx, placements)
	})
	for _, name := range conf.General.Worlds {
		if _, err := m.worlds.Lookup(name); err != nil {
			m.log.Warn("Load world.", "name", name, "error", err)
		}
	}
	m.log.Info("Lobby set up.", "world", conf.Lobby.World, "spawn", spawn, "blocks", len(placements))
	return nil
}

// SetConfigPath sets the file settings changes are saved to.
func (m *Manager) SetConfigPath(path string) {
	m.mu.Lock()
	m.path = path
	m.mu.Unlock()
}

// Close clears the cooldowns and the pad layout.
func (m *Manager) Close() {
	m.cool.Clear()
	m.mu.Lock()
	m.layout = nil
	m.lobby = nil
	clear(m.near)
	m.mu.Unlock()
}

// Config returns the active configuration.
func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conf
}

// Apply replaces the active configuration. The lobby world and pads are kept
// as they were set up.
func (m *Manager) Apply(conf Config) {
	m.mu.Lock()
	m.conf = conf
	m.mu.Unlock()
	m.cool.SetDuration(conf.Cooldown())
	m.perms.SetDefaults(conf.Permissions.Defaults)
}

// Lobby returns the lobby world, or nil before Setup.
func (m *Manager) Lobby() *world.World {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lobby
}

// InLobby reports whether tx belongs to the lobby world.
func (m *Manager) InLobby(tx *world.Tx) bool {
	l := m.Lobby()
	return l != nil && tx != nil && tx.World() == l
}

// Cooldowns returns the teleport cooldown map.
func (m *Manager) Cooldowns() *cooldown.Map { return m.cool }

// Permissions returns the permission checker.
func (m *Manager) Permissions() *permission.Checker { return m.perms }

// EraName returns the configured name of era n.
func (m *Manager) EraName(tag language.Tag, n int) string {
	if era, ok := m.Config().Era(n); ok && era.Name != "" {
		return era.Name
	}
	return lang.Translate(tag, "era.default_name", n)
}

// EraPeriod returns the configured period of era n.
func (m *Manager) EraPeriod(tag language.Tag, n int) string {
	if era, ok := m.Config().Era(n); ok && era.Period != "" {
		return era.Period
	}
	return lang.Translate(tag, "era.default_period")
}

// HasEraAccess reports whether s holds the node of era n and the era is
// unlocked.
func (m *Manager) HasEraAccess(s permission.Subject, n int) bool {
	if n < 1 || n > EraCount {
		return false
	}
	era, _ := m.Config().Era(n)
	return era.Unlocked && m.perms.HasPlayer(s.UUID(), s.Name(), permission.EraNode(n))
}

// HasNode reports whether src holds node.
func (m *Manager) HasNode(src cmd.Source, node string) bool {
	return m.perms.Has(src, node)
}

// IsAdmin reports whether s may manage the lobby.
func (m *Manager) IsAdmin(s permission.Subject) bool {
	return m.perms.HasPlayer(s.UUID(), s.Name(), permission.Admin)
}

// lobbyDestination decides whether s may be sent to the lobby right now.
func (m *Manager) lobbyDestination(s permission.Subject) (*world.World, mgl64.Vec3, error) {
	w := m.Lobby()
	if w == nil {
		return nil, mgl64.Vec3{}, refuse("lobby.not_configured")
	}
	if err := m.cooling(s.UUID()); err != nil {
		return nil, mgl64.Vec3{}, err
	}
	return w, worlds.SpawnPos(w), nil
}

// eraDestination decides whether s may be sent to era n right now. The
// checks run in a fixed order so the first failing one is reported.
func (m *Manager) eraDestination(s permission.Subject, n int) (*world.World, mgl64.Vec3, error) {
	if n < 1 || n > EraCount {
		return nil, mgl64.Vec3{}, refuse("era.invalid")
	}
	if !m.HasEraAccess(s, n) {
		return nil, mgl64.Vec3{}, refuse("era.no_access")
	}
	if err := m.cooling(s.UUID()); err != nil {
		return nil, mgl64.Vec3{}, err
	}
	era, _ := m.Config().Era(n)
	if strings.TrimSpace(era.World) == "" {
		return nil, mgl64.Vec3{}, refuse("era.world_not_configured")
	}
	w, err := m.worlds.Lookup(era.World)
	if err != nil {
		if !errors.Is(err, worlds.ErrNotFound) {
			m.log.Warn("Open era world.", "era", n, "world", era.World, "error", err)
		}
		return nil, mgl64.Vec3{}, refuse("era.world_not_found", era.World)
	}
	return w, worlds.SpawnPos(w), nil
}

func (m *Manager) cooling(id uuid.UUID) error {
	if remaining, ok := m.cool.Remaining(id); ok {
		return refuse("lobby.cooldown", cooldown.WaitSeconds(remaining))
	}
	return nil
}

// TeleportToLobby sends p to the lobby spawn. It reports false and tells the
// player why when the lobby is not set up or p is cooling down.
func (m *Manager) TeleportToLobby(p *player.Player, tx *world.Tx) bool {
	w, pos, err := m.lobbyDestination(p)
	if err != nil {
		m.refused(p, err)
		return false
	}
	m.GiveNavigationItemsIfEnabled(p)
	m.Message(p, "lobby.welcome")
	m.Message(p, "lobby.welcome_hint")
	m.cool.Start(p.UUID())
	m.trace("Teleport to lobby.", "player", p.Name())
	worlds.Transfer(tx, p, w, pos)
	return true
}

// TeleportToEra sends p to the spawn of the world of era n.
func (m *Manager) TeleportToEra(p *player.Player, tx *world.Tx, n int) bool {
	w, pos, err := m.eraDestination(p, n)
	if err != nil {
		m.refused(p, err)
		return false
	}
	m.Message(p, "era.welcome", n, m.EraName(m.Locale(p), n))
	m.cool.Start(p.UUID())
	m.forgetNear(p.UUID())
	if m.visits != nil {
		m.visits.RecordVisit(store.Visit{Player: p.UUID(), Name: p.Name(), Era: n, At: time.Now()})
	}
	m.trace("Teleport to era.", "player", p.Name(), "era", n, "world", w.Name())
	worlds.Transfer(tx, p, w, pos)
	return true
}

// Near reports the era pad within the proximity distance of pos, or 0.
func (m *Manager) Near(pos mgl64.Vec3) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.layout.Near(pos, m.conf.Lobby.ProximityDistance)
}

// enterPad records that id stands on era n and reports whether it changed.
func (m *Manager) enterPad(id uuid.UUID, n int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.near[id] == n {
		return false
	}
	if n == 0 {
		delete(m.near, id)
	} else {
		m.near[id] = n
	}
	return true
}

func (m *Manager) forgetNear(id uuid.UUID) {
	m.mu.Lock()
	delete(m.near, id)
	m.mu.Unlock()
}

// VoidLevel is the Y below which players in the lobby are returned to spawn.
func (m *Manager) VoidLevel() float64 {
	return m.Config().Lobby.SpawnY - 64
}

// Status is a snapshot shown by /artedaguerra status.
type Status struct {
	Active    bool
	Cooldowns int
	Visits    map[int]int
}

// Status collects the lobby state.
func (m *Manager) Status(ctx context.Context) Status {
	st := Status{Active: m.Lobby() != nil, Cooldowns: m.cool.Len()}
	if m.visits != nil {
		counts, err := m.visits.VisitCounts(ctx)
		if err != nil {
			m.log.Warn("Count visits.", "error", err)
		}
		st.Visits = counts
	}
	return st
}

// Locale returns the language of p, falling back to the configured one.
func (m *Manager) Locale(p *player.Player) language.Tag {
	if p != nil {
		if tag := p.Locale(); tag != language.Und {
			return tag
		}
	}
	return m.DefaultLocale()
}

// DefaultLocale returns the configured language.
func (m *Manager) DefaultLocale() language.Tag {
	return lang.Parse(m.Config().General.Language)
}

// Prefix returns the formatted chat prefix.
func (m *Manager) Prefix() string {
	prefix := m.Config().General.Prefix
	if prefix == "" {
		return ""
	}
	return text.Colourf(strings.ReplaceAll(prefix, "%", "%%"))
}

// Message sends the translated message key to p with the chat prefix.
func (m *Manager) Message(p *player.Player, key string, args ...any) {
	p.Message(m.Prefix() + lang.Translate(m.Locale(p), key, args...))
}

func (m *Manager) refused(p *player.Player, err error) {
	var r *refusal
	if errors.As(err, &r) {
		m.Message(p, r.key, r.args...)
		return
	}
	m.log.Error("Teleport.", "player", p.Name(), "error", err)
}

// trace logs at info level when geral.debug is set.
func (m *Manager) trace(msg string, args ...any) {
	if m.Config().General.Debug {
		m.log.Info(msg, args...)
	}
}
