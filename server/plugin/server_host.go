package plugin

import (
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/artedaguerra/eralobby/server/permission"
	"github.com/artedaguerra/eralobby/server/worlds"
	"github.com/df-mc/dragonfly/server"
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/google/uuid"
)

// ServerHost implements Host on top of a Dragonfly server.
type ServerHost struct {
	srv    *server.Server
	log    *slog.Logger
	worlds *worlds.Registry
	ops    *permission.Operators
	start  atomic.Pointer[time.Time]

	mu     sync.RWMutex
	online map[uuid.UUID]onlinePlayer
}

type onlinePlayer struct {
	name   string
	xuid   string
	world  string
	joined time.Time
}

// NewServerHost wraps srv. The registry passed is handed to plugins through
// Host.Worlds and gets the server's default world registered under its name.
// ops may be nil.
func NewServerHost(srv *server.Server, log *slog.Logger, reg *worlds.Registry, ops *permission.Operators) *ServerHost {
	if log == nil {
		log = slog.Default()
	}
	if reg == nil {
		reg = worlds.NewRegistry(worlds.Config{Log: log})
	}
	reg.Register(srv.World().Name(), srv.World())
	return &ServerHost{srv: srv, log: log, worlds: reg, ops: ops, online: make(map[uuid.UUID]onlinePlayer)}
}

// Listen starts the server listeners and records the start time.
func (h *ServerHost) Listen() {
	now := time.Now()
	h.start.Store(&now)
	h.srv.Listen()
}

// Accept exposes the server's accept iterator.
func (h *ServerHost) Accept() iter.Seq[*player.Player] {
	return h.srv.Accept()
}

// CloseOnProgramEnd closes the server when the program receives termination signals.
func (h *ServerHost) CloseOnProgramEnd() {
	h.srv.CloseOnProgramEnd()
}

// Track records a joined player so that it shows up in PlayerSummaries. It
// must be called from within the transaction p was accepted in.
func (h *ServerHost) Track(p *player.Player) {
	entry := onlinePlayer{name: p.Name(), xuid: p.XUID(), joined: time.Now()}
	if tx := p.Tx(); tx != nil {
		entry.world = tx.World().Name()
	}
	h.mu.Lock()
	h.online[p.UUID()] = entry
	h.mu.Unlock()
}

// Moved records that a tracked player entered w.
func (h *ServerHost) Moved(id uuid.UUID, w *world.World) {
	if w == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if entry, ok := h.online[id]; ok {
		entry.world = w.Name()
		h.online[id] = entry
	}
}

// Untrack forgets a player that left the server.
func (h *ServerHost) Untrack(id uuid.UUID) {
	h.mu.Lock()
	delete(h.online, id)
	h.mu.Unlock()
}

func (h *ServerHost) Logger() *slog.Logger { return h.log }

func (h *ServerHost) StartTime() time.Time {
	if t := h.start.Load(); t != nil {
		return *t
	}
	return time.Time{}
}

func (h *ServerHost) World() *world.World { return h.srv.World() }

func (h *ServerHost) Worlds() *worlds.Registry { return h.worlds }

func (h *ServerHost) Operators() *permission.Operators { return h.ops }

func (h *ServerHost) MaxPlayerCount() int { return h.srv.MaxPlayerCount() }

func (h *ServerHost) PlayerCount() int { return h.srv.PlayerCount() }

func (h *ServerHost) Players(tx *world.Tx) iter.Seq[*player.Player] {
	return h.srv.Players(tx)
}

func (h *ServerHost) Player(id uuid.UUID) (*world.EntityHandle, bool) {
	return h.srv.Player(id)
}

func (h *ServerHost) PlayerByName(name string) (*world.EntityHandle, bool) {
	return h.srv.PlayerByName(name)
}

func (h *ServerHost) ExecuteCommand(source cmd.Source, commandLine string) {
	<-h.srv.World().Exec(func(tx *world.Tx) {
		ExecuteLine(source, commandLine, tx)
	})
}

func (h *ServerHost) PlayerSummaries() []PlayerSummary {
	h.mu.RLock()
	defer h.mu.RUnlock()
	summaries := make([]PlayerSummary, 0, len(h.online))
	for id, p := range h.online {
		summaries = append(summaries, PlayerSummary{
			UUID:      id,
			Name:      p.name,
			XUID:      p.xuid,
			World:     p.world,
			Joined:    p.joined,
			Connected: true,
		})
	}
	return summaries
}

// Close shuts the server down, disconnecting every player, and then closes
// the worlds opened through the registry.
func (h *ServerHost) Close() error {
	err := h.srv.Close()
	if werr := h.worlds.Close(); werr != nil {
		h.log.Error("Close worlds.", "error", werr)
	}
	return err
}

var _ Host = (*ServerHost)(nil)
