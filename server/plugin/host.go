package plugin

import (
	"iter"
	"log/slog"
	"time"

	"github.com/artedaguerra/eralobby/server/permission"
	"github.com/artedaguerra/eralobby/server/worlds"
	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/google/uuid"
)

// Host exposes the subset of server functionality required by the plugin
// manager and APIs.
type Host interface {
	// Logger returns the logger used for structured diagnostics.
	Logger() *slog.Logger
	// StartTime reports the time the server started listening for connections.
	StartTime() time.Time
	// World returns the default world managed by the server.
	World() *world.World
	// Worlds returns the registry of named worlds plugins may teleport between.
	Worlds() *worlds.Registry
	// Operators returns the server operator list. It may be nil.
	Operators() *permission.Operators
	// MaxPlayerCount returns the configured player cap.
	MaxPlayerCount() int
	// PlayerCount returns the number of currently connected players.
	PlayerCount() int
	// Players exposes the server's player iterator.
	Players(tx *world.Tx) iter.Seq[*player.Player]
	// Player looks up an online player by their UUID.
	Player(id uuid.UUID) (*world.EntityHandle, bool)
	// PlayerByName looks up an online player by name.
	PlayerByName(name string) (*world.EntityHandle, bool)
	// ExecuteCommand runs a command on behalf of the given source.
	ExecuteCommand(source cmd.Source, commandLine string)
	// PlayerSummaries returns metadata about all currently connected players.
	PlayerSummaries() []PlayerSummary
	// Close shuts the underlying server down.
	Close() error
}
