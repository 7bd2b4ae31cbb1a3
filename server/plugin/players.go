package plugin

import (
	"time"

	"github.com/google/uuid"
)

// PlayerSummary captures a snapshot of an online player at the moment the
// summary was produced. Summaries are built without entering any world
// transaction, so they may be requested from inside one.
type PlayerSummary struct {
	UUID uuid.UUID
	Name string
	XUID string
	// World is the name of the world the player was last seen entering.
	World     string
	Joined    time.Time
	Connected bool
}
