package worlds

import (
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

type teleporter interface {
	Teleport(pos mgl64.Vec3)
}

// Transfer moves e to pos in dest. When e already lives in dest it is
// teleported in place and Transfer reports true immediately. Otherwise the
// entity is removed from the world of tx and added to dest in a transaction
// of dest, after which tx must no longer be used to access e.
func Transfer(tx *world.Tx, e world.Entity, dest *world.World, pos mgl64.Vec3) bool {
	if dest == nil || e == nil {
		return false
	}
	if tx.World() == dest {
		t, ok := e.(teleporter)
		if ok {
			t.Teleport(pos)
		}
		return ok
	}
	handle := tx.RemoveEntity(e)
	if handle == nil {
		return false
	}
	dest.Exec(func(destTx *world.Tx) {
		if ent, ok := destTx.AddEntity(handle).(teleporter); ok {
			ent.Teleport(pos)
		}
	})
	return true
}

// SpawnPos returns the centre of the block above the spawn of w, where players
// are placed when sent to that world.
func SpawnPos(w *world.World) mgl64.Vec3 {
	return w.Spawn().Add(cube.Pos{0, 1}).Vec3Middle()
}
