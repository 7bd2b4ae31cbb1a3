package lobby

import (
	"github.com/df-mc/dragonfly/server/block"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	platformRadius = 5
	padHalfSize    = 3
)

type placement struct {
	pos cube.Pos
	b   world.Block
}

// platform is the quartz disc below the spawn with a beacon on its centre.
func platform(spawn mgl64.Vec3) []placement {
	centre := cube.PosFromVec3(spawn).Sub(cube.Pos{0, 1, 0})
	var out []placement
	for x := -platformRadius; x <= platformRadius; x++ {
		for z := -platformRadius; z <= platformRadius; z++ {
			if x*x+z*z > platformRadius*platformRadius {
				continue
			}
			out = append(out, placement{pos: centre.Add(cube.Pos{x, 0, z}), b: block.Quartz{}})
		}
	}
	return append(out, placement{pos: centre.Add(cube.Pos{0, 1, 0}), b: block.Beacon{}})
}

// eraBase returns the floor block of the pad of era n.
func eraBase(n int) world.Block {
	switch n {
	case 1:
		return block.Dirt{}
	case 2:
		return block.Stone{}
	case 3:
		return block.Cobblestone{}
	case 4:
		return block.Iron{}
	case 5:
		return block.Concrete{Colour: item.ColourWhite()}
	case 6:
		// There is no block of redstone to build with.
		return block.Emerald{}
	case 7:
		return block.Diamond{}
	}
	return block.Stone{}
}

// pad is the 7x7 floor of era n centred below centre, followed by the
// landmark of the era.
func pad(n int, centre mgl64.Vec3) []placement {
	top := cube.PosFromVec3(centre)
	floor := top.Sub(cube.Pos{0, 1, 0})
	base := eraBase(n)
	out := make([]placement, 0, (2*padHalfSize+1)*(2*padHalfSize+1)+4)
	for dx := -padHalfSize; dx <= padHalfSize; dx++ {
		for dz := -padHalfSize; dz <= padHalfSize; dz++ {
			out = append(out, placement{pos: floor.Add(cube.Pos{dx, 0, dz}), b: base})
		}
	}
	return append(out, landmark(n, top)...)
}

func landmark(n int, at cube.Pos) []placement {
	up := func(i int) cube.Pos { return at.Add(cube.Pos{0, i, 0}) }
	fire := block.NormalFire()
	switch n {
	case 1:
		return []placement{{up(0), block.Campfire{Type: fire}}}
	case 2:
		return []placement{
			{up(0), block.Slab{Block: block.Stone{}}},
			{up(1), block.Torch{Facing: cube.FaceDown, Type: fire}},
		}
	case 3:
		return []placement{
			{up(0), block.Cobblestone{}},
			{up(1), block.Cobblestone{}},
			{up(2), block.Cobblestone{}},
			{up(3), block.Stairs{Block: block.Cobblestone{}}},
		}
	case 4:
		stairs := block.Stairs{Block: block.Bricks{}}
		return []placement{{up(0), stairs}, {up(1), stairs}, {up(2), stairs}, {up(3), stairs}}
	case 5:
		concrete := block.Concrete{Colour: item.ColourWhite()}
		return []placement{{up(0), concrete}, {up(1), block.Glass{}}, {up(2), concrete}}
	case 6:
		return []placement{{up(0), block.Emerald{}}, {up(1), block.IronBars{}}, {up(2), block.IronBars{}}}
	case 7:
		return []placement{{up(0), block.Diamond{}}, {up(1), block.EndRod{Facing: cube.FaceUp}}}
	}
	return nil
}

// decorate returns every block the lobby places: the central platform and
// the pad of each era.
func decorate(spawn mgl64.Vec3, layout *padLayout) []placement {
	out := platform(spawn)
	for n := 1; n <= EraCount; n++ {
		if centre, ok := layout.Pad(n); ok {
			out = append(out, pad(n, centre)...)
		}
	}
	return out
}

func build(tx *world.Tx, placements []placement) {
	for _, pl := range placements {
		tx.SetBlock(pl.pos, pl.b, nil)
	}
}
