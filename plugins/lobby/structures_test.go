package lobby

import (
	"testing"

	"github.com/df-mc/dragonfly/server/block"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
)

func TestPlatform(t *testing.T) {
	t.Parallel()

	placements := platform(mgl64.Vec3{0.5, 100, 0.5})
	if got, want := len(placements), 82; got != want {
		t.Fatalf("platform() placed %d blocks, want %d", got, want)
	}
	last := placements[len(placements)-1]
	if _, ok := last.b.(block.Beacon); !ok || last.pos != (cube.Pos{0, 100, 0}) {
		t.Fatalf("platform() centre = %#v at %v, want beacon at (0, 100, 0)", last.b, last.pos)
	}
	for _, pl := range placements[:len(placements)-1] {
		if pl.pos[1] != 99 {
			t.Fatalf("platform block at %v, want Y 99", pl.pos)
		}
	}
}

func TestPad(t *testing.T) {
	t.Parallel()

	landmarks := map[int]int{1: 1, 2: 2, 3: 4, 4: 4, 5: 3, 6: 3, 7: 2}
	for n, size := range landmarks {
		placements := pad(n, mgl64.Vec3{20, 100, 0})
		if got, want := len(placements), 49+size; got != want {
			t.Fatalf("pad(%d) placed %d blocks, want %d", n, got, want)
		}
		if placements[0].b != eraBase(n) {
			t.Fatalf("pad(%d) floor = %#v, want %#v", n, placements[0].b, eraBase(n))
		}
		if got := placements[49].pos; got != (cube.Pos{20, 100, 0}) {
			t.Fatalf("pad(%d) landmark starts at %v", n, got)
		}
	}
}

func TestDecorate(t *testing.T) {
	t.Parallel()

	spawn := mgl64.Vec3{}
	if got, want := len(decorate(spawn, newPadLayout(spawn, 20))), 82+7*49+1+2+4+4+3+3+2; got != want {
		t.Fatalf("decorate() placed %d blocks, want %d", got, want)
	}
	if got := len(decorate(spawn, nil)); got != 82 {
		t.Fatalf("decorate() without layout placed %d blocks, want 82", got)
	}
}
