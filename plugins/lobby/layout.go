package lobby

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// padLayout places the era pads on a circle around the lobby spawn.
type padLayout struct {
	spawn  mgl64.Vec3
	radius float64
	pads   [EraCount]mgl64.Vec3
}

func newPadLayout(spawn mgl64.Vec3, radius float64) *padLayout {
	if radius <= 0 {
		radius = 20
	}
	l := &padLayout{spawn: spawn, radius: radius}
	step := 360.0 / EraCount
	for i := range l.pads {
		angle := mgl64.DegToRad(float64(i) * step)
		l.pads[i] = mgl64.Vec3{
			spawn[0] + radius*math.Cos(angle),
			spawn[1],
			spawn[2] + radius*math.Sin(angle),
		}
	}
	return l
}

// Pad returns the centre of the pad of era n.
func (l *padLayout) Pad(n int) (mgl64.Vec3, bool) {
	if l == nil || n < 1 || n > EraCount {
		return mgl64.Vec3{}, false
	}
	return l.pads[n-1], true
}

// Near returns the era whose pad is within dist of pos on the horizontal
// plane, or 0 if there is none.
func (l *padLayout) Near(pos mgl64.Vec3, dist float64) int {
	if l == nil {
		return 0
	}
	for i, pad := range l.pads {
		dx, dz := pos[0]-pad[0], pos[2]-pad[2]
		if dx*dx+dz*dz <= dist*dist && math.Abs(pos[1]-pad[1]) <= 3 {
			return i + 1
		}
	}
	return 0
}
