package physics

import (
	"math"

	"github.com/san-kum/netspec/internal/dynamo"
)

// Length is the current distance between blocks a and b.
func Length(x dynamo.State, a, b int) float64 {
	ax, ay := x.Pos(a)
	bx, by := x.Pos(b)
	return math.Hypot(bx-ax, by-ay)
}

// PotentialEnergy is 0.5*k*stretch^2 for a spring of the given length.
func PotentialEnergy(k, rest, length float64) float64 {
	stretch := length - rest
	return 0.5 * k * stretch * stretch
}
