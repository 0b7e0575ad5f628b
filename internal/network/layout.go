package network

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// DefaultRadius is the ring radius used when a description carries no positions.
const DefaultRadius = 4.0

// Ring places node i at angle 2*pi*i/N on a circle of the given radius
// and updates the reference to match.
func (n *Network) Ring(radius float64) {
	step := 2 * math.Pi / float64(len(n.nodes))
	for i := range n.nodes {
		angle := step * float64(i)
		node := &n.nodes[i]
		node.X = radius * math.Cos(angle)
		node.Y = radius * math.Sin(angle)
		node.VX, node.VY = 0, 0
	}
	n.RecordReference()
}

// Jitter nudges every node by simplex noise of the given amplitude. The
// same seed always produces the same layout.
func (n *Network) Jitter(seed int64, amplitude float64) {
	if amplitude == 0 {
		return
	}
	noise := opensimplex.New(seed)
	for i := range n.nodes {
		f := float64(i) * 0.7
		node := &n.nodes[i]
		node.X += amplitude * noise.Eval2(f, 0)
		node.Y += amplitude * noise.Eval2(0, f)
	}
	n.RecordReference()
}
