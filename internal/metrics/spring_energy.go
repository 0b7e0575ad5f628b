package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/netspec/internal/dynamo"
	"github.com/san-kum/netspec/internal/network"
	"github.com/san-kum/netspec/internal/physics"
)

// SpringEnergy tracks each spring's potential energy and its running
// maximum since the last Reset. Maxima are mirrored into Edge.MaxEnergy.
type SpringEnergy struct {
	name    string
	net     *network.Network
	current []float64
	max     []float64
}

func NewSpringEnergy(net *network.Network) *SpringEnergy {
	return &SpringEnergy{
		name:    "spring_energy",
		net:     net,
		current: make([]float64, net.NumEdges()),
		max:     make([]float64, net.NumEdges()),
	}
}

func (s *SpringEnergy) Name() string { return s.name }

func (s *SpringEnergy) Observe(x dynamo.State, t float64) {
	for k := range s.current {
		sp := s.net.Spring(k)
		from, to := sp.Ends()
		e := physics.PotentialEnergy(sp.Stiffness(), sp.Rest(), physics.Length(x, from, to))
		s.current[k] = e
		if e > s.max[k] {
			s.max[k] = e
		}
		s.net.Edge(k).MaxEnergy = s.max[k]
	}
}

// Value is the mean of the per-spring maxima.
func (s *SpringEnergy) Value() float64 {
	if len(s.max) == 0 {
		return 0
	}
	return floats.Sum(s.max) / float64(len(s.max))
}

// Peak is the largest maximum over all springs.
func (s *SpringEnergy) Peak() float64 {
	if len(s.max) == 0 {
		return 0
	}
	return floats.Max(s.max)
}

func (s *SpringEnergy) Current(k int) float64 { return s.current[k] }
func (s *SpringEnergy) Max(k int) float64     { return s.max[k] }

// Total is the instantaneous potential energy stored in all springs.
func (s *SpringEnergy) Total() float64 { return floats.Sum(s.current) }

func (s *SpringEnergy) Reset() {
	for k := range s.max {
		s.max[k] = 0
	}
	s.net.ResetMaxEnergy()
}

// Displacement records each node's running min/max vertical distance from
// the network centroid into Node.MinDisp and Node.MaxDisp.
type Displacement struct {
	name string
	net  *network.Network
}

func NewDisplacement(net *network.Network) *Displacement {
	return &Displacement{name: "displacement", net: net}
}

func (d *Displacement) Name() string { return d.name }

func (d *Displacement) Observe(x dynamo.State, t float64) {
	cy := 0.0
	n := x.Nodes()
	for i := 0; i < n; i++ {
		_, y := x.Pos(i)
		cy += y
	}
	cy /= float64(n)

	for i := 0; i < n; i++ {
		_, y := x.Pos(i)
		rel := math.Abs(y - cy)
		node := d.net.Node(i)
		node.MinDisp = math.Min(node.MinDisp, rel)
		node.MaxDisp = math.Max(node.MaxDisp, rel)
	}
}

// Value is the widest displacement band over all nodes.
func (d *Displacement) Value() float64 {
	widest := 0.0
	for i := 0; i < d.net.NumNodes(); i++ {
		node := d.net.Node(i)
		widest = math.Max(widest, node.MaxDisp-node.MinDisp)
	}
	return widest
}

func (d *Displacement) Reset() { d.net.ResetDisplacement() }
