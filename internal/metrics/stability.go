package metrics

import (
	"math"

	"github.com/san-kum/netspec/internal/dynamo"
)

// Containment is the fraction of observed states in which every node lies
// inside the square of half-width bound.
type Containment struct {
	name       string
	bound      float64
	violations int
	samples    int
}

func NewContainment(bound float64) *Containment {
	return &Containment{
		name:  "containment",
		bound: bound,
	}
}

func (s *Containment) Name() string {
	return s.name
}

func (s *Containment) Observe(x dynamo.State, t float64) {
	s.samples++
	for i := 0; i < x.Nodes(); i++ {
		px, py := x.Pos(i)
		if math.Abs(px) > s.bound || math.Abs(py) > s.bound {
			s.violations++
			break
		}
	}
}

func (s *Containment) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Containment) Reset() {
	s.violations = 0
	s.samples = 0
}
