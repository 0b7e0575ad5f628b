package dynamo

import "math"

// BlockSize is the number of state components owned by one node.
const BlockSize = 4

// Offsets of the components inside a node block.
const (
	OffX = iota
	OffY
	OffVX
	OffVY
)

type State []float64

// NewState returns a zeroed state sized for n nodes.
func NewState(n int) State {
	return make(State, n*BlockSize)
}

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// Nodes reports how many node blocks the state holds.
func (s State) Nodes() int { return len(s) / BlockSize }

func (s State) Pos(i int) (x, y float64) {
	b := i * BlockSize
	return s[b+OffX], s[b+OffY]
}

func (s State) Vel(i int) (vx, vy float64) {
	b := i * BlockSize
	return s[b+OffVX], s[b+OffVY]
}

func (s State) SetPos(i int, x, y float64) {
	b := i * BlockSize
	s[b+OffX], s[b+OffY] = x, y
}

func (s State) SetVel(i int, vx, vy float64) {
	b := i * BlockSize
	s[b+OffVX], s[b+OffVY] = vx, vy
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is an ODE right-hand side over a block-laid-out state.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

type Hamiltonian interface {
	Energy(x State) float64
}

type Integrator interface {
	Step(dyn System, x State, t float64, dt float64) State
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, t, dt, tol float64) (State, float64, error)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

// Configurable exposes named physical parameters for runtime edits.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
