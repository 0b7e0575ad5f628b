package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/netspec/internal/dynamo"
)

const (
	// Wavelength is the fixed spatial wavelength of the driving wave.
	Wavelength = 0.25

	// MinSpringLength is the floor applied to spring lengths before the
	// force law divides by them. Coincident nodes get no spring force.
	MinSpringLength = 1e-9

	// DefaultSettleDamping is the damping used while a network relaxes.
	DefaultSettleDamping = 20.0
)

var ErrParameterBounds = errors.New("physics: parameter out of valid bounds")

// Params is the physical parameter surface of the force model.
type Params struct {
	Gravity   float64
	Damping   float64
	Amplitude float64
	Frequency float64
	// Driving enables the sinusoidal driving term.
	Driving bool
}

type spring struct {
	from, to int
	k, rest  float64
}

// ForceModel evaluates the time derivative of a spring network's state.
// Springs are visited from both endpoints, so each spring contributes to
// both incident nodes independently.
type ForceModel struct {
	params   Params
	mass     []float64
	sign     []float64
	springs  []spring
	incident [][]int
}

func NewForceModel(g dynamo.Graph, p Params) *ForceModel {
	n := g.NumNodes()
	f := &ForceModel{
		params:   p,
		mass:     make([]float64, n),
		sign:     make([]float64, n),
		springs:  make([]spring, g.NumEdges()),
		incident: make([][]int, n),
	}

	for i := 0; i < n; i++ {
		b := g.Body(i)
		f.mass[i] = b.BodyMass()
		f.sign[i] = b.ChargeSign()
	}

	for k := range f.springs {
		s := g.Spring(k)
		from, to := s.Ends()
		f.springs[k] = spring{from: from, to: to, k: s.Stiffness(), rest: s.Rest()}
		f.incident[from] = append(f.incident[from], k)
		f.incident[to] = append(f.incident[to], k)
	}

	return f
}

func (f *ForceModel) StateDim() int { return len(f.mass) * dynamo.BlockSize }

func (f *ForceModel) Params() Params     { return f.params }
func (f *ForceModel) SetParams(p Params) { f.params = p }

// SetDriving toggles the driving term without touching the other parameters.
func (f *ForceModel) SetDriving(on bool) { f.params.Driving = on }

func (f *ForceModel) Derive(x dynamo.State, t float64) dynamo.State {
	dx := make(dynamo.State, len(x))
	for i := range dx {
		dx[i] = f.Component(x, t, i)
	}
	return dx
}

// Component returns the derivative of state component i: the velocity for
// a position slot, the net acceleration for a velocity slot.
func (f *ForceModel) Component(x dynamo.State, t float64, i int) float64 {
	node, off := i/dynamo.BlockSize, i%dynamo.BlockSize
	switch off {
	case dynamo.OffX, dynamo.OffY:
		return x[i+2]
	}

	m := f.mass[node]
	px, py := x.Pos(node)

	r := 0.0
	for _, k := range f.incident[node] {
		s := f.springs[k]
		other := s.to
		if other == node {
			other = s.from
		}
		ox, oy := x.Pos(other)
		dx, dy := ox-px, oy-py
		length := math.Max(math.Hypot(dx, dy), MinSpringLength)

		// Fx = (k/m)*(len - R)*dx/len, Fy = (k/m)*(len - R)*dy/len - g
		g := (s.k / m) * (length - s.rest) / length
		if off == dynamo.OffVX {
			r += g * dx
		} else {
			r += g*dy - f.params.Gravity
		}
	}

	if f.params.Damping != 0 {
		r -= (f.params.Damping / m) * x[i]
	}

	if off == dynamo.OffVY && f.params.Driving && f.params.Amplitude > 0 {
		r += f.sign[node] * f.DrivingForce(px, t)
	}

	return r
}

// DrivingForce is A*sin(k*x - w*t) with k = 2*pi/Wavelength and
// w = 2*pi*frequency.
func (f *ForceModel) DrivingForce(x, t float64) float64 {
	k := 2 * math.Pi / Wavelength
	w := 2 * math.Pi * f.params.Frequency
	return f.params.Amplitude * math.Sin(k*x-w*t)
}

// SpringForce returns the force spring k exerts on the given endpoint,
// before mass normalization.
func (f *ForceModel) SpringForce(x dynamo.State, k, node int) (fx, fy float64) {
	s := f.springs[k]
	other := s.to
	if other == node {
		other = s.from
	} else if node != s.from {
		return 0, 0
	}
	px, py := x.Pos(node)
	ox, oy := x.Pos(other)
	dx, dy := ox-px, oy-py
	length := math.Max(math.Hypot(dx, dy), MinSpringLength)
	g := s.k * (length - s.rest) / length
	return g * dx, g * dy
}

// Energy is the conservative mechanical energy: kinetic, spring potential
// and the gravity potential implied by the per-spring gravity term.
func (f *ForceModel) Energy(x dynamo.State) float64 {
	e := 0.0
	for i, m := range f.mass {
		vx, vy := x.Vel(i)
		e += 0.5 * m * (vx*vx + vy*vy)
		_, y := x.Pos(i)
		e += m * f.params.Gravity * float64(len(f.incident[i])) * y
	}
	for _, s := range f.springs {
		e += PotentialEnergy(s.k, s.rest, Length(x, s.from, s.to))
	}
	return e
}

func (f *ForceModel) GetParams() map[string]float64 {
	return map[string]float64{
		"damping":   f.params.Damping,
		"gravity":   f.params.Gravity,
		"amplitude": f.params.Amplitude,
		"frequency": f.params.Frequency,
	}
}

func (f *ForceModel) SetParam(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%s=%v: %w", name, value, ErrParameterBounds)
	}
	switch name {
	case "damping":
		if value < 0 {
			return fmt.Errorf("damping=%v: %w", value, ErrParameterBounds)
		}
		f.params.Damping = value
	case "gravity":
		f.params.Gravity = value
	case "amplitude":
		if value < 0 {
			return fmt.Errorf("amplitude=%v: %w", value, ErrParameterBounds)
		}
		f.params.Amplitude = value
	case "frequency":
		if value < 0 {
			return fmt.Errorf("frequency=%v: %w", value, ErrParameterBounds)
		}
		f.params.Frequency = value
	default:
		return fmt.Errorf("physics: unknown parameter %q", name)
	}
	return nil
}
