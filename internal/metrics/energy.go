package metrics

import (
	"math"

	"github.com/san-kum/netspec/internal/dynamo"
)

// EnergyDrift is the largest relative deviation of the network's total
// energy, kinetic plus spring potential, from the first observed state.
// It is only meaningful for an undamped, undriven run such as a free
// ringdown, where any drift is integration error.
type EnergyDrift struct {
	name    string
	model   dynamo.Hamiltonian
	initial float64
	current float64
	drift   float64
	seen    bool
}

// NewEnergyDrift reports zero for a system without an energy function.
func NewEnergyDrift(dyn dynamo.System) *EnergyDrift {
	h, _ := dyn.(dynamo.Hamiltonian)
	return &EnergyDrift{name: "energy_drift", model: h}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(x dynamo.State, t float64) {
	if e.model == nil {
		return
	}
	e.current = e.model.Energy(x)
	if !e.seen {
		e.initial, e.seen = e.current, true
		return
	}
	if e.initial != 0 {
		e.drift = math.Max(e.drift, math.Abs(e.current-e.initial)/math.Abs(e.initial))
	}
}

func (e *EnergyDrift) Value() float64 { return e.drift }

// Current is the total energy of the last observed state.
func (e *EnergyDrift) Current() float64 { return e.current }

func (e *EnergyDrift) Reset() {
	*e = EnergyDrift{name: e.name, model: e.model}
}
