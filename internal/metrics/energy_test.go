package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/netspec/internal/dynamo"
	"github.com/san-kum/netspec/internal/network"
	"github.com/san-kum/netspec/internal/physics"
)

func twoSprings(t *testing.T) *network.Network {
	t.Helper()
	net, err := network.New("v", []network.Node{
		{ID: 1, Mass: 1, X: 0, Y: 0},
		{ID: 2, Mass: 1, X: 1, Y: 0},
		{ID: 3, Mass: 1, X: 1, Y: 1},
	}, []network.Edge{
		{ID: 10, From: 1, To: 2, SpringConst: 2, RestLength: 1},
		{ID: 11, From: 2, To: 3, SpringConst: 4, RestLength: 0.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	return net
}

func TestSpringEnergyTracksMaximum(t *testing.T) {
	net := twoSprings(t)
	m := NewSpringEnergy(net)
	x := net.State()

	m.Observe(x, 0)
	if m.Current(0) != 0 {
		t.Errorf("spring at rest length: energy = %v, want 0", m.Current(0))
	}
	// 0.5 * 4 * 0.5^2
	if math.Abs(m.Current(1)-0.5) > 1e-12 {
		t.Errorf("stretched spring: energy = %v, want 0.5", m.Current(1))
	}

	x.SetPos(2, 1, 2)
	m.Observe(x, 0.1)
	peak := m.Max(1)
	if math.Abs(peak-4.5) > 1e-12 {
		t.Errorf("max energy = %v, want 4.5", peak)
	}

	x.SetPos(2, 1, 1)
	m.Observe(x, 0.2)
	if m.Max(1) != peak {
		t.Errorf("max energy dropped to %v after relaxing", m.Max(1))
	}
	if net.Edge(1).MaxEnergy != peak {
		t.Errorf("edge MaxEnergy = %v, want %v", net.Edge(1).MaxEnergy, peak)
	}
	if math.Abs(m.Value()-peak/2) > 1e-12 {
		t.Errorf("mean max energy = %v, want %v", m.Value(), peak/2)
	}
}

func TestSpringEnergyReset(t *testing.T) {
	net := twoSprings(t)
	m := NewSpringEnergy(net)
	m.Observe(net.State(), 0)
	if m.Value() == 0 {
		t.Fatal("expected non-zero energy")
	}

	m.Reset()
	if m.Value() != 0 || net.Edge(1).MaxEnergy != 0 {
		t.Error("expected zero maxima after reset")
	}
}

func TestDisplacementBand(t *testing.T) {
	net := twoSprings(t)
	d := NewDisplacement(net)
	d.Reset()
	x := net.State()

	x.SetPos(0, 0, -2)
	d.Observe(x, 0)

	// centroid y = (-2 + 0 + 1) / 3
	cy := -1.0 / 3
	if got := net.Node(0).MaxDisp; math.Abs(got-math.Abs(-2-cy)) > 1e-12 {
		t.Errorf("node 0 MaxDisp = %v, want %v", got, math.Abs(-2-cy))
	}
	if d.Value() <= 0 {
		t.Errorf("displacement band = %v, want > 0", d.Value())
	}
}

func TestEnergyDriftConservedSystem(t *testing.T) {
	net := twoSprings(t)
	fm := physics.NewForceModel(net, physics.Params{})
	m := NewEnergyDrift(fm)
	x := net.State()

	m.Observe(x, 0)
	m.Observe(x, 1)
	if m.Value() != 0 {
		t.Errorf("drift of unchanged state = %v, want 0", m.Value())
	}

	x.SetVel(0, 1, 0)
	m.Observe(x, 2)
	if m.Value() <= 0 {
		t.Error("expected drift after injecting kinetic energy")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
	m.Observe(x, 3)
	if m.Value() != 0 || m.Current() <= 0 {
		t.Errorf("after reset: drift %v, energy %v; want a fresh baseline", m.Value(), m.Current())
	}
}

func TestContainment(t *testing.T) {
	c := NewContainment(1)
	c.Observe(dynamo.State{0.5, 0.5, 0, 0}, 0)
	c.Observe(dynamo.State{2, 0, 0, 0}, 0)

	if got := c.Value(); got != 0.5 {
		t.Errorf("containment = %v, want 0.5", got)
	}
}
