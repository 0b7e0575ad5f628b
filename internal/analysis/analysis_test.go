package analysis

import (
	"math"
	"testing"

	"github.com/san-kum/netspec/internal/integrators"
	"github.com/san-kum/netspec/internal/metrics"
	"github.com/san-kum/netspec/internal/network"
	"github.com/san-kum/netspec/internal/physics"
	"github.com/san-kum/netspec/internal/sweep"
)

func series(energies ...float64) []sweep.Sample {
	out := make([]sweep.Sample, len(energies))
	for i, e := range energies {
		out[i] = sweep.Sample{Frequency: float64(i) * 0.5, Energy: e}
	}
	return out
}

func TestResonances(t *testing.T) {
	s := series(1, 3, 2, 2, 6, 1, 4)

	peaks := Resonances(s, 2)
	if len(peaks) != 2 {
		t.Fatalf("got %d peaks, want 2", len(peaks))
	}
	if peaks[0].Frequency != 2.0 || peaks[1].Frequency != 3.0 {
		t.Errorf("peaks at %v and %v, want 2.0 and 3.0", peaks[0].Frequency, peaks[1].Frequency)
	}

	if got := Resonances(s, 10); len(got) != 3 {
		t.Errorf("got %d peaks, want 3", len(got))
	}
	if got := Resonances(series(5), 1); len(got) != 0 {
		t.Errorf("single sample should have no peaks, got %v", got)
	}
}

func TestHalfPowerWidth(t *testing.T) {
	s := series(0, 2, 4, 2, 0)

	width, q := HalfPowerWidth(s, 2)
	if math.Abs(width-1.0) > 1e-12 {
		t.Errorf("width = %v, want 1", width)
	}
	if math.Abs(q-1.0) > 1e-12 {
		t.Errorf("Q = %v, want 1", q)
	}

	if w, _ := HalfPowerWidth(series(4, 3, 0), 0); w != 0 {
		t.Errorf("band off the edge: width = %v, want 0", w)
	}
}

func TestFFTPadsToPowerOfTwo(t *testing.T) {
	out := FFT([]float64{1, 1, 1})
	if len(out) != 4 {
		t.Fatalf("len = %d, want 4", len(out))
	}
	if math.Abs(real(out[0])-3) > 1e-12 {
		t.Errorf("DC = %v, want 3", out[0])
	}
}

func TestRingdownSingleSpring(t *testing.T) {
	// Two equal masses: the vertical mode of the spring oscillates at
	// sqrt(2k/m) / 2pi when it starts vertical.
	net, err := network.New("pair", []network.Node{
		{ID: 0, Mass: 1, X: 0, Y: 0},
		{ID: 1, Mass: 1, X: 0, Y: 1},
	}, []network.Edge{{ID: 0, From: 0, To: 1, SpringConst: 8, RestLength: 1}})
	if err != nil {
		t.Fatal(err)
	}

	dt := 0.01
	drift := metrics.NewEnergyDrift(physics.NewForceModel(net, physics.Params{}))
	modes, err := Ringdown(net, integrators.NewRK4(), dt, 4096, 1, drift)
	if err != nil {
		t.Fatal(err)
	}
	if drift.Value() > 1e-4 {
		t.Errorf("undamped ringdown drifted by %v", drift.Value())
	}
	if len(modes) == 0 {
		t.Fatal("no modes found")
	}

	want := math.Sqrt(2*8.0/1.0) / (2 * math.Pi)
	df := 1 / (dt * 4096)
	if math.Abs(modes[0]-want) > 2*df {
		t.Errorf("dominant mode %v, want %v within %v", modes[0], want, 2*df)
	}
}
