package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/netspec/internal/dynamo"
	"github.com/san-kum/netspec/internal/network"
	"github.com/san-kum/netspec/internal/physics"
	"github.com/san-kum/netspec/internal/sweep"
)

// Resonances returns up to n local maxima of the series, strongest first.
// An end point counts when it exceeds its single neighbour.
func Resonances(series []sweep.Sample, n int) []sweep.Sample {
	var peaks []sweep.Sample
	for i, s := range series {
		left := i == 0 || s.Energy > series[i-1].Energy
		right := i == len(series)-1 || s.Energy >= series[i+1].Energy
		if left && right && len(series) > 1 {
			peaks = append(peaks, s)
		}
	}

	sort.SliceStable(peaks, func(a, b int) bool { return peaks[a].Energy > peaks[b].Energy })
	if len(peaks) > n {
		peaks = peaks[:n]
	}
	return peaks
}

// HalfPowerWidth is the width of the band around sample i in which the
// energy stays above half of its value, interpolated linearly between
// samples. Q is the centre frequency over the width; both are zero when
// the band runs off either end of the series.
func HalfPowerWidth(series []sweep.Sample, i int) (width, q float64) {
	half := series[i].Energy / 2

	lo := -1.0
	for j := i; j > 0; j-- {
		if series[j-1].Energy < half {
			lo = cross(series[j-1], series[j], half)
			break
		}
	}
	hi := -1.0
	for j := i; j < len(series)-1; j++ {
		if series[j+1].Energy < half {
			hi = cross(series[j], series[j+1], half)
			break
		}
	}
	if lo < 0 || hi < 0 || hi <= lo {
		return 0, 0
	}

	width = hi - lo
	return width, series[i].Frequency / width
}

func cross(a, b sweep.Sample, level float64) float64 {
	t := (level - a.Energy) / (b.Energy - a.Energy)
	return a.Frequency + t*(b.Frequency-a.Frequency)
}

// Ringdown perturbs node by a unit vertical kick relative to the centre of
// mass, lets the network ring without gravity, damping or drive, and
// returns the frequencies of the strongest peaks of that node's vertical
// motion, strongest first.
func Ringdown(net *network.Network, integ dynamo.Integrator, dt float64, steps, node int, observers ...dynamo.Metric) ([]float64, error) {
	dyn := physics.NewForceModel(net, physics.Params{})
	x := net.State()
	for i := 0; i < x.Nodes(); i++ {
		x.SetVel(i, 0, 0)
	}
	x.SetVel(node, 0, 1)

	// remove the centre-of-mass drift so only internal modes remain
	total, vy := 0.0, 0.0
	for i := 0; i < net.NumNodes(); i++ {
		m := net.Body(i).BodyMass()
		_, v := x.Vel(i)
		total += m
		vy += m * v
	}
	vy /= total
	for i := 0; i < x.Nodes(); i++ {
		_, v := x.Vel(i)
		x.SetVel(i, 0, v-vy)
	}

	trace := make([]float64, steps)
	t := 0.0
	for _, m := range observers {
		m.Observe(x, t)
	}
	for k := 0; k < steps; k++ {
		x = integ.Step(dyn, x, t, dt)
		if !x.IsValid() {
			return nil, &dynamo.SimulationError{Step: k, Time: t, Wrapped: dynamo.ErrInvalidState}
		}
		_, trace[k] = x.Pos(node)
		t += dt
		for _, m := range observers {
			m.Observe(x, t)
		}
	}

	mean := floats.Sum(trace) / float64(len(trace))
	floats.AddConst(-mean, trace)

	ps := PowerSpectrum(trace)
	df := 1 / (dt * float64(2*len(ps)))

	series := make([]sweep.Sample, len(ps))
	for i, p := range ps {
		series[i] = sweep.Sample{Frequency: float64(i) * df, Energy: p}
	}

	var out []float64
	for _, p := range Resonances(series[1:], 3) {
		if p.Energy > 1e-9*floats.Max(ps) {
			out = append(out, math.Round(p.Frequency/df)*df)
		}
	}
	return out, nil
}
