// Package analysis inspects sweep results and free network motion.
//
//   - [Resonances]: the strongest local maxima of an energy spectrum
//   - [HalfPowerWidth]: bandwidth of a resonance and its quality factor
//   - [Ringdown]: dominant frequencies of an undriven, undamped network
//
// A resonance found by a sweep should sit close to one of the ringdown
// frequencies of the same network:
//
//	peaks := analysis.Resonances(ds.Average, 3)
//	modes, _ := analysis.Ringdown(net, integrators.NewRK4(), 0.01, 4096, 0)
package analysis
