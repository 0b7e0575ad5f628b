package optim

import (
	"math"

	"github.com/san-kum/netspec/internal/analysis"
	"github.com/san-kum/netspec/internal/sweep"
)

// PeakEnergy scores a sweep by its strongest averaged resonance.
func PeakEnergy(ds *sweep.Dataset) float64 {
	peaks := analysis.Resonances(ds.Average, 1)
	if len(peaks) == 0 {
		return math.Inf(-1)
	}
	return peaks[0].Energy
}

// PeakQ scores a sweep by the quality factor of its strongest averaged
// resonance. Peaks whose half-power band is not resolved score -Inf.
func PeakQ(ds *sweep.Dataset) float64 {
	peaks := analysis.Resonances(ds.Average, 1)
	if len(peaks) == 0 {
		return math.Inf(-1)
	}
	for i, s := range ds.Average {
		if s == peaks[0] {
			if _, q := analysis.HalfPowerWidth(ds.Average, i); q > 0 {
				return q
			}
			break
		}
	}
	return math.Inf(-1)
}

// Scores maps score names accepted on the command line to functions.
var Scores = map[string]ScoreFunc{
	"energy": PeakEnergy,
	"q":      PeakQ,
}
