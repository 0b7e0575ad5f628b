package sweep

import (
	"time"

	"gonum.org/v1/gonum/floats"
)

// Sample is one (frequency, mean max spring energy) point.
type Sample struct {
	Frequency float64 `json:"frequency"`
	Energy    float64 `json:"energy"`
}

// Pass is the series recorded while the frequency rose from 0 to the limit.
type Pass struct {
	Index   int      `json:"index"`
	Samples []Sample `json:"samples"`
}

func (p Pass) Energies() []float64 {
	out := make([]float64, len(p.Samples))
	for i, s := range p.Samples {
		out[i] = s.Energy
	}
	return out
}

func (p Pass) Frequencies() []float64 {
	out := make([]float64, len(p.Samples))
	for i, s := range p.Samples {
		out[i] = s.Frequency
	}
	return out
}

type Metadata struct {
	NetworkName    string    `json:"network_name"`
	TimeMultiplier float64   `json:"time_multiplier"`
	Amplitude      float64   `json:"amplitude"`
	Passes         int       `json:"passes"`
	FrequencyLimit float64   `json:"frequency_limit"`
	Damping        float64   `json:"damping"`
	FrequencyStep  float64   `json:"frequency_step"`
	Window         float64   `json:"window"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	StartedAt      time.Time `json:"started_at"`
}

// Dataset is the result of a finished sweep.
type Dataset struct {
	Meta    Metadata `json:"meta"`
	Passes  []Pass   `json:"passes"`
	Average []Sample `json:"average"`
}

// AverageEnergies returns the energy column of the averaged series.
func (d *Dataset) AverageEnergies() []float64 {
	return Pass{Samples: d.Average}.Energies()
}

// Average combines passes sample by sample. The energy at index i is the
// mean of the i-th energies over all passes; the frequency comes from the
// first pass. Longer passes are truncated to the shortest one.
func Average(passes []Pass) []Sample {
	if len(passes) == 0 {
		return nil
	}

	n := len(passes[0].Samples)
	for _, p := range passes[1:] {
		n = min(n, len(p.Samples))
	}

	out := make([]Sample, n)
	col := make([]float64, len(passes))
	for i := 0; i < n; i++ {
		for j, p := range passes {
			col[j] = p.Samples[i].Energy
		}
		out[i] = Sample{
			Frequency: passes[0].Samples[i].Frequency,
			Energy:    floats.Sum(col) / float64(len(passes)),
		}
	}
	return out
}
