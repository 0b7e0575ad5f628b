package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/netspec/internal/sim"
	"github.com/san-kum/netspec/internal/sweep"
)

func simConfig(dt float64, realtime bool) sim.Config {
	c := sim.DefaultConfig()
	c.Dt = dt
	c.RealTime = realtime
	return c
}

func params(step, limit float64, passes int, window, damping, multiplier float64) sweep.Params {
	p := sweep.DefaultParams()
	p.FrequencyStep = step
	p.FrequencyLimit = limit
	p.Passes = passes
	p.Window = window
	p.Damping = damping
	p.TimeMultiplier = multiplier
	return p
}

func hexagon() NetworkConfig {
	nc := NetworkConfig{Name: "hexagon"}
	for i := 0; i < 6; i++ {
		nc.Nodes = append(nc.Nodes, NodeSpec{ID: i, Mass: 10, Positive: i%2 == 0})
		nc.Edges = append(nc.Edges, EdgeSpec{ID: i, From: i, To: (i + 1) % 6, SpringConst: 12, RestLength: 2, Weight: 0.5})
	}
	return nc
}

var Presets = map[string]map[string]*Config{
	"chain": {
		"e2e": {
			Network: NetworkConfig{Chain: 6}, Integrator: "rk4",
			Sim:    simConfig(0.05, false),
			Sweep:  params(0.0125, 2.0, 3, 10, 20, 1),
			Output: OutputConfig{Dir: DefaultOutputDir, Chart: true},
		},
		"quick": {
			Network: NetworkConfig{Chain: 6}, Integrator: "rk4",
			Sim:    simConfig(0.05, false),
			Sweep:  params(0.5, 2.0, 2, 4, 20, 1),
			Output: OutputConfig{Dir: DefaultOutputDir},
		},
		"realtime": {
			Network: NetworkConfig{Chain: 4}, Integrator: "rk4",
			Sim:    simConfig(0.02, true),
			Sweep:  params(0.25, 2.0, 1, 4, 15, 8),
			Output: OutputConfig{Dir: DefaultOutputDir},
		},
	},
	"ring": {
		"hexagon": {
			Network: hexagon(), Integrator: "rk4",
			Layout: LayoutConfig{Radius: 3},
			Sim:    simConfig(0.05, false),
			Sweep:  params(0.05, 2.0, 2, 6, 12, 1),
			Output: OutputConfig{Dir: DefaultOutputDir, Chart: true},
		},
		"jittered": {
			Network: hexagon(), Integrator: "rk45",
			Layout: LayoutConfig{Radius: 3, Jitter: 0.3, Seed: 7},
			Sim:    simConfig(0.05, false),
			Sweep:  params(0.1, 2.0, 2, 6, 12, 1),
			Output: OutputConfig{Dir: DefaultOutputDir},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(family, preset string) *Config {
	familyPresets, ok := Presets[family]
	if !ok {
		return nil
	}
	cfg, ok := familyPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

// ParsePreset resolves a "family/name" reference to a copy of the preset.
func ParsePreset(ref string) (*Config, error) {
	family, name, ok := strings.Cut(ref, "/")
	if !ok {
		return nil, fmt.Errorf("preset %q: want family/name", ref)
	}
	cfg := GetPreset(family, name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", ref, ListPresets(family))
	}
	return cfg, nil
}

func ListPresets(family string) []string {
	familyPresets, ok := Presets[family]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(familyPresets))
	for name := range familyPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListFamilies() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
