package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/netspec/internal/sim"
	"github.com/san-kum/netspec/internal/sweep"
)

const (
	DefaultChain      = 6
	DefaultIntegrator = "rk4"
	DefaultOutputDir  = "runs"
	DefaultDt         = 0.05
)

type Config struct {
	Network    NetworkConfig `yaml:"network"`
	Layout     LayoutConfig  `yaml:"layout"`
	Integrator string        `yaml:"integrator"`
	Sim        sim.Config    `yaml:"sim"`
	Sweep      sweep.Params  `yaml:"sweep"`
	Output     OutputConfig  `yaml:"output"`
}

// NetworkConfig describes the network either as a generated chain, as
// inline nodes and edges, or as a separate description file holding a
// NetworkConfig of its own.
type NetworkConfig struct {
	Name  string     `yaml:"name,omitempty"`
	Chain int        `yaml:"chain,omitempty"`
	File  string     `yaml:"file,omitempty"`
	Nodes []NodeSpec `yaml:"nodes,omitempty"`
	Edges []EdgeSpec `yaml:"edges,omitempty"`
}

type NodeSpec struct {
	ID       int     `yaml:"id"`
	Label    string  `yaml:"label,omitempty"`
	Mass     float64 `yaml:"mass"`
	Positive bool    `yaml:"positive"`
	X        float64 `yaml:"x,omitempty"`
	Y        float64 `yaml:"y,omitempty"`
}

type EdgeSpec struct {
	ID          int     `yaml:"id"`
	From        int     `yaml:"from"`
	To          int     `yaml:"to"`
	SpringConst float64 `yaml:"k"`
	RestLength  float64 `yaml:"rest"`
	Weight      float64 `yaml:"weight,omitempty"`
}

type LayoutConfig struct {
	// Radius of the initial ring. Zero keeps explicit positions, or the
	// default ring when none are given.
	Radius float64 `yaml:"radius,omitempty"`
	Jitter float64 `yaml:"jitter,omitempty"`
	Seed   int64   `yaml:"seed,omitempty"`
}

type OutputConfig struct {
	Dir         string  `yaml:"dir"`
	Chart       bool    `yaml:"chart"`
	ChartWidth  float64 `yaml:"chart_width,omitempty"`
	ChartHeight float64 `yaml:"chart_height,omitempty"`
	ChartDPI    int     `yaml:"chart_dpi,omitempty"`
}

func DefaultConfig() *Config {
	simCfg := sim.DefaultConfig()
	simCfg.Dt = DefaultDt
	return &Config{
		Network:    NetworkConfig{Chain: DefaultChain},
		Integrator: DefaultIntegrator,
		Sim:        simCfg,
		Sweep:      sweep.DefaultParams(),
		Output:     OutputConfig{Dir: DefaultOutputDir, Chart: true},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadNetwork reads a standalone network description.
func LoadNetwork(path string) (*NetworkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var nc NetworkConfig
	if err := yaml.Unmarshal(data, &nc); err != nil {
		return nil, err
	}
	return &nc, nil
}
