package automation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/netspec/internal/config"
	"github.com/san-kum/netspec/internal/experiment"
	"github.com/san-kum/netspec/internal/sim"
	"github.com/san-kum/netspec/internal/sweep"
)

// Scenario is a scripted sequence of sweeps.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single sweep. The configuration is taken from Preset
// ("family/name") or Config, relative to the scenario file, and Sweep
// overrides individual sweep parameters on top of it.
type ScenarioStep struct {
	Name       string             `yaml:"name"`
	Preset     string             `yaml:"preset,omitempty"`
	Config     string             `yaml:"config,omitempty"`
	Integrator string             `yaml:"integrator,omitempty"`
	Dt         float64            `yaml:"dt,omitempty"`
	Sweep      map[string]float64 `yaml:"sweep,omitempty"`
}

// Saver persists a finished sweep and returns its run id.
type Saver interface {
	Save(ds *sweep.Dataset) (string, error)
}

// Result is the outcome of one step.
type Result struct {
	Step    string
	RunID   string
	Dataset *sweep.Dataset
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}

	dir := filepath.Dir(path)
	for i := range scenario.Steps {
		if c := scenario.Steps[i].Config; c != "" && !filepath.IsAbs(c) {
			scenario.Steps[i].Config = filepath.Join(dir, c)
		}
	}
	return &scenario, nil
}

// Resolve builds the full configuration of a step.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	switch {
	case s.Config != "":
		loaded, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case s.Preset != "":
		p, err := config.ParsePreset(s.Preset)
		if err != nil {
			return nil, err
		}
		cfg = p
	}

	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Dt > 0 {
		cfg.Sim.Dt = s.Dt
	}
	for k, v := range s.Sweep {
		if err := cfg.Sweep.Set(k, v); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// RunScenario executes all steps in order, saving each finished sweep. It
// stops at the first failing step and returns the results so far.
func RunScenario(ctx context.Context, scenario *Scenario, saver Saver, logger *slog.Logger) ([]Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	results := make([]Result, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step-%d", i+1)
		}
		log := logger.With("scenario", scenario.Name, "step", name)

		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		if err := cfg.Sweep.Validate().Err(); err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp, err := experiment.New(cfg, sim.WithLogger(log))
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		log.Info("running step", "index", i+1, "of", len(scenario.Steps), "network", exp.Network().Name)
		ds, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		if ds == nil {
			return results, fmt.Errorf("step %d: sweep stopped", i+1)
		}

		res := Result{Step: name, Dataset: ds}
		if saver != nil {
			if res.RunID, err = saver.Save(ds); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, res)
	}

	return results, nil
}
