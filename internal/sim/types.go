package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/netspec/internal/dynamo"
	"github.com/san-kum/netspec/internal/sweep"
)

var (
	ErrNotRunning  = sweep.ErrNotRunning
	ErrRunning     = sweep.ErrRunning
	ErrUnknownNode = errors.New("sim: unknown node")
	ErrParamLocked = errors.New("sim: parameter locked while a sweep is active")
)

const (
	// Wall is the half-width of the square a dragged node is confined to.
	Wall = 6.0
	// NodeHalfWidth keeps a dragged node's body inside the walls.
	NodeHalfWidth = 0.25

	wallInset = 1e-4
)

type Config struct {
	Dt        float64 `yaml:"dt"`
	RealTime  bool    `yaml:"realtime"`
	Adaptive  bool    `yaml:"adaptive"`
	Tolerance float64 `yaml:"tolerance"`
	MinDt     float64 `yaml:"min_dt"`
	MaxDt     float64 `yaml:"max_dt"`
}

func DefaultConfig() Config {
	return Config{
		Dt:        0.05,
		Tolerance: 1e-6,
		MinDt:     1e-5,
		MaxDt:     0.1,
	}
}

func (c Config) validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Adaptive {
		if c.Tolerance <= 0 {
			return fmt.Errorf("tolerance must be positive for adaptive stepping")
		}
		if c.MinDt <= 0 || c.MaxDt < c.MinDt {
			return fmt.Errorf("adaptive step bounds [%g, %g] are invalid", c.MinDt, c.MaxDt)
		}
	}
	return nil
}

// Exporter receives the dataset of every finished sweep.
type Exporter interface {
	Export(ctx context.Context, ds *sweep.Dataset) error
}

// Snapshot is a consistent copy of the simulator taken between ticks.
type Snapshot struct {
	Time          float64
	Step          int
	Phase         sweep.Phase
	Frequency     float64
	Pass          int
	Passes        int
	Progress      float64
	MeanMaxEnergy float64
	State         dynamo.State
	Current       []sweep.Sample
	Metrics       map[string]float64
}

type Observer interface {
	OnTick(s Snapshot)
}

type ObserverFunc func(Snapshot)

func (f ObserverFunc) OnTick(s Snapshot) { f(s) }
