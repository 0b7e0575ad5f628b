package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/netspec/internal/config"
	"github.com/san-kum/netspec/internal/metrics"
	"github.com/san-kum/netspec/internal/network"
	"github.com/san-kum/netspec/internal/sim"
	"github.com/san-kum/netspec/internal/sweep"
)

// Experiment is a network and its simulator assembled from a config.
type Experiment struct {
	cfg       *config.Config
	net       *network.Network
	simulator *sim.Simulator
}

// BuildNetwork turns a network description into a network and applies
// the layout.
func BuildNetwork(nc config.NetworkConfig, layout config.LayoutConfig) (*network.Network, error) {
	if nc.File != "" {
		loaded, err := config.LoadNetwork(nc.File)
		if err != nil {
			return nil, fmt.Errorf("network file: %w", err)
		}
		if loaded.File != "" {
			return nil, fmt.Errorf("network file %s refers to another file", nc.File)
		}
		if loaded.Name == "" {
			loaded.Name = nc.Name
		}
		return BuildNetwork(*loaded, layout)
	}

	var (
		net *network.Network
		err error
	)
	switch {
	case len(nc.Nodes) > 0:
		nodes := make([]network.Node, len(nc.Nodes))
		for i, n := range nc.Nodes {
			nodes[i] = network.Node{ID: n.ID, Label: n.Label, Mass: n.Mass, Positive: n.Positive, X: n.X, Y: n.Y}
		}
		edges := make([]network.Edge, len(nc.Edges))
		for i, e := range nc.Edges {
			edges[i] = network.Edge{ID: e.ID, From: e.From, To: e.To, SpringConst: e.SpringConst, RestLength: e.RestLength, Weight: e.Weight}
		}
		name := nc.Name
		if name == "" {
			name = fmt.Sprintf("network-%d", len(nodes))
		}
		net, err = network.New(name, nodes, edges)
	case nc.Chain > 0:
		net, err = network.Chain(nc.Chain)
	default:
		return nil, fmt.Errorf("network: no chain length, nodes or file given")
	}
	if err != nil {
		return nil, err
	}

	if nc.Name != "" {
		net.Name = nc.Name
	}
	if layout.Radius > 0 {
		net.Ring(layout.Radius)
	}
	net.Jitter(layout.Seed, layout.Jitter)
	return net, nil
}

// New builds the network and simulator described by cfg. Options are
// passed to the simulator after the defaults.
func New(cfg *config.Config, opts ...sim.Option) (*Experiment, error) {
	net, err := BuildNetwork(cfg.Network, cfg.Layout)
	if err != nil {
		return nil, err
	}

	integ, err := NewRegistry().GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	defaults := []sim.Option{sim.WithMetric(metrics.NewContainment(sim.Wall))}
	s, err := sim.New(net, integ, cfg.Sim, append(defaults, opts...)...)
	if err != nil {
		return nil, err
	}

	return &Experiment{cfg: cfg, net: net, simulator: s}, nil
}

func (e *Experiment) Network() *network.Network { return e.net }

// GetSimulator returns the underlying simulator for commands and observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

func (e *Experiment) Params() sweep.Params { return e.cfg.Sweep }

// Validate checks the sweep parameters without starting anything.
func (e *Experiment) Validate() sweep.Validation { return e.cfg.Sweep.Validate() }

func (e *Experiment) Run(ctx context.Context) (*sweep.Dataset, error) {
	return e.simulator.RunSweep(ctx, e.cfg.Sweep)
}
