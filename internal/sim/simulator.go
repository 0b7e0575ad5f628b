package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/san-kum/netspec/internal/dynamo"
	"github.com/san-kum/netspec/internal/metrics"
	"github.com/san-kum/netspec/internal/network"
	"github.com/san-kum/netspec/internal/physics"
	"github.com/san-kum/netspec/internal/sweep"
)

// Simulator owns the state vector of one network and drives it tick by
// tick. Commands are applied under the same lock as ticks, so they always
// land between two complete steps.
type Simulator struct {
	mu sync.Mutex

	net        *network.Network
	dyn        *physics.ForceModel
	integrator dynamo.Integrator
	hold       *holdSystem
	energy     *metrics.SpringEnergy
	disp       *metrics.Displacement
	metrics    []dynamo.Metric
	ctrl       *sweep.Controller
	cfg        Config

	x        dynamo.State
	t        float64
	dt       float64
	step     int
	unlocked bool

	logger    *slog.Logger
	exporter  Exporter
	observers []Observer
	exportErr error
}

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

func WithExporter(e Exporter) Option {
	return func(s *Simulator) { s.exporter = e }
}

func WithObserver(o Observer) Option {
	return func(s *Simulator) { s.observers = append(s.observers, o) }
}

// WithMetric adds a metric observed after every tick and reported in
// snapshots.
func WithMetric(m dynamo.Metric) Option {
	return func(s *Simulator) { s.metrics = append(s.metrics, m) }
}

func New(net *network.Network, integ dynamo.Integrator, cfg Config, opts ...Option) (*Simulator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	dyn := physics.NewForceModel(net, physics.Params{Damping: physics.DefaultSettleDamping})
	s := &Simulator{
		net:        net,
		dyn:        dyn,
		integrator: integ,
		hold:       newHoldSystem(dyn, net.NumNodes()),
		energy:     metrics.NewSpringEnergy(net),
		disp:       metrics.NewDisplacement(net),
		cfg:        cfg,
		x:          net.State(),
		dt:         cfg.Dt,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctrl = sweep.NewController((*plant)(s), sweep.WithLogger(s.logger))
	return s, nil
}

func (s *Simulator) Network() *network.Network { return s.net }

// Start validates p and begins a sweep.
func (s *Simulator) Start(p sweep.Params) (sweep.Validation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.ctrl.Start(p)
	if err != nil {
		return v, err
	}
	s.unlocked = false
	s.logger.Info("sweep started",
		"network", s.net.Name,
		"passes", p.Passes,
		"limit", p.FrequencyLimit,
		"step", p.FrequencyStep,
		"samples_per_pass", p.SamplesPerPass())
	return v, nil
}

// Stop abandons the active sweep, releases every dragged node and returns
// the network to its settled reference.
func (s *Simulator) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop()
}

func (s *Simulator) stop() error {
	s.hold.releaseAll()
	return s.ctrl.Stop()
}

// DragTo places a node at (x, y), clamped to the walls, and holds it there
// at rest until Release.
func (s *Simulator) DragTo(id int, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.net.Index(id)
	if !ok {
		return fmt.Errorf("drag node %d: %w", id, ErrUnknownNode)
	}
	s.hold.hold(i, clampToWalls(x), clampToWalls(y))
	s.hold.pin(s.x)
	s.net.Sync(s.x)
	return nil
}

func (s *Simulator) Release(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.net.Index(id)
	if !ok {
		return fmt.Errorf("release node %d: %w", id, ErrUnknownNode)
	}
	s.hold.release(i)
	return nil
}

// Unlock allows damping, gravity and amplitude to be changed during the
// active sweep. The lock is restored by the next Start.
func (s *Simulator) Unlock() {
	s.mu.Lock()
	s.unlocked = true
	s.mu.Unlock()
}

// SetParam changes a force parameter. Parameters are locked while a sweep
// is active unless Unlock was called; the frequency always belongs to the
// sweep while one runs. An unlocked change also becomes part of the
// sweep's parameters, so it holds for the remaining windows.
func (s *Simulator) SetParam(name string, v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ctrl.Phase().Active() {
		return s.dyn.SetParam(name, v)
	}
	if !s.unlocked || name == "frequency" {
		return fmt.Errorf("set %s: %w", name, ErrParamLocked)
	}
	if err := s.dyn.SetParam(name, v); err != nil {
		return err
	}
	return s.ctrl.Set(name, v)
}

func (s *Simulator) GetParams() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dyn.GetParams()
}

// LastExportError is the error of the most recent failed export, cleared
// by the next successful one.
func (s *Simulator) LastExportError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exportErr
}

func (s *Simulator) Phase() sweep.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Phase()
}

func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Simulator) snapshot() Snapshot {
	snap := Snapshot{
		Time:          s.t,
		Step:          s.step,
		Phase:         s.ctrl.Phase(),
		Frequency:     s.ctrl.Frequency(),
		Pass:          s.ctrl.Pass(),
		Passes:        s.ctrl.Params().Passes,
		Progress:      s.ctrl.Progress(),
		MeanMaxEnergy: s.energy.Value(),
		State:         s.x.Clone(),
		Current:       s.ctrl.Current(),
		Metrics:       make(map[string]float64, len(s.metrics)+2),
	}
	snap.Metrics[s.energy.Name()] = s.energy.Value()
	snap.Metrics[s.disp.Name()] = s.disp.Value()
	for _, m := range s.metrics {
		snap.Metrics[m.Name()] = m.Value()
	}
	return snap
}

// Tick performs one integration step, one energy update and one
// controller check, in that order. A tick that produces a non-finite
// state is discarded. The dataset of a sweep finished by this tick is
// exported and returned.
func (s *Simulator) Tick(ctx context.Context) (*sweep.Dataset, error) {
	s.mu.Lock()
	ds, err := s.tick()
	var snap Snapshot
	if err == nil && len(s.observers) > 0 {
		snap = s.snapshot()
	}
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	for _, o := range s.observers {
		o.OnTick(snap)
	}
	if ds != nil {
		s.export(ctx, ds)
	}
	return ds, nil
}

func (s *Simulator) tick() (*sweep.Dataset, error) {
	h := s.dt
	var next dynamo.State

	if s.cfg.Adaptive {
		var err error
		next, h, err = s.adaptiveStep(s.x, s.t, s.dt)
		if err != nil {
			return nil, &dynamo.SimulationError{Step: s.step, Time: s.t, Wrapped: err}
		}
	} else {
		next = s.integrator.Step(s.hold, s.x, s.t, h)
	}

	if !next.IsValid() {
		return nil, &dynamo.SimulationError{Step: s.step, Time: s.t, Wrapped: dynamo.ErrInvalidState}
	}
	s.hold.pin(next)

	s.x = next
	s.t += h
	s.step++
	s.net.Sync(s.x)

	s.energy.Observe(s.x, s.t)
	s.disp.Observe(s.x, s.t)
	for _, m := range s.metrics {
		m.Observe(s.x, s.t)
	}

	return s.ctrl.Advance(h), nil
}

// adaptiveStep returns the new state and the step actually taken, and
// leaves the suggested next step in s.dt.
func (s *Simulator) adaptiveStep(x dynamo.State, t, dt float64) (dynamo.State, float64, error) {
	if adaptive, ok := s.integrator.(dynamo.AdaptiveIntegrator); ok {
		next, dtNew, err := adaptive.StepAdaptive(s.hold, x, t, dt, s.cfg.Tolerance)
		if err != nil {
			s.dt = math.Max(dtNew, s.cfg.MinDt)
			return nil, 0, err
		}
		s.dt = math.Max(s.cfg.MinDt, math.Min(dtNew, s.cfg.MaxDt))
		return next, dt, nil
	}

	x1 := s.integrator.Step(s.hold, x, t, dt)
	xHalf := s.integrator.Step(s.hold, x, t, dt/2)
	x2 := s.integrator.Step(s.hold, xHalf, t+dt/2, dt/2)

	err := x1.Sub(x2).Norm()

	if err > s.cfg.Tolerance && dt/2 >= s.cfg.MinDt {
		return s.adaptiveStep(x, t, dt/2)
	}

	s.dt = dt
	if err < s.cfg.Tolerance/10 && dt < s.cfg.MaxDt {
		s.dt = math.Min(dt*2, s.cfg.MaxDt)
	}

	return x2, dt, nil
}

func (s *Simulator) export(ctx context.Context, ds *sweep.Dataset) {
	s.logger.Info("sweep finished",
		"network", ds.Meta.NetworkName,
		"passes", len(ds.Passes),
		"samples", len(ds.Average),
		"elapsed", ds.Meta.ElapsedSeconds)

	if s.exporter == nil {
		return
	}
	err := s.exporter.Export(ctx, ds)
	if err != nil {
		s.logger.Error("export failed", "err", err)
	}

	s.mu.Lock()
	s.exportErr = err
	s.mu.Unlock()
}

// interval is the wall-clock period of one tick in real-time mode.
func (s *Simulator) interval() time.Duration {
	m := s.ctrl.Params().TimeMultiplier
	if m < sweep.MinTimeMultiplier {
		m = sweep.MinTimeMultiplier
	}
	return time.Duration(s.cfg.Dt / m * float64(time.Second))
}

// pacer returns the tick channel for real-time mode, or nil in batch mode.
func (s *Simulator) pacer() (<-chan time.Time, func()) {
	if !s.cfg.RealTime {
		return nil, func() {}
	}
	s.mu.Lock()
	ticker := time.NewTicker(s.interval())
	s.mu.Unlock()
	return ticker.C, ticker.Stop
}

// wait blocks until the next paced tick. It reports false once ctx is done.
func wait(ctx context.Context, pace <-chan time.Time) bool {
	select {
	case <-ctx.Done():
		return false
	default:
	}
	if pace == nil {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-pace:
		return true
	}
}

// Run ticks until ctx is cancelled. In real-time mode ticks are paced to
// the wall clock scaled by the sweep's time multiplier; otherwise they run
// back to back. Cancellation stops any active sweep before returning.
func (s *Simulator) Run(ctx context.Context) error {
	pace, stop := s.pacer()
	defer stop()

	for wait(ctx, pace) {
		if _, err := s.Tick(ctx); err != nil {
			s.cancel()
			return err
		}
	}
	s.cancel()
	return ctx.Err()
}

// RunSweep starts a sweep with p and ticks until it finishes. It returns
// (nil, nil) when the sweep is stopped by another caller.
func (s *Simulator) RunSweep(ctx context.Context, p sweep.Params) (*sweep.Dataset, error) {
	if _, err := s.Start(p); err != nil {
		return nil, err
	}

	pace, stop := s.pacer()
	defer stop()

	for wait(ctx, pace) {
		ds, err := s.Tick(ctx)
		if err != nil {
			s.cancel()
			return nil, err
		}
		if ds != nil {
			return ds, nil
		}
		if s.Phase() == sweep.Idle {
			return nil, nil
		}
	}
	s.cancel()
	return nil, ctx.Err()
}

func (s *Simulator) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl.Phase().Active() {
		_ = s.stop()
		s.logger.Info("sweep cancelled")
	}
}

// plant adapts the simulator to the controller. Its methods run inside
// tick or Start/Stop with the lock held.
type plant Simulator

func (p *plant) Name() string                { return p.net.Name }
func (p *plant) Configure(fp physics.Params) { p.dyn.SetParams(fp) }
func (p *plant) MeanMaxEnergy() float64      { return p.energy.Value() }

func (p *plant) RecordReference() {
	p.net.Sync(p.x)
	p.net.RecordReference()
}

// ResetToReference leaves dragged nodes at their drag targets; only
// Release or Stop lets go of them.
func (p *plant) ResetToReference() {
	p.net.Reset(p.x)
	if p.hold.any() {
		p.hold.pin(p.x)
		p.net.Sync(p.x)
	}
	p.energy.Reset()
	p.disp.Reset()
}
