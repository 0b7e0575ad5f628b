package sweep

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/san-kum/netspec/internal/physics"
)

type Phase int

const (
	Idle Phase = iota
	SettlingPositions
	Driving
	PassBoundary
	Finished
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case SettlingPositions:
		return "settling"
	case Driving:
		return "driving"
	case PassBoundary:
		return "pass-boundary"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// Active reports whether a sweep is in progress.
func (p Phase) Active() bool {
	return p == SettlingPositions || p == Driving || p == PassBoundary
}

// Plant is the simulated network as seen by the controller.
type Plant interface {
	Name() string
	Configure(p physics.Params)
	// RecordReference stores the current positions as the settled state.
	RecordReference()
	// ResetToReference moves every node to its reference at rest and clears
	// the per-spring energy maxima.
	ResetToReference()
	MeanMaxEnergy() float64
}

// Controller is the frequency-sweep state machine. It is not safe for
// concurrent use; the simulator serializes calls between ticks.
type Controller struct {
	plant  Plant
	logger *slog.Logger
	now    func() time.Time

	params  Params
	phase   Phase
	window  float64
	index   int
	freq    float64
	pass    int
	current []Sample
	passes  []Pass
	started time.Time
	last    *Dataset
}

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithClock replaces time.Now for the wall-clock metadata.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func NewController(plant Plant, opts ...Option) *Controller {
	c := &Controller{
		plant:  plant,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		params: DefaultParams(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Phase() Phase         { return c.phase }
func (c *Controller) Params() Params       { return c.params }
func (c *Controller) Frequency() float64   { return c.freq }
func (c *Controller) Pass() int            { return c.pass }
func (c *Controller) Window() float64      { return c.window }
func (c *Controller) Current() []Sample    { return append([]Sample(nil), c.current...) }
func (c *Controller) CompletedPasses() int { return len(c.passes) }

// Result is the dataset of the last finished sweep, or nil.
func (c *Controller) Result() *Dataset { return c.last }

// Progress is the fraction of all samples emitted so far.
func (c *Controller) Progress() float64 {
	total := c.params.SamplesPerPass() * c.params.Passes
	if total == 0 || !c.phase.Active() {
		if c.phase == Finished {
			return 1
		}
		return 0
	}
	done := len(c.passes)*c.params.SamplesPerPass() + len(c.current)
	return float64(done) / float64(total)
}

// Start validates p and begins settling. Nothing changes when validation
// fails or a sweep is already active.
func (c *Controller) Start(p Params) (Validation, error) {
	if c.phase.Active() {
		return Validation{}, ErrRunning
	}
	v := p.Validate()
	if err := v.Err(); err != nil {
		return v, err
	}
	for _, w := range v.Warnings {
		c.logger.Warn("sweep parameter", "warning", w)
	}

	c.params = p
	c.clear()
	c.pass = 1
	c.started = c.now()
	c.plant.ResetToReference()
	c.plant.Configure(p.settling())
	c.enter(SettlingPositions)
	return v, nil
}

// Set changes a force parameter of the running sweep, so that every
// later window drives with the new value. Only amplitude, damping and
// gravity may change; the schedule is fixed once the sweep starts.
func (c *Controller) Set(name string, v float64) error {
	switch name {
	case "amplitude", "damping", "gravity":
	default:
		return fmt.Errorf("%w: %s cannot change during a sweep", ErrConfiguration, name)
	}
	return c.params.Set(name, v)
}

// Stop abandons the sweep without emitting partial data and returns the
// network to its reference state.
func (c *Controller) Stop() error {
	if c.phase == Idle {
		return ErrNotRunning
	}
	if c.phase.Active() {
		c.logger.Info("sweep stopped", "pass", c.pass, "frequency", c.freq, "samples", len(c.current))
	}
	c.reset()
	return nil
}

// Advance accounts h seconds of simulated time. It must be called once per
// tick after the energy maxima are updated. It returns the dataset when
// the final pass completes.
func (c *Controller) Advance(h float64) *Dataset {
	switch c.phase {
	case SettlingPositions:
		c.window += h
		if c.window > c.params.Window-1 {
			c.plant.RecordReference()
			c.plant.ResetToReference()
			c.window = 0
			c.index = 0
			c.freq = 0
			c.plant.Configure(c.params.driving(c.freq))
			c.enter(Driving)
		}
	case Driving:
		c.window += h
		if c.window > c.params.Window {
			return c.emit()
		}
	}
	return nil
}

func (c *Controller) emit() *Dataset {
	s := Sample{Frequency: c.freq, Energy: c.plant.MeanMaxEnergy()}
	c.current = append(c.current, s)
	c.logger.Debug("sample", "pass", c.pass, "frequency", s.Frequency, "energy", s.Energy)

	c.plant.ResetToReference()
	c.window = 0
	c.index++
	c.freq = float64(c.index) * c.params.FrequencyStep

	if c.freq <= c.params.FrequencyLimit+frequencyTolerance*c.params.FrequencyStep {
		c.plant.Configure(c.params.driving(c.freq))
		return nil
	}
	return c.boundary()
}

func (c *Controller) boundary() *Dataset {
	c.enter(PassBoundary)
	c.passes = append(c.passes, Pass{Index: c.pass, Samples: c.current})
	c.logger.Info("pass complete", "pass", c.pass, "samples", len(c.current))
	c.current = nil

	if c.pass < c.params.Passes {
		c.pass++
		c.index = 0
		c.freq = 0
		c.plant.Configure(c.params.driving(c.freq))
		c.enter(Driving)
		return nil
	}

	ds := &Dataset{
		Meta:    c.metadata(),
		Passes:  c.passes,
		Average: Average(c.passes),
	}
	c.last = ds
	c.reset()
	c.enter(Finished)
	return ds
}

func (c *Controller) metadata() Metadata {
	p := c.params
	return Metadata{
		NetworkName:    c.plant.Name(),
		TimeMultiplier: p.TimeMultiplier,
		Amplitude:      p.Amplitude,
		Passes:         p.Passes,
		FrequencyLimit: p.FrequencyLimit,
		Damping:        p.Damping,
		FrequencyStep:  p.FrequencyStep,
		Window:         p.Window,
		ElapsedSeconds: c.now().Sub(c.started).Seconds(),
		StartedAt:      c.started,
	}
}

func (c *Controller) reset() {
	c.plant.ResetToReference()
	c.plant.Configure(c.params.settling())
	c.clear()
	c.enter(Idle)
}

func (c *Controller) clear() {
	c.window = 0
	c.index = 0
	c.freq = 0
	c.pass = 0
	c.current = nil
	c.passes = nil
}

func (c *Controller) enter(p Phase) {
	if p != c.phase {
		c.logger.Debug("phase", "from", c.phase, "to", p, "pass", c.pass)
	}
	c.phase = p
}
