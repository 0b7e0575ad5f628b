package sweep

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/netspec/internal/physics"
)

var (
	ErrConfiguration = errors.New("sweep: invalid configuration")
	ErrRunning       = errors.New("sweep: already running")
	ErrNotRunning    = errors.New("sweep: not running")
)

const (
	MinTimeMultiplier = 1.0
	MaxTimeMultiplier = 16.0

	// RecommendedDamping is the lowest damping that does not draw a warning.
	RecommendedDamping = 10.0
)

// Params configures one sweep. Window is the simulated duration of each
// frequency step; settling uses the same window.
type Params struct {
	Amplitude      float64 `yaml:"amplitude" json:"amplitude"`
	FrequencyStep  float64 `yaml:"frequency_step" json:"frequency_step"`
	FrequencyLimit float64 `yaml:"frequency_limit" json:"frequency_limit"`
	Passes         int     `yaml:"passes" json:"passes"`
	Window         float64 `yaml:"window" json:"window"`
	Damping        float64 `yaml:"damping" json:"damping"`
	SettleDamping  float64 `yaml:"settle_damping" json:"settle_damping"`
	Gravity        float64 `yaml:"gravity" json:"gravity"`
	TimeMultiplier float64 `yaml:"time_multiplier" json:"time_multiplier"`
}

func DefaultParams() Params {
	return Params{
		Amplitude:      5,
		FrequencyStep:  0.0125,
		FrequencyLimit: 2.0,
		Passes:         3,
		Window:         10,
		Damping:        20,
		SettleDamping:  physics.DefaultSettleDamping,
		TimeMultiplier: 1,
	}
}

// SamplesPerPass is the number of frequencies visited in one pass,
// 0, step, 2*step, ... up to and including the limit.
func (p Params) SamplesPerPass() int {
	n := math.Floor(p.FrequencyLimit/p.FrequencyStep + frequencyTolerance)
	if !(p.FrequencyStep > 0) || !(n >= 0) || math.IsInf(n, 1) {
		return 0
	}
	return int(n) + 1
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// frequencyTolerance absorbs rounding in limit/step when the limit is an
// exact multiple of the step.
const frequencyTolerance = 1e-9

// Validation carries blocking problems and advisory warnings separately.
type Validation struct {
	Errors   []string
	Warnings []string
}

func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err returns a *ConfigError when there are blocking problems.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return &ConfigError{Problems: v.Errors}
}

type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("sweep: invalid configuration: %s", strings.Join(e.Problems, "; "))
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

func (p Params) Validate() Validation {
	var v Validation
	bad := func(format string, args ...any) {
		v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
	}

	if p.TimeMultiplier < MinTimeMultiplier || p.TimeMultiplier > MaxTimeMultiplier || math.IsNaN(p.TimeMultiplier) {
		bad("time multiplier %v must be between %v and %v", p.TimeMultiplier, MinTimeMultiplier, MaxTimeMultiplier)
	}
	if !(p.Amplitude >= 0) || !finite(p.Amplitude) {
		bad("amplitude %v must be finite and not negative", p.Amplitude)
	}
	if !(p.FrequencyStep > 0) || !finite(p.FrequencyStep) {
		bad("frequency step %v must be positive and finite", p.FrequencyStep)
	}
	if p.Passes < 1 {
		bad("pass count %d must be at least 1", p.Passes)
	}
	if !(p.FrequencyLimit > 0) || !finite(p.FrequencyLimit) || p.FrequencyLimit < p.FrequencyStep {
		bad("frequency limit %v must be positive, finite and not below the step %v", p.FrequencyLimit, p.FrequencyStep)
	}
	if !(p.Window > 0) || !finite(p.Window) {
		bad("window %v must be positive and finite", p.Window)
	}
	if !(p.SettleDamping >= 0) || !finite(p.SettleDamping) {
		bad("settle damping %v must be finite and not negative", p.SettleDamping)
	}
	if !finite(p.Gravity) {
		bad("gravity %v must be finite", p.Gravity)
	}

	switch {
	case !(p.Damping >= 0) || !finite(p.Damping):
		bad("damping %v must be finite and not negative", p.Damping)
	case p.Damping < RecommendedDamping:
		v.Warnings = append(v.Warnings, fmt.Sprintf("damping %v is below the recommended %v", p.Damping, RecommendedDamping))
	}

	if p.Window > 0 && p.Window <= 1 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("window %v leaves no time to settle", p.Window))
	}

	return v
}

// settling is the force configuration used while the network relaxes and
// while the controller is idle.
func (p Params) settling() physics.Params {
	return physics.Params{
		Gravity:   p.Gravity,
		Damping:   p.SettleDamping,
		Amplitude: p.Amplitude,
	}
}

func (p Params) driving(freq float64) physics.Params {
	return physics.Params{
		Gravity:   p.Gravity,
		Damping:   p.Damping,
		Amplitude: p.Amplitude,
		Frequency: freq,
		Driving:   true,
	}
}

// Set assigns the parameter with the given configuration name.
func (p *Params) Set(name string, v float64) error {
	switch name {
	case "amplitude":
		p.Amplitude = v
	case "frequency_step", "step":
		p.FrequencyStep = v
	case "frequency_limit", "limit":
		p.FrequencyLimit = v
	case "passes":
		if v != math.Trunc(v) {
			return fmt.Errorf("%w: passes must be whole, got %g", ErrConfiguration, v)
		}
		p.Passes = int(v)
	case "window":
		p.Window = v
	case "damping":
		p.Damping = v
	case "settle_damping":
		p.SettleDamping = v
	case "gravity":
		p.Gravity = v
	case "time_multiplier", "multiplier":
		p.TimeMultiplier = v
	default:
		return fmt.Errorf("%w: unknown parameter %q", ErrConfiguration, name)
	}
	return nil
}
