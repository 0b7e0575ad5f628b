package sweep_test

import (
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/netspec/internal/physics"
	"github.com/san-kum/netspec/internal/sweep"
)

// fakePlant reports an energy chosen by the test for the current frequency.
type fakePlant struct {
	cfg        physics.Params
	energy     func(pass int, freq float64) float64
	pass       int
	references int
	resets     int
	configs    []physics.Params
}

func (f *fakePlant) Name() string { return "fake" }

func (f *fakePlant) Configure(p physics.Params) {
	if p.Driving && p.Frequency == 0 {
		f.pass++
	}
	f.cfg = p
	f.configs = append(f.configs, p)
}

func (f *fakePlant) RecordReference()  { f.references++ }
func (f *fakePlant) ResetToReference() { f.resets++ }

func (f *fakePlant) MeanMaxEnergy() float64 {
	if f.energy == nil {
		return 1
	}
	return f.energy(f.pass, f.cfg.Frequency)
}

func quickParams() sweep.Params {
	p := sweep.DefaultParams()
	p.FrequencyStep = 0.5
	p.FrequencyLimit = 2.0
	p.Passes = 2
	p.Window = 2
	return p
}

// drive advances the controller in h-second ticks until it finishes or the
// tick budget runs out.
func drive(c *sweep.Controller, h float64, budget int) *sweep.Dataset {
	for i := 0; i < budget; i++ {
		if ds := c.Advance(h); ds != nil {
			return ds
		}
	}
	return nil
}

var _ = Describe("Params", func() {
	It("accepts the defaults without warnings", func() {
		v := sweep.DefaultParams().Validate()
		Expect(v.OK()).To(BeTrue())
		Expect(v.Warnings).To(BeEmpty())
	})

	DescribeTable("rejects invalid combinations",
		func(mutate func(*sweep.Params)) {
			p := sweep.DefaultParams()
			mutate(&p)
			err := p.Validate().Err()
			Expect(err).To(MatchError(sweep.ErrConfiguration))

			var cfgErr *sweep.ConfigError
			Expect(errors.As(err, &cfgErr)).To(BeTrue())
			Expect(cfgErr.Problems).To(HaveLen(1))
		},
		Entry("negative amplitude", func(p *sweep.Params) { p.Amplitude = -1 }),
		Entry("zero step", func(p *sweep.Params) { p.FrequencyStep = 0; p.FrequencyLimit = 1 }),
		Entry("no passes", func(p *sweep.Params) { p.Passes = 0 }),
		Entry("limit below step", func(p *sweep.Params) { p.FrequencyLimit = 0.001 }),
		Entry("zero window", func(p *sweep.Params) { p.Window = 0 }),
		Entry("negative damping", func(p *sweep.Params) { p.Damping = -0.5 }),
		Entry("multiplier too large", func(p *sweep.Params) { p.TimeMultiplier = 17 }),
		Entry("multiplier too small", func(p *sweep.Params) { p.TimeMultiplier = 0.5 }),
		Entry("infinite window", func(p *sweep.Params) { p.Window = math.Inf(1) }),
		Entry("infinite limit", func(p *sweep.Params) { p.FrequencyLimit = math.Inf(1) }),
		Entry("NaN step", func(p *sweep.Params) { p.FrequencyStep = math.NaN() }),
		Entry("infinite amplitude", func(p *sweep.Params) { p.Amplitude = math.Inf(1) }),
		Entry("infinite damping", func(p *sweep.Params) { p.Damping = math.Inf(1) }),
		Entry("infinite settle damping", func(p *sweep.Params) { p.SettleDamping = math.Inf(1) }),
	)

	It("warns about low damping without refusing", func() {
		p := sweep.DefaultParams()
		p.Damping = 3
		v := p.Validate()
		Expect(v.OK()).To(BeTrue())
		Expect(v.Warnings).To(ContainElement(ContainSubstring("damping")))
	})

	It("counts samples from zero up to the limit", func() {
		Expect(quickParams().SamplesPerPass()).To(Equal(5))
		Expect(sweep.DefaultParams().SamplesPerPass()).To(Equal(161))

		p := sweep.DefaultParams()
		p.FrequencyLimit = math.Inf(1)
		Expect(p.SamplesPerPass()).To(BeZero())
	})

	It("sets parameters by name", func() {
		p := sweep.DefaultParams()
		Expect(p.Set("damping", 12)).To(Succeed())
		Expect(p.Set("limit", 1.5)).To(Succeed())
		Expect(p.Set("passes", 4)).To(Succeed())
		Expect(p.Damping).To(Equal(12.0))
		Expect(p.FrequencyLimit).To(Equal(1.5))
		Expect(p.Passes).To(Equal(4))

		Expect(p.Set("passes", 2.5)).To(MatchError(sweep.ErrConfiguration))
		Expect(p.Set("frequency", 1)).To(MatchError(sweep.ErrConfiguration))
		Expect(p.Passes).To(Equal(4))
	})
})

var _ = Describe("Controller", func() {
	var (
		plant *fakePlant
		c     *sweep.Controller
		clock time.Time
	)

	BeforeEach(func() {
		plant = &fakePlant{}
		clock = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		c = sweep.NewController(plant, sweep.WithClock(func() time.Time { return clock }))
	})

	It("starts idle", func() {
		Expect(c.Phase()).To(Equal(sweep.Idle))
		Expect(c.Advance(100)).To(BeNil())
		Expect(c.Phase()).To(Equal(sweep.Idle))
	})

	It("refuses an invalid start without changing state", func() {
		p := quickParams()
		p.Passes = 0
		_, err := c.Start(p)
		Expect(err).To(MatchError(sweep.ErrConfiguration))
		Expect(c.Phase()).To(Equal(sweep.Idle))
		Expect(plant.configs).To(BeEmpty())
	})

	It("settles without driving and records the reference", func() {
		_, err := c.Start(quickParams())
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Phase()).To(Equal(sweep.SettlingPositions))
		Expect(plant.cfg.Driving).To(BeFalse())
		Expect(plant.cfg.Damping).To(Equal(physics.DefaultSettleDamping))

		// settles once the window exceeds passTime - 1 = 1s
		c.Advance(0.6)
		Expect(c.Phase()).To(Equal(sweep.SettlingPositions))
		c.Advance(0.6)
		Expect(c.Phase()).To(Equal(sweep.Driving))
		Expect(plant.references).To(Equal(1))
		Expect(plant.cfg.Driving).To(BeTrue())
		Expect(plant.cfg.Frequency).To(BeZero())
		Expect(plant.cfg.Damping).To(Equal(quickParams().Damping))
	})

	It("keeps force parameters changed during the sweep", func() {
		_, _ = c.Start(quickParams())
		c.Advance(1.5)
		Expect(c.Phase()).To(Equal(sweep.Driving))

		Expect(c.Set("damping", 3)).To(Succeed())
		Expect(c.Set("gravity", 0.5)).To(Succeed())
		Expect(c.Set("passes", 5)).To(MatchError(sweep.ErrConfiguration))
		Expect(c.Set("frequency", 1)).To(MatchError(sweep.ErrConfiguration))

		c.Advance(2.5)
		Expect(c.Frequency()).To(Equal(0.5))
		Expect(plant.cfg.Damping).To(Equal(3.0))
		Expect(plant.cfg.Gravity).To(Equal(0.5))
		Expect(c.Params().Passes).To(Equal(quickParams().Passes))
	})

	It("rejects a second start while active", func() {
		_, err := c.Start(quickParams())
		Expect(err).NotTo(HaveOccurred())
		_, err = c.Start(quickParams())
		Expect(err).To(MatchError(sweep.ErrRunning))
	})

	It("steps the frequency after each window and resets the network", func() {
		_, _ = c.Start(quickParams())
		c.Advance(1.5)
		resets := plant.resets

		c.Advance(1.5)
		Expect(c.Current()).To(BeEmpty())
		c.Advance(1.0)
		Expect(c.Current()).To(HaveLen(1))
		Expect(c.Frequency()).To(Equal(0.5))
		Expect(plant.cfg.Frequency).To(Equal(0.5))
		Expect(plant.resets).To(Equal(resets + 1))
	})

	It("emits five samples per pass and averages two passes", func() {
		plant.energy = func(pass int, freq float64) float64 {
			return float64(pass)*10 + freq
		}
		_, err := c.Start(quickParams())
		Expect(err).NotTo(HaveOccurred())

		clock = clock.Add(90 * time.Second)
		ds := drive(c, 0.25, 10000)
		Expect(ds).NotTo(BeNil())
		Expect(c.Phase()).To(Equal(sweep.Finished))

		Expect(ds.Passes).To(HaveLen(2))
		for _, p := range ds.Passes {
			Expect(p.Frequencies()).To(Equal([]float64{0, 0.5, 1.0, 1.5, 2.0}))
		}
		Expect(ds.Average).To(HaveLen(5))
		for i, s := range ds.Average {
			want := (ds.Passes[0].Samples[i].Energy + ds.Passes[1].Samples[i].Energy) / 2
			Expect(s.Energy).To(BeNumerically("~", want, 1e-12))
			Expect(s.Frequency).To(Equal(ds.Passes[0].Samples[i].Frequency))
		}

		Expect(ds.Meta.NetworkName).To(Equal("fake"))
		Expect(ds.Meta.Passes).To(Equal(2))
		Expect(ds.Meta.ElapsedSeconds).To(BeNumerically("~", 90, 1e-9))
		Expect(c.Result()).To(BeIdenticalTo(ds))
	})

	It("discards partial data on stop", func() {
		_, _ = c.Start(quickParams())
		drive(c, 0.5, 12)
		Expect(c.Current()).NotTo(BeEmpty())

		Expect(c.Stop()).To(Succeed())
		Expect(c.Phase()).To(Equal(sweep.Idle))
		Expect(c.Current()).To(BeEmpty())
		Expect(c.CompletedPasses()).To(BeZero())
		Expect(c.Frequency()).To(BeZero())
		Expect(c.Result()).To(BeNil())
		Expect(plant.cfg.Driving).To(BeFalse())
	})

	It("reports stop while idle", func() {
		Expect(c.Stop()).To(MatchError(sweep.ErrNotRunning))
	})

	It("can be restarted after finishing", func() {
		_, _ = c.Start(quickParams())
		Expect(drive(c, 0.5, 10000)).NotTo(BeNil())
		Expect(c.Progress()).To(Equal(1.0))

		_, err := c.Start(quickParams())
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Phase()).To(Equal(sweep.SettlingPositions))
		Expect(c.Pass()).To(Equal(1))
	})
})

func sample(f, e float64) sweep.Sample {
	return sweep.Sample{Frequency: f, Energy: e}
}

var _ = Describe("Average", func() {
	It("is empty without passes", func() {
		Expect(sweep.Average(nil)).To(BeEmpty())
	})

	It("divides by the raw pass count", func() {
		passes := []sweep.Pass{
			{Index: 1, Samples: []sweep.Sample{sample(0, 1), sample(1, 2)}},
			{Index: 2, Samples: []sweep.Sample{sample(0, 3), sample(1, 6)}},
			{Index: 3, Samples: []sweep.Sample{sample(0, 5), sample(1, 10)}},
		}
		Expect(sweep.Average(passes)).To(Equal([]sweep.Sample{sample(0, 3), sample(1, 6)}))
	})

	It("truncates to the shortest pass", func() {
		passes := []sweep.Pass{
			{Samples: []sweep.Sample{sample(0, 2), sample(0.5, 4), sample(1, 8)}},
			{Samples: []sweep.Sample{sample(0, 4), sample(0.5, 8)}},
		}
		avg := sweep.Average(passes)
		Expect(avg).To(HaveLen(2))
		Expect(avg[1]).To(Equal(sweep.Sample{Frequency: 0.5, Energy: 6}))
	})
})
