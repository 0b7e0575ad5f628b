package sweep_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/netspec/internal/integrators"
	"github.com/san-kum/netspec/internal/network"
	"github.com/san-kum/netspec/internal/sim"
	"github.com/san-kum/netspec/internal/sweep"
)

var _ = Describe("Six-node chain sweep", Label("e2e"), func() {
	It("emits every sample of every pass and finishes", func(ctx SpecContext) {
		net, err := network.Chain(6)
		Expect(err).NotTo(HaveOccurred())
		Expect(net.Node(5).Mass).To(Equal(30.0))
		Expect(net.Edge(4).SpringConst).To(Equal(30.0))

		cfg := sim.DefaultConfig()
		cfg.Dt = 0.05
		s, err := sim.New(net, integrators.NewRK4(), cfg)
		Expect(err).NotTo(HaveOccurred())

		p := sweep.Params{
			Amplitude:      5,
			FrequencyStep:  0.0125,
			FrequencyLimit: 2.0,
			Passes:         3,
			Window:         10,
			Damping:        20,
			SettleDamping:  20,
			TimeMultiplier: 1,
		}

		ds, err := s.RunSweep(ctx, p)
		Expect(err).NotTo(HaveOccurred())
		Expect(ds).NotTo(BeNil())
		Expect(s.Phase()).To(Equal(sweep.Finished))

		total := 0
		for _, pass := range ds.Passes {
			total += len(pass.Samples)
		}
		Expect(total).To(Equal(3 * (160 + 1)))
		Expect(ds.Average).To(HaveLen(161))
		Expect(ds.Average[160].Frequency).To(BeNumerically("~", 2.0, 1e-12))

		for _, smp := range ds.Average {
			Expect(smp.Energy).To(BeNumerically(">=", 0))
		}
		Expect(ds.Meta.NetworkName).To(Equal("chain-6"))
		Expect(ds.Meta.ElapsedSeconds).To(BeNumerically(">=", 0))
	})
})
