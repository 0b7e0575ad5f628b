package integrators

import (
	"testing"

	"github.com/san-kum/netspec/internal/dynamo"
	"github.com/san-kum/netspec/internal/network"
	"github.com/san-kum/netspec/internal/physics"
)

func benchIntegrator(b *testing.B, integ dynamo.Integrator, nodes int) {
	net, err := network.Chain(nodes)
	if err != nil {
		b.Fatal(err)
	}
	dyn := physics.NewForceModel(net, physics.Params{Gravity: 9.8, Damping: 0.5, Amplitude: 2, Frequency: 1, Driving: true})
	x := net.State()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integ.Step(dyn, x, float64(i)*0.01, 0.01)
	}
}

func BenchmarkEuler(b *testing.B)    { benchIntegrator(b, NewEuler(), 6) }
func BenchmarkRK4(b *testing.B)      { benchIntegrator(b, NewRK4(), 6) }
func BenchmarkRK45(b *testing.B)     { benchIntegrator(b, NewRK45(), 6) }
func BenchmarkVerlet(b *testing.B)   { benchIntegrator(b, NewVerlet(), 6) }
func BenchmarkLeapfrog(b *testing.B) { benchIntegrator(b, NewLeapfrog(), 6) }

func BenchmarkRK4_Chain64(b *testing.B) { benchIntegrator(b, NewRK4(), 64) }
