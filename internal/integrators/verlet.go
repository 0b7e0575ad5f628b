package integrators

import "github.com/san-kum/netspec/internal/dynamo"

// Verlet is velocity Verlet over the block layout. Velocity-dependent
// forces such as damping are evaluated at the old velocity.
type Verlet struct {
	scratch dynamo.State
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) ensureScratch(n int) {
	if len(v.scratch) != n {
		v.scratch = make(dynamo.State, n)
	}
}

func (v *Verlet) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	v.ensureScratch(n)

	result := make(dynamo.State, n)
	dx := dyn.Derive(x, t)
	dt2 := dt * dt

	for b := 0; b < n; b += dynamo.BlockSize {
		for j := 0; j < 2; j++ {
			p, q := b+j, b+j+2
			result[p] = x[p] + x[q]*dt + 0.5*dx[q]*dt2
			v.scratch[p] = result[p]
			v.scratch[q] = x[q]
		}
	}

	dxNew := dyn.Derive(v.scratch, t+dt)

	halfDt := 0.5 * dt
	for b := 0; b < n; b += dynamo.BlockSize {
		for j := 2; j < 4; j++ {
			result[b+j] = x[b+j] + (dx[b+j]+dxNew[b+j])*halfDt
		}
	}

	return result
}

type Leapfrog struct {
	scratch dynamo.State
}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	if len(l.scratch) != n {
		l.scratch = make(dynamo.State, n)
	}

	result := make(dynamo.State, n)
	dx := dyn.Derive(x, t)
	halfDt := dt * 0.5

	for b := 0; b < n; b += dynamo.BlockSize {
		for j := 0; j < 2; j++ {
			p, q := b+j, b+j+2
			l.scratch[q] = x[q] + dx[q]*halfDt
			result[p] = x[p] + l.scratch[q]*dt
			l.scratch[p] = result[p]
		}
	}

	dxNew := dyn.Derive(l.scratch, t+dt)

	for b := 0; b < n; b += dynamo.BlockSize {
		for j := 2; j < 4; j++ {
			result[b+j] = l.scratch[b+j] + dxNew[b+j]*halfDt
		}
	}

	return result
}
