package sim

import "github.com/san-kum/netspec/internal/dynamo"

// holdSystem excises held nodes from integration: their blocks have zero
// derivative, so a held node stays exactly where it was placed.
type holdSystem struct {
	dynamo.System
	held   []bool
	target []float64 // x, y per node
}

func newHoldSystem(sys dynamo.System, nodes int) *holdSystem {
	return &holdSystem{
		System: sys,
		held:   make([]bool, nodes),
		target: make([]float64, 2*nodes),
	}
}

func (h *holdSystem) hold(i int, x, y float64) {
	h.held[i] = true
	h.target[2*i], h.target[2*i+1] = x, y
}

func (h *holdSystem) release(i int) { h.held[i] = false }

func (h *holdSystem) releaseAll() {
	for i := range h.held {
		h.held[i] = false
	}
}

// pin writes every held node's target into x at rest.
func (h *holdSystem) pin(x dynamo.State) {
	for i, on := range h.held {
		if on {
			x.SetPos(i, h.target[2*i], h.target[2*i+1])
			x.SetVel(i, 0, 0)
		}
	}
}

func (h *holdSystem) Derive(x dynamo.State, t float64) dynamo.State {
	dx := h.System.Derive(x, t)
	for i, on := range h.held {
		if !on {
			continue
		}
		b := i * dynamo.BlockSize
		for j := 0; j < dynamo.BlockSize; j++ {
			dx[b+j] = 0
		}
	}
	return dx
}

func (h *holdSystem) any() bool {
	for _, on := range h.held {
		if on {
			return true
		}
	}
	return false
}

// clampToWalls keeps a coordinate inside the walls, accounting for the
// node's half width.
func clampToWalls(v float64) float64 {
	limit := Wall - NodeHalfWidth - wallInset
	return max(-limit, min(limit, v))
}
