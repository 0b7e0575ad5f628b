package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/netspec/internal/sweep"
)

// RunFunc performs one complete sweep with p.
type RunFunc func(ctx context.Context, p sweep.Params) (*sweep.Dataset, error)

// ScoreFunc rates a finished sweep; higher is better.
type ScoreFunc func(ds *sweep.Dataset) float64

// Trial is one evaluated grid point.
type Trial struct {
	Values map[string]float64
	Score  float64
}

// GridSearch evaluates every combination of the given sweep parameter
// values and keeps the best scoring one.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs base with every grid point applied and returns all trials
// in grid order together with the best one. Grid points whose parameters
// fail validation score -Inf and are not run.
func (g *GridSearch) Search(ctx context.Context, base sweep.Params, run RunFunc, score ScoreFunc) (best Trial, trials []Trial, err error) {
	if len(g.paramNames) != len(g.ranges) {
		return Trial{}, nil, fmt.Errorf("optim: %d names for %d ranges", len(g.paramNames), len(g.ranges))
	}
	for _, name := range g.paramNames {
		if err := (&sweep.Params{}).Set(name, 0); err != nil {
			return Trial{}, nil, err
		}
	}

	best.Score = math.Inf(-1)
	err = g.searchRecursive(ctx, 0, base, make(map[string]float64), run, score, &best, &trials)
	return best, trials, err
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	p sweep.Params,
	current map[string]float64,
	run RunFunc,
	score ScoreFunc,
	best *Trial,
	trials *[]Trial,
) error {
	if depth == len(g.paramNames) {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := Trial{Values: current, Score: math.Inf(-1)}
		if p.Validate().OK() {
			ds, err := run(ctx, p)
			if err != nil {
				return err
			}
			if ds == nil {
				return ctx.Err()
			}
			t.Score = score(ds)
		}
		*trials = append(*trials, t)
		if t.Score > best.Score || best.Values == nil {
			*best = t
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newValues := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newValues[k] = v
		}
		newValues[paramName] = val

		next := p
		if err := next.Set(paramName, val); err != nil {
			return err
		}
		if err := g.searchRecursive(ctx, depth+1, next, newValues, run, score, best, trials); err != nil {
			return err
		}
	}
	return nil
}

// Range returns n evenly spaced values from lo to hi inclusive.
func Range(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	d := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*d
	}
	return out
}
