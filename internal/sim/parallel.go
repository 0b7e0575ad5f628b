package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/netspec/internal/sweep"
)

// Factory builds the simulator for run i of an ensemble. Each run owns its
// network; nothing is shared between runs.
type Factory func(i int) (*Simulator, error)

// Ensemble runs independent sweeps concurrently, one goroutine per run.
type Ensemble struct {
	factory Factory
	numRuns int
}

func NewEnsemble(factory Factory, numRuns int) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns}
}

// Run sweeps every member with p. The first failure cancels the runs
// still in progress and is returned.
func (e *Ensemble) Run(ctx context.Context, p sweep.Params) ([]*sweep.Dataset, error) {
	results := make([]*sweep.Dataset, e.numRuns)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numRuns; i++ {
		i := i
		g.Go(func() error {
			s, err := e.factory(i)
			if err != nil {
				return fmt.Errorf("ensemble run %d: %w", i, err)
			}
			ds, err := s.RunSweep(gctx, p)
			if err != nil {
				return fmt.Errorf("ensemble run %d: %w", i, err)
			}
			if ds == nil {
				return fmt.Errorf("ensemble run %d: sweep stopped", i)
			}
			results[i] = ds
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Combine folds the averaged series of several datasets into one, using
// the same sample-by-sample mean as a single sweep. The metadata of the
// first dataset is kept.
func Combine(datasets []*sweep.Dataset) *sweep.Dataset {
	if len(datasets) == 0 {
		return nil
	}
	passes := make([]sweep.Pass, 0, len(datasets))
	for i, ds := range datasets {
		passes = append(passes, sweep.Pass{Index: i + 1, Samples: ds.Average})
	}
	meta := datasets[0].Meta
	return &sweep.Dataset{
		Meta:    meta,
		Passes:  passes,
		Average: sweep.Average(passes),
	}
}
