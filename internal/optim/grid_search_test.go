package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/netspec/internal/sweep"
)

// peaked fakes a sweep whose single resonance at 1.0 grows as damping
// approaches 5 and sharpens with the window.
func peaked(_ context.Context, p sweep.Params) (*sweep.Dataset, error) {
	height := 10 - math.Abs(p.Damping-5)
	var avg []sweep.Sample
	for i := 0; i <= 20; i++ {
		f := float64(i) * 0.1
		e := height / (1 + p.Window*(f-1)*(f-1))
		avg = append(avg, sweep.Sample{Frequency: f, Energy: e})
	}
	return &sweep.Dataset{Average: avg}, nil
}

func TestGridSearchFindsBest(t *testing.T) {
	g := NewGridSearch([]string{"damping", "window"}, [][]float64{Range(0, 10, 5), {2, 8}})
	if g.Size() != 10 {
		t.Fatalf("Size() = %d", g.Size())
	}

	best, trials, err := g.Search(context.Background(), sweep.DefaultParams(), peaked, PeakEnergy)
	if err != nil {
		t.Fatal(err)
	}
	if len(trials) != 10 {
		t.Fatalf("%d trials, want 10", len(trials))
	}
	if best.Values["damping"] != 5 {
		t.Errorf("best damping = %v, want 5", best.Values["damping"])
	}
	if best.Score != 10 {
		t.Errorf("best score = %v, want 10", best.Score)
	}
}

func TestGridSearchQPrefersSharperPeak(t *testing.T) {
	g := NewGridSearch([]string{"window"}, [][]float64{{2, 50}})
	best, _, err := g.Search(context.Background(), sweep.DefaultParams(), peaked, PeakQ)
	if err != nil {
		t.Fatal(err)
	}
	if best.Values["window"] != 50 {
		t.Errorf("best window = %v, want 50", best.Values["window"])
	}
}

func TestGridSearchSkipsInvalidPoints(t *testing.T) {
	calls := 0
	run := func(ctx context.Context, p sweep.Params) (*sweep.Dataset, error) {
		calls++
		return peaked(ctx, p)
	}
	g := NewGridSearch([]string{"amplitude"}, [][]float64{{-1, 5}})
	best, trials, err := g.Search(context.Background(), sweep.DefaultParams(), run, PeakEnergy)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("run called %d times, want 1", calls)
	}
	if !math.IsInf(trials[0].Score, -1) {
		t.Errorf("invalid point scored %v", trials[0].Score)
	}
	if best.Values["amplitude"] != 5 {
		t.Errorf("best amplitude = %v", best.Values["amplitude"])
	}
}

func TestGridSearchUnknownParam(t *testing.T) {
	g := NewGridSearch([]string{"frequency"}, [][]float64{{1}})
	_, _, err := g.Search(context.Background(), sweep.DefaultParams(), peaked, PeakEnergy)
	if !errors.Is(err, sweep.ErrConfiguration) {
		t.Errorf("err = %v, want a configuration error", err)
	}
}

func TestGridSearchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := NewGridSearch([]string{"damping"}, [][]float64{{1, 2}})
	_, trials, err := g.Search(ctx, sweep.DefaultParams(), peaked, PeakEnergy)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if len(trials) != 0 {
		t.Errorf("%d trials after cancel", len(trials))
	}
}

func TestRange(t *testing.T) {
	r := Range(1, 2, 3)
	if len(r) != 3 || r[0] != 1 || r[1] != 1.5 || r[2] != 2 {
		t.Errorf("Range = %v", r)
	}
	if r := Range(4, 9, 1); len(r) != 1 || r[0] != 4 {
		t.Errorf("Range n=1 = %v", r)
	}
}
