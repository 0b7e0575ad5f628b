package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/netspec/internal/export"
	"github.com/san-kum/netspec/internal/sweep"
)

func dataset() *sweep.Dataset {
	passes := []sweep.Pass{
		{Index: 1, Samples: []sweep.Sample{{Frequency: 0, Energy: 1}, {Frequency: 0.5, Energy: 4}, {Frequency: 1, Energy: 2}}},
		{Index: 2, Samples: []sweep.Sample{{Frequency: 0, Energy: 3}, {Frequency: 0.5, Energy: 6}, {Frequency: 1, Energy: 2}}},
	}
	return &sweep.Dataset{
		Meta: sweep.Metadata{
			NetworkName:    "chain-6",
			Passes:         2,
			FrequencyStep:  0.5,
			FrequencyLimit: 1,
			ElapsedSeconds: 12.5,
			StartedAt:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		Passes:  passes,
		Average: sweep.Average(passes),
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(dataset())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Sweep.NetworkName != "chain-6" {
		t.Errorf("expected network 'chain-6', got '%s'", meta.Sweep.NetworkName)
	}
	if meta.Samples != 3 {
		t.Errorf("expected 3 samples, got %d", meta.Samples)
	}
	if meta.Peak.Frequency != 0.5 || meta.Peak.Energy != 5 {
		t.Errorf("expected peak (0.5, 5), got %+v", meta.Peak)
	}

	avg, err := st.LoadAverage(runID)
	if err != nil {
		t.Fatalf("load average failed: %v", err)
	}
	if len(avg) != 3 || avg[0].Energy != 2 {
		t.Errorf("unexpected average %+v", avg)
	}

	passes, err := st.LoadPasses(runID)
	if err != nil {
		t.Fatalf("load passes failed: %v", err)
	}
	if len(passes) != 2 {
		t.Fatalf("expected 2 passes, got %d", len(passes))
	}
	if passes[1].Samples[1] != (sweep.Sample{Frequency: 0.5, Energy: 6}) {
		t.Errorf("unexpected sample %+v", passes[1].Samples[1])
	}

	ds, err := st.LoadDataset(runID)
	if err != nil {
		t.Fatalf("load dataset failed: %v", err)
	}
	if !ds.Meta.StartedAt.Equal(dataset().Meta.StartedAt) {
		t.Errorf("started at %v, want %v", ds.Meta.StartedAt, dataset().Meta.StartedAt)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	for i := 0; i < 2; i++ {
		if err := st.Export(context.Background(), dataset()); err != nil {
			t.Fatalf("export failed: %v", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, "stray"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestStoreLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); !errors.Is(err, ErrNoRun) {
		t.Errorf("got %v, want ErrNoRun", err)
	}
}

func TestStoreWritesChart(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir, WithChart(export.ChartSize{Width: 3, Height: 2, DPI: 40}))

	runID, err := st.Save(dataset())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(tmpDir, runID, chartFile))
	if err != nil {
		t.Fatalf("chart missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("chart is empty")
	}
}

func TestExportHonoursCancelledContext(t *testing.T) {
	st := New(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := st.Export(ctx, dataset()); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
