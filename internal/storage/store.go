package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/netspec/internal/export"
	"github.com/san-kum/netspec/internal/sweep"
)

const (
	metadataFile = "metadata.json"
	passesFile   = "passes.csv"
	averageFile  = "average.csv"
	chartFile    = "spectrum.png"

	separator = "-----"
)

var ErrNoRun = errors.New("storage: run not found")

type Store struct {
	baseDir string
	chart   bool
	size    export.ChartSize
}

type Option func(*Store)

// WithChart also renders spectrum.png into every saved run.
func WithChart(size export.ChartSize) Option {
	return func(s *Store) {
		s.chart = true
		s.size = size
	}
}

func New(baseDir string, opts ...Option) *Store {
	s := &Store{baseDir: baseDir}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID      string         `json:"id"`
	SavedAt time.Time      `json:"saved_at"`
	Sweep   sweep.Metadata `json:"sweep"`
	Samples int            `json:"samples"`
	Peak    sweep.Sample   `json:"peak"`
}

// Export saves ds as a new run. It satisfies the simulator's exporter.
func (s *Store) Export(ctx context.Context, ds *sweep.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.Save(ds)
	return err
}

// Save writes ds into a fresh run directory and returns the run id.
func (s *Store) Save(ds *sweep.Dataset) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	runID := uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:      runID,
		SavedAt: time.Now(),
		Sweep:   ds.Meta,
		Samples: len(ds.Average),
	}
	for _, smp := range ds.Average {
		if smp.Energy > meta.Peak.Energy {
			meta.Peak = smp
		}
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writePasses(filepath.Join(runDir, passesFile), ds); err != nil {
		return "", err
	}
	if err := writeAverage(filepath.Join(runDir, averageFile), ds.Average); err != nil {
		return "", err
	}

	if s.chart && len(ds.Average) > 0 {
		f, err := os.Create(filepath.Join(runDir, chartFile))
		if err != nil {
			return "", err
		}
		defer f.Close()
		if err := export.SpectrumPNG(f, ds, s.size); err != nil {
			return "", fmt.Errorf("render chart: %w", err)
		}
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// writePasses writes one frequency row, one energy row per pass, a
// separator row and a metadata row.
func writePasses(path string, ds *sweep.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if len(ds.Passes) > 0 {
		if err := w.Write(floatRow(ds.Passes[0].Frequencies())); err != nil {
			return err
		}
	}
	for _, p := range ds.Passes {
		if err := w.Write(floatRow(p.Energies())); err != nil {
			return err
		}
	}

	sep := make([]string, 8)
	for i := range sep {
		sep[i] = separator
	}
	if err := w.Write(sep); err != nil {
		return err
	}

	m := ds.Meta
	if err := w.Write([]string{
		"Network: " + m.NetworkName,
		"Time multiplier: " + formatFloat(m.TimeMultiplier),
		"Force amplitude: " + formatFloat(m.Amplitude),
		"Passes: " + strconv.Itoa(m.Passes),
		"Maximum frequency: " + formatFloat(m.FrequencyLimit),
		"Damping: " + formatFloat(m.Damping),
		"Frequency step: " + formatFloat(m.FrequencyStep),
		"Step duration: " + formatFloat(m.Window),
		"Time elapsed in seconds: " + formatFloat(m.ElapsedSeconds),
	}); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func floatRow(vals []float64) []string {
	row := make([]string, len(vals))
	for i, v := range vals {
		row[i] = formatFloat(v)
	}
	return row
}

func writeAverage(path string, avg []sweep.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"frequency", "energy"}); err != nil {
		return err
	}
	for _, smp := range avg {
		if err := w.Write([]string{formatFloat(smp.Frequency), formatFloat(smp.Energy)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the saved runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].SavedAt.Before(runs[j].SavedAt) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", runID, ErrNoRun)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func (s *Store) LoadAverage(runID string) ([]sweep.Sample, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, averageFile))
	if err != nil {
		return nil, err
	}

	out := make([]sweep.Sample, 0, len(records))
	for i, record := range records {
		if i == 0 || len(record) < 2 {
			continue
		}
		f, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("average row %d: %w", i, err)
		}
		e, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("average row %d: %w", i, err)
		}
		out = append(out, sweep.Sample{Frequency: f, Energy: e})
	}
	return out, nil
}

// LoadPasses reads the per-pass series back from passes.csv.
func (s *Store) LoadPasses(runID string) ([]sweep.Pass, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, passesFile))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || (len(records[0]) > 0 && records[0][0] == separator) {
		return []sweep.Pass{}, nil
	}

	freqs, err := parseRow(records[0])
	if err != nil {
		return nil, fmt.Errorf("frequency row: %w", err)
	}

	var passes []sweep.Pass
	for i := 1; i < len(records); i++ {
		if len(records[i]) > 0 && records[i][0] == separator {
			break
		}
		energies, err := parseRow(records[i])
		if err != nil {
			return nil, fmt.Errorf("pass row %d: %w", i, err)
		}
		pass := sweep.Pass{Index: len(passes) + 1}
		for j := 0; j < min(len(freqs), len(energies)); j++ {
			pass.Samples = append(pass.Samples, sweep.Sample{Frequency: freqs[j], Energy: energies[j]})
		}
		passes = append(passes, pass)
	}
	return passes, nil
}

// LoadDataset reassembles a saved run.
func (s *Store) LoadDataset(runID string) (*sweep.Dataset, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	passes, err := s.LoadPasses(runID)
	if err != nil {
		return nil, err
	}
	avg, err := s.LoadAverage(runID)
	if err != nil {
		return nil, err
	}
	return &sweep.Dataset{Meta: meta.Sweep, Passes: passes, Average: avg}, nil
}

func parseRow(record []string) ([]float64, error) {
	out := make([]float64, len(record))
	for i, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
