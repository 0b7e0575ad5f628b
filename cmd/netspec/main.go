package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/netspec/internal/analysis"
	"github.com/san-kum/netspec/internal/automation"
	"github.com/san-kum/netspec/internal/config"
	"github.com/san-kum/netspec/internal/dynamo"
	"github.com/san-kum/netspec/internal/experiment"
	"github.com/san-kum/netspec/internal/export"
	"github.com/san-kum/netspec/internal/metrics"
	"github.com/san-kum/netspec/internal/optim"
	"github.com/san-kum/netspec/internal/physics"
	"github.com/san-kum/netspec/internal/sim"
	"github.com/san-kum/netspec/internal/storage"
	"github.com/san-kum/netspec/internal/sweep"
	"github.com/san-kum/netspec/internal/viz"
)

var (
	dataDir string
	verbose bool

	configFile string
	preset     string
	chain      int
	integrator string
	dt         float64
	realtime   bool
	live       bool
	seeds      int
	jitter     float64
	chart      bool

	amplitude  float64
	step       float64
	limit      float64
	passes     int
	window     float64
	damping    float64
	gravity    float64
	multiplier float64

	node     int
	ringDt   float64
	duration float64
	peaks    int
	modes    int
	outFile  string

	grid      []string
	scoreName string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "netspec",
		Short:        "spring network frequency-sweep spectroscopy",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultOutputDir, "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a frequency sweep and save the spectrum",
		RunE:  runSweep,
	}
	networkFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	sweepCmd.Flags().BoolVar(&realtime, "realtime", false, "pace ticks to the wall clock")
	sweepCmd.Flags().BoolVar(&live, "live", false, "show the live terminal view")
	sweepCmd.Flags().IntVar(&seeds, "seeds", 1, "independent jittered runs to combine")
	sweepCmd.Flags().BoolVar(&chart, "chart", true, "render spectrum.png")
	sweepCmd.Flags().IntVar(&peaks, "peaks", 3, "resonances to report")
	sweepCmd.Flags().Float64Var(&amplitude, "amplitude", 5, "driving amplitude")
	sweepCmd.Flags().Float64Var(&step, "step", 0.0125, "frequency step")
	sweepCmd.Flags().Float64Var(&limit, "limit", 2, "frequency limit")
	sweepCmd.Flags().IntVar(&passes, "passes", 3, "number of passes")
	sweepCmd.Flags().Float64Var(&window, "window", 10, "simulated seconds per sample")
	sweepCmd.Flags().Float64Var(&damping, "damping", 20, "damping while driving")
	sweepCmd.Flags().Float64Var(&gravity, "gravity", 0, "gravity")
	sweepCmd.Flags().Float64Var(&multiplier, "multiplier", 1, "time multiplier [1, 16]")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "check a sweep configuration",
		RunE:  validateConfig,
	}
	networkFlags(validateCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the averaged spectrum of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&peaks, "peaks", 3, "resonances to report")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export the averaged spectrum as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	drawCmd := &cobra.Command{
		Use:   "draw",
		Short: "draw the configured network as SVG",
		RunE:  drawNetwork,
	}
	networkFlags(drawCmd)
	drawCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	ringdownCmd := &cobra.Command{
		Use:   "ringdown",
		Short: "estimate natural frequencies from a free ringdown",
		RunE:  runRingdown,
	}
	networkFlags(ringdownCmd)
	ringdownCmd.Flags().Float64Var(&ringDt, "step-size", 0.01, "integration timestep")
	ringdownCmd.Flags().Float64Var(&duration, "time", 200, "simulated seconds")
	ringdownCmd.Flags().IntVar(&node, "node", 0, "node index to kick")
	ringdownCmd.Flags().IntVar(&modes, "modes", 3, "modes to report")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of sweeps",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search sweep parameters for the sharpest resonance",
		RunE:  runTune,
	}
	networkFlags(tuneCmd)
	tuneCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	tuneCmd.Flags().StringArrayVar(&grid, "grid", []string{"damping=10:30:5"}, "parameter=lo:hi:n, repeatable")
	tuneCmd.Flags().StringVar(&scoreName, "score", "q", "score: q or energy")

	presetsCmd := &cobra.Command{
		Use:   "presets [family]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			families := config.ListFamilies()
			if len(args) == 1 {
				families = args
			}
			for _, f := range families {
				presets := config.ListPresets(f)
				if len(presets) == 0 {
					fmt.Printf("no presets for family: %s\n", f)
					continue
				}
				fmt.Printf("%s:\n", f)
				for _, p := range presets {
					fmt.Printf("  %s/%s\n", f, p)
				}
			}
			return nil
		},
	}

	rootCmd.AddCommand(sweepCmd, validateCmd, listCmd, plotCmd, exportJSONCmd, exportSVGCmd, drawCmd, ringdownCmd, scenarioCmd, tuneCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func networkFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "preset as family/name")
	cmd.Flags().IntVar(&chain, "chain", config.DefaultChain, "generated chain length")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator")
	cmd.Flags().Float64Var(&jitter, "jitter", 0, "initial position jitter")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig layers defaults, the preset, the config file and finally the
// flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p, err := config.ParsePreset(preset)
		if err != nil {
			return nil, err
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("chain") {
		cfg.Network = config.NetworkConfig{Chain: chain}
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("jitter") {
		cfg.Layout.Jitter = jitter
	}
	if flags.Changed("dt") {
		cfg.Sim.Dt = dt
	}
	if flags.Changed("realtime") {
		cfg.Sim.RealTime = realtime
	}
	if flags.Changed("chart") {
		cfg.Output.Chart = chart
	}
	if flags.Changed("data") {
		cfg.Output.Dir = dataDir
	}

	p := &cfg.Sweep
	if flags.Changed("amplitude") {
		p.Amplitude = amplitude
	}
	if flags.Changed("step") {
		p.FrequencyStep = step
	}
	if flags.Changed("limit") {
		p.FrequencyLimit = limit
	}
	if flags.Changed("passes") {
		p.Passes = passes
	}
	if flags.Changed("window") {
		p.Window = window
	}
	if flags.Changed("damping") {
		p.Damping = damping
	}
	if flags.Changed("gravity") {
		p.Gravity = gravity
	}
	if flags.Changed("multiplier") {
		p.TimeMultiplier = multiplier
	}
	return cfg, nil
}

func newStore(cfg *config.Config) *storage.Store {
	dir := cfg.Output.Dir
	if dir == "" {
		dir = dataDir
	}
	if !cfg.Output.Chart {
		return storage.New(dir)
	}
	size := export.DefaultChartSize()
	if cfg.Output.ChartWidth > 0 {
		size.Width = cfg.Output.ChartWidth
	}
	if cfg.Output.ChartHeight > 0 {
		size.Height = cfg.Output.ChartHeight
	}
	if cfg.Output.ChartDPI > 0 {
		size.DPI = cfg.Output.ChartDPI
	}
	return storage.New(dir, storage.WithChart(size))
}

func printValidation(v sweep.Validation) {
	for _, w := range v.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	for _, e := range v.Errors {
		fmt.Printf("error: %s\n", e)
	}
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	v := cfg.Sweep.Validate()
	printValidation(v)
	if err := v.Err(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := newLogger()
	st := newStore(cfg)
	if err := st.Init(); err != nil {
		return err
	}

	if live {
		return runLive(ctx, cfg, st)
	}

	start := time.Now()
	var ds *sweep.Dataset
	if seeds > 1 {
		ds, err = runEnsemble(ctx, cfg, logger)
	} else {
		ds, err = runSingle(ctx, cfg, logger)
	}
	if err != nil {
		return err
	}
	if ds == nil {
		fmt.Println("sweep stopped before finishing")
		return nil
	}

	runID, err := st.Save(ds)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("passes: %d, samples per pass: %d\n", len(ds.Passes), len(ds.Average))
	printResonances(ds.Average)
	return nil
}

func runSingle(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sweep.Dataset, error) {
	exp, err := experiment.New(cfg, sim.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	fmt.Printf("sweeping %s: %d passes of %d samples\n",
		exp.Network().Name, cfg.Sweep.Passes, cfg.Sweep.SamplesPerPass())
	return exp.Run(ctx)
}

// runEnsemble sweeps one jittered copy of the network per seed and folds
// their averages together.
func runEnsemble(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sweep.Dataset, error) {
	if cfg.Layout.Jitter == 0 {
		logger.Warn("ensemble runs are identical without --jitter")
	}
	factory := func(i int) (*sim.Simulator, error) {
		c := *cfg
		c.Layout.Seed = cfg.Layout.Seed + int64(i)
		exp, err := experiment.New(&c, sim.WithLogger(logger.With("run", i)))
		if err != nil {
			return nil, err
		}
		return exp.GetSimulator(), nil
	}

	fmt.Printf("sweeping %d seeds\n", seeds)
	results, err := sim.NewEnsemble(factory, seeds).Run(ctx, cfg.Sweep)
	if err != nil {
		return nil, err
	}
	for _, ds := range results {
		if ds == nil {
			return nil, nil
		}
	}
	return sim.Combine(results), nil
}

// runLive hands the terminal to the view; every sweep finished there is
// saved through the store.
func runLive(ctx context.Context, cfg *config.Config, st *storage.Store) error {
	exp, err := experiment.New(cfg, sim.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), sim.WithExporter(st))
	if err != nil {
		return err
	}
	s := exp.GetSimulator()

	ds, err := viz.Run(ctx, s, cfg.Sweep, cfg.Sim.Dt)
	if err != nil {
		return err
	}
	if err := s.LastExportError(); err != nil {
		return fmt.Errorf("saving sweep: %w", err)
	}
	if ds != nil {
		fmt.Printf("last sweep saved under %s\n", cfg.Output.Dir)
		printResonances(ds.Average)
	}
	return nil
}

func printResonances(series []sweep.Sample) {
	found := analysis.Resonances(series, peaks)
	if len(found) == 0 {
		return
	}
	fmt.Println("\nresonances:")
	for _, r := range found {
		i := indexOf(series, r)
		width, q := analysis.HalfPowerWidth(series, i)
		if width > 0 {
			fmt.Printf("  %.4f  energy %.4g  width %.4f  Q %.1f\n", r.Frequency, r.Energy, width, q)
		} else {
			fmt.Printf("  %.4f  energy %.4g\n", r.Frequency, r.Energy)
		}
	}
}

func indexOf(series []sweep.Sample, s sweep.Sample) int {
	for i := range series {
		if series[i] == s {
			return i
		}
	}
	return 0
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if _, err := experiment.BuildNetwork(cfg.Network, cfg.Layout); err != nil {
		return err
	}
	if _, err := experiment.NewRegistry().GetIntegrator(cfg.Integrator); err != nil {
		return err
	}
	v := cfg.Sweep.Validate()
	printValidation(v)
	if err := v.Err(); err != nil {
		return err
	}
	fmt.Printf("ok: %d passes of %d samples\n", cfg.Sweep.Passes, cfg.Sweep.SamplesPerPass())
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNETWORK\tSAVED\tPASSES\tSAMPLES\tPEAK FREQ\tPEAK ENERGY")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.4f\t%.4g\n",
			run.ID,
			run.Sweep.NetworkName,
			run.SavedAt.Format("2006-01-02 15:04:05"),
			run.Sweep.Passes,
			run.Samples,
			run.Peak.Frequency,
			run.Peak.Energy,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	avg, err := st.LoadAverage(runID)
	if err != nil {
		return err
	}
	if len(avg) < 2 {
		return export.ErrNoData
	}

	energies := make([]float64, len(avg))
	for i, s := range avg {
		energies[i] = s.Energy
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("network: %s\n", meta.Sweep.NetworkName)
	fmt.Printf("samples: %d\n\n", len(avg))

	graph := asciigraph.Plot(energies,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("mean max energy, 0 to %.3g", avg[len(avg)-1].Frequency)),
	)
	fmt.Println(graph)

	printResonances(avg)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	ds, err := storage.New(dataDir).LoadDataset(args[0])
	if err != nil {
		return err
	}
	return export.WriteJSON(os.Stdout, ds)
}

func writeOut(s string) error {
	if outFile == "" {
		_, err := fmt.Print(s)
		return err
	}
	return os.WriteFile(outFile, []byte(s), 0644)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	ds, err := storage.New(dataDir).LoadDataset(args[0])
	if err != nil {
		return err
	}
	return writeOut(export.SpectrumSVG(ds, 800, 400))
}

func drawNetwork(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	net, err := experiment.BuildNetwork(cfg.Network, cfg.Layout)
	if err != nil {
		return err
	}
	return writeOut(export.NetworkSVG(net, 600, sim.Wall))
}

func runRingdown(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	net, err := experiment.BuildNetwork(cfg.Network, cfg.Layout)
	if err != nil {
		return err
	}
	if node < 0 || node >= net.NumNodes() {
		return fmt.Errorf("node %d: %w", node, sim.ErrUnknownNode)
	}
	integ, err := experiment.NewRegistry().GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	steps := int(duration / ringDt)
	drift := metrics.NewEnergyDrift(physics.NewForceModel(net, physics.Params{}))
	contained := metrics.NewContainment(sim.Wall)
	found, err := analysis.Ringdown(net, integ, ringDt, steps, node, drift, contained)
	if errors.Is(err, dynamo.ErrInvalidState) {
		return fmt.Errorf("ringdown diverged, try a smaller --step-size: %w", err)
	}
	if err != nil {
		return err
	}

	fmt.Printf("ringdown of %s, node %d kicked, %d steps of %g\n", net.Name, node, steps, ringDt)
	fmt.Printf("  energy drift %.2e, inside walls %.1f%%\n", drift.Value(), 100*contained.Value())
	if len(found) > modes {
		found = found[:modes]
	}
	for i, f := range found {
		fmt.Printf("  mode %d: %.4f hz\n", i+1, f)
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st := storage.New(dataDir)
	results, err := automation.RunScenario(ctx, sc, st, newLogger())
	for _, r := range results {
		peak := analysis.Resonances(r.Dataset.Average, 1)
		if len(peak) > 0 {
			fmt.Printf("%-16s %s  peak %.4f (%.4g)\n", r.Step, r.RunID, peak[0].Frequency, peak[0].Energy)
		} else {
			fmt.Printf("%-16s %s\n", r.Step, r.RunID)
		}
	}
	return err
}

// parseGrid reads name=lo:hi:n.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, rest, ok := strings.Cut(spec, "=")
		parts := strings.Split(rest, ":")
		if !ok || len(parts) != 3 {
			return nil, nil, fmt.Errorf("grid %q: want name=lo:hi:n", spec)
		}
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err := errors.Join(err1, err2, err3); err != nil {
			return nil, nil, fmt.Errorf("grid %q: %w", spec, err)
		}
		names = append(names, name)
		ranges = append(ranges, optim.Range(lo, hi, n))
	}
	return names, ranges, nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	score, ok := optim.Scores[scoreName]
	if !ok {
		return fmt.Errorf("unknown score %q", scoreName)
	}
	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := newLogger()
	run := func(ctx context.Context, p sweep.Params) (*sweep.Dataset, error) {
		c := *cfg
		c.Sweep = p
		exp, err := experiment.New(&c, sim.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return exp.Run(ctx)
	}

	g := optim.NewGridSearch(names, ranges)
	fmt.Printf("searching %d grid points\n", g.Size())
	best, trials, err := g.Search(ctx, cfg.Sweep, run, score)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\tSCORE")
	for _, t := range trials {
		for _, n := range names {
			fmt.Fprintf(w, "%.4g\t", t.Values[n])
		}
		fmt.Fprintf(w, "%.4g\n", t.Score)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nbest: %v score %.4g\n", best.Values, best.Score)
	return nil
}
