package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/spinlab-sim/spinlab/internal/analysis"
	"github.com/spinlab-sim/spinlab/internal/config"
	"github.com/spinlab-sim/spinlab/internal/engine"
	"github.com/spinlab-sim/spinlab/internal/lattice"
	"github.com/spinlab-sim/spinlab/internal/render"
	"github.com/spinlab-sim/spinlab/internal/storage"
	"github.com/spinlab-sim/spinlab/internal/tui"
)

var (
	dataDir    string
	configFile string
	logLevel   string

	model      string
	width      int
	height     int
	temp       float64
	seed       int64
	weighted   bool
	defectFrac float64
	lambda     float64
	fps        int
	maxRate    float64
	window     int
	presetName string

	runTime time.Duration

	sweepStart   float64
	sweepEnd     float64
	sweepStep    float64
	sweepEquil   time.Duration
	sweepDwell   time.Duration
	sweepGap     time.Duration
	sweepSamples int
	sweepSnaps   bool
	csvOut       string
	svgOut       string

	exportFormat string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "spinlab [model]",
		Short: "lattice spin simulation lab",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	addLatticeFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&model, "model", lattice.ModelIsing, "lattice model (ising, softspin)")
		cmd.Flags().IntVar(&width, "width", config.DefaultWidth, "lattice width")
		cmd.Flags().IntVar(&height, "height", config.DefaultHeight, "lattice height")
		cmd.Flags().Float64Var(&temp, "temp", config.DefaultTemperature, "temperature")
		cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
		cmd.Flags().BoolVar(&weighted, "weighted", false, "frozen random bond weights")
		cmd.Flags().Float64Var(&defectFrac, "defects", 0, "initial defect fraction")
		cmd.Flags().Float64Var(&lambda, "lambda", 0, "double-well strength (softspin)")
		cmd.Flags().Float64Var(&maxRate, "max-rate", 0, "trial rate limit per second (0 = unthrottled)")
		cmd.Flags().IntVar(&window, "window", config.DefaultWindow, "stats window length")
		cmd.Flags().StringVar(&presetName, "preset", "", "named preset configuration")
	}

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "interactive lattice laboratory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addLatticeFlags(liveCmd)
	liveCmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "frame rate")
	addLatticeFlags(rootCmd)
	rootCmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "frame rate")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "headless simulation run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHeadless,
	}
	addLatticeFlags(runCmd)
	runCmd.Flags().DurationVar(&runTime, "time", 10*time.Second, "run duration")
	runCmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "sampling rate")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "temperature sweep with observables",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweepCmd,
	}
	addLatticeFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&sweepStart, "start", 1.0, "start temperature")
	sweepCmd.Flags().Float64Var(&sweepEnd, "end", 3.5, "end temperature")
	sweepCmd.Flags().Float64Var(&sweepStep, "step", 0.25, "temperature increment")
	sweepCmd.Flags().DurationVar(&sweepEquil, "equilibrate", 2*time.Second, "settle time before the first point")
	sweepCmd.Flags().DurationVar(&sweepDwell, "dwell", time.Second, "settle time per temperature")
	sweepCmd.Flags().DurationVar(&sweepGap, "gap", 100*time.Millisecond, "wait between samples")
	sweepCmd.Flags().IntVar(&sweepSamples, "samples", 10, "samples per temperature")
	sweepCmd.Flags().BoolVar(&sweepSnaps, "snapshots", false, "save a snapshot per temperature")
	sweepCmd.Flags().StringVar(&csvOut, "csv", "", "write sweep points to a CSV file")
	sweepCmd.Flags().StringVar(&svgOut, "svg", "", "write the magnetization curve to an SVG file")

	sweepsCmd := &cobra.Command{
		Use:   "sweeps",
		Short: "list archived sweeps",
		RunE:  listSweeps,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format (json, csv, svg)")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list preset configurations",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [model]",
		Short: "equilibrate and report observables",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeLattice,
	}
	addLatticeFlags(analyzeCmd)
	analyzeCmd.Flags().DurationVar(&runTime, "time", 3*time.Second, "equilibration time")

	benchCmd := &cobra.Command{
		Use:   "bench [model]",
		Short: "benchmark trial throughput",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchThroughput,
	}
	benchCmd.Flags().StringVar(&model, "model", lattice.ModelIsing, "lattice model")
	benchCmd.Flags().Float64Var(&temp, "temp", config.DefaultTemperature, "temperature")
	benchCmd.Flags().DurationVar(&runTime, "time", 2*time.Second, "measurement window per size")

	rootCmd.AddCommand(liveCmd, runCmd, sweepCmd, sweepsCmd, listCmd, plotCmd, exportCmd, presetsCmd, analyzeCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildConfig layers preset, config file, a positional model argument,
// and changed flags, in that order of increasing precedence.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	if len(args) > 0 && !cmd.Flags().Changed("model") {
		model = args[0]
	}
	cfg := config.DefaultConfig()

	if presetName != "" {
		p := config.GetPreset(model, presetName)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q for %s (available: %v)",
				presetName, model, config.ListPresets(model))
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("model") || len(args) > 0 {
		cfg.Model = model
	}
	if flags.Changed("width") {
		cfg.Width = width
	}
	if flags.Changed("height") {
		cfg.Height = height
	}
	if flags.Changed("temp") {
		cfg.Temperature = temp
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("weighted") {
		cfg.Weighted = weighted
	}
	if flags.Changed("defects") {
		cfg.DefectFrac = defectFrac
	}
	if flags.Changed("lambda") {
		cfg.Lambda = lambda
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	if flags.Changed("max-rate") {
		cfg.MaxRate = maxRate
	}
	if flags.Changed("window") {
		cfg.Window = window
	}
	if cmd.Root().PersistentFlags().Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w *os.File) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func newSession(cfg *config.Config, log *slog.Logger) (*engine.Session, error) {
	lat, err := lattice.New(cfg.LatticeSpec())
	if err != nil {
		return nil, err
	}
	ses, err := engine.NewSession(lat, engine.Options{
		Temperature: cfg.Temperature,
		Window:      cfg.Window,
		Seed:        cfg.Seed,
		MaxRate:     cfg.MaxRate,
		Snapshots:   render.PNGSink{Dir: filepath.Join(cfg.DataDir, "snapshots")},
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}
	ses.State().SetBrush(cfg.BrushRadius, engine.BrushFlip)
	return ses, nil
}

// ignoreCtxDone filters the errors a clean shutdown produces.
func ignoreCtxDone(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return err
	}
	// The terminal belongs to the UI; logs go to a file instead.
	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "spinlab.log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer logFile.Close()
	log := newLogger(logFile)

	ses, err := newSession(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCtxDone(ses.Run(gctx))
	})

	p := tea.NewProgram(tui.New(ses, cfg, log), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if configFile != "" {
		g.Go(func() error {
			return ignoreCtxDone(config.Watch(gctx, configFile, log, func(c *config.Config) {
				p.Send(tui.ConfigMsg{Cfg: c})
			}))
		})
	}

	_, uiErr := p.Run()
	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	return uiErr
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	log := newLogger(os.Stderr)
	ses, err := newSession(cfg, log)
	if err != nil {
		return err
	}
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var series []storage.SeriesPoint
	var totalSteps int64

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return ignoreCtxDone(ses.Run(gctx))
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Second / time.Duration(cfg.FPS))
		defer ticker.Stop()
		deadline := time.NewTimer(runTime)
		defer deadline.Stop()
		state := ses.State()
		frame := 0
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-deadline.C:
				cancel()
				return nil
			case <-ticker.C:
				steps := state.TakeSteps()
				totalSteps += steps
				lat := state.Lattice()
				series = append(series, storage.SeriesPoint{
					Frame:         frame,
					StepsPerFrame: float64(steps),
					Magnetization: analysis.Magnetization(lat),
					Energy:        analysis.EnergyPerSite(lat),
				})
				frame++
			}
		}
	})

	start := time.Now()
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	lat := ses.State().Lattice()
	mag := analysis.Magnetization(lat)
	energy := analysis.EnergyPerSite(lat)
	meta := storage.RunMetadata{
		Model:       lat.Model(),
		Seed:        cfg.Seed,
		Width:       lat.Width(),
		Height:      lat.Height(),
		Temperature: ses.State().Temperature(),
		Weighted:    lat.Weighted(),
		Defects:     lat.Defects(),
		Steps:       totalSteps,
		Duration:    elapsed.Seconds(),
		Observables: map[string]float64{
			"magnetization": mag,
			"energy":        energy,
		},
	}
	runID, err := st.Save(meta, series)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "run id\t%s\n", runID)
	fmt.Fprintf(w, "model\t%s %dx%d\n", lat.Model(), lat.Width(), lat.Height())
	fmt.Fprintf(w, "temperature\t%.3f\n", meta.Temperature)
	fmt.Fprintf(w, "trials\t%d (%.0f/s)\n", totalSteps, float64(totalSteps)/elapsed.Seconds())
	fmt.Fprintf(w, "magnetization\t%+.4f\n", mag)
	fmt.Fprintf(w, "energy/site\t%+.4f\n", energy)
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(render.FromFrame(render.Capture(lat)).String())
	return nil
}

func runSweepCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	log := newLogger(os.Stderr)
	ses, err := newSession(cfg, log)
	if err != nil {
		return err
	}

	sc := engine.SweepConfig{
		Start:       sweepStart,
		End:         sweepEnd,
		Step:        sweepStep,
		Equilibrate: sweepEquil,
		Dwell:       sweepDwell,
		Samples:     sweepSamples,
		Gap:         sweepGap,
		Snapshots:   sweepSnaps,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()

	var points []engine.SweepPoint
	g, gctx := errgroup.WithContext(loopCtx)
	g.Go(func() error {
		return ignoreCtxDone(ses.Run(gctx))
	})
	g.Go(func() error {
		defer stopLoop()
		var serr error
		points, serr = ses.RunSweep(gctx, sc)
		return ignoreCtxDone(serr)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if len(points) == 0 {
		return errors.New("sweep produced no points")
	}

	db, err := storage.OpenSweepDB(cfg.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()
	recs := make([]storage.SweepPointRecord, len(points))
	temps := make([]float64, len(points))
	mags := make([]float64, len(points))
	for i, p := range points {
		recs[i] = storage.SweepPointRecord{
			Temp: p.Temp, Mag: p.Mag, MagVar: p.MagVar,
			Chi: p.Chi, Binder: p.Binder, Corr: p.Corr,
		}
		temps[i] = p.Temp
		mags[i] = p.Mag
	}
	sweepID, err := db.SaveSweep(context.Background(), storage.SweepMetadata{
		Model: cfg.Model, Width: cfg.Width, Height: cfg.Height, Seed: cfg.Seed,
		StartTemp: sc.Start, EndTemp: sc.End, StepTemp: sc.Step, Samples: sc.Samples,
	}, recs)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TEMP\tMAG\tVAR\tCHI\tBINDER")
	for _, p := range points {
		fmt.Fprintf(w, "%.3f\t%+.4f\t%.5f\t%.3f\t%.4f\n",
			p.Temp, p.Mag, p.MagVar, p.Chi, p.Binder)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(asciigraph.Plot(mags,
		asciigraph.Height(10), asciigraph.Width(60),
		asciigraph.Caption(fmt.Sprintf("|m| vs T (%.2f..%.2f)", sc.Start, sc.End))))
	fmt.Printf("\narchived as sweep %d\n", sweepID)

	if csvOut != "" {
		f, err := os.Create(csvOut)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := storage.ExportSweepCSV(f, recs); err != nil {
			return err
		}
	}
	if svgOut != "" {
		svg := render.CurveSVG(temps, mags, 640, 400, "#4488cc")
		if err := os.WriteFile(svgOut, []byte(svg), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func listSweeps(cmd *cobra.Command, args []string) error {
	db, err := storage.OpenSweepDB(dataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	sweeps, err := db.ListSweeps(context.Background())
	if err != nil {
		return err
	}
	if len(sweeps) == 0 {
		fmt.Println("no sweeps archived")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tSIZE\tRANGE\tSTEP\tPOINTS\tCREATED")
	for _, s := range sweeps {
		fmt.Fprintf(w, "%d\t%s\t%dx%d\t%.2f..%.2f\t%.2f\t%d\t%s\n",
			s.ID, s.Model, s.Width, s.Height,
			s.StartTemp, s.EndTemp, s.StepTemp, s.Points,
			s.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
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
	fmt.Fprintln(w, "ID\tMODEL\tSIZE\tTEMP\tTRIALS\tTIME")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%.3f\t%d\t%s\n",
			run.ID, run.Model, run.Width, run.Height,
			run.Temperature, run.Steps,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	if len(series) < 2 {
		return errors.New("not enough data to plot")
	}

	fmt.Printf("run: %s (%s %dx%d, T=%.3f)\n\n",
		meta.ID, meta.Model, meta.Width, meta.Height, meta.Temperature)

	mags := make([]float64, len(series))
	energies := make([]float64, len(series))
	rates := make([]float64, len(series))
	for i, p := range series {
		mags[i] = p.Magnetization
		energies[i] = p.Energy
		rates[i] = p.StepsPerFrame
	}

	for _, plot := range []struct {
		data    []float64
		caption string
	}{
		{mags, "magnetization"},
		{energies, "energy per site"},
		{rates, "trials per frame"},
	} {
		fmt.Println(asciigraph.Plot(plot.data,
			asciigraph.Height(8), asciigraph.Width(70),
			asciigraph.Caption(plot.caption)))
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	series, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}

	switch exportFormat {
	case "json":
		return storage.ExportJSON(os.Stdout, meta, series)
	case "csv":
		return storage.ExportCSV(os.Stdout, series)
	case "svg":
		xs := make([]float64, len(series))
		ys := make([]float64, len(series))
		for i, p := range series {
			xs[i] = float64(p.Frame)
			ys[i] = p.Magnetization
		}
		_, err := fmt.Fprintln(os.Stdout, render.CurveSVG(xs, ys, 640, 400, "#4488cc"))
		return err
	default:
		return fmt.Errorf("unknown export format %q (json, csv, svg)", exportFormat)
	}
}

func listPresets(cmd *cobra.Command, args []string) error {
	models := lattice.Models()
	if len(args) == 1 {
		models = args[:1]
	}
	for _, m := range models {
		names := config.ListPresets(m)
		if len(names) == 0 {
			fmt.Printf("%s: no presets\n", m)
			continue
		}
		fmt.Printf("%s:\n", m)
		for _, name := range names {
			p := config.GetPreset(m, name)
			fmt.Printf("  %-12s %dx%d T=%.3f\n", name, p.Width, p.Height, p.Temperature)
		}
	}
	return nil
}

func analyzeLattice(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	log := newLogger(os.Stderr)
	ses, err := newSession(cfg, log)
	if err != nil {
		return err
	}

	fmt.Printf("equilibrating %s %dx%d at T=%.3f for %v...\n",
		cfg.Model, cfg.Width, cfg.Height, cfg.Temperature, runTime)
	ctx, cancel := context.WithTimeout(context.Background(), runTime)
	defer cancel()
	if err := ignoreCtxDone(ses.Run(ctx)); err != nil {
		return err
	}

	lat := ses.State().Lattice()
	trials := ses.State().TakeSteps()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "trials\t%d\n", trials)
	fmt.Fprintf(w, "magnetization\t%+.4f\n", analysis.Magnetization(lat))
	fmt.Fprintf(w, "energy/site\t%+.4f\n", analysis.EnergyPerSite(lat))
	fmt.Fprintf(w, "defects\t%d\n", lat.Defects())
	if err := w.Flush(); err != nil {
		return err
	}

	corr := analysis.SelectCorrelation(lat)
	dists := engine.DefaultDistances(lat)
	fmt.Println("\ncorrelation:")
	cw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(cw, "DIST\tC(d)")
	for i, c := range corr(lat, dists) {
		fmt.Fprintf(cw, "%d\t%+.4f\n", dists[i], c)
	}
	if err := cw.Flush(); err != nil {
		return err
	}

	if sf := analysis.StructureFactor(lat); len(sf) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(sf,
			asciigraph.Height(8), asciigraph.Width(60),
			asciigraph.Caption("structure factor")))
	}
	return nil
}

func benchThroughput(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		model = args[0]
	}
	log := newLogger(os.Stderr)
	sizes := []int{32, 64, 128, 256}

	fmt.Printf("benchmarking %s at T=%.3f, %v per size\n\n", model, temp, runTime)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIZE\tSITES\tTRIALS\tTRIALS/SEC")

	for _, n := range sizes {
		lat, err := lattice.New(lattice.Spec{Model: model, Width: n, Height: n, Seed: 42})
		if err != nil {
			return err
		}
		ses, err := engine.NewSession(lat, engine.Options{
			Temperature: temp,
			Seed:        42,
			Logger:      log,
		})
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), runTime)
		start := time.Now()
		err = ignoreCtxDone(ses.Run(ctx))
		elapsed := time.Since(start)
		cancel()
		if err != nil {
			return err
		}

		trials := ses.State().TakeSteps()
		fmt.Fprintf(w, "%dx%d\t%d\t%d\t%.0f\n",
			n, n, n*n, trials, float64(trials)/elapsed.Seconds())
	}
	return w.Flush()
}
