// Package tui is the live lattice laboratory: a bubbletea front end
// over an engine session with mouse painting, temperature control, and
// in-place sweeps.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/spinlab-sim/spinlab/internal/analysis"
	"github.com/spinlab-sim/spinlab/internal/config"
	"github.com/spinlab-sim/spinlab/internal/engine"
	"github.com/spinlab-sim/spinlab/internal/lattice"
	"github.com/spinlab-sim/spinlab/internal/render"
	"github.com/spinlab-sim/spinlab/internal/storage"
)

// Canvas offset inside the rendered view, used to map mouse clicks back
// onto lattice coordinates. Two terminal cells per site.
const (
	canvasTop  = 3
	canvasLeft = 2
)

const tempNudge = 0.05

type TickMsg time.Time

// ConfigMsg carries a reloaded configuration into the running UI.
type ConfigMsg struct {
	Cfg *config.Config
}

type sweepDoneMsg struct {
	points []engine.SweepPoint
	err    error
}

type chartMode int

const (
	chartMag chartMode = iota
	chartRate
	chartSpectrum
)

func (c chartMode) String() string {
	switch c {
	case chartMag:
		return "magnetization"
	case chartRate:
		return "steps/frame"
	case chartSpectrum:
		return "structure factor"
	}
	return "unknown"
}

// Model is the bubbletea model for the live laboratory.
type Model struct {
	ses *engine.Session
	cfg *config.Config
	log *slog.Logger

	chart     chartMode
	rec       *render.Recorder
	recording bool
	showHelp  bool
	status    string

	sweepCancel context.CancelFunc
}

// New builds the UI model over a running session.
func New(ses *engine.Session, cfg *config.Config, log *slog.Logger) Model {
	return Model{
		ses: ses,
		cfg: cfg,
		log: log,
		rec: render.NewRecorder(),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.cfg.FPS), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input, ticks, and sweep completion.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if msg.Button == tea.MouseButtonLeft &&
			(msg.Action == tea.MouseActionPress || msg.Action == tea.MouseActionMotion) {
			m.ses.Paint((msg.X-canvasLeft)/2, msg.Y-canvasTop)
		}
		return m, nil

	case TickMsg:
		m.ses.FrameTick()
		if m.recording {
			if f := m.ses.Frame(); f != nil {
				m.rec.Add(f, 100/m.cfg.FPS)
			}
		}
		return m, m.tick()

	case ConfigMsg:
		return m.applyConfig(msg.Cfg)

	case sweepDoneMsg:
		if m.sweepCancel != nil {
			m.sweepCancel()
			m.sweepCancel = nil
		}
		switch {
		case errors.Is(msg.err, engine.ErrSweepActive):
			m.status = "sweep already running"
		case msg.err != nil:
			m.status = fmt.Sprintf("sweep stopped: %v (%d points)", msg.err, len(msg.points))
		default:
			m.status = fmt.Sprintf("sweep finished: %d points archived", len(msg.points))
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.ses.State()
	switch msg.String() {
	case "q", "ctrl+c":
		if m.sweepCancel != nil {
			m.sweepCancel()
		}
		return m, tea.Quit
	case " ":
		if st.ShouldRun() {
			st.Pause()
		} else {
			st.Resume()
		}
	case "r":
		if err := m.ses.Reset(); err != nil {
			m.status = fmt.Sprintf("reset failed: %v", err)
		} else {
			m.status = "lattice reseeded"
		}
	case "up", "k":
		st.SetTemperature(st.Temperature() + tempNudge)
	case "down", "j":
		t := st.Temperature() - tempNudge
		if t < 0 {
			t = 0
		}
		st.SetTemperature(t)
	case "[":
		r, mode := st.Brush()
		st.SetBrush(r-1, mode)
	case "]":
		r, mode := st.Brush()
		st.SetBrush(r+1, mode)
	case "b":
		r, mode := st.Brush()
		st.SetBrush(r, mode.Next())
	case "w":
		if err := m.ses.ToggleWeighted(); err != nil {
			m.status = fmt.Sprintf("bond toggle failed: %v", err)
		}
	case "x":
		return m.swapModel()
	case "s":
		if err := m.ses.Snapshot("live"); err != nil {
			m.status = fmt.Sprintf("snapshot failed: %v", err)
		} else {
			m.status = "snapshot saved"
		}
	case "g":
		return m.toggleRecording()
	case "v":
		m.chart = (m.chart + 1) % 3
	case "a":
		return m.toggleSweep()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m Model) swapModel() (tea.Model, tea.Cmd) {
	spec := m.cfg.LatticeSpec()
	if m.ses.State().Lattice().Model() == lattice.ModelIsing {
		spec.Model = lattice.ModelSoftSpin
	} else {
		spec.Model = lattice.ModelIsing
	}
	if err := m.ses.SwapLattice(spec); err != nil {
		m.status = fmt.Sprintf("model swap failed: %v", err)
	} else {
		m.status = "model: " + spec.Model
	}
	return m, nil
}

func (m Model) toggleRecording() (tea.Model, tea.Cmd) {
	if !m.recording {
		m.recording = true
		m.status = "recording"
		return m, nil
	}
	m.recording = false
	path := filepath.Join(m.cfg.DataDir, fmt.Sprintf("rec_%d.gif", time.Now().Unix()))
	if err := m.rec.Save(path); err != nil {
		m.status = fmt.Sprintf("recording save failed: %v", err)
	} else {
		m.status = "recording saved: " + path
	}
	return m, nil
}

// toggleSweep starts a background temperature sweep, or aborts the one
// in flight. Completed sweeps land in the archive under DataDir.
func (m Model) toggleSweep() (tea.Model, tea.Cmd) {
	if m.sweepCancel != nil {
		m.sweepCancel()
		m.status = "sweep aborted"
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.sweepCancel = cancel
	m.status = "sweep running"

	ses, cfg := m.ses, m.cfg
	return m, func() tea.Msg {
		sc := engine.SweepConfig{
			Start:       cfg.Sweep.Start,
			End:         cfg.Sweep.End,
			Step:        cfg.Sweep.Step,
			Equilibrate: cfg.Sweep.Equilibrate,
			Dwell:       cfg.Sweep.Dwell,
			Samples:     cfg.Sweep.Samples,
			Gap:         cfg.Sweep.Gap,
			Snapshots:   cfg.Sweep.Snapshots,
		}
		points, err := ses.RunSweep(ctx, sc)
		if err == nil && len(points) > 0 {
			if aerr := archiveSweep(ctx, cfg, ses, sc, points); aerr != nil {
				err = aerr
			}
		}
		return sweepDoneMsg{points: points, err: err}
	}
}

func archiveSweep(ctx context.Context, cfg *config.Config, ses *engine.Session, sc engine.SweepConfig, points []engine.SweepPoint) error {
	db, err := storage.OpenSweepDB(cfg.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	w, h := ses.State().Size()
	meta := storage.SweepMetadata{
		Model:     ses.State().Lattice().Model(),
		Width:     w,
		Height:    h,
		Seed:      cfg.Seed,
		StartTemp: sc.Start,
		EndTemp:   sc.End,
		StepTemp:  sc.Step,
		Samples:   sc.Samples,
	}
	recs := make([]storage.SweepPointRecord, len(points))
	for i, p := range points {
		recs[i] = storage.SweepPointRecord{
			Temp: p.Temp, Mag: p.Mag, MagVar: p.MagVar,
			Chi: p.Chi, Binder: p.Binder, Corr: p.Corr,
		}
	}
	_, err = db.SaveSweep(ctx, meta, recs)
	return err
}

// applyConfig folds a reloaded file into the running session. Scalar
// knobs apply in place; structural changes rebuild the lattice.
func (m Model) applyConfig(next *config.Config) (tea.Model, tea.Cmd) {
	prev := m.cfg
	m.cfg = next

	m.ses.State().SetTemperature(next.Temperature)
	r, mode := m.ses.State().Brush()
	if next.BrushRadius != prev.BrushRadius {
		r = next.BrushRadius
	}
	m.ses.State().SetBrush(r, mode)

	structural := next.Model != prev.Model ||
		next.Width != prev.Width || next.Height != prev.Height ||
		next.Seed != prev.Seed || next.Weighted != prev.Weighted ||
		next.DefectFrac != prev.DefectFrac || next.Lambda != prev.Lambda
	if structural {
		if err := m.ses.SwapLattice(next.LatticeSpec()); err != nil {
			m.status = fmt.Sprintf("config reload: lattice rebuild failed: %v", err)
			return m, nil
		}
	}
	m.status = "config reloaded"
	m.log.Info("config applied", "structural", structural)
	return m, nil
}

// View renders the lattice viewport, the stats panel, and the chart.
func (m Model) View() string {
	frame := m.ses.Frame()
	st := m.ses.State()

	var header strings.Builder
	header.WriteString(headerStyle.Render("SPINLAB"))
	header.WriteString("  ")
	switch st.Phase() {
	case engine.PhaseRunning, engine.PhaseResuming:
		header.WriteString(runningBadge.Render("RUNNING"))
	default:
		header.WriteString(pausedBadge.Render("PAUSED"))
	}
	if st.AnalysisRunning() {
		header.WriteString("  " + sweepBadge.Render("SWEEP"))
	}
	if m.recording {
		header.WriteString("  " + recordingBadge.Render("REC"))
	}

	main := lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(m.renderLattice(frame)),
		statsStyle.Render(m.renderStats(frame)))

	var s strings.Builder
	s.WriteString(header.String() + "\n")
	s.WriteString(m.status + "\n\n")
	s.WriteString(main)
	if m.showHelp {
		s.WriteString("\n" + helpText())
	}
	return s.String()
}

func siteBucket(v float64) int {
	if math.IsNaN(v) {
		return defectBucket
	}
	t := (v + 1) / 2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return int(t*15 + 0.5)
}

// renderLattice draws two cells per site, coalescing runs of the same
// color bucket so a frame costs style calls per run, not per site.
func (m Model) renderLattice(f *render.Frame) string {
	if f == nil {
		return "waiting for first frame..."
	}
	var sb strings.Builder
	for y := 0; y < f.H; y++ {
		run := siteBucket(f.At(0, y))
		n := 1
		for x := 1; x < f.W; x++ {
			b := siteBucket(f.At(x, y))
			if b == run {
				n++
				continue
			}
			sb.WriteString(siteStyles[run].Render(strings.Repeat("██", n)))
			run, n = b, 1
		}
		sb.WriteString(siteStyles[run].Render(strings.Repeat("██", n)))
		if y < f.H-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func (m Model) renderStats(f *render.Frame) string {
	st := m.ses.State()
	lat := st.Lattice()
	radius, mode := st.Brush()

	var s strings.Builder
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Model", lat.Model())
	row("Size", fmt.Sprintf("%dx%d", lat.Width(), lat.Height()))
	row("Temperature", fmt.Sprintf("%.3f", st.Temperature()))
	row("Steps/frame", fmt.Sprintf("%.0f", st.StepsPerFrame()))
	row("Magnetization", fmt.Sprintf("%+.4f", st.Magnetization()))
	if f != nil {
		row("Energy/site", fmt.Sprintf("%+.4f", analysis.EnergyPerSite(lat)))
	}
	row("Defects", fmt.Sprintf("%d", lat.Defects()))
	bonds := "uniform"
	if lat.Weighted() {
		bonds = "random"
	}
	row("Bonds", bonds)
	row("Brush", fmt.Sprintf("%s r=%d", mode, radius))

	if chart := m.renderChart(lat); chart != "" {
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString(helpStyle.Render("SP:pause R:reset ↑↓:temp A:sweep ?:help"))
	return s.String()
}

func (m Model) renderChart(lat lattice.Lattice) string {
	var series []float64
	switch m.chart {
	case chartMag:
		series = m.ses.MagHistory()
	case chartRate:
		series = m.ses.RateHistory()
	case chartSpectrum:
		series = analysis.StructureFactor(lat)
	}
	if len(series) < 2 {
		return ""
	}
	return asciigraph.Plot(series,
		asciigraph.Height(5), asciigraph.Width(32),
		asciigraph.Caption(m.chart.String()))
}

func helpText() string {
	return `╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/resume trials      ║
║  R        - Reseed the lattice       ║
║  Up/K     - Temperature +0.05        ║
║  Down/J   - Temperature -0.05        ║
║  [ ]      - Brush radius -/+         ║
║  B        - Cycle brush mode         ║
║  W        - Toggle random bonds      ║
║  X        - Swap lattice model       ║
║  S        - Save PNG snapshot        ║
║  G        - Toggle GIF recording     ║
║  V        - Cycle chart              ║
║  A        - Start/abort sweep        ║
║  Mouse    - Paint with the brush     ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`
}
