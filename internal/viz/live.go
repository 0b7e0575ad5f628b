package viz

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/netspec/internal/sim"
	"github.com/san-kum/netspec/internal/sweep"
)

const (
	width           = 60
	height          = 24
	historyCapacity = 600
	frameRate       = 30
	nudge           = 0.25
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model drives a simulator from the frame clock and renders the network
// beside the state of its sweep.
type Model struct {
	ctx      context.Context
	sim      *sim.Simulator
	params   sweep.Params
	perFrame int

	canvas   *Canvas
	proj     Projection
	snap     sim.Snapshot

	// progress eases toward the sweep progress for display
	spring   harmonica.Spring
	progress float64
	velocity float64

	energy   []float64
	result   *sweep.Dataset
	selected int
	paused   bool
	warnings []string
	err      error
}

// NewModel prepares a view of s. Each frame advances enough ticks of size
// dt to keep simulated time at p.TimeMultiplier times the wall clock.
func NewModel(ctx context.Context, s *sim.Simulator, p sweep.Params, dt float64) Model {
	m := p.TimeMultiplier
	if m < sweep.MinTimeMultiplier {
		m = sweep.MinTimeMultiplier
	}
	perFrame := int(math.Round(m / frameRate / dt))
	if perFrame < 1 {
		perFrame = 1
	}

	c := NewCanvas(width, height)
	return Model{
		ctx:      ctx,
		sim:      s,
		params:   p,
		perFrame: perFrame,
		canvas:   c,
		proj:     NewProjection(c, sim.Wall),
		snap:     s.Snapshot(),
		spring:   harmonica.NewSpring(harmonica.FPS(frameRate), 6.0, 1.0),
		energy:   make([]float64, 0, historyCapacity),
	}
}

// Result is the dataset of the last sweep finished while the view ran.
func (m Model) Result() *sweep.Dataset { return m.result }

func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.key(msg)
	case TickMsg:
		if !m.paused {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.sim.Phase().Active() {
			_ = m.sim.Stop()
		}
		return m, tea.Quit
	case "s":
		m.toggleSweep()
	case " ":
		m.paused = !m.paused
	case "tab":
		if n := m.sim.Network().NumNodes(); n > 0 {
			m.selected = (m.selected + 1) % n
		}
	case "up", "k":
		m.drag(0, nudge)
	case "down", "j":
		m.drag(0, -nudge)
	case "left", "h":
		m.drag(-nudge, 0)
	case "right", "l":
		m.drag(nudge, 0)
	case "r":
		m.err = m.sim.Release(m.sim.Network().Node(m.selected).ID)
	case "u":
		m.sim.Unlock()
	case "+", "=":
		m.scaleDamping(1.1)
	case "-":
		m.scaleDamping(1 / 1.1)
	}
	m.snap = m.sim.Snapshot()
	return m, nil
}

func (m *Model) toggleSweep() {
	m.warnings = nil
	if m.sim.Phase().Active() {
		m.err = m.sim.Stop()
		return
	}
	v, err := m.sim.Start(m.params)
	m.warnings = v.Warnings
	m.err = err
	if err == nil {
		m.energy = m.energy[:0]
	}
}

func (m *Model) drag(dx, dy float64) {
	if m.selected >= m.snap.State.Nodes() {
		return
	}
	x, y := m.snap.State.Pos(m.selected)
	m.err = m.sim.DragTo(m.sim.Network().Node(m.selected).ID, x+dx, y+dy)
}

func (m *Model) scaleDamping(f float64) {
	d := m.sim.GetParams()["damping"]
	m.err = m.sim.SetParam("damping", d*f)
}

func (m *Model) step() {
	for i := 0; i < m.perFrame; i++ {
		ds, err := m.sim.Tick(m.ctx)
		if err != nil {
			m.err = err
			m.paused = true
			break
		}
		if ds != nil {
			m.result = ds
		}
	}
	m.snap = m.sim.Snapshot()
	m.progress, m.velocity = m.spring.Update(m.progress, m.velocity, m.snap.Progress)
	if m.snap.Phase.Active() {
		if len(m.energy) >= historyCapacity {
			m.energy = m.energy[1:]
		}
		m.energy = append(m.energy, m.snap.MeanMaxEnergy)
	}
}

// spectrum is the series shown in the chart: the pass in progress, or the
// average of the last finished sweep.
func (m Model) spectrum() ([]float64, string) {
	if len(m.snap.Current) > 1 {
		e := make([]float64, len(m.snap.Current))
		for i, s := range m.snap.Current {
			e[i] = s.Energy
		}
		return e, fmt.Sprintf("pass %d", m.snap.Pass)
	}
	if m.result != nil && len(m.result.Average) > 1 {
		return m.result.AverageEnergies(), "average"
	}
	return nil, ""
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	snap := m.snap
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.sim.Network().Name)) + "\n")
	status := PhaseBadge(snap.Phase)
	if m.paused {
		status += " " + StatusIdle.Render("(paused)")
	}
	s.WriteString(status + "\n\n")

	if series, caption := m.spectrum(); len(series) > 1 {
		chart := asciigraph.Plot(series,
			asciigraph.Height(6),
			asciigraph.Width(36),
			asciigraph.Caption("energy vs frequency, "+caption))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", snap.Time))
	row("Frequency", fmt.Sprintf("%.4f", snap.Frequency))
	row("Pass", fmt.Sprintf("%d/%d", snap.Pass, snap.Passes))
	row("Progress", ProgressBar(m.progress, 20)+fmt.Sprintf(" %3.0f%%", 100*snap.Progress))
	row("Energy", fmt.Sprintf("%.4g", snap.MeanMaxEnergy))
	row("", Sparkline(m.energy, 30))
	params := m.sim.GetParams()
	row("Damping", fmt.Sprintf("%.3g", params["damping"]))
	row("Amplitude", fmt.Sprintf("%.3g", params["amplitude"]))
	row("Selected", fmt.Sprintf("node %d", m.sim.Network().Node(m.selected).ID))

	for _, w := range m.warnings {
		s.WriteString(warnStyle.Render("! "+w) + "\n")
	}
	if m.err != nil {
		s.WriteString(errorStyle.Render(describe(m.err)) + "\n")
	}
	if err := m.sim.LastExportError(); err != nil {
		s.WriteString(errorStyle.Render("export: "+err.Error()) + "\n")
	}

	s.WriteString(helpStyle.Render("─────────────────────\nS:Sweep SP:Pause Q:Quit\nTAB:Node ←↑↓→:Drag R:Release\nU:Unlock +/-:Damping"))
	statsView := statsStyle.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}

func describe(err error) string {
	var cfg *sweep.ConfigError
	switch {
	case errors.As(err, &cfg):
		return "invalid sweep: " + strings.Join(cfg.Problems, "; ")
	case errors.Is(err, sim.ErrParamLocked):
		return "parameters are locked, press U to unlock"
	}
	return err.Error()
}

func (m *Model) draw() {
	m.canvas.Clear()
	m.canvas.DrawFrame()

	x := m.snap.State
	net := m.sim.Network()
	for k := 0; k < net.NumEdges(); k++ {
		i, j := net.Edge(k).Ends()
		if i >= x.Nodes() || j >= x.Nodes() {
			continue
		}
		x0, y0 := m.proj.Point(x.Pos(i))
		x1, y1 := m.proj.Point(x.Pos(j))
		m.canvas.DrawLine(x0, y0, x1, y1)
	}
	for i := 0; i < x.Nodes(); i++ {
		px, py := m.proj.Point(x.Pos(i))
		r := 1
		if i == m.selected {
			r = 2
		}
		m.canvas.DrawBlock(px, py, r)
	}
}

// Run shows the live view until the user quits or ctx is cancelled and
// returns the last finished dataset, if any.
func Run(ctx context.Context, s *sim.Simulator, p sweep.Params, dt float64) (*sweep.Dataset, error) {
	prog := tea.NewProgram(NewModel(ctx, s, p, dt), tea.WithContext(ctx), tea.WithAltScreen())
	final, err := prog.Run()
	if err != nil {
		return nil, err
	}
	m := final.(Model)
	return m.Result(), nil
}
