package viz

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/galdyn/internal/dynamo"
	"github.com/san-kum/galdyn/internal/experiment"
	"github.com/san-kum/galdyn/internal/orbit"
	"github.com/san-kum/galdyn/internal/potential"
)

const (
	canvasWidth     = 60
	canvasHeight    = 24
	historyCapacity = 600
	trailCapacity   = historyCapacity
	stepsPerFrame   = 4
	frameInterval   = time.Second / 60
)

// View selects the projection drawn on the canvas.
type View int

const (
	ViewXY View = iota
	ViewXZ
	ViewMeridional
	View3D
	numViews
)

func (v View) String() string {
	return [...]string{"x-y", "x-z", "R-z", "3d"}[v]
}

// Snapshot stores state at a specific time for replay.
type Snapshot struct {
	State  dynamo.State
	Time   float64
	Energy float64
	Lz     float64
}

// Tunable is one live-adjustable model parameter.
type Tunable struct {
	Label   string
	Name    string
	Target  potential.Configurable
	Initial float64
}

// Tunables lists the writable parameters of every configurable model in
// exp, labelled "<index>.<param>" for potentials and "friction.<param>".
func Tunables(exp *experiment.Experiment) []Tunable {
	var out []Tunable
	add := func(prefix string, c potential.Configurable) {
		params := c.Params()
		names := make([]string, 0, len(params))
		for k := range params {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			if c.SetParam(k, params[k]) != nil {
				continue
			}
			out = append(out, Tunable{Label: prefix + "." + k, Name: k, Target: c, Initial: params[k]})
		}
	}

	for i, p := range exp.Potentials() {
		if c, ok := p.(potential.Configurable); ok {
			add(fmt.Sprint(i), c)
		}
	}
	if f := exp.Friction(); f != nil {
		add("friction", f)
	}
	return out
}

type TickMsg time.Time

// Model is the bubbletea model of the live orbit viewer.
type Model struct {
	name       string
	sys        *orbit.System
	integrator dynamo.Integrator
	state      dynamo.State
	initial    dynamo.State
	t, dt      float64
	dt0        float64
	duration   float64
	tolerance  float64
	adaptive   bool
	energy0    float64

	canvas   *Canvas
	camera   *Camera
	view     View
	trail    []Vec3
	history  []Snapshot
	playHead int
	running  bool
	stopped  string

	params   []Tunable
	selected int

	recording bool
	frames    []*image.Paletted
	gifPath   string
	showHelp  bool
}

// NewModel prepares a viewer for exp. The experiment's models are tuned in
// place, so exp should not be run concurrently.
func NewModel(exp *experiment.Experiment) Model {
	cfg := exp.Config()
	x0 := exp.InitialState()
	sys := exp.System()

	return Model{
		name:       cfg.Name,
		sys:        sys,
		integrator: exp.Integrator(),
		state:      x0.Clone(),
		initial:    x0,
		dt:         cfg.Dt,
		dt0:        cfg.Dt,
		duration:   cfg.Duration,
		tolerance:  cfg.Tolerance,
		adaptive:   cfg.Adaptive,
		energy0:    sys.Energy(x0),
		canvas:     NewCanvas(canvasWidth, canvasHeight),
		camera:     NewCamera(math.Max(1.5*orbit.Radius(x0), 1)),
		trail:      make([]Vec3, 0, trailCapacity),
		history:    make([]Snapshot, 0, historyCapacity),
		playHead:   -1,
		running:    true,
		params:     Tunables(exp),
		gifPath:    "orbit.gif",
	}
}

// Run starts the viewer on the alternate screen and blocks until it quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

// Update handles input events and steps the integration.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			if m.stopped == "" {
				m.running = !m.running
			}
		case "r":
			m.reset()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "tab":
			m.cycleParam()
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "v":
			m.view = (m.view + 1) % numViews
		case "a":
			m.autoscale()
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "z":
			m.camera.RotateZ(0.1)
		case "Z":
			m.camera.RotateZ(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "g":
			m.toggleRecording()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.step()
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		m.draw()
		if m.recording {
			m.frames = append(m.frames, rasterize(m.canvas))
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) cycleParam() {
	if len(m.params) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.params)
}

func (m *Model) adjustParam(factor float64) {
	if len(m.params) == 0 {
		return
	}
	p := m.params[m.selected]
	v := p.Target.Params()[p.Name] * factor
	if v == 0 {
		v = 1e-6 * factor
	}
	if err := p.Target.SetParam(p.Name, v); err != nil {
		slog.Warn("parameter rejected", "param", p.Label, "value", v, "err", err)
	}
}

// step advances the orbit by stepsPerFrame integrator steps.
func (m *Model) step() {
	for i := 0; i < stepsPerFrame; i++ {
		if m.duration > 0 && m.t >= m.duration {
			m.stop("duration reached")
			return
		}

		adaptive, ok := m.integrator.(dynamo.AdaptiveIntegrator)
		if m.adaptive && ok {
			next, taken, suggested, err := adaptive.StepAdaptive(m.sys, m.state, m.t, m.dt, m.tolerance)
			if err != nil {
				m.stop(err.Error())
				return
			}
			m.state = next
			m.t += taken
			m.dt = math.Min(math.Max(suggested, 1e-6*m.dt0), 100*m.dt0)
		} else {
			m.state = m.integrator.Step(m.sys, m.state, m.t, m.dt)
			m.t += m.dt
		}

		if !m.state.IsValid() {
			m.stop("state diverged")
			return
		}
	}

	m.trail = appendCapped(m.trail, Vec3{m.state[0], m.state[1], m.state[2]}, trailCapacity)
	m.history = appendCapped(m.history, Snapshot{
		State:  m.state.Clone(),
		Time:   m.t,
		Energy: m.sys.Energy(m.state),
		Lz:     orbit.Lz(m.state),
	}, historyCapacity)
}

func appendCapped[T any](s []T, v T, capacity int) []T {
	s = append(s, v)
	if len(s) > capacity {
		s = s[1:]
	}
	return s
}

func (m *Model) stop(reason string) {
	m.running = false
	m.stopped = reason
}

// scrub changes the playback position in history.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// reset restores the initial state and parameters.
func (m *Model) reset() {
	for _, p := range m.params {
		if err := p.Target.SetParam(p.Name, p.Initial); err != nil {
			slog.Warn("parameter reset failed", "param", p.Label, "err", err)
		}
	}
	m.state = m.initial.Clone()
	m.t = 0
	m.dt = m.dt0
	m.energy0 = m.sys.Energy(m.state)
	m.trail = m.trail[:0]
	m.history = m.history[:0]
	m.playHead = -1
	m.running = true
	m.stopped = ""
}

// autoscale fits the camera to the trail.
func (m *Model) autoscale() {
	r := orbit.Radius(m.state)
	for _, p := range m.trail {
		r = math.Max(r, math.Sqrt(p.X*p.X+p.Y*p.Y+p.Z*p.Z))
	}
	if r > 0 {
		m.camera.Extent = 1.2 * r
		m.camera.Zoom = 1
	}
}

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.frames = m.frames[:0]
		return
	}
	m.recording = false
	if err := saveGIF(m.gifPath, m.frames); err != nil {
		slog.Error("gif not saved", "err", err)
	} else {
		slog.Info("gif saved", "path", m.gifPath, "frames", len(m.frames))
	}
	m.frames = nil
}

// current returns the state shown on screen, which is a history entry
// while replaying.
func (m *Model) current() (dynamo.State, float64, int) {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		s := m.history[m.playHead]
		return s.State, s.Time, m.playHead + 1
	}
	return m.state, m.t, len(m.trail)
}

func (m *Model) project(p Vec3) (int, int, bool) {
	sw, sh := m.canvas.PixelSize()
	return m.camera.ProjectView(m.view, p, sw, sh)
}

func (m *Model) draw() {
	m.canvas.Clear()
	state, _, upto := m.current()

	if ox, oy, ok := m.project(Vec3{}); ok && m.view != ViewMeridional {
		m.canvas.DrawLine(ox-2, oy, ox+2, oy)
		m.canvas.DrawLine(ox, oy-2, ox, oy+2)
	}

	trail := m.trail[:min(upto, len(m.trail))]
	for i := 1; i < len(trail); i++ {
		x0, y0, ok0 := m.project(trail[i-1])
		x1, y1, ok1 := m.project(trail[i])
		if ok0 && ok1 {
			m.canvas.DrawLine(x0, y0, x1, y1)
		}
	}
	if x, y, ok := m.project(Vec3{state[0], state[1], state[2]}); ok {
		m.canvas.Dot(x, y)
	}
}

func (m *Model) status() string {
	switch {
	case m.stopped != "":
		return statusStopped.Render("STOPPED: " + m.stopped)
	case m.playHead != -1:
		back := m.history[m.playHead].Time - m.history[len(m.history)-1].Time
		if m.running {
			return statusPaused.Render(fmt.Sprintf("REPLAYING (%.2f)", back))
		}
		return statusPaused.Render(fmt.Sprintf("REPLAY PAUSED (%.2f)", back))
	case !m.running:
		return statusPaused.Render("PAUSED")
	case m.recording:
		return statusRunning.Render("RUNNING ● REC")
	}
	return statusRunning.Render("RUNNING")
}

// View renders the TUI.
func (m Model) View() string {
	m.draw()
	state, t, _ := m.current()
	c := orbit.ToCylindrical(state)
	energy := m.sys.Energy(state)

	var s strings.Builder
	title := m.name
	if title == "" {
		title = "orbit"
	}
	s.WriteString(headerStyle.Render(strings.ToUpper(title)+"  ["+m.view.String()+"]") + "\n")
	s.WriteString(m.status() + "\n\n")

	energies := make([]float64, len(m.history))
	lzs := make([]float64, len(m.history))
	for i, h := range m.history {
		energies[i], lzs[i] = h.Energy, h.Lz
	}
	if len(energies) > 1 {
		chart := asciigraph.Plot(energies, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle.Render(chart) + "\n")
		s.WriteString(labelStyle.Render("Lz") + Sparkline(lzs, 30) + "\n\n")
	}

	row := func(label, format string, v ...any) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(fmt.Sprintf(format, v...)) + "\n")
	}
	row("Time", "%.3f / %.0f", t, m.duration)
	row("R, z", "%.4f, %.4f", c.R, c.Z)
	row("r", "%.4f", orbit.Radius(state))
	row("vR, vT", "%.4f, %.4f", c.VR, c.VT)
	row("Energy", "%.6f", energy)
	if m.energy0 != 0 {
		row("dE/E", "%.2e", (energy-m.energy0)/math.Abs(m.energy0))
	}
	row("Lz", "%.6f", orbit.Lz(state))
	row("dt", "%.2e", m.dt)
	if m.duration > 0 {
		s.WriteString(labelStyle.Render("Progress") + ProgressBar(t/m.duration, 20) + "\n")
	}

	s.WriteString("\nPARAMETERS\n")
	if len(m.params) == 0 {
		s.WriteString(labelStyle.Render("  (none)") + "\n")
	}
	for i, p := range m.params {
		v := p.Target.Params()[p.Name]
		frac := 0.5
		if p.Initial != 0 {
			frac = v / (2 * p.Initial)
		}
		line := fmt.Sprintf("%-16s %s %.4g", p.Label, ProgressBar(frac, 10), v)
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.UnsetWidth().Render(line) + "\n")
		}
	}
	s.WriteString(helpStyle.Render("─────────────────────\nSP:Pause R:Reset Q:Quit\nV:View A:Fit G:Record ?:Help\n[ ]:Time-Travel ↑↓:Tune"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(m.canvas.String()),
		statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Reset orbit and params   ║
║  Q        - Quit                     ║
║  V        - Cycle projection         ║
║  A        - Fit view to the trail    ║
║  x/X z/Z  - Rotate 3d camera         ║
║  +/-      - Zoom                     ║
║  Tab      - Cycle parameters         ║
║  Up/K     - Increase parameter (+5%) ║
║  Down/J   - Decrease parameter (-5%) ║
║  [ ]      - Rewind / forward         ║
║  G        - Toggle GIF recording     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`
