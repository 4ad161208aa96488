package viz

import (
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/galdyn/internal/config"
	"github.com/san-kum/galdyn/internal/experiment"
	"github.com/san-kum/galdyn/internal/registry"
)

func newTestModel(t *testing.T, preset string) Model {
	t.Helper()
	cfg := config.GetPreset(preset)
	exp, err := experiment.New(cfg, registry.New())
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(exp)
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func ticks(n int) []tea.Msg {
	out := make([]tea.Msg, n)
	for i := range out {
		out[i] = TickMsg(time.Time{})
	}
	return out
}

func hasDots(s string) bool {
	for _, r := range s {
		if r > brailleBlank && r <= brailleBlank+0xff {
			return true
		}
	}
	return false
}

func TestModel_TickAdvancesOrbit(t *testing.T) {
	m := newTestModel(t, "cutoff-halo")
	m = send(m, ticks(10)...)

	if want := 10 * stepsPerFrame * m.dt0; math.Abs(m.t-want) > 1e-9 {
		t.Errorf("t = %v, want %v", m.t, want)
	}
	if len(m.history) != 10 || len(m.trail) != 10 {
		t.Errorf("history %d trail %d, want 10", len(m.history), len(m.trail))
	}
	for _, h := range m.history {
		if math.Abs(h.Energy-m.energy0) > 1e-3*math.Abs(m.energy0) {
			t.Errorf("energy drifted to %v from %v", h.Energy, m.energy0)
		}
	}
}

func TestModel_PauseAndReset(t *testing.T) {
	m := newTestModel(t, "cutoff-halo")
	m = send(m, ticks(3)...)
	m = send(m, key(" "))
	tPaused := m.t
	m = send(m, ticks(5)...)
	if m.running || m.t != tPaused {
		t.Errorf("paused model advanced to %v", m.t)
	}

	m = send(m, key("r"))
	if m.t != 0 || !m.running || len(m.history) != 0 {
		t.Errorf("reset left t=%v running=%v history=%d", m.t, m.running, len(m.history))
	}
	for i := range m.state {
		if m.state[i] != m.initial[i] {
			t.Fatalf("state not restored: %v vs %v", m.state, m.initial)
		}
	}
}

func TestModel_Scrub(t *testing.T) {
	m := newTestModel(t, "cutoff-halo")
	m = send(m, ticks(5)...)
	m = send(m, key("["), key("["))
	if m.playHead != 2 || m.running {
		t.Fatalf("playHead = %d running = %v", m.playHead, m.running)
	}
	state, tm, _ := m.current()
	if tm != m.history[2].Time || state[0] != m.history[2].State[0] {
		t.Errorf("current() does not follow the play head")
	}
	m = send(m, key("]"), key("]"), key("]"))
	if m.playHead != -1 {
		t.Errorf("scrubbing past the end should return to live, got %d", m.playHead)
	}
}

func TestModel_TuneAndResetParams(t *testing.T) {
	m := newTestModel(t, "sinking-satellite")
	if len(m.params) == 0 {
		t.Fatal("no tunables")
	}
	labels := make(map[string]bool)
	for _, p := range m.params {
		labels[p.Label] = true
	}
	if !labels["0.rc"] || !labels["friction.gms"] || labels["friction.maxr"] {
		t.Errorf("tunables = %v", labels)
	}

	p := m.params[0]
	m = send(m, key("up"))
	if got := p.Target.Params()[p.Name]; math.Abs(got-1.05*p.Initial) > 1e-12 {
		t.Errorf("%s = %v, want %v", p.Label, got, 1.05*p.Initial)
	}
	m = send(m, key("tab"))
	if m.selected != 1 {
		t.Errorf("selected = %d", m.selected)
	}
	m = send(m, key("r"))
	if got := p.Target.Params()[p.Name]; got != p.Initial {
		t.Errorf("%s not reset: %v", p.Label, got)
	}
}

func TestModel_StopsAtDuration(t *testing.T) {
	m := newTestModel(t, "cutoff-halo")
	m.duration = 3 * stepsPerFrame * m.dt0
	m = send(m, ticks(6)...)
	if m.running || m.stopped == "" {
		t.Errorf("running=%v stopped=%q", m.running, m.stopped)
	}
	m = send(m, key(" "))
	if m.running {
		t.Error("stopped model should not resume")
	}
}

func TestModel_ViewRenders(t *testing.T) {
	m := newTestModel(t, "eccentric")
	m = send(m, ticks(4)...)
	for v := View(0); v < numViews; v++ {
		m.view = v
		out := m.View()
		if !strings.Contains(out, "ECCENTRIC") || !strings.Contains(out, "["+v.String()+"]") {
			t.Errorf("view %v missing header", v)
		}
		if !hasDots(out) {
			t.Errorf("view %v drew nothing", v)
		}
	}
	m = send(m, key("?"))
	if !strings.Contains(m.View(), "KEYBOARD SHORTCUTS") {
		t.Error("help overlay missing")
	}
}

func TestCanvas(t *testing.T) {
	c := NewCanvas(4, 2)
	if w, h := c.PixelSize(); w != 8 || h != 8 {
		t.Fatalf("pixel size %dx%d", w, h)
	}
	c.DrawLine(0, 0, 7, 7)
	for i := 0; i < 8; i++ {
		if !c.Lit(i, i) {
			t.Errorf("(%d,%d) not lit", i, i)
		}
	}
	c.Set(-1, 3)
	c.Set(100, 3)
	if c.Lit(-1, 3) || c.Lit(7, 0) {
		t.Error("unexpected pixel")
	}
	c.Clear()
	if strings.Trim(c.String(), "⠀\n") != "" {
		t.Error("clear left pixels")
	}

	img := rasterize(func() *Canvas { c.Set(0, 0); return c }())
	if img.ColorIndexAt(0, 0) != 1 || img.ColorIndexAt(cellW-1, cellH-1) != 0 {
		t.Error("rasterized dot misplaced")
	}
}

func TestCamera_FlatCentersOrigin(t *testing.T) {
	cam := NewCamera(2)
	x, y, ok := cam.Flat(0, 0, 120, 96)
	if !ok || x != 60 || y != 48 {
		t.Errorf("origin at (%d,%d) %v", x, y, ok)
	}
	x, y, ok = cam.Flat(2, 2, 120, 96)
	if !ok || x != 108 || y != 0 {
		t.Errorf("corner at (%d,%d) %v", x, y, ok)
	}
	if _, _, ok := cam.Flat(5, 0, 120, 96); ok {
		t.Error("point beyond extent should be off screen")
	}
}
