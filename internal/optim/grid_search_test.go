package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/galdyn/internal/config"
	"github.com/san-kum/galdyn/internal/registry"
)

func TestNode_LastParamFastest(t *testing.T) {
	g := NewGridSearch([]string{"a", "b"}, [][]float64{{1, 2}, {10, 20, 30}})
	if g.Size() != 6 {
		t.Fatalf("size = %d, want 6", g.Size())
	}
	want := [][2]float64{{1, 10}, {1, 20}, {1, 30}, {2, 10}, {2, 20}, {2, 30}}
	for i, w := range want {
		p := g.node(i)
		if p["a"] != w[0] || p["b"] != w[1] {
			t.Errorf("node %d = %v, want a=%v b=%v", i, p, w[0], w[1])
		}
	}
}

func TestApply(t *testing.T) {
	cfg := config.DefaultConfig()
	for name, v := range map[string]float64{
		"dt":                0.02,
		"orbit.vT":          0.7,
		"friction.gms":      0.3,
		"friction.vc":       2,
		"potential.0.rc":    4,
		"duration":          12,
		"tolerance":         1e-6,
		"orbit.R":           1.5,
		"friction.lnlambda": 3,
		"potential.0.alpha": 1.2,
	} {
		if err := Apply(cfg, name, v); err != nil {
			t.Fatalf("Apply(%s): %v", name, err)
		}
	}

	if cfg.Dt != 0.02 || cfg.Duration != 12 || cfg.Tolerance != 1e-6 {
		t.Errorf("run fields = %v %v %v", cfg.Dt, cfg.Duration, cfg.Tolerance)
	}
	if cfg.Orbit.VT != 0.7 || cfg.Orbit.Circular || cfg.Orbit.R != 1.5 {
		t.Errorf("orbit = %+v", cfg.Orbit)
	}
	if cfg.Friction == nil || cfg.Friction.GMs != 0.3 || cfg.Friction.Sigma.Vc != 2 || cfg.Friction.LnLambda != 3 {
		t.Errorf("friction = %+v", cfg.Friction)
	}
	if cfg.Friction.NR != config.DefaultFrictionNR {
		t.Errorf("friction defaults not applied: %+v", cfg.Friction)
	}
	if p := cfg.Potentials[0].Params; p["rc"] != 4 || p["alpha"] != 1.2 {
		t.Errorf("potential params = %v", p)
	}

	for _, bad := range []string{"mass", "orbit.L", "friction.sigma", "potential.3.rc", "potential.x.rc", "potential.0"} {
		if err := Apply(cfg, bad, 1); !errors.Is(err, ErrUnknownParam) {
			t.Errorf("Apply(%s) = %v, want ErrUnknownParam", bad, err)
		}
	}
}

func TestParseRange(t *testing.T) {
	got, err := ParseRange("0:1:5")
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-15 {
			t.Errorf("span = %v, want %v", got, want)
			break
		}
	}

	got, err = ParseRange("0.1, 0.5,2")
	if err != nil || len(got) != 3 || got[2] != 2 {
		t.Errorf("list = %v, %v", got, err)
	}
	if got, _ := ParseRange("3:9:1"); len(got) != 1 || got[0] != 3 {
		t.Errorf("single = %v", got)
	}

	for _, bad := range []string{"a:1:2", "0:1:0", "1,,2", ""} {
		if _, err := ParseRange(bad); err == nil {
			t.Errorf("ParseRange(%q) should fail", bad)
		}
	}
}

func TestSearch_StrongerDragLosesMoreLz(t *testing.T) {
	base := config.GetPreset("sinking-satellite")
	base.Duration = 10

	g := NewGridSearch([]string{"friction.amp"}, [][]float64{{0.2, 1, 3}})
	g.Maximize = true

	best, points, err := g.Search(context.Background(), base, registry.New(), "lz_loss")
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	if best.Params["friction.amp"] != 3 {
		t.Errorf("best = %+v, want friction.amp=3", best)
	}
	for i := 1; i < len(points); i++ {
		if points[i].Value <= points[i-1].Value {
			t.Errorf("lz_loss not increasing with drag: %v", points)
		}
	}
	if base.Friction.Amp != 0.5 {
		t.Errorf("base config modified: amp = %v", base.Friction.Amp)
	}
}

func TestSearch_InvalidNodesSkipped(t *testing.T) {
	base := config.GetPreset("cutoff-halo")
	base.Duration = 1

	g := NewGridSearch([]string{"dt"}, [][]float64{{-1, 0.01}})
	best, points, err := g.Search(context.Background(), base, registry.New(), "energy_drift")
	if err != nil {
		t.Fatal(err)
	}
	if points[0].Err == nil {
		t.Error("negative dt should fail")
	}
	if best.Params["dt"] != 0.01 {
		t.Errorf("best = %+v", best)
	}

	g = NewGridSearch([]string{"dt"}, [][]float64{{-1}})
	if _, _, err := g.Search(context.Background(), base, registry.New(), "energy_drift"); !errors.Is(err, ErrNoResult) {
		t.Errorf("err = %v, want ErrNoResult", err)
	}

	g = NewGridSearch(nil, nil)
	if _, _, err := g.Search(context.Background(), base, registry.New(), "energy_drift"); !errors.Is(err, ErrEmptyGrid) {
		t.Errorf("err = %v, want ErrEmptyGrid", err)
	}
}

func TestSearch_FinalRadiusShrinksWithDrag(t *testing.T) {
	base := config.GetPreset("sinking-satellite")
	base.Duration = 10

	g := NewGridSearch([]string{"friction.gms"}, [][]float64{{0.01, 0.1}})
	best, points, err := g.Search(context.Background(), base, registry.New(), FinalRadius)
	if err != nil {
		t.Fatal(err)
	}
	if points[1].Value >= points[0].Value {
		t.Errorf("heavier satellite ended further out: %v", points)
	}
	if best.Params["friction.gms"] != 0.1 {
		t.Errorf("best = %+v", best)
	}
	if best.Value >= base.Orbit.R {
		t.Errorf("final radius %v not inside the start %v", best.Value, base.Orbit.R)
	}
}
