package potential

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/galdyn/internal/profile"
)

type constDensity float64

func (c constDensity) Dens(R, z, phi, t float64) float64 { return float64(c) }

func newTestFriction(t *testing.T, mutate func(*FrictionConfig)) *ChandrasekharFriction {
	t.Helper()
	cfg := DefaultFrictionConfig()
	cfg.GMs = 0.01
	cfg.Rhm = 0.05
	cfg.MinR = 0.1
	cfg.MaxR = 10
	cfg.NR = 101
	cfg.SigmaFunc = IsothermalSigma(1)
	cfg.Background = List{NewPowerSphericalCutoff(1, 1, 2)}
	if mutate != nil {
		mutate(&cfg)
	}
	f, err := NewChandrasekharFriction(cfg)
	if err != nil {
		t.Fatalf("NewChandrasekharFriction: %v", err)
	}
	return f
}

func TestFriction_ZeroInsideCutoff(t *testing.T) {
	f := newTestFriction(t, nil)

	velocities := [][3]float64{
		{0.1, 1, 0},
		{-3, 0.2, 5},
		{0, 0, 1e-3},
		{100, -100, 100},
	}
	for _, v := range velocities {
		R, z := 0.05, 0.05
		if got := f.RForce(R, z, 0, 0, v[0], v[1], v[2]); got != 0 {
			t.Errorf("RForce inside cutoff = %v for v=%v", got, v)
		}
		if got := f.ZForce(R, z, 0, 0, v[0], v[1], v[2]); got != 0 {
			t.Errorf("ZForce inside cutoff = %v for v=%v", got, v)
		}
		if got := f.PhiForce(R, z, 0, 0, v[0], v[1], v[2]); got != 0 {
			t.Errorf("PhiForce inside cutoff = %v for v=%v", got, v)
		}
		fR, fz, fphi := f.Forces(R, z, 0, 0, v[0], v[1], v[2])
		if fR != 0 || fz != 0 || fphi != 0 {
			t.Errorf("Forces inside cutoff = (%v, %v, %v)", fR, fz, fphi)
		}
	}
}

func TestFriction_VariableCoulombLogMatchesFixed(t *testing.T) {
	tests := []struct {
		name  string
		gms   float64
		rhm   float64
		gamma float64
		v     [3]float64
	}{
		// GMs/v² = 0.01/1.01 < rhm: half-mass radius sets the scale.
		{"half-mass branch", 0.01, 0.05, 1, [3]float64{0.1, 1, 0}},
		// GMs/v² = 0.5/0.26 > rhm: the perturber's own scale wins.
		{"perturber branch", 0.5, 0.05, 1.5, [3]float64{0.3, 0.4, -0.1}},
		{"zero rhm", 0.02, 0, 1, [3]float64{0.2, 0.9, 0.3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			R, z := 1.3, 0.4
			variable := newTestFriction(t, func(c *FrictionConfig) {
				c.GMs, c.Rhm, c.Gamma = tt.gms, tt.rhm, tt.gamma
			})

			r2 := R*R + z*z
			v2 := tt.v[0]*tt.v[0] + tt.v[1]*tt.v[1] + tt.v[2]*tt.v[2]
			gmvs := tt.gms / v2
			var lnL float64
			if gmvs < tt.rhm {
				lnL = 0.5 * math.Log(1+r2/(tt.gamma*tt.gamma*tt.rhm*tt.rhm))
			} else {
				lnL = 0.5 * math.Log(1+r2/(tt.gamma*tt.gamma*gmvs*gmvs))
			}

			fixed := newTestFriction(t, func(c *FrictionConfig) {
				c.GMs, c.Rhm, c.Gamma = tt.gms, tt.rhm, tt.gamma
				c.LnLambda = FixedCoulombLog(lnL)
			})

			if got := variable.CoulombLogAt(r2, v2); relDiff(got, lnL) > 1e-12 {
				t.Errorf("CoulombLogAt = %v, want %v", got, lnL)
			}
			got := variable.RForce(R, z, 0, 0, tt.v[0], tt.v[1], tt.v[2])
			want := fixed.RForce(R, z, 0, 0, tt.v[0], tt.v[1], tt.v[2])
			if relDiff(got, want) > 1e-12 {
				t.Errorf("variable RForce = %v, fixed RForce = %v", got, want)
			}
		})
	}
}

func TestFriction_ComponentsMatchForces(t *testing.T) {
	f := newTestFriction(t, nil)
	R, z, phi := 2.1, -0.6, 0.3
	vR, vT, vz := -0.2, 0.95, 0.15

	fR, fz, fphi := f.Forces(R, z, phi, 0, vR, vT, vz)
	if got := f.RForce(R, z, phi, 0, vR, vT, vz); got != fR {
		t.Errorf("RForce = %v, Forces fR = %v", got, fR)
	}
	if got := f.ZForce(R, z, phi, 0, vR, vT, vz); got != fz {
		t.Errorf("ZForce = %v, Forces fz = %v", got, fz)
	}
	if got := f.PhiForce(R, z, phi, 0, vR, vT, vz); got != fphi {
		t.Errorf("PhiForce = %v, Forces fphi = %v", got, fphi)
	}
}

func TestFriction_HandComputed(t *testing.T) {
	bg := List{constDensity(0.4), constDensity(0.1)}
	f := newTestFriction(t, func(c *FrictionConfig) {
		c.Amp = 2
		c.LnLambda = FixedCoulombLog(3)
		c.SigmaFunc = IsothermalSigma(1.2)
		c.Background = bg
	})

	R, z := 1.5, 0.5
	vR, vT, vz := 0.3, 0.8, -0.2
	v2 := vR*vR + vT*vT + vz*vz
	v := math.Sqrt(v2)
	sigma := 1.2 / math.Sqrt2
	X := v / (sigma * math.Sqrt2)
	xf := math.Erf(X) - 2/math.Sqrt(math.Pi)*X*math.Exp(-X*X)
	scale := -2 * 4 * math.Pi * 0.01 * xf * 3 * 0.5 / (v2 * v)

	fR, fz, fphi := f.Forces(R, z, 0, 0, vR, vT, vz)
	if relDiff(fR, scale*vR) > 1e-10 {
		t.Errorf("fR = %v, want %v", fR, scale*vR)
	}
	if relDiff(fz, scale*vz) > 1e-10 {
		t.Errorf("fz = %v, want %v", fz, scale*vz)
	}
	if relDiff(fphi, scale*vT*R) > 1e-10 {
		t.Errorf("fphi = %v, want %v", fphi, scale*vT*R)
	}
}

func TestFriction_OpposesVelocity(t *testing.T) {
	f := newTestFriction(t, func(c *FrictionConfig) { c.LnLambda = FixedCoulombLog(2) })
	R, z := 1.0, 0.2
	vR, vT, vz := 0.4, 1.1, -0.3

	fR, fz, fphi := f.Forces(R, z, 0, 0, vR, vT, vz)
	// fphi is a torque-like R*F_T.
	dot := fR*vR + fz*vz + fphi/R*vT
	if dot >= 0 {
		t.Errorf("friction not opposing motion: F.v = %v", dot)
	}
}

func TestFriction_SigmaClamped(t *testing.T) {
	f := newTestFriction(t, func(c *FrictionConfig) {
		c.SigmaFunc = func(r float64) float64 { return 1 + 0.1*r }
		c.SigmaKind = profile.Linear
	})

	if got, want := f.Sigma(50), f.Sigma(10); got != want {
		t.Errorf("Sigma beyond maxr = %v, want %v", got, want)
	}
	if got, want := f.Sigma(0.01), f.Sigma(0.1); got != want {
		t.Errorf("Sigma below minr = %v, want %v", got, want)
	}
	if got := f.Sigma(5); math.Abs(got-1.5) > 1e-12 {
		t.Errorf("Sigma(5) = %v, want 1.5", got)
	}
}

func TestXFactor(t *testing.T) {
	prev := 0.0
	for e := -8.0; e <= 1.0; e += 0.05 {
		X := math.Pow(10, e)
		xf := XFactor(X)
		if !(xf > 0 && xf < 1) && X < 6 {
			t.Fatalf("XFactor(%g) = %g outside (0,1)", X, xf)
		}
		if xf < prev {
			t.Fatalf("XFactor not increasing at X=%g: %g < %g", X, xf, prev)
		}
		prev = xf
	}

	if got := XFactor(1e-4); got > 1e-11 {
		t.Errorf("XFactor(1e-4) = %g, want ~0", got)
	}
	if got := XFactor(10); got < 1-1e-12 {
		t.Errorf("XFactor(10) = %g, want ~1", got)
	}
	if got := XFactor(math.Inf(1)); got != 1 {
		t.Errorf("XFactor(+Inf) = %g, want 1", got)
	}

	// The series and the direct formula agree at the switch point.
	below := XFactor(xfactorSeriesCut * (1 - 1e-12))
	direct := math.Erf(xfactorSeriesCut) - twoOverSqrtPi*xfactorSeriesCut*math.Exp(-xfactorSeriesCut*xfactorSeriesCut)
	if relDiff(below, direct) > 1e-9 {
		t.Errorf("series %g vs direct %g at cut", below, direct)
	}
}

func TestCoulombLogSentinel(t *testing.T) {
	tests := []struct {
		in       float64
		variable bool
		out      float64
	}{
		{-1, true, -1},
		{-0.5, true, -1},
		{0, false, 0},
		{3.2, false, 3.2},
	}
	for _, tt := range tests {
		c := CoulombLogFromSentinel(tt.in)
		if c.IsVariable() != tt.variable || c.Sentinel() != tt.out {
			t.Errorf("CoulombLogFromSentinel(%v) = %v", tt.in, c)
		}
	}
	if !math.IsNaN(VariableCoulombLog().Value()) {
		t.Error("variable log should have NaN value")
	}
}

func TestNewChandrasekharFriction_Errors(t *testing.T) {
	base := func() FrictionConfig {
		cfg := DefaultFrictionConfig()
		cfg.SigmaFunc = IsothermalSigma(1)
		cfg.Background = List{constDensity(1)}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*FrictionConfig)
		want   error
	}{
		{"no background", func(c *FrictionConfig) { c.Background = nil }, ErrNoBackground},
		{"no dispersion", func(c *FrictionConfig) { c.SigmaFunc = nil }, ErrNoDispersion},
		{"bad range", func(c *FrictionConfig) { c.MaxR = c.MinR }, ErrInvalidParams},
		{"too few samples", func(c *FrictionConfig) { c.NR = 1 }, profile.ErrTooFewSamples},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			if _, err := NewChandrasekharFriction(cfg); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFriction_SetParam(t *testing.T) {
	f := newTestFriction(t, nil)

	if err := f.SetParam("lnlambda", 4); err != nil {
		t.Fatal(err)
	}
	if got := f.CoulombLogAt(1, 1); got != 4 {
		t.Errorf("fixed lnLambda = %v, want 4", got)
	}
	if err := f.SetParam("minr", 3); err != nil {
		t.Fatal(err)
	}
	if got := f.RForce(1, 1, 0, 0, 1, 1, 1); got != 0 {
		t.Errorf("RForce inside raised cutoff = %v", got)
	}
	if err := f.SetParam("maxr", 30); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("maxr should be read-only, got %v", err)
	}
	if p := f.Params(); p["lnlambda"] != 4 || p["minr"] != 3 {
		t.Errorf("unexpected params %v", p)
	}
}

func TestFriction_ScalesWithPerturberMass(t *testing.T) {
	R, z := 3.0, 0.0
	vR, vT, vz := 0.0, 1.0, 0.0

	tests := []struct {
		name string
		lnL  CoulombLog
	}{
		{"fixed log", FixedCoulombLog(3)},
		// rhm=0.1 > GMs/v² for both masses, so lnLambda stays the same.
		{"half-mass branch", VariableCoulombLog()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			light := newTestFriction(t, func(c *FrictionConfig) { c.GMs, c.Rhm, c.LnLambda = 0.01, 0.1, tt.lnL })
			heavy := newTestFriction(t, func(c *FrictionConfig) { c.GMs, c.Rhm, c.LnLambda = 0.05, 0.1, tt.lnL })

			_, _, pl := light.Forces(R, z, 0, 0, vR, vT, vz)
			_, _, ph := heavy.Forces(R, z, 0, 0, vR, vT, vz)
			if !(pl < 0) {
				t.Fatalf("light fphi = %v, want < 0", pl)
			}
			if relDiff(ph, 5*pl) > 1e-12 {
				t.Errorf("fphi(gms=0.05) = %v, want 5 * %v", ph, pl)
			}
		})
	}

	f := newTestFriction(t, func(c *FrictionConfig) { c.LnLambda = FixedCoulombLog(2) })
	before := f.RForce(1.5, 0.2, 0, 0, 0.3, 0.7, 0.1)
	if err := f.SetParam("gms", 0.03); err != nil {
		t.Fatal(err)
	}
	if after := f.RForce(1.5, 0.2, 0, 0, 0.3, 0.7, 0.1); relDiff(after, 3*before) > 1e-12 {
		t.Errorf("after SetParam(gms): %v, want %v", after, 3*before)
	}
}
