package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/galdyn/internal/dynamo"
	"github.com/san-kum/galdyn/internal/integrators"
	"github.com/san-kum/galdyn/internal/orbit"
	"github.com/san-kum/galdyn/internal/potential"
)

// opaque hides the analytic second derivatives.
type opaque struct{ potential.Potential }

func logHalo(q float64) []potential.Potential {
	return []potential.Potential{potential.NewFlattenedPower(1, 0, q, 0)}
}

func TestPowerSpectrum_SinePeak(t *testing.T) {
	const (
		f  = 0.5
		dt = 0.05
		n  = 400
	)
	x := make([]float64, n)
	for i := range x {
		x[i] = 3 + math.Sin(2*math.Pi*f*float64(i)*dt)
	}

	s, err := PowerSpectrum(x, dt)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Freq) != n/2+1 {
		t.Fatalf("got %d bins, want %d", len(s.Freq), n/2+1)
	}
	peak, power := s.Peak()
	if s.Power[0] > 1e-3*power {
		t.Errorf("mean not removed: DC power %v against peak %v", s.Power[0], power)
	}
	if math.Abs(peak-f) > 0.01 {
		t.Errorf("peak at %v, want %v", peak, f)
	}
}

func TestPowerSpectrum_TooShort(t *testing.T) {
	if _, err := PowerSpectrum([]float64{1, 2, 3}, 0.1); !errors.Is(err, ErrTooShort) {
		t.Errorf("err = %v, want ErrTooShort", err)
	}
	if _, _, err := Resample([]float64{0}, []float64{1}, 10); !errors.Is(err, ErrTooShort) {
		t.Errorf("resample err = %v, want ErrTooShort", err)
	}
}

func TestResample_Linear(t *testing.T) {
	times := []float64{0, 0.3, 0.35, 1, 2}
	vals := make([]float64, len(times))
	for i, tt := range times {
		vals[i] = 2*tt - 1
	}

	dt, out, err := Resample(times, vals, 5)
	if err != nil {
		t.Fatal(err)
	}
	if dt != 0.5 {
		t.Errorf("dt = %v, want 0.5", dt)
	}
	for i, v := range out {
		want := 2*(float64(i)*0.5) - 1
		if math.Abs(v-want) > 1e-12 {
			t.Errorf("out[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestFrequencies_Logarithmic(t *testing.T) {
	const R, q = 2.0, 0.8
	omega, kappa, nu := Frequencies(logHalo(q), R)

	if math.Abs(omega-1/R) > 1e-12 {
		t.Errorf("omega = %v, want %v", omega, 1/R)
	}
	if math.Abs(kappa-math.Sqrt2/R) > 1e-12 {
		t.Errorf("kappa = %v, want %v", kappa, math.Sqrt2/R)
	}
	if math.Abs(nu-1/(q*R)) > 1e-12 {
		t.Errorf("nu = %v, want %v", nu, 1/(q*R))
	}
}

func TestFrequencies_NumericFallback(t *testing.T) {
	halo := potential.NewPowerSphericalCutoff(1, 1.5, 4)
	analytic := []potential.Potential{halo}
	numeric := []potential.Potential{opaque{halo}}

	for _, R := range []float64{0.5, 1, 3} {
		o1, k1, n1 := Frequencies(analytic, R)
		o2, k2, n2 := Frequencies(numeric, R)
		if o1 != o2 {
			t.Errorf("R=%v omega %v vs %v", R, o1, o2)
		}
		if math.Abs(k1-k2) > 1e-5*k1 || math.Abs(n1-n2) > 1e-5*n1 {
			t.Errorf("R=%v analytic (%v, %v) numeric (%v, %v)", R, k1, n1, k2, n2)
		}
	}
}

func TestRotationCurve(t *testing.T) {
	pots := logHalo(0.9)
	c, err := RotationCurve(pots, 0.5, 5, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.R) != 10 || c.R[0] != 0.5 || c.R[9] != 5 {
		t.Fatalf("radii = %v", c.R)
	}
	for i, R := range c.R {
		if math.Abs(c.Vcirc[i]-1) > 1e-12 {
			t.Errorf("vcirc(%v) = %v, want flat 1", R, c.Vcirc[i])
		}
		if got, want := c.RForce[i], potential.EvaluateRForces(pots, R, 0, 0, 0); got != want {
			t.Errorf("rforce(%v) = %v, want %v", R, got, want)
		}
		if c.Dens[i] <= 0 {
			t.Errorf("dens(%v) = %v", R, c.Dens[i])
		}
		if math.Abs(c.Kappa[i]-math.Sqrt2*c.Omega[i]) > 1e-12 {
			t.Errorf("kappa/omega at %v = %v", R, c.Kappa[i]/c.Omega[i])
		}
	}

	for _, args := range [][2]float64{{0, 1}, {2, 1}, {-1, 3}} {
		if _, err := RotationCurve(pots, args[0], args[1], 10); !errors.Is(err, ErrBadRange) {
			t.Errorf("range %v: err = %v", args, err)
		}
	}
	if _, err := RotationCurve(pots, 1, 2, 1); !errors.Is(err, ErrBadRange) {
		t.Errorf("n=1: err = %v", err)
	}
}

func integrate(sys dynamo.System, x dynamo.State, dt float64, steps int) ([]float64, []dynamo.State) {
	integ := integrators.NewRK4()
	times := []float64{0}
	states := []dynamo.State{x}
	for i := 0; i < steps; i++ {
		x = integ.Step(sys, x, float64(i)*dt, dt)
		times = append(times, float64(i+1)*dt)
		states = append(states, x)
	}
	return times, states
}

func TestRadialFrequency_MatchesEpicycle(t *testing.T) {
	pots := []potential.Potential{potential.NewPowerSphericalCutoff(1, 1, 5)}
	const R = 2.0
	_, kappa, _ := Frequencies(pots, R)

	c := orbit.ToCylindrical(orbit.Circular(pots, R))
	c.VR = 0.01
	period := 2 * math.Pi / kappa
	const dt = 0.01
	times, states := integrate(orbit.New(pots, nil), orbit.FromCylindrical(c), dt, int(20*period/dt))

	got, err := RadialFrequency(times, states)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-kappa)/kappa > 0.03 {
		t.Errorf("radial frequency %v, epicyclic %v", got, kappa)
	}

	if _, err := RadialFrequency(times[:3], states); err == nil {
		t.Error("expected length mismatch error")
	}
}

func TestSurfaceOfSection_UpwardCrossings(t *testing.T) {
	states := []dynamo.State{
		orbit.FromCylindrical(orbit.Cylindrical{R: 1, Z: -1, VR: 0.2}),
		orbit.FromCylindrical(orbit.Cylindrical{R: 2, Z: 1, VR: 0.4}),
		orbit.FromCylindrical(orbit.Cylindrical{R: 2, Z: -0.5, VR: 0}),
		orbit.FromCylindrical(orbit.Cylindrical{R: 3, Z: 0, VR: 0.1}),
	}
	pts := SurfaceOfSection(states)
	if len(pts) != 2 {
		t.Fatalf("got %d crossings, want 2: %v", len(pts), pts)
	}
	if math.Abs(pts[0].X-1.5) > 1e-12 || math.Abs(pts[0].Y-0.3) > 1e-12 {
		t.Errorf("first crossing %+v, want {1.5 0.3}", pts[0])
	}
	if math.Abs(pts[1].X-3) > 1e-12 || math.Abs(pts[1].Y-0.1) > 1e-12 {
		t.Errorf("second crossing %+v, want {3 0.1}", pts[1])
	}

	m := Meridional(states)
	if len(m) != 4 || m[1] != (Point{X: 2, Y: 1}) {
		t.Errorf("meridional = %v", m)
	}
}

func TestScatter(t *testing.T) {
	if Scatter(nil, 10, 5) != "" {
		t.Error("empty input should render nothing")
	}

	out := Scatter([]Point{{-1, -1}, {1, 1}, {0.5, -0.2}}, 20, 8)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 8 {
		t.Fatalf("got %d lines, want 8", len(lines))
	}
	for _, l := range lines {
		if n := len([]rune(l)); n != 20 {
			t.Errorf("line width %d, want 20", n)
		}
	}
	if strings.Count(out, "•") != 3 {
		t.Errorf("expected 3 points in\n%s", out)
	}
	if !strings.Contains(out, "│") || !strings.Contains(out, "─") {
		t.Errorf("axes missing in\n%s", out)
	}
}

func TestLyapunov_RegularOrbit(t *testing.T) {
	pots := []potential.Potential{potential.NewPowerSphericalCutoff(1, 1, 5)}
	sys := orbit.New(pots, nil)
	x0 := orbit.Circular(pots, 2)
	integ := integrators.NewRK4()

	lambda := LyapunovExponent(sys, integ, x0, 0, 0.01, 50, 1e-8)
	if math.IsNaN(lambda) || lambda > 0.2 {
		t.Errorf("regular orbit lambda = %v", lambda)
	}

	if !math.IsNaN(LyapunovExponent(sys, integ, x0, 9, 0.01, 1, 1e-8)) {
		t.Error("out-of-range axis should give NaN")
	}

	exps := LyapunovSpectrum(sys, integ, x0, 0.01, 5, 1e-8)
	if len(exps) != 6 {
		t.Errorf("spectrum length %d", len(exps))
	}
}
