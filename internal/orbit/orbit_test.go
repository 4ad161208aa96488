package orbit

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/galdyn/internal/dynamo"
	"github.com/san-kum/galdyn/internal/integrators"
	"github.com/san-kum/galdyn/internal/potential"
)

func TestCylindricalRoundTrip(t *testing.T) {
	points := []Cylindrical{
		{R: 1.5, Z: 0.3, Phi: 0.7, VR: 0.1, VT: 0.9, VZ: -0.2},
		{R: 0.2, Z: -1, Phi: -2.5, VR: -0.4, VT: 0.05, VZ: 0},
		{R: 3, Z: 0, Phi: math.Pi / 2, VR: 0, VT: -1, VZ: 0.3},
	}
	for _, c := range points {
		got := ToCylindrical(FromCylindrical(c))
		for _, pair := range [][2]float64{
			{got.R, c.R}, {got.Z, c.Z}, {got.Phi, c.Phi},
			{got.VR, c.VR}, {got.VT, c.VT}, {got.VZ, c.VZ},
		} {
			if math.Abs(pair[0]-pair[1]) > 1e-12 {
				t.Errorf("round trip of %+v gave %+v", c, got)
				break
			}
		}
	}
}

func TestToCylindrical_OnAxis(t *testing.T) {
	c := ToCylindrical(dynamo.State{0, 0, 1, 0.3, 0.4, 0.5})
	if c.R != 0 || c.Phi != 0 || c.VR != 0.3 || c.VT != 0.4 {
		t.Errorf("on-axis conversion = %+v", c)
	}

	sys := New([]potential.Potential{potential.NewPowerSphericalCutoff(1, 1, 2)}, nil)
	if dx := sys.Derive(dynamo.State{0, 0, 1, 0.3, 0.4, 0.5}, 0); !dx.IsValid() {
		t.Errorf("Derive on axis = %v", dx)
	}
}

func TestDerive_MatchesCylindricalForces(t *testing.T) {
	halo := potential.NewPowerSphericalCutoff(1, 1.5, 3)
	sys := New([]potential.Potential{halo}, nil)

	c := Cylindrical{R: 1.2, Z: 0.4, Phi: 0.9, VR: 0.1, VT: 0.8}
	dx := sys.Derive(FromCylindrical(c), 0)

	fR := halo.RForce(c.R, c.Z, c.Phi, 0)
	aR := dx[3]*math.Cos(c.Phi) + dx[4]*math.Sin(c.Phi)
	aT := -dx[3]*math.Sin(c.Phi) + dx[4]*math.Cos(c.Phi)
	if math.Abs(aR-fR) > 1e-14 {
		t.Errorf("radial acceleration %v, want %v", aR, fR)
	}
	if math.Abs(aT) > 1e-14 {
		t.Errorf("tangential acceleration %v, want 0", aT)
	}
	if got, want := dx[5], halo.ZForce(c.R, c.Z, c.Phi, 0); got != want {
		t.Errorf("vertical acceleration %v, want %v", got, want)
	}
}

func TestCircularOrbitStaysCircular(t *testing.T) {
	pots := []potential.Potential{potential.NewPowerSphericalCutoff(1, 1, 5)}
	sys := New(pots, nil)
	x := Circular(pots, 2)

	integ := integrators.NewRK4()
	worst := 0.0
	for i := 0; i < 500; i++ {
		x = integ.Step(sys, x, float64(i)*0.01, 0.01)
		worst = math.Max(worst, math.Abs(Radius(x)-2))
	}
	if worst > 1e-6 {
		t.Errorf("radius wandered by %e", worst)
	}
}

func TestEnergyConservedWithoutFriction(t *testing.T) {
	pots := []potential.Potential{
		potential.NewPowerSphericalCutoff(1, 1.5, 3),
		potential.NewFlattenedPower(0.3, 0.5, 0.8, 0.1),
	}
	sys := New(pots, nil)
	x0 := FromCylindrical(Cylindrical{R: 2, Z: 0.5, VT: 0.7 * potential.Vcirc(pots, 2, 0, 0), VZ: 0.1})

	s := dynamo.New(sys, integrators.NewLeapfrog())
	cfg := dynamo.DefaultConfig()
	cfg.Dt = 0.005
	cfg.Duration = 30
	result, err := s.Run(context.Background(), x0, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("run errors: %v", result.Errors)
	}
	if result.EnergyDrift > 1e-4 {
		t.Errorf("energy drift %e", result.EnergyDrift)
	}

	// Axisymmetric potentials conserve Lz exactly up to round-off.
	if got, want := Lz(result.Final()), Lz(x0); math.Abs(got-want) > 1e-9*math.Abs(want) {
		t.Errorf("Lz = %v, want %v", got, want)
	}
}

func TestFrictionDrainsAngularMomentum(t *testing.T) {
	halo := potential.NewPowerSphericalCutoff(1, 1, 5)
	pots := []potential.Potential{halo}

	cfg := potential.DefaultFrictionConfig()
	cfg.Amp = 0.1
	cfg.GMs = 0.05
	cfg.LnLambda = potential.FixedCoulombLog(3)
	cfg.MinR = 0.1
	cfg.MaxR = 20
	cfg.NR = 101
	cfg.SigmaFunc = potential.IsothermalSigma(potential.Vcirc(pots, 2, 0, 0))
	cfg.Background = potential.Densities(halo)
	fric, err := potential.NewChandrasekharFriction(cfg)
	if err != nil {
		t.Fatal(err)
	}

	sys := New(pots, []potential.Dissipative{fric})
	x := Circular(pots, 2)
	l0, e0 := Lz(x), sys.Energy(x)

	integ := integrators.NewRK4()
	prev := l0
	for i := 0; i < 2000; i++ {
		x = integ.Step(sys, x, float64(i)*0.01, 0.01)
		l := Lz(x)
		if l > prev {
			t.Fatalf("Lz increased at step %d: %v > %v", i, l, prev)
		}
		prev = l
	}

	if prev > 0.995*l0 {
		t.Errorf("Lz only fell from %v to %v", l0, prev)
	}
	if e := sys.Energy(x); e >= e0 {
		t.Errorf("energy rose from %v to %v", e0, e)
	}
	if Radius(x) >= 2 {
		t.Errorf("orbit did not sink: r=%v", Radius(x))
	}
}
