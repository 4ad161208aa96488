package potential

import (
	"math"
	"testing"
)

// opaque hides any Planar specialization of the wrapped model.
type opaque struct{ Potential }

func TestList_Dens(t *testing.T) {
	l := List{constDensity(2), constDensity(3)}
	if got := l.Dens(1, 0, 0, 0); got != 5 {
		t.Errorf("Dens = %v, want 5", got)
	}
	if got := (List{}).Dens(1, 0, 0, 0); got != 0 {
		t.Errorf("empty Dens = %v, want 0", got)
	}
	if got := (List{constDensity(1), constDensity(math.NaN())}).Dens(1, 0, 0, 0); !math.IsNaN(got) {
		t.Errorf("NaN member should propagate, got %v", got)
	}
}

func TestDensities_MatchesMembers(t *testing.T) {
	a := NewPowerSphericalCutoff(1, 1.5, 2)
	b := NewFlattenedPower(0.5, 0.8, 0.9, DefaultCore)
	l := Densities(a, b)

	R, z := 0.8, 0.3
	want := a.Dens(R, z, 0, 0) + b.Dens(R, z, 0, 0)
	if got := l.Dens(R, z, 0, 0); got != want {
		t.Errorf("Densities sum = %v, want %v", got, want)
	}
	if got := EvaluateDensities([]Potential{a, b}, R, z, 0, 0); got != want {
		t.Errorf("EvaluateDensities = %v, want %v", got, want)
	}
}

func TestEvaluateForces_Additive(t *testing.T) {
	a := NewPowerSphericalCutoff(1, 1.5, 2)
	b := NewFlattenedPower(0.5, 0.8, 0.9, DefaultCore)
	pots := []Potential{a, b}
	R, z := 1.7, -0.4

	if got, want := EvaluatePotentials(pots, R, z, 0, 0), a.Eval(R, z, 0, 0)+b.Eval(R, z, 0, 0); got != want {
		t.Errorf("EvaluatePotentials = %v, want %v", got, want)
	}
	if got, want := EvaluateRForces(pots, R, z, 0, 0), a.RForce(R, z, 0, 0)+b.RForce(R, z, 0, 0); got != want {
		t.Errorf("EvaluateRForces = %v, want %v", got, want)
	}
	if got, want := EvaluateZForces(pots, R, z, 0, 0), a.ZForce(R, z, 0, 0)+b.ZForce(R, z, 0, 0); got != want {
		t.Errorf("EvaluateZForces = %v, want %v", got, want)
	}
	if got := EvaluatePhiForces(pots, R, z, 0, 0); got != 0 {
		t.Errorf("EvaluatePhiForces = %v, want 0 for axisymmetric models", got)
	}
}

func TestVcirc_Kepler(t *testing.T) {
	kepler := NewFlattenedPower(2, 1, 1, DefaultCore)

	for _, R := range []float64{0.5, 1, 4} {
		want := math.Sqrt(2 / R)
		if got := Vcirc([]Potential{kepler}, R, 0, 0); relDiff(got, want) > 1e-10 {
			t.Errorf("Vcirc(%v) = %v, want %v", R, got, want)
		}
		if got := Vcirc([]Potential{opaque{kepler}}, R, 0, 0); relDiff(got, want) > 1e-10 {
			t.Errorf("Vcirc(%v) without planar = %v, want %v", R, got, want)
		}
	}
}

func TestVcirc_CutoffMatchesEnclosedMass(t *testing.T) {
	p := NewPowerSphericalCutoff(1, 1, 1)
	R := 1.5
	want := math.Sqrt(MassEnclosed(R*R, 1, 1) / R)
	if got := Vcirc([]Potential{p}, R, 0, 0); relDiff(got, want) > 1e-12 {
		t.Errorf("Vcirc = %v, want %v", got, want)
	}
}
