package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/galdyn/internal/dynamo"
	"github.com/san-kum/galdyn/internal/potential"
)

var ErrBadRange = errors.New("analysis: invalid radius range")

// Curve samples a potential set along the plane z=0.
type Curve struct {
	R      []float64
	Vcirc  []float64
	Dens   []float64
	RForce []float64
	Omega  []float64
	Kappa  []float64
}

// RotationCurve evaluates n evenly spaced radii in [rmin, rmax].
// Radii are evaluated concurrently; the models' caches are safe for that.
func RotationCurve(pots []potential.Potential, rmin, rmax float64, n int) (*Curve, error) {
	if n < 2 || rmin <= 0 || rmax <= rmin {
		return nil, ErrBadRange
	}

	c := &Curve{
		R:      floats.Span(make([]float64, n), rmin, rmax),
		Vcirc:  make([]float64, n),
		Dens:   make([]float64, n),
		RForce: make([]float64, n),
		Omega:  make([]float64, n),
		Kappa:  make([]float64, n),
	}
	dynamo.ParallelFor(n, 16, func(start, end int) {
		for i := start; i < end; i++ {
			R := c.R[i]
			c.Vcirc[i] = potential.Vcirc(pots, R, 0, 0)
			c.Dens[i] = potential.EvaluateDensities(pots, R, 0, 0, 0)
			c.RForce[i] = potential.EvaluateRForces(pots, R, 0, 0, 0)
			c.Omega[i], c.Kappa[i], _ = Frequencies(pots, R)
		}
	})
	return c, nil
}

type secondDerivs interface {
	R2deriv(R, z, phi, t float64) float64
	Z2deriv(R, z, phi, t float64) float64
}

// Frequencies returns the circular (Ω), epicyclic (κ) and vertical (ν)
// frequencies in the plane at radius R:
//
//	Ω² = -F_R/R,  κ² = ∂²Φ/∂R² + 3Ω²,  ν² = ∂²Φ/∂z²
//
// Models without analytic second derivatives are differenced numerically.
// An imaginary frequency comes back as NaN.
func Frequencies(pots []potential.Potential, R float64) (omega, kappa, nu float64) {
	fR := potential.EvaluateRForces(pots, R, 0, 0, 0)
	omega2 := -fR / R

	var r2, z2 float64
	for _, p := range pots {
		if d, ok := p.(secondDerivs); ok {
			r2 += d.R2deriv(R, 0, 0, 0)
			z2 += d.Z2deriv(R, 0, 0, 0)
			continue
		}
		r2 += numericR2(p, R)
		z2 += numericZ2(p, R)
	}

	return sqrtOrNaN(omega2), sqrtOrNaN(r2 + 3*omega2), sqrtOrNaN(z2)
}

func numericR2(p potential.Potential, R float64) float64 {
	h := 1e-5 * math.Max(R, 1)
	return -(p.RForce(R+h, 0, 0, 0) - p.RForce(R-h, 0, 0, 0)) / (2 * h)
}

func numericZ2(p potential.Potential, R float64) float64 {
	h := 1e-5 * math.Max(R, 1)
	return -(p.ZForce(R, h, 0, 0) - p.ZForce(R, -h, 0, 0)) / (2 * h)
}

func sqrtOrNaN(v float64) float64 {
	if v < 0 {
		return math.NaN()
	}
	return math.Sqrt(v)
}
