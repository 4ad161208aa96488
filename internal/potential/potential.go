package potential

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnknownParam  = errors.New("potential: unknown parameter")
	ErrNoBackground  = errors.New("potential: friction needs at least one background density")
	ErrNoDispersion  = errors.New("potential: friction needs a velocity dispersion profile or function")
	ErrInvalidParams = errors.New("potential: invalid parameters")
)

// DensityEvaluator is anything that can report a mass density.
type DensityEvaluator interface {
	Dens(R, z, phi, t float64) float64
}

// Potential is a position-only model.
type Potential interface {
	DensityEvaluator
	Eval(R, z, phi, t float64) float64
	RForce(R, z, phi, t float64) float64
	ZForce(R, z, phi, t float64) float64
	PhiForce(R, z, phi, t float64) float64
}

// Planar is implemented by models with in-plane (z=0) specializations.
type Planar interface {
	PlanarRForce(R, phi, t float64) float64
	PlanarR2deriv(R, phi, t float64) float64
}

// Dissipative is a force that also depends on velocity (vR, vT, vz).
type Dissipative interface {
	RForce(R, z, phi, t, vR, vT, vz float64) float64
	ZForce(R, z, phi, t, vR, vT, vz float64) float64
	PhiForce(R, z, phi, t, vR, vT, vz float64) float64
	Forces(R, z, phi, t, vR, vT, vz float64) (fR, fz, fphi float64)
}

// Configurable exposes named scalar parameters.
type Configurable interface {
	Params() map[string]float64
	SetParam(name string, value float64) error
}

// List is an ordered set of density sources. Its Dens is the sum of the
// members' densities, accumulated in slice order.
type List []DensityEvaluator

// Dens sums the member densities. NaN or Inf from any member propagates.
func (l List) Dens(R, z, phi, t float64) float64 {
	sum := 0.0
	for _, d := range l {
		sum += d.Dens(R, z, phi, t)
	}
	return sum
}

// Densities converts potentials into a List that borrows them.
func Densities(pots ...Potential) List {
	l := make(List, len(pots))
	for i, p := range pots {
		l[i] = p
	}
	return l
}

// EvaluatePotentials sums Eval over pots.
func EvaluatePotentials(pots []Potential, R, z, phi, t float64) float64 {
	sum := 0.0
	for _, p := range pots {
		sum += p.Eval(R, z, phi, t)
	}
	return sum
}

// EvaluateRForces sums RForce over pots.
func EvaluateRForces(pots []Potential, R, z, phi, t float64) float64 {
	sum := 0.0
	for _, p := range pots {
		sum += p.RForce(R, z, phi, t)
	}
	return sum
}

// EvaluateZForces sums ZForce over pots.
func EvaluateZForces(pots []Potential, R, z, phi, t float64) float64 {
	sum := 0.0
	for _, p := range pots {
		sum += p.ZForce(R, z, phi, t)
	}
	return sum
}

// EvaluatePhiForces sums PhiForce over pots.
func EvaluatePhiForces(pots []Potential, R, z, phi, t float64) float64 {
	sum := 0.0
	for _, p := range pots {
		sum += p.PhiForce(R, z, phi, t)
	}
	return sum
}

// EvaluateDensities sums Dens over pots.
func EvaluateDensities(pots []Potential, R, z, phi, t float64) float64 {
	return Densities(pots...).Dens(R, z, phi, t)
}

// Vcirc is the circular velocity in the plane, sqrt(-R * F_R(R, 0)).
// Models that implement Planar use their planar force.
func Vcirc(pots []Potential, R, phi, t float64) float64 {
	fR := 0.0
	for _, p := range pots {
		if pl, ok := p.(Planar); ok {
			fR += pl.PlanarRForce(R, phi, t)
		} else {
			fR += p.RForce(R, 0, phi, t)
		}
	}
	return math.Sqrt(-R * fR)
}

func unknownParam(model, name string) error {
	return fmt.Errorf("%w: %s has no %q", ErrUnknownParam, model, name)
}
