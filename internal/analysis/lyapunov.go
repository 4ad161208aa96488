package analysis

import (
	"math"

	"github.com/san-kum/galdyn/internal/dynamo"
)

// LyapunovExponent estimates the largest Lyapunov exponent from the
// separation of two trajectories started perturbation apart along
// coordinate axis. The companion is pulled back to the initial separation
// after every step and the log growth is averaged over the elapsed time.
// Regular orbits give values that shrink with duration; chaotic ones
// settle on a positive rate.
func LyapunovExponent(
	sys dynamo.System,
	integ dynamo.Integrator,
	x0 dynamo.State,
	axis int,
	dt, duration float64,
	perturbation float64,
) float64 {
	if len(x0) == 0 || axis < 0 || axis >= len(x0) || perturbation <= 0 || dt <= 0 {
		return math.NaN()
	}

	x := x0.Clone()
	xp := x0.Clone()
	xp[axis] += perturbation
	d0 := perturbation

	steps := int(math.Round(duration / dt))
	sumLog := 0.0
	t := 0.0
	for i := 0; i < steps; i++ {
		x = integ.Step(sys, x, t, dt)
		xp = integ.Step(sys, xp, t, dt)
		t += dt
		if !x.IsValid() || !xp.IsValid() {
			return math.NaN()
		}

		sep := xp.Sub(x).Norm()
		if sep == 0 {
			continue
		}
		sumLog += math.Log(sep / d0)

		scale := d0 / sep
		for j := range xp {
			xp[j] = x[j] + (xp[j]-x[j])*scale
		}
	}

	if t == 0 {
		return math.NaN()
	}
	return sumLog / t
}

// LyapunovSpectrum runs LyapunovExponent once per coordinate axis. It is
// a cheap directional scan, not an orthonormalized spectrum.
func LyapunovSpectrum(
	sys dynamo.System,
	integ dynamo.Integrator,
	x0 dynamo.State,
	dt, duration float64,
	perturbation float64,
) []float64 {
	out := make([]float64, len(x0))
	for i := range x0 {
		out[i] = LyapunovExponent(sys, integ, x0, i, dt, duration, perturbation)
	}
	return out
}
