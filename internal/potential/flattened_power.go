package potential

import "math"

// DefaultCore is the core radius used when none is given. It keeps the
// potential finite at the origin.
const DefaultCore = 1e-8

// FlattenedPower is a power-law potential flattened in the potential, not
// the density:
//
//	Phi(R,z) = -amp / (alpha * m^alpha),  m² = R² + z²/q² + core²
//
// alpha = 0 is the logarithmic limit Phi = amp/2 * ln(m²).
type FlattenedPower struct {
	Amp   float64
	Alpha float64
	Q     float64
	Core  float64
}

// NewFlattenedPower returns a model with the given amplitude, power,
// flattening q and core radius.
func NewFlattenedPower(amp, alpha, q, core float64) *FlattenedPower {
	return &FlattenedPower{
		Amp:   amp,
		Alpha: alpha,
		Q:     q,
		Core:  core,
	}
}

func (f *FlattenedPower) m2(R, z float64) float64 {
	return f.Core*f.Core + R*R + z*z/(f.Q*f.Q)
}

func (f *FlattenedPower) Eval(R, z, phi, t float64) float64 {
	m2 := f.m2(R, z)
	if f.Alpha == 0 {
		return f.Amp * 0.5 * math.Log(m2)
	}
	return -f.Amp * math.Pow(m2, -0.5*f.Alpha) / f.Alpha
}

func (f *FlattenedPower) RForce(R, z, phi, t float64) float64 {
	return -f.Amp * math.Pow(f.m2(R, z), -0.5*f.Alpha-1) * R
}

func (f *FlattenedPower) ZForce(R, z, phi, t float64) float64 {
	return -f.Amp * math.Pow(f.m2(R, z), -0.5*f.Alpha-1) * z / (f.Q * f.Q)
}

func (f *FlattenedPower) PhiForce(R, z, phi, t float64) float64 {
	return 0
}

func (f *FlattenedPower) R2deriv(R, z, phi, t float64) float64 {
	m2 := f.m2(R, z)
	return -f.Amp * math.Pow(m2, -0.5*f.Alpha-1) * ((f.Alpha+2)*R*R/m2 - 1)
}

func (f *FlattenedPower) Z2deriv(R, z, phi, t float64) float64 {
	m2 := f.m2(R, z)
	q2 := f.Q * f.Q
	return -f.Amp / q2 * math.Pow(m2, -0.5*f.Alpha-1) * ((f.Alpha+2)*z*z/m2/q2 - 1)
}

func (f *FlattenedPower) PlanarRForce(R, phi, t float64) float64 {
	return f.RForce(R, 0, phi, t)
}

func (f *FlattenedPower) PlanarR2deriv(R, phi, t float64) float64 {
	return f.R2deriv(R, 0, phi, t)
}

// Dens follows from Poisson's equation, so the logarithmic case carries
// the same 1/4pi as every other alpha.
func (f *FlattenedPower) Dens(R, z, phi, t float64) float64 {
	m2 := f.m2(R, z)
	q2 := f.Q * f.Q
	c2 := f.Core * f.Core
	num := c2*(1+2*q2) + R*R*(1-f.Alpha*q2) + z*z*(2-(1+f.Alpha)/q2)
	return f.Amp / q2 * num * math.Pow(m2, -0.5*f.Alpha-2) / 4 / math.Pi
}

func (f *FlattenedPower) Params() map[string]float64 {
	return map[string]float64{
		"amp":   f.Amp,
		"alpha": f.Alpha,
		"q":     f.Q,
		"core":  f.Core,
	}
}

func (f *FlattenedPower) SetParam(name string, value float64) error {
	switch name {
	case "amp":
		f.Amp = value
	case "alpha":
		f.Alpha = value
	case "q":
		f.Q = value
	case "core":
		f.Core = value
	default:
		return unknownParam("flattened_power", name)
	}
	return nil
}
