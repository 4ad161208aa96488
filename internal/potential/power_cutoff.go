package potential

import (
	"math"

	"github.com/san-kum/galdyn/internal/specfun"
)

// PowerSphericalCutoff is a spherical power law with a Gaussian cutoff,
//
//	rho(r) = amp * r^-alpha * exp(-(r/rc)^2)
//
// Call ClearCache after changing fields directly.
type PowerSphericalCutoff struct {
	Amp   float64
	Alpha float64
	Rc    float64

	cache forceCache
}

// NewPowerSphericalCutoff returns a model with the given amplitude, inner
// slope alpha and cutoff radius rc.
func NewPowerSphericalCutoff(amp, alpha, rc float64) *PowerSphericalCutoff {
	return &PowerSphericalCutoff{
		Amp:   amp,
		Alpha: alpha,
		Rc:    rc,
	}
}

// MassEnclosed is the mass inside radius sqrt(r2) for unit amplitude.
func MassEnclosed(r2, alpha, rc float64) float64 {
	a := 1.5 - 0.5*alpha
	return 2 * math.Pi * math.Pow(rc, 3-alpha) * specfun.Gamma(a) * specfun.GammaP(a, r2/rc/rc)
}

// Mass is the amplitude-scaled mass inside radius r.
func (p *PowerSphericalCutoff) Mass(r float64) float64 {
	return p.Amp * MassEnclosed(r*r, p.Alpha, p.Rc)
}

// radialForce is F_r / r, shared by RForce and ZForce.
func (p *PowerSphericalCutoff) radialForce(r2 float64) float64 {
	return -p.Amp * MassEnclosed(r2, p.Alpha, p.Rc) / math.Pow(r2, 1.5)
}

func (p *PowerSphericalCutoff) Eval(R, z, phi, t float64) float64 {
	r2 := R*R + z*z
	r := math.Sqrt(r2)
	x := r2 / p.Rc / p.Rc
	a1 := 1 - 0.5*p.Alpha
	a2 := 1.5 - 0.5*p.Alpha
	inner := r / p.Rc * (specfun.Gamma(a1) - specfun.GammaInc(a1, x))
	outer := specfun.Gamma(a2) - specfun.GammaInc(a2, x)
	return p.Amp * 2 * math.Pi * math.Pow(p.Rc, 3-p.Alpha) / r * (inner - outer)
}

func (p *PowerSphericalCutoff) RForce(R, z, phi, t float64) float64 {
	return p.cache.get(R*R+z*z, p.radialForce) * R
}

func (p *PowerSphericalCutoff) ZForce(R, z, phi, t float64) float64 {
	return p.cache.get(R*R+z*z, p.radialForce) * z
}

func (p *PowerSphericalCutoff) PhiForce(R, z, phi, t float64) float64 {
	return 0
}

// PlanarRForce is the z=0 radial force. It does not touch the cache.
func (p *PowerSphericalCutoff) PlanarRForce(R, phi, t float64) float64 {
	r2 := R * R
	return -p.Amp * MassEnclosed(r2, p.Alpha, p.Rc) / r2
}

// PlanarR2deriv is d²Phi/dR² at z=0. It does not touch the cache.
func (p *PowerSphericalCutoff) PlanarR2deriv(R, phi, t float64) float64 {
	r2 := R * R
	return p.Amp * (4*math.Pi*math.Pow(r2, -0.5*p.Alpha)*math.Exp(-r2/p.Rc/p.Rc) -
		2*MassEnclosed(r2, p.Alpha, p.Rc)/math.Pow(r2, 1.5))
}

// radialDerivs returns Phi''(r) and Phi'(r)/r.
func (p *PowerSphericalCutoff) radialDerivs(r2 float64) (d2, d1r float64) {
	m := MassEnclosed(r2, p.Alpha, p.Rc)
	d1r = p.Amp * m / math.Pow(r2, 1.5)
	d2 = p.Amp*4*math.Pi*math.Pow(r2, -0.5*p.Alpha)*math.Exp(-r2/p.Rc/p.Rc) - 2*d1r
	return d2, d1r
}

func (p *PowerSphericalCutoff) R2deriv(R, z, phi, t float64) float64 {
	r2 := R*R + z*z
	d2, d1r := p.radialDerivs(r2)
	return (R*R*d2 + z*z*d1r) / r2
}

func (p *PowerSphericalCutoff) Z2deriv(R, z, phi, t float64) float64 {
	r2 := R*R + z*z
	d2, d1r := p.radialDerivs(r2)
	return (z*z*d2 + R*R*d1r) / r2
}

func (p *PowerSphericalCutoff) RZderiv(R, z, phi, t float64) float64 {
	r2 := R*R + z*z
	d2, d1r := p.radialDerivs(r2)
	return R * z * (d2 - d1r) / r2
}

func (p *PowerSphericalCutoff) Dens(R, z, phi, t float64) float64 {
	r2 := R*R + z*z
	r := math.Sqrt(r2)
	return p.Amp * math.Pow(r, -p.Alpha) * math.Exp(-r2/p.Rc/p.Rc)
}

// ClearCache drops the remembered radial force.
func (p *PowerSphericalCutoff) ClearCache() {
	p.cache.reset()
}

func (p *PowerSphericalCutoff) Params() map[string]float64 {
	return map[string]float64{
		"amp":   p.Amp,
		"alpha": p.Alpha,
		"rc":    p.Rc,
	}
}

func (p *PowerSphericalCutoff) SetParam(name string, value float64) error {
	switch name {
	case "amp":
		p.Amp = value
	case "alpha":
		p.Alpha = value
	case "rc":
		p.Rc = value
	default:
		return unknownParam("power_cutoff", name)
	}
	p.cache.reset()
	return nil
}
