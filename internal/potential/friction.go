package potential

import (
	"fmt"
	"math"

	"github.com/san-kum/galdyn/internal/profile"
	"github.com/san-kum/galdyn/internal/specfun"
)

const (
	twoOverSqrtPi    = 2 / 1.772453850905516027298167483341145
	xfactorSeriesCut = 0.1
)

// CoulombLog is either a fixed ln(Lambda) or a request to compute it from
// the local radius and speed.
type CoulombLog struct {
	variable bool
	value    float64
}

// FixedCoulombLog uses v for every evaluation.
func FixedCoulombLog(v float64) CoulombLog {
	return CoulombLog{value: v}
}

// VariableCoulombLog computes ln(Lambda) per evaluation.
func VariableCoulombLog() CoulombLog {
	return CoulombLog{variable: true}
}

// CoulombLogFromSentinel decodes the flat-parameter convention where a
// negative value means variable.
func CoulombLogFromSentinel(v float64) CoulombLog {
	if v < 0 {
		return VariableCoulombLog()
	}
	return FixedCoulombLog(v)
}

func (c CoulombLog) IsVariable() bool { return c.variable }

// Value is the fixed ln(Lambda). It is NaN for a variable log.
func (c CoulombLog) Value() float64 {
	if c.variable {
		return math.NaN()
	}
	return c.value
}

// Sentinel encodes c back into the flat-parameter convention.
func (c CoulombLog) Sentinel() float64 {
	if c.variable {
		return -1
	}
	return c.value
}

func (c CoulombLog) String() string {
	if c.variable {
		return "variable"
	}
	return fmt.Sprintf("%g", c.value)
}

// XFactor is the fraction of a Maxwellian background slower than a
// perturber moving at X = v/(sigma*sqrt(2)):
//
//	erf(X) - 2/sqrt(pi) * X * exp(-X²)
//
// Small X uses the power series, which stays positive where the direct
// difference would cancel.
func XFactor(X float64) float64 {
	switch {
	case math.IsNaN(X):
		return X
	case math.IsInf(X, 1):
		return 1
	case math.Abs(X) < xfactorSeriesCut:
		x2 := X * X
		term := X
		sum := 0.0
		for n := 1; n <= 8; n++ {
			term *= -x2 / float64(n)
			sum -= term * float64(2*n) / float64(2*n+1)
		}
		return twoOverSqrtPi * sum
	}
	return specfun.Erf(X) - twoOverSqrtPi*X*math.Exp(-X*X)
}

// IsothermalSigma is the one-dimensional dispersion of an isothermal
// background with flat circular velocity vc.
func IsothermalSigma(vc float64) func(r float64) float64 {
	s := vc / math.Sqrt2
	return func(float64) float64 { return s }
}

// FrictionConfig collects the construction parameters of
// ChandrasekharFriction. Start from DefaultFrictionConfig.
type FrictionConfig struct {
	Amp      float64
	GMs      float64
	Rhm      float64
	Gamma    float64
	LnLambda CoulombLog

	// MinR is the inner cutoff; inside it the force is zero. MinR and MaxR
	// also bound the dispersion table.
	MinR float64
	MaxR float64
	NR   int

	// Sigma is used as is when set. Otherwise SigmaFunc is tabulated on
	// NR radii between MinR and MaxR with SigmaKind interpolation.
	Sigma     *profile.Profile
	SigmaFunc func(r float64) float64
	SigmaKind profile.Kind

	Background List
}

// DefaultFrictionConfig mirrors the usual defaults: unit amplitude and
// gamma, a variable Coulomb logarithm and a table over [1e-4, 25].
func DefaultFrictionConfig() FrictionConfig {
	return FrictionConfig{
		Amp:       1.0,
		Gamma:     1.0,
		LnLambda:  VariableCoulombLog(),
		MinR:      1e-4,
		MaxR:      25.0,
		NR:        501,
		SigmaKind: profile.Natural,
	}
}

// ChandrasekharFriction is the dynamical-friction drag on a perturber of
// mass GMs moving through the summed density of Background:
//
//	F = -amp * 4π * GMs * Xfactor * lnLambda * rho / v³ * v_vec
//
// The background list is borrowed; its members must outlive the force.
type ChandrasekharFriction struct {
	amp      float64
	gms      float64
	rhm      float64
	gamma2   float64
	lnLambda CoulombLog
	minr2    float64
	ro, rf   float64

	sigma      *profile.Profile
	background List
}

// NewChandrasekharFriction validates cfg and builds the dispersion table
// when needed.
func NewChandrasekharFriction(cfg FrictionConfig) (*ChandrasekharFriction, error) {
	if len(cfg.Background) == 0 {
		return nil, ErrNoBackground
	}
	if !(cfg.MaxR > cfg.MinR) {
		return nil, fmt.Errorf("%w: maxr %g must exceed minr %g", ErrInvalidParams, cfg.MaxR, cfg.MinR)
	}

	sigma := cfg.Sigma
	if sigma == nil {
		if cfg.SigmaFunc == nil {
			return nil, ErrNoDispersion
		}
		var err error
		sigma, err = profile.FromFunc(cfg.SigmaFunc, cfg.MinR, cfg.MaxR, cfg.NR, cfg.SigmaKind)
		if err != nil {
			return nil, fmt.Errorf("potential: dispersion table: %w", err)
		}
	}

	return &ChandrasekharFriction{
		amp:        cfg.Amp,
		gms:        cfg.GMs,
		rhm:        cfg.Rhm,
		gamma2:     cfg.Gamma * cfg.Gamma,
		lnLambda:   cfg.LnLambda,
		minr2:      cfg.MinR * cfg.MinR,
		ro:         cfg.MinR,
		rf:         cfg.MaxR,
		sigma:      sigma,
		background: append(List(nil), cfg.Background...),
	}, nil
}

// CoulombLogAt is the ln(Lambda) used at squared radius r2 and squared
// speed v2. The half-mass radius sets the scale unless the perturber's
// own GMs/v² is larger.
func (c *ChandrasekharFriction) CoulombLogAt(r2, v2 float64) float64 {
	if !c.lnLambda.variable {
		return c.lnLambda.value
	}
	gmvs := c.gms / v2
	if gmvs < c.rhm {
		return 0.5 * math.Log(1+r2/c.gamma2/c.rhm/c.rhm)
	}
	return 0.5 * math.Log(1+r2/c.gamma2/gmvs/gmvs)
}

// Sigma is the velocity dispersion at radius r.
func (c *ChandrasekharFriction) Sigma(r float64) float64 {
	return c.sigma.EvalClamped((r - c.ro) / (c.rf - c.ro))
}

// scale is the common factor of all three components. ok is false inside
// the cutoff radius.
func (c *ChandrasekharFriction) scale(R, z, phi, t, vR, vT, vz float64) (s float64, ok bool) {
	r2 := R*R + z*z
	if r2 < c.minr2 {
		return 0, false
	}
	r := math.Sqrt(r2)
	v2 := vR*vR + vT*vT + vz*vz
	v := math.Sqrt(v2)

	lnL := c.CoulombLogAt(r2, v2)
	d := profile.Clamp((r - c.ro) / (c.rf - c.ro))
	sr := c.sigma.Eval(d)
	X := v / sr / math.Sqrt2
	rho := c.background.Dens(R, z, phi, t)
	return -c.amp * 4 * math.Pi * c.gms * XFactor(X) * lnL * rho / v2 / v, true
}

func (c *ChandrasekharFriction) RForce(R, z, phi, t, vR, vT, vz float64) float64 {
	s, ok := c.scale(R, z, phi, t, vR, vT, vz)
	if !ok {
		return 0
	}
	return s * vR
}

func (c *ChandrasekharFriction) ZForce(R, z, phi, t, vR, vT, vz float64) float64 {
	s, ok := c.scale(R, z, phi, t, vR, vT, vz)
	if !ok {
		return 0
	}
	return s * vz
}

func (c *ChandrasekharFriction) PhiForce(R, z, phi, t, vR, vT, vz float64) float64 {
	s, ok := c.scale(R, z, phi, t, vR, vT, vz)
	if !ok {
		return 0
	}
	return s * vT * R
}

// Forces returns the three components from a single evaluation.
func (c *ChandrasekharFriction) Forces(R, z, phi, t, vR, vT, vz float64) (fR, fz, fphi float64) {
	s, ok := c.scale(R, z, phi, t, vR, vT, vz)
	if !ok {
		return 0, 0, 0
	}
	return s * vR, s * vz, s * vT * R
}

// Background returns a copy of the density list.
func (c *ChandrasekharFriction) Background() List {
	return append(List(nil), c.background...)
}

// Profile returns the dispersion table and the radii it spans.
func (c *ChandrasekharFriction) Profile() (p *profile.Profile, ro, rf float64) {
	return c.sigma, c.ro, c.rf
}

func (c *ChandrasekharFriction) Params() map[string]float64 {
	return map[string]float64{
		"amp":      c.amp,
		"gms":      c.gms,
		"rhm":      c.rhm,
		"gamma":    math.Sqrt(c.gamma2),
		"lnlambda": c.lnLambda.Sentinel(),
		"minr":     math.Sqrt(c.minr2),
		"maxr":     c.rf,
	}
}

// SetParam updates a scalar. "minr" moves only the inner cutoff; the
// dispersion table keeps the domain it was built on. "maxr" is read-only.
func (c *ChandrasekharFriction) SetParam(name string, value float64) error {
	switch name {
	case "amp":
		c.amp = value
	case "gms":
		c.gms = value
	case "rhm":
		c.rhm = value
	case "gamma":
		c.gamma2 = value * value
	case "lnlambda":
		c.lnLambda = CoulombLogFromSentinel(value)
	case "minr":
		c.minr2 = value * value
	default:
		return unknownParam("chandrasekhar", name)
	}
	return nil
}
