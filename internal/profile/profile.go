// Package profile implements the interpolated velocity-dispersion table used
// by the dynamical-friction kernel.
//
// A Profile maps a normalized radius fraction in [0,1] to a value. Lookups
// outside that domain are the caller's problem; use [Clamp] or
// [Profile.EvalClamped] first.
package profile

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

var (
	ErrTooFewSamples  = errors.New("profile: too few samples")
	ErrLengthMismatch = errors.New("profile: x and y sample counts differ")
	ErrNotIncreasing  = errors.New("profile: x samples not strictly increasing")
	ErrNonFinite      = errors.New("profile: non-finite sample")
	ErrUnknownKind    = errors.New("profile: unknown interpolation kind")
	ErrBadRange       = errors.New("profile: invalid sampling range")
)

// Kind selects the interpolation scheme.
type Kind string

const (
	Natural  Kind = "natural"
	Akima    Kind = "akima"
	Monotone Kind = "monotone"
	Linear   Kind = "linear"
)

// ParseKind maps a config string onto a Kind. The empty string is Natural.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return Natural, nil
	case Natural, Akima, Monotone, Linear:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

func (k Kind) minSamples() int {
	if k == Linear {
		return 2
	}
	return 3
}

func (k Kind) predictor() (interp.FittablePredictor, error) {
	switch k {
	case Natural, "":
		return &interp.NaturalCubic{}, nil
	case Akima:
		return &interp.AkimaSpline{}, nil
	case Monotone:
		return &interp.FritschButland{}, nil
	case Linear:
		return &interp.PiecewiseLinear{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
}

// Profile is an immutable interpolation table. It holds no per-lookup
// state and is safe for concurrent use.
type Profile struct {
	kind Kind
	xs   []float64
	ys   []float64
	pred interp.Predictor
}

// New fits a profile through the samples. xs must be strictly increasing.
func New(xs, ys []float64, kind Kind) (*Profile, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(xs), len(ys))
	}
	if len(xs) < kind.minSamples() {
		return nil, fmt.Errorf("%w: need %d, got %d", ErrTooFewSamples, kind.minSamples(), len(xs))
	}
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsInf(xs[i], 0) || math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			return nil, fmt.Errorf("%w at index %d", ErrNonFinite, i)
		}
		if i > 0 && xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("%w at index %d", ErrNotIncreasing, i)
		}
	}

	pred, err := kind.predictor()
	if err != nil {
		return nil, err
	}

	p := &Profile{
		kind: kind,
		xs:   append([]float64(nil), xs...),
		ys:   append([]float64(nil), ys...),
	}
	if err := pred.Fit(p.xs, p.ys); err != nil {
		return nil, fmt.Errorf("profile: fit %s: %w", kind, err)
	}
	p.pred = pred
	return p, nil
}

// FromFunc samples f at n radii spanning [rMin, rMax] and tabulates the
// values against the normalized fraction (r-rMin)/(rMax-rMin).
func FromFunc(f func(r float64) float64, rMin, rMax float64, n int, kind Kind) (*Profile, error) {
	if !(rMax > rMin) {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrBadRange, rMin, rMax)
	}
	if n < kind.minSamples() {
		return nil, fmt.Errorf("%w: need %d, got %d", ErrTooFewSamples, kind.minSamples(), n)
	}

	rs := floats.Span(make([]float64, n), rMin, rMax)
	xs := floats.Span(make([]float64, n), 0, 1)
	ys := make([]float64, n)
	for i, r := range rs {
		ys[i] = f(r)
	}
	return New(xs, ys, kind)
}

// Eval returns the interpolated value at x. x must lie in [0,1].
func (p *Profile) Eval(x float64) float64 {
	return p.pred.Predict(x)
}

// EvalClamped clamps x to [0,1] before evaluating.
func (p *Profile) EvalClamped(x float64) float64 {
	return p.pred.Predict(Clamp(x))
}

// Kind reports the interpolation scheme.
func (p *Profile) Kind() Kind { return p.kind }

// Len is the number of samples.
func (p *Profile) Len() int { return len(p.xs) }

// Samples returns copies of the tabulated points.
func (p *Profile) Samples() (xs, ys []float64) {
	return append([]float64(nil), p.xs...), append([]float64(nil), p.ys...)
}

// Clamp limits x to [0,1]. NaN passes through.
func Clamp(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
