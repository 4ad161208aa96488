package specfun

import (
	"math"

	"gonum.org/v1/gonum/mathext"
)

// Gamma is the complete gamma function. It is finite for negative
// non-integer arguments.
func Gamma(a float64) float64 {
	return math.Gamma(a)
}

// GammaP is the regularized lower incomplete gamma function P(a, x) for
// a > 0 and x >= 0.
func GammaP(a, x float64) float64 {
	if !(a > 0) || !(x >= 0) {
		return math.NaN()
	}
	return mathext.GammaIncReg(a, x)
}

// GammaQ is the regularized upper incomplete gamma function Q(a, x) = 1 - P(a, x).
func GammaQ(a, x float64) float64 {
	if !(a > 0) || !(x >= 0) {
		return math.NaN()
	}
	return mathext.GammaIncRegComp(a, x)
}

// GammaInc is the unregularized upper incomplete gamma function
//
//	Γ(a, x) = ∫_x^∞ t^(a-1) e^(-t) dt
//
// defined for any real a and x > 0. Non-positive a is reached by the
// recurrence Γ(a, x) = (Γ(a+1, x) - x^a e^(-x)) / a, bottoming out at
// E1 for integer a.
func GammaInc(a, x float64) float64 {
	switch {
	case math.IsNaN(a) || math.IsNaN(x) || x < 0:
		return math.NaN()
	case a > 0:
		if x == 0 {
			return math.Gamma(a)
		}
		return math.Gamma(a) * mathext.GammaIncRegComp(a, x)
	case a == 0:
		return E1(x)
	}
	if x <= 0 {
		return math.NaN()
	}

	// Climb to the first shape parameter in (0, 1] (or exactly 0), then
	// recur back down.
	n := int(math.Ceil(-a))
	base := a + float64(n)
	var g float64
	if base == 0 {
		g = E1(x)
	} else {
		g = math.Gamma(base) * mathext.GammaIncRegComp(base, x)
	}
	lx := math.Log(x)
	for i := n - 1; i >= 0; i-- {
		s := a + float64(i)
		g = (g - math.Exp(s*lx-x)) / s
	}
	return g
}

// Erf is the error function.
func Erf(x float64) float64 {
	return math.Erf(x)
}
