package specfun

import "math"

const (
	eulerGamma = 0.57721566490153286061
	expintEps  = 1e-16
	expintIter = 200
	fpMin      = 1e-300
)

// E1 is the exponential integral E1(x) = ∫_1^∞ e^(-xt)/t dt for x > 0.
// E1(0) is +Inf; negative x yields NaN.
func E1(x float64) float64 {
	switch {
	case math.IsNaN(x) || x < 0:
		return math.NaN()
	case x == 0:
		return math.Inf(1)
	case math.IsInf(x, 1):
		return 0
	}

	if x <= 1 {
		sum := 0.0
		term := 1.0
		for k := 1; k <= expintIter; k++ {
			term *= -x / float64(k)
			del := -term / float64(k)
			sum += del
			if math.Abs(del) < math.Abs(sum)*expintEps {
				break
			}
		}
		return -eulerGamma - math.Log(x) + sum
	}

	// Modified Lentz evaluation of the continued fraction.
	b := x + 1
	c := 1 / fpMin
	d := 1 / b
	h := d
	for i := 1; i <= expintIter; i++ {
		an := -float64(i * i)
		b += 2
		d = 1 / (an*d + b)
		c = b + an/c
		del := c * d
		h *= del
		if math.Abs(del-1) < expintEps {
			break
		}
	}
	return h * math.Exp(-x)
}
