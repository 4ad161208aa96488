package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/san-kum/galdyn/internal/dynamo"
	"github.com/san-kum/galdyn/internal/orbit"
)

const minSpectrumSamples = 8

var ErrTooShort = errors.New("analysis: series too short for a spectrum")

// Spectrum is a one-sided power spectrum. Freq is in cycles per unit time.
type Spectrum struct {
	Freq  []float64
	Power []float64
}

// Resample linearly interpolates values onto n evenly spaced times
// spanning [times[0], times[len-1]].
func Resample(times, values []float64, n int) (dt float64, out []float64, err error) {
	if len(times) < 2 || n < 2 {
		return 0, nil, ErrTooShort
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(times, values); err != nil {
		return 0, nil, fmt.Errorf("analysis: resample: %w", err)
	}

	grid := floats.Span(make([]float64, n), times[0], times[len(times)-1])
	out = make([]float64, n)
	for i, t := range grid {
		out[i] = pl.Predict(t)
	}
	return grid[1] - grid[0], out, nil
}

// PowerSpectrum removes the mean, applies a Hann window and returns
// |X_k|² for k = 0..n/2.
func PowerSpectrum(samples []float64, dt float64) (Spectrum, error) {
	n := len(samples)
	if n < minSpectrumSamples {
		return Spectrum{}, ErrTooShort
	}

	x := make([]float64, n)
	copy(x, samples)
	floats.AddConst(-floats.Sum(x)/float64(n), x)
	window.Apply(x, window.Hann)

	coeffs := fft.FFTReal(x)
	half := n/2 + 1
	s := Spectrum{
		Freq:  make([]float64, half),
		Power: make([]float64, half),
	}
	for k := 0; k < half; k++ {
		s.Freq[k] = float64(k) / (float64(n) * dt)
		a := cmplx.Abs(coeffs[k])
		s.Power[k] = a * a
	}
	return s, nil
}

// Peak returns the strongest non-zero frequency, refined by a parabola
// through the three bins around the maximum.
func (s Spectrum) Peak() (freq, power float64) {
	if len(s.Power) < 3 {
		return math.NaN(), math.NaN()
	}
	k := 1 + floats.MaxIdx(s.Power[1:])
	if k == len(s.Power)-1 {
		return s.Freq[k], s.Power[k]
	}

	a, b, c := s.Power[k-1], s.Power[k], s.Power[k+1]
	den := a - 2*b + c
	if den == 0 {
		return s.Freq[k], b
	}
	delta := 0.5 * (a - c) / den
	df := s.Freq[1] - s.Freq[0]
	return s.Freq[k] + delta*df, b - 0.25*(a-c)*delta
}

// RadialFrequency is the angular frequency of the dominant oscillation in
// the spherical radius of a trajectory.
func RadialFrequency(times []float64, states []dynamo.State) (float64, error) {
	if len(states) != len(times) {
		return 0, fmt.Errorf("analysis: %d states but %d times", len(states), len(times))
	}
	r := make([]float64, len(states))
	for i, x := range states {
		r[i] = orbit.Radius(x)
	}

	dt, uniform, err := Resample(times, r, len(times))
	if err != nil {
		return 0, err
	}
	s, err := PowerSpectrum(uniform, dt)
	if err != nil {
		return 0, err
	}
	f, _ := s.Peak()
	return 2 * math.Pi * f, nil
}
