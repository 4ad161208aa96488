package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/galdyn/internal/dynamo"
)

// Dormand-Prince 5(4) tableau. The last row of dpA is the fifth-order
// solution; the derivative there only feeds the error estimate.
var (
	dpC = [7]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}
	dpA = [7][]float64{
		nil,
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}
	// fifth minus fourth order weights
	dpE = [7]float64{71.0 / 57600, 0, -71.0 / 16695, 71.0 / 1920, -17253.0 / 339200, 22.0 / 525, -1.0 / 40}
)

// RK45 is the adaptive Dormand-Prince method.
type RK45 struct {
	safety     float64
	minScale   float64
	maxScale   float64
	maxRejects int

	k       [7]dynamo.State
	scratch dynamo.State
}

func NewRK45() *RK45 {
	return &RK45{
		safety:     0.9,
		minScale:   0.2,
		maxScale:   10.0,
		maxRejects: 50,
	}
}

// trial takes one step of size dt and returns the fifth-order solution
// with its scaled error estimate relative to tol.
func (r *RK45) trial(sys dynamo.System, x dynamo.State, t, dt, tol float64) (dynamo.State, float64) {
	n := len(x)
	if len(r.scratch) != n {
		r.scratch = make(dynamo.State, n)
	}

	r.k[0] = sys.Derive(x, t)
	var out dynamo.State
	for s := 1; s < 7; s++ {
		stage := r.scratch
		if s == 6 {
			out = make(dynamo.State, n)
			stage = out
		}
		for i := 0; i < n; i++ {
			acc := 0.0
			for j, a := range dpA[s] {
				acc += a * r.k[j][i]
			}
			stage[i] = x[i] + dt*acc
		}
		r.k[s] = sys.Derive(stage, t+dpC[s]*dt)
	}

	errMax := 0.0
	for i := 0; i < n; i++ {
		est := 0.0
		for s, e := range dpE {
			est += e * r.k[s][i]
		}
		scale := math.Abs(x[i]) + math.Abs(dt*r.k[0][i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(dt*est)/scale)
	}
	return out, errMax / tol
}

// Step takes a single fifth-order step without error control.
func (r *RK45) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	out, _ := r.trial(sys, x, t, dt, 1)
	return out
}

// StepAdaptive retries with a smaller step until the error estimate is
// within tol, then suggests the next step size.
func (r *RK45) StepAdaptive(sys dynamo.System, x dynamo.State, t, dt, tol float64) (dynamo.State, float64, float64, error) {
	for attempt := 0; attempt < r.maxRejects; attempt++ {
		out, ratio := r.trial(sys, x, t, dt, tol)
		if ratio <= 1 && out.IsValid() {
			grow := r.maxScale
			if ratio > 0 {
				grow = math.Min(r.maxScale, r.safety*math.Pow(ratio, -0.2))
			}
			return out, dt, dt * grow, nil
		}

		shrink := r.minScale
		if !math.IsNaN(ratio) {
			shrink = math.Max(r.minScale, r.safety*math.Pow(ratio, -0.25))
		}
		dt *= shrink
	}
	return nil, 0, 0, fmt.Errorf("%w: %d rejected steps at t=%g", dynamo.ErrStepTooSmall, r.maxRejects, t)
}
