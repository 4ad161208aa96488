package integrators

import "github.com/san-kum/galdyn/internal/dynamo"

// RK4 is the classic fourth-order Runge-Kutta method. Stage buffers are
// reused between steps, so an RK4 must not be shared across goroutines.
type RK4 struct {
	k       [4]dynamo.State
	scratch dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.scratch) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.scratch = make(dynamo.State, n)
}

func (r *RK4) stage(sys dynamo.System, x dynamo.State, t float64, prev dynamo.State, h float64, dst dynamo.State) {
	for i := range x {
		r.scratch[i] = x[i] + h*prev[i]
	}
	copy(dst, sys.Derive(r.scratch, t))
}

func (r *RK4) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)

	copy(r.k[0], sys.Derive(x, t))
	r.stage(sys, x, t+dt/2, r.k[0], dt/2, r.k[1])
	r.stage(sys, x, t+dt/2, r.k[1], dt/2, r.k[2])
	r.stage(sys, x, t+dt, r.k[2], dt, r.k[3])

	out := make(dynamo.State, n)
	dt6 := dt / 6
	for i := 0; i < n; i++ {
		out[i] = x[i] + dt6*(r.k[0][i]+2*r.k[1][i]+2*r.k[2][i]+r.k[3][i])
	}
	return out
}
