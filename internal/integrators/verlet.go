package integrators

import "github.com/san-kum/galdyn/internal/dynamo"

// Verlet and Leapfrog assume the state holds positions in its first half
// and velocities in its second, with Derive returning velocities then
// accelerations.

// Verlet is velocity Verlet. The second force evaluation sees the old
// velocities, so velocity-dependent forces are only first-order accurate.
type Verlet struct {
	scratch dynamo.State
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	half := n / 2
	if len(v.scratch) != n {
		v.scratch = make(dynamo.State, n)
	}

	out := make(dynamo.State, n)
	a0 := sys.Derive(x, t)
	for i := 0; i < half; i++ {
		out[i] = x[i] + dt*(x[half+i]+0.5*dt*a0[half+i])
		v.scratch[i] = out[i]
		v.scratch[half+i] = x[half+i]
	}

	a1 := sys.Derive(v.scratch, t+dt)
	for i := 0; i < half; i++ {
		out[half+i] = x[half+i] + 0.5*dt*(a0[half+i]+a1[half+i])
	}
	return out
}

// Leapfrog is kick-drift-kick. The closing kick is evaluated with the
// half-step velocities.
type Leapfrog struct {
	scratch dynamo.State
}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	half := n / 2
	if len(l.scratch) != n {
		l.scratch = make(dynamo.State, n)
	}

	out := make(dynamo.State, n)
	a0 := sys.Derive(x, t)
	for i := 0; i < half; i++ {
		l.scratch[half+i] = x[half+i] + 0.5*dt*a0[half+i]
		out[i] = x[i] + dt*l.scratch[half+i]
		l.scratch[i] = out[i]
	}

	a1 := sys.Derive(l.scratch, t+dt)
	for i := 0; i < half; i++ {
		out[half+i] = l.scratch[half+i] + 0.5*dt*a1[half+i]
	}
	return out
}
