package dynamo

import "math"

// State is a flat phase-space vector. Systems that work with Verlet or
// Leapfrog store positions in the first half and velocities in the second.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Add returns s + other. Missing trailing entries of other count as zero.
func (s State) Add(other State) State { return s.axpy(1, other) }

// Sub returns s - other.
func (s State) Sub(other State) State { return s.axpy(-1, other) }

func (s State) axpy(a float64, other State) State {
	out := s.Clone()
	for i := range out {
		if i < len(other) {
			out[i] += a * other[i]
		}
	}
	return out
}

func (s State) Scale(factor float64) State {
	out := make(State, len(s))
	for i, v := range s {
		out[i] = v * factor
	}
	return out
}

// System is a first-order ODE dx/dt = f(x, t).
type System interface {
	Derive(x State, t float64) State
	Dim() int
}

// Hamiltonian systems report a conserved energy, used for drift checks.
type Hamiltonian interface {
	Energy(x State) float64
}

type Integrator interface {
	Step(sys System, x State, t, dt float64) State
}

// AdaptiveIntegrator advances by an error-controlled step. It returns the
// new state, the step actually taken and a suggestion for the next one.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, x State, t, dt, tol float64) (next State, taken, suggested float64, err error)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, t float64)
}

type Config struct {
	Dt        float64
	Duration  float64
	Tolerance float64
	MaxDt     float64
	MinDt     float64
	Adaptive  bool

	// SampleEvery keeps every n-th state in the result; 0 and 1 keep all.
	SampleEvery   int
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      10.0,
		Tolerance:     1e-8,
		MaxDt:         0.1,
		MinDt:         1e-10,
		ValidateState: true,
	}
}

type Result struct {
	States      []State
	Times       []float64
	Metrics     map[string]float64
	EnergyDrift float64
	StepsTaken  int
	Errors      []error
}

// Final returns the last recorded state, or nil for an empty result.
func (r *Result) Final() State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}
