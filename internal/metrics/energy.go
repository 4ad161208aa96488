package metrics

import (
	"math"

	"github.com/san-kum/galdyn/internal/dynamo"
)

// EnergyDrift tracks the largest relative departure from the first
// observed energy.
type EnergyDrift struct {
	sys      dynamo.Hamiltonian
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift(sys dynamo.Hamiltonian) *EnergyDrift {
	return &EnergyDrift{sys: sys}
}

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(x dynamo.State, t float64) {
	energy := e.sys.Energy(x)
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		e.maxDrift = math.Max(e.maxDrift, math.Abs(energy-e.initial)/math.Abs(e.initial))
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}

// EnergyChange is the last observed energy minus the first. Friction
// makes it negative.
type EnergyChange struct {
	sys         dynamo.Hamiltonian
	first, last float64
	seen        bool
}

func NewEnergyChange(sys dynamo.Hamiltonian) *EnergyChange {
	return &EnergyChange{sys: sys}
}

func (e *EnergyChange) Name() string { return "energy_change" }

func (e *EnergyChange) Observe(x dynamo.State, t float64) {
	e.last = e.sys.Energy(x)
	if !e.seen {
		e.first = e.last
		e.seen = true
	}
}

func (e *EnergyChange) Value() float64 { return e.last - e.first }

func (e *EnergyChange) Reset() { *e = EnergyChange{sys: e.sys} }
