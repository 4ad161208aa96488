package integrators

import (
	"testing"

	"github.com/san-kum/galdyn/internal/dynamo"
)

func benchmarkStep(b *testing.B, integ dynamo.Integrator) {
	sys := &oscillator{w2: 1}
	x := dynamo.State{1.0, 0.0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x = integ.Step(sys, x, 0, 0.01)
	}
}

func BenchmarkEuler(b *testing.B)    { benchmarkStep(b, NewEuler()) }
func BenchmarkRK4(b *testing.B)      { benchmarkStep(b, NewRK4()) }
func BenchmarkRK45(b *testing.B)     { benchmarkStep(b, NewRK45()) }
func BenchmarkVerlet(b *testing.B)   { benchmarkStep(b, NewVerlet()) }
func BenchmarkLeapfrog(b *testing.B) { benchmarkStep(b, NewLeapfrog()) }
