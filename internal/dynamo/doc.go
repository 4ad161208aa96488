// Package dynamo provides the time-stepping core used to integrate orbits.
//
//   - [State]: flat phase-space vector
//   - [System]: ODE right-hand side dX/dt = f(X, t)
//   - [Integrator] and [AdaptiveIntegrator]: numerical steppers
//   - [Simulator]: runs a system from an initial state, feeding metrics
//     and observers
//   - [Sweep]: runs independent simulations concurrently
//
// # Example
//
//	sys := orbit.New(pots, nil)
//	s := dynamo.New(sys, integrators.NewLeapfrog())
//	result, err := s.Run(ctx, x0, dynamo.DefaultConfig())
//
// # Thread Safety
//
// A Simulator and the integrators it drives keep scratch buffers and are
// not safe for concurrent use. Give every goroutine its own, as [Sweep]
// callers do.
package dynamo
