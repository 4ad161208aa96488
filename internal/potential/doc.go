// Package potential provides analytic gravitational potential models and the
// velocity-dependent Chandrasekhar dynamical-friction force.
//
// Every model is evaluated in galactocentric cylindrical coordinates
// (R, z, phi) at time t and implements [DensityEvaluator], which lets any
// model serve as background density for the friction kernel:
//
//   - [PowerSphericalCutoff]: power-law density with a Gaussian cutoff
//   - [FlattenedPower]: power-law potential flattened in the potential
//   - [ChandrasekharFriction]: drag from a background [List] of densities
//
// # Caching
//
// PowerSphericalCutoff remembers the last radial force magnitude it computed
// and reuses it when RForce and ZForce are called back to back at the same
// r². The cache is keyed on exact equality of r² and is a pure performance
// shortcut: results are identical with or without it. Use ClearCache (or
// SetParam, which clears it) after changing parameters in place.
//
// # Thread Safety
//
// Kernels are safe for concurrent use. The force cache is serialized by a
// per-instance mutex, so concurrent callers on one instance contend on it;
// give each goroutine its own instance when throughput matters.
package potential
