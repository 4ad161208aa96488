// Package analysis derives orbital diagnostics from potentials and from
// integrated trajectories.
//
//   - [RotationCurve] and [Frequencies]: circular velocity, density and the
//     circular, epicyclic and vertical frequencies of a potential set
//   - [PowerSpectrum] and [RadialFrequency]: spectrum of r(t), resampled to
//     a uniform grid when the run used adaptive steps
//   - [SurfaceOfSection]: upward z=0 crossings in the (R, vR) plane
//   - [LyapunovExponent]: separation growth of two nearby orbits
//
// # Example
//
//	omega, kappa, _ := analysis.Frequencies(pots, 2)
//	fr, _ := analysis.RadialFrequency(result.Times, result.States)
//	// fr ≈ kappa for a nearly circular orbit
package analysis
