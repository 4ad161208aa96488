// Package specfun provides the special functions used by the potential
// kernels: the incomplete gamma family, the exponential integral and the
// error function.
//
// Regularized incomplete gamma values come from gonum's mathext package.
// The unregularized upper incomplete gamma [GammaInc] extends them to zero
// and negative shape parameters, which the power-law potentials need for
// steep density slopes.
//
// Out-of-domain arguments are not trapped. Callers receive whatever NaN or
// Inf the underlying routine produces.
package specfun
