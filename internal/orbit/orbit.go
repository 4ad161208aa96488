// Package orbit integrates a test particle through a set of potentials
// and velocity-dependent forces.
//
// The phase-space state is Cartesian, [x, y, z, vx, vy, vz], so the
// symplectic integrators apply directly. Forces are evaluated in
// cylindrical coordinates, where the models are defined.
package orbit

import (
	"math"

	"github.com/san-kum/galdyn/internal/dynamo"
	"github.com/san-kum/galdyn/internal/potential"
)

// Cylindrical is a phase-space point in (R, z, phi) with velocity
// components along those axes. VT is the tangential velocity R*dphi/dt.
type Cylindrical struct {
	R, Z, Phi  float64
	VR, VT, VZ float64
}

// ToCylindrical converts a Cartesian state. On the axis phi is taken as 0
// and (vx, vy) are reported as (vR, vT).
func ToCylindrical(x dynamo.State) Cylindrical {
	R := math.Hypot(x[0], x[1])
	if R == 0 {
		return Cylindrical{Z: x[2], VR: x[3], VT: x[4], VZ: x[5]}
	}
	return Cylindrical{
		R:   R,
		Z:   x[2],
		Phi: math.Atan2(x[1], x[0]),
		VR:  (x[0]*x[3] + x[1]*x[4]) / R,
		VT:  (x[0]*x[4] - x[1]*x[3]) / R,
		VZ:  x[5],
	}
}

// FromCylindrical is the inverse of ToCylindrical.
func FromCylindrical(c Cylindrical) dynamo.State {
	sin, cos := math.Sincos(c.Phi)
	return dynamo.State{
		c.R * cos,
		c.R * sin,
		c.Z,
		c.VR*cos - c.VT*sin,
		c.VR*sin + c.VT*cos,
		c.VZ,
	}
}

// System is the equation of motion of a test particle. The potentials and
// dissipative forces are borrowed and evaluated in slice order.
type System struct {
	pots []potential.Potential
	diss []potential.Dissipative
}

func New(pots []potential.Potential, diss []potential.Dissipative) *System {
	return &System{pots: pots, diss: diss}
}

func (s *System) Dim() int { return 6 }

// Forces sums the cylindrical force components at c. fphi is the torque
// -dPhi/dphi, not the tangential force.
func (s *System) Forces(c Cylindrical, t float64) (fR, fz, fphi float64) {
	for _, p := range s.pots {
		fR += p.RForce(c.R, c.Z, c.Phi, t)
		fz += p.ZForce(c.R, c.Z, c.Phi, t)
		fphi += p.PhiForce(c.R, c.Z, c.Phi, t)
	}
	for _, d := range s.diss {
		dR, dz, dphi := d.Forces(c.R, c.Z, c.Phi, t, c.VR, c.VT, c.VZ)
		fR += dR
		fz += dz
		fphi += dphi
	}
	return fR, fz, fphi
}

func (s *System) Derive(x dynamo.State, t float64) dynamo.State {
	c := ToCylindrical(x)
	fR, fz, fphi := s.Forces(c, t)

	sin, cos := math.Sincos(c.Phi)
	ax := fR * cos
	ay := fR * sin
	if c.R > 0 {
		fT := fphi / c.R
		ax -= fT * sin
		ay += fT * cos
	}
	return dynamo.State{x[3], x[4], x[5], ax, ay, fz}
}

// Energy is the specific energy in the conservative potentials at t=0.
func (s *System) Energy(x dynamo.State) float64 {
	c := ToCylindrical(x)
	v2 := x[3]*x[3] + x[4]*x[4] + x[5]*x[5]
	return 0.5*v2 + potential.EvaluatePotentials(s.pots, c.R, c.Z, c.Phi, 0)
}

// Lz is the specific angular momentum about the z axis.
func Lz(x dynamo.State) float64 {
	return x[0]*x[4] - x[1]*x[3]
}

// Radius is the spherical radius.
func Radius(x dynamo.State) float64 {
	return math.Sqrt(x[0]*x[0] + x[1]*x[1] + x[2]*x[2])
}

// Circular returns the state of a circular orbit in the plane at radius R.
func Circular(pots []potential.Potential, R float64) dynamo.State {
	return FromCylindrical(Cylindrical{R: R, VT: potential.Vcirc(pots, R, 0, 0)})
}
