package viz

import "math"

type Vec3 struct {
	X, Y, Z float64
}

// Camera rotates world points and projects them orthographically onto the
// canvas. Extent is the world half-width that fills the shorter side.
type Camera struct {
	RotX, RotZ float64
	Zoom       float64
	Extent     float64
}

func NewCamera(extent float64) *Camera {
	return &Camera{RotX: -1.1, RotZ: 0.4, Zoom: 1, Extent: extent}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// Rotate spins p about z, then tilts it about x.
func (c *Camera) Rotate(p Vec3) Vec3 {
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	return p
}

// Project maps a world point to sub-pixel coordinates on a sw x sh
// canvas and reports whether it lands inside.
func (c *Camera) Project(p Vec3, sw, sh int) (int, int, bool) {
	r := c.Rotate(p)
	return c.Flat(r.X, r.Y, sw, sh)
}

// Flat projects a point already in screen axes, with y up.
func (c *Camera) Flat(x, y float64, sw, sh int) (int, int, bool) {
	scale := 0.5 * float64(min(sw, sh)) * c.Zoom / c.Extent
	px := int(math.Round(x*scale)) + sw/2
	py := int(math.Round(-y*scale)) + sh/2
	return px, py, px >= 0 && px < sw && py >= 0 && py < sh
}

// ProjectView projects p the way view v draws it. The meridional view
// shifts R left by half the extent so the track fills the canvas.
func (c *Camera) ProjectView(v View, p Vec3, sw, sh int) (int, int, bool) {
	switch v {
	case ViewXZ:
		return c.Flat(p.X, p.Z, sw, sh)
	case ViewMeridional:
		R := math.Hypot(p.X, p.Y)
		return c.Flat(R-0.5*c.Extent, p.Z, sw, sh)
	case View3D:
		return c.Project(p, sw, sh)
	default:
		return c.Flat(p.X, p.Y, sw, sh)
	}
}
