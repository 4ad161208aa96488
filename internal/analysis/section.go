package analysis

import (
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/galdyn/internal/dynamo"
	"github.com/san-kum/galdyn/internal/orbit"
)

type Point struct{ X, Y float64 }

// Meridional projects a trajectory onto the (R, z) plane.
func Meridional(states []dynamo.State) []Point {
	pts := make([]Point, len(states))
	for i, x := range states {
		c := orbit.ToCylindrical(x)
		pts[i] = Point{X: c.R, Y: c.Z}
	}
	return pts
}

// SurfaceOfSection records (R, vR) at every upward z=0 crossing,
// interpolated linearly between the bracketing samples.
func SurfaceOfSection(states []dynamo.State) []Point {
	var pts []Point
	for i := 1; i < len(states); i++ {
		z0, z1 := states[i-1][2], states[i][2]
		if !(z0 < 0 && z1 >= 0) {
			continue
		}
		f := -z0 / (z1 - z0)
		a := orbit.ToCylindrical(states[i-1])
		b := orbit.ToCylindrical(states[i])
		pts = append(pts, Point{
			X: a.R + f*(b.R-a.R),
			Y: a.VR + f*(b.VR-a.VR),
		})
	}
	return pts
}

// Scatter renders points on a width x height character grid with 10%
// padding, drawing the axes where they fall inside the view.
func Scatter(points []Point, width, height int) string {
	if len(points) == 0 || width < 2 || height < 2 {
		return ""
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
	}
	minX, maxX := pad(floats.Min(xs), floats.Max(xs))
	minY, maxY := pad(floats.Min(ys), floats.Max(ys))
	rangeX, rangeY := maxX-minX, maxY-minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	col := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	for _, p := range points {
		r, c := row(p.Y), col(p.X)
		if r >= 0 && r < height && c >= 0 && c < width {
			canvas[r][c] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		c := col(0)
		for r := 0; r < height; r++ {
			if canvas[r][c] == ' ' {
				canvas[r][c] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		r := row(0)
		for c := 0; c < width; c++ {
			if canvas[r][c] == ' ' {
				canvas[r][c] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, line := range canvas {
		sb.WriteString(string(line))
		sb.WriteRune('\n')
	}
	return sb.String()
}

func pad(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return lo - 0.1*span, hi + 0.1*span
}
