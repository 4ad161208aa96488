// Package export writes orbits and rendered canvases as SVG.
package export

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/galdyn/internal/analysis"
	"github.com/san-kum/galdyn/internal/dynamo"
	"github.com/san-kum/galdyn/internal/viz"
)

const background = "#0a0a0a"

// Project maps a trajectory onto the plane named by view: x-y, x-z, R-z,
// or "section" for the z=0 surface of section.
func Project(states []dynamo.State, view string) ([]analysis.Point, error) {
	switch strings.ToLower(view) {
	case "section":
		return analysis.SurfaceOfSection(states), nil
	case "r-z":
		return analysis.Meridional(states), nil
	}
	v, err := viz.ParseView(view)
	if err != nil || v == viz.View3D {
		return nil, fmt.Errorf("export: unsupported view %q (x-y, x-z, R-z, section)", view)
	}
	pts := make([]analysis.Point, len(states))
	for i, x := range states {
		pts[i] = analysis.Point{X: x[0], Y: x[1]}
		if v == viz.ViewXZ {
			pts[i].Y = x[2]
		}
	}
	return pts, nil
}

// CanvasToSVG draws every lit Braille dot as a circle, scale pixels apart.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	sw, sh := canvas.PixelSize()
	width := float64(sw) * scale
	height := float64(sh) * scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="#00ff00">
`, width, height, width, height, background)

	r := scale * 0.4
	for y := 0; y < sh; y++ {
		for x := 0; x < sw; x++ {
			if canvas.Lit(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					(float64(x)+0.5)*scale, (float64(y)+0.5)*scale, r)
			}
		}
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// frame maps data coordinates into a width x height viewport with 10%
// padding on each side.
type frame struct {
	minX, minY, rangeX, rangeY float64
	width, height              float64
}

func newFrame(points []analysis.Point, width, height int) frame {
	xs := make([]float64, 0, len(points))
	ys := make([]float64, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			continue
		}
		xs = append(xs, p.X)
		ys = append(ys, p.Y)
	}
	f := frame{width: float64(width), height: float64(height), rangeX: 1, rangeY: 1}
	if len(xs) == 0 {
		return f
	}
	minX, maxX := floats.Min(xs), floats.Max(xs)
	minY, maxY := floats.Min(ys), floats.Max(ys)
	if maxX > minX {
		f.rangeX = maxX - minX
	}
	if maxY > minY {
		f.rangeY = maxY - minY
	}
	f.minX = minX - 0.1*f.rangeX
	f.minY = minY - 0.1*f.rangeY
	f.rangeX *= 1.2
	f.rangeY *= 1.2
	return f
}

func (f frame) at(p analysis.Point) (float64, float64) {
	return (p.X - f.minX) / f.rangeX * f.width,
		f.height - (p.Y-f.minY)/f.rangeY*f.height
}

func header(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// OrbitSVG draws points as one polyline, marking the start and the end.
// Non-finite points break the line.
func OrbitSVG(points []analysis.Point, width, height int, stroke string) string {
	if len(points) < 2 {
		return ""
	}
	f := newFrame(points, width, height)

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, stroke)
	move := true
	for _, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			move = true
			continue
		}
		x, y := f.at(p)
		if move {
			fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
			move = false
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")

	x0, y0 := f.at(points[0])
	x1, y1 := f.at(points[len(points)-1])
	fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"#ffffff\"/>\n", x0, y0)
	fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"%s\"/>\n", x1, y1, stroke)
	sb.WriteString("</svg>\n")
	return sb.String()
}

// ScatterSVG draws each point as a dot.
func ScatterSVG(points []analysis.Point, width, height int, fill string) string {
	if len(points) == 0 {
		return ""
	}
	f := newFrame(points, width, height)

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", fill)
	for _, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			continue
		}
		x, y := f.at(p)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"1.5\"/>\n", x, y)
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// TrajectorySVG projects a run and picks the polyline or, for the surface
// of section, the scatter rendering.
func TrajectorySVG(states []dynamo.State, view string, width, height int) (string, error) {
	pts, err := Project(states, view)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(view, "section") {
		if len(pts) == 0 {
			return "", fmt.Errorf("export: orbit never crosses z=0 upwards")
		}
		return ScatterSVG(pts, width, height, "#ffaa00"), nil
	}
	if len(pts) < 2 {
		return "", fmt.Errorf("export: need at least two samples, have %d", len(pts))
	}
	return OrbitSVG(pts, width, height, "#00ff88"), nil
}
