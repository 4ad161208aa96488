package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/galdyn/internal/dynamo"
)

// ParseView accepts the names printed by View.String.
func ParseView(s string) (View, error) {
	for v := View(0); v < numViews; v++ {
		if strings.EqualFold(s, v.String()) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown view %q (x-y, x-z, R-z, 3d)", s)
}

// RenderTrack draws a whole trajectory on a fresh w x h canvas, scaled
// so the farthest point sits inside the border.
func RenderTrack(states []dynamo.State, v View, w, h int) *Canvas {
	c := NewCanvas(w, h)
	if len(states) == 0 {
		return c
	}
	track := make([]Vec3, len(states))
	extent := 0.0
	for i, x := range states {
		track[i] = Vec3{x[0], x[1], x[2]}
		extent = math.Max(extent, math.Sqrt(x[0]*x[0]+x[1]*x[1]+x[2]*x[2]))
	}
	if !(extent > 0) || math.IsInf(extent, 0) {
		extent = 1
	}
	cam := NewCamera(1.2 * extent)

	sw, sh := c.PixelSize()
	for i := 1; i < len(track); i++ {
		x0, y0, ok0 := cam.ProjectView(v, track[i-1], sw, sh)
		x1, y1, ok1 := cam.ProjectView(v, track[i], sw, sh)
		if ok0 && ok1 {
			c.DrawLine(x0, y0, x1, y1)
		}
	}
	return c
}
