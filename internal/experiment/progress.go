package experiment

import (
	"log/slog"
	"math"

	"github.com/san-kum/galdyn/internal/dynamo"
	"github.com/san-kum/galdyn/internal/orbit"
)

// Progress logs the orbit radius each time the run crosses another
// 1/Parts of its duration.
type Progress struct {
	log      *slog.Logger
	duration float64
	parts    int
	next     int
}

func NewProgress(log *slog.Logger, duration float64, parts int) *Progress {
	if parts < 1 {
		parts = 1
	}
	return &Progress{log: log, duration: duration, parts: parts, next: 1}
}

func (p *Progress) OnStep(x dynamo.State, t float64) {
	if p.next > p.parts || p.duration <= 0 {
		return
	}
	done := int(math.Floor(t / p.duration * float64(p.parts)))
	if done < p.next {
		return
	}
	p.next = done + 1
	p.log.Debug("progress",
		"percent", 100*min(done, p.parts)/p.parts,
		"t", t,
		"r", orbit.Radius(x))
}
