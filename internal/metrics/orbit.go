package metrics

import (
	"math"

	"github.com/san-kum/galdyn/internal/dynamo"
	"github.com/san-kum/galdyn/internal/orbit"
)

// LzLoss is the fraction of the initial angular momentum lost by the last
// observation.
type LzLoss struct {
	initial, last float64
	seen          bool
}

func NewLzLoss() *LzLoss { return &LzLoss{} }

func (l *LzLoss) Name() string { return "lz_loss" }

func (l *LzLoss) Observe(x dynamo.State, t float64) {
	l.last = orbit.Lz(x)
	if !l.seen {
		l.initial = l.last
		l.seen = true
	}
}

func (l *LzLoss) Value() float64 {
	if l.initial == 0 {
		return 0
	}
	return (l.initial - l.last) / math.Abs(l.initial)
}

func (l *LzLoss) Reset() { *l = LzLoss{} }

// RadiusExtreme records the smallest or largest spherical radius seen.
type RadiusExtreme struct {
	name  string
	max   bool
	value float64
}

func NewPericenter() *RadiusExtreme {
	return &RadiusExtreme{name: "pericenter", value: math.Inf(1)}
}

func NewApocenter() *RadiusExtreme {
	return &RadiusExtreme{name: "apocenter", max: true, value: math.Inf(-1)}
}

func (r *RadiusExtreme) Name() string { return r.name }

func (r *RadiusExtreme) Observe(x dynamo.State, t float64) {
	rad := orbit.Radius(x)
	if (r.max && rad > r.value) || (!r.max && rad < r.value) {
		r.value = rad
	}
}

func (r *RadiusExtreme) Value() float64 {
	if math.IsInf(r.value, 0) {
		return math.NaN()
	}
	return r.value
}

func (r *RadiusExtreme) Reset() {
	r.value = math.Inf(1)
	if r.max {
		r.value = math.Inf(-1)
	}
}

// SinkTime is the first time the orbit comes within radius, or NaN.
type SinkTime struct {
	radius float64
	time   float64
}

func NewSinkTime(radius float64) *SinkTime {
	return &SinkTime{radius: radius, time: math.NaN()}
}

func (s *SinkTime) Name() string { return "sink_time" }

func (s *SinkTime) Observe(x dynamo.State, t float64) {
	if math.IsNaN(s.time) && orbit.Radius(x) < s.radius {
		s.time = t
	}
}

func (s *SinkTime) Value() float64 { return s.time }
func (s *SinkTime) Reset()         { s.time = math.NaN() }

// Bound is the fraction of observations inside the threshold radius.
type Bound struct {
	threshold  float64
	violations int
	samples    int
}

func NewBound(threshold float64) *Bound {
	return &Bound{threshold: threshold}
}

func (b *Bound) Name() string { return "bound" }

func (b *Bound) Observe(x dynamo.State, t float64) {
	b.samples++
	if !(orbit.Radius(x) <= b.threshold) {
		b.violations++
	}
}

func (b *Bound) Value() float64 {
	if b.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(b.violations)/float64(b.samples)
}

func (b *Bound) Reset() {
	b.violations = 0
	b.samples = 0
}

// Default is the metric set attached to every orbit run.
func Default(sys dynamo.Hamiltonian, sinkRadius float64) []dynamo.Metric {
	return []dynamo.Metric{
		NewEnergyDrift(sys),
		NewEnergyChange(sys),
		NewLzLoss(),
		NewPericenter(),
		NewApocenter(),
		NewSinkTime(sinkRadius),
	}
}
