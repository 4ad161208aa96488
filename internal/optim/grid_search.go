package optim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/galdyn/internal/config"
	"github.com/san-kum/galdyn/internal/dynamo"
	"github.com/san-kum/galdyn/internal/experiment"
	"github.com/san-kum/galdyn/internal/orbit"
	"github.com/san-kum/galdyn/internal/registry"
)

var (
	ErrUnknownParam = errors.New("optim: unknown parameter")
	ErrEmptyGrid    = errors.New("optim: empty grid")
	ErrNoResult     = errors.New("optim: no grid point produced a finite metric")
)

// Point is one evaluated grid node.
type Point struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// GridSearch evaluates a metric over the cartesian product of parameter
// values. Parameter names are paths into config.Config, see Apply.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64

	Maximize bool
	Workers  int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Size is the number of grid nodes.
func (g *GridSearch) Size() int {
	if len(g.paramNames) == 0 {
		return 0
	}
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// node returns the parameter assignment of the i-th node, with the last
// parameter varying fastest.
func (g *GridSearch) node(i int) map[string]float64 {
	params := make(map[string]float64, len(g.paramNames))
	for d := len(g.paramNames) - 1; d >= 0; d-- {
		r := g.ranges[d]
		params[g.paramNames[d]] = r[i%len(r)]
		i /= len(r)
	}
	return params
}

// Search runs one experiment per grid node on a copy of base and returns
// the best node together with every evaluated node in grid order. Nodes
// whose config is invalid or whose metric is NaN are kept with Err set
// and never win.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, reg *registry.Registry, metricName string) (Point, []Point, error) {
	if len(g.paramNames) != len(g.ranges) {
		return Point{}, nil, fmt.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}
	n := g.Size()
	if n == 0 {
		return Point{}, nil, ErrEmptyGrid
	}

	logger := slog.Default().With("search", metricName, "nodes", n)
	logger.Debug("grid search starting", "params", g.paramNames)

	points := make([]Point, n)
	_, err := dynamo.Sweep(ctx, n, g.Workers, func(ctx context.Context, i int) (*dynamo.Result, error) {
		points[i] = g.evaluate(ctx, base, reg, metricName, g.node(i))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	})
	if err != nil {
		return Point{}, points, err
	}

	best := -1
	for i, p := range points {
		if p.Err != nil {
			logger.Debug("grid node skipped", "params", p.Params, "err", p.Err)
			continue
		}
		if best < 0 || g.better(p.Value, points[best].Value) {
			best = i
		}
	}
	if best < 0 {
		return Point{}, points, ErrNoResult
	}

	logger.Info("grid search finished", "best", points[best].Params, metricName, points[best].Value)
	return points[best], points, nil
}

func (g *GridSearch) better(a, b float64) bool {
	if g.Maximize {
		return a > b
	}
	return a < b
}

func (g *GridSearch) evaluate(ctx context.Context, base *config.Config, reg *registry.Registry, metricName string, params map[string]float64) Point {
	p := Point{Params: params, Value: math.NaN()}

	cfg := base.Clone()
	for name, v := range params {
		if err := Apply(cfg, name, v); err != nil {
			p.Err = err
			return p
		}
	}

	exp, err := experiment.New(cfg, reg)
	if err != nil {
		p.Err = err
		return p
	}
	result, err := exp.Run(ctx)
	if err != nil {
		p.Err = err
		return p
	}

	v, ok := MetricValue(result, metricName)
	switch {
	case !ok:
		p.Err = fmt.Errorf("optim: run has no metric %q", metricName)
	case math.IsNaN(v):
		p.Err = fmt.Errorf("optim: metric %q is NaN", metricName)
	default:
		p.Value = v
	}
	return p
}

// FinalRadius names the spherical radius of the last state, available to
// every search alongside the simulator's metrics.
const FinalRadius = "final_radius"

// MetricValue looks up name in the run's metrics.
func MetricValue(result *dynamo.Result, name string) (float64, bool) {
	if name == FinalRadius {
		x := result.Final()
		if x == nil {
			return 0, false
		}
		return orbit.Radius(x), true
	}
	v, ok := result.Metrics[name]
	return v, ok
}

// Apply sets a named scalar on cfg. Recognised names:
//
//	dt, duration, tolerance
//	orbit.R, orbit.z, orbit.phi, orbit.vR, orbit.vT, orbit.vz
//	friction.amp, friction.gms, friction.rhm, friction.gamma,
//	friction.lnlambda, friction.minr, friction.maxr, friction.vc
//	potential.<index>.<param>
//
// Setting a friction field on a config without friction enables it with
// the defaults first.
func Apply(cfg *config.Config, name string, v float64) error {
	head, rest, _ := strings.Cut(name, ".")
	switch head {
	case "dt":
		cfg.Dt = v
	case "duration":
		cfg.Duration = v
	case "tolerance":
		cfg.Tolerance = v
	case "orbit":
		return applyOrbit(&cfg.Orbit, rest, v, name)
	case "friction":
		if cfg.Friction == nil {
			f := config.DefaultFriction()
			cfg.Friction = &f
		}
		return applyFriction(cfg.Friction, rest, v, name)
	case "potential":
		idx, param, ok := strings.Cut(rest, ".")
		i, err := strconv.Atoi(idx)
		if !ok || err != nil || i < 0 || i >= len(cfg.Potentials) {
			return fmt.Errorf("%w: %s", ErrUnknownParam, name)
		}
		pc := &cfg.Potentials[i]
		if pc.Params == nil {
			pc.Params = make(map[string]float64)
		}
		pc.Params[param] = v
	default:
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return nil
}

func applyOrbit(o *config.OrbitConfig, field string, v float64, name string) error {
	switch field {
	case "R":
		o.R = v
	case "z":
		o.Z = v
	case "phi":
		o.Phi = v
	case "vR":
		o.VR = v
	case "vT":
		o.VT = v
		o.Circular = false
	case "vz":
		o.VZ = v
	default:
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return nil
}

func applyFriction(f *config.FrictionConfig, field string, v float64, name string) error {
	switch field {
	case "amp":
		f.Amp = v
	case "gms":
		f.GMs = v
	case "rhm":
		f.Rhm = v
	case "gamma":
		f.Gamma = v
	case "lnlambda":
		f.LnLambda = v
	case "minr":
		f.MinR = v
	case "maxr":
		f.MaxR = v
	case "vc":
		f.Sigma.Vc = v
	default:
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return nil
}

// ParseRange expands "start:stop:n" into n evenly spaced values, or a
// comma separated list into its values.
func ParseRange(s string) ([]float64, error) {
	if parts := strings.Split(s, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err := errors.Join(err1, err2, err3); err != nil {
			return nil, fmt.Errorf("optim: range %q: %w", s, err)
		}
		if n < 1 {
			return nil, fmt.Errorf("optim: range %q: need at least one value", s)
		}
		if n == 1 {
			return []float64{lo}, nil
		}
		return floats.Span(make([]float64, n), lo, hi), nil
	}

	var out []float64
	for _, f := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("optim: range %q: %w", s, err)
		}
		out = append(out, v)
	}
	return out, nil
}
