// Package experiment turns a config into a runnable orbit integration.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/galdyn/internal/config"
	"github.com/san-kum/galdyn/internal/dynamo"
	"github.com/san-kum/galdyn/internal/metrics"
	"github.com/san-kum/galdyn/internal/orbit"
	"github.com/san-kum/galdyn/internal/potential"
	"github.com/san-kum/galdyn/internal/profile"
	"github.com/san-kum/galdyn/internal/registry"
)

var ErrNotSetup = errors.New("experiment: not set up")

type Experiment struct {
	cfg        *config.Config
	pots       []potential.Potential
	friction   *potential.ChandrasekharFriction
	sys        *orbit.System
	integrator dynamo.Integrator
	x0         dynamo.State
	simulator  *dynamo.Simulator
	log        *slog.Logger
}

// New builds every model named by cfg from reg. Each Experiment owns its
// model instances, so experiments may run concurrently.
func New(cfg *config.Config, reg *registry.Registry) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pots := make([]potential.Potential, 0, len(cfg.Potentials))
	for i, pc := range cfg.Potentials {
		p, err := reg.Model(pc.Type, pc.Params)
		if err != nil {
			return nil, fmt.Errorf("potentials[%d]: %w", i, err)
		}
		pots = append(pots, p)
	}

	var diss []potential.Dissipative
	var fric *potential.ChandrasekharFriction
	if cfg.Friction != nil {
		var err error
		fric, err = BuildFriction(cfg.Friction, potential.Densities(pots...))
		if err != nil {
			return nil, fmt.Errorf("friction: %w", err)
		}
		diss = append(diss, fric)
	}

	integ, err := reg.Integrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	sys := orbit.New(pots, diss)
	e := &Experiment{
		cfg:        cfg,
		pots:       pots,
		friction:   fric,
		sys:        sys,
		integrator: integ,
		x0:         InitialState(cfg.Orbit, pots),
		simulator:  dynamo.New(sys, integ),
		log:        slog.Default().With("experiment", cfg.Name),
	}

	sink := 0.0
	if cfg.Friction != nil {
		sink = cfg.Friction.MinR
	}
	for _, m := range metrics.Default(sys, sink) {
		e.simulator.AddMetric(m)
	}
	e.simulator.AddObserver(NewProgress(e.log, cfg.Duration, 10))
	return e, nil
}

// BuildFriction converts a friction block into a force acting against the
// given background.
func BuildFriction(fc *config.FrictionConfig, background potential.List) (*potential.ChandrasekharFriction, error) {
	if err := fc.Validate(); err != nil {
		return nil, err
	}
	kind, err := profile.ParseKind(fc.Sigma.Kind)
	if err != nil {
		return nil, err
	}

	pc := potential.DefaultFrictionConfig()
	pc.Amp = fc.Amp
	pc.GMs = fc.GMs
	pc.Rhm = fc.Rhm
	pc.Gamma = fc.Gamma
	pc.LnLambda = potential.CoulombLogFromSentinel(fc.LnLambda)
	pc.MinR = fc.MinR
	pc.MaxR = fc.MaxR
	pc.NR = fc.NR
	pc.SigmaKind = kind
	pc.Background = background

	if s := fc.Sigma.Samples; s != nil {
		xs := make([]float64, len(s.X))
		for i, r := range s.X {
			xs[i] = (r - fc.MinR) / (fc.MaxR - fc.MinR)
		}
		pc.Sigma, err = profile.New(xs, s.Y, kind)
		if err != nil {
			return nil, err
		}
	} else {
		pc.SigmaFunc = potential.IsothermalSigma(fc.Sigma.Vc)
	}

	return potential.NewChandrasekharFriction(pc)
}

// InitialState converts the configured cylindrical point to Cartesian
// phase space, filling in the circular velocity when asked.
func InitialState(oc config.OrbitConfig, pots []potential.Potential) dynamo.State {
	c := orbit.Cylindrical{R: oc.R, Z: oc.Z, Phi: oc.Phi, VR: oc.VR, VT: oc.VT, VZ: oc.VZ}
	if oc.Circular {
		c.VT = potential.Vcirc(pots, oc.R, oc.Phi, 0)
	}
	return orbit.FromCylindrical(c)
}

func (e *Experiment) RunConfig() dynamo.Config {
	rc := dynamo.DefaultConfig()
	rc.Dt = e.cfg.Dt
	rc.Duration = e.cfg.Duration
	rc.Adaptive = e.cfg.Adaptive
	rc.Tolerance = e.cfg.Tolerance
	rc.SampleEvery = e.cfg.SampleEvery
	rc.MaxDt = 100 * e.cfg.Dt
	return rc
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, ErrNotSetup
	}

	start := time.Now()
	e.log.Debug("run started",
		"integrator", e.cfg.Integrator,
		"potentials", len(e.pots),
		"friction", e.friction != nil,
		"duration", e.cfg.Duration)

	result, err := e.simulator.Run(ctx, e.x0, e.RunConfig())
	if err != nil {
		return result, err
	}

	e.log.Debug("run finished",
		"steps", result.StepsTaken,
		"samples", len(result.States),
		"energy_drift", result.EnergyDrift,
		"errors", len(result.Errors),
		"elapsed", time.Since(start))
	for _, rerr := range result.Errors {
		e.log.Warn("run stopped early", "err", rerr)
	}
	return result, nil
}

func (e *Experiment) Config() *config.Config                     { return e.cfg }
func (e *Experiment) Simulator() *dynamo.Simulator               { return e.simulator }
func (e *Experiment) System() *orbit.System                      { return e.sys }
func (e *Experiment) Potentials() []potential.Potential          { return e.pots }
func (e *Experiment) Friction() *potential.ChandrasekharFriction { return e.friction }
func (e *Experiment) Integrator() dynamo.Integrator               { return e.integrator }
func (e *Experiment) InitialState() dynamo.State                 { return e.x0.Clone() }
