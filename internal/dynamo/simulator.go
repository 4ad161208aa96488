package dynamo

import (
	"context"
	"fmt"
	"math"
)

type Simulator struct {
	sys        System
	integrator Integrator
	metrics    []Metric
	observers  []Observer
}

func New(sys System, integrator Integrator) *Simulator {
	return &Simulator{
		sys:        sys,
		integrator: integrator,
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run integrates from x0 over cfg.Duration. A state that turns invalid
// or an adaptive step that cannot meet the tolerance stops the run early;
// the cause is recorded in Result.Errors and the partial result returned
// without error. Cancellation returns the partial result together with an
// error wrapping ErrContextCanceled.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.sys.Dim() {
		return nil, fmt.Errorf("%w: state has %d components, system wants %d",
			ErrDimensionMismatch, len(x0), s.sys.Dim())
	}

	every := cfg.SampleEvery
	if every < 1 {
		every = 1
	}
	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		States:  make([]State, 0, steps/every+2),
		Times:   make([]float64, 0, steps/every+2),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.Dt
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)
	initialEnergy, hasEnergy := s.energy(x)

	for i := 0; ; i++ {
		if cfg.Adaptive {
			if cfg.Duration-t <= 1e-12*cfg.Duration {
				break
			}
		} else if i >= steps {
			break
		}

		select {
		case <-ctx.Done():
			return result, fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err())
		default:
		}

		for _, m := range s.metrics {
			m.Observe(x, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, t)
		}

		var next State
		var taken float64
		if cfg.Adaptive {
			var err error
			next, taken, dt, err = s.adaptiveStep(x, t, math.Min(dt, cfg.Duration-t), cfg)
			if err != nil {
				result.Errors = append(result.Errors, &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: err})
				break
			}
		} else {
			next = s.integrator.Step(s.sys, x, t, cfg.Dt)
			taken = cfg.Dt
		}

		if cfg.ValidateState && !next.IsValid() {
			result.Errors = append(result.Errors, &SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: ErrInvalidState})
			break
		}

		x = next
		if cfg.Adaptive {
			t += taken
		} else {
			t = float64(i+1) * cfg.Dt
		}
		result.StepsTaken++

		if result.StepsTaken%every == 0 {
			result.States = append(result.States, x.Clone())
			result.Times = append(result.Times, t)
		}
	}

	if result.Times[len(result.Times)-1] != t {
		result.States = append(result.States, x.Clone())
		result.Times = append(result.Times, t)
	}

	if hasEnergy {
		finalEnergy, _ := s.energy(x)
		if initialEnergy != 0 {
			result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func validateConfig(cfg Config) error {
	switch {
	case !(cfg.Dt > 0):
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, cfg.Dt)
	case !(cfg.Duration > 0):
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidConfig, cfg.Duration)
	case cfg.Adaptive && !(cfg.Tolerance > 0):
		return fmt.Errorf("%w: tolerance must be positive for adaptive stepping", ErrInvalidConfig)
	case cfg.MinDt < 0 || cfg.MaxDt < 0:
		return fmt.Errorf("%w: step bounds must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (s *Simulator) energy(x State) (float64, bool) {
	if h, ok := s.sys.(Hamiltonian); ok {
		return h.Energy(x), true
	}
	return 0, false
}

// adaptiveStep uses the integrator's own error control when it has one,
// and step doubling otherwise.
func (s *Simulator) adaptiveStep(x State, t, dt float64, cfg Config) (State, float64, float64, error) {
	if a, ok := s.integrator.(AdaptiveIntegrator); ok {
		next, taken, suggested, err := a.StepAdaptive(s.sys, x, t, dt, cfg.Tolerance)
		if err != nil {
			return nil, 0, 0, err
		}
		if taken < cfg.MinDt {
			return nil, 0, 0, ErrStepTooSmall
		}
		return next, taken, clampDt(suggested, cfg), nil
	}

	for {
		x1 := s.integrator.Step(s.sys, x, t, dt)
		xHalf := s.integrator.Step(s.sys, x, t, dt/2)
		x2 := s.integrator.Step(s.sys, xHalf, t+dt/2, dt/2)

		errEst := x1.Sub(x2).Norm()
		if errEst <= cfg.Tolerance {
			suggested := dt
			if errEst < cfg.Tolerance/10 {
				suggested = dt * 2
			}
			return x2, dt, clampDt(suggested, cfg), nil
		}

		dt /= 2
		if dt < cfg.MinDt {
			return nil, 0, 0, ErrStepTooSmall
		}
	}
}

func clampDt(dt float64, cfg Config) float64 {
	if cfg.MaxDt > 0 && dt > cfg.MaxDt {
		return cfg.MaxDt
	}
	return dt
}

// RunWithCallback steps with a fixed dt, calling fn before every step
// until it returns false or the duration is reached.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 State, cfg Config, fn func(State, float64) bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	x := x0.Clone()
	steps := int(math.Round(cfg.Duration / cfg.Dt))
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrContextCanceled, ctx.Err())
		default:
		}

		t := float64(i) * cfg.Dt
		if !fn(x, t) {
			return nil
		}

		x = s.integrator.Step(s.sys, x, t, cfg.Dt)
		if cfg.ValidateState && !x.IsValid() {
			return &SimulationError{Step: i, Time: t + cfg.Dt, State: x, Wrapped: ErrInvalidState}
		}
	}

	fn(x, float64(steps)*cfg.Dt)
	return nil
}
