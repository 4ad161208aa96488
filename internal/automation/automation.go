// Package automation runs scripted scenarios and Monte Carlo ensembles of
// orbit experiments.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/galdyn/internal/config"
	"github.com/san-kum/galdyn/internal/dynamo"
	"github.com/san-kum/galdyn/internal/experiment"
	"github.com/san-kum/galdyn/internal/metrics"
	"github.com/san-kum/galdyn/internal/optim"
	"github.com/san-kum/galdyn/internal/orbit"
	"github.com/san-kum/galdyn/internal/registry"
)

var ErrEmptyScenario = errors.New("automation: scenario has no steps")

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset or a config file (defaults if neither)
// and applies Set on top. Set keys use the optim.Apply names.
type ScenarioStep struct {
	Preset string             `yaml:"preset,omitempty"`
	Config string             `yaml:"config,omitempty"`
	Set    map[string]float64 `yaml:"set,omitempty"`
	SaveAs string             `yaml:"save_as,omitempty"`
}

// StepResult pairs a finished run with the config that produced it.
type StepResult struct {
	Config *config.Config
	Result *dynamo.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("automation: parse scenario: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, ErrEmptyScenario
	}
	return &sc, nil
}

// StepConfig resolves the config of one step.
func StepConfig(step ScenarioStep) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case step.Config != "":
		var err error
		if cfg, err = config.Load(step.Config); err != nil {
			return nil, err
		}
	case step.Preset != "":
		if cfg = config.GetPreset(step.Preset); cfg == nil {
			return nil, fmt.Errorf("automation: unknown preset %q", step.Preset)
		}
	default:
		cfg = config.DefaultConfig()
	}

	keys := make([]string, 0, len(step.Set))
	for k := range step.Set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := optim.Apply(cfg, k, step.Set[k]); err != nil {
			return nil, err
		}
	}
	if step.SaveAs != "" {
		cfg.Name = step.SaveAs
	}
	return cfg, nil
}

// RunScenario executes the steps in order and stops at the first failure,
// returning the results gathered so far.
func RunScenario(ctx context.Context, sc *Scenario, reg *registry.Registry) ([]StepResult, error) {
	logger := slog.Default().With("scenario", sc.Name)
	results := make([]StepResult, 0, len(sc.Steps))

	for i, step := range sc.Steps {
		cfg, err := StepConfig(step)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		logger.Info("running step", "step", i+1, "of", len(sc.Steps), "name", cfg.Name)

		exp, err := experiment.New(cfg, reg)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		results = append(results, StepResult{Config: cfg, Result: result})
	}
	return results, nil
}

// MonteCarloConfig perturbs the initial orbit of Base uniformly by up to
// Perturbation (relative) in R and each velocity component.
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
	EscapeRadius float64
	Seed         int64
	Workers      int
}

// MonteCarloResult is one trial.
type MonteCarloResult struct {
	TrialID    int
	Orbit      config.OrbitConfig
	FinalState dynamo.State
	Bound      bool
	Sunk       bool
	LzLoss     float64
}

// RunMonteCarlo runs the trials in parallel. Trial orbits are drawn up
// front from one seeded source, so results do not depend on scheduling.
func RunMonteCarlo(ctx context.Context, mc *MonteCarloConfig, reg *registry.Registry) ([]MonteCarloResult, error) {
	if mc.NumTrials < 1 {
		return nil, fmt.Errorf("automation: need at least one trial, got %d", mc.NumTrials)
	}
	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	probe, err := experiment.New(mc.Base.Clone(), reg)
	if err != nil {
		return nil, err
	}
	start := orbit.ToCylindrical(probe.InitialState())
	escape := mc.EscapeRadius
	if escape <= 0 {
		escape = 10 * math.Max(orbit.Radius(probe.InitialState()), 1)
	}

	jitter := func(v float64) float64 {
		return v * (1 + (rng.Float64()-0.5)*2*mc.Perturbation)
	}
	orbits := make([]config.OrbitConfig, mc.NumTrials)
	for i := range orbits {
		orbits[i] = config.OrbitConfig{
			R:   jitter(start.R),
			Z:   start.Z,
			Phi: start.Phi,
			VR:  start.VR + (rng.Float64()-0.5)*2*mc.Perturbation*math.Abs(start.VT),
			VT:  jitter(start.VT),
			VZ:  jitter(start.VZ),
		}
	}

	results := make([]MonteCarloResult, mc.NumTrials)
	_, err = dynamo.Sweep(ctx, mc.NumTrials, mc.Workers, func(ctx context.Context, i int) (*dynamo.Result, error) {
		cfg := mc.Base.Clone()
		cfg.Orbit = orbits[i]
		exp, err := experiment.New(cfg, reg)
		if err != nil {
			return nil, err
		}
		bound := metrics.NewBound(escape)
		exp.Simulator().AddMetric(bound)

		result, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}
		results[i] = MonteCarloResult{
			TrialID:    i,
			Orbit:      orbits[i],
			FinalState: result.Final(),
			Bound:      result.Metrics[bound.Name()] == 1 && len(result.Errors) == 0,
			Sunk:       !math.IsNaN(result.Metrics["sink_time"]),
			LzLoss:     result.Metrics["lz_loss"],
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("monte carlo finished", "trials", mc.NumTrials, "seed", seed)
	return results, nil
}

// MonteCarloStats counts bound and sunk trials.
func MonteCarloStats(results []MonteCarloResult) (bound, sunk int) {
	for _, r := range results {
		if r.Bound {
			bound++
		}
		if r.Sunk {
			sunk++
		}
	}
	return bound, sunk
}
