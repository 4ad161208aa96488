package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt         = 0.01
	DefaultDuration   = 20.0
	DefaultTolerance  = 1e-8
	DefaultIntegrator = "leapfrog"

	DefaultFrictionMinR = 1e-4
	DefaultFrictionMaxR = 25.0
	DefaultFrictionNR   = 201
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Name        string            `yaml:"name,omitempty"`
	Description string            `yaml:"description,omitempty"`
	Potentials  []PotentialConfig `yaml:"potentials"`
	Friction    *FrictionConfig   `yaml:"friction,omitempty"`
	Orbit       OrbitConfig       `yaml:"orbit"`
	Integrator  string            `yaml:"integrator"`
	Dt          float64           `yaml:"dt"`
	Duration    float64           `yaml:"duration"`
	Adaptive    bool              `yaml:"adaptive"`
	Tolerance   float64           `yaml:"tolerance"`
	SampleEvery int               `yaml:"sample_every,omitempty"`
}

type PotentialConfig struct {
	Type   string             `yaml:"type" json:"type"`
	Params map[string]float64 `yaml:"params,omitempty" json:"params,omitempty"`
}

// FrictionConfig describes a Chandrasekhar drag on the orbiting body. The
// background density is the sum of all configured potentials.
type FrictionConfig struct {
	Amp      float64     `yaml:"amp"`
	GMs      float64     `yaml:"gms"`
	Rhm      float64     `yaml:"rhm"`
	Gamma    float64     `yaml:"gamma"`
	LnLambda float64     `yaml:"lnlambda"` // negative means variable
	MinR     float64     `yaml:"minr"`
	MaxR     float64     `yaml:"maxr"`
	NR       int         `yaml:"nr"`
	Sigma    SigmaConfig `yaml:"sigma"`
}

// SigmaConfig is either an isothermal dispersion for circular velocity Vc
// or a tabulated profile sampled at radii X.
type SigmaConfig struct {
	Kind    string         `yaml:"kind,omitempty"`
	Vc      float64        `yaml:"vc,omitempty"`
	Samples *SamplesConfig `yaml:"samples,omitempty"`
}

type SamplesConfig struct {
	X []float64 `yaml:"x"`
	Y []float64 `yaml:"y"`
}

// OrbitConfig is the initial phase-space point in cylindrical
// coordinates. Circular replaces VT with the local circular velocity.
type OrbitConfig struct {
	R        float64 `yaml:"R"`
	Z        float64 `yaml:"z"`
	Phi      float64 `yaml:"phi"`
	VR       float64 `yaml:"vR"`
	VT       float64 `yaml:"vT"`
	VZ       float64 `yaml:"vz"`
	Circular bool    `yaml:"circular,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Potentials: []PotentialConfig{{Type: "power_cutoff"}},
		Orbit:      OrbitConfig{R: 1, Circular: true},
		Integrator: DefaultIntegrator,
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Tolerance:  DefaultTolerance,
	}
}

func DefaultFriction() FrictionConfig {
	return FrictionConfig{
		Amp:      1,
		Gamma:    1,
		LnLambda: -1,
		MinR:     DefaultFrictionMinR,
		MaxR:     DefaultFrictionMaxR,
		NR:       DefaultFrictionNR,
		Sigma:    SigmaConfig{Kind: "natural", Vc: 1},
	}
}

// UnmarshalYAML fills keys missing from the document with DefaultFriction.
func (f *FrictionConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain FrictionConfig
	p := plain(DefaultFriction())
	if err := node.Decode(&p); err != nil {
		return err
	}
	*f = FrictionConfig(p)
	return nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML document over DefaultConfig and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every structural problem it finds. Model names and
// parameter names are checked later, when the registry builds them.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if len(c.Potentials) == 0 {
		bad("at least one potential is required")
	}
	for i, p := range c.Potentials {
		if p.Type == "" {
			bad("potentials[%d] has no type", i)
		}
	}
	if !(c.Dt > 0) {
		bad("dt must be positive, got %g", c.Dt)
	}
	if !(c.Duration > 0) {
		bad("duration must be positive, got %g", c.Duration)
	}
	if c.Adaptive && !(c.Tolerance > 0) {
		bad("adaptive stepping needs a positive tolerance")
	}
	if c.Orbit.R < 0 {
		bad("orbit R must not be negative")
	}

	if c.Friction != nil {
		if err := c.Friction.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Validate checks the friction block on its own. Tabulated dispersion
// samples must span [minr, maxr] so the normalized table covers [0, 1].
func (f *FrictionConfig) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if !(f.MaxR > f.MinR) || f.MinR < 0 {
		bad("friction needs 0 <= minr < maxr, got [%g, %g]", f.MinR, f.MaxR)
	}
	if s := f.Sigma.Samples; s != nil {
		switch {
		case len(s.X) != len(s.Y):
			bad("friction sigma samples: %d radii but %d values", len(s.X), len(s.Y))
		case len(s.X) < 2:
			bad("friction sigma needs at least 2 samples, got %d", len(s.X))
		case !(s.X[0] <= f.MinR && s.X[len(s.X)-1] >= f.MaxR):
			bad("friction sigma samples span [%g, %g], need to cover [minr, maxr] = [%g, %g]",
				s.X[0], s.X[len(s.X)-1], f.MinR, f.MaxR)
		}
	} else {
		if f.NR < 2 {
			bad("friction nr must be at least 2, got %d", f.NR)
		}
		if !(f.Sigma.Vc > 0) {
			bad("friction sigma needs vc > 0 or samples")
		}
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Potentials = make([]PotentialConfig, len(c.Potentials))
	for i, p := range c.Potentials {
		out.Potentials[i] = PotentialConfig{Type: p.Type}
		if p.Params != nil {
			out.Potentials[i].Params = make(map[string]float64, len(p.Params))
			for k, v := range p.Params {
				out.Potentials[i].Params[k] = v
			}
		}
	}
	if c.Friction != nil {
		f := *c.Friction
		if s := f.Sigma.Samples; s != nil {
			f.Sigma.Samples = &SamplesConfig{
				X: append([]float64(nil), s.X...),
				Y: append([]float64(nil), s.Y...),
			}
		}
		out.Friction = &f
	}
	return &out
}
