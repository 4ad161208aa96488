package config

import "sort"

// Presets are ready-made orbit setups, keyed by name.
var Presets = map[string]*Config{
	"cutoff-halo": {
		Description: "circular orbit in a power-law halo with a Gaussian cutoff",
		Potentials: []PotentialConfig{
			{Type: "power_cutoff", Params: map[string]float64{"amp": 1, "alpha": 1, "rc": 5}},
		},
		Orbit:      OrbitConfig{R: 2, Circular: true},
		Integrator: "leapfrog",
		Dt:         0.01,
		Duration:   50,
	},
	"eccentric": {
		Description: "inclined rosette orbit in a steeper cutoff halo",
		Potentials: []PotentialConfig{
			{Type: "power_cutoff", Params: map[string]float64{"amp": 1, "alpha": 1.5, "rc": 3}},
		},
		Orbit:      OrbitConfig{R: 3, VT: 1.2, VZ: 0.4},
		Integrator: "rk45",
		Dt:         0.01,
		Duration:   60,
		Adaptive:   true,
		Tolerance:  1e-9,
	},
	"flattened-halo": {
		Description: "tube orbit in a flattened power-law halo",
		Potentials: []PotentialConfig{
			{Type: "flattened_power", Params: map[string]float64{"amp": 1, "alpha": 0.5, "q": 0.7, "core": 0.1}},
		},
		Orbit:      OrbitConfig{R: 1.5, VT: 0.8, VZ: 0.3},
		Integrator: "leapfrog",
		Dt:         0.005,
		Duration:   80,
	},
	"sinking-satellite": {
		Description: "satellite spiralling in under dynamical friction",
		Potentials: []PotentialConfig{
			{Type: "power_cutoff", Params: map[string]float64{"amp": 1, "alpha": 1, "rc": 5}},
		},
		Friction: &FrictionConfig{
			Amp:      0.5,
			GMs:      0.05,
			Rhm:      0.1,
			Gamma:    1,
			LnLambda: -1,
			MinR:     0.1,
			MaxR:     10,
			NR:       201,
			Sigma:    SigmaConfig{Kind: "natural", Vc: 3.4},
		},
		Orbit:       OrbitConfig{R: 3, Circular: true},
		Integrator:  "rk4",
		Dt:          0.01,
		Duration:    150,
		SampleEvery: 5,
	},
	"composite": {
		Description: "cutoff bulge inside a cored logarithmic halo",
		Potentials: []PotentialConfig{
			{Type: "power_cutoff", Params: map[string]float64{"amp": 2, "alpha": 1.8, "rc": 0.8}},
			{Type: "flattened_power", Params: map[string]float64{"amp": 1, "alpha": 0, "q": 0.9, "core": 0.5}},
		},
		Orbit:      OrbitConfig{R: 2, VT: 1.1, VZ: 0.2},
		Integrator: "leapfrog",
		Dt:         0.005,
		Duration:   60,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := p.Clone()
	cfg.Name = name
	if cfg.Tolerance == 0 {
		cfg.Tolerance = DefaultTolerance
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
