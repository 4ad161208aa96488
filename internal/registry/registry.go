// Package registry maps model and integrator names to constructors.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/galdyn/internal/dynamo"
	"github.com/san-kum/galdyn/internal/integrators"
	"github.com/san-kum/galdyn/internal/potential"
)

var (
	ErrUnknownModel      = errors.New("registry: unknown potential model")
	ErrUnknownIntegrator = errors.New("registry: unknown integrator")
)

// Model is a configurable potential. Both built-in models satisfy it.
type Model interface {
	potential.Potential
	potential.Configurable
}

type Registry struct {
	models      map[string]func() Model
	integrators map[string]func() dynamo.Integrator
}

// New returns a registry with the built-in models and integrators.
func New() *Registry {
	r := &Registry{
		models:      make(map[string]func() Model),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.RegisterModel("power_cutoff", func() Model { return potential.NewPowerSphericalCutoff(1, 1, 1) })
	r.RegisterModel("flattened_power", func() Model {
		return potential.NewFlattenedPower(1, 0.5, 0.9, potential.DefaultCore)
	})

	r.RegisterIntegrator("euler", func() dynamo.Integrator { return integrators.NewEuler() })
	r.RegisterIntegrator("rk4", func() dynamo.Integrator { return integrators.NewRK4() })
	r.RegisterIntegrator("rk45", func() dynamo.Integrator { return integrators.NewRK45() })
	r.RegisterIntegrator("verlet", func() dynamo.Integrator { return integrators.NewVerlet() })
	r.RegisterIntegrator("leapfrog", func() dynamo.Integrator { return integrators.NewLeapfrog() })

	return r
}

func (r *Registry) RegisterModel(name string, fn func() Model) { r.models[name] = fn }

func (r *Registry) RegisterIntegrator(name string, fn func() dynamo.Integrator) {
	r.integrators[name] = fn
}

// Model builds a fresh instance of name and applies params over its
// defaults. Params are applied in name order so errors are reproducible.
func (r *Registry) Model(name string, params map[string]float64) (Model, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	m := fn()
	for _, k := range sortedKeys(params) {
		if err := m.SetParam(k, params[k]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (r *Registry) Integrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIntegrator, name)
	}
	return fn(), nil
}

// Defaults reports the default parameters of a model.
func (r *Registry) Defaults(name string) (map[string]float64, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return fn().Params(), nil
}

func (r *Registry) Models() []string      { return sortedKeys(r.models) }
func (r *Registry) Integrators() []string { return sortedKeys(r.integrators) }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
