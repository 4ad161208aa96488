package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/galdyn/internal/analysis"
	"github.com/san-kum/galdyn/internal/experiment"
	"github.com/san-kum/galdyn/internal/orbit"
	"github.com/san-kum/galdyn/internal/potential"
	"github.com/san-kum/galdyn/internal/registry"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "list potential models and integrators",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.New()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tDEFAULTS")
			for _, name := range reg.Models() {
				params, err := reg.Defaults(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\n", name, formatParams(params))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("\nintegrators: %v\n", reg.Integrators())
			return nil
		},
	}
}

type point struct {
	R, z, phi, t float64
}

func (p *point) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&p.R, "R", 1, "cylindrical radius")
	cmd.Flags().Float64Var(&p.z, "z", 0, "height")
	cmd.Flags().Float64Var(&p.phi, "phi", 0, "azimuth")
	cmd.Flags().Float64Var(&p.t, "t", 0, "time")
}

func newEvalCmd() *cobra.Command {
	var (
		at     point
		params []string
	)
	cmd := &cobra.Command{
		Use:   "eval [model]",
		Short: "evaluate a potential model at one point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pm, err := parseParams(params)
			if err != nil {
				return err
			}
			m, err := registry.New().Model(args[0], pm)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "model\t%s (%s)\n", args[0], formatParams(m.Params()))
			fmt.Fprintf(w, "point\tR=%g z=%g phi=%g t=%g\n", at.R, at.z, at.phi, at.t)
			row := func(name string, v float64) { fmt.Fprintf(w, "%s\t%.10g\n", name, v) }
			row("Eval", m.Eval(at.R, at.z, at.phi, at.t))
			row("RForce", m.RForce(at.R, at.z, at.phi, at.t))
			row("ZForce", m.ZForce(at.R, at.z, at.phi, at.t))
			row("PhiForce", m.PhiForce(at.R, at.z, at.phi, at.t))
			row("Dens", m.Dens(at.R, at.z, at.phi, at.t))
			if p, ok := m.(potential.Planar); ok {
				row("PlanarRForce", p.PlanarRForce(at.R, at.phi, at.t))
				row("PlanarR2deriv", p.PlanarR2deriv(at.R, at.phi, at.t))
			}
			row("Vcirc", potential.Vcirc([]potential.Potential{m}, at.R, at.phi, at.t))
			return w.Flush()
		},
	}
	at.register(cmd)
	cmd.Flags().StringSliceVarP(&params, "param", "p", nil, "model parameter name=value (repeatable)")
	return cmd
}

// potentialsFor builds either a single registry model or the potentials
// of a config.
func potentialsFor(cmd *cobra.Command, args []string, params []string, rf *runFlags) ([]potential.Potential, string, error) {
	if len(args) == 1 {
		pm, err := parseParams(params)
		if err != nil {
			return nil, "", err
		}
		m, err := registry.New().Model(args[0], pm)
		if err != nil {
			return nil, "", err
		}
		return []potential.Potential{m}, args[0], nil
	}

	cfg, err := rf.load(cmd)
	if err != nil {
		return nil, "", err
	}
	exp, err := experiment.New(cfg, registry.New())
	if err != nil {
		return nil, "", err
	}
	name := cfg.Name
	if name == "" {
		name = "config"
	}
	return exp.Potentials(), name, nil
}

func newCurveCmd() *cobra.Command {
	var (
		rf         runFlags
		params     []string
		rmin, rmax float64
		n          int
	)
	cmd := &cobra.Command{
		Use:   "curve [model]",
		Short: "plot rotation curve, density and frequencies",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pots, name, err := potentialsFor(cmd, args, params, &rf)
			if err != nil {
				return err
			}
			c, err := analysis.RotationCurve(pots, rmin, rmax, n)
			if err != nil {
				return err
			}

			logDens := make([]float64, len(c.Dens))
			for i, d := range c.Dens {
				logDens[i] = math.Log10(math.Max(d, 1e-300))
			}
			fmt.Printf("%s: R in [%g, %g], %d points\n\n", name, rmin, rmax, n)
			for _, g := range []struct {
				data    []float64
				caption string
			}{
				{c.Vcirc, "vcirc(R)"},
				{logDens, "log10 rho(R, z=0)"},
				{c.Omega, "Omega(R)"},
				{c.Kappa, "kappa(R)"},
			} {
				fmt.Println(asciigraph.Plot(finite(g.data),
					asciigraph.Height(10),
					asciigraph.Width(70),
					asciigraph.Caption(g.caption)))
				fmt.Println()
			}
			i := floats.MaxIdx(c.Vcirc)
			fmt.Printf("peak vcirc %.6g at R=%.4g\n", c.Vcirc[i], c.R[i])
			return nil
		},
	}
	rf.register(cmd)
	cmd.Flags().StringSliceVarP(&params, "param", "p", nil, "model parameter name=value (repeatable)")
	cmd.Flags().Float64Var(&rmin, "rmin", 0.05, "inner radius")
	cmd.Flags().Float64Var(&rmax, "rmax", 10, "outer radius")
	cmd.Flags().IntVar(&n, "n", 80, "number of radii")
	return cmd
}

func newFrictionCmd() *cobra.Command {
	var (
		rf             runFlags
		at             point
		vR, vT, vz     float64
		useOrbitConfig bool
	)
	cmd := &cobra.Command{
		Use:   "friction",
		Short: "evaluate the dynamical friction force of a config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rf.load(cmd)
			if err != nil {
				return err
			}
			if cfg.Friction == nil {
				return errors.New("config has no friction block")
			}
			exp, err := experiment.New(cfg, registry.New())
			if err != nil {
				return err
			}
			f := exp.Friction()

			c := orbit.Cylindrical{R: at.R, Z: at.z, Phi: at.phi, VR: vR, VT: vT, VZ: vz}
			if useOrbitConfig {
				c = orbit.ToCylindrical(exp.InitialState())
			}
			fR, fz, fphi := f.Forces(c.R, c.Z, c.Phi, at.t, c.VR, c.VT, c.VZ)
			r2 := c.R*c.R + c.Z*c.Z
			v2 := c.VR*c.VR + c.VT*c.VT + c.VZ*c.VZ

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "params\t%s\n", formatParams(f.Params()))
			fmt.Fprintf(w, "point\tR=%g z=%g phi=%g vR=%g vT=%g vz=%g\n", c.R, c.Z, c.Phi, c.VR, c.VT, c.VZ)
			fmt.Fprintf(w, "density\t%.10g\n", f.Background().Dens(c.R, c.Z, c.Phi, at.t))
			fmt.Fprintf(w, "sigma\t%.10g\n", f.Sigma(math.Sqrt(r2)))
			fmt.Fprintf(w, "lnLambda\t%.10g\n", f.CoulombLogAt(r2, v2))
			fmt.Fprintf(w, "FR\t%.10g\n", fR)
			fmt.Fprintf(w, "Fz\t%.10g\n", fz)
			fmt.Fprintf(w, "Fphi\t%.10g\n", fphi)
			return w.Flush()
		},
	}
	rf.register(cmd)
	at.register(cmd)
	cmd.Flags().Float64Var(&vR, "vR", 0, "radial velocity")
	cmd.Flags().Float64Var(&vT, "vT", 1, "tangential velocity")
	cmd.Flags().Float64Var(&vz, "vz", 0, "vertical velocity")
	cmd.Flags().BoolVar(&useOrbitConfig, "orbit", false, "use the config's initial orbit point")
	return cmd
}

func newProfileCmd() *cobra.Command {
	var (
		rf runFlags
		n  int
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "plot the velocity dispersion profile of a friction config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rf.load(cmd)
			if err != nil {
				return err
			}
			if cfg.Friction == nil {
				return errors.New("config has no friction block")
			}
			exp, err := experiment.New(cfg, registry.New())
			if err != nil {
				return err
			}
			f := exp.Friction()

			p, ro, rfar := f.Profile()
			radii := floats.Span(make([]float64, n), ro, rfar)
			sigma := make([]float64, n)
			for i, r := range radii {
				sigma[i] = f.Sigma(r)
			}
			xs, _ := p.Samples()
			fmt.Printf("%s profile, %d samples on r in [%g, %g]\n\n", p.Kind(), len(xs), ro, rfar)
			fmt.Println(asciigraph.Plot(sigma,
				asciigraph.Height(12),
				asciigraph.Width(70),
				asciigraph.Caption("sigma(r)")))
			return nil
		},
	}
	rf.register(cmd)
	cmd.Flags().IntVar(&n, "n", 70, "plot resolution")
	return cmd
}

func formatParams(p map[string]float64) string {
	s := ""
	for _, k := range sortedKeys(p) {
		if s != "" {
			s += " "
		}
		s += fmt.Sprintf("%s=%g", k, p[k])
	}
	return s
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// finite replaces NaN and Inf so asciigraph can scale the plot.
func finite(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			x = 0
		}
		out[i] = x
	}
	return out
}
