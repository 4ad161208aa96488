package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/galdyn/internal/analysis"
	"github.com/san-kum/galdyn/internal/config"
	"github.com/san-kum/galdyn/internal/dynamo"
	"github.com/san-kum/galdyn/internal/experiment"
	"github.com/san-kum/galdyn/internal/export"
	"github.com/san-kum/galdyn/internal/optim"
	"github.com/san-kum/galdyn/internal/orbit"
	"github.com/san-kum/galdyn/internal/registry"
	"github.com/san-kum/galdyn/internal/storage"
	"github.com/san-kum/galdyn/internal/viz"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func newRunCmd() *cobra.Command {
	var rf runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "integrate an orbit and store the run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rf.load(cmd)
			if err != nil {
				return err
			}
			exp, err := experiment.New(cfg, registry.New())
			if err != nil {
				return err
			}

			st := storage.New(dataDir)
			if err := st.Init(); err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			name := cfg.Name
			if name == "" {
				name = "orbit"
			}
			fmt.Printf("running %s (%s, dt=%g, t=%g)...\n", name, cfg.Integrator, cfg.Dt, cfg.Duration)
			start := time.Now()
			result, err := exp.Run(ctx)
			if err != nil && !errors.Is(err, dynamo.ErrContextCanceled) {
				return err
			}
			if err != nil {
				fmt.Println("interrupted, saving partial run")
			}
			elapsed := time.Since(start)

			runID, err := st.Save(cfg, result)
			if err != nil {
				return err
			}

			fmt.Printf("completed in %v\n", elapsed)
			fmt.Printf("run id: %s\n", runID)
			fmt.Printf("steps: %d, samples: %d\n", result.StepsTaken, len(result.States))
			fmt.Printf("energy drift: %.3e\n", result.EnergyDrift)
			fmt.Println("\nmetrics:")
			printMetrics(os.Stdout, result.Metrics)
			for _, rerr := range result.Errors {
				fmt.Printf("\nstopped early: %v\n", rerr)
			}
			return nil
		},
	}
	rf.register(cmd)
	return cmd
}

func printMetrics(w io.Writer, m map[string]float64) {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(w, "  %-14s %.6g\n", k+":", m[k])
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTIME\tDURATION\tDT\tINTEG\tFRICTION\tSTEPS\tDRIFT")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%.4f\t%s\t%v\t%d\t%.2e\n",
					run.ID,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.Duration,
					run.Dt,
					run.Integrator,
					run.Friction,
					run.Steps,
					float64(run.EnergyDrift),
				)
			}
			return w.Flush()
		},
	}
}

// loadRun reads a stored run and rebuilds its experiment.
func loadRun(runID string) (*storage.RunMetadata, *experiment.Experiment, []dynamo.State, []float64, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	cfg, err := st.LoadConfig(runID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	exp, err := experiment.New(cfg, registry.New())
	if err != nil {
		return nil, nil, nil, nil, err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if len(states) == 0 {
		return nil, nil, nil, nil, fmt.Errorf("run %s has no samples", runID)
	}
	return meta, exp, states, times, nil
}

func newPlotCmd() *cobra.Command {
	var (
		section bool
		view    string
		svgOut  string
	)
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot radius, height, Lz and energy of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, exp, states, _, err := loadRun(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("run: %s\n", meta.ID)
			fmt.Printf("samples: %d\n\n", len(states))

			r := make([]float64, len(states))
			z := make([]float64, len(states))
			lz := make([]float64, len(states))
			e := make([]float64, len(states))
			for i, x := range states {
				r[i] = orbit.Radius(x)
				z[i] = x[2]
				lz[i] = orbit.Lz(x)
				e[i] = exp.System().Energy(x)
			}
			for _, g := range []struct {
				data    []float64
				caption string
			}{
				{r, "r (spherical radius)"},
				{z, "z (height)"},
				{lz, "Lz"},
				{e, "energy"},
			} {
				fmt.Println(asciigraph.Plot(finite(g.data),
					asciigraph.Height(10),
					asciigraph.Width(80),
					asciigraph.Caption(g.caption)))
				fmt.Println()
			}

			if view != "" || svgOut != "" {
				if view == "" {
					view = "x-y"
				}
				v, err := viz.ParseView(view)
				if err != nil {
					return err
				}
				canvas := viz.RenderTrack(states, v, 60, 24)
				fmt.Printf("orbit (%s):\n%s\n", v, canvas)
				if svgOut != "" {
					if err := os.WriteFile(svgOut, []byte(export.CanvasToSVG(canvas, 6)), 0o644); err != nil {
						return err
					}
					fmt.Printf("wrote %s\n", svgOut)
				}
			}

			if section {
				fmt.Println("meridional plane (R, z):")
				fmt.Println(analysis.Scatter(analysis.Meridional(states), 80, 24))
				if pts := analysis.SurfaceOfSection(states); len(pts) > 0 {
					fmt.Printf("surface of section z=0, vz>0 (R, vR), %d crossings:\n", len(pts))
					fmt.Println(analysis.Scatter(pts, 80, 24))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&section, "section", false, "also draw the meridional track and surface of section")
	cmd.Flags().StringVar(&view, "view", "", "also draw the track in this view (x-y, x-z, R-z, 3d)")
	cmd.Flags().StringVar(&svgOut, "svg", "", "save the drawn track as SVG")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var (
		lyapunov bool
		lyapTime float64
	)
	cmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "radial frequency and orbit diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, exp, states, times, err := loadRun(args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "run\t%s\n", meta.ID)
			fmt.Fprintf(w, "samples\t%d over t=%.4g\n", len(states), times[len(times)-1]-times[0])

			meanR := 0.0
			for _, x := range states {
				meanR += orbit.ToCylindrical(x).R
			}
			meanR /= float64(len(states))
			omega, kappa, nu := analysis.Frequencies(exp.Potentials(), meanR)
			fmt.Fprintf(w, "mean R\t%.6g\n", meanR)
			fmt.Fprintf(w, "Omega(mean R)\t%.6g\n", omega)
			fmt.Fprintf(w, "kappa(mean R)\t%.6g\n", kappa)
			fmt.Fprintf(w, "nu(mean R)\t%.6g\n", nu)

			fr, err := analysis.RadialFrequency(times, states)
			switch {
			case errors.Is(err, analysis.ErrTooShort):
				fmt.Fprintf(w, "radial frequency\t(too few samples)\n")
			case err != nil:
				return err
			default:
				fmt.Fprintf(w, "radial frequency\t%.6g (period %.4g)\n", fr, 2*math.Pi/fr)
				if kappa > 0 {
					fmt.Fprintf(w, "freq / kappa\t%.4f\n", fr/kappa)
				}
			}
			fmt.Fprintf(w, "z=0 crossings\t%d\n", len(analysis.SurfaceOfSection(states)))

			if lyapunov {
				lambda := analysis.LyapunovExponent(exp.System(), exp.Integrator(), exp.InitialState(),
					0, exp.Config().Dt, lyapTime, 1e-8)
				fmt.Fprintf(w, "lyapunov\t%.4g\n", lambda)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Println("\nstored metrics:")
			printMetrics(os.Stdout, meta.Metrics)
			return nil
		},
	}
	cmd.Flags().BoolVar(&lyapunov, "lyapunov", false, "estimate the largest Lyapunov exponent")
	cmd.Flags().Float64Var(&lyapTime, "lyapunov-time", 100, "integration time for the Lyapunov estimate")
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		format string
		out    string
		view   string
		size   int
	)
	cmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON, CSV or an SVG orbit plot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var w io.Writer = os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			st := storage.New(dataDir)
			switch strings.ToLower(format) {
			case "json":
				return st.Export(w, args[0])
			case "csv":
				states, times, err := st.LoadStates(args[0])
				if err != nil {
					return err
				}
				return storage.WriteCSV(w, &dynamo.Result{States: states, Times: times})
			case "svg":
				states, _, err := st.LoadStates(args[0])
				if err != nil {
					return err
				}
				svg, err := export.TrajectorySVG(states, view, size, size)
				if err != nil {
					return err
				}
				_, err = io.WriteString(w, svg)
				return err
			default:
				return fmt.Errorf("unknown format %q (json, csv, svg)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json, csv or svg")
	cmd.Flags().StringVar(&view, "view", "x-y", "svg projection: x-y, x-z, R-z or section")
	cmd.Flags().IntVar(&size, "size", 600, "svg width and height in pixels")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newSweepCmd() *cobra.Command {
	var (
		rf       runFlags
		grid     []string
		metric   string
		maximize bool
		workers  int
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search over config parameters",
		Long: "Runs one orbit per grid node, in parallel. Each --grid is name=values where\n" +
			"values is start:stop:n or a comma list, e.g. --grid friction.gms=0.01:0.1:5.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rf.load(cmd)
			if err != nil {
				return err
			}
			if len(grid) == 0 {
				grid = []string{"friction.gms=0.01:0.1:5"}
			}

			names := make([]string, len(grid))
			ranges := make([][]float64, len(grid))
			for i, g := range grid {
				name, values, ok := strings.Cut(g, "=")
				if !ok {
					return fmt.Errorf("bad grid %q, want name=values", g)
				}
				names[i] = strings.TrimSpace(name)
				if ranges[i], err = optim.ParseRange(values); err != nil {
					return err
				}
			}

			gs := optim.NewGridSearch(names, ranges)
			gs.Maximize = maximize
			gs.Workers = workers

			ctx, cancel := signalContext()
			defer cancel()
			fmt.Printf("sweeping %d nodes on %s...\n\n", gs.Size(), metric)
			best, points, err := gs.Search(ctx, cfg, registry.New(), metric)
			if err != nil && !errors.Is(err, optim.ErrNoResult) {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(metric))
			for _, p := range points {
				for _, n := range names {
					fmt.Fprintf(w, "%g\t", p.Params[n])
				}
				if p.Err != nil {
					fmt.Fprintf(w, "error: %v\n", p.Err)
				} else {
					fmt.Fprintf(w, "%.6g\n", p.Value)
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if best.Params != nil {
				fmt.Printf("\nbest: %s = %.6g\n", formatParams(best.Params), best.Value)
			}
			return err
		},
	}
	rf.register(cmd)
	cmd.Flags().StringArrayVar(&grid, "grid", nil, "parameter grid name=values (repeatable)")
	cmd.Flags().StringVar(&metric, "metric", optim.FinalRadius, "metric to optimise")
	cmd.Flags().BoolVar(&maximize, "maximize", false, "pick the largest metric instead of the smallest")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (0 = GOMAXPROCS)")
	return cmd
}

func newLiveCmd() *cobra.Command {
	var rf runFlags
	cmd := &cobra.Command{
		Use:   "live",
		Short: "integrate an orbit with a live terminal view",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rf.load(cmd)
			if err != nil {
				return err
			}
			exp, err := experiment.New(cfg, registry.New())
			if err != nil {
				return err
			}
			return viz.Run(viz.NewModel(exp))
		},
	}
	rf.register(cmd)
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list built-in presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\n", name, p.Description)
			}
			return w.Flush()
		},
	}
}
