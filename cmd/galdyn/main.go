package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/galdyn/internal/config"
)

var (
	dataDir  string
	verbose  bool
	logLevel string
)

// runFlags are shared by the commands that build an experiment.
type runFlags struct {
	configFile string
	preset     string
	integrator string
	dt         float64
	duration   float64
	adaptive   bool
	tolerance  float64
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&f.preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&f.integrator, "integrator", config.DefaultIntegrator, "integrator")
	cmd.Flags().Float64Var(&f.dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&f.duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().BoolVar(&f.adaptive, "adaptive", false, "error-controlled steps (rk45)")
	cmd.Flags().Float64Var(&f.tolerance, "tol", config.DefaultTolerance, "adaptive step tolerance")
}

// load resolves the config from --config or --preset (defaults otherwise)
// and lets explicitly set flags override it.
func (f *runFlags) load(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case f.configFile != "":
		var err error
		cfg, err = config.Load(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	case f.preset != "":
		cfg = config.GetPreset(f.preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", f.preset, config.ListPresets())
		}
	default:
		cfg = config.DefaultConfig()
	}

	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Integrator = f.integrator
	}
	if flags.Changed("dt") {
		cfg.Dt = f.dt
	}
	if flags.Changed("time") {
		cfg.Duration = f.duration
	}
	if flags.Changed("adaptive") {
		cfg.Adaptive = f.adaptive
	}
	if flags.Changed("tol") {
		cfg.Tolerance = f.tolerance
	}
	return cfg, nil
}

// parseParams turns "k=v" pairs into a parameter map.
func parseParams(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("bad parameter %q, want name=value", p)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("bad parameter %q: %w", p, err)
		}
		out[strings.TrimSpace(k)] = f
	}
	return out, nil
}

func setupLogging() error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	if logLevel != "" {
		if err := level.UnmarshalText([]byte(logLevel)); err != nil {
			return fmt.Errorf("bad --log-level: %w", err)
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "galdyn",
		Short:         "galactic orbit integration with dynamical friction",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".galdyn", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newModelsCmd(),
		newEvalCmd(),
		newCurveCmd(),
		newFrictionCmd(),
		newProfileCmd(),
		newRunCmd(),
		newListCmd(),
		newPlotCmd(),
		newAnalyzeCmd(),
		newExportCmd(),
		newSweepCmd(),
		newScenarioCmd(),
		newMonteCarloCmd(),
		newLiveCmd(),
		newPresetsCmd(),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
