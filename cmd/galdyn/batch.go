package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/galdyn/internal/automation"
	"github.com/san-kum/galdyn/internal/optim"
	"github.com/san-kum/galdyn/internal/registry"
	"github.com/san-kum/galdyn/internal/storage"
)

func newScenarioCmd() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the steps of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))
			results, runErr := automation.RunScenario(ctx, sc, registry.New())

			var st *storage.Store
			if save {
				st = storage.New(dataDir)
				if err := st.Init(); err != nil {
					return err
				}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tNAME\tFINAL R\tLZ LOSS\tENERGY DRIFT\tRUN ID")
			for i, r := range results {
				id := "-"
				if st != nil {
					if id, err = st.Save(r.Config, r.Result); err != nil {
						return err
					}
				}
				finalR, _ := optim.MetricValue(r.Result, optim.FinalRadius)
				fmt.Fprintf(w, "%d\t%s\t%.4g\t%.4g\t%.3e\t%s\n", i+1, r.Config.Name,
					finalR, r.Result.Metrics["lz_loss"], r.Result.EnergyDrift, id)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "store every step as a run")
	return cmd
}

func newMonteCarloCmd() *cobra.Command {
	var (
		rf     runFlags
		mc     automation.MonteCarloConfig
		detail bool
	)
	cmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "perturb the initial orbit and count bound and sunk trials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rf.load(cmd)
			if err != nil {
				return err
			}
			mc.Base = cfg

			ctx, cancel := signalContext()
			defer cancel()
			fmt.Printf("running %d trials (perturbation %g)...\n", mc.NumTrials, mc.Perturbation)
			results, err := automation.RunMonteCarlo(ctx, &mc, registry.New())
			if err != nil {
				return err
			}

			if detail {
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TRIAL\tR\tVT\tBOUND\tSUNK\tLZ LOSS")
				for _, r := range results {
					fmt.Fprintf(w, "%d\t%.4g\t%.4g\t%t\t%t\t%.4g\n",
						r.TrialID, r.Orbit.R, r.Orbit.VT, r.Bound, r.Sunk, r.LzLoss)
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}

			bound, sunk := automation.MonteCarloStats(results)
			n := float64(len(results))
			fmt.Printf("\nbound: %d/%d (%.1f%%)\n", bound, len(results), 100*float64(bound)/n)
			fmt.Printf("sunk:  %d/%d (%.1f%%)\n", sunk, len(results), 100*float64(sunk)/n)
			return nil
		},
	}
	rf.register(cmd)
	cmd.Flags().IntVarP(&mc.NumTrials, "trials", "n", 50, "number of trials")
	cmd.Flags().Float64Var(&mc.Perturbation, "perturbation", 0.05, "relative perturbation of R and velocities")
	cmd.Flags().Float64Var(&mc.EscapeRadius, "escape", 0, "escape radius (0 = 10x the starting radius)")
	cmd.Flags().Int64Var(&mc.Seed, "seed", 0, "random seed (0 = time based)")
	cmd.Flags().IntVar(&mc.Workers, "workers", 0, "parallel runs (0 = GOMAXPROCS)")
	cmd.Flags().BoolVar(&detail, "detail", false, "print every trial")
	return cmd
}
