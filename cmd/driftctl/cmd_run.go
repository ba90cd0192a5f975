package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"driftsim/internal/stats"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a batch of drift simulations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("pop") {
				cfg.PopulationSize, _ = flags.GetInt("pop")
			}
			if flags.Changed("runs") {
				cfg.NumberOfRuns, _ = flags.GetInt("runs")
			}
			if flags.Changed("gens") {
				cfg.FixedNumberOfGenerations, _ = flags.GetInt("gens")
			}
			if flags.Changed("seed") {
				cfg.Seed, _ = flags.GetInt64("seed")
			}
			if flags.Changed("workers") {
				cfg.Workers, _ = flags.GetInt("workers")
			}
			if flags.Changed("out") {
				cfg.OutputDir, _ = flags.GetString("out")
			}
			if flags.Changed("plot") {
				cfg.Plot, _ = flags.GetBool("plot")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			client, err := openClient(cmd, cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"batch_id":        summary.BatchID,
					"output_dir":      summary.OutputDir,
					"statistics_path": summary.StatisticsPath,
					"plot_path":       summary.PlotPath,
					"summary":         summary.Summary,
				})
			}
			if err := stats.WriteSummary(out, summary.Summary); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nbatch_id=%s output_dir=%s\n", summary.BatchID, summary.OutputDir)
			if summary.PlotPath != "" {
				fmt.Fprintf(out, "plot=%s\n", summary.PlotPath)
			}
			return nil
		},
	}

	cmd.Flags().Int("pop", 0, "population size")
	cmd.Flags().Int("runs", 0, "number of independent runs")
	cmd.Flags().Int("gens", 0, "fixed number of generations (0 runs until fixation)")
	cmd.Flags().Int64("seed", 0, "base random seed; run i uses seed+i")
	cmd.Flags().Int("workers", 0, "parallel runs (0 or 1 runs sequentially)")
	cmd.Flags().String("out", "", "output directory for frequency tables and statistics")
	cmd.Flags().Bool("plot", false, "also chart the mean allele trajectory")
	return cmd
}
