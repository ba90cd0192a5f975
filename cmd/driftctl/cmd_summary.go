package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"driftsim/internal/stats"
	driftapi "driftsim/pkg/driftsim"
)

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the statistics report of a stored batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			batchID, latest, err := batchSelection(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := openClient(cmd, cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			summary, err := client.Summary(cmd.Context(), driftapi.BatchRequest{BatchID: batchID, Latest: latest})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			fmt.Fprintf(out, "batch_id=%s\n\n", summary.BatchID)
			return stats.WriteSummary(out, summary)
		},
	}
	addBatchFlags(cmd)
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Rewrite the frequency tables and statistics of a stored batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			batchID, latest, err := batchSelection(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := openClient(cmd, cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			outDir, _ := cmd.Flags().GetString("out")
			exported, err := client.Export(cmd.Context(), driftapi.ExportRequest{
				BatchID: batchID,
				Latest:  latest,
				OutDir:  outDir,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported batch_id=%s dir=%s\n", exported.BatchID, exported.Directory)
			return nil
		},
	}
	addBatchFlags(cmd)
	cmd.Flags().String("out", "", "export directory (default exports/<batch id>)")
	return cmd
}

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Chart the mean allele trajectory of a stored batch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			batchID, latest, err := batchSelection(cmd)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := openClient(cmd, cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			outPath, _ := cmd.Flags().GetString("out")
			plotted, err := client.Plot(cmd.Context(), driftapi.PlotRequest{
				BatchID: batchID,
				Latest:  latest,
				OutPath: outPath,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "plotted batch_id=%s generations=%d path=%s\n", plotted.BatchID, plotted.Generations, plotted.Path)
			return nil
		},
	}
	addBatchFlags(cmd)
	cmd.Flags().String("out", "", "output image path (.png or .svg)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
