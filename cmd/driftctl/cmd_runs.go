package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored batches, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 {
				return errors.New("limit must be > 0")
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

			batches, err := client.Batches(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(batches)
			}
			if len(batches) == 0 {
				fmt.Fprintln(out, "no batches found")
				return nil
			}
			for _, b := range batches {
				fixed := "n/a"
				if b.PercentFixed != nil {
					fixed = fmt.Sprintf("%.1f%%", *b.PercentFixed)
				}
				gens := "fixation"
				if b.FixedNumberOfGenerations > 0 {
					gens = humanize.Comma(int64(b.FixedNumberOfGenerations))
				}
				fmt.Fprintf(out, "batch_id=%s created=%q species=%q pop=%s runs=%s gens=%s seed=%d fixed=%s\n",
					b.BatchID,
					humanize.Time(b.CreatedAt),
					b.SpeciesName,
					humanize.Comma(int64(b.PopulationSize)),
					humanize.Comma(int64(b.NumberOfRuns)),
					gens,
					b.Seed,
					fixed,
				)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "max batches to list")
	return cmd
}
