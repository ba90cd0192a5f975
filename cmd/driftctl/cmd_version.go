package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				_ = json.NewEncoder(out).Encode(map[string]string{"version": version})
				return
			}
			fmt.Fprintf(out, "driftctl version %s\n", version)
		},
	}
}
