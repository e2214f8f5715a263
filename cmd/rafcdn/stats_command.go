package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show upload counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, err := ctx.loadTracker(cmd.Context(), true)
			if tracker == nil {
				return err
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Server history unavailable: %v\n", err)
			}
			stats := tracker.Stats()
			if jsonOutput {
				return encodeJSON(cmd.OutOrStdout(), stats)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{{title: "Status"}, {title: "Count", align: alignRight}},
				[][]string{
					{"Total", fmt.Sprint(stats.Total)},
					{"Completed", fmt.Sprint(stats.Completed)},
					{"Processing", fmt.Sprint(stats.Processing)},
					{"Failed", fmt.Sprint(stats.Failed)},
				},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")
	return cmd
}
