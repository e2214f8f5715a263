package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rafcdn/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOutput bool
		offline    bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show local uploads merged with server history",
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, err := ctx.loadTracker(cmd.Context(), !offline)
			if tracker == nil {
				return err
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Server history unavailable: %v\n", err)
			}
			return printView(cmd.OutOrStdout(), tracker.View(), jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the server history request")
	cmd.AddCommand(newHistoryClearCommand(ctx))
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget locally journaled uploads",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJournal(func(store *journal.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d journaled uploads\n", removed)
				return nil
			})
		},
	}
}
