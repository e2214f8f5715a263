package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"rafcdn/internal/messages"
	"rafcdn/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify directories, session, journal and backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := messages.ShouldColorize(out)
			results := preflight.RunAll(cmd.Context(), cfg, ctx.log())
			for _, r := range results {
				fmt.Fprintln(out, renderCheckLine(r.Name, r.Passed, r.Detail, colorize))
			}
			if !preflight.AllPassed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}
