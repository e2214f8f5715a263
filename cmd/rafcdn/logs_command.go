package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rafcdn/internal/logging"
	"rafcdn/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		raw    bool
		filter logs.Filter
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			out := cmd.OutOrStdout()

			emit := func(batch []string) {
				for _, line := range batch {
					entry, ok := logs.ParseEntry(line)
					if !ok || !filter.Matches(entry) {
						continue
					}
					if raw {
						fmt.Fprintln(out, line)
					} else {
						fmt.Fprintln(out, logs.Format(entry))
					}
				}
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := logs.Tail(runCtx, path, logs.TailOptions{Offset: -1, Limit: lines})
			if err != nil {
				return err
			}
			emit(result.Lines)

			for follow {
				result, err = logs.Tail(runCtx, path, logs.TailOptions{
					Offset: result.Offset,
					Follow: true,
					Wait:   time.Minute,
				})
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				emit(result.Lines)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of recent lines to scan")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new entries")
	cmd.Flags().BoolVar(&raw, "json", false, "Print raw JSON lines")
	cmd.Flags().StringVar(&filter.UploadID, "upload", "", "Only entries for this upload id")
	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only entries from this run id")
	cmd.Flags().StringVar(&filter.Component, "component", "", "Only entries from this component")
	cmd.Flags().StringVar(&filter.MinLevel, "level", "", "Minimum level (debug, info, warn, error)")
	return cmd
}
