package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"rafcdn/internal/dashboard"
	"rafcdn/internal/journal"
	"rafcdn/internal/logging"
	"rafcdn/internal/messages"
	"rafcdn/internal/uploads"
)

func newDashboardCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the upload dashboard API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sess, err := ctx.requireSession()
			if err != nil {
				return err
			}
			logger := ctx.log()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := journal.Open(cfg)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			// Close out records from a crashed uploader, but only when no
			// uploader currently holds the lock.
			lock := flock.New(cfg.LockPath())
			if locked, err := lock.TryLock(); err == nil && locked {
				if n, err := store.FailInterrupted(runCtx); err == nil && n > 0 {
					logger.Info("marked interrupted uploads as failed", logging.Int64("count", n))
				}
				_ = lock.Unlock()
			}

			board := messages.NewBoard(messages.WithTTL(
				cfg.MessageTTL(string(messages.KindInfo)),
				cfg.MessageTTL(string(messages.KindSuccess)),
			))
			tracker := uploads.NewTracker(uploads.Options{
				History:  ctx.backendClient(sess),
				Messages: board,
				Logger:   logger,
			})

			if bind == "" {
				bind = cfg.Dashboard.Bind
			}
			srv, err := dashboard.NewServer(dashboard.Options{
				Bind:     bind,
				Token:    cfg.Dashboard.Token,
				Username: sess.Username,
				Views:    tracker,
				Board:    board,
				Logger:   logger,
			})
			if err != nil {
				return err
			}
			if err := srv.Start(runCtx); err != nil {
				return err
			}
			board.Post(messages.Info(dashboard.WelcomeMessage))
			fmt.Fprintf(cmd.OutOrStdout(), "Dashboard listening on http://%s\n", srv.Addr())

			dashboard.NewPoller(tracker, store, cfg.PollInterval(), logger).Run(runCtx)
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides dashboard.bind)")
	return cmd
}
