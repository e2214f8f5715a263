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

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"rafcdn/internal/config"
	"rafcdn/internal/journal"
	"rafcdn/internal/logging"
	"rafcdn/internal/messages"
	"rafcdn/internal/notifications"
	"rafcdn/internal/session"
	"rafcdn/internal/uploads"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload one or more video files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sess, err := ctx.requireSession()
			if err != nil {
				return err
			}

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire upload lock: %w", err)
			}
			if !locked {
				return errors.New("another rafcdn upload is already running")
			}
			defer func() { _ = lock.Unlock() }()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := journal.Open(cfg)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			return runUpload(runCtx, cmd, ctx, cfg, store, sess, args, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the final list as JSON")
	return cmd
}

func runUpload(ctx context.Context, cmd *cobra.Command, cc *commandContext, cfg *config.Config, store *journal.Store, sess session.Session, paths []string, jsonOutput bool) error {
	logger := cc.log()

	// The lock is held, so anything still uploading belongs to a dead process.
	if n, err := store.FailInterrupted(ctx); err != nil {
		return err
	} else if n > 0 {
		logger.Info("marked interrupted uploads as failed", logging.Int64("count", n))
	}
	previous, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	progress := newProgressDisplay(cmd.ErrOrStderr())
	console := messages.NewConsoleSink(cmd.OutOrStdout())
	console.BeforeWrite = progress.Clear

	notifier := notifications.NewService(cfg)
	pushes := notifications.NewMessageSink(notifier, notifications.Toggles{
		Success: cfg.Notifications.UploadCompleted,
		Error:   cfg.Notifications.UploadFailed,
	}, time.Duration(cfg.Notifications.RequestTimeout)*time.Second, logger)
	defer pushes.Wait()

	client := cc.backendClient(sess)
	tracker := uploads.NewTracker(uploads.Options{
		Transport: client,
		History:   client,
		Journal:   store,
		Messages:  messages.Fanout{console, pushes},
		Limits: uploads.Limits{
			MaxSize:    cfg.Upload.MaxSizeBytes,
			TypePrefix: cfg.Upload.TypePrefix,
		},
		Logger: logger,
	})
	tracker.Restore(previous)
	tracker.OnChange(progress.Update)

	var (
		files      []uploads.File
		unreadable int
	)
	for _, path := range paths {
		file, err := uploads.OpenLocalFile(path)
		if err != nil {
			unreadable++
			console.Post(messages.Error(fmt.Sprintf("Cannot read %s", filepath.Base(path))))
			logger.Debug("open upload file failed", logging.String("path", path), logging.Error(err))
			continue
		}
		files = append(files, file)
	}

	started := time.Now()
	result := tracker.SubmitFiles(ctx, files)
	progress.Clear()

	if cfg.Notifications.Batch && len(paths) > 1 {
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		if err := notifier.NotifyBatchCompleted(notifyCtx, result.Completed, result.Failed, result.Rejected+unreadable, time.Since(started)); err != nil {
			logging.WarnWithContext(logger, "batch notification failed", "ntfy_send_failed",
				"check notifications.ntfy_topic and network access",
				logging.Error(err),
			)
		}
		cancel()
	}

	if err := printView(cmd.OutOrStdout(), tracker.View(), jsonOutput); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if !result.OK() || unreadable > 0 {
		return fmt.Errorf("%d of %d files uploaded", result.Completed, len(paths))
	}
	return nil
}
