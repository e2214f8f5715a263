package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"rafcdn/internal/backend"
	"rafcdn/internal/config"
	"rafcdn/internal/journal"
	"rafcdn/internal/logging"
	"rafcdn/internal/session"
	"rafcdn/internal/uploads"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.verbose != nil && *c.verbose {
			cfg.Logging.Level = "debug"
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// log returns the process logger, tagged with a run id so one invocation's
// lines can be grouped in the log file.
func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.configValue(), uuid.NewString())
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) sessionStore() (*session.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return session.NewStore(cfg.SessionPath()), nil
}

// requireSession loads the active session or explains how to create one.
func (c *commandContext) requireSession() (session.Session, error) {
	store, err := c.sessionStore()
	if err != nil {
		return session.Session{}, err
	}
	sess, err := store.Load()
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return session.Session{}, fmt.Errorf("not signed in: run 'rafcdn session set --id <session id>' or export %s", session.EnvSessionID)
		}
		return session.Session{}, err
	}
	return sess, nil
}

func (c *commandContext) backendClient(sess session.Session) *backend.Client {
	return backend.NewFromConfig(c.configValue(), sess.ID, c.log())
}

func (c *commandContext) withJournal(fn func(*journal.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := journal.Open(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// loadTracker builds a read-side tracker seeded from the journal and,
// when reload is set, the server history.
func (c *commandContext) loadTracker(ctx context.Context, reload bool) (*uploads.Tracker, error) {
	sess, err := c.requireSession()
	if err != nil {
		return nil, err
	}
	client := c.backendClient(sess)
	tracker := uploads.NewTracker(uploads.Options{
		History: client,
		Logger:  c.log(),
	})
	if err := c.withJournal(func(store *journal.Store) error {
		records, err := store.List(ctx)
		if err != nil {
			return err
		}
		tracker.Restore(records)
		return nil
	}); err != nil {
		return nil, err
	}
	if reload {
		if err := tracker.ReloadHistory(ctx); err != nil {
			return tracker, err
		}
	}
	return tracker, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
