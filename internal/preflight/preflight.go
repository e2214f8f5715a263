package preflight

import (
	"context"
	"log/slog"

	"rafcdn/internal/backend"
	"rafcdn/internal/config"
	"rafcdn/internal/session"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every readiness check for the given config. The backend
// is only probed when a session is available to authenticate with.
func RunAll(ctx context.Context, cfg *config.Config, logger *slog.Logger) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckJournal(ctx, cfg.JournalPath()),
	}

	store := session.NewStore(cfg.SessionPath())
	sessionResult := CheckSession(store)
	results = append(results, sessionResult)

	if sessionResult.Passed {
		sess, _ := store.Load()
		client := backend.NewFromConfig(cfg, sess.ID, logger)
		results = append(results, CheckBackend(ctx, client, cfg.Backend.BaseURL))
	} else {
		results = append(results, Result{Name: "Backend", Detail: "skipped (no session)"})
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
