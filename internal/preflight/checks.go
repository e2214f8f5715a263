package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"golang.org/x/sys/unix"

	"rafcdn/internal/journal"
	"rafcdn/internal/session"
)

// Pinger reports the HTTP status the backend answers with.
type Pinger interface {
	Ping(ctx context.Context) (int, error)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSession verifies a usable session is stored or supplied by the environment.
func CheckSession(store *session.Store) Result {
	const name = "Session"

	sess, err := store.Load()
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return Result{Name: name, Detail: "not signed in (run 'rafcdn session set')"}
		}
		return Result{Name: name, Detail: err.Error()}
	}
	who := sess.Username
	if who == "" {
		who = "unknown user"
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", who, sess.Role)}
}

// CheckJournal verifies the upload journal opens and passes integrity checks.
// A journal that has not been created yet passes.
func CheckJournal(ctx context.Context, path string) Result {
	const name = "Upload journal"

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: "not created yet"}
	}
	store, err := journal.OpenPath(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer store.Close()

	health, err := store.CheckHealth(ctx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if !health.Healthy() {
		if len(health.MissingColumns) > 0 {
			return Result{Name: name, Detail: fmt.Sprintf("missing columns %v", health.MissingColumns)}
		}
		return Result{Name: name, Detail: "integrity check failed"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (schema v%d)", path, health.SchemaVersion)}
}

// CheckBackend verifies the upload backend answers and accepts the session.
func CheckBackend(ctx context.Context, pinger Pinger, baseURL string) Result {
	const name = "Backend"

	status, err := pinger.Ping(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s unreachable (%s)", baseURL, summarizeNetError(err))}
	}
	switch {
	case status >= 200 && status < 300:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", baseURL)}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return Result{Name: name, Detail: fmt.Sprintf("%s rejected the session (%d)", baseURL, status)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("%s answered %d", baseURL, status)}
	}
}

func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out"
	}
	return err.Error()
}
