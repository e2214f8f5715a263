package dashboard

import (
	"context"
	"log/slog"
	"time"

	"rafcdn/internal/logging"
	"rafcdn/internal/uploads"
)

// RecordLister yields persisted local records.
type RecordLister interface {
	List(ctx context.Context) ([]uploads.Record, error)
}

// Refresher is the slice of the tracker the poller drives.
type Refresher interface {
	Restore(records []uploads.Record) int
	ReloadHistory(ctx context.Context) error
}

// Poller keeps the tracker in step with the journal and server history.
type Poller struct {
	tracker  Refresher
	journal  RecordLister
	interval time.Duration
	logger   *slog.Logger
}

func NewPoller(tracker Refresher, journal RecordLister, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		tracker:  tracker,
		journal:  journal,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "dashboard-poller"),
	}
}

// Refresh restores journaled records and reloads history once.
func (p *Poller) Refresh(ctx context.Context) {
	if p.journal != nil {
		records, err := p.journal.List(ctx)
		if err != nil {
			logging.WarnWithContext(p.logger, "journal read failed", "journal_read_failed",
				"check the state directory permissions",
				logging.Error(err),
			)
		} else if added := p.tracker.Restore(records); added > 0 {
			p.logger.Debug("restored journal records", logging.Int("added", added))
		}
	}
	// ReloadHistory logs its own failures.
	_ = p.tracker.ReloadHistory(ctx)
}

// Run refreshes immediately and then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	p.Refresh(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}
