package dashboard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"rafcdn/internal/uploads"
)

type listerStub struct {
	records []uploads.Record
	err     error
}

func (l *listerStub) List(context.Context) ([]uploads.Record, error) {
	return l.records, l.err
}

type historyStub struct {
	calls   atomic.Int32
	records []uploads.ServerRecord
}

func (h *historyStub) History(context.Context) ([]uploads.ServerRecord, error) {
	h.calls.Add(1)
	return h.records, nil
}

func TestPollerRefreshRestoresAndReloads(t *testing.T) {
	history := &historyStub{records: []uploads.ServerRecord{{Name: "srv.mp4", Timestamp: "2024-01-01T00:00:00.000Z"}}}
	tracker := uploads.NewTracker(uploads.Options{History: history})
	journal := &listerStub{records: []uploads.Record{
		{ID: "l1", Name: "local.mp4", Status: uploads.StatusFailed, Timestamp: "2024-02-01T00:00:00.000Z", Origin: uploads.OriginLocal},
	}}

	NewPoller(tracker, journal, time.Minute, nil).Refresh(context.Background())

	view := tracker.View()
	if len(view.Records) != 2 {
		t.Fatalf("expected 2 records, got %+v", view.Records)
	}
	if view.Records[0].ID != "l1" {
		t.Fatalf("expected local record first, got %+v", view.Records)
	}
	if history.calls.Load() != 1 {
		t.Fatalf("expected one history call, got %d", history.calls.Load())
	}
}

func TestPollerSurvivesJournalErrors(t *testing.T) {
	history := &historyStub{}
	tracker := uploads.NewTracker(uploads.Options{History: history})
	NewPoller(tracker, &listerStub{err: errors.New("locked")}, time.Minute, nil).Refresh(context.Background())
	if history.calls.Load() != 1 {
		t.Fatal("history should still be reloaded after a journal error")
	}
}

func TestPollerRunTicks(t *testing.T) {
	history := &historyStub{}
	tracker := uploads.NewTracker(uploads.Options{History: history})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewPoller(tracker, nil, 10*time.Millisecond, nil).Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for history.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected repeated refreshes, got %d", history.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}
