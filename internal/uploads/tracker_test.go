package uploads_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rafcdn/internal/messages"
	"rafcdn/internal/uploads"
)

type harness struct {
	tracker   *uploads.Tracker
	transport *scriptedTransport
	history   *staticHistory
	journal   *memJournal
	recorder  *messages.Recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		transport: newScriptedTransport(),
		history:   &staticHistory{},
		journal:   &memJournal{},
		recorder:  &messages.Recorder{},
	}
	h.tracker = uploads.NewTracker(uploads.Options{
		Transport: h.transport,
		History:   h.history,
		Journal:   h.journal,
		Messages:  h.recorder,
		Now:       newStepClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)).Now,
		NewID:     sequentialIDs(),
	})
	return h
}

func TestSubmitFilesRejectsNonVideo(t *testing.T) {
	h := newHarness(t)

	result := h.tracker.SubmitFiles(context.Background(), []uploads.File{
		memFile{name: "notes.txt", size: 10, contentType: "text/plain"},
		memFile{name: "photo.png", size: 10, contentType: "image/png"},
	})

	if got := len(h.tracker.View().Records); got != 0 {
		t.Fatalf("expected no records, got %d", got)
	}
	errs := h.recorder.OfKind(messages.KindError)
	want := []string{"notes.txt is not a video file", "photo.png is not a video file"}
	if len(errs) != len(want) {
		t.Fatalf("expected %d error messages, got %v", len(want), errs)
	}
	for i := range want {
		if errs[i] != want[i] {
			t.Fatalf("message %d = %q, want %q", i, errs[i], want[i])
		}
	}
	if result.Rejected != 2 || result.Accepted != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !errors.Is(result.Rejections[0].Err, uploads.ErrNotVideo) {
		t.Fatalf("expected ErrNotVideo, got %v", result.Rejections[0].Err)
	}
	if len(h.transport.Requests()) != 0 {
		t.Fatal("expected no transfers")
	}
	if h.history.calls != 0 {
		t.Fatal("expected no history reload when nothing was valid")
	}
}

func TestSubmitFilesRejectsOversizedFile(t *testing.T) {
	h := newHarness(t)

	result := h.tracker.SubmitFiles(context.Background(), []uploads.File{
		memFile{name: "huge.mov", size: 600_000_000, contentType: "video/quicktime"},
	})

	if got := len(h.tracker.View().Records); got != 0 {
		t.Fatalf("expected no records, got %d", got)
	}
	errs := h.recorder.OfKind(messages.KindError)
	if len(errs) != 1 || errs[0] != "huge.mov is too large (max 500MB)" {
		t.Fatalf("unexpected messages: %v", errs)
	}
	if !errors.Is(result.Rejections[0].Err, uploads.ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", result.Rejections[0].Err)
	}
}

func TestSubmitFilesAcceptsExactLimit(t *testing.T) {
	h := newHarness(t)

	result := h.tracker.SubmitFiles(context.Background(), []uploads.File{
		video("edge.mp4", uploads.DefaultMaxSize),
	})
	if result.Accepted != 1 || result.Completed != 1 {
		t.Fatalf("expected file at the limit to upload, got %+v", result)
	}
}

func TestSubmitFilesCreatesOneRecordPerValidFile(t *testing.T) {
	h := newHarness(t)

	var mu sync.Mutex
	var initial []uploads.Record
	h.transport.onUpload = func(req uploads.UploadRequest) {
		rec, ok := h.tracker.Record(req.ID)
		if !ok {
			t.Errorf("record %s missing before transfer", req.ID)
			return
		}
		mu.Lock()
		initial = append(initial, rec)
		mu.Unlock()
	}

	files := []uploads.File{video("a.mp4", 100), video("b.mp4", 200), video("c.mp4", 300)}
	result := h.tracker.SubmitFiles(context.Background(), files)

	view := h.tracker.View()
	if len(view.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(view.Records))
	}
	if len(initial) != 3 {
		t.Fatalf("expected 3 records observed before transfer, got %d", len(initial))
	}
	for _, rec := range initial {
		if rec.Status != uploads.StatusUploading || rec.Progress != 0 {
			t.Fatalf("expected record initialised uploading/0, got %+v", rec)
		}
		if rec.Origin != uploads.OriginLocal {
			t.Fatalf("expected local origin, got %q", rec.Origin)
		}
	}
	if result.Completed != 3 || !result.OK() {
		t.Fatalf("unexpected batch result: %+v", result)
	}
	if h.history.calls != 1 {
		t.Fatalf("expected one history reload after the batch, got %d", h.history.calls)
	}
}

func TestSubmitFilesUploadsSequentially(t *testing.T) {
	h := newHarness(t)

	var order []string
	h.transport.onUpload = func(req uploads.UploadRequest) {
		for _, rec := range h.tracker.View().Records {
			if rec.Status == uploads.StatusUploading && rec.ID != req.ID {
				t.Errorf("record %s still uploading when %s started", rec.Name, req.Name)
			}
		}
		order = append(order, req.Name)
	}

	h.tracker.SubmitFiles(context.Background(), []uploads.File{
		video("first.mp4", 10),
		memFile{name: "skip.txt", size: 1, contentType: "text/plain"},
		video("second.mp4", 10),
	})

	if len(order) != 2 || order[0] != "first.mp4" || order[1] != "second.mp4" {
		t.Fatalf("unexpected upload order: %v", order)
	}
}

func TestScenarioSuccessfulUpload(t *testing.T) {
	h := newHarness(t)
	h.transport.script("clip.mp4",
		uploads.TransferEvent{Loaded: 25, Total: 100},
		uploads.TransferEvent{Loaded: 100, Total: 100},
		uploads.TransferEvent{Done: true},
	)

	var indicators []uploads.Indicator
	h.tracker.OnChange(func(v uploads.View) { indicators = append(indicators, v.Indicator) })

	h.tracker.SubmitFiles(context.Background(), []uploads.File{video("clip.mp4", 100)})

	view := h.tracker.View()
	if len(view.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(view.Records))
	}
	rec := view.Records[0]
	if rec.Status != uploads.StatusCompleted {
		t.Fatalf("expected completed, got %q", rec.Status)
	}
	if rec.Size == nil || *rec.Size != 100 {
		t.Fatalf("unexpected size: %v", rec.Size)
	}
	if rec.Timestamp != "2026-03-01T12:00:00.000Z" {
		t.Fatalf("unexpected timestamp: %q", rec.Timestamp)
	}
	want := uploads.Stats{Total: 1, Completed: 1, Processing: 0}
	if view.Stats != want {
		t.Fatalf("unexpected stats: %+v", view.Stats)
	}
	if success := h.recorder.OfKind(messages.KindSuccess); len(success) != 1 || success[0] != "clip.mp4 uploaded successfully!" {
		t.Fatalf("unexpected success messages: %v", success)
	}
	if view.Indicator.Visible || view.Indicator.Percent != 0 {
		t.Fatalf("expected indicator hidden and reset, got %+v", view.Indicator)
	}

	var sawQuarter bool
	for _, ind := range indicators {
		if ind.Visible && ind.Percent == 25 {
			sawQuarter = true
		}
	}
	if !sawQuarter {
		t.Fatalf("expected indicator to report 25%%, got %+v", indicators)
	}
}

func TestScenarioServerErrorFailsUpload(t *testing.T) {
	h := newHarness(t)
	h.transport.script("clip.mp4",
		uploads.TransferEvent{Loaded: 50, Total: 100},
		statusFailure(500),
	)

	result := h.tracker.SubmitFiles(context.Background(), []uploads.File{video("clip.mp4", 100)})

	view := h.tracker.View()
	if view.Records[0].Status != uploads.StatusFailed {
		t.Fatalf("expected failed, got %q", view.Records[0].Status)
	}
	if view.Stats.Total != 1 || view.Stats.Completed != 0 || view.Stats.Processing != 0 || view.Stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", view.Stats)
	}
	if errs := h.recorder.OfKind(messages.KindError); len(errs) != 1 || errs[0] != "Failed to upload clip.mp4" {
		t.Fatalf("unexpected error messages: %v", errs)
	}
	if result.Failed != 1 || result.OK() {
		t.Fatalf("unexpected batch result: %+v", result)
	}
	if len(h.transport.Requests()) != 1 {
		t.Fatal("expected no retry")
	}
}

func TestBeginUploadFailsWhenStreamEndsWithoutResult(t *testing.T) {
	h := newHarness(t)
	h.transport.script("cut.mp4", uploads.TransferEvent{Loaded: 10, Total: 100})

	rec := h.tracker.BeginUpload(context.Background(), video("cut.mp4", 100))
	if rec.Status != uploads.StatusFailed {
		t.Fatalf("expected failed, got %q", rec.Status)
	}
	if rec.Progress != 10 {
		t.Fatalf("expected last progress retained, got %v", rec.Progress)
	}
}

func TestBeginUploadClampsProgress(t *testing.T) {
	h := newHarness(t)
	h.transport.script("odd.mp4",
		uploads.TransferEvent{Loaded: 150, Total: 100},
		uploads.TransferEvent{Loaded: 5, Total: 0},
		statusFailure(502),
	)

	var seen []float64
	h.tracker.OnChange(func(v uploads.View) {
		if len(v.Records) > 0 && v.Records[0].Status == uploads.StatusUploading {
			seen = append(seen, v.Records[0].Progress)
		}
	})

	h.tracker.BeginUpload(context.Background(), video("odd.mp4", 100))
	for _, p := range seen {
		if p < 0 || p > 100 {
			t.Fatalf("progress out of range: %v", p)
		}
	}
	if seen[len(seen)-1] != 100 {
		t.Fatalf("expected clamped progress of 100, got %v", seen)
	}
}

func TestBeginUploadWithoutTransportFails(t *testing.T) {
	recorder := &messages.Recorder{}
	tracker := uploads.NewTracker(uploads.Options{Messages: recorder})

	rec := tracker.BeginUpload(context.Background(), video("x.mp4", 1))
	if rec.Status != uploads.StatusFailed {
		t.Fatalf("expected failed, got %q", rec.Status)
	}
	if errs := recorder.OfKind(messages.KindError); len(errs) != 1 {
		t.Fatalf("expected one error message, got %v", errs)
	}
}

func TestBeginUploadPersistsLifecycleToJournal(t *testing.T) {
	h := newHarness(t)
	h.journal.err = errors.New("disk full")
	h.transport.script("j.mp4",
		uploads.TransferEvent{Loaded: 1, Total: 100},
		uploads.TransferEvent{Loaded: 2, Total: 100},
		uploads.TransferEvent{Loaded: 50, Total: 100},
		uploads.TransferEvent{Done: true},
	)

	rec := h.tracker.BeginUpload(context.Background(), video("j.mp4", 100))
	if rec.Status != uploads.StatusCompleted {
		t.Fatalf("journal failures must not fail the upload, got %q", rec.Status)
	}

	saves := h.journal.Saves()
	if len(saves) != 4 {
		t.Fatalf("expected create, 0%% bucket, 50%% bucket and terminal saves, got %d: %+v", len(saves), saves)
	}
	if saves[0].Status != uploads.StatusUploading || saves[0].Progress != 0 {
		t.Fatalf("unexpected first save: %+v", saves[0])
	}
	if last := saves[len(saves)-1]; last.Status != uploads.StatusCompleted || last.Progress != 100 {
		t.Fatalf("unexpected terminal save: %+v", last)
	}
}

func TestSubmitFilesStopsStartingUploadsAfterCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	h.transport.onUpload = func(uploads.UploadRequest) { cancel() }

	result := h.tracker.SubmitFiles(ctx, []uploads.File{video("a.mp4", 1), video("b.mp4", 1)})
	if len(h.transport.Requests()) != 1 {
		t.Fatalf("expected a single transfer before cancellation, got %d", len(h.transport.Requests()))
	}
	if len(result.Records) != 1 {
		t.Fatalf("expected one record, got %d", len(result.Records))
	}
}

func TestSubmitFilesReconcilesHistoryAfterBatch(t *testing.T) {
	h := newHarness(t)
	h.history.records = []uploads.ServerRecord{
		{Name: "clip.mp4", Timestamp: "2026-03-01T12:00:00.000Z", Size: int64Ptr(100)},
		{Name: "old.mp4", Timestamp: "2025-12-31T08:00:00Z"},
	}

	h.tracker.SubmitFiles(context.Background(), []uploads.File{video("clip.mp4", 100)})

	view := h.tracker.View()
	if len(view.Records) != 2 {
		t.Fatalf("expected local record plus one server record, got %+v", view.Records)
	}
	if view.Records[0].Origin != uploads.OriginLocal || view.Records[1].Name != "old.mp4" {
		t.Fatalf("unexpected merged order: %+v", view.Records)
	}
}

func TestHistoryFailureLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t)
	h.tracker.ReconcileHistory([]uploads.ServerRecord{{Name: "a.mp4", Timestamp: "2026-01-01T00:00:00.000Z"}})
	h.history.err = errors.New("connection refused")
	before := h.tracker.View()

	if err := h.tracker.ReloadHistory(context.Background()); err == nil {
		t.Fatal("expected error from ReloadHistory")
	}
	after := h.tracker.View()
	if len(after.Records) != len(before.Records) || after.Stats != before.Stats {
		t.Fatalf("expected unchanged state, before=%+v after=%+v", before, after)
	}
	if len(h.recorder.Messages()) != 0 {
		t.Fatalf("history failures must not produce messages, got %v", h.recorder.Messages())
	}
}

func TestStatsPartitionRecords(t *testing.T) {
	h := newHarness(t)
	h.transport.script("bad.mp4", statusFailure(400))
	h.tracker.SubmitFiles(context.Background(), []uploads.File{video("ok.mp4", 1), video("bad.mp4", 1)})
	h.tracker.Restore([]uploads.Record{{ID: "stuck", Name: "stuck.mp4", Status: uploads.StatusUploading, Timestamp: "2026-01-01T00:00:00.000Z"}})
	h.tracker.ReconcileHistory([]uploads.ServerRecord{{Name: "srv.mp4", Timestamp: "2026-02-01T00:00:00.000Z"}})

	stats := h.tracker.Stats()
	if stats.Total != 4 {
		t.Fatalf("expected 4 records, got %+v", stats)
	}
	if stats.Completed+stats.Processing+stats.Failed != stats.Total {
		t.Fatalf("stats do not partition the list: %+v", stats)
	}
	if stats.Completed != 2 || stats.Processing != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRestoreSkipsKnownIDs(t *testing.T) {
	h := newHarness(t)
	recs := []uploads.Record{
		{ID: "r1", Name: "a.mp4", Status: uploads.StatusCompleted, Timestamp: "2026-01-01T00:00:00.000Z"},
		{ID: "r2", Name: "b.mp4", Status: uploads.StatusFailed, Timestamp: "2026-01-02T00:00:00.000Z"},
	}
	if added := h.tracker.Restore(recs); added != 2 {
		t.Fatalf("expected 2 restored, got %d", added)
	}
	if added := h.tracker.Restore(recs); added != 0 {
		t.Fatalf("expected restore to be idempotent, got %d", added)
	}
	view := h.tracker.View()
	if view.Records[0].ID != "r2" {
		t.Fatalf("expected newest first, got %+v", view.Records)
	}
}

func TestViewIsASnapshot(t *testing.T) {
	h := newHarness(t)
	h.tracker.BeginUpload(context.Background(), video("a.mp4", 42))

	view := h.tracker.View()
	*view.Records[0].Size = 1
	view.Records[0].Name = "mutated"

	again := h.tracker.View()
	if again.Records[0].Name != "a.mp4" || *again.Records[0].Size != 42 {
		t.Fatalf("view mutation leaked into tracker: %+v", again.Records[0])
	}
}

func TestRestoreRefreshesKnownRecords(t *testing.T) {
	h := newHarness(t)
	h.tracker.Restore([]uploads.Record{{ID: "r1", Name: "a.mp4", Status: uploads.StatusUploading, Progress: 10, Timestamp: "2026-01-01T00:00:00.000Z"}})
	h.tracker.Restore([]uploads.Record{{ID: "r1", Name: "a.mp4", Status: uploads.StatusCompleted, Progress: 100, Timestamp: "2026-01-01T00:00:00.000Z"}})

	rec, ok := h.tracker.Record("r1")
	if !ok || rec.Status != uploads.StatusCompleted || rec.Progress != 100 {
		t.Fatalf("expected refreshed record, got %+v", rec)
	}

	h.tracker.Restore([]uploads.Record{{ID: "r1", Name: "a.mp4", Status: uploads.StatusUploading, Progress: 50, Timestamp: "2026-01-01T00:00:00.000Z"}})
	rec, _ = h.tracker.Record("r1")
	if rec.Status != uploads.StatusCompleted {
		t.Fatalf("terminal record regressed to %s", rec.Status)
	}
}

func TestRestoreReplacesHistoryRowForSameUpload(t *testing.T) {
	h := newHarness(t)
	h.tracker.ReconcileHistory([]uploads.ServerRecord{{Name: "a.mp4", Timestamp: "2026-01-01T00:00:00.000Z"}})

	added := h.tracker.Restore([]uploads.Record{{
		ID:        "local-1",
		Name:      "a.mp4",
		Status:    uploads.StatusCompleted,
		Progress:  100,
		Timestamp: "2026-01-01T00:00:00Z",
		Origin:    uploads.OriginLocal,
	}})
	if added != 0 {
		t.Fatalf("expected no new rows, got %d", added)
	}

	view := h.tracker.View()
	if len(view.Records) != 1 {
		t.Fatalf("expected one record for one upload, got %+v", view.Records)
	}
	if view.Records[0].ID != "local-1" || view.Records[0].Origin != uploads.OriginLocal {
		t.Fatalf("expected the local record to replace the history row, got %+v", view.Records[0])
	}
	if view.Stats.Total != 1 || view.Stats.Completed != 1 {
		t.Fatalf("unexpected stats: %+v", view.Stats)
	}

	h.tracker.ReconcileHistory([]uploads.ServerRecord{{Name: "a.mp4", Timestamp: "2026-01-01T00:00:00.000Z"}})
	if got := len(h.tracker.View().Records); got != 1 {
		t.Fatalf("expected reconcile after restore to stay deduplicated, got %d records", got)
	}
}

func TestRestoreOfUnfinishedLocalKeepsServerCompletion(t *testing.T) {
	h := newHarness(t)
	h.tracker.ReconcileHistory([]uploads.ServerRecord{{Name: "a.mp4", Timestamp: "2026-01-01T00:00:00.000Z"}})
	h.tracker.Restore([]uploads.Record{{
		ID:        "local-1",
		Name:      "a.mp4",
		Status:    uploads.StatusUploading,
		Progress:  40,
		Timestamp: "2026-01-01T00:00:00.000Z",
	}})

	rec, ok := h.tracker.Record("local-1")
	if !ok || rec.Status != uploads.StatusCompleted || rec.Progress != 100 {
		t.Fatalf("expected completed local record, got %+v (found=%v)", rec, ok)
	}
	if got := len(h.tracker.View().Records); got != 1 {
		t.Fatalf("expected a single record, got %d", got)
	}
}
