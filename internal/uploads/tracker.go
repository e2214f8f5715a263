package uploads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"rafcdn/internal/logging"
	"rafcdn/internal/messages"
)

var errNoTerminalEvent = errors.New("transfer ended without a result")

// Options wires a Tracker to its collaborators. Only Transport is required
// for uploads; History, Journal and Messages are optional.
type Options struct {
	Transport Transport
	History   HistorySource
	Journal   Journal
	Messages  messages.Sink
	Limits    Limits
	Logger    *slog.Logger
	Now       func() time.Time
	NewID     func() string
}

// Tracker owns the merged list of upload records.
type Tracker struct {
	mu        sync.Mutex
	records   []Record
	indicator Indicator
	listeners []func(View)

	transport Transport
	history   HistorySource
	journal   Journal
	sink      messages.Sink
	limits    Limits
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

func NewTracker(opts Options) *Tracker {
	t := &Tracker{
		transport: opts.Transport,
		history:   opts.History,
		journal:   opts.Journal,
		sink:      opts.Messages,
		limits:    opts.Limits.normalized(),
		logger:    logging.NewComponentLogger(opts.Logger, "uploads"),
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if t.sink == nil {
		t.sink = messages.Discard
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.newID == nil {
		t.newID = newRecordID
	}
	return t
}

func newRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// OnChange registers a listener called with a fresh View after every mutation.
func (t *Tracker) OnChange(fn func(View)) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// View returns a snapshot of the merged list, stats and indicator.
func (t *Tracker) View() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Stats returns counts over the merged list.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return computeStats(t.records)
}

// Record returns the record with the given id.
func (t *Tracker) Record(id string) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx := t.indexLocked(id); idx >= 0 {
		return t.records[idx].clone(), true
	}
	return Record{}, false
}

func (t *Tracker) snapshotLocked() View {
	records := make([]Record, len(t.records))
	for i, rec := range t.records {
		records[i] = rec.clone()
	}
	return View{Records: records, Stats: computeStats(t.records), Indicator: t.indicator}
}

func (t *Tracker) indexLocked(id string) int {
	return slices.IndexFunc(t.records, func(rec Record) bool { return rec.ID == id })
}

// mutate applies fn under the lock and, when fn reports a change, notifies
// listeners outside the lock.
func (t *Tracker) mutate(fn func() bool) {
	t.mu.Lock()
	if !fn() {
		t.mu.Unlock()
		return
	}
	view := t.snapshotLocked()
	listeners := slices.Clone(t.listeners)
	t.mu.Unlock()

	for _, listener := range listeners {
		listener(view)
	}
}

// Restore seeds persisted local records and refreshes ones already present.
// A terminal record is never moved back to uploading. It returns how many
// records were added.
func (t *Tracker) Restore(records []Record) int {
	added := 0
	t.mutate(func() bool {
		changed := false
		for _, rec := range records {
			if rec.ID == "" {
				continue
			}
			idx := t.indexLocked(rec.ID)
			if idx < 0 {
				if srv := t.serverTwinLocked(rec); srv >= 0 {
					t.records[srv] = adoptServerTwin(rec, t.records[srv])
					changed = true
					continue
				}
				t.records = append(t.records, rec.clone())
				added++
				changed = true
				continue
			}
			current := t.records[idx]
			if current.Status.IsTerminal() && !rec.Status.IsTerminal() {
				continue
			}
			if current.Status != rec.Status || current.Progress != rec.Progress {
				t.records[idx].Status = rec.Status
				t.records[idx].Progress = rec.Progress
				changed = true
			}
		}
		if added > 0 {
			sortNewestFirst(t.records)
		}
		return changed
	})
	return added
}

// serverTwinLocked finds a history-derived record describing the same upload
// as rec: same name, same instant.
func (t *Tracker) serverTwinLocked(rec Record) int {
	for i, existing := range t.records {
		if existing.Origin == OriginServer && existing.Name == rec.Name && sameInstant(existing.Timestamp, rec.Timestamp) {
			return i
		}
	}
	return -1
}

// adoptServerTwin replaces a history row with the local record it mirrors.
// The server already holds the file, so the result is never left uploading.
func adoptServerTwin(local, server Record) Record {
	merged := local.clone()
	if !merged.Status.IsTerminal() {
		merged.Status = server.Status
		merged.Progress = server.Progress
	}
	if merged.Size == nil && server.Size != nil {
		size := *server.Size
		merged.Size = &size
	}
	return merged
}

// SubmitFiles validates every file, uploads the valid ones one after another
// and then reloads history. Rejections and failures are reported through the
// message sink; the returned summary is informational.
func (t *Tracker) SubmitFiles(ctx context.Context, files []File) BatchResult {
	var result BatchResult
	var valid []File
	for _, file := range files {
		if err := t.limits.Check(file); err != nil {
			t.logger.Info("file rejected",
				logging.FileName(file.Name()),
				logging.ContentType(file.ContentType()),
				logging.FileSize(file.Size()),
				logging.Error(err),
			)
			t.sink.Post(messages.Error(err.Error()))
			result.Rejected++
			result.Rejections = append(result.Rejections, Rejection{Name: file.Name(), Err: err})
			continue
		}
		valid = append(valid, file)
	}
	result.Accepted = len(valid)
	if len(valid) == 0 {
		return result
	}

	batchCtx := logging.WithBatchID(ctx, newRecordID())
	for _, file := range valid {
		if err := ctx.Err(); err != nil {
			t.logger.Warn("batch interrupted", logging.Int("remaining", result.Accepted-len(result.Records)), logging.Error(err))
			break
		}
		rec := t.BeginUpload(batchCtx, file)
		result.Records = append(result.Records, rec)
		switch rec.Status {
		case StatusCompleted:
			result.Completed++
		case StatusFailed:
			result.Failed++
		}
	}

	_ = t.ReloadHistory(ctx)
	t.mutate(func() bool { return true })
	return result
}

// BeginUpload creates a record, runs the transfer to completion and returns
// the record's terminal state.
func (t *Tracker) BeginUpload(ctx context.Context, file File) Record {
	size := file.Size()
	rec := Record{
		ID:        t.newID(),
		Name:      file.Name(),
		Size:      &size,
		Status:    StatusUploading,
		Progress:  0,
		Timestamp: FormatTimestamp(t.now()),
		Origin:    OriginLocal,
	}
	ctx = logging.WithUploadID(ctx, rec.ID)
	logger := logging.WithContext(ctx, t.logger)

	t.mutate(func() bool {
		t.records = append([]Record{rec.clone()}, t.records...)
		t.indicator = Indicator{Visible: true, Percent: 0, Name: rec.Name}
		return true
	})
	t.persist(ctx, logger, rec)
	logger.Info("upload started", logging.FileName(rec.Name), logging.FileSize(size))

	err := t.transfer(ctx, logger, rec, file)

	status := StatusCompleted
	if err != nil {
		status = StatusFailed
	}
	var final Record
	t.mutate(func() bool {
		if idx := t.indexLocked(rec.ID); idx >= 0 {
			t.records[idx].Status = status
			if status == StatusCompleted {
				t.records[idx].Progress = 100
			}
			final = t.records[idx].clone()
		}
		t.indicator = Indicator{}
		return true
	})
	t.persist(ctx, logger, final)

	if err != nil {
		logger.Error("upload failed", logging.FileName(rec.Name), logging.Error(err))
		t.sink.Post(messages.Error(fmt.Sprintf("Failed to upload %s", rec.Name)))
	} else {
		logger.Info("upload completed", logging.FileName(rec.Name))
		t.sink.Post(messages.Success(fmt.Sprintf("%s uploaded successfully!", rec.Name)))
	}
	return final
}

func (t *Tracker) transfer(ctx context.Context, logger *slog.Logger, rec Record, file File) error {
	if t.transport == nil {
		return errors.New("no upload transport configured")
	}
	events := t.transport.Upload(ctx, UploadRequest{
		ID:        rec.ID,
		Name:      rec.Name,
		Timestamp: rec.Timestamp,
		File:      file,
	})

	journalSampler := logging.NewProgressSampler(5)
	logSampler := logging.NewProgressSampler(25)
	for event := range events {
		if event.Done {
			return event.Err
		}
		percent := event.Percent()
		if percent < 0 {
			continue
		}
		var current Record
		t.mutate(func() bool {
			idx := t.indexLocked(rec.ID)
			if idx < 0 || t.records[idx].Status != StatusUploading {
				return false
			}
			t.records[idx].Progress = percent
			t.indicator.Percent = percent
			current = t.records[idx].clone()
			return true
		})
		if current.ID == "" {
			continue
		}
		if journalSampler.ShouldLog(percent) {
			t.persist(ctx, logger, current)
		}
		if logSampler.ShouldLog(percent) {
			logger.Debug("upload progress",
				logging.Float64("percent", percent),
				logging.Int64("loaded", event.Loaded),
				logging.Int64("total", event.Total),
			)
		}
	}
	return errNoTerminalEvent
}

func (t *Tracker) persist(ctx context.Context, logger *slog.Logger, rec Record) {
	if t.journal == nil || rec.ID == "" {
		return
	}
	if err := t.journal.Save(context.WithoutCancel(ctx), rec); err != nil {
		logging.WarnWithContext(logger, "journal save failed", "journal_save_failed",
			"local history may be stale; check the state directory",
			logging.String("status", string(rec.Status)),
			logging.Error(err),
		)
	}
}

// ReconcileHistory appends server entries that match no existing record as
// completed and re-sorts the list newest first. It returns how many were added.
func (t *Tracker) ReconcileHistory(server []ServerRecord) int {
	added := 0
	t.mutate(func() bool {
		t.records, added = mergeServerRecords(t.records, server)
		sortNewestFirst(t.records)
		return true
	})
	if added > 0 {
		t.logger.Debug("history reconciled", logging.Int("added", added), logging.Int("server_records", len(server)))
	}
	return added
}

// ReloadHistory fetches the server history and reconciles it. Fetch failures
// are logged and leave the list untouched.
func (t *Tracker) ReloadHistory(ctx context.Context) error {
	if t.history == nil {
		return nil
	}
	server, err := t.history.History(ctx)
	if err != nil {
		logging.WarnWithContext(t.logger, "history reload failed", "history_reload_failed",
			"check backend availability and session",
			logging.Error(err),
		)
		return fmt.Errorf("reload history: %w", err)
	}
	t.ReconcileHistory(server)
	return nil
}
