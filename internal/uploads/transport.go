package uploads

import "context"

// UploadRequest is one file transfer handed to a Transport.
type UploadRequest struct {
	ID        string
	Name      string
	Timestamp string
	File      File
}

// TransferEvent is either a progress report or the terminal result.
type TransferEvent struct {
	Loaded int64
	Total  int64
	Done   bool
	Err    error
}

// Percent converts a progress event to 0-100, or -1 when the total is unknown.
func (e TransferEvent) Percent() float64 {
	if e.Total <= 0 {
		return -1
	}
	return clampPercent(float64(e.Loaded) / float64(e.Total) * 100)
}

// Transport performs uploads. The returned channel yields progress events,
// then exactly one event with Done set, then closes. A nil Err on the
// terminal event means the server accepted the file.
type Transport interface {
	Upload(ctx context.Context, req UploadRequest) <-chan TransferEvent
}

// HistorySource returns the server's record of past uploads.
type HistorySource interface {
	History(ctx context.Context) ([]ServerRecord, error)
}

// Journal persists locally-owned records.
type Journal interface {
	Save(ctx context.Context, rec Record) error
}
