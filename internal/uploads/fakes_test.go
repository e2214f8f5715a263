package uploads_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"rafcdn/internal/uploads"
)

type memFile struct {
	name        string
	size        int64
	contentType string
}

func (f memFile) Name() string        { return f.name }
func (f memFile) Size() int64         { return f.size }
func (f memFile) ContentType() string { return f.contentType }
func (f memFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(make([]byte, min(f.size, 1024)))), nil
}

func video(name string, size int64) memFile {
	return memFile{name: name, size: size, contentType: "video/mp4"}
}

// scriptedTransport replays per-file event scripts keyed by file name.
type scriptedTransport struct {
	mu       sync.Mutex
	scripts  map[string][]uploads.TransferEvent
	requests []uploads.UploadRequest
	// onUpload runs before events are sent.
	onUpload func(uploads.UploadRequest)
}

func newScriptedTransport() *scriptedTransport {
	return &scriptedTransport{scripts: map[string][]uploads.TransferEvent{}}
}

func (s *scriptedTransport) script(name string, events ...uploads.TransferEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[name] = events
}

func (s *scriptedTransport) Upload(_ context.Context, req uploads.UploadRequest) <-chan uploads.TransferEvent {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	events, ok := s.scripts[req.Name]
	hook := s.onUpload
	s.mu.Unlock()
	if !ok {
		events = []uploads.TransferEvent{
			{Loaded: req.File.Size() / 2, Total: req.File.Size()},
			{Loaded: req.File.Size(), Total: req.File.Size()},
			{Done: true},
		}
	}
	if hook != nil {
		hook(req)
	}
	ch := make(chan uploads.TransferEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

func (s *scriptedTransport) Requests() []uploads.UploadRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uploads.UploadRequest(nil), s.requests...)
}

type staticHistory struct {
	mu      sync.Mutex
	records []uploads.ServerRecord
	err     error
	calls   int
}

func (h *staticHistory) History(context.Context) ([]uploads.ServerRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.err != nil {
		return nil, h.err
	}
	return append([]uploads.ServerRecord(nil), h.records...), nil
}

type memJournal struct {
	mu    sync.Mutex
	saves []uploads.Record
	err   error
}

func (j *memJournal) Save(_ context.Context, rec uploads.Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.saves = append(j.saves, rec)
	return j.err
}

func (j *memJournal) Saves() []uploads.Record {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]uploads.Record(nil), j.saves...)
}

// stepClock returns strictly increasing times one second apart.
type stepClock struct {
	mu   sync.Mutex
	next time.Time
}

func newStepClock(start time.Time) *stepClock { return &stepClock{next: start} }

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(time.Second)
	return now
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func statusFailure(code int) uploads.TransferEvent {
	return uploads.TransferEvent{Done: true, Err: fmt.Errorf("upload rejected: %w", errors.New(fmt.Sprint(code)))}
}

func int64Ptr(v int64) *int64 { return &v }
