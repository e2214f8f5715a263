package uploads

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Status represents the lifecycle of an upload record.
type Status string

const (
	StatusUploading Status = "uploading"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{StatusUploading, StatusCompleted, StatusFailed}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ParseStatus converts a string to a Status.
func ParseStatus(value string) (Status, bool) {
	candidate := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transitions can occur.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Origin records who introduced a record into the list.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginServer Origin = "server"
)

// TimestampLayout is the record timestamp format: UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Record tracks one file transfer attempt.
type Record struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Size      *int64  `json:"size,omitempty"`
	Status    Status  `json:"status"`
	Progress  float64 `json:"progress"`
	Timestamp string  `json:"timestamp"`
	Origin    Origin  `json:"origin"`
}

// clone returns a copy that shares no memory with r.
func (r Record) clone() Record {
	if r.Size != nil {
		size := *r.Size
		r.Size = &size
	}
	return r
}

func (r Record) String() string {
	return fmt.Sprintf("%s %s (%s)", r.Name, r.Timestamp, r.Status)
}

// ServerRecord is one entry of the server's upload history.
type ServerRecord struct {
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
	Size      *int64 `json:"size,omitempty"`
	UploadID  string `json:"upload_id,omitempty"`
}

// Stats partitions the merged list by status.
type Stats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
}

// Indicator is the single progress display for the upload in flight.
type Indicator struct {
	Visible bool    `json:"visible"`
	Percent float64 `json:"percent"`
	Name    string  `json:"name,omitempty"`
}

// View is an immutable snapshot of the tracker.
type View struct {
	Records   []Record  `json:"records"`
	Stats     Stats     `json:"stats"`
	Indicator Indicator `json:"indicator"`
}

// Rejection describes a file refused before any record was created.
type Rejection struct {
	Name string
	Err  error
}

// BatchResult summarizes one SubmitFiles call.
type BatchResult struct {
	Accepted   int
	Rejected   int
	Completed  int
	Failed     int
	Records    []Record
	Rejections []Rejection
}

// OK reports whether every submitted file was accepted and uploaded.
func (b BatchResult) OK() bool {
	return b.Rejected == 0 && b.Failed == 0 && b.Completed == b.Accepted
}

func computeStats(records []Record) Stats {
	stats := Stats{Total: len(records)}
	for _, rec := range records {
		switch rec.Status {
		case StatusCompleted:
			stats.Completed++
		case StatusUploading:
			stats.Processing++
		case StatusFailed:
			stats.Failed++
		}
	}
	return stats
}

func clampPercent(value float64) float64 {
	switch {
	case math.IsNaN(value), value < 0:
		return 0
	case value > 100:
		return 100
	default:
		return value
	}
}
