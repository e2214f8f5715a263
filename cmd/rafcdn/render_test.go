package main

import (
	"strings"
	"testing"

	"rafcdn/internal/uploads"
)

func TestFormatSize(t *testing.T) {
	size := int64(1536)
	if got := formatSize(&size); got != "1.5 KiB" {
		t.Fatalf("formatSize = %q", got)
	}
	if got := formatSize(nil); got != "-" {
		t.Fatalf("formatSize(nil) = %q", got)
	}
}

func TestFormatTimestampKeepsOpaqueValues(t *testing.T) {
	if got := formatTimestamp("yesterday"); got != "yesterday" {
		t.Fatalf("formatTimestamp = %q", got)
	}
	if got := formatTimestamp("2024-05-01T10:00:00.000Z"); !strings.HasPrefix(got, "2024-05-0") {
		t.Fatalf("formatTimestamp = %q", got)
	}
}

func TestRenderRecords(t *testing.T) {
	out := renderRecords([]uploads.Record{
		{Name: "a.mp4", Status: uploads.StatusUploading, Progress: 42.4, Timestamp: "T"},
		{Name: "b.mp4", Status: uploads.StatusFailed, Timestamp: "T"},
	})
	for _, want := range []string{"a.mp4", "Uploading", "42%", "b.mp4", "Failed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in\n%s", want, out)
		}
	}
	if got := renderRecords(nil); got != "No uploads yet." {
		t.Fatalf("renderRecords(nil) = %q", got)
	}
}

func TestRenderCheckLine(t *testing.T) {
	line := renderCheckLine("Session", false, "not signed in", false)
	if !strings.Contains(line, "Session:") || !strings.Contains(line, "[FAIL] not signed in") {
		t.Fatalf("unexpected line %q", line)
	}
}

func TestRunReportsErrorsWithExitCode(t *testing.T) {
	var stdout, stderr strings.Builder
	if code := run([]string{"no-such-command"}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.HasPrefix(stderr.String(), "rafcdn: ") || !strings.Contains(stderr.String(), "unknown command") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
}

func TestPrintViewJSON(t *testing.T) {
	var out strings.Builder
	view := uploads.View{Records: []uploads.Record{}, Stats: uploads.Stats{Total: 0}}
	if err := printView(&out, view, true); err != nil {
		t.Fatalf("printView: %v", err)
	}
	if !strings.Contains(out.String(), `"records": []`) {
		t.Fatalf("expected an empty records array, got %s", out.String())
	}
}
