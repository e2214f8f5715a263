package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"rafcdn/internal/uploads"
)

var recordColumns = []column{
	{title: "Name"},
	{title: "Size", align: alignRight},
	{title: "Uploaded"},
	{title: "Status"},
	{title: "Progress", align: alignRight},
}

var titleCaser = cases.Title(language.Und)

// printView writes the merged list and stats, as a table or as JSON.
func printView(w io.Writer, view uploads.View, asJSON bool) error {
	if asJSON {
		return encodeJSON(w, view)
	}
	fmt.Fprintln(w, renderRecords(view.Records))
	fmt.Fprintln(w, renderStats(view.Stats))
	return nil
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderRecords(records []uploads.Record) string {
	if len(records) == 0 {
		return "No uploads yet."
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.Name,
			formatSize(rec.Size),
			formatTimestamp(rec.Timestamp),
			statusLabel(rec.Status),
			formatProgress(rec),
		})
	}
	return renderTable(recordColumns, rows)
}

func renderStats(stats uploads.Stats) string {
	return fmt.Sprintf("Total: %d  Completed: %d  Processing: %d  Failed: %d",
		stats.Total, stats.Completed, stats.Processing, stats.Failed)
}

func formatSize(size *int64) string {
	if size == nil || *size < 0 {
		return "-"
	}
	return humanize.IBytes(uint64(*size))
}

// formatTimestamp shows parseable timestamps in local time and anything
// else exactly as the server sent it.
func formatTimestamp(value string) string {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return value
	}
	return parsed.Local().Format("2006-01-02 15:04:05")
}

func statusLabel(status uploads.Status) string {
	return titleCaser.String(strings.TrimSpace(string(status)))
}

func formatProgress(rec uploads.Record) string {
	switch rec.Status {
	case uploads.StatusUploading:
		return fmt.Sprintf("%.0f%%", rec.Progress)
	case uploads.StatusCompleted:
		return "100%"
	default:
		return "-"
	}
}
