package logs

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"rafcdn/internal/logging"
)

// Entry is one decoded line of the JSON log file.
type Entry struct {
	Time      time.Time      `json:"ts"`
	Level     string         `json:"level"`
	Message   string         `json:"msg"`
	Component string         `json:"component,omitempty"`
	RunID     string         `json:"run_id,omitempty"`
	UploadID  string         `json:"upload_id,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

var reservedKeys = []string{"ts", "level", "msg", "source",
	logging.FieldComponent, logging.FieldRunID, logging.FieldUploadID}

// ParseEntry decodes a JSON log line. Lines that are not JSON objects are
// reported as not ok.
func ParseEntry(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return Entry{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}

	entry := Entry{
		Level:     stringField(raw, "level"),
		Message:   stringField(raw, "msg"),
		Component: stringField(raw, logging.FieldComponent),
		RunID:     stringField(raw, logging.FieldRunID),
		UploadID:  stringField(raw, logging.FieldUploadID),
	}
	if ts := stringField(raw, "ts"); ts != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			entry.Time = parsed
		}
	}
	for _, key := range reservedKeys {
		delete(raw, key)
	}
	if len(raw) > 0 {
		entry.Fields = raw
	}
	return entry, true
}

func stringField(raw map[string]any, key string) string {
	if value, ok := raw[key].(string); ok {
		return value
	}
	return ""
}

// Filter selects entries. Zero values match everything.
type Filter struct {
	UploadID  string
	RunID     string
	Component string
	MinLevel  string
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

func (f Filter) Matches(e Entry) bool {
	if f.UploadID != "" && e.UploadID != f.UploadID {
		return false
	}
	if f.RunID != "" && e.RunID != f.RunID {
		return false
	}
	if f.Component != "" && !strings.EqualFold(e.Component, f.Component) {
		return false
	}
	if floor, ok := levelRank[strings.ToLower(f.MinLevel)]; ok {
		if levelRank[strings.ToLower(e.Level)] < floor {
			return false
		}
	}
	return true
}

// Format renders an entry the way the console handler prints live logs.
func Format(e Entry) string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s ", strings.ToUpper(e.Level))
	if e.Component != "" {
		b.WriteString(e.Component)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.UploadID != "" {
		fmt.Fprintf(&b, " %s=%s", logging.FieldUploadID, e.UploadID)
	}
	for _, key := range slices.Sorted(maps.Keys(e.Fields)) {
		fmt.Fprintf(&b, " %s=%v", key, e.Fields[key])
	}
	return b.String()
}
