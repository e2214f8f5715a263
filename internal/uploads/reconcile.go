package uploads

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
)

// matchesServer reports whether a server history entry describes rec.
// An upload id, when the server echoes one, is authoritative. Otherwise the
// pair (name, timestamp) identifies the upload; timestamps are compared as
// instants when both parse so "00:00:00.000Z" and "00:00:00Z" agree.
func matchesServer(rec Record, srv ServerRecord) bool {
	if srv.UploadID != "" && srv.UploadID == rec.ID {
		return true
	}
	if rec.Name != srv.Name {
		return false
	}
	return sameInstant(rec.Timestamp, srv.Timestamp)
}

func sameInstant(a, b string) bool {
	if a == b {
		return true
	}
	ta, okA := parseTimestamp(a)
	tb, okB := parseTimestamp(b)
	return okA && okB && ta.Equal(tb)
}

func parseTimestamp(value string) (time.Time, bool) {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// serverRecordID derives a stable id for a server entry that carries none,
// so repeated reconciliation produces the same record.
func serverRecordID(srv ServerRecord) string {
	if srv.UploadID != "" {
		return srv.UploadID
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("rafcdn:"+srv.Name+"@"+srv.Timestamp)).String()
}

func fromServer(srv ServerRecord) Record {
	rec := Record{
		ID:        serverRecordID(srv),
		Name:      srv.Name,
		Status:    StatusCompleted,
		Progress:  100,
		Timestamp: srv.Timestamp,
		Origin:    OriginServer,
	}
	if srv.Size != nil {
		size := *srv.Size
		rec.Size = &size
	}
	return rec
}

// mergeServerRecords appends unmatched server entries and returns the number added.
func mergeServerRecords(records []Record, server []ServerRecord) ([]Record, int) {
	added := 0
	for _, srv := range server {
		if slices.ContainsFunc(records, func(rec Record) bool { return matchesServer(rec, srv) }) {
			continue
		}
		records = append(records, fromServer(srv))
		added++
	}
	return records, added
}

// sortNewestFirst orders records by timestamp, newest first. Timestamps that
// do not parse sort after all parseable ones, in descending string order.
func sortNewestFirst(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		ta, okA := parseTimestamp(a.Timestamp)
		tb, okB := parseTimestamp(b.Timestamp)
		switch {
		case okA && okB:
			return tb.Compare(ta)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return cmp.Compare(b.Timestamp, a.Timestamp)
		}
	})
}
