package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rafcdn/internal/uploads"
)

var _ uploads.Journal = (*Store)(nil)

const recordColumns = "id, name, size, status, progress, timestamp, origin"

// Save upserts a record by id. A terminal row is never moved back to
// uploading by a late progress write.
func (s *Store) Save(ctx context.Context, rec uploads.Record) error {
	if rec.ID == "" {
		return errors.New("save record: id is required")
	}
	origin := rec.Origin
	if origin == "" {
		origin = uploads.OriginLocal
	}
	_, err := s.execWithRetry(ctx, `
INSERT INTO upload_records (id, name, size, status, progress, timestamp, origin, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    size = excluded.size,
    status = excluded.status,
    progress = excluded.progress,
    timestamp = excluded.timestamp,
    origin = excluded.origin,
    updated_at = excluded.updated_at
WHERE upload_records.status = 'uploading' OR excluded.status != 'uploading'`,
		rec.ID,
		rec.Name,
		nullableInt64(rec.Size),
		string(rec.Status),
		rec.Progress,
		rec.Timestamp,
		string(origin),
		uploads.FormatTimestamp(s.now()),
	)
	if err != nil {
		return fmt.Errorf("save record %s: %w", rec.ID, err)
	}
	return nil
}

// List returns every journaled record, newest first.
func (s *Store) List(ctx context.Context) ([]uploads.Record, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM upload_records ORDER BY timestamp DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []uploads.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Get fetches a record by id. It returns nil when the id is unknown.
func (s *Store) Get(ctx context.Context, id string) (*uploads.Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM upload_records WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// FailInterrupted marks records still uploading as failed. Only call it
// while holding the upload lock; otherwise a live transfer is clobbered.
func (s *Store) FailInterrupted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		"UPDATE upload_records SET status = ?, updated_at = ? WHERE status = ?",
		string(uploads.StatusFailed),
		uploads.FormatTimestamp(s.now()),
		string(uploads.StatusUploading),
	)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted uploads: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count interrupted uploads: %w", err)
	}
	return affected, nil
}

// Clear removes every journaled record.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM upload_records")
	if err != nil {
		return 0, fmt.Errorf("clear records: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cleared records: %w", err)
	}
	return affected, nil
}

// Counts aggregates journaled records by status.
func (s *Store) Counts(ctx context.Context) (map[uploads.Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM upload_records GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	defer rows.Close()

	counts := make(map[uploads.Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan counts: %w", err)
		}
		counts[uploads.Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}
