package journal

import (
	"database/sql"
	"fmt"

	"rafcdn/internal/uploads"
)

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (uploads.Record, error) {
	var (
		rec    uploads.Record
		size   sql.NullInt64
		status string
		origin sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.Name, &size, &status, &rec.Progress, &rec.Timestamp, &origin); err != nil {
		if err == sql.ErrNoRows {
			return uploads.Record{}, err
		}
		return uploads.Record{}, fmt.Errorf("scan record: %w", err)
	}
	if size.Valid {
		value := size.Int64
		rec.Size = &value
	}
	rec.Status = uploads.Status(status)
	rec.Origin = uploads.OriginLocal
	if origin.Valid && origin.String != "" {
		rec.Origin = uploads.Origin(origin.String)
	}
	return rec, nil
}

func nullableInt64(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}
