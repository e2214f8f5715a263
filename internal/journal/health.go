package journal

import (
	"context"
	"fmt"
	"slices"
)

// Health describes journal readiness for diagnostics.
type Health struct {
	DatabaseReadable bool
	SchemaVersion    int
	ExpectedVersion  int
	MissingColumns   []string
	IntegrityCheck   bool
	Error            string
}

var requiredColumns = []string{"id", "name", "size", "status", "progress", "timestamp", "origin", "updated_at"}

// CheckHealth verifies the journal is readable and structurally intact.
func (s *Store) CheckHealth(ctx context.Context) (Health, error) {
	ctx = ensureContext(ctx)
	health := Health{ExpectedVersion: schemaVersion}

	if err := s.db.PingContext(ctx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping journal: %w", err)
	}
	health.DatabaseReadable = true

	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&health.SchemaVersion); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("read schema version: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info(upload_records)")
	if err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("inspect upload_records: %w", err)
	}
	var present []string
	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notnull    int
			defaultVal any
			pk         int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &defaultVal, &pk); err != nil {
			rows.Close()
			health.Error = err.Error()
			return health, fmt.Errorf("scan table info: %w", err)
		}
		present = append(present, name)
	}
	rows.Close()
	for _, col := range requiredColumns {
		if !slices.Contains(present, col) {
			health.MissingColumns = append(health.MissingColumns, col)
		}
	}

	var integrity string
	if err := s.db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = integrity == "ok"
	return health, nil
}

// Healthy reports whether every check passed.
func (h Health) Healthy() bool {
	return h.DatabaseReadable &&
		h.SchemaVersion == h.ExpectedVersion &&
		len(h.MissingColumns) == 0 &&
		h.IntegrityCheck
}
