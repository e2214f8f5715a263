package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldUploadID is the standardized structured logging key for upload record identifiers.
	FieldUploadID = "upload_id"
	// FieldBatchID groups records created by one selection.
	FieldBatchID = "batch_id"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to the operator.
	FieldErrorHint = "error_hint"
)

type contextKey string

const (
	uploadIDKey contextKey = "upload_id"
	batchIDKey  contextKey = "batch_id"
)

// WithUploadID returns a context carrying the upload record identifier.
func WithUploadID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, uploadIDKey, id)
}

// WithBatchID returns a context carrying the selection batch identifier.
func WithBatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, batchIDKey, id)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if id, ok := ctx.Value(batchIDKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldBatchID, id))
	}
	if id, ok := ctx.Value(uploadIDKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldUploadID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
