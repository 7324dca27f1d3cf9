package logging

import (
	"context"
	"log/slog"

	"docmonitor/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEntryID is the standardized structured logging key for queue entry identifiers.
	FieldEntryID = "entry_id"
	// FieldStage is the standardized structured logging key for processing steps.
	FieldStage = "stage"
	// FieldSourcePath is the standardized structured logging key for ingested file paths.
	FieldSourcePath = "source_path"
	// FieldDocumentID is the standardized structured logging key for persisted document ids.
	FieldDocumentID = "document_id"
	// FieldClassID is the standardized structured logging key for document class identifiers.
	FieldClassID = "class_id"
	// FieldRetry is the standardized structured logging key for queue retry counters.
	FieldRetry = "retry"
	// FieldEventType labels a log line with a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step for warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.EntryIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldEntryID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
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
	return logger.With(attrsToArgs(fields)...)
}
