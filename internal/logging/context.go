package logging

import (
	"context"
	"log/slog"

	"ripwatch/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldDevice is the standardized structured logging key for optical device paths.
	FieldDevice = "device"
	// FieldSessionID is the standardized structured logging key for disc session identifiers.
	FieldSessionID = "session_id"
	// FieldDiscLabel is the standardized structured logging key for disc volume labels.
	FieldDiscLabel = "disc_label"
	// FieldState is the standardized structured logging key for session lifecycle states.
	FieldState = "state"
	// FieldVerdict is the standardized structured logging key for classification verdicts.
	FieldVerdict = "verdict"
	// FieldAttempt is the standardized structured logging key for extraction attempt numbers.
	FieldAttempt = "attempt"
	// FieldPercent is the standardized structured logging key for progress percentages.
	FieldPercent = "percent"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator next steps.
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
	if device, ok := services.DeviceFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldDevice, device))
	}
	if id, ok := services.SessionIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSessionID, id))
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
