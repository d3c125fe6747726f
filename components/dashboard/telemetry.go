package dashboard

import (
	"context"
	"log/slog"
)

// Telemetry records dashboard events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// SlogTelemetry writes every event as a debug record.
type SlogTelemetry struct {
	Logger *slog.Logger
}

// Record implements Telemetry.
func (t SlogTelemetry) Record(ctx context.Context, event string, payload map[string]any) {
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := make([]any, 0, len(payload)*2+2)
	attrs = append(attrs, "event", event)
	for key, value := range payload {
		attrs = append(attrs, key, value)
	}
	logger.DebugContext(ctx, "dashboard telemetry", attrs...)
}
