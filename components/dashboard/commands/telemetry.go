package commands

import "context"

// Event names recorded by the dashboard commands.
const (
	EventWidgetAssign    = "dashboard.widget.assign"
	EventWidgetRemove    = "dashboard.widget.remove"
	EventWidgetReorder   = "dashboard.widget.reorder"
	EventWidgetRefresh   = "dashboard.widget.refresh"
	EventWidgetUpdate    = "dashboard.widget.update"
	EventPreferencesSave = "dashboard.preferences.save"
	EventSeed            = "dashboard.seed"
	EventTable           = "dashboard.table.command"
	EventTaskCreate      = "dashboard.task.create"
	EventTaskToggle      = "dashboard.task.toggle"
	EventTaskDelete      = "dashboard.task.delete"
	EventChat            = "dashboard.chat"
)

// Telemetry receives one structured event per successful or failed command.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// TelemetryFunc adapts a function to Telemetry.
type TelemetryFunc func(ctx context.Context, event string, payload map[string]any)

func (f TelemetryFunc) Record(ctx context.Context, event string, payload map[string]any) {
	f(ctx, event, payload)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// recordFailure emits "<event>.failed" with the error text and returns err.
func recordFailure(ctx context.Context, t Telemetry, event string, err error, payload map[string]any) error {
	fields := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		fields[k] = v
	}
	fields["error"] = err.Error()
	t.Record(ctx, event+".failed", fields)
	return err
}
