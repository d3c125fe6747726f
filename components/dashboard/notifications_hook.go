package dashboard

import (
	"context"
	"errors"
	"log/slog"
)

// RefreshHooks fans a widget event out to several hooks. Every hook is
// called; their errors are joined.
type RefreshHooks []RefreshHook

// WidgetUpdated implements RefreshHook.
func (hooks RefreshHooks) WidgetUpdated(ctx context.Context, event WidgetEvent) error {
	var err error
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		err = errors.Join(err, hook.WidgetUpdated(ctx, event))
	}
	return err
}

// LogRefreshHook logs widget events at info level.
type LogRefreshHook struct {
	Logger *slog.Logger
}

// WidgetUpdated implements RefreshHook.
func (h LogRefreshHook) WidgetUpdated(ctx context.Context, event WidgetEvent) error {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "widget updated",
		"area", event.AreaCode,
		"widget_id", event.Instance.ID,
		"definition", event.Instance.DefinitionID,
		"reason", event.Reason,
	)
	return nil
}
