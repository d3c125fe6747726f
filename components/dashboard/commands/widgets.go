package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-salesboard/components/dashboard"
)

var (
	errWidgetService = errors.New("commands: widget service not configured")
	errWidgetID      = errors.New("commands: widget id is required")
	errDuplicateID   = errors.New("commands: widget id listed twice")
)

// RemoveWidgetInput identifies the widget instance to remove and who asked.
type RemoveWidgetInput struct {
	WidgetID string `json:"widget_id"`
	ActorID  string `json:"actor_id"`
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
}

// ReorderWidgetsInput is the full ordering of one area.
type ReorderWidgetsInput struct {
	AreaCode  string   `json:"area_code"`
	WidgetIDs []string `json:"widget_ids"`
}

// UpdateWidgetInput replaces a widget's configuration and metadata.
type UpdateWidgetInput struct {
	WidgetID      string         `json:"widget_id"`
	Configuration map[string]any `json:"configuration"`
	Metadata      map[string]any `json:"metadata"`
	ActorID       string         `json:"actor_id"`
	UserID        string         `json:"user_id"`
	TenantID      string         `json:"tenant_id"`
}

// RefreshWidgetInput asks the refresh hooks to push a widget again.
type RefreshWidgetInput struct {
	Event dashboard.WidgetEvent `json:"event"`
}

type widgetService interface {
	AddWidget(ctx context.Context, req dashboard.AddWidgetRequest) error
	RemoveWidget(ctx context.Context, widgetID string) error
	ReorderWidgets(ctx context.Context, areaCode string, widgetIDs []string) error
	UpdateWidget(ctx context.Context, req dashboard.UpdateWidgetRequest) (dashboard.WidgetInstance, error)
	NotifyWidgetUpdated(ctx context.Context, event dashboard.WidgetEvent) error
}

type widgetCommand struct {
	service   widgetService
	telemetry Telemetry
}

func newWidgetCommand(service widgetService, telemetry Telemetry) widgetCommand {
	return widgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

func checkArea(code string) error {
	if !dashboard.KnownArea(code) {
		return fmt.Errorf("%w: %q", dashboard.ErrUnknownArea, code)
	}
	return nil
}

// AssignWidgetCommand places a widget definition into a dashboard area.
type AssignWidgetCommand struct{ widgetCommand }

func NewAssignWidgetCommand(service widgetService, telemetry Telemetry) *AssignWidgetCommand {
	return &AssignWidgetCommand{newWidgetCommand(service, telemetry)}
}

var _ gocommand.Commander[dashboard.AddWidgetRequest] = (*AssignWidgetCommand)(nil)

func (c *AssignWidgetCommand) Execute(ctx context.Context, msg dashboard.AddWidgetRequest) error {
	if c.service == nil {
		return errWidgetService
	}
	if err := checkArea(msg.AreaCode); err != nil {
		return err
	}
	payload := map[string]any{
		"definition_id": msg.DefinitionID,
		"area_code":     msg.AreaCode,
	}
	if err := c.service.AddWidget(ctx, msg); err != nil {
		return recordFailure(ctx, c.telemetry, EventWidgetAssign, err, payload)
	}
	c.telemetry.Record(ctx, EventWidgetAssign, payload)
	return nil
}

// RemoveWidgetCommand deletes a widget instance, attributing the activity
// event to the requesting user.
type RemoveWidgetCommand struct{ widgetCommand }

func NewRemoveWidgetCommand(service widgetService, telemetry Telemetry) *RemoveWidgetCommand {
	return &RemoveWidgetCommand{newWidgetCommand(service, telemetry)}
}

var _ gocommand.Commander[RemoveWidgetInput] = (*RemoveWidgetCommand)(nil)

func (c *RemoveWidgetCommand) Execute(ctx context.Context, msg RemoveWidgetInput) error {
	if c.service == nil {
		return errWidgetService
	}
	id := strings.TrimSpace(msg.WidgetID)
	if id == "" {
		return errWidgetID
	}
	ctx = dashboard.ContextWithActivity(ctx, dashboard.ActivityContext{
		ActorID:  msg.ActorID,
		UserID:   msg.UserID,
		TenantID: msg.TenantID,
	})
	if err := c.service.RemoveWidget(ctx, id); err != nil {
		return recordFailure(ctx, c.telemetry, EventWidgetRemove, err, map[string]any{"widget_id": id})
	}
	c.telemetry.Record(ctx, EventWidgetRemove, map[string]any{"widget_id": id})
	return nil
}

// ReorderWidgetsCommand stores a new widget order for one area.
type ReorderWidgetsCommand struct{ widgetCommand }

func NewReorderWidgetsCommand(service widgetService, telemetry Telemetry) *ReorderWidgetsCommand {
	return &ReorderWidgetsCommand{newWidgetCommand(service, telemetry)}
}

var _ gocommand.Commander[ReorderWidgetsInput] = (*ReorderWidgetsCommand)(nil)

// Execute rejects unknown areas and orderings that list a widget twice.
func (c *ReorderWidgetsCommand) Execute(ctx context.Context, msg ReorderWidgetsInput) error {
	if c.service == nil {
		return errWidgetService
	}
	if err := checkArea(msg.AreaCode); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(msg.WidgetIDs))
	for _, id := range msg.WidgetIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", errDuplicateID, id)
		}
		seen[id] = struct{}{}
	}
	if err := c.service.ReorderWidgets(ctx, msg.AreaCode, msg.WidgetIDs); err != nil {
		return recordFailure(ctx, c.telemetry, EventWidgetReorder, err, map[string]any{"area_code": msg.AreaCode})
	}
	c.telemetry.Record(ctx, EventWidgetReorder, map[string]any{
		"area_code": msg.AreaCode,
		"count":     len(msg.WidgetIDs),
	})
	return nil
}

// UpdateWidgetCommand replaces a widget's configuration; the service
// validates it against the definition schema.
type UpdateWidgetCommand struct{ widgetCommand }

func NewUpdateWidgetCommand(service widgetService, telemetry Telemetry) *UpdateWidgetCommand {
	return &UpdateWidgetCommand{newWidgetCommand(service, telemetry)}
}

var _ gocommand.Commander[UpdateWidgetInput] = (*UpdateWidgetCommand)(nil)

func (c *UpdateWidgetCommand) Execute(ctx context.Context, msg UpdateWidgetInput) error {
	if c.service == nil {
		return errWidgetService
	}
	if strings.TrimSpace(msg.WidgetID) == "" {
		return errWidgetID
	}
	ctx = dashboard.ContextWithActivity(ctx, dashboard.ActivityContext{
		ActorID:  msg.ActorID,
		UserID:   msg.UserID,
		TenantID: msg.TenantID,
	})
	updated, err := c.service.UpdateWidget(ctx, dashboard.UpdateWidgetRequest{
		InstanceID:    msg.WidgetID,
		Configuration: msg.Configuration,
		Metadata:      msg.Metadata,
		ActorID:       msg.ActorID,
		UserID:        msg.UserID,
		TenantID:      msg.TenantID,
	})
	if err != nil {
		return recordFailure(ctx, c.telemetry, EventWidgetUpdate, err, map[string]any{"widget_id": msg.WidgetID})
	}
	c.telemetry.Record(ctx, EventWidgetUpdate, map[string]any{
		"widget_id":     updated.ID,
		"definition_id": updated.DefinitionID,
	})
	return nil
}

// RefreshWidgetCommand fans a widget event out to the refresh hooks
// (broadcast, logging, chart cache invalidation).
type RefreshWidgetCommand struct{ widgetCommand }

func NewRefreshWidgetCommand(service widgetService, telemetry Telemetry) *RefreshWidgetCommand {
	return &RefreshWidgetCommand{newWidgetCommand(service, telemetry)}
}

var _ gocommand.Commander[RefreshWidgetInput] = (*RefreshWidgetCommand)(nil)

// Execute needs an area or an instance id; a missing reason becomes "refresh".
func (c *RefreshWidgetCommand) Execute(ctx context.Context, msg RefreshWidgetInput) error {
	if c.service == nil {
		return errWidgetService
	}
	event := msg.Event
	if event.AreaCode == "" && event.Instance.ID == "" {
		return errors.New("commands: refresh needs an area or widget id")
	}
	if event.Reason == "" {
		event.Reason = "refresh"
	}
	if err := c.service.NotifyWidgetUpdated(ctx, event); err != nil {
		return err
	}
	c.telemetry.Record(ctx, EventWidgetRefresh, map[string]any{
		"area_code": event.AreaCode,
		"widget_id": event.Instance.ID,
		"reason":    event.Reason,
	})
	return nil
}
