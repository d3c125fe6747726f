package commands

import (
	"context"
	"errors"
	"strings"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-salesboard/components/dashboard"
)

// ApplyTableActionInput targets one table of a viewer.
type ApplyTableActionInput struct {
	Viewer dashboard.ViewerContext `json:"viewer"`
	Table  string                  `json:"table"`
	Action dashboard.TableAction   `json:"action"`
}

type tableService interface {
	ApplyTableAction(ctx context.Context, viewer dashboard.ViewerContext, code string, action dashboard.TableAction) (dashboard.TableSnapshot, error)
}

// ApplyTableActionCommand runs search, sort, paging and row activation
// against a viewer's table.
type ApplyTableActionCommand struct {
	service   tableService
	telemetry Telemetry
}

// NewApplyTableActionCommand builds the command.
func NewApplyTableActionCommand(service tableService, telemetry Telemetry) *ApplyTableActionCommand {
	return &ApplyTableActionCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ApplyTableActionInput] = (*ApplyTableActionCommand)(nil)

// Execute applies the action and drops the resulting snapshot.
func (c *ApplyTableActionCommand) Execute(ctx context.Context, msg ApplyTableActionInput) error {
	_, err := c.Run(ctx, msg)
	return err
}

// Run applies the action and returns the new table state.
func (c *ApplyTableActionCommand) Run(ctx context.Context, msg ApplyTableActionInput) (dashboard.TableSnapshot, error) {
	if c.service == nil {
		return dashboard.TableSnapshot{}, errors.New("table command requires service")
	}
	code := strings.TrimSpace(msg.Table)
	if code == "" {
		return dashboard.TableSnapshot{}, errors.New("table command requires table code")
	}
	snap, err := c.service.ApplyTableAction(ctx, msg.Viewer, code, msg.Action)
	if err != nil {
		return dashboard.TableSnapshot{}, recordFailure(ctx, c.telemetry, EventTable, err, map[string]any{"table": code})
	}
	c.telemetry.Record(ctx, EventTable, map[string]any{
		"table":  code,
		"status": string(snap.Status),
	})
	return snap, nil
}
