package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-salesboard/components/dashboard"
)

// SaveLayoutPreferencesInput carries a viewer's layout and table overrides.
type SaveLayoutPreferencesInput struct {
	Viewer        dashboard.ViewerContext `json:"viewer"`
	AreaOrder     map[string][]string     `json:"area_order"`
	HiddenWidgets []string                `json:"hidden_widget_ids"`
	// TablePageSizes maps table codes to the viewer's page size.
	TablePageSizes map[string]int `json:"table_page_sizes"`
}

type preferenceService interface {
	SavePreferences(ctx context.Context, viewer dashboard.ViewerContext, overrides dashboard.LayoutOverrides) error
}

// SaveLayoutPreferencesCommand persists per-user layout overrides.
type SaveLayoutPreferencesCommand struct {
	service   preferenceService
	telemetry Telemetry
}

func NewSaveLayoutPreferencesCommand(service preferenceService, telemetry Telemetry) *SaveLayoutPreferencesCommand {
	return &SaveLayoutPreferencesCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveLayoutPreferencesInput] = (*SaveLayoutPreferencesCommand)(nil)

// Execute validates every override before saving any of them.
func (c *SaveLayoutPreferencesCommand) Execute(ctx context.Context, msg SaveLayoutPreferencesInput) error {
	if c.service == nil {
		return errors.New("commands: preference service not configured")
	}
	if msg.Viewer.UserID == "" {
		return errors.New("commands: preferences need a viewer user id")
	}
	overrides, err := msg.overrides()
	if err != nil {
		return err
	}
	if err := c.service.SavePreferences(ctx, msg.Viewer, overrides); err != nil {
		return recordFailure(ctx, c.telemetry, EventPreferencesSave, err, map[string]any{"user_id": msg.Viewer.UserID})
	}
	c.telemetry.Record(ctx, EventPreferencesSave, map[string]any{
		"user_id":     msg.Viewer.UserID,
		"areas":       len(overrides.AreaOrder),
		"hidden_cnt":  len(overrides.HiddenWidgets),
		"table_sizes": len(overrides.TablePageSizes),
	})
	return nil
}

func (msg SaveLayoutPreferencesInput) overrides() (dashboard.LayoutOverrides, error) {
	var errs []error
	for area := range msg.AreaOrder {
		if err := checkArea(area); err != nil {
			errs = append(errs, err)
		}
	}
	for code, size := range msg.TablePageSizes {
		if !dashboard.KnownTable(code) {
			errs = append(errs, fmt.Errorf("%w: %s", dashboard.ErrUnknownTable, code))
			continue
		}
		if size <= 0 {
			errs = append(errs, fmt.Errorf("%w: page size %d for %s", dashboard.ErrInvalidTableAction, size, code))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return dashboard.LayoutOverrides{}, err
	}
	hidden := make(map[string]bool, len(msg.HiddenWidgets))
	for _, id := range msg.HiddenWidgets {
		if id = strings.TrimSpace(id); id != "" {
			hidden[id] = true
		}
	}
	return dashboard.LayoutOverrides{
		AreaOrder:      msg.AreaOrder,
		HiddenWidgets:  hidden,
		TablePageSizes: msg.TablePageSizes,
		Locale:         msg.Viewer.Locale,
	}, nil
}
