package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-salesboard/components/dashboard"
)

var errBootstrapStore = errors.New("commands: bootstrap needs a widget store")

// BootstrapInput selects what a bootstrap run creates beyond the sales
// areas and widget definitions, which are always ensured.
type BootstrapInput struct {
	// StarterLayout places the default sales widgets.
	StarterLayout bool
	// Placements are extra widgets, usually read from a manifest.
	Placements []dashboard.AddWidgetRequest
}

// BootstrapCommand prepares a widget store for the sales dashboard.
type BootstrapCommand struct {
	store     dashboard.WidgetStore
	registry  dashboard.ProviderRegistry
	service   *dashboard.Service
	telemetry Telemetry
}

// NewBootstrapCommand returns the command. The service is only required when
// the input asks for widgets to be placed.
func NewBootstrapCommand(store dashboard.WidgetStore, registry dashboard.ProviderRegistry, service *dashboard.Service, telemetry Telemetry) *BootstrapCommand {
	return &BootstrapCommand{
		store:     store,
		registry:  registry,
		service:   service,
		telemetry: normalizeTelemetry(telemetry),
	}
}

var (
	_ gocommand.Commander[BootstrapInput]                     = (*BootstrapCommand)(nil)
	_ gocommand.Querier[BootstrapInput, dashboard.SeedReport] = (*BootstrapCommand)(nil)
)

// Execute implements gocommand.Commander.
func (c *BootstrapCommand) Execute(ctx context.Context, msg BootstrapInput) error {
	_, err := c.Query(ctx, msg)
	return err
}

// Query runs the bootstrap and reports what was created.
func (c *BootstrapCommand) Query(ctx context.Context, msg BootstrapInput) (dashboard.SeedReport, error) {
	payload := map[string]any{
		"starter_layout": msg.StarterLayout,
		"placements":     len(msg.Placements),
	}
	if c.store == nil {
		return dashboard.SeedReport{}, recordFailure(ctx, c.telemetry, EventSeed, errBootstrapStore, payload)
	}
	placing := msg.StarterLayout || len(msg.Placements) > 0
	if placing && c.service == nil {
		return dashboard.SeedReport{}, recordFailure(ctx, c.telemetry, EventSeed, errWidgetService, payload)
	}
	report, err := dashboard.Seed(ctx, c.store, c.registry, c.service, msg.StarterLayout)
	if err != nil {
		return report, recordFailure(ctx, c.telemetry, EventSeed, err, payload)
	}
	for _, req := range msg.Placements {
		if err := c.service.AddWidget(ctx, req); err != nil {
			err = fmt.Errorf("commands: place %s in %s: %w", req.DefinitionID, req.AreaCode, err)
			return report, recordFailure(ctx, c.telemetry, EventSeed, err, payload)
		}
		report.Widgets++
	}
	payload["areas"] = report.Areas
	payload["definitions"] = report.Definitions
	payload["widgets"] = report.Widgets
	c.telemetry.Record(ctx, EventSeed, payload)
	return report, nil
}
