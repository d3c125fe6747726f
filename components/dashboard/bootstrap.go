package dashboard

import (
	"context"
	"errors"
	"fmt"
)

// SeedReport counts what a bootstrap run created. Entries that already
// existed are not counted, so a second run reports zeros.
type SeedReport struct {
	Areas       int
	Definitions int
	Widgets     int
}

// Seed registers the sales areas and widget definitions and, when
// seedLayout is set, places the starter widgets.
func Seed(ctx context.Context, store WidgetStore, registry ProviderRegistry, service *Service, seedLayout bool) (SeedReport, error) {
	var report SeedReport
	var err error
	if report.Areas, err = RegisterAreas(ctx, store); err != nil {
		return report, err
	}
	if report.Definitions, err = RegisterDefinitions(ctx, store, registry); err != nil {
		return report, err
	}
	if !seedLayout {
		return report, nil
	}
	report.Widgets, err = SeedLayout(ctx, service)
	return report, err
}

// RegisterAreas ensures the dashboard areas exist and returns how many were new.
func RegisterAreas(ctx context.Context, store WidgetStore) (int, error) {
	if store == nil {
		return 0, errMissingWidgetStore
	}
	created := 0
	for _, area := range DefaultAreaDefinitions() {
		ok, err := store.EnsureArea(ctx, area)
		if err != nil {
			return created, fmt.Errorf("dashboard: area %s: %w", area.Code, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// RegisterDefinitions stores every sales widget definition and mirrors it
// into the registry. Failures are collected so one bad definition does not
// hide the others.
func RegisterDefinitions(ctx context.Context, store WidgetStore, registry ProviderRegistry) (int, error) {
	if store == nil {
		return 0, errMissingWidgetStore
	}
	created := 0
	var errs []error
	for _, def := range DefaultWidgetDefinitions() {
		ok, err := store.EnsureDefinition(ctx, def)
		if err != nil {
			errs = append(errs, fmt.Errorf("dashboard: definition %s: %w", def.Code, err))
			continue
		}
		if ok {
			created++
		}
		if registry == nil {
			continue
		}
		if err := registry.RegisterDefinition(def); err != nil {
			errs = append(errs, fmt.Errorf("dashboard: registry definition %s: %w", def.Code, err))
		}
	}
	return created, errors.Join(errs...)
}

// SeedLayout places the starter widgets and returns how many were added.
func SeedLayout(ctx context.Context, service *Service) (int, error) {
	if service == nil {
		return 0, errors.New("dashboard: service is required to seed layout")
	}
	added := 0
	var errs []error
	for _, req := range DefaultSeedWidgets() {
		if err := service.AddWidget(ctx, req); err != nil {
			errs = append(errs, fmt.Errorf("dashboard: seed %s: %w", req.DefinitionID, err))
			continue
		}
		added++
	}
	return added, errors.Join(errs...)
}
