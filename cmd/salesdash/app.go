package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	dashboard "github.com/goliatone/go-salesboard/components/dashboard"
	"github.com/goliatone/go-salesboard/components/dashboard/commands"
	"github.com/goliatone/go-salesboard/components/dashboard/gorouter"
	"github.com/goliatone/go-salesboard/components/dashboard/httpapi"
	"github.com/goliatone/go-salesboard/components/dashboard/queries"
	"github.com/goliatone/go-salesboard/pkg/activity"
	"github.com/goliatone/go-salesboard/pkg/chat"
	"github.com/goliatone/go-salesboard/pkg/config"
	"github.com/goliatone/go-salesboard/pkg/goadmin"
	"github.com/goliatone/go-salesboard/pkg/salesapi"
	"github.com/goliatone/go-salesboard/pkg/session"
	"github.com/goliatone/go-salesboard/pkg/tasks"
)

// application holds every collaborator the server mounts.
type application struct {
	cfg        config.Config
	logger     *slog.Logger
	client     salesapi.Client
	service    *dashboard.Service
	controller *dashboard.Controller
	handlers   *httpapi.Handlers
	broadcast  *dashboard.BroadcastHook
	sessions   *session.MemoryStore
	admin      *goadmin.Admin
	closers    []io.Closer
}

func (a *application) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// releaseSession drops the table views held for a session that ended.
func (a *application) releaseSession(ctx context.Context, sess session.Session) {
	a.service.ForgetViewer(gorouter.ViewerFromSession(sess, ""))
	a.logger.DebugContext(ctx, "session released", "session", sess.ID, "user", sess.User.Email)
}

// salesSettings maps configuration onto provider settings. The mock backend
// is anchored on the demo date unless a date is configured.
func salesSettings(cfg config.Config) (dashboard.SalesSettings, error) {
	settings := dashboard.DefaultSalesSettings()
	settings.QuoteGoal = cfg.Sales.QuoteGoal
	settings.NewClientsTarget = cfg.Sales.NewClientsTarget
	settings.MonthRange = cfg.Sales.MonthRange
	settings.PageSize = cfg.Table.DefaultPageSize
	settings.PageSizeOptions = cfg.Table.PageSizeOptions
	date, err := cfg.Sales.Date()
	if err != nil {
		return settings, err
	}
	switch {
	case !date.IsZero():
		settings.DocumentDate = date
	case !cfg.API.Mock:
		settings.DocumentDate = date
	}
	return settings, nil
}

func newSalesClient(cfg config.Config) (salesapi.Client, error) {
	if cfg.API.Mock {
		return salesapi.NewMockClient(salesapi.MockData{}), nil
	}
	return salesapi.NewHTTPClient(salesapi.HTTPConfig{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	})
}

func newTaskStore(ctx context.Context, cfg config.Config) (tasks.Store, io.Closer, error) {
	if cfg.Tasks.DBPath == "" {
		return tasks.NewMemoryStore(tasks.DemoTasks()), nil, nil
	}
	store, err := tasks.OpenSQLite(ctx, cfg.Tasks.DBPath, tasks.DemoTasks())
	if err != nil {
		return nil, nil, err
	}
	return store, store, nil
}

// buildApplication wires the dashboard from configuration without binding a
// listener.
func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{cfg: cfg, logger: logger}

	client, err := newSalesClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("salesdash: sales client: %w", err)
	}
	app.client = client

	taskStore, closer, err := newTaskStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("salesdash: task store: %w", err)
	}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}

	settings, err := salesSettings(cfg)
	if err != nil {
		return nil, err
	}
	backends := dashboard.NewSalesBackends(
		salesapi.NewSalesRepository(client),
		taskStore,
		chat.NewRuleResponder(nil),
		settings,
	)
	backends.Charts = dashboard.NewChartCache(cfg.Dashboard.ChartCacheTTL)
	backends.ChartTheme = cfg.Dashboard.ChartTheme

	registry, err := dashboard.LoadRegistry(backends)
	if err != nil {
		return nil, fmt.Errorf("salesdash: registry: %w", err)
	}
	var manifest *dashboard.WidgetManifestDocument
	if path := cfg.Dashboard.ManifestPath; path != "" {
		manifest, err = registry.LoadManifestFile(path)
		if err != nil {
			return nil, fmt.Errorf("salesdash: manifest: %w", err)
		}
		logger.Info("manifest loaded", "path", path, "widgets", len(manifest.Widgets), "placements", len(manifest.Layout))
	}
	if unbound := registry.Unbound(); len(unbound) > 0 {
		logger.Warn("widgets without provider render as errors", "codes", unbound)
	}

	telemetry := dashboard.SlogTelemetry{Logger: logger}
	app.broadcast = dashboard.NewBroadcastHook()
	store := dashboard.NewMemoryWidgetStore()
	activityHooks := activity.Hooks{activity.HookFunc(func(ctx context.Context, event activity.Event) error {
		logger.InfoContext(ctx, "activity",
			"verb", event.Verb,
			"object_type", event.ObjectType,
			"object_id", event.ObjectID,
			"user_id", event.UserID,
		)
		return nil
	})}

	app.service = dashboard.NewService(dashboard.Options{
		WidgetStore: store,
		Providers:   registry,
		Backends:    backends,
		RefreshHook: dashboard.RefreshHooks{
			app.broadcast,
			dashboard.LogRefreshHook{Logger: logger},
		},
		Telemetry:      telemetry,
		Translator:     dashboard.NewCatalogTranslator(dashboard.DefaultCatalog()),
		ActivityHooks:  activityHooks,
		ActivityConfig: activity.Config{Enabled: true, Channel: "salesboard"},
	})

	report, err := commands.NewBootstrapCommand(store, registry, app.service, telemetry).Query(ctx, commands.BootstrapInput{
		StarterLayout: true,
		Placements:    manifest.SeedRequests(),
	})
	if err != nil {
		return nil, fmt.Errorf("salesdash: bootstrap dashboard: %w", err)
	}
	logger.Debug("dashboard bootstrapped",
		"areas", report.Areas,
		"definitions", report.Definitions,
		"widgets", report.Widgets,
	)

	app.admin, err = goadmin.New(goadmin.Config{
		EnableDashboard: true,
		Service:         app.service,
		MenuBuilder:     logMenuBuilder{logger: logger},
		ActivityHooks:   activityHooks,
		ActivityConfig:  activity.Config{Enabled: true, Channel: "salesboard"},
	})
	if err != nil {
		return nil, err
	}
	if err := app.admin.Bootstrap(ctx); err != nil {
		return nil, fmt.Errorf("salesdash: menu: %w", err)
	}

	renderer, err := dashboard.NewTemplateRenderer(cfg.Dashboard.TemplateDir)
	if err != nil {
		return nil, fmt.Errorf("salesdash: templates: %w", err)
	}
	app.controller = dashboard.NewController(dashboard.ControllerOptions{
		Service:    app.service,
		Renderer:   renderer,
		Title:      "Panel de Ventas",
		Navigation: app.admin.Navigation,
	})

	app.handlers = &httpapi.Handlers{
		Assign:      commands.NewAssignWidgetCommand(app.service, telemetry),
		Remove:      commands.NewRemoveWidgetCommand(app.service, telemetry),
		Reorder:     commands.NewReorderWidgetsCommand(app.service, telemetry),
		Refresh:     commands.NewRefreshWidgetCommand(app.service, telemetry),
		Update:      commands.NewUpdateWidgetCommand(app.service, telemetry),
		Preferences: commands.NewSaveLayoutPreferencesCommand(app.service, telemetry),
		DeleteTask:  commands.NewDeleteTaskCommand(app.service, telemetry),
		Table:       queries.NewTableQuery(app.service),
		TableApply:  commands.NewApplyTableActionCommand(app.service, telemetry),
		Tasks:       queries.NewTasksQuery(app.service),
		CreateTask:  commands.NewCreateTaskCommand(app.service, telemetry),
		ToggleTask:  commands.NewToggleTaskCommand(app.service, telemetry),
		Chat:        commands.NewChatCommand(app.service, telemetry),
		Layout:      queries.NewLayoutQuery(app.service),
		Area:        queries.NewAreaQuery(app.service),
	}
	app.sessions = session.NewMemoryStore(cfg.Dashboard.SessionTTL)
	app.sessions.OnExpire(func(sess session.Session) {
		app.releaseSession(context.Background(), sess)
	})
	return app, nil
}

type logMenuBuilder struct {
	logger *slog.Logger
}

func (b logMenuBuilder) EnsureMenuItem(ctx context.Context, menuCode string, item goadmin.MenuItem) error {
	b.logger.DebugContext(ctx, "menu item", "menu", menuCode, "code", item.Code, "route", item.Route)
	return nil
}
