// Package goadmin seeds the sales dashboard navigation into a go-admin style
// shell and filters it per viewer.
package goadmin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	dashboard "github.com/goliatone/go-salesboard/components/dashboard"
	activitypkg "github.com/goliatone/go-salesboard/pkg/activity"
	"github.com/goliatone/go-salesboard/pkg/session"
)

// MenuBuilder ensures dashboard entries exist within the admin navigation.
type MenuBuilder interface {
	EnsureMenuItem(ctx context.Context, menuCode string, item MenuItem) error
}

// MenuItem captures a sidebar link.
type MenuItem struct {
	Code      string `json:"code"`
	Label     string `json:"label"`
	Route     string `json:"route"`
	Icon      string `json:"icon"`
	Position  int    `json:"position"`
	AdminOnly bool   `json:"admin_only,omitempty"`
}

// DefaultMenu is the salesperson sidebar plus the admin entry.
func DefaultMenu() []MenuItem {
	return []MenuItem{
		{Code: "sales.dashboard", Label: "Dashboard", Route: "/", Icon: "home", Position: 10},
		{Code: "sales.quotations", Label: "Cotizaciones", Route: "/quotations", Icon: "file-text", Position: 20},
		{Code: "sales.clients", Label: "Clientes", Route: "/clients", Icon: "users", Position: 30},
		{Code: "sales.new_clients", Label: "Clientes Nuevos", Route: "/new-clients", Icon: "user-plus", Position: 40},
		{Code: "sales.clients_without_quote", Label: "Sin Cotización", Route: "/clients-without-quote", Icon: "file-minus", Position: 50},
		{Code: "sales.proactive", Label: "Ventas Proactivas", Route: "/proactive-sales", Icon: "trending-up", Position: 60},
		{Code: "sales.orders", Label: "Ventas (VSP)", Route: "/sales-orders", Icon: "bar-chart-2", Position: 70},
		{Code: "sales.tasks", Label: "Tareas", Route: "/tasks", Icon: "list-todo", Position: 80},
		{Code: "sales.admin", Label: "Administración", Route: "/admin", Icon: "shield", Position: 90, AdminOnly: true},
	}
}

// Config wires the dashboard service and menu into an admin shell.
type Config struct {
	EnableDashboard bool
	MenuCode        string
	MenuBuilder     MenuBuilder
	Service         *dashboard.Service
	// Items replaces DefaultMenu when set.
	Items          []MenuItem
	ActivityHooks  activitypkg.Hooks
	ActivityConfig activitypkg.Config
}

// Admin exposes helpers for go-admin style applications.
type Admin struct {
	cfg     Config
	items   []MenuItem
	emitter *activitypkg.Emitter
}

// New validates the config and applies defaults.
func New(cfg Config) (*Admin, error) {
	if cfg.EnableDashboard && cfg.Service == nil {
		return nil, errors.New("goadmin: dashboard service is required when enabled")
	}
	if cfg.MenuCode == "" {
		cfg.MenuCode = "sales.main"
	}
	items := cfg.Items
	if len(items) == 0 {
		items = DefaultMenu()
	}
	items = slices.Clone(items)
	seen := map[string]bool{}
	for _, item := range items {
		if strings.TrimSpace(item.Code) == "" || strings.TrimSpace(item.Route) == "" {
			return nil, fmt.Errorf("goadmin: menu item %q needs a code and a route", item.Label)
		}
		if seen[item.Code] {
			return nil, fmt.Errorf("goadmin: duplicate menu item %q", item.Code)
		}
		seen[item.Code] = true
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	return &Admin{
		cfg:     cfg,
		items:   items,
		emitter: activitypkg.NewEmitter(cfg.ActivityHooks, cfg.ActivityConfig),
	}, nil
}

// Dashboard exposes the configured dashboard service when enabled.
func (a *Admin) Dashboard() *dashboard.Service {
	if !a.cfg.EnableDashboard {
		return nil
	}
	return a.cfg.Service
}

// Bootstrap seeds every menu entry when dashboard support is enabled.
func (a *Admin) Bootstrap(ctx context.Context) error {
	if !a.cfg.EnableDashboard || a.cfg.MenuBuilder == nil {
		return nil
	}
	var errs []error
	for _, item := range a.items {
		if err := a.cfg.MenuBuilder.EnsureMenuItem(ctx, a.cfg.MenuCode, item); err != nil {
			errs = append(errs, fmt.Errorf("goadmin: ensure %s: %w", item.Code, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	return a.emitter.Emit(ctx, activitypkg.Event{
		Verb:       "menu.seeded",
		ObjectType: "menu",
		ObjectID:   a.cfg.MenuCode,
		Metadata:   map[string]any{"items": len(a.items)},
	})
}

// Menu returns the entries the viewer may see, in position order.
func (a *Admin) Menu(viewer dashboard.ViewerContext) []MenuItem {
	admin := isAdmin(viewer.Roles)
	out := make([]MenuItem, 0, len(a.items))
	for _, item := range a.items {
		if item.AdminOnly && !admin {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Navigation adapts Menu to dashboard.ControllerOptions.Navigation.
func (a *Admin) Navigation(viewer dashboard.ViewerContext) any {
	return a.Menu(viewer)
}

func isAdmin(roles []string) bool {
	for _, role := range roles {
		if strings.EqualFold(role, session.RoleAdmin) {
			return true
		}
	}
	return false
}
