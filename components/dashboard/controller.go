package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// LayoutResolver resolves the widget layout of a viewer. *Service satisfies it.
type LayoutResolver interface {
	ConfigureLayout(ctx context.Context, viewer ViewerContext) (Layout, error)
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	Service  LayoutResolver
	Renderer Renderer
	// Template defaults to dashboard.html.
	Template string
	Title    string
	// Navigation returns the menu entries visible to the viewer.
	Navigation func(ViewerContext) any
}

// Controller turns resolved layouts into template payloads and HTML.
type Controller struct {
	opts ControllerOptions
}

// NewController wires the service and renderer into a controller.
func NewController(opts ControllerOptions) *Controller {
	if opts.Template == "" {
		opts.Template = TemplateDashboard
	}
	if opts.Title == "" {
		opts.Title = "Dashboard"
	}
	return &Controller{opts: opts}
}

// Render resolves the layout for a viewer and returns it to the caller.
func (c *Controller) Render(ctx context.Context, viewer ViewerContext) (Layout, error) {
	if c.opts.Service == nil {
		return Layout{}, nil
	}
	return c.opts.Service.ConfigureLayout(ctx, viewer)
}

// LayoutPayload builds the template/JSON payload: areas keyed by their short
// name (main, sidebar, footer), each with its widgets and provider data.
func (c *Controller) LayoutPayload(ctx context.Context, viewer ViewerContext) (map[string]any, error) {
	layout, err := c.Render(ctx, viewer)
	if err != nil {
		return nil, err
	}
	areas := make(map[string]any, len(layout.Areas))
	for code, widgets := range layout.Areas {
		items := make([]any, 0, len(widgets))
		for _, w := range widgets {
			item := map[string]any{
				"id":         w.ID,
				"definition": w.DefinitionID,
				"template":   widgetTemplate(w.DefinitionID),
				"area":       code,
				"config":     w.Configuration,
			}
			if data, ok := w.Metadata["data"]; ok {
				item["data"] = templateValue(data)
			}
			items = append(items, item)
		}
		areas[areaKey(code)] = map[string]any{
			"code":    code,
			"widgets": items,
		}
	}
	payload := map[string]any{
		"title":  c.opts.Title,
		"locale": viewer.Locale,
		"viewer": map[string]any{
			"user_id":          viewer.UserID,
			"roles":            viewer.Roles,
			"salesperson_code": viewer.SalespersonCode,
		},
		"areas": areas,
	}
	if c.opts.Navigation != nil {
		payload["navigation"] = templateValue(c.opts.Navigation(viewer))
	}
	return payload, nil
}

// RenderTemplate renders the dashboard page into out.
func (c *Controller) RenderTemplate(ctx context.Context, viewer ViewerContext, out io.Writer) error {
	if c.opts.Renderer == nil {
		return errors.New("dashboard: renderer not configured")
	}
	payload, err := c.LayoutPayload(ctx, viewer)
	if err != nil {
		return err
	}
	_, err = c.opts.Renderer.Render(c.opts.Template, payload, out)
	return err
}

// RenderTable renders a table snapshot with the datatable widget template.
func (c *Controller) RenderTable(snapshot TableSnapshot, out io.Writer) error {
	if c.opts.Renderer == nil {
		return errors.New("dashboard: renderer not configured")
	}
	_, err := c.opts.Renderer.Render(TemplateDatatable, map[string]any{
		"widget": map[string]any{
			"id":   snapshot.Code,
			"data": templateValue(snapshot.WidgetData()),
		},
	}, out)
	return err
}

// templateValue flattens structs into maps keyed by their JSON names so
// templates address fields the same way JSON clients do.
func templateValue(value any) any {
	raw, err := json.Marshal(value)
	if err != nil {
		return value
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return value
	}
	return out
}

func areaKey(code string) string {
	if idx := strings.LastIndex(code, "."); idx >= 0 {
		return code[idx+1:]
	}
	return code
}
