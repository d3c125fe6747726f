package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ettle/strcase"

	"github.com/goliatone/go-salesboard/components/dashboard"
)

type scaffoldCmd struct {
	Code         string   `required:"" help:"Widget code, dotted (e.g. sales.widget.margin)."`
	Name         string   `required:"" help:"Display name for the widget."`
	Description  string   `help:"One-line description used in the manifest."`
	Category     string   `default:"sales" help:"Widget category."`
	Manifest     string   `type:"path" help:"Manifest YAML to update; defaults to dashboard.manifest_path."`
	Schema       string   `type:"path" help:"JSON schema file for the widget configuration."`
	Tag          []string `help:"Manifest tags (repeatable)."`
	Maintainer   []string `help:"Maintainers to record (repeatable)."`
	Capabilities []string `help:"Provider capability labels (html, json, table...)."`
	Package      string   `default:"github.com/goliatone/go-salesboard/components/dashboard" help:"Go package holding the provider factory."`
	Out          string   `type:"path" help:"Provider stub path; defaults to components/dashboard/provider_<code>.go."`
	Overwrite    bool     `help:"Replace an existing manifest entry or stub."`
	SkipProvider bool     `help:"Only update the manifest."`
}

func (c *scaffoldCmd) Run(_ context.Context, g *Globals) error {
	if !strings.Contains(c.Code, ".") {
		return fmt.Errorf("salesdash: widget code %q needs at least one '.' segment", c.Code)
	}
	manifestPath := c.Manifest
	if manifestPath == "" {
		cfg, err := g.loadConfig()
		if err != nil {
			return err
		}
		manifestPath = cfg.Dashboard.ManifestPath
	}
	if manifestPath == "" {
		return errors.New("salesdash: --manifest or dashboard.manifest_path is required")
	}

	doc, err := loadOrInitManifest(manifestPath)
	if err != nil {
		return err
	}
	schema, err := readSchema(c.Schema)
	if err != nil {
		return err
	}

	providerType := providerTypeName(c.Code)
	entry := dashboard.ManifestWidget{
		Definition: dashboard.WidgetDefinition{
			Code:        c.Code,
			Name:        c.Name,
			Description: c.Description,
			Category:    c.Category,
			Schema:      schema,
		},
		Provider: dashboard.ManifestProvider{
			Name:         c.Name + " Provider",
			Summary:      c.Description,
			Entry:        c.Package + ".New" + providerType,
			Package:      c.Package,
			Capabilities: c.Capabilities,
		},
		Maintainers: c.Maintainer,
		Tags:        c.Tag,
	}
	if err := upsertWidget(doc, entry, c.Overwrite); err != nil {
		return err
	}
	if err := writeManifest(manifestPath, doc); err != nil {
		return err
	}

	if c.SkipProvider {
		fmt.Fprintf(g.out(), "added %s to %s\n", c.Code, manifestPath)
		return nil
	}
	out := c.Out
	if out == "" {
		out = filepath.Join("components", "dashboard", "provider_"+fileSlug(c.Code)+".go")
	}
	if err := writeProviderStub(out, providerType, c.Code, c.Overwrite); err != nil {
		return err
	}
	fmt.Fprintf(g.out(), "added %s to %s and generated %s\n", c.Code, manifestPath, out)
	return nil
}

// upsertWidget adds entry, replacing an existing one with the same code only
// when overwrite is set. Widgets stay sorted by code.
func upsertWidget(doc *dashboard.WidgetManifestDocument, entry dashboard.ManifestWidget, overwrite bool) error {
	idx := slices.IndexFunc(doc.Widgets, func(w dashboard.ManifestWidget) bool {
		return w.Definition.Code == entry.Definition.Code
	})
	switch {
	case idx >= 0 && !overwrite:
		return fmt.Errorf("salesdash: manifest already defines %s (use --overwrite)", entry.Definition.Code)
	case idx >= 0:
		doc.Widgets[idx] = entry
	default:
		doc.Widgets = append(doc.Widgets, entry)
	}
	slices.SortFunc(doc.Widgets, func(a, b dashboard.ManifestWidget) int {
		return strings.Compare(a.Definition.Code, b.Definition.Code)
	})
	return nil
}

func readSchema(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{"type": "object", "properties": map[string]any{}}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("salesdash: read schema: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("salesdash: parse schema: %w", err)
	}
	return schema, nil
}

func loadOrInitManifest(path string) (*dashboard.WidgetManifestDocument, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return &dashboard.WidgetManifestDocument{
			Version: dashboard.ManifestVersion,
			Widgets: []dashboard.ManifestWidget{},
			Source:  path,
		}, nil
	} else if err != nil {
		return nil, fmt.Errorf("salesdash: stat manifest: %w", err)
	}
	return dashboard.ReadManifest(path)
}

func writeManifest(path string, doc *dashboard.WidgetManifestDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("salesdash: mkdir %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("salesdash: create manifest: %w", err)
	}
	defer file.Close()

	return dashboard.WriteManifest(file, doc)
}

const providerStub = `package dashboard

import "context"

// %[1]s serves %[2]s widgets.
type %[1]s struct {
	Backends *SalesBackends
}

// New%[1]s builds the provider for the registry.
func New%[1]s(backends *SalesBackends) Provider {
	return &%[1]s{Backends: backends}
}

func (p *%[1]s) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	return WidgetData{"title": meta.Instance.DefinitionID}, nil
}
`

func writeProviderStub(path, providerType, code string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("salesdash: %s exists (use --overwrite or --out)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("salesdash: mkdir provider dir: %w", err)
	}
	content := fmt.Sprintf(providerStub, providerType, code)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("salesdash: write provider stub: %w", err)
	}
	return nil
}

// providerTypeName derives the Go type from the last code segment:
// sales.widget.top_customers becomes TopCustomersProvider.
func providerTypeName(code string) string {
	parts := strings.Split(code, ".")
	slug := strings.TrimSpace(parts[len(parts)-1])
	if slug == "" {
		slug = code
	}
	return strcase.ToPascal(slug) + "Provider"
}

func fileSlug(code string) string {
	return strcase.ToSnake(strings.ReplaceAll(code, ".", "_"))
}
