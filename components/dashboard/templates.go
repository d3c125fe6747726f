package dashboard

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	template "github.com/goliatone/go-template"
)

// Renderer renders a named template with data, writing to out when given.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

// Template names, relative to the template root.
const (
	TemplateDashboard = "dashboard.html"
	TemplateMetric    = "widgets/metric.html"
	TemplateDatatable = "widgets/datatable.html"
	TemplateTasks     = "widgets/tasks.html"
	TemplateChat      = "widgets/chat.html"
	TemplateChart     = "widgets/chart.html"
	TemplateGeneric   = "widgets/generic.html"
)

//go:embed templates/*.html templates/**/*.html
var embeddedTemplates embed.FS

var templateNames = []string{
	TemplateDashboard, TemplateMetric, TemplateDatatable, TemplateTasks,
	TemplateChat, TemplateChart, TemplateGeneric,
}

// templateRoot returns the filesystem and base dir holding the templates:
// dir on disk when set, else the embedded set.
func templateRoot(dir string) (fs.FS, string, error) {
	if dir == "" {
		return embeddedTemplates, "templates", nil
	}
	dir = filepath.Clean(dir)
	root, base := os.DirFS(filepath.Dir(dir)), filepath.Base(dir)
	var missing []string
	for _, name := range templateNames {
		if _, err := fs.Stat(root, path.Join(base, name)); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, "", fmt.Errorf("dashboard: template dir %s is missing %s", dir, strings.Join(missing, ", "))
	}
	return root, base, nil
}

// NewTemplateRenderer builds a go-template renderer. An empty dir uses the
// embedded templates; otherwise dir must provide every dashboard template.
func NewTemplateRenderer(dir string) (Renderer, error) {
	root, base, err := templateRoot(dir)
	if err != nil {
		return nil, err
	}
	return template.NewRenderer(
		template.WithFS(root),
		template.WithBaseDir(base),
		template.WithExtension(".html"),
	)
}

// widgetTemplate maps a definition code to its widget partial.
func widgetTemplate(definitionID string) string {
	switch definitionID {
	case WidgetQuoteGoal, WidgetExpiredQuotes, WidgetCustomers, WidgetPayingCustomers:
		return TemplateMetric
	case WidgetTable:
		return TemplateDatatable
	case WidgetTasks:
		return TemplateTasks
	case WidgetChat:
		return TemplateChat
	}
	if strings.HasSuffix(definitionID, "_chart") {
		return TemplateChart
	}
	return TemplateGeneric
}
