package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-salesboard/components/dashboard"
	"github.com/goliatone/go-salesboard/components/datatable"
	"github.com/goliatone/go-salesboard/pkg/config"
	"github.com/goliatone/go-salesboard/pkg/session"
)

func testGlobals() (*Globals, *bytes.Buffer) {
	var out bytes.Buffer
	return &Globals{stdout: &out, stderr: io.Discard}, &out
}

func writeRows(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rows.json")
	require.NoError(t, os.WriteFile(path, []byte(rows), 0o600))
	return path
}

const clientRows = `[
	{"name": "Ñandú Textiles", "total": 1200.5},
	{"name": "Aceros del Norte", "total": 90},
	{"name": "Muebles Modernos", "total": 4500},
	{"name": "Constructora Moderna"}
]`

func TestTableCommandJSONSurface(t *testing.T) {
	g, out := testGlobals()
	cmd := &tableCmd{
		File:     writeRows(t, clientRows),
		Sort:     "total",
		Desc:     true,
		Page:     1,
		PageSize: 2,
		Locale:   "es-MX",
		JSON:     true,
	}
	require.NoError(t, cmd.Run(context.Background(), g))

	var surface datatable.Surface
	require.NoError(t, json.Unmarshal(out.Bytes(), &surface))
	require.Len(t, surface.Rows, 2)
	assert.Equal(t, "Muebles Modernos", surface.Rows[0].Cells[0])
	assert.Equal(t, "Ñandú Textiles", surface.Rows[1].Cells[0])
	require.NotNil(t, surface.Pagination)
	assert.Equal(t, 2, surface.Pagination.TotalPages)
	assert.Equal(t, 4, surface.Pagination.Total)
}

func TestTableCommandMissingValuesStayLast(t *testing.T) {
	cmd := &tableCmd{Sort: "total", Page: 2, PageSize: 2, Locale: "es-MX"}
	rows, err := readRows(writeRows(t, clientRows))
	require.NoError(t, err)

	view := cmd.view(rows)
	page := view.Rows()
	require.Len(t, page, 2)
	assert.Equal(t, "Muebles Modernos", page[0]["name"])
	assert.Equal(t, "Constructora Moderna", page[1]["name"])
}

func TestTableCommandRendersGrid(t *testing.T) {
	g, out := testGlobals()
	cmd := &tableCmd{File: writeRows(t, clientRows), Search: "moderna", Page: 1, PageSize: 10, Locale: "es-MX"}
	require.NoError(t, cmd.Run(context.Background(), g))

	text := out.String()
	assert.Contains(t, text, "Name")
	assert.Contains(t, text, "Constructora Moderna")
	assert.NotContains(t, text, "Aceros del Norte")
	assert.Contains(t, text, "Mostrando 1-1 de 1")
}

func TestTableCommandEmptyResult(t *testing.T) {
	g, out := testGlobals()
	cmd := &tableCmd{File: writeRows(t, clientRows), Search: "zzz", Page: 1, PageSize: 10}
	require.NoError(t, cmd.Run(context.Background(), g))
	assert.Contains(t, out.String(), datatable.DefaultEmptyMessage)
}

func TestReadRowsRejectsNonArray(t *testing.T) {
	_, err := readRows(writeRows(t, `{"name": "x"}`))
	require.Error(t, err)
}

func TestRowKeysAreSortedUnion(t *testing.T) {
	keys := rowKeys([]datatable.Row{{"b": 1}, {"a": 2, "b": 3}, {"c": nil}})
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestScaffoldWritesManifestAndStub(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "widgets.yaml")
	stub := filepath.Join(dir, "provider_margin.go")
	g, out := testGlobals()

	cmd := &scaffoldCmd{
		Code:        "sales.widget.gross_margin",
		Name:        "Margen bruto",
		Description: "Margen por vendedor",
		Category:    "sales",
		Manifest:    manifest,
		Package:     "github.com/goliatone/go-salesboard/components/dashboard",
		Out:         stub,
		Tag:         []string{"finanzas"},
	}
	require.NoError(t, cmd.Run(context.Background(), g))
	assert.Contains(t, out.String(), "sales.widget.gross_margin")

	doc, err := dashboard.ReadManifest(manifest)
	require.NoError(t, err)
	require.Len(t, doc.Widgets, 1)
	widget := doc.Widgets[0]
	assert.Equal(t, "Margen bruto", widget.Definition.Name)
	assert.Equal(t, []string{"finanzas"}, widget.Tags)
	assert.True(t, strings.HasSuffix(widget.Provider.Entry, ".NewGrossMarginProvider"))

	source, err := os.ReadFile(stub)
	require.NoError(t, err)
	assert.Contains(t, string(source), "type GrossMarginProvider struct")

	err = cmd.Run(context.Background(), g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already defines")

	cmd.Overwrite = true
	cmd.Name = "Margen"
	require.NoError(t, cmd.Run(context.Background(), g))
	doc, err = dashboard.ReadManifest(manifest)
	require.NoError(t, err)
	require.Len(t, doc.Widgets, 1)
	assert.Equal(t, "Margen", doc.Widgets[0].Definition.Name)
}

func TestScaffoldRejectsUndottedCode(t *testing.T) {
	g, _ := testGlobals()
	cmd := &scaffoldCmd{Code: "margin", Name: "Margin", Manifest: filepath.Join(t.TempDir(), "w.yaml")}
	require.Error(t, cmd.Run(context.Background(), g))
}

func TestProviderTypeName(t *testing.T) {
	assert.Equal(t, "TopCustomersProvider", providerTypeName("sales.widget.top_customers"))
	assert.Equal(t, "sales_widget_top_customers", fileSlug("sales.widget.top_customers"))
}

func TestChatCommandAnswersArgumentsAndStdin(t *testing.T) {
	g, out := testGlobals()
	cmd := &chatCmd{Message: []string{"¿cómo", "van", "las", "ventas?"}}
	require.NoError(t, cmd.Run(context.Background(), g))
	assert.Contains(t, out.String(), "52 cotizaciones")

	out.Reset()
	cmd = &chatCmd{in: strings.NewReader("\nhola\n")}
	require.NoError(t, cmd.Run(context.Background(), g))
	assert.Contains(t, out.String(), "Puedo asistirte")
}

func TestBuildApplicationServesDemoData(t *testing.T) {
	cfg := config.Default()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app, err := buildApplication(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	viewer := dashboard.ViewerContext{UserID: "1", SalespersonCode: 1, Locale: "es"}
	snap, err := app.service.TableSnapshot(context.Background(), viewer, dashboard.TableQuotations)
	require.NoError(t, err)
	assert.NotEqual(t, dashboard.TableError, snap.Status)
	assert.NotEmpty(t, snap.Surface.Headers)

	payload, err := app.controller.LayoutPayload(context.Background(), viewer)
	require.NoError(t, err)
	assert.Contains(t, payload, "navigation")
}

func TestExpiredSessionsReleaseViewerState(t *testing.T) {
	cfg := config.Default()
	cfg.Dashboard.SessionTTL = time.Millisecond
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	app, err := buildApplication(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	ctx := context.Background()
	sess, err := app.sessions.Create(ctx, session.User{ID: "1", Email: "vendedor@example.com", Code: 1}, "tok")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	assert.Equal(t, 1, app.sessions.Sweep(ctx))
	assert.Contains(t, logs.String(), "session released")
	assert.Contains(t, logs.String(), sess.ID)
}

func TestSalesSettingsFromConfig(t *testing.T) {
	cfg := config.Default()
	settings, err := salesSettings(cfg)
	require.NoError(t, err)
	assert.Equal(t, dashboard.DefaultDocumentDate, settings.DocumentDate)
	assert.Equal(t, 10, settings.PageSize)

	cfg.API.Mock = false
	settings, err = salesSettings(cfg)
	require.NoError(t, err)
	assert.True(t, settings.DocumentDate.IsZero())

	cfg.Sales.DocumentDate = "2025-03-01"
	settings, err = salesSettings(cfg)
	require.NoError(t, err)
	assert.Equal(t, 2025, settings.DocumentDate.Year())
}

func TestBuildApplicationAppliesManifestLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widgets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: "1"
widgets: []
layout:
  - definition: sales.widget.table
    area: sales.dashboard.footer
    configuration:
      table: clients_without_quote
`), 0o600))
	cfg := config.Default()
	cfg.Dashboard.ManifestPath = path

	app, err := buildApplication(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	layout, err := app.service.ConfigureLayout(context.Background(), dashboard.ViewerContext{UserID: "1", SalespersonCode: 1})
	require.NoError(t, err)
	found := false
	for _, w := range layout.Areas[dashboard.AreaFooter] {
		if w.DefinitionID == dashboard.WidgetTable && w.Configuration["table"] == dashboard.TableClientsWithoutQuote {
			found = true
		}
	}
	assert.True(t, found, "manifest placement should be in the footer area")
}

func TestNewLoggerFormatsAndLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, slog.LevelInfo, "json")
	logger.Debug("hidden")
	logger.Info("dashboard ready", "address", ":8080")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record), "one JSON record expected, got %q", buf.String())
	assert.Equal(t, "dashboard ready", record["msg"])
	assert.Equal(t, ":8080", record["address"])

	buf.Reset()
	newLogger(&buf, slog.LevelDebug, "TEXT").Debug("seeded", "widgets", 3)
	assert.Contains(t, buf.String(), "msg=seeded widgets=3")
}

func TestLoadConfigAppliesLogOverrides(t *testing.T) {
	g, _ := testGlobals()
	g.LogLevel = "debug"
	g.LogFormat = "text"
	cfg, err := g.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
}
