package dashboard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeManifest(t *testing.T) {
	const payload = `
version: 1
name: community-pack
widgets:
  - definition:
      code: community.widget.metrics
      name: Community Metrics
      description: Shows metrics pushed by the community pack.
      category: community
      schema:
        type: object
        properties:
          range:
            type: string
    provider:
      name: Community Provider
      summary: Calls the community metrics API.
      entry: github.com/example/community.Provider
      package: github.com/example/community
      docs_url: https://example.com/widgets/metrics
      capabilities: ["html","json"]
`
	doc, err := DecodeManifest(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, doc.Widgets, 1)

	widget := doc.Widgets[0]
	assert.Equal(t, "community.widget.metrics", widget.Definition.Code)
	assert.Equal(t, "Community Metrics", widget.Definition.Name)
	assert.Equal(t, "Community Provider", widget.Provider.Name)
	assert.Equal(t, "github.com/example/community.Provider", widget.Provider.Entry)
	assert.Equal(t, "community", widget.Definition.Category)
}

func TestRegistryLoadManifestDocument(t *testing.T) {
	doc := &WidgetManifestDocument{
		Version: manifestVersionV1,
		Widgets: []ManifestWidget{
			{
				Definition: WidgetDefinition{
					Code: "acme.widget.inventory",
					Name: "Inventory",
				},
				Provider: ManifestProvider{
					Name:    "Inventory Provider",
					Summary: "Fetches inventory counts",
					Entry:   "github.com/acme/widgets.NewInventoryProvider",
				},
			},
		},
	}
	reg := NewRegistry()

	err := reg.LoadManifestDocument(doc)
	require.NoError(t, err)

	def, ok := reg.Definition("acme.widget.inventory")
	require.True(t, ok)
	assert.Equal(t, "Inventory", def.Name)

	meta, ok := reg.ProviderMetadata("acme.widget.inventory")
	require.True(t, ok)
	assert.Equal(t, "Inventory Provider", meta.Name)
	assert.Equal(t, "github.com/acme/widgets.NewInventoryProvider", meta.Entry)
}

func TestManifestDuplicateCodes(t *testing.T) {
	const payload = `
widgets:
  - definition:
      code: dup.widget
      name: First
  - definition:
      code: dup.widget
      name: Second
`
	_, err := DecodeManifest(strings.NewReader(payload))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicates widget code")
}

func TestReadManifestFromFile(t *testing.T) {
	const payload = `
version: 1
name: sales-extras
widgets:
  - definition:
      code: sales.widget.top_products
      name: Top Products
      category: metrics
    provider:
      name: Top products provider
      entry: github.com/goliatone/go-salesboard/extras.NewTopProducts
`
	path := filepath.Join(t.TempDir(), "sales.yaml")
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	doc, err := ReadManifest(path)
	require.NoError(t, err)
	require.Len(t, doc.Widgets, 1)
	assert.Equal(t, "sales.widget.top_products", doc.Widgets[0].Definition.Code)
	assert.Equal(t, "Top products provider", doc.Widgets[0].Provider.Name)
}

func TestManifestLayoutPlacements(t *testing.T) {
	const payload = `
version: "1"
widgets: []
layout:
  - definition: sales.widget.table
    area: sales.dashboard.footer
    position: 0
    configuration:
      table: clients_without_quote
`
	doc, err := DecodeManifest(strings.NewReader(payload))
	require.NoError(t, err)

	reqs := doc.SeedRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, WidgetTable, reqs[0].DefinitionID)
	assert.Equal(t, AreaFooter, reqs[0].AreaCode)
	require.NotNil(t, reqs[0].Position)
	assert.Equal(t, 0, *reqs[0].Position)
	assert.Equal(t, TableClientsWithoutQuote, reqs[0].Configuration["table"])
}

func TestManifestValidationReportsEveryProblem(t *testing.T) {
	const payload = `
widgets:
  - definition:
      code: sales.widget.margin
  - definition:
      code: sales.widget.bad_schema
      name: Bad
      schema:
        type: 12
layout:
  - definition: sales.widget.table
    area: sales.dashboard.nowhere
    configuration:
      table: inventory
`
	_, err := DecodeManifest(strings.NewReader(payload))
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "missing definition.name")
	assert.Contains(t, msg, "sales.widget.bad_schema")
	assert.Contains(t, msg, "unknown area")
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestWriteManifestRoundTrip(t *testing.T) {
	doc := &WidgetManifestDocument{
		Version: ManifestVersion,
		Name:    "extras",
		Widgets: []ManifestWidget{{Definition: WidgetDefinition{Code: "sales.widget.margin", Name: "Margen"}}},
	}
	var buf strings.Builder
	require.NoError(t, WriteManifest(&buf, doc))

	decoded, err := DecodeManifest(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, "extras", decoded.Name)
	require.Len(t, decoded.Widgets, 1)
	assert.Equal(t, "Margen", decoded.Widgets[0].Definition.Name)
}

func TestDecodeManifestRejectsEmpty(t *testing.T) {
	_, err := DecodeManifest(strings.NewReader(""))
	require.Error(t, err)
	assert.ErrorIs(t, err, errEmptyManifest)
}
