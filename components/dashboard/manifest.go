package dashboard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion is the manifest format written by tooling.
	ManifestVersion = manifestVersionV1
)

// WidgetManifestDocument is a YAML manifest that adds widget definitions
// and extra widget placements to the sales dashboard.
type WidgetManifestDocument struct {
	Version  string              `json:"version" yaml:"version"`
	Name     string              `json:"name,omitempty" yaml:"name,omitempty"`
	Package  string              `json:"package,omitempty" yaml:"package,omitempty"`
	Homepage string              `json:"homepage,omitempty" yaml:"homepage,omitempty"`
	Widgets  []ManifestWidget    `json:"widgets" yaml:"widgets"`
	Layout   []ManifestPlacement `json:"layout,omitempty" yaml:"layout,omitempty"`
	Source   string              `json:"-" yaml:"-"`
}

// ManifestWidget is one widget definition with its provider metadata.
type ManifestWidget struct {
	Definition  WidgetDefinition `json:"definition" yaml:"definition"`
	Provider    ManifestProvider `json:"provider,omitempty" yaml:"provider,omitempty"`
	Maintainers []string         `json:"maintainers,omitempty" yaml:"maintainers,omitempty"`
	Tags        []string         `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ManifestProvider records where a widget's provider lives.
type ManifestProvider struct {
	Name         string   `json:"name,omitempty" yaml:"name,omitempty"`
	Summary      string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Entry        string   `json:"entry,omitempty" yaml:"entry,omitempty"`
	Package      string   `json:"package,omitempty" yaml:"package,omitempty"`
	DocsURL      string   `json:"docs_url,omitempty" yaml:"docs_url,omitempty"`
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Channel      string   `json:"channel,omitempty" yaml:"channel,omitempty"`
}

// ManifestPlacement places a widget (built-in or manifest defined) in a
// dashboard area, e.g. an extra table widget showing clients_without_quote.
type ManifestPlacement struct {
	Definition    string         `json:"definition" yaml:"definition"`
	Area          string         `json:"area" yaml:"area"`
	Position      *int           `json:"position,omitempty" yaml:"position,omitempty"`
	Configuration map[string]any `json:"configuration,omitempty" yaml:"configuration,omitempty"`
}

var errEmptyManifest = errors.New("dashboard: manifest is empty")

// LoadManifestFile reads path and registers its widgets.
func (r *Registry) LoadManifestFile(path string) (*WidgetManifestDocument, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := r.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadManifestDocument registers definitions and provider metadata.
func (r *Registry) LoadManifestDocument(doc *WidgetManifestDocument) error {
	if doc == nil {
		return errEmptyManifest
	}
	for _, widget := range doc.Widgets {
		if err := r.RegisterDefinition(widget.Definition); err != nil {
			return fmt.Errorf("dashboard: register widget %s from %s: %w", widget.Definition.Code, doc.Source, err)
		}
		r.recordProviderMetadata(widget.Definition.Code, widget.Provider)
	}
	return nil
}

// SeedRequests turns the manifest layout into AddWidget requests.
func (doc *WidgetManifestDocument) SeedRequests() []AddWidgetRequest {
	if doc == nil {
		return nil
	}
	out := make([]AddWidgetRequest, 0, len(doc.Layout))
	for _, p := range doc.Layout {
		out = append(out, AddWidgetRequest{
			DefinitionID:  p.Definition,
			AreaCode:      p.Area,
			Position:      p.Position,
			Configuration: cloneConfig(p.Configuration),
		})
	}
	return out
}

// ReadManifest loads a manifest file without registering it.
func ReadManifest(path string) (*WidgetManifestDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dashboard: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest parses and validates a manifest. Unknown fields are errors.
func DecodeManifest(r io.Reader) (*WidgetManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc WidgetManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmptyManifest
		}
		return nil, fmt.Errorf("dashboard: parse manifest: %w", err)
	}
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// WriteManifest encodes doc as two-space indented YAML.
func WriteManifest(w io.Writer, doc *WidgetManifestDocument) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("dashboard: write manifest: %w", err)
	}
	return enc.Close()
}

// Validate checks required fields, duplicate codes, schemas and layout
// placements. Every problem is reported.
func (doc *WidgetManifestDocument) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("dashboard: unsupported manifest version %q", doc.Version)
	}
	var errs []error
	schemas := NewJSONSchemaValidator()
	seen := make(map[string]struct{}, len(doc.Widgets))
	for idx, widget := range doc.Widgets {
		code := widget.Definition.Code
		switch {
		case code == "":
			errs = append(errs, fmt.Errorf("dashboard: manifest widget at index %d is missing definition.code", idx))
			continue
		case widget.Definition.Name == "":
			errs = append(errs, fmt.Errorf("dashboard: manifest widget %s missing definition.name", code))
		}
		if _, exists := seen[code]; exists {
			errs = append(errs, fmt.Errorf("dashboard: manifest duplicates widget code %s", code))
		}
		seen[code] = struct{}{}
		if err := schemas.Check(widget.Definition); err != nil {
			errs = append(errs, err)
		}
	}
	for idx, p := range doc.Layout {
		if p.Definition == "" {
			errs = append(errs, fmt.Errorf("dashboard: manifest layout %d is missing definition", idx))
		}
		if !KnownArea(p.Area) {
			errs = append(errs, fmt.Errorf("dashboard: manifest layout %d: %w %q", idx, ErrUnknownArea, p.Area))
		}
		if p.Definition == WidgetTable && !KnownTable(stringValue(p.Configuration["table"], "")) {
			errs = append(errs, fmt.Errorf("dashboard: manifest layout %d: %w %q", idx, ErrUnknownTable, p.Configuration["table"]))
		}
	}
	return errors.Join(errs...)
}

func (p ManifestProvider) isZero() bool {
	return p.Name == "" &&
		p.Summary == "" &&
		p.Entry == "" &&
		p.Package == "" &&
		p.DocsURL == "" &&
		len(p.Capabilities) == 0 &&
		p.Channel == ""
}
