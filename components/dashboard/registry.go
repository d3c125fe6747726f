package dashboard

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrUnknownDefinition is returned when binding a provider to a code
	// that has no registered definition.
	ErrUnknownDefinition = errors.New("dashboard: unknown widget definition")
	errDefinitionCode    = errors.New("dashboard: widget definition code is required")
	errNilProvider       = errors.New("dashboard: provider is nil")
)

// Registry holds widget definitions, their providers, and the provider
// metadata declared in manifests. It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	definitions  map[string]WidgetDefinition
	providers    map[string]Provider
	manifestMeta map[string]ManifestProvider
}

// NewRegistry binds the sales widgets to DefaultSalesBackends.
func NewRegistry() *Registry {
	return NewRegistryWithBackends(DefaultSalesBackends())
}

// NewRegistryWithBackends is LoadRegistry for the built-in definitions and
// panics if any of them fails to register.
func NewRegistryWithBackends(backends *SalesBackends) *Registry {
	reg, err := LoadRegistry(backends)
	if err != nil {
		panic(err)
	}
	return reg
}

// LoadRegistry registers every default definition and binds its provider to
// backends. Failures are joined; definitions that did register stay usable.
func LoadRegistry(backends *SalesBackends) (*Registry, error) {
	reg := &Registry{
		definitions:  map[string]WidgetDefinition{},
		providers:    map[string]Provider{},
		manifestMeta: map[string]ManifestProvider{},
	}
	var errs []error
	for _, def := range DefaultWidgetDefinitions() {
		if err := reg.RegisterDefinition(def); err != nil {
			errs = append(errs, fmt.Errorf("definition %s: %w", def.Code, err))
		}
	}
	if err := RegisterSalesProviders(reg, backends); err != nil {
		errs = append(errs, err)
	}
	return reg, errors.Join(errs...)
}

// RegisterDefinition stores def, replacing any definition with the same
// code. Localized names are normalized to lower-case BCP 47 keys.
func (r *Registry) RegisterDefinition(def WidgetDefinition) error {
	def.Code = strings.TrimSpace(def.Code)
	if def.Code == "" {
		return errDefinitionCode
	}
	def.normalizeLocalizedFields()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[def.Code] = def
	return nil
}

// RegisterProvider binds provider to an already registered definition.
func (r *Registry) RegisterProvider(code string, provider Provider) error {
	if code == "" {
		return errDefinitionCode
	}
	if provider == nil {
		return fmt.Errorf("%w: %s", errNilProvider, code)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.definitions[code]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDefinition, code)
	}
	r.providers[code] = provider
	return nil
}

func (r *Registry) Definition(code string) (WidgetDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[code]
	return def, ok
}

func (r *Registry) Provider(code string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[code]
	return provider, ok
}

// ProviderMetadata returns the provider block a manifest declared for code.
func (r *Registry) ProviderMetadata(code string) (ManifestProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.manifestMeta[code]
	return meta, ok
}

// Definitions returns every definition sorted by code.
func (r *Registry) Definitions() []WidgetDefinition {
	r.mu.RLock()
	defs := make([]WidgetDefinition, 0, len(r.definitions))
	for _, def := range r.definitions {
		defs = append(defs, def)
	}
	r.mu.RUnlock()
	slices.SortFunc(defs, func(a, b WidgetDefinition) int { return strings.Compare(a.Code, b.Code) })
	return defs
}

// Unbound lists definition codes that have no provider yet, typically
// manifest widgets whose generated provider was never registered.
func (r *Registry) Unbound() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var codes []string
	for code := range r.definitions {
		if _, ok := r.providers[code]; !ok {
			codes = append(codes, code)
		}
	}
	slices.Sort(codes)
	return codes
}

func (r *Registry) recordProviderMetadata(code string, meta ManifestProvider) {
	if meta.isZero() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifestMeta[code] = meta
}
