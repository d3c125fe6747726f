package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// TranslationService translates widget labels for a viewer locale.
type TranslationService interface {
	Translate(ctx context.Context, key, locale string, args map[string]any) (string, error)
}

// ErrMissingTranslation is returned when no catalog locale has the key.
var ErrMissingTranslation = errors.New("dashboard: missing translation")

// Catalog maps a locale to its key/text table. Texts may reference args
// as {name}.
type Catalog map[string]map[string]string

// CatalogTranslator serves translations from a Catalog, walking the
// locale's parent chain (es-MX, es-419, es) before the default locale.
type CatalogTranslator struct {
	catalog       Catalog
	defaultLocale string
}

// NewCatalogTranslator indexes catalog by normalized locale. The default
// locale is "es".
func NewCatalogTranslator(catalog Catalog) *CatalogTranslator {
	normalized := make(Catalog, len(catalog))
	for locale, texts := range catalog {
		normalized[normalizeLocale(locale)] = texts
	}
	return &CatalogTranslator{catalog: normalized, defaultLocale: "es"}
}

// Translate implements TranslationService.
func (t *CatalogTranslator) Translate(_ context.Context, key, locale string, args map[string]any) (string, error) {
	candidates := localeCandidates(locale)
	candidates[len(candidates)-1] = t.defaultLocale
	for _, candidate := range candidates {
		if text, ok := t.catalog[candidate][key]; ok && text != "" {
			return interpolate(text, args), nil
		}
	}
	return "", ErrMissingTranslation
}

// Locales lists the catalog locales in sorted order.
func (t *CatalogTranslator) Locales() []string {
	out := make([]string, 0, len(t.catalog))
	for locale := range t.catalog {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

func interpolate(text string, args map[string]any) string {
	if len(args) == 0 || !strings.Contains(text, "{") {
		return text
	}
	pairs := make([]string, 0, len(args)*2)
	for name, value := range args {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(value))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// DefaultCatalog holds the widget and table titles in Spanish and English.
func DefaultCatalog() Catalog {
	return Catalog{
		"es": {
			"sales.widget.quote_goal.title":           "Meta Diaria de Cotizaciones",
			"sales.widget.expired_quotes.title":       "Cotizaciones Vencidas",
			"sales.widget.customers.title":            "Clientes",
			"sales.widget.paying_customers.title":     "Clientes Nuevos",
			"sales.widget.tasks.title":                "Tareas Pendientes",
			"sales.widget.chat.title":                 "Asistente de Ventas",
			"sales.table.quotations.title":            "Cotizaciones del día",
			"sales.table.expired_quotations.title":    "Cotizaciones vencidas",
			"sales.table.clients.title":               "Clientes",
			"sales.table.new_clients.title":           "Clientes nuevos",
			"sales.table.clients_without_quote.title": "Clientes sin cotización",
			"sales.table.proactive_sales.title":       "Ventas proactivas",
			"sales.table.sales_orders.title":          "Ventas (VSP)",
			"sales.table.tasks.title":                 "Tareas",
		},
		"en": {
			"sales.widget.quote_goal.title":           "Daily Quote Goal",
			"sales.widget.expired_quotes.title":       "Expired Quotes",
			"sales.widget.customers.title":            "Customers",
			"sales.widget.paying_customers.title":     "New Customers",
			"sales.widget.tasks.title":                "Pending Tasks",
			"sales.widget.chat.title":                 "Sales Assistant",
			"sales.table.quotations.title":            "Today's quotes",
			"sales.table.expired_quotations.title":    "Expired quotes",
			"sales.table.clients.title":               "Customers",
			"sales.table.new_clients.title":           "New customers",
			"sales.table.clients_without_quote.title": "Customers without a quote",
			"sales.table.proactive_sales.title":       "Proactive sales",
			"sales.table.sales_orders.title":          "Sales orders",
			"sales.table.tasks.title":                 "Tasks",
		},
	}
}

// ResolveLocalizedValue picks the value for locale from a localized map,
// trying parent locales, then "default", then fallback.
func ResolveLocalizedValue(values map[string]string, locale, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	for _, candidate := range localeCandidates(locale) {
		for key, value := range values {
			if value != "" && normalizeLocale(key) == candidate {
				return value
			}
		}
	}
	return fallback
}

func (def *WidgetDefinition) normalizeLocalizedFields() {
	def.NameLocalized = normalizeLocaleMap(def.NameLocalized)
	def.DescriptionLocalized = normalizeLocaleMap(def.DescriptionLocalized)
}

// NameForLocale returns the display name for locale, or Name.
func (def WidgetDefinition) NameForLocale(locale string) string {
	return ResolveLocalizedValue(def.NameLocalized, locale, def.Name)
}

// DescriptionForLocale returns the description for locale, or Description.
func (def WidgetDefinition) DescriptionForLocale(locale string) string {
	return ResolveLocalizedValue(def.DescriptionLocalized, locale, def.Description)
}

func normalizeLocaleMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	normalized := make(map[string]string, len(values))
	for key, value := range values {
		key = normalizeLocale(key)
		if key == "" || value == "" {
			continue
		}
		normalized[key] = value
	}
	return normalized
}

// localeCandidates returns locale and its parents, most specific first,
// ending with "default".
func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return []string{"default"}
	}
	candidates := []string{locale}
	tag, err := language.Parse(locale)
	if err == nil {
		for parent := tag.Parent(); parent != language.Und; parent = parent.Parent() {
			if c := normalizeLocale(parent.String()); c != candidates[len(candidates)-1] {
				candidates = append(candidates, c)
			}
		}
	} else if idx := strings.IndexAny(locale, "-_"); idx > 0 {
		candidates = append(candidates, locale[:idx])
	}
	return append(candidates, "default")
}

func normalizeLocale(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" || strings.EqualFold(locale, "default") {
		return strings.ToLower(locale)
	}
	if tag, err := language.Parse(locale); err == nil {
		return strings.ToLower(tag.String())
	}
	return strings.ToLower(locale)
}

func translateOrFallback(ctx context.Context, svc TranslationService, key, locale, fallback string, params map[string]any) string {
	if svc != nil {
		if translated, err := svc.Translate(ctx, key, locale, params); err == nil && translated != "" {
			return translated
		}
	}
	if fallback != "" {
		return fallback
	}
	return key
}
