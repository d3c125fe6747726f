package dashboard

import "context"

// WidgetData is the payload a provider hands to the widget template.
type WidgetData map[string]any

// Provider loads the data behind one widget instance.
type Provider interface {
	Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error)
}

// ProviderFunc lets a plain function act as a Provider.
type ProviderFunc func(ctx context.Context, meta WidgetContext) (WidgetData, error)

func (f ProviderFunc) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	return f(ctx, meta)
}

// WidgetContext is what a provider knows about the request: the placed
// instance, the viewer it renders for and the translator for labels.
type WidgetContext struct {
	Instance   WidgetInstance
	Viewer     ViewerContext
	Translator TranslationService
}

// Setting returns one configuration value of the instance, nil when unset.
func (c WidgetContext) Setting(key string) any {
	return c.Instance.Configuration[key]
}

// Text translates key into the viewer locale. The fallback is used when no
// translator is wired or the catalog has no entry.
func (c WidgetContext) Text(ctx context.Context, key, fallback string) string {
	return translateOrFallback(ctx, c.Translator, key, c.Viewer.Locale, fallback, nil)
}
