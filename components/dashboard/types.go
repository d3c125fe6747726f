package dashboard

import (
	"context"
	"time"
)

// WidgetStore is the persistence boundary for areas, definitions and placed
// widgets. The Ensure calls report whether a new row was written so that a
// repeated bootstrap is a no-op.
type WidgetStore interface {
	EnsureArea(ctx context.Context, def WidgetAreaDefinition) (bool, error)
	EnsureDefinition(ctx context.Context, def WidgetDefinition) (bool, error)
	CreateInstance(ctx context.Context, input CreateWidgetInstanceInput) (WidgetInstance, error)
	GetInstance(ctx context.Context, instanceID string) (WidgetInstance, error)
	UpdateInstance(ctx context.Context, input UpdateWidgetInstanceInput) (WidgetInstance, error)
	DeleteInstance(ctx context.Context, instanceID string) error
	AssignInstance(ctx context.Context, input AssignWidgetInput) error
	ReorderArea(ctx context.Context, input ReorderAreaInput) error
	ResolveArea(ctx context.Context, input ResolveAreaInput) (ResolvedArea, error)
}

// ProviderRegistry maps widget codes to their definition and data provider.
type ProviderRegistry interface {
	RegisterDefinition(def WidgetDefinition) error
	RegisterProvider(code string, provider Provider) error
	Definition(code string) (WidgetDefinition, bool)
	Provider(code string) (Provider, bool)
	Definitions() []WidgetDefinition
}

// RefreshHook is told about every widget change so transports can push it.
type RefreshHook interface {
	WidgetUpdated(ctx context.Context, event WidgetEvent) error
}

// WidgetAreaDefinition names one region of the sales page.
type WidgetAreaDefinition struct {
	Code        string
	Name        string
	Description string
}

// WidgetDefinition is a kind of widget. Schema is a JSON schema every
// instance configuration is validated against.
type WidgetDefinition struct {
	Code                 string            `json:"code" yaml:"code"`
	Name                 string            `json:"name" yaml:"name"`
	NameLocalized        map[string]string `json:"name_localized,omitempty" yaml:"name_localized,omitempty"`
	Description          string            `json:"description,omitempty" yaml:"description,omitempty"`
	DescriptionLocalized map[string]string `json:"description_localized,omitempty" yaml:"description_localized,omitempty"`
	Schema               map[string]any    `json:"schema,omitempty" yaml:"schema,omitempty"`
	Category             string            `json:"category,omitempty" yaml:"category,omitempty"`
}

// WidgetInstance is a definition placed in an area with its own settings.
// Metadata carries render-time values such as the provider payload.
type WidgetInstance struct {
	ID            string         `json:"id"`
	DefinitionID  string         `json:"definition_id"`
	AreaCode      string         `json:"area_code"`
	Configuration map[string]any `json:"configuration,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

type CreateWidgetInstanceInput struct {
	DefinitionID  string
	Configuration map[string]any
	Visibility    WidgetVisibility
	Metadata      map[string]any
}

// UpdateWidgetInstanceInput replaces the maps that are non-nil.
type UpdateWidgetInstanceInput struct {
	InstanceID    string
	Configuration map[string]any
	Metadata      map[string]any
}

// WidgetVisibility limits an instance to roles and a time window.
type WidgetVisibility struct {
	Roles    []string
	StartAt  *time.Time
	EndAt    *time.Time
	Audience []string
}

// AssignWidgetInput places an instance in an area. A nil Position appends.
type AssignWidgetInput struct {
	AreaCode   string
	InstanceID string
	Position   *int
}

type ReorderAreaInput struct {
	AreaCode  string
	WidgetIDs []string
}

type ResolveAreaInput struct {
	AreaCode string
	Audience []string
	Locale   string
}

// ResolvedArea lists the instances of one area in display order.
type ResolvedArea struct {
	AreaCode string
	Widgets  []WidgetInstance
}

// Layout is the resolved page: every area with its visible widgets.
type Layout struct {
	Areas map[string][]WidgetInstance
}

// WidgetEvent is published when a widget changes. An empty UserID means the
// change concerns every viewer.
type WidgetEvent struct {
	AreaCode string         `json:"area_code,omitempty"`
	Instance WidgetInstance `json:"instance"`
	Reason   string         `json:"reason"`
	UserID   string         `json:"user_id,omitempty"`
}
