package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-salesboard/pkg/activity"
	"github.com/goliatone/go-salesboard/pkg/chat"
	"github.com/goliatone/go-salesboard/pkg/tasks"
)

var defaultAreas = []string{
	AreaMain,
	AreaSidebar,
	AreaFooter,
}

// ErrWidgetNotFound is returned by widget stores for unknown instances.
var ErrWidgetNotFound = errors.New("dashboard: widget instance not found")

// ErrUnknownArea is returned for area codes outside DefaultAreaDefinitions.
var ErrUnknownArea = errors.New("dashboard: unknown area")

var (
	errMissingWidgetStore     = errors.New("dashboard: widget store not configured")
	errMissingSalesRepository = errors.New("dashboard: sales repository not configured")
	errMissingTaskStore       = errors.New("dashboard: task store not configured")
	errMissingChartSeries     = errors.New("dashboard: chart series is required")
	errInvalidArea            = errors.New("dashboard: area code is required")
	errInvalidDefinition      = errors.New("dashboard: definition id is required")
	errInvalidWidgetID        = errors.New("dashboard: widget id is required")
)

// Options configures the dashboard Service. Every collaborator is provided via
// interface so applications can swap implementations.
type Options struct {
	WidgetStore     WidgetStore
	Authorizer      Authorizer
	PreferenceStore PreferenceStore
	Providers       ProviderRegistry
	ConfigValidator ConfigValidator
	RefreshHook     RefreshHook
	Telemetry       Telemetry
	Translator      TranslationService
	Areas           []string
	// Backends feeds the sales providers, tables, tasks and chat. Defaults to
	// DefaultSalesBackends.
	Backends       *SalesBackends
	ActivityHooks  activity.Hooks
	ActivityConfig activity.Config
}

// Service orchestrates dashboard widgets, tables, tasks and chat for viewers.
type Service struct {
	opts     Options
	activity *activity.Emitter
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Authorizer == nil {
		opts.Authorizer = allowAllAuthorizer{}
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.Backends == nil {
		opts.Backends = DefaultSalesBackends()
	}
	if opts.Providers == nil {
		opts.Providers = NewRegistryWithBackends(opts.Backends)
	}
	if opts.ConfigValidator == nil {
		opts.ConfigValidator = NewJSONSchemaValidator()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	if opts.PreferenceStore == nil {
		opts.PreferenceStore = NewInMemoryPreferenceStore()
	}
	if opts.Backends.Tables != nil {
		opts.Backends.Tables.SetPreferenceStore(opts.PreferenceStore)
	}
	return &Service{
		opts:     opts,
		activity: activity.NewEmitter(opts.ActivityHooks, opts.ActivityConfig),
	}
}

// Backends exposes the sales collaborators the service was built with.
func (s *Service) Backends() *SalesBackends {
	return s.opts.Backends
}

// AddWidgetRequest captures the data required to create widget assignments.
type AddWidgetRequest struct {
	DefinitionID  string
	AreaCode      string
	Configuration map[string]any
	Position      *int
	Roles         []string
	StartAt       *time.Time
	EndAt         *time.Time
	ActorID       string
	UserID        string
	TenantID      string
}

// AddWidget creates a widget instance and assigns it to an area.
func (s *Service) AddWidget(ctx context.Context, req AddWidgetRequest) error {
	store, err := s.widgetStore()
	if err != nil {
		return err
	}
	if req.AreaCode == "" {
		return errInvalidArea
	}
	if req.DefinitionID == "" {
		return errInvalidDefinition
	}
	if err := s.validateConfiguration(req.DefinitionID, req.Configuration); err != nil {
		return err
	}
	instance, err := store.CreateInstance(ctx, CreateWidgetInstanceInput{
		DefinitionID:  req.DefinitionID,
		Configuration: req.Configuration,
		Visibility: WidgetVisibility{
			Roles:   req.Roles,
			StartAt: req.StartAt,
			EndAt:   req.EndAt,
		},
		Metadata: map[string]any{
			"user_id": req.UserID,
		},
	})
	if err != nil {
		return err
	}
	if err := store.AssignInstance(ctx, AssignWidgetInput{
		AreaCode:   req.AreaCode,
		InstanceID: instance.ID,
		Position:   req.Position,
	}); err != nil {
		return err
	}
	instance.AreaCode = req.AreaCode
	event := WidgetEvent{
		AreaCode: req.AreaCode,
		Instance: instance,
		Reason:   "add",
	}
	if err := s.opts.RefreshHook.WidgetUpdated(ctx, event); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.widget.add", map[string]any{
		"area_code":     req.AreaCode,
		"definition_id": req.DefinitionID,
	})
	s.emitActivity(ctx, ActivityContext{ActorID: req.ActorID, UserID: req.UserID, TenantID: req.TenantID}, activity.Event{
		Verb:           "dashboard.widget.add",
		ObjectType:     "widget_instance",
		ObjectID:       instance.ID,
		DefinitionCode: req.DefinitionID,
		Metadata: map[string]any{
			"area_code":     req.AreaCode,
			"definition_id": req.DefinitionID,
		},
	})
	return nil
}

// UpdateWidgetRequest replaces the configuration of an existing instance.
type UpdateWidgetRequest struct {
	InstanceID    string
	Configuration map[string]any
	Metadata      map[string]any
	ActorID       string
	UserID        string
	TenantID      string
}

// UpdateWidget validates and stores a new configuration for a widget.
func (s *Service) UpdateWidget(ctx context.Context, req UpdateWidgetRequest) (WidgetInstance, error) {
	store, err := s.widgetStore()
	if err != nil {
		return WidgetInstance{}, err
	}
	if req.InstanceID == "" {
		return WidgetInstance{}, errInvalidWidgetID
	}
	current, err := store.GetInstance(ctx, req.InstanceID)
	if err != nil {
		return WidgetInstance{}, err
	}
	if err := s.validateConfiguration(current.DefinitionID, req.Configuration); err != nil {
		return WidgetInstance{}, err
	}
	updated, err := store.UpdateInstance(ctx, UpdateWidgetInstanceInput{
		InstanceID:    req.InstanceID,
		Configuration: req.Configuration,
		Metadata:      req.Metadata,
	})
	if err != nil {
		return WidgetInstance{}, err
	}
	if updated.AreaCode == "" {
		updated.AreaCode = current.AreaCode
	}
	if err := s.opts.RefreshHook.WidgetUpdated(ctx, WidgetEvent{
		AreaCode: updated.AreaCode,
		Instance: updated,
		Reason:   "update",
	}); err != nil {
		return WidgetInstance{}, err
	}
	s.recordTelemetry(ctx, "dashboard.widget.update", map[string]any{
		"widget_id":     updated.ID,
		"definition_id": updated.DefinitionID,
	})
	s.emitActivity(ctx, ActivityContext{ActorID: req.ActorID, UserID: req.UserID, TenantID: req.TenantID}, activity.Event{
		Verb:           "dashboard.widget.update",
		ObjectType:     "widget_instance",
		ObjectID:       updated.ID,
		DefinitionCode: updated.DefinitionID,
		Metadata: map[string]any{
			"area_code":     updated.AreaCode,
			"definition_id": updated.DefinitionID,
		},
	})
	return updated, nil
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

// emitActivity fills missing actor fields from the context and forwards the
// event. Activity failures are reported through telemetry, never to callers.
func (s *Service) emitActivity(ctx context.Context, actor ActivityContext, event activity.Event) {
	if !s.activity.Enabled() {
		return
	}
	fromCtx, _ := ActivityFromContext(ctx)
	actor = actor.merge(fromCtx)
	event.ActorID = actor.ActorID
	event.UserID = actor.UserID
	event.TenantID = actor.TenantID
	if actor.SessionID != "" {
		if event.Metadata == nil {
			event.Metadata = map[string]any{}
		}
		event.Metadata["session_id"] = actor.SessionID
	}
	if err := s.activity.Emit(ctx, event); err != nil {
		s.recordTelemetry(ctx, "dashboard.activity.error", map[string]any{
			"verb":  event.Verb,
			"error": err.Error(),
		})
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// RemoveWidget deletes the widget instance.
func (s *Service) RemoveWidget(ctx context.Context, widgetID string) error {
	store, err := s.widgetStore()
	if err != nil {
		return err
	}
	if widgetID == "" {
		return errInvalidWidgetID
	}
	instance, err := store.GetInstance(ctx, widgetID)
	if err != nil {
		return err
	}
	if err := store.DeleteInstance(ctx, widgetID); err != nil {
		return err
	}
	if err := s.opts.RefreshHook.WidgetUpdated(ctx, WidgetEvent{
		AreaCode: instance.AreaCode,
		Instance: instance,
		Reason:   "delete",
	}); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.widget.remove", map[string]any{"widget_id": widgetID})
	s.emitActivity(ctx, ActivityContext{}, activity.Event{
		Verb:           "dashboard.widget.remove",
		ObjectType:     "widget_instance",
		ObjectID:       widgetID,
		DefinitionCode: instance.DefinitionID,
		Metadata: map[string]any{
			"area_code":     instance.AreaCode,
			"definition_id": instance.DefinitionID,
		},
	})
	return nil
}

// ReorderWidgets changes widget ordering within an area.
func (s *Service) ReorderWidgets(ctx context.Context, areaCode string, widgetIDs []string) error {
	store, err := s.widgetStore()
	if err != nil {
		return err
	}
	if areaCode == "" {
		return errInvalidArea
	}
	if err := store.ReorderArea(ctx, ReorderAreaInput{
		AreaCode:  areaCode,
		WidgetIDs: widgetIDs,
	}); err != nil {
		return err
	}
	if err := s.opts.RefreshHook.WidgetUpdated(ctx, WidgetEvent{
		AreaCode: areaCode,
		Reason:   "reorder",
	}); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.widget.reorder", map[string]any{
		"area_code": areaCode,
		"count":     len(widgetIDs),
	})
	s.emitActivity(ctx, ActivityContext{}, activity.Event{
		Verb:       "dashboard.widget.reorder",
		ObjectType: "widget_area",
		ObjectID:   areaCode,
		Metadata: map[string]any{
			"area_code": areaCode,
			"count":     len(widgetIDs),
		},
	})
	return nil
}

// ConfigureLayout resolves widgets for each dashboard area respecting preferences + auth.
func (s *Service) ConfigureLayout(ctx context.Context, viewer ViewerContext) (Layout, error) {
	store, err := s.widgetStore()
	if err != nil {
		return Layout{}, err
	}
	overrides, err := s.opts.PreferenceStore.LayoutOverrides(ctx, viewer)
	if err != nil {
		return Layout{}, err
	}
	layout := Layout{Areas: make(map[string][]WidgetInstance)}
	for _, area := range s.areaList() {
		resolved, err := store.ResolveArea(ctx, ResolveAreaInput{
			AreaCode: area,
			Audience: viewer.Roles,
			Locale:   viewer.Locale,
		})
		if err != nil {
			return Layout{}, err
		}
		for i := range resolved.Widgets {
			resolved.Widgets[i].AreaCode = area
		}
		layout.Areas[area] = s.filterAuthorized(ctx, viewer, overrides.Arrange(area, resolved.Widgets))
	}
	s.recordTelemetry(ctx, "dashboard.layout.resolve", map[string]any{
		"viewer": viewer.UserID,
	})
	return layout, nil
}

// ResolveArea retrieves a single area layout for the viewer.
func (s *Service) ResolveArea(ctx context.Context, viewer ViewerContext, areaCode string) (ResolvedArea, error) {
	store, err := s.widgetStore()
	if err != nil {
		return ResolvedArea{}, err
	}
	resolved, err := store.ResolveArea(ctx, ResolveAreaInput{
		AreaCode: areaCode,
		Audience: viewer.Roles,
		Locale:   viewer.Locale,
	})
	if err != nil {
		return ResolvedArea{}, err
	}
	overrides, err := s.opts.PreferenceStore.LayoutOverrides(ctx, viewer)
	if err != nil {
		return ResolvedArea{}, err
	}
	resolved.Widgets = s.filterAuthorized(ctx, viewer, overrides.Arrange(areaCode, resolved.Widgets))
	s.recordTelemetry(ctx, "dashboard.area.resolve", map[string]any{
		"viewer":   viewer.UserID,
		"areaCode": areaCode,
	})
	return resolved, nil
}

// TableSnapshot returns the current state of a table for the viewer.
func (s *Service) TableSnapshot(ctx context.Context, viewer ViewerContext, code string) (TableSnapshot, error) {
	return s.ApplyTableAction(ctx, viewer, code, TableAction{})
}

// ApplyTableAction runs a search/sort/page action against the viewer's table.
func (s *Service) ApplyTableAction(ctx context.Context, viewer ViewerContext, code string, action TableAction) (TableSnapshot, error) {
	tables := s.tables()
	if tables == nil {
		return TableSnapshot{}, fmt.Errorf("%w: %s", ErrUnknownTable, code)
	}
	snap, err := tables.Apply(ctx, viewer, code, action)
	if err != nil {
		return TableSnapshot{}, err
	}
	s.recordTelemetry(ctx, "dashboard.table.action", map[string]any{
		"viewer": viewer.UserID,
		"table":  code,
		"status": string(snap.Status),
		"page":   snap.Surface.State.CurrentPage,
	})
	if snap.Activated != nil {
		s.emitActivity(ctx, ActivityFromViewer(viewer), activity.Event{
			Verb:       "salesboard.table.activate",
			ObjectType: "table_row",
			ObjectID:   code,
			Metadata: map[string]any{
				"table": code,
				"link":  snap.Activated.Link,
			},
		})
	}
	return snap, nil
}

// ListTasks returns the viewer's tasks.
func (s *Service) ListTasks(ctx context.Context, viewer ViewerContext) ([]tasks.Task, error) {
	store, err := s.taskStore()
	if err != nil {
		return nil, err
	}
	return store.List(ctx, viewer.UserID)
}

// CreateTask adds a task for the viewer.
func (s *Service) CreateTask(ctx context.Context, viewer ViewerContext, task tasks.Task) (tasks.Task, error) {
	store, err := s.taskStore()
	if err != nil {
		return tasks.Task{}, err
	}
	created, err := store.Create(ctx, viewer.UserID, task)
	if err != nil {
		return tasks.Task{}, err
	}
	s.afterTaskChange(ctx, viewer, "salesboard.task.create", created.ID, map[string]any{"client": created.Client})
	return created, nil
}

// ToggleTask flips the completion state of a task.
func (s *Service) ToggleTask(ctx context.Context, viewer ViewerContext, id string) (tasks.Task, error) {
	store, err := s.taskStore()
	if err != nil {
		return tasks.Task{}, err
	}
	task, err := store.Toggle(ctx, viewer.UserID, id)
	if err != nil {
		return tasks.Task{}, err
	}
	s.afterTaskChange(ctx, viewer, "salesboard.task.toggle", task.ID, map[string]any{"status": string(task.Status)})
	return task, nil
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, viewer ViewerContext, id string) error {
	store, err := s.taskStore()
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, viewer.UserID, id); err != nil {
		return err
	}
	s.afterTaskChange(ctx, viewer, "salesboard.task.delete", id, nil)
	return nil
}

func (s *Service) afterTaskChange(ctx context.Context, viewer ViewerContext, verb, id string, meta map[string]any) {
	if tables := s.tables(); tables != nil {
		if _, ok := tables.Definition(TableTasks); ok {
			_, _ = tables.Apply(ctx, viewer, TableTasks, TableAction{Refresh: true})
		}
	}
	if err := s.opts.RefreshHook.WidgetUpdated(ctx, WidgetEvent{
		Instance: WidgetInstance{DefinitionID: WidgetTasks},
		Reason:   "tasks",
		UserID:   viewer.UserID,
	}); err != nil {
		s.recordTelemetry(ctx, "dashboard.refresh.error", map[string]any{"error": err.Error()})
	}
	s.recordTelemetry(ctx, verb, map[string]any{"viewer": viewer.UserID, "task_id": id})
	s.emitActivity(ctx, ActivityFromViewer(viewer), activity.Event{
		Verb:       verb,
		ObjectType: "task",
		ObjectID:   id,
		Metadata:   meta,
	})
}

// Chat answers a viewer message through the configured responder.
func (s *Service) Chat(ctx context.Context, viewer ViewerContext, message string) (chat.Message, error) {
	responder := s.opts.Backends.Chat
	if responder == nil {
		responder = chat.NewRuleResponder(nil)
	}
	reply, err := responder.Reply(ctx, message)
	if err != nil {
		return chat.Message{}, err
	}
	s.recordTelemetry(ctx, "dashboard.chat.reply", map[string]any{
		"viewer":  viewer.UserID,
		"keyword": reply.Keyword,
	})
	s.emitActivity(ctx, ActivityFromViewer(viewer), activity.Event{
		Verb:       "salesboard.chat.message",
		ObjectType: "chat",
		ObjectID:   viewer.SessionID,
		Metadata:   map[string]any{"keyword": reply.Keyword},
	})
	return reply, nil
}

// ForgetViewer drops per-viewer table state, typically at logout.
func (s *Service) ForgetViewer(viewer ViewerContext) {
	if tables := s.tables(); tables != nil {
		tables.Forget(viewer)
	}
}

func (s *Service) tables() *TableManager {
	if s.opts.Backends == nil {
		return nil
	}
	return s.opts.Backends.Tables
}

func (s *Service) taskStore() (tasks.Store, error) {
	if s.opts.Backends == nil || s.opts.Backends.Tasks == nil {
		return nil, errMissingTaskStore
	}
	return s.opts.Backends.Tasks, nil
}

func (s *Service) widgetStore() (WidgetStore, error) {
	if s.opts.WidgetStore == nil {
		return nil, errMissingWidgetStore
	}
	return s.opts.WidgetStore, nil
}

func (s *Service) validateConfiguration(definitionID string, config map[string]any) error {
	if s.opts.ConfigValidator == nil || s.opts.Providers == nil {
		return nil
	}
	def, ok := s.opts.Providers.Definition(definitionID)
	if !ok {
		return nil
	}
	return s.opts.ConfigValidator.Validate(def, config)
}

func (s *Service) areaList() []string {
	if len(s.opts.Areas) > 0 {
		return s.opts.Areas
	}
	return defaultAreas
}

func (s *Service) filterAuthorized(ctx context.Context, viewer ViewerContext, widgets []WidgetInstance) []WidgetInstance {
	if len(widgets) == 0 {
		return widgets
	}
	var filtered []WidgetInstance
	for _, w := range widgets {
		if s.opts.Authorizer.CanViewWidget(ctx, viewer, w) {
			filtered = append(filtered, w)
		}
	}
	return s.attachProviderData(ctx, viewer, filtered)
}

func (s *Service) attachProviderData(ctx context.Context, viewer ViewerContext, widgets []WidgetInstance) []WidgetInstance {
	if len(widgets) == 0 || s.opts.Providers == nil {
		return widgets
	}
	enriched := make([]WidgetInstance, len(widgets))
	copy(enriched, widgets)
	for i, inst := range enriched {
		provider, ok := s.opts.Providers.Provider(inst.DefinitionID)
		if !ok || provider == nil {
			continue
		}
		data, err := provider.Fetch(ctx, WidgetContext{
			Instance:   inst,
			Viewer:     viewer,
			Translator: s.opts.Translator,
		})
		if err != nil {
			s.recordTelemetry(ctx, "dashboard.widget.provider_error", map[string]any{
				"definition_id": inst.DefinitionID,
				"error":         err.Error(),
			})
			data = WidgetData{"state": string(TableError), "error": err.Error()}
		}
		metadata := make(map[string]any, len(inst.Metadata)+1)
		for k, v := range inst.Metadata {
			metadata[k] = v
		}
		metadata["data"] = data
		enriched[i].Metadata = metadata
	}
	return enriched
}

type chartInvalidator interface {
	Invalidate(instanceID string) int
}

// NotifyWidgetUpdated exposes refresh hook invocation for commands/transports.
func (s *Service) NotifyWidgetUpdated(ctx context.Context, event WidgetEvent) error {
	if inv, ok := s.opts.Backends.Charts.(chartInvalidator); ok {
		inv.Invalidate(event.Instance.ID)
	}
	if err := s.opts.RefreshHook.WidgetUpdated(ctx, event); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.widget.event", map[string]any{
		"area_code": event.AreaCode,
		"widget_id": event.Instance.ID,
		"reason":    event.Reason,
	})
	return nil
}

// SavePreferences persists per-viewer layout overrides. Table page sizes
// already remembered for the viewer are kept unless the overrides set them.
func (s *Service) SavePreferences(ctx context.Context, viewer ViewerContext, overrides LayoutOverrides) error {
	if viewer.UserID == "" {
		return errors.New("dashboard: viewer context missing user id")
	}
	normalizeOverrides(&overrides)
	if current, err := s.opts.PreferenceStore.LayoutOverrides(ctx, viewer); err == nil {
		for code, size := range current.TablePageSizes {
			if _, ok := overrides.TablePageSizes[code]; !ok {
				overrides.TablePageSizes[code] = size
			}
		}
	}
	return s.opts.PreferenceStore.SaveLayoutOverrides(ctx, viewer, overrides)
}

type allowAllAuthorizer struct{}

func (allowAllAuthorizer) CanViewWidget(context.Context, ViewerContext, WidgetInstance) bool {
	return true
}

type noopRefreshHook struct{}

func (noopRefreshHook) WidgetUpdated(context.Context, WidgetEvent) error {
	return nil
}
