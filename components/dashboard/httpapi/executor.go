package httpapi

import (
	"context"
	"errors"

	"github.com/goliatone/go-salesboard/components/dashboard"
	"github.com/goliatone/go-salesboard/components/dashboard/commands"
	"github.com/goliatone/go-salesboard/components/dashboard/queries"
	"github.com/goliatone/go-salesboard/pkg/chat"
	"github.com/goliatone/go-salesboard/pkg/tasks"
)

// ErrNotConfigured is returned when an executor slot has no command bound.
var ErrNotConfigured = errors.New("httpapi: operation not configured")

// Executor is the transport-neutral surface other routers mount.
type Executor interface {
	AssignWidget(ctx context.Context, req dashboard.AddWidgetRequest) error
	RemoveWidget(ctx context.Context, input commands.RemoveWidgetInput) error
	ReorderWidgets(ctx context.Context, input commands.ReorderWidgetsInput) error
	RefreshWidget(ctx context.Context, input commands.RefreshWidgetInput) error
	UpdateWidget(ctx context.Context, input commands.UpdateWidgetInput) error
	SavePreferences(ctx context.Context, input commands.SaveLayoutPreferencesInput) error
	TableSnapshot(ctx context.Context, input queries.TableInput) (dashboard.TableSnapshot, error)
	ApplyTableAction(ctx context.Context, input commands.ApplyTableActionInput) (dashboard.TableSnapshot, error)
	ListTasks(ctx context.Context, viewer dashboard.ViewerContext) ([]tasks.Task, error)
	AddTask(ctx context.Context, input commands.CreateTaskInput) (tasks.Task, error)
	FlipTask(ctx context.Context, input commands.TaskInput) (tasks.Task, error)
	RemoveTask(ctx context.Context, input commands.TaskInput) error
	SendChat(ctx context.Context, input commands.ChatInput) (chat.Message, error)
	ResolveLayout(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Layout, error)
	ResolveArea(ctx context.Context, input queries.AreaInput) (dashboard.ResolvedArea, error)
}

var _ Executor = (*Handlers)(nil)

func (h *Handlers) AssignWidget(ctx context.Context, req dashboard.AddWidgetRequest) error {
	if h.Assign == nil {
		return ErrNotConfigured
	}
	return h.Assign.Execute(ctx, req)
}

func (h *Handlers) RemoveWidget(ctx context.Context, input commands.RemoveWidgetInput) error {
	if h.Remove == nil {
		return ErrNotConfigured
	}
	return h.Remove.Execute(ctx, input)
}

func (h *Handlers) ReorderWidgets(ctx context.Context, input commands.ReorderWidgetsInput) error {
	if h.Reorder == nil {
		return ErrNotConfigured
	}
	return h.Reorder.Execute(ctx, input)
}

func (h *Handlers) RefreshWidget(ctx context.Context, input commands.RefreshWidgetInput) error {
	if h.Refresh == nil {
		return ErrNotConfigured
	}
	return h.Refresh.Execute(ctx, input)
}

func (h *Handlers) UpdateWidget(ctx context.Context, input commands.UpdateWidgetInput) error {
	if h.Update == nil {
		return ErrNotConfigured
	}
	return h.Update.Execute(ctx, input)
}

func (h *Handlers) SavePreferences(ctx context.Context, input commands.SaveLayoutPreferencesInput) error {
	if h.Preferences == nil {
		return ErrNotConfigured
	}
	return h.Preferences.Execute(ctx, input)
}

func (h *Handlers) TableSnapshot(ctx context.Context, input queries.TableInput) (dashboard.TableSnapshot, error) {
	if h.Table == nil {
		return dashboard.TableSnapshot{}, ErrNotConfigured
	}
	return h.Table.Query(ctx, input)
}

func (h *Handlers) ApplyTableAction(ctx context.Context, input commands.ApplyTableActionInput) (dashboard.TableSnapshot, error) {
	if h.TableApply == nil {
		return dashboard.TableSnapshot{}, ErrNotConfigured
	}
	return h.TableApply.Run(ctx, input)
}

func (h *Handlers) ListTasks(ctx context.Context, viewer dashboard.ViewerContext) ([]tasks.Task, error) {
	if h.Tasks == nil {
		return nil, ErrNotConfigured
	}
	return h.Tasks.Query(ctx, viewer)
}

func (h *Handlers) AddTask(ctx context.Context, input commands.CreateTaskInput) (tasks.Task, error) {
	if h.CreateTask == nil {
		return tasks.Task{}, ErrNotConfigured
	}
	return h.CreateTask.Run(ctx, input)
}

func (h *Handlers) FlipTask(ctx context.Context, input commands.TaskInput) (tasks.Task, error) {
	if h.ToggleTask == nil {
		return tasks.Task{}, ErrNotConfigured
	}
	return h.ToggleTask.Run(ctx, input)
}

func (h *Handlers) RemoveTask(ctx context.Context, input commands.TaskInput) error {
	if h.DeleteTask == nil {
		return ErrNotConfigured
	}
	return h.DeleteTask.Execute(ctx, input)
}

func (h *Handlers) SendChat(ctx context.Context, input commands.ChatInput) (chat.Message, error) {
	if h.Chat == nil {
		return chat.Message{}, ErrNotConfigured
	}
	return h.Chat.Run(ctx, input)
}

func (h *Handlers) ResolveLayout(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Layout, error) {
	if h.Layout == nil {
		return dashboard.Layout{}, ErrNotConfigured
	}
	return h.Layout.Query(ctx, viewer)
}

func (h *Handlers) ResolveArea(ctx context.Context, input queries.AreaInput) (dashboard.ResolvedArea, error) {
	if h.Area == nil {
		return dashboard.ResolvedArea{}, ErrNotConfigured
	}
	return h.Area.Query(ctx, input)
}
