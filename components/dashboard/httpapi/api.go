package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-salesboard/components/dashboard"
	"github.com/goliatone/go-salesboard/components/dashboard/commands"
	"github.com/goliatone/go-salesboard/components/dashboard/queries"
	"github.com/goliatone/go-salesboard/pkg/chat"
	"github.com/goliatone/go-salesboard/pkg/session"
	"github.com/goliatone/go-salesboard/pkg/tasks"
)

// Runner is a command that also returns its result.
type Runner[T, R any] interface {
	Run(ctx context.Context, msg T) (R, error)
}

// Handlers exposes HTTP endpoints backed by shared commands.
type Handlers struct {
	Assign      gocommand.Commander[dashboard.AddWidgetRequest]
	Remove      gocommand.Commander[commands.RemoveWidgetInput]
	Reorder     gocommand.Commander[commands.ReorderWidgetsInput]
	Refresh     gocommand.Commander[commands.RefreshWidgetInput]
	Update      gocommand.Commander[commands.UpdateWidgetInput]
	Preferences gocommand.Commander[commands.SaveLayoutPreferencesInput]
	DeleteTask  gocommand.Commander[commands.TaskInput]

	Table      gocommand.Querier[queries.TableInput, dashboard.TableSnapshot]
	TableApply Runner[commands.ApplyTableActionInput, dashboard.TableSnapshot]
	Tasks      gocommand.Querier[dashboard.ViewerContext, []tasks.Task]
	CreateTask Runner[commands.CreateTaskInput, tasks.Task]
	ToggleTask Runner[commands.TaskInput, tasks.Task]
	Chat       Runner[commands.ChatInput, chat.Message]

	Layout gocommand.Querier[dashboard.ViewerContext, dashboard.Layout]
	Area   gocommand.Querier[queries.AreaInput, dashboard.ResolvedArea]
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrUnknownTable),
		errors.Is(err, dashboard.ErrUnknownArea),
		errors.Is(err, dashboard.ErrWidgetNotFound),
		errors.Is(err, tasks.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrInvalidTableAction),
		errors.Is(err, tasks.ErrInvalidTask),
		errors.Is(err, dashboard.ErrInvalidConfig),
		errors.Is(err, chat.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, tasks.ErrOwnerRequired),
		errors.Is(err, session.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, session.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, ErrNotConfigured):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *Handlers) HandleAssignWidget(w http.ResponseWriter, r *http.Request) {
	var payload dashboard.AddWidgetRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.AssignWidget(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handlers) HandleRemoveWidget(w http.ResponseWriter, r *http.Request, widgetID string) {
	input := commands.RemoveWidgetInput{WidgetID: widgetID}
	if err := h.RemoveWidget(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleReorderWidgets(w http.ResponseWriter, r *http.Request) {
	var payload commands.ReorderWidgetsInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.ReorderWidgets(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) HandleRefreshWidget(w http.ResponseWriter, r *http.Request) {
	var payload commands.RefreshWidgetInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.RefreshWidget(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) HandleUpdateWidget(w http.ResponseWriter, r *http.Request, widgetID string) {
	var payload commands.UpdateWidgetInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payload.WidgetID = widgetID
	if err := h.UpdateWidget(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) HandleSavePreferences(w http.ResponseWriter, r *http.Request, viewer dashboard.ViewerContext) {
	var payload commands.SaveLayoutPreferencesInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payload.Viewer = viewer
	if err := h.SavePreferences(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleTable(w http.ResponseWriter, r *http.Request, viewer dashboard.ViewerContext, code string) {
	snap, err := h.TableSnapshot(r.Context(), queries.TableInput{Viewer: viewer, Table: code})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handlers) HandleTableAction(w http.ResponseWriter, r *http.Request, viewer dashboard.ViewerContext, code string) {
	var action dashboard.TableAction
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	snap, err := h.ApplyTableAction(r.Context(), commands.ApplyTableActionInput{Viewer: viewer, Table: code, Action: action})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handlers) HandleListTasks(w http.ResponseWriter, r *http.Request, viewer dashboard.ViewerContext) {
	list, err := h.ListTasks(r.Context(), viewer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": list})
}

func (h *Handlers) HandleCreateTask(w http.ResponseWriter, r *http.Request, viewer dashboard.ViewerContext) {
	var task tasks.Task
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := h.AddTask(r.Context(), commands.CreateTaskInput{Viewer: viewer, Task: task})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) HandleToggleTask(w http.ResponseWriter, r *http.Request, viewer dashboard.ViewerContext, taskID string) {
	task, err := h.FlipTask(r.Context(), commands.TaskInput{Viewer: viewer, TaskID: taskID})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handlers) HandleDeleteTask(w http.ResponseWriter, r *http.Request, viewer dashboard.ViewerContext, taskID string) {
	if err := h.RemoveTask(r.Context(), commands.TaskInput{Viewer: viewer, TaskID: taskID}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleLayout(w http.ResponseWriter, r *http.Request, viewer dashboard.ViewerContext) {
	layout, err := h.ResolveLayout(r.Context(), viewer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layout)
}

func (h *Handlers) HandleArea(w http.ResponseWriter, r *http.Request, viewer dashboard.ViewerContext, areaCode string) {
	area, err := h.ResolveArea(r.Context(), queries.AreaInput{Viewer: viewer, AreaCode: areaCode})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, area)
}

// ChatRequest is the body of a chat message.
type ChatRequest struct {
	Message string `json:"message"`
}

func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request, viewer dashboard.ViewerContext) {
	var payload ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	reply, err := h.SendChat(r.Context(), commands.ChatInput{Viewer: viewer, Message: payload.Message})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
