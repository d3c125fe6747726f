package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-salesboard/components/dashboard"
	"github.com/goliatone/go-salesboard/pkg/tasks"
)

// CreateTaskInput adds a task for the viewer.
type CreateTaskInput struct {
	Viewer dashboard.ViewerContext `json:"viewer"`
	Task   tasks.Task              `json:"task"`
}

// TaskInput identifies a task of the viewer.
type TaskInput struct {
	Viewer dashboard.ViewerContext `json:"viewer"`
	TaskID string                  `json:"task_id"`
}

type taskService interface {
	CreateTask(ctx context.Context, viewer dashboard.ViewerContext, task tasks.Task) (tasks.Task, error)
	ToggleTask(ctx context.Context, viewer dashboard.ViewerContext, id string) (tasks.Task, error)
	DeleteTask(ctx context.Context, viewer dashboard.ViewerContext, id string) error
}

var errTaskService = errors.New("task command requires service")

// CreateTaskCommand wraps Service.CreateTask.
type CreateTaskCommand struct {
	service   taskService
	telemetry Telemetry
}

// NewCreateTaskCommand builds the command.
func NewCreateTaskCommand(service taskService, telemetry Telemetry) *CreateTaskCommand {
	return &CreateTaskCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CreateTaskInput] = (*CreateTaskCommand)(nil)

// Execute creates the task.
func (c *CreateTaskCommand) Execute(ctx context.Context, msg CreateTaskInput) error {
	_, err := c.Run(ctx, msg)
	return err
}

// Run creates the task and returns it with its assigned id.
func (c *CreateTaskCommand) Run(ctx context.Context, msg CreateTaskInput) (tasks.Task, error) {
	if c.service == nil {
		return tasks.Task{}, errTaskService
	}
	task, err := c.service.CreateTask(ctx, msg.Viewer, msg.Task)
	if err != nil {
		return tasks.Task{}, recordFailure(ctx, c.telemetry, EventTaskCreate, err, nil)
	}
	c.telemetry.Record(ctx, EventTaskCreate, map[string]any{"task_id": task.ID})
	return task, nil
}

// ToggleTaskCommand flips a task between pending and completed.
type ToggleTaskCommand struct {
	service   taskService
	telemetry Telemetry
}

// NewToggleTaskCommand builds the command.
func NewToggleTaskCommand(service taskService, telemetry Telemetry) *ToggleTaskCommand {
	return &ToggleTaskCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[TaskInput] = (*ToggleTaskCommand)(nil)

// Execute toggles the task.
func (c *ToggleTaskCommand) Execute(ctx context.Context, msg TaskInput) error {
	_, err := c.Run(ctx, msg)
	return err
}

// Run toggles the task and returns its new state.
func (c *ToggleTaskCommand) Run(ctx context.Context, msg TaskInput) (tasks.Task, error) {
	if c.service == nil {
		return tasks.Task{}, errTaskService
	}
	if msg.TaskID == "" {
		return tasks.Task{}, errors.New("toggle command requires task id")
	}
	task, err := c.service.ToggleTask(ctx, msg.Viewer, msg.TaskID)
	if err != nil {
		return tasks.Task{}, recordFailure(ctx, c.telemetry, EventTaskToggle, err, map[string]any{"task_id": msg.TaskID})
	}
	c.telemetry.Record(ctx, EventTaskToggle, map[string]any{
		"task_id": task.ID,
		"status":  string(task.Status),
	})
	return task, nil
}

// DeleteTaskCommand removes a task.
type DeleteTaskCommand struct {
	service   taskService
	telemetry Telemetry
}

// NewDeleteTaskCommand builds the command.
func NewDeleteTaskCommand(service taskService, telemetry Telemetry) *DeleteTaskCommand {
	return &DeleteTaskCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[TaskInput] = (*DeleteTaskCommand)(nil)

// Execute deletes the task.
func (c *DeleteTaskCommand) Execute(ctx context.Context, msg TaskInput) error {
	if c.service == nil {
		return errTaskService
	}
	if msg.TaskID == "" {
		return errors.New("delete command requires task id")
	}
	if err := c.service.DeleteTask(ctx, msg.Viewer, msg.TaskID); err != nil {
		return recordFailure(ctx, c.telemetry, EventTaskDelete, err, map[string]any{"task_id": msg.TaskID})
	}
	c.telemetry.Record(ctx, EventTaskDelete, map[string]any{"task_id": msg.TaskID})
	return nil
}
