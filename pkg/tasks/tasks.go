// Package tasks stores the salesperson follow-up list.
package tasks

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a task id does not exist for the owner.
	ErrNotFound = errors.New("tasks: task not found")
	// ErrOwnerRequired is returned when no owner is supplied.
	ErrOwnerRequired = errors.New("tasks: owner is required")
	// ErrInvalidTask is returned by Create for tasks without a description.
	ErrInvalidTask = errors.New("tasks: description is required")
)

// Priority ranks a task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Status is the completion state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Type categorizes what the task is about.
type Type string

const (
	TypeQuotation     Type = "quotation"
	TypeFollowUp      Type = "follow-up"
	TypeProactiveSale Type = "proactive-sale"
)

// Task is one entry of the list.
type Task struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Client      string   `json:"client"`
	OrderID     string   `json:"order_id,omitempty"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`
	Type        Type     `json:"type,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
}

// Completed reports whether the task is done.
func (t Task) Completed() bool { return t.Status == StatusCompleted }

// Toggled returns the task with its status flipped.
func (t Task) Toggled() Task {
	if t.Status == StatusCompleted {
		t.Status = StatusPending
	} else {
		t.Status = StatusCompleted
	}
	return t
}

// PriorityLabel returns the Spanish label of the priority.
func (t Task) PriorityLabel() string {
	switch t.Priority {
	case PriorityHigh:
		return "Alta"
	case PriorityMedium:
		return "Media"
	case PriorityLow:
		return "Baja"
	default:
		return string(t.Priority)
	}
}

// TypeLabel returns the Spanish label of the task type.
func (t Task) TypeLabel() string {
	switch t.Type {
	case TypeQuotation:
		return "Cotización"
	case TypeFollowUp:
		return "Seguimiento"
	case TypeProactiveSale:
		return "Venta Proactiva"
	default:
		return string(t.Type)
	}
}

// Store persists tasks per owner (the viewer user id).
type Store interface {
	List(ctx context.Context, owner string) ([]Task, error)
	Create(ctx context.Context, owner string, task Task) (Task, error)
	Toggle(ctx context.Context, owner, id string) (Task, error)
	Delete(ctx context.Context, owner, id string) error
}

// Pending filters out completed tasks.
func Pending(list []Task) []Task {
	out := make([]Task, 0, len(list))
	for _, t := range list {
		if !t.Completed() {
			out = append(out, t)
		}
	}
	return out
}

// Limit returns at most n tasks; n <= 0 returns all.
func Limit(list []Task, n int) []Task {
	if n <= 0 || n >= len(list) {
		return list
	}
	return list[:n]
}

// DemoTasks returns the starter list every new owner receives.
func DemoTasks() []Task {
	return []Task{
		{ID: "1", Description: "Seguimiento a cotización de Constructora Moderna", Client: "Constructora Moderna", OrderID: "COT-2023-089", Priority: PriorityHigh, Status: StatusPending, Type: TypeQuotation, DueDate: "Hoy, 3:00 PM"},
		{ID: "2", Description: "Contactar a cliente Universidad Nacional", Client: "Universidad Nacional", Priority: PriorityMedium, Status: StatusPending, Type: TypeFollowUp},
		{ID: "3", Description: "Revisar cotización vencida de Muebles Modernos", Client: "Muebles Modernos", OrderID: "COT-2023-045", Priority: PriorityHigh, Status: StatusPending, Type: TypeQuotation, DueDate: "Ayer"},
		{ID: "4", Description: "Contactar a Industrias García para nueva cotización", Client: "Industrias García", Priority: PriorityLow, Status: StatusPending, Type: TypeProactiveSale},
		{ID: "5", Description: "Seguimiento a cliente Hospital Central", Client: "Hospital Central", Priority: PriorityMedium, Status: StatusCompleted, Type: TypeFollowUp},
	}
}

func normalizeTask(task Task) (Task, error) {
	task.Description = strings.TrimSpace(task.Description)
	if task.Description == "" {
		return Task{}, ErrInvalidTask
	}
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}
	if task.Status == "" {
		task.Status = StatusPending
	}
	return task, nil
}

func normalizeOwner(owner string) (string, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", ErrOwnerRequired
	}
	return owner, nil
}
