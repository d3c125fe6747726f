// Package activity normalizes dashboard activity events and fans them out to
// hooks such as audit logs or notification sinks.
package activity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// DefaultChannel is used when neither the event nor the emitter config sets one.
const DefaultChannel = "dashboard"

// Event describes something a viewer did on the dashboard: a widget change,
// a task toggle, a table refresh.
type Event struct {
	Verb           string
	ActorID        string
	UserID         string
	TenantID       string
	ObjectType     string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// Hook receives normalized events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function into a Hook.
type HookFunc func(ctx context.Context, event Event) error

// Notify implements Hook.
func (f HookFunc) Notify(ctx context.Context, event Event) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// Hooks fans an event out to every hook in order.
type Hooks []Hook

// Notify normalizes the event and forwards it. Events without a verb are
// dropped. Hook errors are joined so one failing sink does not starve the rest.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	event = NormalizeEvent(event)
	if event.Verb == "" {
		return nil
	}
	var errs error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

// NormalizeEvent trims identifiers, clones metadata and recipients, and stamps
// OccurredAt when unset.
func NormalizeEvent(event Event) Event {
	event.Verb = strings.TrimSpace(event.Verb)
	event.ActorID = strings.TrimSpace(event.ActorID)
	event.UserID = strings.TrimSpace(event.UserID)
	event.TenantID = strings.TrimSpace(event.TenantID)
	event.ObjectType = strings.TrimSpace(event.ObjectType)
	event.ObjectID = strings.TrimSpace(event.ObjectID)
	event.Channel = strings.TrimSpace(event.Channel)
	event.DefinitionCode = strings.TrimSpace(event.DefinitionCode)
	if event.Metadata != nil {
		meta := make(map[string]any, len(event.Metadata))
		for k, v := range event.Metadata {
			meta[k] = v
		}
		event.Metadata = meta
	}
	if event.Recipients != nil {
		event.Recipients = append([]string(nil), event.Recipients...)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return event
}

// CaptureHook stores every event it receives. Useful in tests and demos.
type CaptureHook struct {
	Events []Event
}

// Notify implements Hook.
func (c *CaptureHook) Notify(_ context.Context, event Event) error {
	c.Events = append(c.Events, event)
	return nil
}
