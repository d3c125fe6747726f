// Package usersink forwards dashboard activity to a go-users activity sink.
package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-salesboard/pkg/activity"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Sink is the subset of the go-users activity sink the hook needs.
type Sink interface {
	Log(ctx context.Context, record types.ActivityRecord) error
}

// Hook maps activity events into go-users records.
type Hook struct {
	Sink Sink
}

var _ activity.Hook = Hook{}

// Notify implements activity.Hook.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	event = activity.NormalizeEvent(event)
	if event.Verb == "" {
		return nil
	}
	data := make(map[string]any, len(event.Metadata)+2)
	for k, v := range event.Metadata {
		data[k] = v
	}
	if event.DefinitionCode != "" {
		data["definition_code"] = event.DefinitionCode
	}
	if len(event.Recipients) > 0 {
		data["recipients"] = event.Recipients
	}
	record := types.ActivityRecord{
		ActorID:    parseID(event.ActorID),
		UserID:     parseID(event.UserID),
		TenantID:   parseID(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       data,
		OccurredAt: event.OccurredAt,
	}
	return h.Sink.Log(ctx, record)
}

// parseID returns uuid.Nil for identifiers that are not UUIDs, such as
// salesperson codes.
func parseID(value string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return id
}
