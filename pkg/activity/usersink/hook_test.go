package usersink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-salesboard/pkg/activity"
	"github.com/goliatone/go-users/pkg/types"
)

type recordingSink struct {
	records []types.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record types.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookForwardsTaskToggle(t *testing.T) {
	sink := &recordingSink{}
	actor, tenant := uuid.New(), uuid.New()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := Hook{Sink: sink}.Notify(context.Background(), activity.Event{
		Verb:           "salesboard.task.toggle",
		ActorID:        " " + actor.String(),
		UserID:         "V001",
		TenantID:       tenant.String(),
		ObjectType:     "task",
		ObjectID:       "t-12",
		Channel:        "salesboard",
		DefinitionCode: "task:toggle",
		Recipients:     []string{"jefe.ventas@example.com"},
		Metadata:       map[string]any{"done": true},
		OccurredAt:     at,
	})
	require.NoError(t, err)
	require.Len(t, sink.records, 1)

	record := sink.records[0]
	assert.Equal(t, actor, record.ActorID)
	assert.Equal(t, uuid.Nil, record.UserID, "salesperson codes are not uuids")
	assert.Equal(t, tenant, record.TenantID)
	assert.Equal(t, "salesboard.task.toggle", record.Verb)
	assert.Equal(t, "t-12", record.ObjectID)
	assert.Equal(t, "salesboard", record.Channel)
	assert.Equal(t, at, record.OccurredAt)
	assert.Equal(t, map[string]any{
		"done":            true,
		"definition_code": "task:toggle",
		"recipients":      []string{"jefe.ventas@example.com"},
	}, record.Data)
}

func TestHookSkips(t *testing.T) {
	cases := map[string]struct {
		hook  func(*recordingSink) Hook
		event activity.Event
	}{
		"no sink":    {hook: func(*recordingSink) Hook { return Hook{} }, event: activity.Event{Verb: "salesboard.chat.message"}},
		"no verb":    {hook: func(s *recordingSink) Hook { return Hook{Sink: s} }, event: activity.Event{ObjectType: "chat"}},
		"blank verb": {hook: func(s *recordingSink) Hook { return Hook{Sink: s} }, event: activity.Event{Verb: "  "}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			sink := &recordingSink{}
			require.NoError(t, tc.hook(sink).Notify(context.Background(), tc.event))
			assert.Empty(t, sink.records)
		})
	}
}

func TestHookReturnsSinkError(t *testing.T) {
	sink := &recordingSink{err: errors.New("users db unavailable")}
	err := Hook{Sink: sink}.Notify(context.Background(), activity.Event{Verb: "salesboard.task.create"})
	assert.EqualError(t, err, "users db unavailable")
}
