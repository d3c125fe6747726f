package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooksNotifyTrimsEventAndDropsUnnamed(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{nil, capture}
	ctx := context.Background()

	require.NoError(t, hooks.Notify(ctx, Event{ObjectType: "task"}))
	require.NoError(t, hooks.Notify(ctx, Event{Verb: "   "}))
	assert.Empty(t, capture.Events)

	require.NoError(t, hooks.Notify(ctx, Event{
		Verb:       " salesboard.task.toggle ",
		ObjectType: " task ",
		ObjectID:   " t-7 ",
		UserID:     "V001 ",
	}))
	require.Len(t, capture.Events, 1)
	got := capture.Events[0]
	assert.Equal(t, "salesboard.task.toggle", got.Verb)
	assert.Equal(t, "task", got.ObjectType)
	assert.Equal(t, "t-7", got.ObjectID)
	assert.Equal(t, "V001", got.UserID)
	assert.False(t, got.OccurredAt.IsZero(), "timestamp stamped")
}

func TestNormalizeEventCopiesMutableFields(t *testing.T) {
	at := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	original := Event{
		Verb:       "salesboard.chat.message",
		Metadata:   map[string]any{"session": "s-1"},
		Recipients: []string{"ventas@example.com"},
		OccurredAt: at,
	}

	normalized := NormalizeEvent(original)
	normalized.Metadata["session"] = "s-2"
	normalized.Recipients[0] = "otro@example.com"

	assert.Equal(t, "s-1", original.Metadata["session"])
	assert.Equal(t, "ventas@example.com", original.Recipients[0])
	assert.True(t, normalized.OccurredAt.Equal(at))
	assert.Nil(t, NormalizeEvent(Event{Verb: "x"}).Metadata, "absent metadata stays nil")
}

func TestHooksNotifyJoinsErrors(t *testing.T) {
	errSink := errors.New("sink down")
	capture := &CaptureHook{}
	hooks := Hooks{
		HookFunc(func(context.Context, Event) error { return errSink }),
		capture,
		HookFunc(nil),
	}

	err := hooks.Notify(context.Background(), Event{Verb: "salesboard.task.delete"})
	assert.ErrorIs(t, err, errSink)
	assert.Len(t, capture.Events, 1, "later hooks still run")
}
