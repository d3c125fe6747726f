package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-salesboard/pkg/activity"
	"github.com/goliatone/go-salesboard/pkg/tasks"
)

func activityService(store WidgetStore, opts Options) (*Service, *activity.CaptureHook) {
	capture := &activity.CaptureHook{}
	opts.WidgetStore = store
	opts.ActivityHooks = activity.Hooks{capture}
	if !opts.ActivityConfig.Enabled {
		opts.ActivityConfig = activity.Config{Enabled: true}
	}
	return NewService(opts), capture
}

func TestWidgetMutationsEmitActivity(t *testing.T) {
	ctx := context.Background()

	t.Run("add", func(t *testing.T) {
		service, capture := activityService(&fakeWidgetStore{}, Options{
			ActivityConfig: activity.Config{Enabled: true, Channel: "dashboard"},
		})
		require.NoError(t, service.AddWidget(ctx, AddWidgetRequest{
			DefinitionID: WidgetQuoteGoal,
			AreaCode:     AreaMain,
			ActorID:      "actor-1",
			UserID:       "seller-1",
			TenantID:     "tenant-1",
		}))
		require.Len(t, capture.Events, 1)
		event := capture.Events[0]
		assert.Equal(t, "dashboard.widget.add", event.Verb)
		assert.Equal(t, "widget_instance", event.ObjectType)
		assert.Equal(t, "actor-1", event.ActorID)
		assert.Equal(t, "seller-1", event.UserID)
		assert.Equal(t, "tenant-1", event.TenantID)
		assert.Equal(t, AreaMain, event.Metadata["area_code"])
	})

	t.Run("remove", func(t *testing.T) {
		store := &fakeWidgetStore{instances: map[string]WidgetInstance{
			"w-1": {ID: "w-1", DefinitionID: WidgetQuoteGoal, AreaCode: AreaMain},
		}}
		service, capture := activityService(store, Options{})
		require.NoError(t, service.RemoveWidget(ctx, "w-1"))
		require.Len(t, capture.Events, 1)
		assert.Equal(t, "dashboard.widget.remove", capture.Events[0].Verb)
		assert.Equal(t, "w-1", capture.Events[0].ObjectID)
		assert.Equal(t, WidgetQuoteGoal, capture.Events[0].Metadata["definition_id"])
		assert.NotContains(t, store.instances, "w-1")
	})

	t.Run("reorder", func(t *testing.T) {
		store := &fakeWidgetStore{}
		service, capture := activityService(store, Options{})
		require.NoError(t, service.ReorderWidgets(ctx, AreaMain, []string{"w1", "w2"}))
		require.Len(t, capture.Events, 1)
		assert.Equal(t, "dashboard.widget.reorder", capture.Events[0].Verb)
		assert.Equal(t, 2, capture.Events[0].Metadata["count"])
		require.Len(t, store.reorderCalls, 1)
	})
}

func TestTaskChangesEmitActivityAndRefresh(t *testing.T) {
	hook := &collectingHook{}
	service, capture := activityService(&fakeWidgetStore{}, Options{
		RefreshHook: hook,
		Backends:    NewSalesBackends(nil, tasks.NewMemoryStore(nil), nil, SalesSettings{}),
	})
	viewer := ViewerContext{UserID: "seller-1"}
	ctx := context.Background()

	created, err := service.CreateTask(ctx, viewer, tasks.Task{
		Description: "Llamar a ACME",
		Client:      "ACME",
		Type:        tasks.TypeFollowUp,
		Priority:    tasks.PriorityHigh,
	})
	require.NoError(t, err)
	_, err = service.ToggleTask(ctx, viewer, created.ID)
	require.NoError(t, err)
	require.NoError(t, service.DeleteTask(ctx, viewer, created.ID))

	verbs := make([]string, 0, len(capture.Events))
	for _, event := range capture.Events {
		verbs = append(verbs, event.Verb)
	}
	assert.Equal(t, []string{"salesboard.task.create", "salesboard.task.toggle", "salesboard.task.delete"}, verbs)
	assert.Equal(t, 3, hook.events)
}

func TestChatEmitsActivity(t *testing.T) {
	service, capture := activityService(nil, Options{
		Backends: NewSalesBackends(nil, nil, nil, SalesSettings{}),
	})
	reply, err := service.Chat(context.Background(), ViewerContext{UserID: "seller-1", SessionID: "s-1"}, "¿Cómo van mis ventas?")
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Content)
	require.Len(t, capture.Events, 1)
	assert.Equal(t, "salesboard.chat.message", capture.Events[0].Verb)
}
