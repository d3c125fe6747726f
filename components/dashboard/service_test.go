package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quoteGoalArea(ids ...string) *fakeWidgetStore {
	widgets := make([]WidgetInstance, 0, len(ids))
	for _, id := range ids {
		widgets = append(widgets, WidgetInstance{ID: id, DefinitionID: WidgetQuoteGoal, AreaCode: AreaMain})
	}
	return &fakeWidgetStore{resolved: map[string][]WidgetInstance{AreaMain: widgets}}
}

func widgetIDs(widgets []WidgetInstance) []string {
	ids := make([]string, 0, len(widgets))
	for _, w := range widgets {
		ids = append(ids, w.ID)
	}
	return ids
}

func TestConfigureLayout(t *testing.T) {
	cases := []struct {
		name      string
		overrides LayoutOverrides
		auth      Authorizer
		want      []string
	}{
		{name: "store order", want: []string{"w1", "w2", "w3"}},
		{
			name: "authorizer filters",
			auth: allowListAuthorizer{allowed: map[string]bool{"w2": true}},
			want: []string{"w2"},
		},
		{
			name:      "saved order",
			overrides: LayoutOverrides{AreaOrder: map[string][]string{AreaMain: {"w3", "w1"}}},
			want:      []string{"w3", "w1", "w2"},
		},
		{
			name: "hidden widgets",
			overrides: LayoutOverrides{
				AreaOrder:     map[string][]string{AreaMain: {"w2", "w1"}},
				HiddenWidgets: map[string]bool{"w2": true},
			},
			want: []string{"w1", "w3"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			viewer := ViewerContext{UserID: "seller-1"}
			prefs := NewInMemoryPreferenceStore()
			require.NoError(t, prefs.SaveLayoutOverrides(ctx, viewer, tc.overrides))
			service := NewService(Options{
				WidgetStore:     quoteGoalArea("w1", "w2", "w3"),
				Authorizer:      tc.auth,
				PreferenceStore: prefs,
			})

			layout, err := service.ConfigureLayout(ctx, viewer)
			require.NoError(t, err)
			assert.Equal(t, tc.want, widgetIDs(layout.Areas[AreaMain]))

			area, err := service.ResolveArea(ctx, viewer, AreaMain)
			require.NoError(t, err)
			assert.Equal(t, tc.want, widgetIDs(area.Widgets), "single area resolves like the full layout")
		})
	}
}

func TestConfigureLayoutAttachesProviderData(t *testing.T) {
	store := &fakeWidgetStore{
		resolved: map[string][]WidgetInstance{
			AreaMain: {{ID: "w1", DefinitionID: WidgetQuoteGoal, Configuration: map[string]any{"goal": 10}}},
		},
	}
	service := NewService(Options{WidgetStore: store, Backends: NewSalesBackends(nil, nil, nil, SalesSettings{})})

	layout, err := service.ConfigureLayout(context.Background(), ViewerContext{UserID: "seller-1"})
	require.NoError(t, err)
	require.Len(t, layout.Areas[AreaMain], 1)
	data, ok := layout.Areas[AreaMain][0].Metadata["data"].(WidgetData)
	require.True(t, ok, "metadata: %#v", layout.Areas[AreaMain][0].Metadata)
	assert.Equal(t, 10, data["goal"])
}

func TestAddWidget(t *testing.T) {
	hook := &collectingHook{}
	store := &fakeWidgetStore{}
	service := NewService(Options{WidgetStore: store, RefreshHook: hook})
	start := time.Now().UTC()

	err := service.AddWidget(context.Background(), AddWidgetRequest{
		DefinitionID:  WidgetQuoteGoal,
		AreaCode:      AreaMain,
		Configuration: map[string]any{"goal": 25},
		Roles:         []string{"seller"},
		StartAt:       &start,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, hook.events)
	require.Len(t, store.assignCalls, 1)
	assert.Equal(t, AreaMain, store.assignCalls[0].AreaCode)

	t.Run("missing area", func(t *testing.T) {
		err := service.AddWidget(context.Background(), AddWidgetRequest{DefinitionID: WidgetQuoteGoal})
		assert.ErrorIs(t, err, errInvalidArea)
	})
	t.Run("missing definition", func(t *testing.T) {
		err := service.AddWidget(context.Background(), AddWidgetRequest{AreaCode: AreaMain})
		assert.ErrorIs(t, err, errInvalidDefinition)
	})
}

func TestUpdateWidgetValidatesAgainstDefinition(t *testing.T) {
	store := &fakeWidgetStore{
		instances: map[string]WidgetInstance{
			"w1": {ID: "w1", DefinitionID: WidgetTable, AreaCode: AreaMain, Configuration: map[string]any{"table": TableQuotations}},
		},
	}
	hook := &collectingHook{}
	service := NewService(Options{WidgetStore: store, RefreshHook: hook})
	ctx := context.Background()

	_, err := service.UpdateWidget(ctx, UpdateWidgetRequest{
		InstanceID:    "w1",
		Configuration: map[string]any{"table": "unknown"},
	})
	require.Error(t, err)
	assert.Zero(t, hook.events)

	updated, err := service.UpdateWidget(ctx, UpdateWidgetRequest{
		InstanceID:    "w1",
		Configuration: map[string]any{"table": TableClients},
	})
	require.NoError(t, err)
	assert.Equal(t, TableClients, updated.Configuration["table"])
	assert.Equal(t, AreaMain, updated.AreaCode)
	assert.Equal(t, 1, hook.events)

	_, err = service.UpdateWidget(ctx, UpdateWidgetRequest{InstanceID: "missing"})
	assert.ErrorIs(t, err, ErrWidgetNotFound)
}

func TestSavePreferences(t *testing.T) {
	prefs := NewInMemoryPreferenceStore()
	service := NewService(Options{PreferenceStore: prefs})
	ctx := context.Background()

	require.Error(t, service.SavePreferences(ctx, ViewerContext{}, LayoutOverrides{}))

	viewer := ViewerContext{UserID: "seller-4"}
	require.NoError(t, service.SavePreferences(ctx, viewer, LayoutOverrides{
		AreaOrder:     map[string][]string{AreaMain: {"w2", "w1"}},
		HiddenWidgets: map[string]bool{"w3": true},
	}))
	stored, err := prefs.LayoutOverrides(ctx, viewer)
	require.NoError(t, err)
	assert.True(t, stored.HiddenWidgets["w3"])
	assert.Equal(t, []string{"w2", "w1"}, stored.AreaOrder[AreaMain])
}

func TestNotifyWidgetUpdatedRecordsTelemetry(t *testing.T) {
	hook := &collectingHook{}
	telemetry := &testTelemetry{}
	service := NewService(Options{
		WidgetStore: &fakeWidgetStore{},
		RefreshHook: hook,
		Telemetry:   telemetry,
	})
	event := WidgetEvent{AreaCode: AreaMain, Instance: WidgetInstance{ID: "w1"}, Reason: "quote.created"}

	require.NoError(t, service.NotifyWidgetUpdated(context.Background(), event))
	assert.Equal(t, 1, hook.events)
	assert.Equal(t, 1, telemetry.calls)
}

// fakeWidgetStore keeps instances in maps and records every write.
type fakeWidgetStore struct {
	resolved     map[string][]WidgetInstance
	instances    map[string]WidgetInstance
	definitions  []string
	assignCalls  []AssignWidgetInput
	reorderCalls []ReorderAreaInput
}

func (f *fakeWidgetStore) EnsureArea(context.Context, WidgetAreaDefinition) (bool, error) {
	return true, nil
}

func (f *fakeWidgetStore) EnsureDefinition(_ context.Context, def WidgetDefinition) (bool, error) {
	f.definitions = append(f.definitions, def.Code)
	return true, nil
}

func (f *fakeWidgetStore) CreateInstance(_ context.Context, input CreateWidgetInstanceInput) (WidgetInstance, error) {
	return WidgetInstance{ID: input.DefinitionID + "-instance", DefinitionID: input.DefinitionID}, nil
}

func (f *fakeWidgetStore) GetInstance(_ context.Context, id string) (WidgetInstance, error) {
	if instance, ok := f.instances[id]; ok {
		return instance, nil
	}
	return WidgetInstance{}, ErrWidgetNotFound
}

func (f *fakeWidgetStore) UpdateInstance(_ context.Context, input UpdateWidgetInstanceInput) (WidgetInstance, error) {
	instance, ok := f.instances[input.InstanceID]
	if !ok {
		return WidgetInstance{}, ErrWidgetNotFound
	}
	if input.Configuration != nil {
		instance.Configuration = input.Configuration
	}
	f.instances[input.InstanceID] = instance
	return instance, nil
}

func (f *fakeWidgetStore) DeleteInstance(_ context.Context, id string) error {
	delete(f.instances, id)
	return nil
}

func (f *fakeWidgetStore) AssignInstance(_ context.Context, input AssignWidgetInput) error {
	f.assignCalls = append(f.assignCalls, input)
	return nil
}

func (f *fakeWidgetStore) ReorderArea(_ context.Context, input ReorderAreaInput) error {
	f.reorderCalls = append(f.reorderCalls, input)
	return nil
}

func (f *fakeWidgetStore) ResolveArea(_ context.Context, input ResolveAreaInput) (ResolvedArea, error) {
	return ResolvedArea{AreaCode: input.AreaCode, Widgets: append([]WidgetInstance{}, f.resolved[input.AreaCode]...)}, nil
}

type allowListAuthorizer struct {
	allowed map[string]bool
}

func (a allowListAuthorizer) CanViewWidget(_ context.Context, _ ViewerContext, instance WidgetInstance) bool {
	return a.allowed[instance.ID]
}

type collectingHook struct {
	events int
}

func (h *collectingHook) WidgetUpdated(context.Context, WidgetEvent) error {
	h.events++
	return nil
}

type testTelemetry struct {
	calls int
}

func (t *testTelemetry) Record(context.Context, string, map[string]any) {
	t.calls++
}
