package goadmin_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "github.com/goliatone/go-salesboard/components/dashboard"
	"github.com/goliatone/go-salesboard/pkg/activity"
	"github.com/goliatone/go-salesboard/pkg/goadmin"
)

type stubMenuBuilder struct {
	calls int
	codes []string
	err   error
}

func (s *stubMenuBuilder) EnsureMenuItem(_ context.Context, _ string, item goadmin.MenuItem) error {
	s.calls++
	s.codes = append(s.codes, item.Code)
	return s.err
}

func newService() *core.Service {
	return core.NewService(core.Options{WidgetStore: core.NewMemoryWidgetStore()})
}

func TestAdminBootstrapSeedsMenu(t *testing.T) {
	builder := &stubMenuBuilder{}
	capture := &activity.CaptureHook{}
	admin, err := goadmin.New(goadmin.Config{
		EnableDashboard: true,
		Service:         newService(),
		MenuBuilder:     builder,
		ActivityHooks:   activity.Hooks{capture},
		ActivityConfig:  activity.Config{Enabled: true},
	})
	require.NoError(t, err)
	require.NoError(t, admin.Bootstrap(context.Background()))

	assert.Equal(t, len(goadmin.DefaultMenu()), builder.calls)
	assert.Equal(t, "sales.dashboard", builder.codes[0])
	assert.NotNil(t, admin.Dashboard())
	require.Len(t, capture.Events, 1)
	assert.Equal(t, "menu.seeded", capture.Events[0].Verb)
}

func TestAdminBootstrapJoinsErrors(t *testing.T) {
	builder := &stubMenuBuilder{err: errors.New("menu store down")}
	admin, err := goadmin.New(goadmin.Config{
		EnableDashboard: true,
		Service:         newService(),
		MenuBuilder:     builder,
	})
	require.NoError(t, err)
	err = admin.Bootstrap(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sales.tasks")
}

func TestAdminDisabledSkipsBootstrap(t *testing.T) {
	builder := &stubMenuBuilder{}
	admin, err := goadmin.New(goadmin.Config{
		EnableDashboard: false,
		MenuBuilder:     builder,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := admin.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap returned error: %v", err)
	}
	if builder.calls != 0 {
		t.Fatalf("expected 0 calls, got %d", builder.calls)
	}
	if admin.Dashboard() != nil {
		t.Fatalf("expected nil dashboard when disabled")
	}
}

func TestMenuFiltersAdminEntries(t *testing.T) {
	admin, err := goadmin.New(goadmin.Config{})
	require.NoError(t, err)

	seller := admin.Menu(core.ViewerContext{UserID: "ana", Roles: []string{"salesperson"}})
	for _, item := range seller {
		assert.False(t, item.AdminOnly, item.Code)
	}
	assert.Len(t, seller, len(goadmin.DefaultMenu())-1)

	boss := admin.Menu(core.ViewerContext{UserID: "root", Roles: []string{"Admin"}})
	assert.Len(t, boss, len(goadmin.DefaultMenu()))
	assert.Equal(t, "/admin", boss[len(boss)-1].Route)
}

func TestNewRejectsInvalidItems(t *testing.T) {
	_, err := goadmin.New(goadmin.Config{Items: []goadmin.MenuItem{{Label: "Sin ruta", Code: "x"}}})
	assert.Error(t, err)

	_, err = goadmin.New(goadmin.Config{Items: []goadmin.MenuItem{
		{Code: "a", Route: "/a"},
		{Code: "a", Route: "/b"},
	}})
	assert.Error(t, err)
}

func TestCustomItemsAreSortedByPosition(t *testing.T) {
	admin, err := goadmin.New(goadmin.Config{Items: []goadmin.MenuItem{
		{Code: "b", Route: "/b", Position: 2},
		{Code: "a", Route: "/a", Position: 1},
	}})
	require.NoError(t, err)
	menu := admin.Menu(core.ViewerContext{})
	assert.Equal(t, "a", menu[0].Code)
	_, ok := admin.Navigation(core.ViewerContext{}).([]goadmin.MenuItem)
	assert.True(t, ok)
}
