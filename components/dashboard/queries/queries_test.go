package queries

import (
	"context"
	"testing"

	dashboard "github.com/goliatone/go-salesboard/components/dashboard"
	"github.com/goliatone/go-salesboard/pkg/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLayoutService struct {
	layouts int
	areas   []string
}

func (s *stubLayoutService) ConfigureLayout(context.Context, dashboard.ViewerContext) (dashboard.Layout, error) {
	s.layouts++
	return dashboard.Layout{Areas: map[string][]dashboard.WidgetInstance{}}, nil
}

func (s *stubLayoutService) ResolveArea(_ context.Context, _ dashboard.ViewerContext, code string) (dashboard.ResolvedArea, error) {
	s.areas = append(s.areas, code)
	return dashboard.ResolvedArea{AreaCode: code}, nil
}

func TestLayoutQuery(t *testing.T) {
	service := &stubLayoutService{}
	layout, err := NewLayoutQuery(service).Query(context.Background(), dashboard.ViewerContext{UserID: "V001"})
	require.NoError(t, err)
	assert.NotNil(t, layout.Areas)
	assert.Equal(t, 1, service.layouts)

	_, err = NewLayoutQuery(nil).Query(context.Background(), dashboard.ViewerContext{})
	assert.ErrorIs(t, err, errLayoutService)
}

func TestAreaQueryTrimsKnownCodes(t *testing.T) {
	service := &stubLayoutService{}
	area, err := NewAreaQuery(service).Query(context.Background(), AreaInput{AreaCode: " " + dashboard.AreaSidebar + " "})
	require.NoError(t, err)
	assert.Equal(t, dashboard.AreaSidebar, area.AreaCode)
	assert.Equal(t, []string{dashboard.AreaSidebar}, service.areas)
}

func TestAreaQueryRejectsUnknownArea(t *testing.T) {
	service := &stubLayoutService{}
	_, err := NewAreaQuery(service).Query(context.Background(), AreaInput{AreaCode: "admin.dashboard.main"})
	assert.ErrorIs(t, err, dashboard.ErrUnknownArea)
	assert.Empty(t, service.areas)
}

type stubTableService struct {
	codes []string
}

func (s *stubTableService) TableSnapshot(_ context.Context, _ dashboard.ViewerContext, code string) (dashboard.TableSnapshot, error) {
	s.codes = append(s.codes, code)
	return dashboard.TableSnapshot{Code: code}, nil
}

func (s *stubTableService) ListTasks(context.Context, dashboard.ViewerContext) ([]tasks.Task, error) {
	return tasks.DemoTasks(), nil
}

func TestTableQuery(t *testing.T) {
	service := &stubTableService{}
	snap, err := NewTableQuery(service).Query(context.Background(), TableInput{Table: dashboard.TableClients})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if snap.Code != dashboard.TableClients || len(service.codes) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestTasksQuery(t *testing.T) {
	list, err := NewTasksQuery(&stubTableService{}).Query(context.Background(), dashboard.ViewerContext{UserID: "seller"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(list) != len(tasks.DemoTasks()) {
		t.Fatalf("expected demo tasks, got %d", len(list))
	}
}
