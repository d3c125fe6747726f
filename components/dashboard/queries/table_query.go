package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-salesboard/components/dashboard"
	"github.com/goliatone/go-salesboard/pkg/tasks"
)

// TableInput identifies a table of a viewer.
type TableInput struct {
	Viewer dashboard.ViewerContext
	Table  string
}

type tableService interface {
	TableSnapshot(ctx context.Context, viewer dashboard.ViewerContext, code string) (dashboard.TableSnapshot, error)
}

// TableQuery returns a table's current state without changing it.
type TableQuery struct {
	service tableService
}

// NewTableQuery builds the query.
func NewTableQuery(service tableService) *TableQuery {
	return &TableQuery{service: service}
}

var _ gocommand.Querier[TableInput, dashboard.TableSnapshot] = (*TableQuery)(nil)

// Query loads the snapshot.
func (q *TableQuery) Query(ctx context.Context, input TableInput) (dashboard.TableSnapshot, error) {
	return q.service.TableSnapshot(ctx, input.Viewer, input.Table)
}

type taskLister interface {
	ListTasks(ctx context.Context, viewer dashboard.ViewerContext) ([]tasks.Task, error)
}

// TasksQuery lists the viewer's tasks.
type TasksQuery struct {
	service taskLister
}

// NewTasksQuery builds the query.
func NewTasksQuery(service taskLister) *TasksQuery {
	return &TasksQuery{service: service}
}

var _ gocommand.Querier[dashboard.ViewerContext, []tasks.Task] = (*TasksQuery)(nil)

// Query lists tasks.
func (q *TasksQuery) Query(ctx context.Context, viewer dashboard.ViewerContext) ([]tasks.Task, error) {
	return q.service.ListTasks(ctx, viewer)
}
