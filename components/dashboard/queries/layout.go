package queries

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-salesboard/components/dashboard"
)

var errLayoutService = errors.New("queries: layout service not configured")

type layoutService interface {
	ConfigureLayout(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Layout, error)
	ResolveArea(ctx context.Context, viewer dashboard.ViewerContext, areaCode string) (dashboard.ResolvedArea, error)
}

// LayoutQuery resolves every area of the viewer's dashboard.
type LayoutQuery struct {
	service layoutService
}

func NewLayoutQuery(service layoutService) *LayoutQuery {
	return &LayoutQuery{service: service}
}

var _ gocommand.Querier[dashboard.ViewerContext, dashboard.Layout] = (*LayoutQuery)(nil)

func (q *LayoutQuery) Query(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Layout, error) {
	if q.service == nil {
		return dashboard.Layout{}, errLayoutService
	}
	return q.service.ConfigureLayout(ctx, viewer)
}

// AreaInput names one dashboard area for a viewer.
type AreaInput struct {
	Viewer   dashboard.ViewerContext
	AreaCode string
}

// AreaQuery resolves a single area, e.g. to re-render the sidebar after a
// task changes.
type AreaQuery struct {
	service layoutService
}

func NewAreaQuery(service layoutService) *AreaQuery {
	return &AreaQuery{service: service}
}

var _ gocommand.Querier[AreaInput, dashboard.ResolvedArea] = (*AreaQuery)(nil)

// Query rejects codes outside the dashboard areas with ErrUnknownArea.
func (q *AreaQuery) Query(ctx context.Context, input AreaInput) (dashboard.ResolvedArea, error) {
	if q.service == nil {
		return dashboard.ResolvedArea{}, errLayoutService
	}
	code := strings.TrimSpace(input.AreaCode)
	if !dashboard.KnownArea(code) {
		return dashboard.ResolvedArea{}, fmt.Errorf("%w: %q", dashboard.ErrUnknownArea, code)
	}
	return q.service.ResolveArea(ctx, input.Viewer, code)
}
