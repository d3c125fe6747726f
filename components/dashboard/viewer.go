package dashboard

import (
	"context"
	"slices"
	"time"
)

// ViewerContext is the per-request identity threaded through the service,
// providers and tables. Transports build it from the session; nothing in
// this package reads a global user.
type ViewerContext struct {
	UserID          string
	Roles           []string
	Locale          string
	SessionID       string
	SalespersonCode int
	// Token is the backend bearer token of the session.
	Token string
	// AsOf pins the date of sales lookups. Zero uses the configured date.
	AsOf time.Time
}

// HasRole reports whether the viewer carries the role.
func (v ViewerContext) HasRole(role string) bool {
	return slices.Contains(v.Roles, role)
}

// Authorizer decides which placed widgets a viewer may see.
type Authorizer interface {
	CanViewWidget(ctx context.Context, viewer ViewerContext, instance WidgetInstance) bool
}
