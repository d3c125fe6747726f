package dashboard

import "context"

// ActivityContext identifies who triggered an activity event. SessionID is
// copied into the event metadata so feeds can group a viewer's actions.
type ActivityContext struct {
	ActorID   string
	UserID    string
	TenantID  string
	SessionID string
}

// ActivityFromViewer builds the activity identity of a dashboard viewer.
func ActivityFromViewer(viewer ViewerContext) ActivityContext {
	return ActivityContext{
		ActorID:   viewer.UserID,
		UserID:    viewer.UserID,
		SessionID: viewer.SessionID,
	}
}

type activityKey struct{}

// ContextWithActivity attaches meta to ctx for commands that only carry ids.
func ContextWithActivity(ctx context.Context, meta ActivityContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, activityKey{}, meta)
}

// ActivityFromContext returns the identity stored by ContextWithActivity.
func ActivityFromContext(ctx context.Context) (ActivityContext, bool) {
	if ctx == nil {
		return ActivityContext{}, false
	}
	meta, ok := ctx.Value(activityKey{}).(ActivityContext)
	return meta, ok
}

// merge fills empty fields of a from b.
func (a ActivityContext) merge(b ActivityContext) ActivityContext {
	a.ActorID = firstNonEmpty(a.ActorID, b.ActorID, a.UserID, b.UserID)
	a.UserID = firstNonEmpty(a.UserID, b.UserID)
	a.TenantID = firstNonEmpty(a.TenantID, b.TenantID)
	a.SessionID = firstNonEmpty(a.SessionID, b.SessionID)
	return a
}
