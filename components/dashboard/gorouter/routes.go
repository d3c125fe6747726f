package gorouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-salesboard/components/dashboard"
	"github.com/goliatone/go-salesboard/components/dashboard/commands"
	"github.com/goliatone/go-salesboard/components/dashboard/httpapi"
	"github.com/goliatone/go-salesboard/components/dashboard/queries"
	"github.com/goliatone/go-salesboard/pkg/session"
	"github.com/goliatone/go-salesboard/pkg/tasks"
)

// ViewerResolver converts a router.Context into a dashboard.ViewerContext.
type ViewerResolver func(router.Context) dashboard.ViewerContext

// Authenticator verifies credentials against the sales backend and returns
// the user together with the backend bearer token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (session.User, string, error)
	Signup(ctx context.Context, email, password string, code int) (session.User, string, error)
}

// LogoutHook runs after a session is destroyed through the logout route.
type LogoutHook func(ctx context.Context, sess session.Session)

// Config wires go-router with the sales dashboard controllers, APIs, and hooks.
type Config[T any] struct {
	Router         router.Router[T]
	Controller     *dashboard.Controller
	API            httpapi.Executor
	Broadcast      *dashboard.BroadcastHook
	ViewerResolver ViewerResolver
	// Sessions enables the login/logout routes and guards every dashboard
	// route. Without it the ViewerResolver (or locals) identify the viewer.
	Sessions session.Store
	Auth     Authenticator
	// OnLogout releases per-session state, such as table views.
	OnLogout LogoutHook
	BasePath string
	Routes   RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	HTML        string
	Layout      string
	Area        string
	Widgets     string
	WidgetID    string
	Reorder     string
	Refresh     string
	Preferences string
	Table       string
	Tasks       string
	TaskID      string
	TaskToggle  string
	Chat        string
	WebSocket   string
	Login       string
	Signup      string
	Logout      string
}

// LoginRequest is the body of the login route.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the body of the signup route.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     int    `json:"code"`
}

// SessionLocal is the locals key holding the resolved session.
const SessionLocal = "session"

// Register mounts dashboard routes (HTML, JSON, REST, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	if cfg.Auth != nil && cfg.Sessions == nil {
		return errors.New("gorouter: session store is required for login")
	}
	routes := cfg.routes()
	base := cfg.BasePath
	if base == "" {
		base = "/admin"
	}
	viewerResolver := cfg.ViewerResolver
	if viewerResolver == nil {
		viewerResolver = defaultViewerResolver
	}
	g := guard{store: cfg.Sessions, resolver: viewerResolver}

	group := cfg.Router.Group(base)

	if cfg.Sessions != nil && cfg.Auth != nil {
		registerAuth(group, cfg.Auth, cfg.Sessions, cfg.OnLogout, routes)
	}

	group.Get(routes.HTML, router.WrapHandler(g.protect(func(ctx router.Context, viewer dashboard.ViewerContext) error {
		var buf bytes.Buffer
		if err := cfg.Controller.RenderTemplate(ctx.Context(), viewer, &buf); err != nil {
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send(buf.Bytes())
	})))

	group.Get(routes.Layout, router.WrapHandler(g.protect(func(ctx router.Context, viewer dashboard.ViewerContext) error {
		payload, err := cfg.Controller.LayoutPayload(ctx.Context(), viewer)
		if err != nil {
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		return ctx.JSON(http.StatusOK, payload)
	})))

	if cfg.API != nil {
		registerAPI(group, cfg.API, g, routes)
	}

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}

	return nil
}

type guardedHandler func(ctx router.Context, viewer dashboard.ViewerContext) error

type guard struct {
	store    session.Store
	resolver ViewerResolver
}

// protect requires a live session when a store is configured.
func (g guard) protect(next guardedHandler) func(router.Context) error {
	return func(ctx router.Context) error {
		viewer, err := g.viewer(ctx)
		if errors.Is(err, errInvalidScope) {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return next(ctx, viewer)
	}
}

// admin additionally requires the admin role.
func (g guard) admin(next guardedHandler) func(router.Context) error {
	return g.protect(func(ctx router.Context, viewer dashboard.ViewerContext) error {
		if g.store == nil {
			return next(ctx, viewer)
		}
		sess, _ := ctx.Locals(SessionLocal).(session.Session)
		if err := session.RequireAdmin(&sess); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return next(ctx, viewer)
	})
}

func (g guard) viewer(ctx router.Context) (dashboard.ViewerContext, error) {
	if g.store == nil {
		return scopeViewer(ctx, g.resolver(ctx))
	}
	sess, err := g.store.Get(ctx.Context(), sessionID(ctx))
	if err != nil {
		return dashboard.ViewerContext{}, session.ErrUnauthenticated
	}
	if err := session.RequireSession(&sess); err != nil {
		return dashboard.ViewerContext{}, err
	}
	ctx.Locals(SessionLocal, sess)
	return scopeViewer(ctx, ViewerFromSession(sess, inferLocale(ctx)))
}

var errInvalidScope = errors.New("gorouter: invalid salesperson scope")

// scopeViewer lets admins look at another salesperson through the code and
// start_date query parameters. Anyone else sending them is forbidden.
func scopeViewer(ctx router.Context, viewer dashboard.ViewerContext) (dashboard.ViewerContext, error) {
	code := strings.TrimSpace(ctx.Query("code"))
	start := strings.TrimSpace(ctx.Query("start_date"))
	if code == "" && start == "" {
		return viewer, nil
	}
	if !viewer.HasRole(session.RoleAdmin) {
		return dashboard.ViewerContext{}, session.ErrForbidden
	}
	if code != "" {
		n, err := strconv.Atoi(code)
		if err != nil || n < 0 {
			return dashboard.ViewerContext{}, fmt.Errorf("%w: code %q", errInvalidScope, code)
		}
		viewer.SalespersonCode = n
	}
	if start != "" {
		day, err := time.Parse(time.DateOnly, start)
		if err != nil {
			return dashboard.ViewerContext{}, fmt.Errorf("%w: start_date %q", errInvalidScope, start)
		}
		viewer.AsOf = day
	}
	return viewer, nil
}

// ViewerFromSession builds the viewer for a logged-in salesperson.
func ViewerFromSession(sess session.Session, locale string) dashboard.ViewerContext {
	viewer := dashboard.ViewerContext{
		UserID:          sess.User.ID,
		SessionID:       sess.ID,
		SalespersonCode: sess.User.Code,
		Token:           sess.Token,
		Locale:          locale,
	}
	if viewer.UserID == "" {
		viewer.UserID = sess.User.Email
	}
	switch {
	case sess.User.IsAdmin():
		viewer.Roles = []string{session.RoleAdmin}
	case sess.User.Role != "":
		viewer.Roles = []string{sess.User.Role}
	}
	return viewer
}

func sessionID(ctx router.Context) string {
	if id := session.BearerID(ctx.Header("Authorization")); id != "" {
		return id
	}
	if id, ok := ctx.Locals("session_id").(string); ok && id != "" {
		return id
	}
	return strings.TrimSpace(ctx.Query("session"))
}

func registerAuth[T any](r router.Router[T], auth Authenticator, store session.Store, onLogout LogoutHook, routes RouteConfig) {
	r.Post(routes.Login, router.WrapHandler(func(ctx router.Context) error {
		var payload LoginRequest
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
			return respondError(ctx, http.StatusBadRequest, errors.New("email and password are required"))
		}
		user, token, err := auth.Login(ctx.Context(), payload.Email, payload.Password)
		if err != nil {
			return respondError(ctx, http.StatusUnauthorized, err)
		}
		return startSession(ctx, store, http.StatusOK, user, token)
	}))

	r.Post(routes.Signup, router.WrapHandler(func(ctx router.Context) error {
		var payload SignupRequest
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if strings.TrimSpace(payload.Email) == "" || payload.Password == "" || payload.Code <= 0 {
			return respondError(ctx, http.StatusBadRequest, errors.New("email, password and salesperson code are required"))
		}
		user, token, err := auth.Signup(ctx.Context(), payload.Email, payload.Password, payload.Code)
		if errors.Is(err, session.ErrAccountExists) {
			return respondError(ctx, http.StatusConflict, err)
		}
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		return startSession(ctx, store, http.StatusCreated, user, token)
	}))

	r.Post(routes.Logout, router.WrapHandler(func(ctx router.Context) error {
		id := sessionID(ctx)
		if id == "" {
			return respondError(ctx, http.StatusUnauthorized, session.ErrUnauthenticated)
		}
		sess, lookupErr := store.Get(ctx.Context(), id)
		if err := store.Destroy(ctx.Context(), id); err != nil {
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		if lookupErr == nil && onLogout != nil {
			onLogout(ctx.Context(), sess)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "logged_out"})
	}))
}

func startSession(ctx router.Context, store session.Store, status int, user session.User, token string) error {
	sess, err := store.Create(ctx.Context(), user, token)
	if err != nil {
		return respondError(ctx, http.StatusInternalServerError, err)
	}
	return ctx.JSON(status, map[string]any{
		"session_id": sess.ID,
		"user":       sess.User,
		"expires_at": sess.ExpiresAt,
	})
}

func registerAPI[T any](r router.Router[T], api httpapi.Executor, g guard, routes RouteConfig) {
	r.Get(routes.Area, router.WrapHandler(g.protect(func(ctx router.Context, viewer dashboard.ViewerContext) error {
		area, err := api.ResolveArea(ctx.Context(), queries.AreaInput{Viewer: viewer, AreaCode: ctx.Param("area")})
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, area)
	})))

	r.Post(routes.Widgets, router.WrapHandler(g.admin(func(ctx router.Context, _ dashboard.ViewerContext) error {
		var payload dashboard.AddWidgetRequest
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if err := api.AssignWidget(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusCreated, map[string]string{"status": "created"})
	})))

	r.Put(routes.WidgetID, router.WrapHandler(g.admin(func(ctx router.Context, _ dashboard.ViewerContext) error {
		var payload commands.UpdateWidgetInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.WidgetID = ctx.Param("id")
		if err := api.UpdateWidget(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "updated"})
	})))

	r.Delete(routes.WidgetID, router.WrapHandler(g.admin(func(ctx router.Context, _ dashboard.ViewerContext) error {
		id := ctx.Param("id")
		if id == "" {
			return respondError(ctx, http.StatusBadRequest, errors.New("widget id is required"))
		}
		if err := api.RemoveWidget(ctx.Context(), commands.RemoveWidgetInput{WidgetID: id}); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusNoContent, map[string]string{"status": "removed"})
	})))

	r.Post(routes.Reorder, router.WrapHandler(g.admin(func(ctx router.Context, _ dashboard.ViewerContext) error {
		var payload commands.ReorderWidgetsInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if err := api.ReorderWidgets(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "reordered"})
	})))

	r.Post(routes.Refresh, router.WrapHandler(g.protect(func(ctx router.Context, _ dashboard.ViewerContext) error {
		var payload commands.RefreshWidgetInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		if err := api.RefreshWidget(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
	})))

	r.Post(routes.Preferences, router.WrapHandler(g.protect(func(ctx router.Context, viewer dashboard.ViewerContext) error {
		var payload commands.SaveLayoutPreferencesInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.Viewer = viewer
		if err := api.SavePreferences(ctx.Context(), payload); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "saved"})
	})))

	r.Get(routes.Table, router.WrapHandler(g.protect(func(ctx router.Context, viewer dashboard.ViewerContext) error {
		snap, err := api.TableSnapshot(ctx.Context(), queries.TableInput{Viewer: viewer, Table: ctx.Param("table")})
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, snap)
	})))

	r.Post(routes.Table, router.WrapHandler(g.protect(func(ctx router.Context, viewer dashboard.ViewerContext) error {
		var action dashboard.TableAction
		if err := json.Unmarshal(ctx.Body(), &action); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		snap, err := api.ApplyTableAction(ctx.Context(), commands.ApplyTableActionInput{
			Viewer: viewer,
			Table:  ctx.Param("table"),
			Action: action,
		})
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, snap)
	})))

	r.Get(routes.Tasks, router.WrapHandler(g.protect(func(ctx router.Context, viewer dashboard.ViewerContext) error {
		list, err := api.ListTasks(ctx.Context(), viewer)
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, map[string]any{"tasks": list})
	})))

	r.Post(routes.Tasks, router.WrapHandler(g.protect(func(ctx router.Context, viewer dashboard.ViewerContext) error {
		var task tasks.Task
		if err := json.Unmarshal(ctx.Body(), &task); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		created, err := api.AddTask(ctx.Context(), commands.CreateTaskInput{Viewer: viewer, Task: task})
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusCreated, created)
	})))

	r.Post(routes.TaskToggle, router.WrapHandler(g.protect(func(ctx router.Context, viewer dashboard.ViewerContext) error {
		task, err := api.FlipTask(ctx.Context(), commands.TaskInput{Viewer: viewer, TaskID: ctx.Param("id")})
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, task)
	})))

	r.Delete(routes.TaskID, router.WrapHandler(g.protect(func(ctx router.Context, viewer dashboard.ViewerContext) error {
		if err := api.RemoveTask(ctx.Context(), commands.TaskInput{Viewer: viewer, TaskID: ctx.Param("id")}); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "deleted"})
	})))

	r.Post(routes.Chat, router.WrapHandler(g.protect(func(ctx router.Context, viewer dashboard.ViewerContext) error {
		var payload httpapi.ChatRequest
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		reply, err := api.SendChat(ctx.Context(), commands.ChatInput{Viewer: viewer, Message: payload.Message})
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, reply)
	})))
}

func registerWebSocket[T any](r router.Router[T], hook *dashboard.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe(dashboard.ViewerContext{})
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func defaultViewerResolver(ctx router.Context) dashboard.ViewerContext {
	var viewer dashboard.ViewerContext
	if v, ok := ctx.Locals("user_id").(string); ok {
		viewer.UserID = v
	}
	if roles, ok := ctx.Locals("roles").([]string); ok {
		viewer.Roles = roles
	}
	viewer.Locale = inferLocale(ctx)
	return viewer
}

func inferLocale(ctx router.Context) string {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Param("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	if header := ctx.Header("Accept-Language"); header != "" {
		if lang := parseAcceptLanguage(header); lang != "" {
			return lang
		}
	}
	return ""
}

func parseAcceptLanguage(header string) string {
	for _, token := range strings.Split(header, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if idx := strings.Index(token, ";"); idx >= 0 {
			token = token[:idx]
		}
		if token != "" {
			return strings.ToLower(token)
		}
	}
	return ""
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func (cfg Config[T]) routes() RouteConfig {
	routes := defaultRouteConfig(cfg.Routes)
	return routes
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.HTML == "" {
		routes.HTML = "/dashboard"
	}
	if routes.Layout == "" {
		routes.Layout = "/dashboard/_layout"
	}
	if routes.Area == "" {
		routes.Area = "/dashboard/areas/:area"
	}
	if routes.Widgets == "" {
		routes.Widgets = "/dashboard/widgets"
	}
	if routes.WidgetID == "" {
		routes.WidgetID = "/dashboard/widgets/:id"
	}
	if routes.Reorder == "" {
		routes.Reorder = "/dashboard/widgets/reorder"
	}
	if routes.Refresh == "" {
		routes.Refresh = "/dashboard/widgets/refresh"
	}
	if routes.Preferences == "" {
		routes.Preferences = "/dashboard/preferences"
	}
	if routes.Table == "" {
		routes.Table = "/dashboard/tables/:table"
	}
	if routes.Tasks == "" {
		routes.Tasks = "/dashboard/tasks"
	}
	if routes.TaskID == "" {
		routes.TaskID = "/dashboard/tasks/:id"
	}
	if routes.TaskToggle == "" {
		routes.TaskToggle = "/dashboard/tasks/:id/toggle"
	}
	if routes.Chat == "" {
		routes.Chat = "/dashboard/chat"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/dashboard/ws"
	}
	if routes.Login == "" {
		routes.Login = "/auth/login"
	}
	if routes.Signup == "" {
		routes.Signup = "/auth/signup"
	}
	if routes.Logout == "" {
		routes.Logout = "/auth/logout"
	}
	return routes
}
