package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-salesboard/components/datatable"
)

var (
	// ErrUnknownTable is returned for table codes that were never registered.
	ErrUnknownTable = errors.New("dashboard: unknown table")
	// ErrInvalidTableAction is returned for malformed actions.
	ErrInvalidTableAction = errors.New("dashboard: invalid table action")
)

// TableLoader fetches the rows of a table for a viewer.
type TableLoader func(ctx context.Context, viewer ViewerContext) ([]datatable.Row, error)

// TableDefinition declares a data table exposed to viewers.
type TableDefinition struct {
	Code    string
	Title   string
	Columns []datatable.Column
	Options datatable.Options
	Load    TableLoader
	// RowLink turns row activation on; it returns where the row leads.
	RowLink func(row datatable.Row) string
}

// TableStatus is the load state of a table.
type TableStatus string

const (
	TableReady TableStatus = "ready"
	TableEmpty TableStatus = "empty"
	TableError TableStatus = "error"
)

// TableAction mutates the view state of a table. Fields left nil or empty are
// ignored; they are applied in the order refresh, search, sort, page size,
// navigation, activation.
type TableAction struct {
	Refresh   bool    `json:"refresh,omitempty"`
	Search    *string `json:"search,omitempty"`
	Sort      string  `json:"sort,omitempty"`
	Direction string  `json:"direction,omitempty"`
	PageSize  *int    `json:"page_size,omitempty"`
	Page      *int    `json:"page,omitempty"`
	Nav       string  `json:"nav,omitempty"`
	Activate  *int    `json:"activate,omitempty"`
}

// ActivatedRow is reported when an action activated a row.
type ActivatedRow struct {
	Row  datatable.Row `json:"row"`
	Link string        `json:"link,omitempty"`
}

// TableSnapshot is the rendered state of a table for one viewer.
type TableSnapshot struct {
	Code      string            `json:"code"`
	Title     string            `json:"title"`
	Status    TableStatus       `json:"status"`
	Error     string            `json:"error,omitempty"`
	Surface   datatable.Surface `json:"surface"`
	LoadedAt  time.Time         `json:"loaded_at"`
	Activated *ActivatedRow     `json:"activated,omitempty"`
}

// WidgetData converts the snapshot into a provider payload.
func (s TableSnapshot) WidgetData() WidgetData {
	data := WidgetData{
		"code":   s.Code,
		"title":  s.Title,
		"state":  string(s.Status),
		"table":  s.Surface,
		"loaded": s.LoadedAt,
	}
	if s.Error != "" {
		data["error"] = s.Error
	}
	return data
}

type tableKey struct {
	viewer string
	// scope separates the salesperson and date an admin is looking at.
	scope string
	code  string
}

type tableEntry struct {
	mu        sync.Mutex
	view      *datatable.View
	err       error
	loadedAt  time.Time
	loaded    bool
	activated *ActivatedRow
}

// TableManager keeps one datatable.View per viewer and table. Each entry is
// guarded by its own lock so a slow backend load only blocks that table.
type TableManager struct {
	mu          sync.Mutex
	defs        map[string]TableDefinition
	entries     map[tableKey]*tableEntry
	preferences PreferenceStore
	now         func() time.Time
}

// NewTableManager builds a manager. prefs may be nil; when set, page sizes
// chosen by a viewer are remembered across sessions. Definitions that fail to
// register are reported in the joined error; the rest stay usable.
func NewTableManager(prefs PreferenceStore, defs ...TableDefinition) (*TableManager, error) {
	m := &TableManager{
		defs:        map[string]TableDefinition{},
		entries:     map[tableKey]*tableEntry{},
		preferences: prefs,
		now:         time.Now,
	}
	var errs []error
	for _, def := range defs {
		if err := m.Register(def); err != nil {
			errs = append(errs, err)
		}
	}
	return m, errors.Join(errs...)
}

// Register adds or replaces a table definition and drops cached views of it.
func (m *TableManager) Register(def TableDefinition) error {
	def.Code = strings.TrimSpace(def.Code)
	if def.Code == "" {
		return fmt.Errorf("dashboard: table code is required")
	}
	if def.Load == nil {
		return fmt.Errorf("dashboard: table %s requires a loader", def.Code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defs[def.Code] = def
	for key := range m.entries {
		if key.code == def.Code {
			delete(m.entries, key)
		}
	}
	return nil
}

// SetPreferenceStore swaps the store used for page-size memory.
func (m *TableManager) SetPreferenceStore(prefs PreferenceStore) {
	m.mu.Lock()
	m.preferences = prefs
	m.mu.Unlock()
}

// Definition returns a registered table.
func (m *TableManager) Definition(code string) (TableDefinition, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	def, ok := m.defs[code]
	return def, ok
}

// Codes lists registered tables alphabetically.
func (m *TableManager) Codes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	codes := make([]string, 0, len(m.defs))
	for code := range m.defs {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Snapshot returns the current table state, loading rows on first access.
func (m *TableManager) Snapshot(ctx context.Context, viewer ViewerContext, code string) (TableSnapshot, error) {
	return m.Apply(ctx, viewer, code, TableAction{})
}

// Apply runs the action against the viewer's view and returns the new state.
func (m *TableManager) Apply(ctx context.Context, viewer ViewerContext, code string, action TableAction) (TableSnapshot, error) {
	def, entry, prefs, err := m.entry(viewer, code)
	if err != nil {
		return TableSnapshot{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	fresh := !entry.loaded
	if fresh {
		entry.view = datatable.NewView(nil, def.Columns, m.viewOptions(ctx, def, viewer, prefs, entry))
		m.load(ctx, def, viewer, entry)
	}
	dir, err := validateAction(entry.view, action)
	if err != nil {
		return TableSnapshot{}, err
	}
	if action.Refresh && !fresh {
		m.load(ctx, def, viewer, entry)
	}
	entry.activated = nil
	m.applyAction(ctx, def, viewer, prefs, entry, action, dir)
	return m.snapshot(def, entry), nil
}

// Forget drops every cached view of the viewer, e.g. at logout.
func (m *TableManager) Forget(viewer ViewerContext) {
	id := viewerKey(viewer)
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if key.viewer == id {
			delete(m.entries, key)
		}
	}
}

func (m *TableManager) entry(viewer ViewerContext, code string) (TableDefinition, *tableEntry, PreferenceStore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	def, ok := m.defs[code]
	if !ok {
		return TableDefinition{}, nil, nil, fmt.Errorf("%w: %s", ErrUnknownTable, code)
	}
	key := tableKey{viewer: viewerKey(viewer), scope: viewerScope(viewer), code: code}
	entry, ok := m.entries[key]
	if !ok {
		entry = &tableEntry{}
		m.entries[key] = entry
	}
	return def, entry, m.preferences, nil
}

func (m *TableManager) viewOptions(ctx context.Context, def TableDefinition, viewer ViewerContext, prefs PreferenceStore, entry *tableEntry) datatable.Options {
	opts := def.Options
	if viewer.Locale != "" && opts.Locale == "" {
		opts.Locale = viewer.Locale
	}
	if prefs != nil && viewer.UserID != "" {
		if overrides, err := prefs.LayoutOverrides(ctx, viewer); err == nil {
			if size := overrides.TablePageSizes[def.Code]; size > 0 {
				opts.InitialPageSize = size
			}
		}
	}
	if def.RowLink != nil {
		link := def.RowLink
		opts.OnRowActivate = func(row datatable.Row) {
			entry.activated = &ActivatedRow{Row: row, Link: link(row)}
		}
	}
	return opts
}

func (m *TableManager) load(ctx context.Context, def TableDefinition, viewer ViewerContext, entry *tableEntry) {
	rows, err := def.Load(ctx, viewer)
	entry.loaded = true
	entry.loadedAt = m.now().UTC()
	entry.err = err
	if err != nil {
		rows = nil
	}
	entry.view.SetRows(rows)
}

// validateAction rejects an action before any of it reaches the view, so a
// refused request leaves the table untouched.
func validateAction(view *datatable.View, action TableAction) (datatable.SortDirection, error) {
	var dir datatable.SortDirection
	if action.Sort != "" && action.Direction != "" {
		raw := strings.ToLower(strings.TrimSpace(action.Direction))
		if raw != string(datatable.Ascending) && raw != string(datatable.Descending) {
			return "", fmt.Errorf("%w: direction %q", ErrInvalidTableAction, action.Direction)
		}
		dir = datatable.ParseSortDirection(raw)
	}
	if action.PageSize != nil && !slices.Contains(view.Options().PageSizeOptions, *action.PageSize) {
		return "", fmt.Errorf("%w: page size %d not allowed", ErrInvalidTableAction, *action.PageSize)
	}
	switch strings.ToLower(strings.TrimSpace(action.Nav)) {
	case "", "first", "prev", "previous", "next", "last":
	default:
		return "", fmt.Errorf("%w: nav %q", ErrInvalidTableAction, action.Nav)
	}
	return dir, nil
}

// applyAction runs an action that already passed validateAction.
func (m *TableManager) applyAction(ctx context.Context, def TableDefinition, viewer ViewerContext, prefs PreferenceStore, entry *tableEntry, action TableAction, dir datatable.SortDirection) {
	view := entry.view
	if action.Search != nil {
		view.SetSearch(*action.Search)
	}
	switch {
	case action.Sort != "" && dir != "":
		view.SetSort(action.Sort, dir)
	case action.Sort != "":
		view.SelectSort(action.Sort)
	}
	if action.PageSize != nil && view.SetPageSize(*action.PageSize) {
		m.rememberPageSize(ctx, def.Code, viewer, prefs, *action.PageSize)
	}
	if action.Page != nil {
		view.GoTo(*action.Page)
	}
	switch strings.ToLower(strings.TrimSpace(action.Nav)) {
	case "first":
		view.First()
	case "prev", "previous":
		view.Prev()
	case "next":
		view.Next()
	case "last":
		view.Last()
	}
	if action.Activate != nil {
		view.Activate(*action.Activate)
	}
}

func (m *TableManager) rememberPageSize(ctx context.Context, code string, viewer ViewerContext, prefs PreferenceStore, size int) {
	if prefs == nil || viewer.UserID == "" {
		return
	}
	overrides, err := prefs.LayoutOverrides(ctx, viewer)
	if err != nil {
		return
	}
	if overrides.TablePageSizes == nil {
		overrides.TablePageSizes = map[string]int{}
	}
	overrides.TablePageSizes[code] = size
	_ = prefs.SaveLayoutOverrides(ctx, viewer, overrides)
}

func (m *TableManager) snapshot(def TableDefinition, entry *tableEntry) TableSnapshot {
	snap := TableSnapshot{
		Code:      def.Code,
		Title:     def.Title,
		Status:    TableReady,
		Surface:   entry.view.Surface(),
		LoadedAt:  entry.loadedAt,
		Activated: entry.activated,
	}
	switch {
	case entry.err != nil:
		snap.Status = TableError
		snap.Error = entry.err.Error()
	case len(entry.view.Result().Sorted) == 0 && entry.view.State().SearchQuery == "":
		snap.Status = TableEmpty
	}
	return snap
}

func viewerScope(viewer ViewerContext) string {
	scope := strconv.Itoa(viewer.SalespersonCode)
	if !viewer.AsOf.IsZero() {
		scope += "@" + viewer.AsOf.UTC().Format(time.DateOnly)
	}
	return scope
}

func viewerKey(viewer ViewerContext) string {
	if viewer.SessionID != "" {
		return "session:" + viewer.SessionID
	}
	if viewer.UserID != "" {
		return "user:" + viewer.UserID
	}
	return "anonymous"
}
