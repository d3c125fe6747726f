package datatable

import (
	"slices"

	"golang.org/x/text/collate"
)

const (
	DefaultPageSize          = 10
	DefaultSearchPlaceholder = "Buscar..."
	DefaultEmptyMessage      = "No se encontraron resultados"
)

// DefaultPageSizeOptions lists the page sizes offered by the page-size selector.
var DefaultPageSizeOptions = []int{5, 10, 25, 50}

// Options configures a View.
type Options struct {
	InitialPageSize   int
	PageSizeOptions   []int
	ShowPagination    bool
	ShowSearch        bool
	SearchPlaceholder string
	EmptyMessage      string
	// Locale drives string collation for the sort stage (e.g. "es-MX").
	Locale string
	// OnRowActivate receives the full row when a visible row is activated.
	// Rows are inert when nil.
	OnRowActivate func(Row)
}

// DefaultOptions returns the stock table configuration: search and
// pagination shown, 10 rows per page.
func DefaultOptions() Options {
	return Options{
		InitialPageSize:   DefaultPageSize,
		PageSizeOptions:   append([]int(nil), DefaultPageSizeOptions...),
		ShowPagination:    true,
		ShowSearch:        true,
		SearchPlaceholder: DefaultSearchPlaceholder,
		EmptyMessage:      DefaultEmptyMessage,
	}
}

func (o Options) normalized() Options {
	sizes := make([]int, 0, len(o.PageSizeOptions)+1)
	for _, size := range o.PageSizeOptions {
		if size > 0 && !slices.Contains(sizes, size) {
			sizes = append(sizes, size)
		}
	}
	if len(sizes) == 0 {
		sizes = append(sizes, DefaultPageSizeOptions...)
	}
	if o.InitialPageSize <= 0 {
		o.InitialPageSize = DefaultPageSize
		if !slices.Contains(sizes, o.InitialPageSize) {
			o.InitialPageSize = sizes[0]
		}
	}
	if !slices.Contains(sizes, o.InitialPageSize) {
		sizes = append(sizes, o.InitialPageSize)
	}
	slices.Sort(sizes)
	o.PageSizeOptions = sizes
	if o.SearchPlaceholder == "" {
		o.SearchPlaceholder = DefaultSearchPlaceholder
	}
	if o.EmptyMessage == "" {
		o.EmptyMessage = DefaultEmptyMessage
	}
	return o
}

// State is the mutable view state driving which rows are visible.
type State struct {
	SearchQuery   string        `json:"search_query"`
	SortColumn    string        `json:"sort_column,omitempty"`
	SortDirection SortDirection `json:"sort_direction"`
	CurrentPage   int           `json:"current_page"`
	PageSize      int           `json:"page_size"`
}

// Result is the output of one pipeline run.
type Result struct {
	// Sorted holds the filtered and sorted rows across all pages.
	Sorted     []Row
	Page       []Row
	Total      int
	TotalPages int
	// CurrentPage is the page actually shown after clamping.
	CurrentPage int
}

// Compute runs filter, sort and paginate for the given rows and state. It is
// a pure function of its inputs; the returned CurrentPage is clamped.
func Compute(rows []Row, columns []Column, state State, collator *collate.Collator) Result {
	filtered := Filter(rows, columns, state.SearchQuery)
	sortKey := ""
	if col, ok := findColumn(columns, state.SortColumn); ok && col.IsSortable() {
		sortKey = state.SortColumn
	}
	sorted := Sort(filtered, sortKey, state.SortDirection, collator)
	pageSize := state.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	totalPages := TotalPages(len(sorted), pageSize)
	page := ClampPage(state.CurrentPage, totalPages)
	return Result{
		Sorted:      sorted,
		Page:        Paginate(sorted, page, pageSize),
		Total:       len(sorted),
		TotalPages:  totalPages,
		CurrentPage: page,
	}
}

// View holds the rows, columns and view state of one table instance and
// recomputes the visible page synchronously on every state change.
//
// A View is not safe for concurrent use; callers that share one across
// goroutines must serialize access.
type View struct {
	columns  []Column
	opts     Options
	collator *collate.Collator

	rows   []Row
	state  State
	result Result
}

// NewView builds a view over rows. The rows slice must not be mutated by the
// caller afterwards; pass a fresh slice to SetRows instead.
func NewView(rows []Row, columns []Column, opts Options) *View {
	opts = opts.normalized()
	v := &View{
		columns:  append([]Column(nil), columns...),
		opts:     opts,
		collator: NewCollator(opts.Locale),
		rows:     rows,
		state: State{
			SortDirection: Ascending,
			CurrentPage:   1,
			PageSize:      opts.InitialPageSize,
		},
	}
	v.recompute()
	return v
}

// Columns returns the column descriptors.
func (v *View) Columns() []Column { return append([]Column(nil), v.columns...) }

// Options returns the normalized options.
func (v *View) Options() Options { return v.opts }

// State returns a copy of the current view state.
func (v *View) State() State { return v.state }

// Result returns the last pipeline output.
func (v *View) Result() Result { return v.result }

// Rows returns the rows on the current page.
func (v *View) Rows() []Row { return append([]Row(nil), v.result.Page...) }

// TotalPages returns max(1, ceil(filteredCount/pageSize)).
func (v *View) TotalPages() int { return v.result.TotalPages }

// SetRows swaps the row set wholesale. Search, sort and page reset; the page
// size is preserved.
func (v *View) SetRows(rows []Row) {
	v.rows = rows
	v.state = State{
		SortDirection: Ascending,
		CurrentPage:   1,
		PageSize:      v.state.PageSize,
	}
	v.recompute()
}

// SetSearch updates the query and returns to page 1.
func (v *View) SetSearch(query string) {
	v.state.SearchQuery = query
	v.state.CurrentPage = 1
	v.recompute()
}

// SelectSort applies the header-click rule: the active column toggles its
// direction, a new column starts ascending. Unknown or non-sortable columns
// are ignored.
func (v *View) SelectSort(key string) {
	col, ok := findColumn(v.columns, key)
	if !ok || !col.IsSortable() {
		return
	}
	if v.state.SortColumn == key {
		v.state.SortDirection = v.state.SortDirection.Toggle()
	} else {
		v.state.SortColumn = key
		v.state.SortDirection = Ascending
	}
	v.recompute()
}

// SetSort sets column and direction explicitly. An empty key clears sorting.
func (v *View) SetSort(key string, direction SortDirection) {
	if key != "" {
		col, ok := findColumn(v.columns, key)
		if !ok || !col.IsSortable() {
			return
		}
	}
	v.state.SortColumn = key
	v.state.SortDirection = ParseSortDirection(string(direction))
	v.recompute()
}

// SetPageSize selects a page size from the allowed set and returns to page 1.
// It reports false, leaving state untouched, for sizes outside the set.
func (v *View) SetPageSize(size int) bool {
	if !slices.Contains(v.opts.PageSizeOptions, size) {
		return false
	}
	v.state.PageSize = size
	v.state.CurrentPage = 1
	v.recompute()
	return true
}

// GoTo moves to page n, clamped into [1, TotalPages].
func (v *View) GoTo(n int) {
	v.state.CurrentPage = ClampPage(n, v.result.TotalPages)
	v.recompute()
}

// First moves to page 1.
func (v *View) First() { v.GoTo(1) }

// Prev moves one page back.
func (v *View) Prev() { v.GoTo(v.state.CurrentPage - 1) }

// Next moves one page forward.
func (v *View) Next() { v.GoTo(v.state.CurrentPage + 1) }

// Last moves to the final page.
func (v *View) Last() { v.GoTo(v.result.TotalPages) }

// Activate fires OnRowActivate with the index-th row of the current page. It
// reports whether a callback was invoked.
func (v *View) Activate(index int) bool {
	if v.opts.OnRowActivate == nil || index < 0 || index >= len(v.result.Page) {
		return false
	}
	v.opts.OnRowActivate(v.result.Page[index])
	return true
}

func (v *View) recompute() {
	v.result = Compute(v.rows, v.columns, v.state, v.collator)
	v.state.CurrentPage = v.result.CurrentPage
}
