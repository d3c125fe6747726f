package datatable

// Surface is the render model of a View: everything a template or a JSON
// client needs to draw the search box, headers, body and pagination controls.
type Surface struct {
	Search     *SearchBox          `json:"search,omitempty"`
	Headers    []HeaderCell        `json:"headers"`
	Rows       []BodyRow           `json:"rows"`
	Empty      bool                `json:"empty"`
	EmptyText  string              `json:"empty_text,omitempty"`
	Pagination *PaginationControls `json:"pagination,omitempty"`
	// Clickable is true when row activation has a registered listener.
	Clickable bool  `json:"clickable"`
	State     State `json:"state"`
}

// SearchBox describes the free-text search input.
type SearchBox struct {
	Placeholder string `json:"placeholder"`
	Query       string `json:"query"`
}

// HeaderCell describes one column header.
type HeaderCell struct {
	Key      string `json:"key,omitempty"`
	Label    string `json:"label"`
	Sortable bool   `json:"sortable"`
	// Active marks the current sort column; Direction is set only when Active.
	Active    bool          `json:"active"`
	Direction SortDirection `json:"direction,omitempty"`
}

// BodyRow is one rendered row of the current page. Index is the row's
// position within the page and is what Activate expects.
type BodyRow struct {
	Index int   `json:"index"`
	Cells []any `json:"cells"`
}

// PaginationControls carries page navigation and summary data.
type PaginationControls struct {
	Page            int   `json:"page"`
	TotalPages      int   `json:"total_pages"`
	PageSize        int   `json:"page_size"`
	PageSizeOptions []int `json:"page_size_options"`
	// From and To are the 1-based bounds of the visible rows, 0 when empty.
	From          int  `json:"from"`
	To            int  `json:"to"`
	Total         int  `json:"total"`
	FirstDisabled bool `json:"first_disabled"`
	PrevDisabled  bool `json:"prev_disabled"`
	NextDisabled  bool `json:"next_disabled"`
	LastDisabled  bool `json:"last_disabled"`
}

// Surface builds the render model for the current state.
func (v *View) Surface() Surface {
	state := v.state
	surface := Surface{
		Headers:   make([]HeaderCell, 0, len(v.columns)),
		Rows:      make([]BodyRow, 0, len(v.result.Page)),
		Clickable: v.opts.OnRowActivate != nil,
		State:     state,
	}
	if v.opts.ShowSearch {
		surface.Search = &SearchBox{
			Placeholder: v.opts.SearchPlaceholder,
			Query:       state.SearchQuery,
		}
	}
	for _, col := range v.columns {
		if col == nil {
			surface.Headers = append(surface.Headers, HeaderCell{})
			continue
		}
		header := HeaderCell{
			Key:      col.ColumnKey(),
			Label:    col.ColumnHeader(),
			Sortable: col.IsSortable(),
		}
		if header.Sortable && state.SortColumn != "" && header.Key == state.SortColumn {
			header.Active = true
			header.Direction = state.SortDirection
		}
		surface.Headers = append(surface.Headers, header)
	}
	for i, row := range v.result.Page {
		cells := make([]any, len(v.columns))
		for c, col := range v.columns {
			if col == nil {
				continue
			}
			cells[c] = col.Cell(row)
		}
		surface.Rows = append(surface.Rows, BodyRow{Index: i, Cells: cells})
	}
	if len(surface.Rows) == 0 {
		surface.Empty = true
		surface.EmptyText = v.opts.EmptyMessage
	}
	if v.opts.ShowPagination {
		from, to := pageBounds(v.result.Total, state.CurrentPage, state.PageSize)
		atStart := state.CurrentPage <= 1
		atEnd := state.CurrentPage >= v.result.TotalPages
		surface.Pagination = &PaginationControls{
			Page:            state.CurrentPage,
			TotalPages:      v.result.TotalPages,
			PageSize:        state.PageSize,
			PageSizeOptions: append([]int(nil), v.opts.PageSizeOptions...),
			From:            from,
			To:              to,
			Total:           v.result.Total,
			FirstDisabled:   atStart,
			PrevDisabled:    atStart,
			NextDisabled:    atEnd,
			LastDisabled:    atEnd,
		}
	}
	return surface
}
