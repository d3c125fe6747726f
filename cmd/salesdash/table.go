package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/goliatone/go-salesboard/components/datatable"
)

type tableCmd struct {
	File     string   `arg:"" help:"JSON file holding an array of row objects, '-' for stdin." default:"-"`
	Columns  []string `short:"k" help:"Column keys to show, in order. Defaults to every key, sorted."`
	Search   string   `short:"s" help:"Case-insensitive search across the shown columns."`
	Sort     string   `help:"Column key to sort by."`
	Desc     bool     `help:"Sort descending."`
	Page     int      `short:"p" default:"1" help:"Page to show (clamped)."`
	PageSize int      `short:"n" default:"10" help:"Rows per page."`
	Locale   string   `default:"es-MX" help:"Collation locale for text sorting."`
	JSON     bool     `help:"Print the table surface as JSON instead of a grid."`
}

func (c *tableCmd) Run(_ context.Context, g *Globals) error {
	rows, err := readRows(c.File)
	if err != nil {
		return err
	}
	view := c.view(rows)
	surface := view.Surface()
	if c.JSON {
		enc := json.NewEncoder(g.out())
		enc.SetIndent("", "  ")
		return enc.Encode(surface)
	}
	return renderSurface(g.out(), surface)
}

func (c *tableCmd) view(rows []datatable.Row) *datatable.View {
	keys := c.Columns
	if len(keys) == 0 {
		keys = rowKeys(rows)
	}
	columns := make([]datatable.Column, 0, len(keys))
	for _, key := range keys {
		columns = append(columns, datatable.Sortable(key, ""))
	}

	opts := datatable.DefaultOptions()
	opts.Locale = c.Locale
	if c.PageSize > 0 {
		opts.InitialPageSize = c.PageSize
		if !slices.Contains(opts.PageSizeOptions, c.PageSize) {
			opts.PageSizeOptions = append(opts.PageSizeOptions, c.PageSize)
			slices.Sort(opts.PageSizeOptions)
		}
	}

	view := datatable.NewView(rows, columns, opts)
	if c.Search != "" {
		view.SetSearch(c.Search)
	}
	if c.Sort != "" {
		direction := datatable.Ascending
		if c.Desc {
			direction = datatable.Descending
		}
		view.SetSort(c.Sort, direction)
	}
	view.GoTo(c.Page)
	return view
}

func readRows(path string) ([]datatable.Row, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var rows []datatable.Row
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("salesdash: decode rows: %w", err)
	}
	for i, row := range rows {
		rows[i] = normalizeRow(row)
	}
	return rows, nil
}

// normalizeRow turns json.Number values into float64 so numeric columns
// sort by value.
func normalizeRow(row datatable.Row) datatable.Row {
	for key, value := range row {
		if n, ok := value.(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				row[key] = f
			}
		}
	}
	return row
}

func rowKeys(rows []datatable.Row) []string {
	var keys []string
	for _, row := range rows {
		for key := range row {
			if !slices.Contains(keys, key) {
				keys = append(keys, key)
			}
		}
	}
	slices.Sort(keys)
	return keys
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

func renderSurface(w io.Writer, surface datatable.Surface) error {
	headers := make([]string, 0, len(surface.Headers))
	for _, h := range surface.Headers {
		label := h.Label
		if h.Active {
			if h.Direction == datatable.Descending {
				label += " ▼"
			} else {
				label += " ▲"
			}
		}
		headers = append(headers, label)
	}

	if surface.Empty {
		_, err := fmt.Fprintln(w, mutedStyle.Render(surface.EmptyText))
		return err
	}

	rows := make([][]string, 0, len(surface.Rows))
	for _, row := range surface.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			text, _ := datatable.Stringify(cell)
			cells = append(cells, text)
		}
		rows = append(rows, cells)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	if p := surface.Pagination; p != nil {
		_, err := fmt.Fprintln(w, mutedStyle.Render(paginationSummary(*p)))
		return err
	}
	return nil
}

func paginationSummary(p datatable.PaginationControls) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mostrando %d-%d de %d", p.From, p.To, p.Total)
	fmt.Fprintf(&b, " · página %d de %d", p.Page, p.TotalPages)
	return b.String()
}
