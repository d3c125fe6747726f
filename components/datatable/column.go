package datatable

import (
	"strings"

	"github.com/ettle/strcase"
)

// Row is a single record displayed by a table. Keys are column keys; values
// may be strings, numbers, bools, time values, nil, or any renderable value.
// Rows are owned by the caller and never mutated by the table.
type Row map[string]any

// Column describes how a table column is labeled, sourced and rendered.
//
// A column is either a data column, which reads row[key] directly, or an
// action column, which supplies its own render function and has no key.
type Column interface {
	// ColumnKey returns the row key backing the column, or "" for action columns.
	ColumnKey() string
	// ColumnHeader returns the display label.
	ColumnHeader() string
	// IsSortable reports whether the header exposes a sort affordance.
	IsSortable() bool
	// Cell resolves the displayable value for the row.
	Cell(row Row) any
}

// FormatFunc converts a raw row value into its displayable form.
type FormatFunc func(value any, row Row) any

// DataColumn renders row[Key], optionally through Format.
type DataColumn struct {
	Key      string
	Header   string
	Sortable bool
	Format   FormatFunc
}

// ColumnKey implements Column.
func (c DataColumn) ColumnKey() string { return c.Key }

// ColumnHeader implements Column. Missing headers are derived from the key.
func (c DataColumn) ColumnHeader() string {
	if c.Header != "" {
		return c.Header
	}
	return headerFromKey(c.Key)
}

// IsSortable implements Column.
func (c DataColumn) IsSortable() bool { return c.Sortable && c.Key != "" }

// Cell implements Column.
func (c DataColumn) Cell(row Row) any {
	if c.Key == "" || row == nil {
		return nil
	}
	value := row[c.Key]
	if c.Format != nil {
		return c.Format(value, row)
	}
	return value
}

// ActionColumn renders a computed cell (links, buttons, badges) with no backing key.
type ActionColumn struct {
	Header string
	Render func(row Row) any
}

// ColumnKey implements Column.
func (c ActionColumn) ColumnKey() string { return "" }

// ColumnHeader implements Column.
func (c ActionColumn) ColumnHeader() string { return c.Header }

// IsSortable implements Column. Action columns never sort.
func (c ActionColumn) IsSortable() bool { return false }

// Cell implements Column.
func (c ActionColumn) Cell(row Row) any {
	if c.Render == nil {
		return nil
	}
	return c.Render(row)
}

// Text builds a plain data column.
func Text(key, header string) DataColumn {
	return DataColumn{Key: key, Header: header}
}

// Sortable builds a sortable data column.
func Sortable(key, header string) DataColumn {
	return DataColumn{Key: key, Header: header, Sortable: true}
}

func headerFromKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	return strcase.ToCase(key, strcase.TitleCase, ' ')
}

func findColumn(columns []Column, key string) (Column, bool) {
	if key == "" {
		return nil, false
	}
	for _, col := range columns {
		if col != nil && col.ColumnKey() == key {
			return col, true
		}
	}
	return nil, false
}

// searchKeys returns the unique keys of the data columns, in column order.
func searchKeys(columns []Column) []string {
	keys := make([]string, 0, len(columns))
	seen := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		if col == nil {
			continue
		}
		key := col.ColumnKey()
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}
