package datatable

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nameColumns() []Column {
	return []Column{Sortable("id", "ID"), Sortable("name", "Nombre")}
}

func names(rows []Row) []any {
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, row["name"])
	}
	return out
}

func numberedRows(n int) []Row {
	rows := make([]Row, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, Row{"id": i, "name": fmt.Sprintf("row-%02d", i)})
	}
	return rows
}

func TestSortPinsMissingValuesLast(t *testing.T) {
	rows := []Row{
		{"id": 1, "name": "B"},
		{"id": 2, "name": "A"},
		{"id": 3, "name": nil},
	}
	view := NewView(rows, nameColumns(), DefaultOptions())

	view.SelectSort("name")
	assert.Equal(t, []any{"A", "B", nil}, names(view.Rows()))
	assert.Equal(t, Ascending, view.State().SortDirection)

	view.SelectSort("name")
	assert.Equal(t, []any{"B", "A", nil}, names(view.Rows()))
	assert.Equal(t, Descending, view.State().SortDirection)
}

func TestSelectSortNewColumnResetsAscending(t *testing.T) {
	view := NewView(numberedRows(3), nameColumns(), DefaultOptions())
	view.SelectSort("name")
	view.SelectSort("name")
	require.Equal(t, Descending, view.State().SortDirection)

	view.SelectSort("id")
	assert.Equal(t, "id", view.State().SortColumn)
	assert.Equal(t, Ascending, view.State().SortDirection)
}

func TestSelectSortIgnoresUnsortableColumns(t *testing.T) {
	columns := []Column{Text("name", "Nombre"), ActionColumn{Header: "Acciones"}}
	view := NewView(numberedRows(3), columns, DefaultOptions())
	view.SelectSort("name")
	view.SelectSort("")
	assert.Empty(t, view.State().SortColumn)
}

func TestSortWithoutColumnPreservesOrder(t *testing.T) {
	rows := []Row{{"name": "c"}, {"name": "a"}, {"name": "b"}}
	assert.Equal(t, rows, Sort(rows, "", Ascending, nil))
}

func TestSortIsStableForEqualValues(t *testing.T) {
	rows := []Row{
		{"id": 1, "segment": "retail"},
		{"id": 2, "segment": "industrial"},
		{"id": 3, "segment": "retail"},
		{"id": 4, "segment": "industrial"},
	}
	sorted := Sort(rows, "segment", Ascending, NewCollator("es"))
	ids := []any{sorted[0]["id"], sorted[1]["id"], sorted[2]["id"], sorted[3]["id"]}
	assert.Equal(t, []any{2, 4, 1, 3}, ids)
}

func TestSortComparesNumbersNumerically(t *testing.T) {
	rows := []Row{{"amount": 100}, {"amount": 9.5}, {"amount": 25}}
	sorted := Sort(rows, "amount", Ascending, nil)
	assert.Equal(t, []any{9.5, 25, 100}, []any{sorted[0]["amount"], sorted[1]["amount"], sorted[2]["amount"]})
}

func TestSortComparesTimesChronologically(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []Row{{"date": mar}, {"date": time.Time{}}, {"date": jan}}
	sorted := Sort(rows, "date", Descending, nil)
	assert.Equal(t, mar, sorted[0]["date"])
	assert.Equal(t, jan, sorted[1]["date"])
	assert.True(t, sorted[2]["date"].(time.Time).IsZero())
}

func TestSortMixedKindsRanksKindFirst(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	rows := []Row{
		{"v": 10}, {"v": "1a"}, {"v": 2}, {"v": true}, {"v": nil},
		{"v": jan}, {"v": math.NaN()}, {"v": "abc"}, {"v": 2.5},
	}
	sorted := Sort(rows, "v", Ascending, nil)
	require.Len(t, sorted, len(rows))
	assert.True(t, math.IsNaN(sorted[0]["v"].(float64)))
	rest := make([]any, 0, len(sorted)-1)
	for _, row := range sorted[1:] {
		rest = append(rest, row["v"])
	}
	assert.Equal(t, []any{2, 2.5, 10, jan, true, "1a", "abc", nil}, rest)

	desc := Sort(rows, "v", Descending, nil)
	assert.Equal(t, "abc", desc[0]["v"])
	assert.Nil(t, desc[len(desc)-1]["v"], "missing values stay last")
}

func TestSortUsesLocaleCollation(t *testing.T) {
	rows := []Row{{"name": "Zapata"}, {"name": "álvarez"}, {"name": "Beltrán"}}
	sorted := Sort(rows, "name", Ascending, NewCollator("es-MX"))
	assert.Equal(t, []any{"álvarez", "Beltrán", "Zapata"}, names(sorted))
}

func TestPaginationWithTwentyThreeRows(t *testing.T) {
	view := NewView(numberedRows(23), nameColumns(), DefaultOptions())
	assert.Equal(t, 3, view.TotalPages())
	assert.Len(t, view.Rows(), 10)

	view.Last()
	assert.Equal(t, 3, view.State().CurrentPage)
	assert.Len(t, view.Rows(), 3)

	view.Next()
	assert.Equal(t, 3, view.State().CurrentPage)
	assert.Len(t, view.Rows(), 3)

	view.First()
	view.Prev()
	assert.Equal(t, 1, view.State().CurrentPage)
}

func TestGoToClampsIntoRange(t *testing.T) {
	view := NewView(numberedRows(23), nameColumns(), DefaultOptions())
	view.GoTo(-4)
	assert.Equal(t, 1, view.State().CurrentPage)
	view.GoTo(99)
	assert.Equal(t, 3, view.State().CurrentPage)
	view.GoTo(2)
	assert.Equal(t, 2, view.State().CurrentPage)
}

func TestFilterMatchesCaseInsensitively(t *testing.T) {
	rows := []Row{
		{"customer": "Constructora Acme", "amount": 1200},
		{"customer": "Ferretería Norte", "amount": 300},
	}
	columns := []Column{Text("customer", "Cliente"), Text("amount", "Monto")}

	matched := Filter(rows, columns, "acme")
	require.Len(t, matched, 1)
	assert.Equal(t, "Constructora Acme", matched[0]["customer"])

	assert.Len(t, Filter(rows, columns, "ACME"), 1)
	assert.Len(t, Filter(rows, columns, "300"), 1)
	assert.Equal(t, rows, Filter(rows, columns, ""))
	assert.Equal(t, rows, Filter(rows, columns, "   "))
}

func TestFilterSkipsNilAndHiddenValues(t *testing.T) {
	rows := []Row{
		{"customer": nil, "internal": "acme"},
		{"customer": "Acme", "internal": nil},
	}
	columns := []Column{Text("customer", "Cliente")}
	matched := Filter(rows, columns, "acme")
	require.Len(t, matched, 1)
	assert.Equal(t, "Acme", matched[0]["customer"])

	assert.Empty(t, Filter(rows, columns, "nil"))
	assert.Empty(t, Filter(rows, columns, "<nil>"))
}

func TestFilterCoercesBooleans(t *testing.T) {
	rows := []Row{{"paid": true}, {"paid": false}}
	matched := Filter(rows, []Column{Text("paid", "Pagado")}, "TRUE")
	require.Len(t, matched, 1)
	assert.Equal(t, true, matched[0]["paid"])
}

func TestSearchResetsPageAndClamps(t *testing.T) {
	view := NewView(numberedRows(23), nameColumns(), DefaultOptions())
	view.GoTo(3)
	view.SetSearch("row-0")
	assert.Equal(t, 1, view.State().CurrentPage)
	assert.Equal(t, 9, view.Result().Total)
	assert.Equal(t, 1, view.TotalPages())

	view.SetSearch("no-such-row")
	assert.Equal(t, 1, view.State().CurrentPage)
	assert.Equal(t, 1, view.TotalPages())
	assert.Empty(t, view.Rows())
}

func TestSetPageSizeAcceptsOnlyAllowedSizes(t *testing.T) {
	view := NewView(numberedRows(23), nameColumns(), DefaultOptions())
	view.GoTo(2)

	assert.False(t, view.SetPageSize(7))
	assert.Equal(t, 2, view.State().CurrentPage)
	assert.Equal(t, 10, view.State().PageSize)

	assert.True(t, view.SetPageSize(5))
	assert.Equal(t, 1, view.State().CurrentPage)
	assert.Equal(t, 5, view.TotalPages())
}

func TestSetRowsKeepsPageSizeOnly(t *testing.T) {
	view := NewView(numberedRows(23), nameColumns(), DefaultOptions())
	view.SetPageSize(5)
	view.SelectSort("name")
	view.SetSearch("row")
	view.GoTo(3)

	view.SetRows(numberedRows(4))
	state := view.State()
	assert.Equal(t, 5, state.PageSize)
	assert.Equal(t, 1, state.CurrentPage)
	assert.Empty(t, state.SearchQuery)
	assert.Empty(t, state.SortColumn)
	assert.Len(t, view.Rows(), 4)
}

func TestOptionsNormalization(t *testing.T) {
	view := NewView(nil, nameColumns(), Options{InitialPageSize: 15, PageSizeOptions: []int{50, 5, 5, -1}})
	opts := view.Options()
	assert.Equal(t, []int{5, 15, 50}, opts.PageSizeOptions)
	assert.Equal(t, DefaultSearchPlaceholder, opts.SearchPlaceholder)
	assert.Equal(t, 15, view.State().PageSize)
}

func TestActivateInvokesCallbackWithFullRow(t *testing.T) {
	var activated Row
	opts := DefaultOptions()
	opts.OnRowActivate = func(row Row) { activated = row }
	view := NewView(numberedRows(12), nameColumns(), opts)
	view.Next()

	require.True(t, view.Activate(1))
	assert.Equal(t, 12, activated["id"])
	assert.False(t, view.Activate(5))
}

func TestActivateIsInertWithoutCallback(t *testing.T) {
	view := NewView(numberedRows(3), nameColumns(), DefaultOptions())
	assert.False(t, view.Activate(0))
	assert.False(t, view.Surface().Clickable)
}

func TestSurfaceDescribesControls(t *testing.T) {
	columns := []Column{
		Sortable("name", ""),
		DataColumn{Key: "amount", Header: "Monto", Format: func(value any, _ Row) any {
			return fmt.Sprintf("$%v", value)
		}},
		ActionColumn{Header: "Acciones", Render: func(row Row) any { return fmt.Sprintf("ver %v", row["id"]) }},
		DataColumn{},
	}
	rows := make([]Row, 0, 12)
	for i := 1; i <= 12; i++ {
		rows = append(rows, Row{"id": i, "name": fmt.Sprintf("n%02d", i), "amount": i * 10})
	}
	view := NewView(rows, columns, DefaultOptions())
	view.SelectSort("name")
	view.SelectSort("name")

	surface := view.Surface()
	require.NotNil(t, surface.Search)
	assert.Equal(t, "Buscar...", surface.Search.Placeholder)

	require.Len(t, surface.Headers, 4)
	assert.Equal(t, "Name", surface.Headers[0].Label)
	assert.True(t, surface.Headers[0].Active)
	assert.Equal(t, Descending, surface.Headers[0].Direction)
	assert.False(t, surface.Headers[1].Sortable)
	assert.False(t, surface.Headers[2].Sortable)

	require.Len(t, surface.Rows, 10)
	first := surface.Rows[0]
	assert.Equal(t, []any{"n12", "$120", "ver 12", nil}, first.Cells)

	require.NotNil(t, surface.Pagination)
	p := surface.Pagination
	assert.Equal(t, 1, p.From)
	assert.Equal(t, 10, p.To)
	assert.Equal(t, 12, p.Total)
	assert.True(t, p.FirstDisabled)
	assert.True(t, p.PrevDisabled)
	assert.False(t, p.NextDisabled)
	assert.False(t, p.LastDisabled)
	assert.Equal(t, []int{5, 10, 25, 50}, p.PageSizeOptions)

	view.Last()
	p = view.Surface().Pagination
	assert.Equal(t, 11, p.From)
	assert.Equal(t, 12, p.To)
	assert.True(t, p.NextDisabled)
	assert.True(t, p.LastDisabled)
	assert.False(t, p.PrevDisabled)
}

func TestSurfaceEmptyState(t *testing.T) {
	opts := DefaultOptions()
	opts.ShowSearch = false
	view := NewView(nil, nameColumns(), opts)
	surface := view.Surface()
	assert.Nil(t, surface.Search)
	assert.True(t, surface.Empty)
	assert.Equal(t, DefaultEmptyMessage, surface.EmptyText)
	assert.Empty(t, surface.Rows)
	require.NotNil(t, surface.Pagination)
	assert.Equal(t, 0, surface.Pagination.From)
	assert.Equal(t, 1, surface.Pagination.TotalPages)
	assert.True(t, surface.Pagination.NextDisabled)
}

func TestSurfaceHidesPaginationWhenDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.ShowPagination = false
	surface := NewView(numberedRows(3), nameColumns(), opts).Surface()
	assert.Nil(t, surface.Pagination)
}

func TestStringify(t *testing.T) {
	cases := []struct {
		value any
		want  string
		ok    bool
	}{
		{nil, "", false},
		{"x", "x", true},
		{42, "42", true},
		{int64(-7), "-7", true},
		{2.50, "2.5", true},
		{float32(1.25), "1.25", true},
		{true, "true", true},
		{time.Time{}, "", false},
		{time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "2024-05-01T00:00:00Z", true},
	}
	for _, tc := range cases {
		got, ok := Stringify(tc.value)
		assert.Equal(t, tc.ok, ok, "value %#v", tc.value)
		assert.Equal(t, tc.want, got, "value %#v", tc.value)
	}
}

func TestColumnDefaults(t *testing.T) {
	assert.Equal(t, "Sales Person Code", DataColumn{Key: "salesPersonCode"}.ColumnHeader())
	assert.False(t, DataColumn{Sortable: true}.IsSortable())
	assert.Nil(t, DataColumn{}.Cell(Row{"": "x"}))
	assert.Nil(t, ActionColumn{Header: "x"}.Cell(Row{}))
}
