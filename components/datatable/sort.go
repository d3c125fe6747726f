package datatable

import (
	"cmp"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortDirection orders the defined values of the active sort column.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// ParseSortDirection accepts asc/desc (any case); anything else is ascending.
func ParseSortDirection(value string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(value), string(Descending)) {
		return Descending
	}
	return Ascending
}

// Toggle flips the direction.
func (d SortDirection) Toggle() SortDirection {
	if d == Descending {
		return Ascending
	}
	return Descending
}

func (d SortDirection) multiplier() int {
	if d == Descending {
		return -1
	}
	return 1
}

// NewCollator returns a collator for locale-aware string ordering. Unknown or
// empty locales fall back to the undetermined root collation.
func NewCollator(locale string) *collate.Collator {
	tag := language.Und
	if locale = strings.TrimSpace(locale); locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			tag = parsed
		}
	}
	return collate.New(tag)
}

// Sort returns a new slice ordered by row[key]. An empty key preserves input
// order. Missing values (nil) always sink to the end regardless of direction;
// direction only reorders the defined values. Equal values keep their
// relative input order.
//
// A nil collator uses the root collation. Collators are not safe for
// concurrent use.
func Sort(rows []Row, key string, direction SortDirection, collator *collate.Collator) []Row {
	out := append([]Row(nil), rows...)
	if key == "" || len(out) < 2 {
		return out
	}
	if collator == nil {
		collator = NewCollator("")
	}
	mult := direction.multiplier()
	sort.SliceStable(out, func(i, j int) bool {
		return compareCells(out[i][key], out[j][key], mult, collator) < 0
	})
	return out
}

func compareCells(a, b any, mult int, collator *collate.Collator) int {
	aMissing, bMissing := isMissing(a), isMissing(b)
	switch {
	case aMissing && bMissing:
		return 0
	case aMissing:
		return 1
	case bMissing:
		return -1
	}
	return compareDefined(a, b, collator) * mult
}

func isMissing(value any) bool {
	_, ok := Stringify(value)
	return !ok
}

// Kinds of defined values, in the order they sort when a column mixes them.
const (
	kindNumber = iota
	kindTime
	kindBool
	kindText
)

func valueKind(value any) int {
	if _, ok := numericValue(value); ok {
		return kindNumber
	}
	if _, ok := timeValue(value); ok {
		return kindTime
	}
	if _, ok := value.(bool); ok {
		return kindBool
	}
	return kindText
}

// compareDefined orders by kind first so a mixed column still sorts by a
// total order. NaN sorts before every other number.
func compareDefined(a, b any, collator *collate.Collator) int {
	ka, kb := valueKind(a), valueKind(b)
	if ka != kb {
		return cmp.Compare(ka, kb)
	}
	switch ka {
	case kindNumber:
		af, _ := numericValue(a)
		bf, _ := numericValue(b)
		return cmp.Compare(af, bf)
	case kindTime:
		at, _ := timeValue(a)
		bt, _ := timeValue(b)
		return at.Compare(bt)
	case kindBool:
		return compareBools(a.(bool), b.(bool))
	}
	as, _ := Stringify(a)
	bs, _ := Stringify(b)
	return collator.CompareString(as, bs)
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func timeValue(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v != nil {
			return *v, true
		}
	}
	return time.Time{}, false
}
