package datatable

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Filter returns the rows for which at least one visible column value,
// stringified, contains query case-insensitively. An empty or whitespace-only
// query returns every row in its original order. nil values never match.
//
// When columns carries no data columns every row value is searched instead.
func Filter(rows []Row, columns []Column, query string) []Row {
	if strings.TrimSpace(query) == "" {
		return append([]Row(nil), rows...)
	}
	needle := strings.ToLower(query)
	keys := searchKeys(columns)

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if rowMatches(row, keys, needle) {
			out = append(out, row)
		}
	}
	return out
}

func rowMatches(row Row, keys []string, needle string) bool {
	if len(keys) == 0 {
		for _, value := range row {
			if valueMatches(value, needle) {
				return true
			}
		}
		return false
	}
	for _, key := range keys {
		if valueMatches(row[key], needle) {
			return true
		}
	}
	return false
}

func valueMatches(value any, needle string) bool {
	text, ok := Stringify(value)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(text), needle)
}

// Stringify returns the canonical string form of a cell value. The second
// return is false for nil values, which are treated as missing data.
func Stringify(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int8:
		return strconv.FormatInt(int64(v), 10), true
	case int16:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint8:
		return strconv.FormatUint(uint64(v), 10), true
	case uint16:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	case time.Time:
		if v.IsZero() {
			return "", false
		}
		return v.Format(time.RFC3339), true
	case *time.Time:
		if v == nil || v.IsZero() {
			return "", false
		}
		return v.Format(time.RFC3339), true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}
