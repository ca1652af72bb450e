package dataset

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/spektr-org/tabula/schema"
)

// ============================================================================
// RECORD — One normalized data row
// ============================================================================
// A Record maps every original column to its stored value and carries the
// derived shadow fields next to it:
//
//   <col>_search      lowercase, trimmed
//   <col>_normalized  lowercase, diacritics folded, punctuation stripped
//   <col>_upper       uppercase (free-text columns)
//   <col>_parsed      time.Time (date columns, only when parsing succeeded)
//   <col>_month       int 1-12 (date columns, only when parsing succeeded)
//   <col>_year        int      (date columns, only when parsing succeeded)
//   <col>_formatted   "Jan 2, 2006" or "Invalid Date" (date columns)
// ============================================================================

// RawRow is one body row as delivered by the spreadsheet reader.
type RawRow = []any

// Record is a normalized row. Never mutated after the snapshot is built.
type Record map[string]any

// Shadow field suffixes.
const (
	SuffixSearch     = "_search"
	SuffixNormalized = "_normalized"
	SuffixUpper      = "_upper"
	SuffixParsed     = "_parsed"
	SuffixMonth      = "_month"
	SuffixYear       = "_year"
	SuffixFormatted  = "_formatted"
)

// Text returns the textual representation of a field, "" when absent.
func (r Record) Text(field string) string {
	return CellText(r[field])
}

// Original returns a copy of the record restricted to the given columns.
func (r Record) Original(headers []string) Record {
	out := make(Record, len(headers))
	for _, h := range headers {
		out[h] = r[h]
	}
	return out
}

// ParsedDate returns the parsed shadow of a date column, if any.
func (r Record) ParsedDate(column string) (time.Time, bool) {
	t, ok := r[column+SuffixParsed].(time.Time)
	return t, ok
}

// CellText renders any cell value as text. Whole floats print without a
// fractional part so 42.0 reads as "42".
func CellText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(schema.DisplayLayout)
	default:
		return cast.ToString(val)
	}
}

// IsBlank reports whether a cell counts as empty.
func IsBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
