package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/spektr-org/tabula/dataset"
	"github.com/spektr-org/tabula/schema"
)

// ============================================================================
// FILTERS — Operator predicates over normalized records
// ============================================================================
// Single-pass filter: every record is checked against ALL resolved filters.
// Returns a SubView (index list into parent), never a copy.
// ============================================================================

// boundFilter is a filter whose field resolved to a real column.
type boundFilter struct {
	Filter
	column string
	kind   schema.ColumnKind
}

// applyFilters returns a view of records matching every filter (AND).
// An empty filter list returns the original view.
func applyFilters(view RecordView, filters []boundFilter) RecordView {
	if len(filters) == 0 {
		return view
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		rec := view.Record(i)
		pass := true
		for _, f := range filters {
			if !Match(rec, f.column, f.kind, f.Filter) {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}
	return newSubView(view, indices)
}

// Match evaluates one filter against one record column.
func Match(rec dataset.Record, column string, kind schema.ColumnKind, f Filter) bool {
	raw := rec[column]
	text := strings.TrimSpace(dataset.CellText(raw))
	want := strings.TrimSpace(dataset.CellText(f.Value))

	switch f.Operator {
	case OpContains:
		return strings.Contains(strings.ToLower(text), strings.ToLower(want))

	case OpEquals:
		if kind == schema.KindDate {
			if wantDate, ok := schema.ParseDate(want); ok {
				got, ok := recordDate(rec, column)
				return ok && sameDay(got, wantDate)
			}
		}
		if strings.EqualFold(text, want) {
			return true
		}
		return numericEqual(text, want)

	case OpStartsWith:
		return strings.HasPrefix(strings.ToLower(text), strings.ToLower(want))

	case OpEndsWith:
		return strings.HasSuffix(strings.ToLower(text), strings.ToLower(want))

	case OpMonth:
		wantMonth, ok := schema.MonthNumber(f.Value)
		if !ok {
			return false
		}
		got, ok := recordDate(rec, column)
		return ok && int(got.Month()) == wantMonth

	case OpYear:
		wantYear, err := cast.ToIntE(want)
		if err != nil {
			return false
		}
		got, ok := recordDate(rec, column)
		return ok && got.Year() == wantYear

	case OpGreaterThan, OpLessThan:
		cmp, ok := compare(rec, column, kind, text, f.Value)
		if !ok {
			return false
		}
		if f.Operator == OpGreaterThan {
			return cmp > 0
		}
		return cmp < 0

	case OpIsEmpty:
		return dataset.IsBlank(raw)

	case OpIsNotEmpty:
		return !dataset.IsBlank(raw)
	}
	return false
}

// recordDate reads the parsed date shadow, parsing the raw cell on the fly
// when the column has no shadow.
func recordDate(rec dataset.Record, column string) (time.Time, bool) {
	if t, ok := rec.ParsedDate(column); ok {
		return t, true
	}
	if _, hasFormatted := rec[column+dataset.SuffixFormatted]; hasFormatted {
		// normalized date column whose parse failed
		return time.Time{}, false
	}
	return schema.ParseDateValue(rec[column])
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func numericEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	x, errA := cast.ToFloat64E(a)
	y, errB := cast.ToFloat64E(b)
	return errA == nil && errB == nil && x == y
}

// compare returns -1, 0, 1 for record vs value. Date columns compare as
// dates when the value parses as a date; everything else compares as numbers.
func compare(rec dataset.Record, column string, kind schema.ColumnKind, text string, value any) (int, bool) {
	if kind == schema.KindDate {
		if wantDate, ok := schema.ParseDate(dataset.CellText(value)); ok {
			got, ok := recordDate(rec, column)
			if !ok {
				return 0, false
			}
			return got.Compare(wantDate), true
		}
	}

	if text == "" {
		return 0, false
	}
	got, err := cast.ToFloat64E(text)
	if err != nil {
		return 0, false
	}
	wantText := strings.TrimSpace(dataset.CellText(value))
	if wantText == "" {
		return 0, false
	}
	want, err := cast.ToFloat64E(wantText)
	if err != nil {
		return 0, false
	}
	switch {
	case got > want:
		return 1, true
	case got < want:
		return -1, true
	default:
		return 0, true
	}
}

// Describe renders filters as a human-readable clause list.
func Describe(filters []Filter) string {
	if len(filters) == 0 {
		return "all records"
	}
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		if f.Operator.NeedsValue() {
			parts = append(parts, fmt.Sprintf("%s %s %q", f.Field, strings.ReplaceAll(string(f.Operator), "_", " "), dataset.CellText(f.Value)))
		} else {
			parts = append(parts, fmt.Sprintf("%s %s", f.Field, strings.ReplaceAll(string(f.Operator), "_", " ")))
		}
	}
	return strings.Join(parts, " AND ")
}
