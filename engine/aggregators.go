package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/spektr-org/tabula/dataset"
)

// ============================================================================
// AGGREGATORS — Intent post-processing via RecordView
// ============================================================================
// All functions operate on RecordView and return index lists or plain
// values; the dataset itself is never reordered.
// ============================================================================

// dateColumns picks the columns used to order records by recency:
// the resolver's "Date" column first, then any other header containing
// "date".
func dateColumns(snap *dataset.Snapshot) []string {
	var cols []string
	if col, ok := snap.Resolve(dataset.FieldDate); ok {
		cols = append(cols, col)
	}
	for _, h := range snap.Headers {
		if strings.Contains(strings.ToLower(h), "date") {
			cols = append(cols, h)
		}
	}
	return lo.Uniq(cols)
}

// bestDate returns the first parseable date among cols.
func bestDate(rec dataset.Record, cols []string) (time.Time, bool) {
	for _, col := range cols {
		if t, ok := recordDate(rec, col); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortLatestFirst orders a view newest first. Records without a date keep
// their relative order after every dated record.
func SortLatestFirst(view RecordView, cols []string) RecordView {
	type dated struct {
		index int
		at    time.Time
		ok    bool
	}
	items := make([]dated, view.Len())
	for i := range items {
		t, ok := bestDate(view.Record(i), cols)
		items[i] = dated{index: i, at: t, ok: ok}
	}

	sort.SliceStable(items, func(a, b int) bool {
		if items[a].ok != items[b].ok {
			return items[a].ok
		}
		return items[a].at.After(items[b].at)
	})

	indices := make([]int, len(items))
	for i, it := range items {
		indices[i] = it.index
	}
	return newSubView(view, indices)
}

// UniqueValues returns distinct non-empty values of a column in first-seen
// order.
func UniqueValues(view RecordView, column string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := strings.TrimSpace(dataset.CellText(view.Record(i)[column]))
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// Plural picks the singular or plural noun for n.
func Plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
