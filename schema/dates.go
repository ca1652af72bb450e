package schema

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ============================================================================
// DATE LADDER — Ambiguous multi-format date parsing
// ============================================================================
// Spreadsheet exports mix ISO dates, US dates, European dates and serial
// numbers. Formats are attempted in a fixed order and the first success wins:
//
//   1. native layouts (ISO 8601, RFC 3339, "Jan 2, 2006", ...)
//   2. MM/DD/YYYY
//   3. DD/MM/YYYY
//   4. YYYY/MM/DD
//
// "6/1/2025" is therefore June 1st; "15/6/2025" fails rung 2 and lands on
// rung 3 as June 15th.
// ============================================================================

// InvalidDate is the formatted value of a date cell that failed every rung.
const InvalidDate = "Invalid Date"

// DisplayLayout is the layout of the formatted shadow field.
const DisplayLayout = "Jan 2, 2006"

var dateLadder = [][]string{
	{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"Jan 2, 2006",
		"January 2, 2006",
		"Jan 2 2006",
		"January 2 2006",
		"2 Jan 2006",
		"2 January 2006",
		"Mon Jan 2 2006",
		"Mon, 02 Jan 2006 15:04:05 MST",
	},
	{"1/2/2006", "1-2-2006", "1/2/2006 15:04", "1/2/2006 15:04:05", "1/2/2006 3:04 PM"},
	{"2/1/2006", "2-1-2006", "2/1/2006 15:04", "2/1/2006 15:04:05"},
	{"2006/1/2", "2006/1/2 15:04", "2006/1/2 15:04:05"},
}

// ParseDate runs the format ladder over a textual cell value.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, rung := range dateLadder {
		for _, layout := range rung {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// ParseDateValue accepts a raw cell (string, number, time.Time).
// Numbers are treated as spreadsheet serial dates.
func ParseDateValue(v any) (time.Time, bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return val, !val.IsZero()
	case string:
		if t, ok := ParseDate(val); ok {
			return t, true
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return serialDate(f)
		}
		return time.Time{}, false
	case float64:
		return serialDate(val)
	case int:
		return serialDate(float64(val))
	case int64:
		return serialDate(float64(val))
	default:
		return time.Time{}, false
	}
}

// serialDate converts a spreadsheet serial number. Only values between
// 1900-01-01 and 2173-10-14 are accepted, so plain counts do not turn into dates.
func serialDate(f float64) (time.Time, bool) {
	if f < 1 || f > 100000 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DateParts is the derived shadow data for one date cell.
type DateParts struct {
	Parsed    time.Time
	Valid     bool
	Month     int
	Year      int
	Formatted string
}

// SplitDate parses a raw cell into its shadow parts.
func SplitDate(v any) DateParts {
	t, ok := ParseDateValue(v)
	if !ok {
		return DateParts{Formatted: InvalidDate}
	}
	return DateParts{
		Parsed:    t,
		Valid:     true,
		Month:     int(t.Month()),
		Year:      t.Year(),
		Formatted: t.Format(DisplayLayout),
	}
}

// ============================================================================
// MONTH NAMES
// ============================================================================

var monthNames = map[string]int{
	"january": 1, "jan": 1,
	"february": 2, "feb": 2,
	"march": 3, "mar": 3,
	"april": 4, "apr": 4,
	"may": 5,
	"june": 6, "jun": 6,
	"july": 7, "jul": 7,
	"august": 8, "aug": 8,
	"september": 9, "sep": 9, "sept": 9,
	"october": 10, "oct": 10,
	"november": 11, "nov": 11,
	"december": 12, "dec": 12,
}

// MonthNumber resolves "6", 6, "June" or "jun" to 6.
func MonthNumber(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, val >= 1 && val <= 12
	case float64:
		m := int(val)
		return m, float64(m) == val && m >= 1 && m <= 12
	case string:
		s := strings.ToLower(strings.TrimSpace(val))
		if m, ok := monthNames[s]; ok {
			return m, true
		}
		if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= 12 {
			return n, true
		}
	}
	return 0, false
}

// MonthName resolves a month word ("june", "Sep") to its number.
func MonthName(word string) (int, bool) {
	m, ok := monthNames[strings.ToLower(word)]
	return m, ok
}
