package schema

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/cast"
)

// ============================================================================
// AUTO-DISCOVERY — Heuristic Column Classification
// ============================================================================
// Two independent signals per column:
//   1. Header name → ColumnKind (date / identifier / free text / plain).
//      Drives which shadow fields the normalizer derives.
//   2. Values → ColumnType (number / date / boolean / string), unique count,
//      samples, and the searchable flag used by the keyword index.
// No AI involved. Everything here is a pure function of the input.
// ============================================================================

// Limits bounds the cardinality of columns that get keyword-indexed even when
// their name does not match an always-index pattern.
type Limits struct {
	MaxNumericDistinct int // numeric-like columns with at most this many distinct values
	MaxStringDistinct  int // string-like columns with at most this many distinct values
}

// DefaultLimits returns the standard indexing limits.
func DefaultLimits() Limits {
	return Limits{
		MaxNumericDistinct: 1000,
		MaxStringDistinct:  500,
	}
}

var (
	identifierPatterns  = []string{"mmt", "ticket"}
	freeTextPatterns    = []string{"location", "description", "action", "comment", "remark"}
	alwaysIndexPatterns = []string{"description", "action", "location", "name", "title", "comment", "date", "time"}
	durationWords       = map[string]bool{"spent": true, "hours": true, "taken": true, "elapsed": true}
)

// ClassifyHeader maps a header name to the normalization kind.
// Precedence: date, identifier, free text, plain.
func ClassifyHeader(name string) ColumnKind {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch {
	case isDateLikeName(name):
		return KindDate
	case containsAny(lower, identifierPatterns):
		return KindIdentifier
	case containsAny(lower, freeTextPatterns):
		return KindFreeText
	default:
		return KindPlain
	}
}

// isDateLikeName matches "Date", "Report Date", "ReportDate", "Timestamp",
// "Start Time", but not "Time Spent (hours)", "Last Updated" or "Candidate".
// "date" and "timestamp" must start a word.
func isDateLikeName(name string) bool {
	words := headerWords(name)
	for _, w := range words {
		if strings.HasPrefix(w, "date") || strings.HasPrefix(w, "timestamp") {
			return true
		}
	}
	hasTime := false
	for _, w := range words {
		if durationWords[w] {
			return false
		}
		if w == "time" {
			hasTime = true
		}
	}
	return hasTime
}

// headerWords splits a header on punctuation, spaces and camelCase
// boundaries and lowercases each word.
func headerWords(name string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	var prev rune
	for _, r := range name {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return words
}

// Analyze builds ColumnMeta from the textual values of one column.
// values holds the non-empty cells in row order.
func Analyze(name string, kind ColumnKind, values []string, limits Limits) ColumnMeta {
	unique := make(map[string]bool, len(values))
	for _, v := range values {
		unique[v] = true
	}

	colType := DetectType(values)
	if kind == KindDate {
		colType = TypeDate
	}

	meta := ColumnMeta{
		Name:         name,
		Type:         colType,
		Kind:         kind,
		UniqueCount:  len(unique),
		SampleValues: collectSamples(unique, MaxSamples),
	}
	meta.Searchable = IsSearchable(meta, limits)
	return meta
}

// IsSearchable decides whether a column belongs in the keyword index.
func IsSearchable(meta ColumnMeta, limits Limits) bool {
	if containsAny(strings.ToLower(meta.Name), alwaysIndexPatterns) {
		return true
	}
	switch meta.Type {
	case TypeNumber:
		return meta.UniqueCount <= limits.MaxNumericDistinct
	case TypeDate:
		return true
	default:
		return meta.UniqueCount <= limits.MaxStringDistinct
	}
}

// ============================================================================
// TYPE DETECTION
// ============================================================================

// DetectType inspects values to determine column type.
// Requires 80%+ of non-empty values to match for number/date/boolean.
func DetectType(values []string) ColumnType {
	if len(values) == 0 {
		return TypeString
	}

	numCount, dateCount, boolCount := 0, 0, 0
	for _, v := range values {
		if IsNumeric(v) {
			numCount++
		}
		if _, ok := ParseDate(v); ok {
			dateCount++
		}
		if isBool(v) {
			boolCount++
		}
	}

	threshold := int(float64(len(values)) * 0.8)
	if threshold == 0 {
		threshold = 1
	}

	switch {
	case boolCount >= threshold:
		return TypeBoolean
	case numCount >= threshold:
		return TypeNumber
	case dateCount >= threshold:
		return TypeDate
	default:
		return TypeString
	}
}

// AllNumeric reports whether every value parses as a number.
// An empty slice is not numeric.
func AllNumeric(values []string) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if !IsNumeric(v) {
			return false
		}
	}
	return true
}

// IsNumeric reports whether s is a plain number ("12", "-3.5", "1e3").
func IsNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := cast.ToFloat64E(s)
	return err == nil
}

func isBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "false", "yes", "no":
		return true
	}
	return false
}

// ============================================================================
// HELPERS
// ============================================================================

// collectSamples picks up to maxSamples values, sorted for deterministic output.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}
	sort.Strings(samples)
	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// DiscoveredNow is the timestamp format used for Config.DiscoveredAt.
func DiscoveredNow() string {
	return time.Now().Format(time.RFC3339)
}
