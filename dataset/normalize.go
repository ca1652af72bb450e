package dataset

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/cast"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/spektr-org/tabula/schema"
)

// ============================================================================
// NORMALIZER — header + rows → typed records with shadow fields
// ============================================================================
// Pure and idempotent: identical input always yields structurally identical
// output. The classification of each header comes from schema.ClassifyHeader;
// plain columns whose non-empty cells are all numeric are coerced to float64.
// ============================================================================

// Table is the normalizer output: cleaned headers, their kinds, and records.
type Table struct {
	Headers []string
	Kinds   map[string]schema.ColumnKind
	Records []Record
}

// Normalize converts header + body rows into records.
// Missing cells default to "", cells past the header are ignored, and fully
// blank rows are dropped.
func Normalize(header []string, rows []RawRow) Table {
	headers := CleanHeaders(header)
	kinds := make(map[string]schema.ColumnKind, len(headers))
	taken := make(map[string]bool, len(headers))
	for _, h := range headers {
		kinds[h] = schema.ClassifyHeader(h)
		taken[h] = true
	}

	body := padRows(rows, len(headers))
	numeric := numericColumns(headers, kinds, body)

	records := make([]Record, 0, len(body))
	for _, row := range body {
		rec := make(Record, len(headers)*3)
		for i, h := range headers {
			normalizeCell(rec, h, kinds[h], numeric[h], row[i], taken)
		}
		records = append(records, rec)
	}

	return Table{Headers: headers, Kinds: kinds, Records: records}
}

// CleanHeaders trims header names, names blank ones "Column N" and suffixes
// duplicates with _2, _3, ...
func CleanHeaders(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	count := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Column %d", i+1)
		}
		key := strings.ToLower(name)
		if used[key] {
			// a suffixed name may itself be a real header
			n := count[key] + 1
			for used[strings.ToLower(fmt.Sprintf("%s_%d", name, n))] {
				n++
			}
			count[key] = n
			name = fmt.Sprintf("%s_%d", name, n)
		} else {
			count[key] = 1
		}
		used[strings.ToLower(name)] = true
		out[i] = name
	}
	return out
}

func padRows(rows []RawRow, width int) [][]any {
	body := make([][]any, 0, len(rows))
	for _, row := range rows {
		cells := make([]any, width)
		blank := true
		for i := range cells {
			if i < len(row) && row[i] != nil {
				cells[i] = row[i]
			} else {
				cells[i] = ""
			}
			if !IsBlank(cells[i]) {
				blank = false
			}
		}
		if !blank {
			body = append(body, cells)
		}
	}
	return body
}

// numericColumns flags plain columns where every non-empty cell is a number.
func numericColumns(headers []string, kinds map[string]schema.ColumnKind, body [][]any) map[string]bool {
	out := make(map[string]bool)
	for i, h := range headers {
		if kinds[h] != schema.KindPlain {
			continue
		}
		var values []string
		for _, row := range body {
			if !IsBlank(row[i]) {
				values = append(values, strings.TrimSpace(CellText(row[i])))
			}
		}
		out[h] = schema.AllNumeric(values)
	}
	return out
}

func normalizeCell(rec Record, col string, kind schema.ColumnKind, numeric bool, raw any, taken map[string]bool) {
	shadow := func(suffix string, v any) {
		name := col + suffix
		if !taken[name] {
			rec[name] = v
		}
	}

	switch kind {
	case schema.KindDate:
		value := raw
		if s, ok := raw.(string); ok {
			value = strings.TrimSpace(s)
		}
		rec[col] = value
		parts := schema.SplitDate(value)
		if parts.Valid {
			shadow(SuffixParsed, parts.Parsed)
			shadow(SuffixMonth, parts.Month)
			shadow(SuffixYear, parts.Year)
		}
		shadow(SuffixFormatted, parts.Formatted)
		shadow(SuffixSearch, strings.ToLower(CellText(value)))

	case schema.KindIdentifier:
		text := strings.TrimSpace(CellText(raw))
		rec[col] = text
		shadow(SuffixSearch, strings.ToLower(text))

	case schema.KindFreeText:
		text := strings.TrimSpace(CellText(raw))
		rec[col] = text
		shadow(SuffixSearch, strings.ToLower(text))
		shadow(SuffixUpper, strings.ToUpper(text))
		shadow(SuffixNormalized, NormalizeText(text))

	default:
		if numeric && !IsBlank(raw) {
			if f, err := cast.ToFloat64E(strings.TrimSpace(CellText(raw))); err == nil {
				rec[col] = f
				return
			}
		}
		rec[col] = raw
		if s, ok := raw.(string); ok && s != "" {
			shadow(SuffixSearch, strings.ToLower(strings.TrimSpace(s)))
			shadow(SuffixNormalized, NormalizeText(s))
		}
	}
}

// NormalizeText lowercases, folds diacritics, replaces punctuation with
// spaces and collapses whitespace. "Café, 5th St." → "cafe 5th st".
func NormalizeText(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}
	folded = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}
