package translator

import (
	"regexp"
	"sort"
	"strings"

	"github.com/spektr-org/tabula/dataset"
	"github.com/spektr-org/tabula/engine"
	"github.com/spektr-org/tabula/schema"
)

// ============================================================================
// RULE TABLE — deterministic question → Plan fallback
// ============================================================================
// Evaluated in priority order; the first rule that builds a plan wins.
//
//   1. count          "how many", "count", "number of"
//   2. last action    "last", "latest", "most recent"
//   3. column dump    "list all X", "all X values", "unique X", "show all records"
//   4. specific date  "on 2025-06-01", "June 5, 2025"
//   5. month / year   "in June", "during 2024"
//   6. keyword        quoted text, "about", "regarding", "related to", ...
//   7. default        list_all, no filters
//
// Extraction helpers look at the snapshot (column names, Location values)
// so a rule only emits fields the data can resolve, except the neutral
// count filter which the executor drops when there is no Location column.
// ============================================================================

// Rule is one (predicate, plan-builder) pair.
type Rule struct {
	Name  string
	Build func(q Question, snap *dataset.Snapshot) (engine.Plan, bool)
}

// Question is a question prepared for rule matching.
type Question struct {
	Raw   string
	Lower string
}

// NewQuestion normalizes whitespace and case.
func NewQuestion(raw string) Question {
	raw = strings.Join(strings.Fields(raw), " ")
	return Question{Raw: raw, Lower: strings.ToLower(raw)}
}

// Rules is the ordered rule table.
var Rules = []Rule{
	{Name: "count", Build: countRule},
	{Name: "last_action", Build: lastActionRule},
	{Name: "column_dump", Build: columnDumpRule},
	{Name: "specific_date", Build: specificDateRule},
	{Name: "month_year", Build: monthYearRule},
	{Name: "keyword", Build: keywordRule},
}

// PlanFromRules runs the rule table. The second value names the rule that
// matched ("default" when none did).
func PlanFromRules(question string, snap *dataset.Snapshot) (engine.Plan, string) {
	q := NewQuestion(question)
	for _, r := range Rules {
		if plan, ok := r.Build(q, snap); ok {
			return normalizePlan(plan), r.Name
		}
	}
	return engine.ListAll(), "default"
}

// ClassifyIntent returns the intent the rule table assigns to a question.
func ClassifyIntent(question string, snap *dataset.Snapshot) engine.Intent {
	plan, _ := PlanFromRules(question, snap)
	return plan.Intent
}

func normalizePlan(p engine.Plan) engine.Plan {
	if p.Filters == nil {
		p.Filters = []engine.Filter{}
	}
	if p.Fields == nil {
		p.Fields = []string{}
	}
	return p
}

// ============================================================================
// RULES
// ============================================================================

var (
	countPattern    = regexp.MustCompile(`\b(how many|count|number of)\b`)
	lastPattern     = regexp.MustCompile(`\b(last|latest|most recent)\b`)
	showAllPattern  = regexp.MustCompile(`\b(?:show|list|give|get|display)(?: me)? (?:all|every)(?: the)? (?:records|rows|entries|data)\b`)
	keywordTriggers = regexp.MustCompile(`\b(?:about|regarding|related to|containing|mentioning|mention of|involving)\s+(.+?)\s*[?.!]*$`)
	quotedPattern   = regexp.MustCompile(`["“”]([^"“”]{2,})["“”]`)
)

var dumpPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:list|show|give me|display)(?: me)? all(?: the)? (?:different |distinct |unique )?([a-z0-9 _./-]+?)(?: values)?\s*[?.!]*$`),
	regexp.MustCompile(`\ball(?: the)? ([a-z0-9 _./-]+?) values\b`),
	regexp.MustCompile(`\b(?:unique|distinct|different) ([a-z0-9 _./-]+?)(?: values)?\s*[?.!]*$`),
}

func countRule(q Question, snap *dataset.Snapshot) (engine.Plan, bool) {
	if !countPattern.MatchString(q.Lower) {
		return engine.Plan{}, false
	}
	filters := contextFilters(q, snap)
	if kw, ok := extractKeyword(q); ok {
		filters = append(filters, engine.Filter{Field: dataset.FieldDescription, Operator: engine.OpContains, Value: kw})
	}
	if len(filters) == 0 {
		filters = []engine.Filter{{Field: dataset.FieldLocation, Operator: engine.OpContains, Value: ""}}
	}
	return engine.Plan{Filters: filters, Intent: engine.IntentCount}, true
}

func lastActionRule(q Question, snap *dataset.Snapshot) (engine.Plan, bool) {
	if !lastPattern.MatchString(q.Lower) {
		return engine.Plan{}, false
	}
	return engine.Plan{Filters: contextFilters(q, snap), Intent: engine.IntentLastAction}, true
}

func columnDumpRule(q Question, snap *dataset.Snapshot) (engine.Plan, bool) {
	if showAllPattern.MatchString(q.Lower) {
		return engine.ListAll(), true
	}
	for _, p := range dumpPatterns {
		m := p.FindStringSubmatch(q.Lower)
		if m == nil {
			continue
		}
		phrase := strings.TrimSpace(m[1])
		switch phrase {
		case "records", "rows", "entries", "data", "record":
			return engine.ListAll(), true
		}
		if col, ok := resolveColumnPhrase(phrase, snap); ok {
			return engine.Plan{Fields: []string{col}, Intent: engine.IntentUniqueValues}, true
		}
	}
	return engine.Plan{}, false
}

func specificDateRule(q Question, _ *dataset.Snapshot) (engine.Plan, bool) {
	d, ok := extractDate(q)
	if !ok {
		return engine.Plan{}, false
	}
	return engine.Plan{
		Filters: []engine.Filter{{Field: dataset.FieldDate, Operator: engine.OpEquals, Value: d}},
		Intent:  engine.IntentList,
	}, true
}

func monthYearRule(q Question, snap *dataset.Snapshot) (engine.Plan, bool) {
	var filters []engine.Filter
	if m, ok := extractMonth(q); ok {
		filters = append(filters, engine.Filter{Field: dataset.FieldDate, Operator: engine.OpMonth, Value: m})
	}
	if y, ok := extractYear(q); ok {
		filters = append(filters, engine.Filter{Field: dataset.FieldDate, Operator: engine.OpYear, Value: y})
	}
	if len(filters) == 0 {
		return engine.Plan{}, false
	}
	if loc, ok := extractLocation(q, snap); ok {
		filters = append([]engine.Filter{{Field: dataset.FieldLocation, Operator: engine.OpContains, Value: loc}}, filters...)
	}
	return engine.Plan{Filters: filters, Intent: engine.IntentList}, true
}

func keywordRule(q Question, _ *dataset.Snapshot) (engine.Plan, bool) {
	kw, ok := extractKeyword(q)
	if !ok {
		return engine.Plan{}, false
	}
	return engine.Plan{
		Filters: []engine.Filter{{Field: dataset.FieldDescription, Operator: engine.OpContains, Value: kw}},
		Intent:  engine.IntentList,
	}, true
}

// TemporalFilters returns the calendar constraints mentioned in question:
// a full date, or a month and year.
func TemporalFilters(question string) []engine.Filter {
	q := NewQuestion(question)
	if d, ok := extractDate(q); ok {
		return []engine.Filter{{Field: dataset.FieldDate, Operator: engine.OpEquals, Value: d}}
	}
	var filters []engine.Filter
	if m, ok := extractMonth(q); ok {
		filters = append(filters, engine.Filter{Field: dataset.FieldDate, Operator: engine.OpMonth, Value: m})
	}
	if y, ok := extractYear(q); ok {
		filters = append(filters, engine.Filter{Field: dataset.FieldDate, Operator: engine.OpYear, Value: y})
	}
	return filters
}

// contextFilters collects the location, month and year mentioned in q.
func contextFilters(q Question, snap *dataset.Snapshot) []engine.Filter {
	var filters []engine.Filter
	if loc, ok := extractLocation(q, snap); ok {
		filters = append(filters, engine.Filter{Field: dataset.FieldLocation, Operator: engine.OpContains, Value: loc})
	}
	if m, ok := extractMonth(q); ok {
		filters = append(filters, engine.Filter{Field: dataset.FieldDate, Operator: engine.OpMonth, Value: m})
	}
	if y, ok := extractYear(q); ok {
		filters = append(filters, engine.Filter{Field: dataset.FieldDate, Operator: engine.OpYear, Value: y})
	}
	return filters
}

// ============================================================================
// EXTRACTORS
// ============================================================================

var (
	yearPattern      = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	wordPattern      = regexp.MustCompile(`[a-z]+`)
	mayPattern       = regexp.MustCompile(`\b(?:in|of|during|since|for) may\b|\bmay (?:19|20)\d{2}\b`)
	isoDatePattern   = regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`)
	slashDatePattern = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)
	longDatePattern  = regexp.MustCompile(`\b(?:[a-z]{3,9} \d{1,2},? \d{4}|\d{1,2} [a-z]{3,9} \d{4})\b`)
	locationTrigger  = regexp.MustCompile(`\b(?:at|in|for)\s+(?:the\s+)?`)
	locationPhrase   = regexp.MustCompile(`^([a-z0-9][a-z0-9 .'\-]*?)(?:\s+(?:at|in|during|for|on|from|since|between|with|about)\b|\s*[?.!,]|\s*$)`)
)

var locationStopPhrases = map[string]bool{
	"total": true, "all": true, "records": true, "record": true, "the data": true,
	"data": true, "general": true, "each": true, "every": true, "it": true,
	"dataset": true, "file": true, "sheet": true, "spreadsheet": true, "table": true,
}

func extractYear(q Question) (int, bool) {
	m := yearPattern.FindString(q.Lower)
	if m == "" {
		return 0, false
	}
	y := 0
	for _, r := range m {
		y = y*10 + int(r-'0')
	}
	return y, true
}

// extractMonth finds a month word. "may" only counts in a date-like
// position ("in may", "may 2025").
func extractMonth(q Question) (int, bool) {
	for _, w := range wordPattern.FindAllString(q.Lower, -1) {
		if w == "may" {
			if mayPattern.MatchString(q.Lower) {
				return 5, true
			}
			continue
		}
		if len(w) < 3 {
			continue
		}
		if m, ok := schema.MonthName(w); ok {
			return m, true
		}
	}
	return 0, false
}

// extractDate finds a full calendar date and returns it as YYYY-MM-DD.
func extractDate(q Question) (string, bool) {
	for _, p := range []*regexp.Regexp{isoDatePattern, slashDatePattern, longDatePattern} {
		for _, m := range p.FindAllString(q.Lower, -1) {
			if t, ok := schema.ParseDate(titleMonth(m)); ok {
				return t.Format("2006-01-02"), true
			}
		}
	}
	return "", false
}

// titleMonth capitalizes month words so time layouts accept them.
func titleMonth(s string) string {
	return wordPattern.ReplaceAllStringFunc(s, func(w string) string {
		if _, ok := schema.MonthName(w); ok {
			return strings.ToUpper(w[:1]) + w[1:]
		}
		return w
	})
}

// extractLocation prefers a known Location value mentioned verbatim, then
// falls back to the phrase after "at"/"in"/"for".
func extractLocation(q Question, snap *dataset.Snapshot) (string, bool) {
	if col, ok := snap.Resolve(dataset.FieldLocation); ok {
		var best string
		for _, v := range dataset.Distinct(snap.Records, col) {
			lv := strings.ToLower(strings.TrimSpace(v))
			if len(lv) < 2 || len(lv) <= len(best) {
				continue
			}
			if containsPhrase(q.Lower, lv) {
				best = lv
			}
		}
		if best != "" {
			return best, true
		}
	}

	for _, loc := range locationTrigger.FindAllStringIndex(q.Lower, -1) {
		m := locationPhrase.FindStringSubmatch(q.Lower[loc[1]:])
		if m == nil {
			continue
		}
		phrase := strings.TrimSpace(strings.TrimRight(m[1], ".'-"))
		if phrase == "" || locationStopPhrases[phrase] || locationStopPhrases[strings.Fields(phrase)[0]] || isTemporal(phrase) {
			continue
		}
		return phrase, true
	}
	return "", false
}

func isTemporal(phrase string) bool {
	first := strings.Fields(phrase)[0]
	if _, ok := schema.MonthName(first); ok {
		return true
	}
	if yearPattern.MatchString(first) {
		return true
	}
	switch first {
	case "today", "yesterday", "week", "month", "year", "last", "this", "next":
		return true
	}
	_, ok := schema.ParseDate(phrase)
	return ok
}

// extractKeyword returns quoted text or the phrase after a keyword trigger.
func extractKeyword(q Question) (string, bool) {
	if m := quotedPattern.FindStringSubmatch(q.Raw); m != nil {
		return strings.ToLower(strings.TrimSpace(m[1])), true
	}
	if m := keywordTriggers.FindStringSubmatch(q.Lower); m != nil {
		kw := strings.TrimSpace(m[1])
		kw = strings.TrimPrefix(kw, "the ")
		kw = strings.TrimSuffix(kw, " records")
		kw = strings.TrimSuffix(kw, " issues")
		if kw != "" {
			return kw, true
		}
	}
	return "", false
}

// resolveColumnPhrase maps "locations", "action taken", "mmt numbers" to a
// header: exact header first, then the resolver on the phrase and its
// singular form.
func resolveColumnPhrase(phrase string, snap *dataset.Snapshot) (string, bool) {
	if snap == nil {
		return "", false
	}
	candidates := []string{phrase, strings.TrimSuffix(phrase, "s"), strings.TrimSuffix(phrase, "es")}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if col, ok := snap.Resolve(c); ok {
			return col, true
		}
	}

	// longest header mentioned inside the phrase
	headers := append([]string(nil), snap.Headers...)
	sort.Slice(headers, func(i, j int) bool { return len(headers[i]) > len(headers[j]) })
	for _, h := range headers {
		if containsPhrase(phrase, strings.ToLower(h)) {
			return h, true
		}
	}
	return "", false
}

// containsPhrase reports whether needle appears in haystack on word
// boundaries.
func containsPhrase(haystack, needle string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], needle)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(needle)
		before := start == 0 || !isWordByte(haystack[start-1])
		after := end == len(haystack) || !isWordByte(haystack[end])
		if before && after {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b >= 'A' && b <= 'Z'
}
