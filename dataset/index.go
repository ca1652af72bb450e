package dataset

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/spektr-org/tabula/schema"
)

// ============================================================================
// KEYWORD INDEX — token → owning columns
// ============================================================================
// Built once per load over the searchable columns. Each distinct cell value
// is tokenized (punctuation → space, whitespace split, short tokens and
// stopwords dropped) and every token is attached to its column.
// Lookups are a single map access.
// ============================================================================

// MinTokenLen is the shortest token kept in the index.
const MinTokenLen = 2

// MinQueryTokenLen is the shortest question token considered by Search.
const MinQueryTokenLen = 3

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "been": true, "but": true, "by": true, "for": true, "from": true,
	"had": true, "has": true, "have": true, "he": true, "her": true, "his": true,
	"if": true, "in": true, "into": true, "is": true, "it": true, "its": true,
	"no": true, "not": true, "of": true, "on": true, "or": true, "our": true,
	"she": true, "so": true, "that": true, "the": true, "their": true, "them": true,
	"then": true, "there": true, "these": true, "they": true, "this": true,
	"to": true, "up": true, "was": true, "we": true, "were": true, "will": true,
	"with": true,
}

// questionWords never count as keyword hits: they describe the question,
// not the data.
var questionWords = map[string]bool{
	"how": true, "many": true, "much": true, "what": true, "which": true,
	"when": true, "where": true, "who": true, "why": true, "show": true,
	"list": true, "all": true, "record": true, "records": true, "row": true,
	"rows": true, "entry": true, "entries": true, "data": true, "count": true,
	"number": true, "total": true, "last": true, "latest": true, "recent": true,
	"most": true, "find": true, "give": true, "tell": true, "about": true,
	"regarding": true, "related": true, "containing": true, "mentioning": true,
	"did": true, "does": true, "please": true, "unique": true, "distinct": true,
	"values": true, "value": true, "any": true, "every": true, "month": true,
	"year": true, "done": true, "happened": true, "get": true, "can": true,
	"you": true, "me": true,
}

// Tokenize splits text into index tokens.
func Tokenize(s string) []string {
	fields := strings.Fields(NormalizeText(s))
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < MinTokenLen || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Index is the inverted keyword index.
type Index struct {
	tokens map[string][]string
}

// BuildIndex indexes the searchable columns of records.
func BuildIndex(records []Record, columns []schema.ColumnMeta) *Index {
	sets := make(map[string]map[string]bool, len(columns))
	for _, col := range columns {
		if col.Searchable {
			sets[col.Name] = columnTokens(records, col.Name)
		}
	}
	return mergeIndex(sets)
}

// columnTokens collects the token set of one column's distinct values.
func columnTokens(records []Record, column string) map[string]bool {
	distinct := make(map[string]bool)
	tokens := make(map[string]bool)
	for _, rec := range records {
		text := rec.Text(column)
		if text == "" || distinct[text] {
			continue
		}
		distinct[text] = true
		for _, tok := range Tokenize(text) {
			tokens[tok] = true
		}
	}
	return tokens
}

func mergeIndex(sets map[string]map[string]bool) *Index {
	ix := &Index{tokens: make(map[string][]string)}
	for col, toks := range sets {
		for tok := range toks {
			ix.tokens[tok] = append(ix.tokens[tok], col)
		}
	}
	for tok := range ix.tokens {
		sort.Strings(ix.tokens[tok])
	}
	return ix
}

// Lookup returns the columns owning token, nil when absent.
func (ix *Index) Lookup(token string) []string {
	if ix == nil {
		return nil
	}
	return ix.tokens[strings.ToLower(token)]
}

// Len returns the number of distinct tokens.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.tokens)
}

// ============================================================================
// SEARCH
// ============================================================================

// Hits is the outcome of a keyword search.
type Hits struct {
	Tokens  []string // question tokens found in the index
	Records []Record // records containing every hit token
}

// Empty reports whether the search produced no records.
func (h Hits) Empty() bool { return len(h.Records) == 0 }

// Search looks up the question's content words in the index and returns the
// records that contain every hit token in at least one owning column.
// Question vocabulary and column-name words are ignored.
func Search(ix *Index, records []Record, headers []string, question string) Hits {
	headerWords := make(map[string]bool)
	for _, h := range headers {
		for _, w := range Tokenize(h) {
			headerWords[w] = true
		}
	}

	var hits []string
	seen := make(map[string]bool)
	for _, tok := range Tokenize(question) {
		if seen[tok] || utf8.RuneCountInString(tok) < MinQueryTokenLen || questionWords[tok] || headerWords[tok] {
			continue
		}
		seen[tok] = true
		if len(ix.Lookup(tok)) > 0 {
			hits = append(hits, tok)
		}
	}
	if len(hits) == 0 {
		return Hits{}
	}

	var matched []Record
	for _, rec := range records {
		if recordHasAll(ix, rec, hits) {
			matched = append(matched, rec)
		}
	}
	return Hits{Tokens: hits, Records: matched}
}

func recordHasAll(ix *Index, rec Record, tokens []string) bool {
	cache := make(map[string]map[string]bool)
	for _, tok := range tokens {
		found := false
		for _, col := range ix.Lookup(tok) {
			words, ok := cache[col]
			if !ok {
				words = make(map[string]bool)
				for _, w := range Tokenize(rec.Text(col)) {
					words[w] = true
				}
				cache[col] = words
			}
			if words[tok] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
