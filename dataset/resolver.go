package dataset

import "strings"

// ============================================================================
// FIELD RESOLVER — semantic field name → actual column
// ============================================================================
// Resolution order:
//   1. exact case-insensitive header match
//   2. ranked substring patterns for the semantic field
// Unknown semantic names use their own lowercase form as the only pattern.
// An unresolved name is not an error: callers drop the filter.
// ============================================================================

// Semantic field names understood by the resolver.
const (
	FieldLocation    = "Location"
	FieldDate        = "Date"
	FieldIdentifier  = "Identifier"
	FieldAction      = "Action"
	FieldDescription = "Description"
)

var fieldPatterns = map[string][]string{
	"location":    {"location", "address", "site", "functional location"},
	"date":        {"date", "functional date", "report date", "created date"},
	"identifier":  {"mmt", "mmt no", "mmt number", "ticket", "request no"},
	"action":      {"action", "action taken", "work done", "resolution", "status"},
	"description": {"description", "issue description", "problem description", "work description"},
}

var fieldAliases = map[string]string{
	"mmt":    "identifier",
	"ticket": "identifier",
	"id":     "identifier",
}

// Resolver maps semantic names onto the headers of one dataset.
type Resolver struct {
	headers []string
	lower   []string
}

// NewResolver creates a resolver for the given headers.
func NewResolver(headers []string) *Resolver {
	lower := make([]string, len(headers))
	for i, h := range headers {
		lower[i] = strings.ToLower(h)
	}
	return &Resolver{headers: headers, lower: lower}
}

// Resolve returns the header for a semantic field name.
// ok is false when nothing matches.
func (r *Resolver) Resolve(name string) (column string, ok bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if r == nil || key == "" {
		return "", false
	}

	for i, h := range r.lower {
		if h == key {
			return r.headers[i], true
		}
	}

	if alias, found := fieldAliases[key]; found {
		key = alias
	}
	patterns, known := fieldPatterns[key]
	if !known {
		patterns = []string{key}
	}
	for _, p := range patterns {
		for i, h := range r.lower {
			if strings.Contains(h, p) {
				return r.headers[i], true
			}
		}
	}
	return "", false
}

// Headers returns the headers the resolver was built over.
func (r *Resolver) Headers() []string {
	return r.headers
}
