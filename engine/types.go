package engine

import (
	"time"

	"github.com/spektr-org/tabula/dataset"
	"github.com/spektr-org/tabula/schema"
)

// ============================================================================
// ENGINE TYPES — Filter Plan DSL
// ============================================================================
// A Plan is the contract between the planner and the executor:
// ordered AND-combined filters, the fields the answer should focus on, and
// an intent tag that drives post-processing and formatting.
// There is no OR/NOT.
// ============================================================================

// Intent is the kind of answer the question asks for.
type Intent string

const (
	IntentCount        Intent = "count"
	IntentList         Intent = "list"
	IntentListAll      Intent = "list_all"
	IntentLastAction   Intent = "last_action"
	IntentDetails      Intent = "details"
	IntentUniqueValues Intent = "unique_values"
)

// Intents lists every valid intent in prompt order.
func Intents() []Intent {
	return []Intent{IntentCount, IntentList, IntentListAll, IntentLastAction, IntentDetails, IntentUniqueValues}
}

// Valid reports whether i is a known intent.
func (i Intent) Valid() bool {
	for _, known := range Intents() {
		if i == known {
			return true
		}
	}
	return false
}

// Operator is a filter predicate.
type Operator string

const (
	OpContains    Operator = "contains"
	OpEquals      Operator = "equals"
	OpStartsWith  Operator = "starts_with"
	OpEndsWith    Operator = "ends_with"
	OpMonth       Operator = "month"
	OpYear        Operator = "year"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpIsEmpty     Operator = "is_empty"
	OpIsNotEmpty  Operator = "is_not_empty"
)

// Operators lists every valid operator in prompt order.
func Operators() []Operator {
	return []Operator{
		OpContains, OpEquals, OpStartsWith, OpEndsWith, OpMonth, OpYear,
		OpGreaterThan, OpLessThan, OpIsEmpty, OpIsNotEmpty,
	}
}

// Valid reports whether o is a known operator.
func (o Operator) Valid() bool {
	for _, known := range Operators() {
		if o == known {
			return true
		}
	}
	return false
}

// NeedsValue reports whether the operator compares against a value.
func (o Operator) NeedsValue() bool {
	return o != OpIsEmpty && o != OpIsNotEmpty
}

// Filter is one predicate. Field is a semantic or literal column name;
// the executor resolves it against the dataset headers.
type Filter struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value,omitempty"`
}

// Plan is a structured question.
type Plan struct {
	Filters []Filter `json:"filters"`
	Fields  []string `json:"fields"`
	Intent  Intent   `json:"intent"`
}

// ListAll is the safe default plan: every record.
func ListAll() Plan {
	return Plan{Filters: []Filter{}, Fields: []string{}, Intent: IntentListAll}
}

// ============================================================================
// RESULT
// ============================================================================

// Result is the executor's output.
type Result struct {
	Records     []dataset.Record             `json:"-"`
	Total       int                          `json:"total"`
	Description string                       `json:"description"`
	Duration    time.Duration                `json:"duration"`
	Plan        Plan                         `json:"plan"`    // applied filters, resolved to real columns
	Dropped     []Filter                     `json:"dropped"` // unresolved filters, never shown to users
	Fields      []string                     `json:"fields"`  // resolved plan fields
	Headers     []string                     `json:"headers"`
	Kinds       map[string]schema.ColumnKind `json:"-"`
}

// Intent returns the applied plan intent.
func (r *Result) Intent() Intent {
	return r.Plan.Intent
}

// Empty reports whether nothing matched.
func (r *Result) Empty() bool {
	return r == nil || r.Total == 0
}
