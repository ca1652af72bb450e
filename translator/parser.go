package translator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spektr-org/tabula/engine"
	"github.com/spektr-org/tabula/llm"
)

// ============================================================================
// RESPONSE PARSER — model text → validated Plan
// ============================================================================
// Extraction and repair live in llm.DecodeResponse. This file only decides
// whether the decoded structure is a Plan. Any mismatch is a rejection;
// the planner then falls back to the rule table.
// ============================================================================

// ErrInvalidPlan is returned when the decoded JSON is not a usable Plan.
var ErrInvalidPlan = errors.New("translator: invalid plan")

// wirePlan mirrors the JSON contract. Pointers distinguish missing keys.
type wirePlan struct {
	Filters *[]wireFilter `json:"filters"`
	Fields  []string      `json:"fields"`
	Intent  *string       `json:"intent"`
}

type wireFilter struct {
	Field    *string `json:"field"`
	Operator *string `json:"operator"`
	Value    any     `json:"value"`
}

// ParsePlan extracts and validates a Plan from raw model output.
func ParsePlan(raw string) (engine.Plan, error) {
	wire, err := llm.DecodeResponse[wirePlan](raw)
	if err != nil {
		return engine.Plan{}, err
	}
	return validatePlan(wire)
}

func validatePlan(w wirePlan) (engine.Plan, error) {
	if w.Intent == nil {
		return engine.Plan{}, fmt.Errorf("%w: missing intent", ErrInvalidPlan)
	}
	intent := engine.Intent(strings.TrimSpace(*w.Intent))
	if !intent.Valid() {
		return engine.Plan{}, fmt.Errorf("%w: unknown intent %q", ErrInvalidPlan, *w.Intent)
	}
	if w.Filters == nil {
		return engine.Plan{}, fmt.Errorf("%w: missing filters", ErrInvalidPlan)
	}

	plan := engine.Plan{
		Filters: make([]engine.Filter, 0, len(*w.Filters)),
		Fields:  make([]string, 0, len(w.Fields)),
		Intent:  intent,
	}
	for i, f := range *w.Filters {
		if f.Field == nil || strings.TrimSpace(*f.Field) == "" {
			return engine.Plan{}, fmt.Errorf("%w: filter %d has no field", ErrInvalidPlan, i)
		}
		if f.Operator == nil {
			return engine.Plan{}, fmt.Errorf("%w: filter %d has no operator", ErrInvalidPlan, i)
		}
		op := engine.Operator(strings.TrimSpace(*f.Operator))
		if !op.Valid() {
			return engine.Plan{}, fmt.Errorf("%w: filter %d has unknown operator %q", ErrInvalidPlan, i, *f.Operator)
		}
		if op.NeedsValue() && !scalar(f.Value) {
			return engine.Plan{}, fmt.Errorf("%w: filter %d needs a string or number value", ErrInvalidPlan, i)
		}
		plan.Filters = append(plan.Filters, engine.Filter{Field: strings.TrimSpace(*f.Field), Operator: op, Value: f.Value})
	}
	for _, field := range w.Fields {
		if field = strings.TrimSpace(field); field != "" {
			plan.Fields = append(plan.Fields, field)
		}
	}
	return plan, nil
}

func scalar(v any) bool {
	switch v.(type) {
	case string, float64, bool:
		return true
	}
	return false
}
