package engine

import (
	"errors"

	"github.com/spektr-org/tabula/dataset"
)

// ============================================================================
// EXECUTOR — Plan → Result
// ============================================================================
// Entry point: Execute(snapshot, plan, opts...)
//
// Pipeline:
//   1. Resolve filter fields against the snapshot headers (unresolved → dropped)
//   2. Apply filters → SubView
//   3. Intent post-processing (last_action: newest first, keep one)
//   4. Return Result
//
// This function never calls an AI service and never mutates the snapshot.
// ============================================================================

// ErrNoSnapshot is returned when Execute is called without a dataset.
var ErrNoSnapshot = errors.New("engine: no dataset loaded")

// Execute runs a Plan against a snapshot.
func Execute(snap *dataset.Snapshot, plan Plan, opts ...Option) (*Result, error) {
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	cfg := applyOptions(opts)
	start := cfg.now()

	if !plan.Intent.Valid() {
		plan.Intent = IntentListAll
	}

	bound, applied, dropped := bindFilters(snap, plan.Filters)
	for _, f := range dropped {
		cfg.logger.Debug().
			Str("field", f.Field).
			Str("operator", string(f.Operator)).
			Msg("filter dropped: field not resolved")
	}

	view := NewSliceView(snap.Records)
	filtered := applyFilters(view, bound)
	total := filtered.Len()

	if plan.Intent == IntentLastAction && filtered.Len() > 1 {
		sorted := SortLatestFirst(filtered, dateColumns(snap))
		filtered = newSubView(sorted, []int{0})
	}

	fields := make([]string, 0, len(plan.Fields))
	for _, name := range plan.Fields {
		if col, ok := snap.Resolve(name); ok {
			fields = append(fields, col)
		}
	}

	result := &Result{
		Records:     Collect(filtered),
		Total:       total,
		Description: Describe(applied),
		Plan:        Plan{Filters: applied, Fields: fields, Intent: plan.Intent},
		Dropped:     dropped,
		Fields:      fields,
		Headers:     snap.Headers,
		Kinds:       snap.Kinds,
	}
	result.Duration = cfg.now().Sub(start)

	cfg.logger.Debug().
		Str("intent", string(plan.Intent)).
		Int("matched", total).
		Int("records", snap.Len()).
		Dur("duration", result.Duration).
		Msg("plan executed")

	return result, nil
}

// FromRecords wraps records found outside the planner (keyword search) as
// a Result so they flow through the same formatter.
func FromRecords(snap *dataset.Snapshot, records []dataset.Record, intent Intent, description string) *Result {
	if !intent.Valid() {
		intent = IntentList
	}
	view := NewSliceView(records)
	total := view.Len()
	if intent == IntentLastAction && total > 1 {
		view = newSubView(SortLatestFirst(view, dateColumns(snap)), []int{0})
	}
	return &Result{
		Records:     Collect(view),
		Total:       total,
		Description: description,
		Plan:        Plan{Filters: []Filter{}, Fields: []string{}, Intent: intent},
		Headers:     snap.Headers,
		Kinds:       snap.Kinds,
	}
}

// Narrow keeps the records that pass every filter. Filters whose field does
// not resolve are ignored; the applied ones are returned for describing.
func Narrow(snap *dataset.Snapshot, records []dataset.Record, filters []Filter) ([]dataset.Record, []Filter) {
	if snap == nil || len(filters) == 0 {
		return records, nil
	}
	bound, applied, _ := bindFilters(snap, filters)
	if len(bound) == 0 {
		return records, nil
	}
	return Collect(applyFilters(NewSliceView(records), bound)), applied
}

// bindFilters resolves filter fields. Filters with an unknown operator or
// an unresolved field are dropped.
func bindFilters(snap *dataset.Snapshot, filters []Filter) ([]boundFilter, []Filter, []Filter) {
	var bound []boundFilter
	applied := make([]Filter, 0, len(filters))
	var dropped []Filter

	for _, f := range filters {
		col, ok := snap.Resolve(f.Field)
		if !ok || !f.Operator.Valid() {
			dropped = append(dropped, f)
			continue
		}
		resolved := Filter{Field: col, Operator: f.Operator, Value: f.Value}
		bound = append(bound, boundFilter{Filter: resolved, column: col, kind: snap.Kinds[col]})
		applied = append(applied, resolved)
	}
	return bound, applied, dropped
}
