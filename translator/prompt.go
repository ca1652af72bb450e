package translator

import (
	"fmt"
	"strings"
	"time"

	"github.com/spektr-org/tabula/engine"
	"github.com/spektr-org/tabula/schema"
)

// ============================================================================
// PROMPT BUILDER — Schema-Driven Planning Prompt
// ============================================================================
// The model sees column names, inferred types and a few sample values.
// Never the records themselves. It answers with a Plan as JSON only.
// ============================================================================

// BuildPrompt generates the planning prompt for one question.
func BuildPrompt(sch schema.Config, question string, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You translate questions about a spreadsheet into a structured filter plan.

CURRENT DATE: %s

YOUR ROLE:
Read the question and describe which records answer it. Do NOT answer the question yourself.
A local engine runs the plan against all %d records.

`, now.Format("2006-01-02"), sch.RowCount)

	// ── Columns ───────────────────────────────────────────────────────────
	b.WriteString("COLUMNS:\n")
	for _, col := range sch.Columns {
		fmt.Fprintf(&b, "- %q (%s)", col.Name, col.Type)
		if len(col.SampleValues) > 0 {
			fmt.Fprintf(&b, " — samples: [%s]", strings.Join(quotedValues(col.SampleValues), ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	// ── Vocabulary ────────────────────────────────────────────────────────
	b.WriteString("OPERATORS:\n")
	for _, op := range engine.Operators() {
		fmt.Fprintf(&b, "- %s: %s\n", op, operatorHelp[op])
	}
	b.WriteString("\nINTENTS:\n")
	for _, in := range engine.Intents() {
		fmt.Fprintf(&b, "- %s: %s\n", in, intentHelp[in])
	}

	// ── Contract ──────────────────────────────────────────────────────────
	b.WriteString(`
RESPONSE FORMAT (JSON only, no markdown, no explanation):
{
  "filters": [{"field": "<column name>", "operator": "<operator>", "value": <string or number>}],
  "fields": ["<column name>"],
  "intent": "<intent>"
}

RULES:
- Use exact column names from COLUMNS.
- All filters are combined with AND. There is no OR and no NOT.
- "month" takes 1-12, "year" takes a four-digit year.
- "is_empty" and "is_not_empty" take no value.
- Use an empty filters list to select every record.
- "fields" lists the columns the answer is about (required for unique_values, may be empty otherwise).
- Output exactly one JSON object with exactly the keys filters, fields, intent.

`)

	fmt.Fprintf(&b, "QUESTION: %s\n\nRespond with valid JSON only:", question)
	return b.String()
}

var operatorHelp = map[engine.Operator]string{
	engine.OpContains:    "text contains value (case-insensitive)",
	engine.OpEquals:      "text equals value (case-insensitive); on date columns, same calendar day",
	engine.OpStartsWith:  "text starts with value",
	engine.OpEndsWith:    "text ends with value",
	engine.OpMonth:       "date column falls in month value (1-12)",
	engine.OpYear:        "date column falls in year value",
	engine.OpGreaterThan: "number or date is greater than value",
	engine.OpLessThan:    "number or date is less than value",
	engine.OpIsEmpty:     "cell is empty",
	engine.OpIsNotEmpty:  "cell is not empty",
}

var intentHelp = map[engine.Intent]string{
	engine.IntentCount:        "how many records match",
	engine.IntentList:         "show the matching records",
	engine.IntentListAll:      "show every record",
	engine.IntentLastAction:   "the most recent matching record",
	engine.IntentDetails:      "full details of specific records",
	engine.IntentUniqueValues: "distinct values of the columns in fields",
}

func quotedValues(vals []string) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = fmt.Sprintf("%q", v)
	}
	return out
}
