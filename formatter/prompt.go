package formatter

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/spektr-org/tabula/engine"
)

// ============================================================================
// PROMPT BUILDER — Answer Phrasing Prompt
// ============================================================================
// The model gets the question, the applied filters, the authoritative total
// and a prefix of the matched records (original columns only).
// ============================================================================

// BuildPrompt generates the answer prompt for one executed question.
func BuildPrompt(question string, result *engine.Result, maxRecords int) string {
	var b strings.Builder

	b.WriteString(`You answer questions about spreadsheet records. The records below were already selected by a local engine.

`)
	fmt.Fprintf(&b, "QUESTION: %s\n", question)
	fmt.Fprintf(&b, "FILTERS APPLIED: %s\n", result.Description)
	fmt.Fprintf(&b, "INTENT: %s\n", result.Intent())
	fmt.Fprintf(&b, "TOTAL MATCHING RECORDS: %d\n", result.Total)

	rows := engine.OriginalRows(result, maxRecords)
	if len(rows) < len(result.Records) {
		fmt.Fprintf(&b, "RECORDS SHOWN: first %d of %d\n", len(rows), len(result.Records))
	}

	b.WriteString("\nRECORDS:\n")
	for i, row := range rows {
		cells := lo.FilterMap(result.Headers, func(h string, _ int) (string, bool) {
			v := row[h]
			return fmt.Sprintf("%s: %s", h, v), v != ""
		})
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.Join(cells, " | "))
	}

	if result.Intent() == engine.IntentUniqueValues {
		b.WriteString("\nDISTINCT VALUES:\n")
		view := engine.NewSliceView(result.Records)
		for _, col := range result.Fields {
			values := engine.UniqueValues(view, col)
			fmt.Fprintf(&b, "- %s (%d): %s\n", col, len(values), strings.Join(lo.Slice(values, 0, maxRecords), ", "))
		}
	}

	b.WriteString(`
RESPONSE FORMAT (JSON only, no markdown, no text outside the object):
{"answer": "<answer for the user>", "source": "<which records or columns the answer is based on>"}

RULES:
- Answer only from the records above. Never invent records or values.
- TOTAL MATCHING RECORDS is authoritative for counts, even when fewer records are shown.
- Keep the answer short and plain. Mention dates as they appear in the records.
- If the records do not answer the question, say so in "answer".
- Output exactly one JSON object with exactly the keys answer and source.

Respond with valid JSON only:`)
	return b.String()
}
