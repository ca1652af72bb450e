package formatter

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/spektr-org/tabula/engine"
)

// ============================================================================
// MANUAL RENDERER — deterministic answers without the model
// ============================================================================
//   empty          → zero-count answer + refinement suggestions
//   count          → one line
//   last_action    → one record block
//   unique_values  → value list per column (or a distinct count)
//   everything else → record blocks, previewed when the list is long
// ============================================================================

var suggestions = []string{
	"use fewer or broader words",
	"check the spelling of names and locations",
	"try a different month or year",
	"ask to list all records to see what is available",
}

// Render produces an answer without calling the model.
func Render(result *engine.Result, cfg Config) string {
	cfg = cfg.withDefaults()
	if result.Empty() {
		return renderEmpty(result)
	}

	switch result.Intent() {
	case engine.IntentCount:
		return renderCount(result)
	case engine.IntentLastAction:
		return renderLastAction(result)
	case engine.IntentUniqueValues:
		if len(result.Fields) > 0 {
			return renderUnique(result, cfg.UniqueLimit)
		}
	}
	return renderList(result, cfg)
}

func renderEmpty(result *engine.Result) string {
	var b strings.Builder
	b.WriteString("Found 0 records")
	if result != nil && result.Description != "" && result.Description != "all records" {
		fmt.Fprintf(&b, " matching %s", result.Description)
	}
	b.WriteString(".\n\nTo refine your question you could:\n")
	for _, s := range suggestions {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderCount(result *engine.Result) string {
	return headline(result) + "."
}

func renderLastAction(result *engine.Result) string {
	blocks := engine.BuildBlocks(result, 1)
	var b strings.Builder
	b.WriteString("Most recent record")
	if result.Total > 1 {
		fmt.Fprintf(&b, " (latest of %s)", engine.FormatInt(result.Total))
	}
	b.WriteString(":\n")
	writeBlock(&b, blocks[0])
	return strings.TrimRight(b.String(), "\n")
}

func renderUnique(result *engine.Result, limit int) string {
	view := engine.NewSliceView(result.Records)
	sections := lo.Map(result.Fields, func(col string, _ int) string {
		values := engine.UniqueValues(view, col)
		n := len(values)
		if n > limit {
			return fmt.Sprintf("%s has %s distinct %s.", col, engine.FormatInt(n), engine.Plural(n, "value", "values"))
		}
		lines := lo.Map(values, func(v string, _ int) string { return "- " + v })
		return fmt.Sprintf("%s (%d distinct):\n%s", col, n, strings.Join(lines, "\n"))
	})
	return strings.Join(sections, "\n\n")
}

func renderList(result *engine.Result, cfg Config) string {
	n := len(result.Records)
	limit := 0
	if n > cfg.FullListLimit {
		limit = cfg.PreviewCount
	}
	blocks := engine.BuildBlocks(result, limit)

	var b strings.Builder
	b.WriteString(headline(result))
	b.WriteString(":\n\n")
	for _, block := range blocks {
		writeBlock(&b, block)
		b.WriteString("\n")
	}
	if rest := n - len(blocks); rest > 0 {
		fmt.Fprintf(&b, "+%s more %s.", engine.FormatInt(rest), engine.Plural(rest, "record", "records"))
	}
	return strings.TrimRight(b.String(), "\n")
}

// headline is "Found 3 records matching Location contains "b"".
func headline(result *engine.Result) string {
	line := fmt.Sprintf("Found %s %s", engine.FormatInt(result.Total), engine.Plural(result.Total, "record", "records"))
	if result.Description != "" && result.Description != "all records" {
		line += " matching " + result.Description
	}
	return line
}

func writeBlock(b *strings.Builder, block engine.Block) {
	fmt.Fprintf(b, "Record %d:\n", block.Number)
	for _, f := range block.Fields {
		fmt.Fprintf(b, "  %s: %s\n", f.Label, f.Value)
	}
}
