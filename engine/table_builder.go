package engine

import (
	"strings"

	"github.com/spektr-org/tabula/dataset"
	"github.com/spektr-org/tabula/schema"
)

// ============================================================================
// TABLE BUILDER — Record blocks for rendering
// ============================================================================
// A Block is one record as ordered label/value pairs over the original
// columns only. Shadow fields never appear. Date columns show their
// formatted value when parsing succeeded.
// ============================================================================

// Block is one rendered record.
type Block struct {
	Number int          `json:"number"`
	Fields []BlockField `json:"fields"`
}

// BlockField is one label/value pair.
type BlockField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// BuildBlocks renders up to limit records of a result (limit <= 0 = all).
// Empty cells are skipped.
func BuildBlocks(result *Result, limit int) []Block {
	if result == nil {
		return nil
	}
	n := len(result.Records)
	if limit > 0 && n > limit {
		n = limit
	}

	blocks := make([]Block, 0, n)
	for i := 0; i < n; i++ {
		rec := result.Records[i]
		block := Block{Number: i + 1}
		for _, h := range result.Headers {
			val := DisplayValue(rec, h, result.Kinds[h])
			if val == "" {
				continue
			}
			block.Fields = append(block.Fields, BlockField{Label: h, Value: val})
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// DisplayValue is the user-facing text of one cell.
func DisplayValue(rec dataset.Record, column string, kind schema.ColumnKind) string {
	if kind == schema.KindDate {
		if f, ok := rec[column+dataset.SuffixFormatted].(string); ok && f != schema.InvalidDate {
			return f
		}
	}
	return strings.TrimSpace(rec.Text(column))
}

// OriginalRows returns the records restricted to the original columns,
// in display form. Used for prompts.
func OriginalRows(result *Result, limit int) []map[string]string {
	if result == nil {
		return nil
	}
	n := len(result.Records)
	if limit > 0 && n > limit {
		n = limit
	}
	rows := make([]map[string]string, 0, n)
	for i := 0; i < n; i++ {
		row := make(map[string]string, len(result.Headers))
		for _, h := range result.Headers {
			row[h] = DisplayValue(result.Records[i], h, result.Kinds[h])
		}
		rows = append(rows, row)
	}
	return rows
}
