package schema

import "strings"

// ============================================================================
// SCHEMA — Describes the shape of a loaded spreadsheet
// ============================================================================
// Computed once per load from the normalized records.
// The translator uses it to build the planning prompt (column names, types,
// samples). The dataset package uses the column kinds to decide which shadow
// fields to derive and which columns to index.
// ============================================================================

// ColumnType is the inferred value type of a column.
type ColumnType string

const (
	TypeString  ColumnType = "string"
	TypeNumber  ColumnType = "number"
	TypeDate    ColumnType = "date"
	TypeBoolean ColumnType = "boolean"
)

// ColumnKind is the header-name classification that drives normalization.
type ColumnKind string

const (
	KindDate       ColumnKind = "date"
	KindIdentifier ColumnKind = "identifier"
	KindFreeText   ColumnKind = "free_text"
	KindPlain      ColumnKind = "plain"
)

// MaxSamples is the number of sample values kept per column.
const MaxSamples = 5

// Config describes the complete shape of a loaded dataset.
type Config struct {
	Name         string       `json:"name"`
	RowCount     int          `json:"rowCount"`
	Columns      []ColumnMeta `json:"columns"`
	DiscoveredAt string       `json:"discoveredAt,omitempty"`
}

// ColumnMeta describes one original column.
type ColumnMeta struct {
	Name         string     `json:"name"`
	Type         ColumnType `json:"type"`
	Kind         ColumnKind `json:"kind"`
	UniqueCount  int        `json:"uniqueCount"`
	SampleValues []string   `json:"sampleValues"`
	Searchable   bool       `json:"searchable"`
}

// ColumnNames returns the original column names in header order.
func (c Config) ColumnNames() []string {
	names := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		names[i] = col.Name
	}
	return names
}

// Column looks up a column by case-insensitive name.
func (c Config) Column(name string) (ColumnMeta, bool) {
	for _, col := range c.Columns {
		if strings.EqualFold(col.Name, name) {
			return col, true
		}
	}
	return ColumnMeta{}, false
}

// SearchableColumns returns the names of columns flagged for keyword indexing.
func (c Config) SearchableColumns() []string {
	var names []string
	for _, col := range c.Columns {
		if col.Searchable {
			names = append(names, col.Name)
		}
	}
	return names
}
