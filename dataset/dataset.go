package dataset

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/tabula/schema"
)

// ============================================================================
// SNAPSHOT — one loaded dataset with its metadata and indexes
// ============================================================================
// A Snapshot is built once per load and never mutated. Replacing the data
// means building a new Snapshot and swapping the pointer; queries in flight
// keep the one they started with.
// ============================================================================

// Snapshot is the immutable context every query runs against.
type Snapshot struct {
	ID       string
	Name     string
	LoadedAt time.Time
	Headers  []string
	Kinds    map[string]schema.ColumnKind
	Records  []Record
	Schema   schema.Config
	Index    *Index
	Resolver *Resolver
}

// Build normalizes header + rows and computes column metadata and the
// keyword index. Columns are analyzed concurrently.
func Build(ctx context.Context, name string, header []string, rows []RawRow, limits schema.Limits) (*Snapshot, error) {
	table := Normalize(header, rows)

	metas := make([]schema.ColumnMeta, len(table.Headers))
	tokenSets := make([]map[string]bool, len(table.Headers))

	g, gctx := errgroup.WithContext(ctx)
	for i, h := range table.Headers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			metas[i] = schema.Analyze(h, table.Kinds[h], columnValues(table.Records, h), limits)
			if metas[i].Searchable {
				tokenSets[i] = columnTokens(table.Records, h)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sets := make(map[string]map[string]bool, len(table.Headers))
	for i, h := range table.Headers {
		if tokenSets[i] != nil {
			sets[h] = tokenSets[i]
		}
	}

	return &Snapshot{
		ID:       uuid.NewString(),
		Name:     name,
		LoadedAt: time.Now(),
		Headers:  table.Headers,
		Kinds:    table.Kinds,
		Records:  table.Records,
		Schema: schema.Config{
			Name:         name,
			RowCount:     len(table.Records),
			Columns:      metas,
			DiscoveredAt: schema.DiscoveredNow(),
		},
		Index:    mergeIndex(sets),
		Resolver: NewResolver(table.Headers),
	}, nil
}

// columnValues returns the non-empty textual values of one column in row order.
func columnValues(records []Record, column string) []string {
	values := make([]string, 0, len(records))
	for _, rec := range records {
		if text := rec.Text(column); text != "" {
			values = append(values, text)
		}
	}
	return values
}

// Len returns the number of records.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Search runs a keyword search over the snapshot.
func (s *Snapshot) Search(question string) Hits {
	if s == nil {
		return Hits{}
	}
	return Search(s.Index, s.Records, s.Headers, question)
}

// Resolve maps a semantic field name onto this snapshot's headers.
func (s *Snapshot) Resolve(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	return s.Resolver.Resolve(name)
}

// DateColumns returns the headers classified as dates, in header order.
func (s *Snapshot) DateColumns() []string {
	var cols []string
	for _, h := range s.Headers {
		if s.Kinds[h] == schema.KindDate {
			cols = append(cols, h)
		}
	}
	return cols
}

// Distinct returns the sorted distinct non-empty values of a column.
func Distinct(records []Record, column string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range records {
		text := rec.Text(column)
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		out = append(out, text)
	}
	sort.Strings(out)
	return out
}
