package engine

import "github.com/spektr-org/tabula/dataset"

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access
// ============================================================================
// The executor never copies the dataset. Filtering produces a SubView
// holding indices into the parent; only the final result materializes a
// []dataset.Record slice (sharing the underlying maps).
//
// Implementations:
//   SliceView — wraps the snapshot's []dataset.Record
//   SubView   — filtered subset (indices into parent)
// ============================================================================

// RecordView provides indexed read access to records.
type RecordView interface {
	Len() int
	Record(index int) dataset.Record
}

// SliceView wraps a record slice as a RecordView.
type SliceView struct {
	records []dataset.Record
}

// NewSliceView creates a RecordView over records.
func NewSliceView(records []dataset.Record) RecordView {
	return &SliceView{records: records}
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) Record(i int) dataset.Record {
	if i < 0 || i >= len(v.records) {
		return nil
	}
	return v.records[i]
}

// SubView is a filtered subset of a parent RecordView.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) RecordView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Record(i int) dataset.Record {
	if i < 0 || i >= len(v.indices) {
		return nil
	}
	return v.parent.Record(v.indices[i])
}

// Collect materializes a view into a new slice. The records themselves are
// shared with the snapshot and must not be mutated.
func Collect(view RecordView) []dataset.Record {
	out := make([]dataset.Record, view.Len())
	for i := range out {
		out[i] = view.Record(i)
	}
	return out
}
