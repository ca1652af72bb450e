package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/tabula/dataset"
	"github.com/spektr-org/tabula/schema"
)

func testSnapshot(t *testing.T, header []string, rows []dataset.RawRow) *dataset.Snapshot {
	t.Helper()
	snap, err := dataset.Build(context.Background(), "test", header, rows, schema.DefaultLimits())
	require.NoError(t, err)
	return snap
}

func streetSnapshot(t *testing.T) *dataset.Snapshot {
	return testSnapshot(t,
		[]string{"Location", "Date", "Action"},
		[]dataset.RawRow{
			{"A St", "6/1/2025", "Fixed leak"},
			{"B St", "6/15/2025", "Changed filter"},
		})
}

func maintenanceSnapshot(t *testing.T) *dataset.Snapshot {
	return testSnapshot(t,
		[]string{"MMT No", "Location", "Report Date", "Action Taken", "Cost"},
		[]dataset.RawRow{
			{"MMT-1", "Pump House", "2025-05-03", "Replaced seal", "120"},
			{"MMT-2", "Pump House", "2025-06-20", "Cleaned strainer", "40"},
			{"MMT-3", "Tank Farm", "2025-06-02", "Painted rails", "300"},
			{"MMT-4", "Pump House", "bad date", "Checked level", ""},
			{"MMT-5", "Gate", "2024-12-31", "", "15.5"},
		})
}

func TestExecute_EmptyFilterReturnsAll(t *testing.T) {
	snap := maintenanceSnapshot(t)

	for _, intent := range []Intent{IntentList, IntentListAll, IntentCount, IntentDetails, IntentUniqueValues} {
		result, err := Execute(snap, Plan{Intent: intent})
		require.NoError(t, err)
		assert.Equal(t, snap.Len(), result.Total, intent)
		assert.Len(t, result.Records, snap.Len(), intent)
	}
}

func TestExecute_MonthScenario(t *testing.T) {
	snap := streetSnapshot(t)

	result, err := Execute(snap, Plan{
		Filters: []Filter{{Field: "Date", Operator: OpMonth, Value: 6}},
		Intent:  IntentCount,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
}

func TestExecute_EqualsIsCaseInsensitive(t *testing.T) {
	snap := streetSnapshot(t)

	upper, err := Execute(snap, Plan{Filters: []Filter{{Field: "Location", Operator: OpEquals, Value: "A St"}}, Intent: IntentList})
	require.NoError(t, err)
	lower, err := Execute(snap, Plan{Filters: []Filter{{Field: "Location", Operator: OpEquals, Value: "a st"}}, Intent: IntentList})
	require.NoError(t, err)

	assert.Equal(t, 1, lower.Total)
	assert.Equal(t, "A St", lower.Records[0]["Location"])
	assert.Equal(t, upper.Records, lower.Records)
}

func TestExecute_DateFiltersNeverMatchInvalidDates(t *testing.T) {
	snap := maintenanceSnapshot(t)

	for _, f := range []Filter{
		{Field: "Date", Operator: OpMonth, Value: "June"},
		{Field: "Date", Operator: OpYear, Value: 2025},
		{Field: "Date", Operator: OpMonth, Value: "6"},
	} {
		result, err := Execute(snap, Plan{Filters: []Filter{f}, Intent: IntentList})
		require.NoError(t, err)
		for _, rec := range result.Records {
			assert.NotEqual(t, "MMT-4", rec["MMT No"], "invalid date matched %v", f)
		}
	}

	june, err := Execute(snap, Plan{Filters: []Filter{{Field: "Date", Operator: OpMonth, Value: "jun"}}})
	require.NoError(t, err)
	assert.Equal(t, 2, june.Total)

	y2025, err := Execute(snap, Plan{Filters: []Filter{{Field: "Date", Operator: OpYear, Value: "2025"}}})
	require.NoError(t, err)
	assert.Equal(t, 3, y2025.Total)
}

func TestExecute_DroppedFilters(t *testing.T) {
	snap := streetSnapshot(t)

	result, err := Execute(snap, Plan{
		Filters: []Filter{
			{Field: "Priority", Operator: OpEquals, Value: "high"},
			{Field: "Location", Operator: OpContains, Value: "b"},
		},
		Intent: IntentList,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Dropped, 1)
	assert.Equal(t, "Priority", result.Dropped[0].Field)
	assert.Equal(t, `Location contains "b"`, result.Description)
}

func TestExecute_LastAction(t *testing.T) {
	snap := maintenanceSnapshot(t)

	result, err := Execute(snap, Plan{
		Filters: []Filter{{Field: "Location", Operator: OpContains, Value: "pump"}},
		Intent:  IntentLastAction,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "MMT-2", result.Records[0]["MMT No"])
}

func TestExecute_DoesNotMutateSnapshot(t *testing.T) {
	snap := maintenanceSnapshot(t)
	before := make([]string, snap.Len())
	for i, rec := range snap.Records {
		before[i] = rec.Text("MMT No")
	}

	_, err := Execute(snap, Plan{Intent: IntentLastAction})
	require.NoError(t, err)

	for i, rec := range snap.Records {
		assert.Equal(t, before[i], rec.Text("MMT No"))
	}
}

func TestExecute_ResolvesFields(t *testing.T) {
	snap := maintenanceSnapshot(t)

	result, err := Execute(snap, Plan{Fields: []string{"Action", "Nope"}, Intent: IntentUniqueValues})

	require.NoError(t, err)
	assert.Equal(t, []string{"Action Taken"}, result.Fields)
}

func TestExecute_NoSnapshot(t *testing.T) {
	_, err := Execute(nil, ListAll())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestExecute_InvalidIntentFallsBackToListAll(t *testing.T) {
	snap := streetSnapshot(t)

	result, err := Execute(snap, Plan{Intent: "chart"})

	require.NoError(t, err)
	assert.Equal(t, IntentListAll, result.Intent())
}

func TestFromRecords(t *testing.T) {
	snap := maintenanceSnapshot(t)

	result := FromRecords(snap, snap.Records[:3], IntentLastAction, "keyword match")

	assert.Equal(t, 3, result.Total)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "MMT-2", result.Records[0]["MMT No"])
}

func TestNarrow(t *testing.T) {
	snap := maintenanceSnapshot(t)
	pumpHouse := []dataset.Record{snap.Records[0], snap.Records[1], snap.Records[3]}

	got, applied := Narrow(snap, pumpHouse, []Filter{{Field: dataset.FieldDate, Operator: OpMonth, Value: 6}})

	require.Len(t, got, 1)
	assert.Equal(t, "MMT-2", got[0]["MMT No"])
	assert.Equal(t, []Filter{{Field: "Report Date", Operator: OpMonth, Value: 6}}, applied)

	got, applied = Narrow(snap, pumpHouse, []Filter{{Field: "Nope", Operator: OpMonth, Value: 6}})
	assert.Len(t, got, 3)
	assert.Empty(t, applied)

	got, applied = Narrow(snap, pumpHouse, nil)
	assert.Len(t, got, 3)
	assert.Empty(t, applied)
}
