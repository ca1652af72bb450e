package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestClassifyHeader(t *testing.T) {
	tests := map[string]ColumnKind{
		"Report Date":        KindDate,
		"Timestamp":          KindDate,
		"Start Time":         KindDate,
		"Time Spent (hours)": KindPlain,
		"MMT No":             KindIdentifier,
		"Ticket":             KindIdentifier,
		"Location":           KindFreeText,
		"Action Taken":       KindFreeText,
		"Cost":               KindPlain,
		"ReportDate":         KindDate,
		"created_date":       KindDate,
		"Dated":              KindDate,
		"Last Updated By":    KindPlain,
		"Update Status":      KindPlain,
		"Candidate":          KindPlain,
	}
	for header, want := range tests {
		assert.Equal(t, want, ClassifyHeader(header), header)
	}
}

func TestDetectType(t *testing.T) {
	assert.Equal(t, TypeString, DetectType(nil))
	assert.Equal(t, TypeNumber, DetectType([]string{"1", "2", "x"}))
	assert.Equal(t, TypeBoolean, DetectType([]string{"yes", "no", "Yes"}))
	assert.Equal(t, TypeDate, DetectType([]string{"2025-06-01", "2025-06-02"}))
	assert.Equal(t, TypeString, DetectType([]string{"a", "b", "1"}))
}

func TestAnalyze(t *testing.T) {
	limits := Limits{MaxNumericDistinct: 1, MaxStringDistinct: 1}

	got := Analyze("Cost", KindPlain, []string{"7", "5", "5"}, limits)
	want := ColumnMeta{
		Name:         "Cost",
		Type:         TypeNumber,
		Kind:         KindPlain,
		UniqueCount:  2,
		SampleValues: []string{"5", "7"},
		Searchable:   false,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Analyze() mismatch (-want +got):\n%s", diff)
	}

	loc := Analyze("Location", KindFreeText, []string{"a", "b", "c"}, limits)
	assert.True(t, loc.Searchable)

	date := Analyze("Report Date", KindDate, []string{"whenever"}, limits)
	assert.Equal(t, TypeDate, date.Type)
	assert.True(t, date.Searchable)
}

func TestAnalyze_SampleCap(t *testing.T) {
	meta := Analyze("Code", KindPlain, []string{"g", "f", "e", "d", "c", "b", "a"}, DefaultLimits())
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, meta.SampleValues)
	assert.Equal(t, 7, meta.UniqueCount)
}

func TestIsNumeric(t *testing.T) {
	assert.True(t, IsNumeric("12"))
	assert.True(t, IsNumeric(" -3.5 "))
	assert.False(t, IsNumeric(""))
	assert.False(t, IsNumeric("12 units"))
	assert.False(t, AllNumeric(nil))
	assert.True(t, AllNumeric([]string{"1", "2"}))
}
