package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate_Ladder(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-06-15", time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), true},
		{"Jun 15, 2025", time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), true},
		{"6/1/2025", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"15/6/2025", time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), true},
		{"2025/6/15", time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), true},
		{" 6/1/2025 ", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"banana", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestParseDateValue_Serial(t *testing.T) {
	june1 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	got, ok := ParseDateValue(45809.0)
	assert.True(t, ok)
	assert.True(t, june1.Equal(got), "got %v", got)

	got, ok = ParseDateValue("45809")
	assert.True(t, ok)
	assert.True(t, june1.Equal(got), "got %v", got)

	_, ok = ParseDateValue(0.0)
	assert.False(t, ok)
	_, ok = ParseDateValue(500000.0)
	assert.False(t, ok)
	_, ok = ParseDateValue(nil)
	assert.False(t, ok)
}

func TestSplitDate(t *testing.T) {
	parts := SplitDate("6/15/2025")
	assert.True(t, parts.Valid)
	assert.Equal(t, 6, parts.Month)
	assert.Equal(t, 2025, parts.Year)
	assert.Equal(t, "Jun 15, 2025", parts.Formatted)

	bad := SplitDate("not a date")
	assert.False(t, bad.Valid)
	assert.Equal(t, InvalidDate, bad.Formatted)
	assert.Zero(t, bad.Month)
}

func TestMonthNumber(t *testing.T) {
	tests := []struct {
		in   any
		want int
		ok   bool
	}{
		{"June", 6, true},
		{"sept", 9, true},
		{"6", 6, true},
		{6, 6, true},
		{6.0, 6, true},
		{6.5, 0, false},
		{"13", 0, false},
		{"someday", 0, false},
	}
	for _, tt := range tests {
		got, ok := MonthNumber(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, "%v", tt.in)
		}
	}
}
