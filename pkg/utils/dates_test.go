package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDate(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	in := time.Date(2024, 3, 15, 23, 30, 0, 0, jakarta)

	got := ToDate(in)
	assert.Equal(t, Date(2024, 3, 15), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestParseAndFormatDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, Date(2024, 2, 29), d)
	assert.Equal(t, "2024-02-29", FormatDate(d))

	_, err = ParseDate("29/02/2024")
	assert.Error(t, err)
}

func TestIsDateOverdue(t *testing.T) {
	due := Date(2024, 1, 10)

	tests := []struct {
		name     string
		asOf     time.Time
		expected bool
	}{
		{"day before due", Date(2024, 1, 9), false},
		{"on due date", time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC), false},
		{"day after due", Date(2024, 1, 11), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsDateOverdue(due, tt.asOf))
		})
	}
}

func TestMinMaxDate(t *testing.T) {
	a, b := Date(2024, 1, 1), Date(2024, 2, 1)
	assert.Equal(t, a, MinDate(a, b))
	assert.Equal(t, b, MaxDate(a, b))
}
