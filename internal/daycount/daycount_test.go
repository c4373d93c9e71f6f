package daycount

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

func TestAddPeriods(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		freq     domain.FrequencyType
		n        int
		expected time.Time
	}{
		{"days", utils.Date(2024, 1, 1), domain.FrequencyDays, 10, utils.Date(2024, 1, 11)},
		{"weeks", utils.Date(2024, 1, 1), domain.FrequencyWeeks, 3, utils.Date(2024, 1, 22)},
		{"month end clamps in leap year", utils.Date(2024, 1, 31), domain.FrequencyMonths, 1, utils.Date(2024, 2, 29)},
		{"month end clamps", utils.Date(2023, 1, 31), domain.FrequencyMonths, 1, utils.Date(2023, 2, 28)},
		{"two months keeps day", utils.Date(2024, 1, 31), domain.FrequencyMonths, 2, utils.Date(2024, 3, 31)},
		{"leap day plus a year", utils.Date(2024, 2, 29), domain.FrequencyYears, 1, utils.Date(2025, 2, 28)},
		{"negative months", utils.Date(2024, 3, 31), domain.FrequencyMonths, -1, utils.Date(2024, 2, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AddPeriods(tt.start, tt.freq, tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestAddPeriodsRejectsUnknownFrequency(t *testing.T) {
	_, err := AddPeriods(utils.Date(2024, 1, 1), domain.FrequencyType("FORTNIGHTS"), 1)
	assert.Error(t, err)
}

func TestMonthsBetween(t *testing.T) {
	assert.Equal(t, 1, MonthsBetween(utils.Date(2024, 1, 31), utils.Date(2024, 2, 29)))
	assert.Equal(t, 0, MonthsBetween(utils.Date(2024, 1, 31), utils.Date(2024, 2, 28)))
	assert.Equal(t, 2, MonthsBetween(utils.Date(2024, 1, 15), utils.Date(2024, 4, 14)))
	assert.Equal(t, 3, MonthsBetween(utils.Date(2024, 1, 15), utils.Date(2024, 4, 15)))
	assert.Equal(t, -3, MonthsBetween(utils.Date(2024, 4, 15), utils.Date(2024, 1, 15)))
}

func TestUnitsBetween(t *testing.T) {
	weeks, err := UnitsBetween(domain.FrequencyWeeks, utils.Date(2024, 1, 1), utils.Date(2024, 1, 22))
	require.NoError(t, err)
	assert.Equal(t, 3, weeks)

	weeks, err = UnitsBetween(domain.FrequencyWeeks, utils.Date(2024, 1, 1), utils.Date(2024, 1, 11))
	require.NoError(t, err)
	assert.Equal(t, 1, weeks)

	years, err := UnitsBetween(domain.FrequencyYears, utils.Date(2020, 6, 1), utils.Date(2024, 5, 31))
	require.NoError(t, err)
	assert.Equal(t, 3, years)

	assert.Equal(t, 60, DaysBetween(utils.Date(2024, 1, 1), utils.Date(2024, 3, 1)))
}

func TestPeriodFraction(t *testing.T) {
	whole, err := PeriodFraction(domain.FrequencyMonths, 1, utils.Date(2024, 1, 1), utils.Date(2024, 4, 1))
	require.NoError(t, err)
	assert.True(t, whole.Equal(decimal.NewFromInt(3)), "got %s", whole)

	partial, err := PeriodFraction(domain.FrequencyMonths, 1, utils.Date(2024, 1, 1), utils.Date(2024, 2, 16))
	require.NoError(t, err)
	expected := decimal.NewFromInt(1).Add(decimal.NewFromInt(15).Div(decimal.NewFromInt(29)))
	assert.True(t, partial.Equal(expected), "expected %s, got %s", expected, partial)

	_, err = PeriodFraction(domain.FrequencyMonths, 0, utils.Date(2024, 1, 1), utils.Date(2024, 2, 1))
	assert.Error(t, err)
}

func TestNthWeekdayOfMonth(t *testing.T) {
	tests := []struct {
		name     string
		month    time.Time
		nth      int
		weekday  time.Weekday
		expected time.Time
	}{
		{"second tuesday", utils.Date(2024, 3, 20), 2, time.Tuesday, utils.Date(2024, 3, 12)},
		{"first friday is the 1st", utils.Date(2024, 3, 20), 1, time.Friday, utils.Date(2024, 3, 1)},
		{"fifth friday exists", utils.Date(2024, 3, 2), 5, time.Friday, utils.Date(2024, 3, 29)},
		{"fifth monday falls back to last", utils.Date(2024, 2, 10), 5, time.Monday, utils.Date(2024, 2, 26)},
		{"last friday", utils.Date(2024, 3, 2), LastWeekOfMonth, time.Friday, utils.Date(2024, 3, 29)},
		{"last sunday on month end", utils.Date(2024, 3, 2), LastWeekOfMonth, time.Sunday, utils.Date(2024, 3, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NthWeekdayOfMonth(tt.month, tt.nth, tt.weekday)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := NthWeekdayOfMonth(utils.Date(2024, 3, 1), 6, time.Monday)
	assert.Error(t, err)
}

func TestDays30(t *testing.T) {
	tests := []struct {
		name     string
		from, to time.Time
		expected int
	}{
		{"31-day january", utils.Date(2024, 1, 1), utils.Date(2024, 2, 1), 30},
		{"leap february", utils.Date(2024, 2, 1), utils.Date(2024, 3, 1), 30},
		{"31st counts as the 30th", utils.Date(2024, 1, 31), utils.Date(2024, 3, 31), 60},
		{"across a year", utils.Date(2023, 12, 15), utils.Date(2024, 1, 15), 30},
		{"mid month", utils.Date(2024, 3, 15), utils.Date(2024, 4, 1), 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Days30(tt.from, tt.to))
		})
	}

	_, err := CountDays(domain.DaysInMonthType("LUNAR"), utils.Date(2024, 1, 1), utils.Date(2024, 2, 1))
	assert.Error(t, err)
}

func TestYearFraction(t *testing.T) {
	ratio := func(days, basis int64) decimal.Decimal {
		return decimal.NewFromInt(days).Div(decimal.NewFromInt(basis))
	}
	tests := []struct {
		name      string
		monthType domain.DaysInMonthType
		yearType  domain.DaysInYearType
		from, to  time.Time
		expected  decimal.Decimal
	}{
		{"actual over 360", domain.DaysInMonthActual, domain.DaysInYear360, utils.Date(2024, 1, 1), utils.Date(2024, 2, 1), ratio(31, 360)},
		{"30 over 360", domain.DaysInMonth30, domain.DaysInYear360, utils.Date(2024, 1, 1), utils.Date(2024, 2, 1), ratio(30, 360)},
		{"30-day months make a 360-day actual year", domain.DaysInMonth30, domain.DaysInYearActual, utils.Date(2024, 2, 1), utils.Date(2024, 3, 1), ratio(30, 360)},
		{"30 over 365", domain.DaysInMonth30, domain.DaysInYear365, utils.Date(2024, 1, 1), utils.Date(2024, 3, 1), ratio(60, 365)},
		{"actual in a leap year", domain.DaysInMonthActual, domain.DaysInYearActual, utils.Date(2024, 1, 1), utils.Date(2024, 2, 1), ratio(31, 366)},
		{"actual into a leap year", domain.DaysInMonthActual, domain.DaysInYearActual, utils.Date(2023, 12, 1), utils.Date(2024, 1, 31), ratio(31, 365).Add(ratio(30, 366))},
		{"actual out of a leap year", domain.DaysInMonthActual, domain.DaysInYearActual, utils.Date(2024, 12, 15), utils.Date(2025, 1, 15), ratio(17, 366).Add(ratio(14, 365))},
		{"empty range", domain.DaysInMonthActual, domain.DaysInYearActual, utils.Date(2024, 2, 1), utils.Date(2024, 1, 1), decimal.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := YearFraction(tt.monthType, tt.yearType, tt.from, tt.to)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.expected), "expected %s, got %s", tt.expected, got)
		})
	}
}
