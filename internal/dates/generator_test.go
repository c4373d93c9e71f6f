package dates

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/amortization-engine/internal/calendar"
	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

func termsFor(freq domain.FrequencyType, every, n int, disbursed time.Time) *domain.LoanApplicationTerms {
	return &domain.LoanApplicationTerms{
		RepaymentFrequencyType:   freq,
		RepaymentEvery:           every,
		NumberOfRepayments:       n,
		ExpectedDisbursementDate: disbursed,
	}
}

func weekendDetail(policy domain.RescheduleType, holidays ...domain.Holiday) domain.HolidayDetail {
	return domain.HolidayDetail{
		HolidaysEnabled: len(holidays) > 0,
		Holidays:        holidays,
		WorkingDays: domain.WorkingDays{
			NonWorkingDays: []time.Weekday{time.Saturday, time.Sunday},
			RescheduleType: policy,
		},
	}
}

func TestPeriodDueDate(t *testing.T) {
	tests := []struct {
		name     string
		freq     domain.FrequencyType
		every    int
		start    time.Time
		nth      int
		weekday  time.Weekday
		expected time.Time
	}{
		{"monthly", domain.FrequencyMonths, 1, utils.Date(2024, 1, 15), 0, time.Sunday, utils.Date(2024, 2, 15)},
		{"quarterly", domain.FrequencyMonths, 3, utils.Date(2024, 1, 15), 0, time.Sunday, utils.Date(2024, 4, 15)},
		{"second tuesday", domain.FrequencyMonths, 1, utils.Date(2024, 2, 13), 2, time.Tuesday, utils.Date(2024, 3, 12)},
		{"nth day ignored for weeks", domain.FrequencyWeeks, 2, utils.Date(2024, 1, 1), 2, time.Tuesday, utils.Date(2024, 1, 15)},
		{"yearly", domain.FrequencyYears, 1, utils.Date(2024, 2, 29), 0, time.Sunday, utils.Date(2025, 2, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PeriodDueDate(tt.freq, tt.every, tt.start, tt.nth, tt.weekday)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestIsDateOnScheduleWeekly(t *testing.T) {
	start := utils.Date(2024, 1, 1)
	assert.True(t, IsDateOnSchedule(domain.FrequencyWeeks, 3, start, start.AddDate(0, 0, 21)))
	assert.False(t, IsDateOnSchedule(domain.FrequencyWeeks, 3, start, start.AddDate(0, 0, 10)))
	assert.False(t, IsDateOnSchedule(domain.FrequencyWeeks, 3, start, start.AddDate(0, 0, -21)))
	assert.False(t, IsDateOnSchedule(domain.FrequencyType("FORTNIGHTS"), 1, start, start))
}

func TestIsDateOnScheduleRoundTrip(t *testing.T) {
	starts := []time.Time{utils.Date(2024, 1, 31), utils.Date(2023, 11, 30), utils.Date(2024, 2, 29), utils.Date(2024, 6, 15)}
	freqs := []domain.FrequencyType{domain.FrequencyDays, domain.FrequencyWeeks, domain.FrequencyMonths, domain.FrequencyYears}

	for _, start := range starts {
		for _, freq := range freqs {
			for every := 1; every <= 4; every++ {
				due, err := PeriodDueDate(freq, every, start, 0, time.Sunday)
				require.NoError(t, err)
				assert.True(t, IsDateOnSchedule(freq, every, start, due), "%s every %d %s from %s", freq, every, utils.FormatDate(due), utils.FormatDate(start))
			}
		}
	}
}

func TestIdealDisbursementDate(t *testing.T) {
	got, err := IdealDisbursementDate(domain.FrequencyMonths, 1, utils.Date(2024, 3, 31))
	require.NoError(t, err)
	assert.Equal(t, utils.Date(2024, 2, 29), got)

	got, err = IdealDisbursementDate(domain.FrequencyWeeks, 2, utils.Date(2024, 3, 15))
	require.NoError(t, err)
	assert.Equal(t, utils.Date(2024, 3, 1), got)
}

func TestNextRepaymentDateAlignsToSeedDay(t *testing.T) {
	terms := termsFor(domain.FrequencyMonths, 1, 4, utils.Date(2024, 1, 31))
	expected := []time.Time{utils.Date(2024, 2, 29), utils.Date(2024, 3, 31), utils.Date(2024, 4, 30), utils.Date(2024, 5, 31)}

	date := terms.ExpectedDisbursementDate
	for i, want := range expected {
		var err error
		date, err = NextRepaymentDate(date, terms, i == 0, domain.WorkingDays{})
		require.NoError(t, err)
		assert.Equal(t, want, date)
	}
}

func TestNextRepaymentDateUsesFirstRepaymentDate(t *testing.T) {
	terms := termsFor(domain.FrequencyMonths, 1, 3, utils.Date(2024, 1, 5))
	first := utils.Date(2024, 2, 20)
	terms.RepaymentsStartingFromDate = &first

	got, err := NextRepaymentDate(terms.ExpectedDisbursementDate, terms, true, domain.WorkingDays{})
	require.NoError(t, err)
	assert.Equal(t, first, got)

	got, err = NextRepaymentDate(got, terms, false, domain.WorkingDays{})
	require.NoError(t, err)
	assert.Equal(t, utils.Date(2024, 3, 20), got)
}

func TestNextRepaymentDateSnapsToMeeting(t *testing.T) {
	mondays, err := calendar.NewCronCalendar(utils.Date(2024, 1, 1), "0 0 * * MON", domain.FrequencyWeeks)
	require.NoError(t, err)
	terms := termsFor(domain.FrequencyWeeks, 1, 4, utils.Date(2024, 1, 3))
	terms.RepaymentCalendar = mondays

	first, err := NextRepaymentDate(terms.ExpectedDisbursementDate, terms, true, domain.WorkingDays{})
	require.NoError(t, err)
	assert.Equal(t, utils.Date(2024, 1, 15), first)

	second, err := NextRepaymentDate(first, terms, false, domain.WorkingDays{})
	require.NoError(t, err)
	assert.Equal(t, utils.Date(2024, 1, 22), second)
}

func TestAdjustRepaymentDate(t *testing.T) {
	terms := termsFor(domain.FrequencyMonths, 1, 12, utils.Date(2024, 2, 2))
	holidays := []domain.Holiday{
		{Name: "spring", FromDate: utils.Date(2024, 3, 4), ToDate: utils.Date(2024, 3, 4), RescheduledTo: utils.Date(2024, 3, 10), Active: true},
		{Name: "mid", FromDate: utils.Date(2024, 3, 19), ToDate: utils.Date(2024, 3, 19), RescheduledTo: utils.Date(2024, 3, 20), Active: true},
	}

	tests := []struct {
		name     string
		date     time.Time
		detail   domain.HolidayDetail
		expected time.Time
	}{
		{"working day", utils.Date(2024, 3, 5), weekendDetail(domain.RescheduleNextWorkingDay), utils.Date(2024, 3, 5)},
		{"saturday to monday", utils.Date(2024, 3, 9), weekendDetail(domain.RescheduleNextWorkingDay), utils.Date(2024, 3, 11)},
		{"saturday to friday", utils.Date(2024, 3, 9), weekendDetail(domain.ReschedulePreviousWorkingDay), utils.Date(2024, 3, 8)},
		{"same day", utils.Date(2024, 3, 9), weekendDetail(domain.RescheduleSameDay), utils.Date(2024, 3, 9)},
		{"holiday after working day move", utils.Date(2024, 3, 2), weekendDetail(domain.RescheduleNextWorkingDay, holidays...), utils.Date(2024, 3, 11)},
		{"plain holiday", utils.Date(2024, 3, 19), weekendDetail(domain.RescheduleNextWorkingDay, holidays...), utils.Date(2024, 3, 20)},
		{"next meeting day skips to next cadence", utils.Date(2024, 3, 2), weekendDetail(domain.RescheduleNextMeetingDay), utils.Date(2024, 4, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AdjustRepaymentDate(tt.date, terms, tt.detail)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestAdjustRepaymentDateIsIdempotent(t *testing.T) {
	terms := termsFor(domain.FrequencyMonths, 1, 12, utils.Date(2024, 2, 2))
	holidays := []domain.Holiday{
		{Name: "spring", FromDate: utils.Date(2024, 3, 4), ToDate: utils.Date(2024, 3, 6), RescheduledTo: utils.Date(2024, 3, 10), Active: true},
		{Name: "bridge", FromDate: utils.Date(2024, 3, 11), ToDate: utils.Date(2024, 3, 11), RescheduledTo: utils.Date(2024, 3, 12), Active: true},
	}
	policies := []domain.RescheduleType{domain.RescheduleSameDay, domain.RescheduleNextWorkingDay, domain.RescheduleNextMeetingDay}

	for _, policy := range policies {
		detail := weekendDetail(policy, holidays...)
		for day := utils.Date(2024, 3, 1); day.Before(utils.Date(2024, 4, 1)); day = day.AddDate(0, 0, 1) {
			once, err := AdjustRepaymentDate(day, terms, detail)
			require.NoError(t, err)
			twice, err := AdjustRepaymentDate(once, terms, detail)
			require.NoError(t, err)
			assert.Equal(t, once, twice, "%s under %s", utils.FormatDate(day), policy)
		}
	}
}

func TestAdjustRepaymentDateRejectsHolidayCycle(t *testing.T) {
	terms := termsFor(domain.FrequencyMonths, 1, 12, utils.Date(2024, 2, 2))
	detail := weekendDetail(domain.RescheduleNextWorkingDay,
		domain.Holiday{Name: "a", FromDate: utils.Date(2024, 3, 5), ToDate: utils.Date(2024, 3, 5), RescheduledTo: utils.Date(2024, 3, 6), Active: true},
		domain.Holiday{Name: "b", FromDate: utils.Date(2024, 3, 6), ToDate: utils.Date(2024, 3, 6), RescheduledTo: utils.Date(2024, 3, 5), Active: true},
	)
	_, err := AdjustRepaymentDate(utils.Date(2024, 3, 5), terms, detail)
	assert.True(t, errors.Is(err, customError.ErrUpstreamData))
}

func TestLastRepaymentDate(t *testing.T) {
	terms := termsFor(domain.FrequencyMonths, 1, 12, utils.Date(2024, 1, 1))
	got, err := LastRepaymentDate(terms, weekendDetail(domain.RescheduleNextWorkingDay))
	require.NoError(t, err)
	assert.Equal(t, utils.Date(2025, 1, 1), got)

	terms.Variations = []domain.TermVariation{{Type: domain.VariationExtendRepaymentPeriod, Count: 2}}
	got, err = LastRepaymentDate(terms, weekendDetail(domain.RescheduleNextWorkingDay))
	require.NoError(t, err)
	assert.Equal(t, utils.Date(2025, 3, 3), got)
}

func TestPeriods(t *testing.T) {
	terms := termsFor(domain.FrequencyMonths, 1, 4, utils.Date(2024, 1, 15))
	terms.Variations = []domain.TermVariation{{Type: domain.VariationDueDate, PeriodNumber: 2, DueDate: utils.Date(2024, 3, 20)}}

	frames, err := Periods(terms, weekendDetail(domain.RescheduleNextWorkingDay), domain.NewOverrideTable(terms.Variations))
	require.NoError(t, err)
	require.Len(t, frames, 4)

	expected := []time.Time{utils.Date(2024, 2, 15), utils.Date(2024, 3, 20), utils.Date(2024, 4, 15), utils.Date(2024, 5, 15)}
	from := terms.ExpectedDisbursementDate
	for i, frame := range frames {
		assert.Equal(t, i+1, frame.Number)
		assert.Equal(t, from, frame.FromDate)
		assert.Equal(t, expected[i], frame.DueDate)
		from = frame.DueDate
	}
}
