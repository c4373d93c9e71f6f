// Package dates generates the due dates of a repayment schedule: the raw cadence
// implied by the loan terms, seed-day alignment, meeting-calendar snapping and the
// non-working-day and holiday adjustments.
package dates

import (
	"time"

	"github.com/segyhp/amortization-engine/internal/calendar"
	"github.com/segyhp/amortization-engine/internal/daycount"
	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

const (
	// maxCadenceSteps bounds the search for a working meeting date.
	maxCadenceSteps = 64
	// maxAdjustPasses bounds the working-day/holiday fixpoint iteration.
	maxAdjustPasses = 16
)

// PeriodDueDate adds every units of frequency to start. For monthly cadences with
// an nth-weekday constraint the result is moved to that weekday of its month.
func PeriodDueDate(frequency domain.FrequencyType, every int, start time.Time, nthDay int, weekday time.Weekday) (time.Time, error) {
	due, err := daycount.AddPeriods(start, frequency, every)
	if err != nil {
		return time.Time{}, err
	}
	if frequency == domain.FrequencyMonths && nthDay != 0 {
		return daycount.NthWeekdayOfMonth(due, nthDay, weekday)
	}
	return due, nil
}

// IsDateOnSchedule reports whether candidate is a whole number of every-unit
// periods after start.
func IsDateOnSchedule(frequency domain.FrequencyType, every int, start, candidate time.Time) bool {
	if every <= 0 {
		return false
	}
	units, err := daycount.UnitsBetween(frequency, start, candidate)
	if err != nil || units < 0 || units%every != 0 {
		return false
	}
	landed, err := daycount.AddPeriods(start, frequency, units)
	return err == nil && landed.Equal(utils.ToDate(candidate))
}

// IdealDisbursementDate steps back one period from the first repayment date.
func IdealDisbursementDate(frequency domain.FrequencyType, every int, firstRepaymentDate time.Time) (time.Time, error) {
	return daycount.AddPeriods(firstRepaymentDate, frequency, -every)
}

// NextRepaymentDate returns the unadjusted due date following previous. The first
// installment uses the fixed first repayment date when the terms carry one.
func NextRepaymentDate(previous time.Time, terms *domain.LoanApplicationTerms, firstInstallment bool, workingDays domain.WorkingDays) (time.Time, error) {
	if firstInstallment {
		if first := terms.FirstRepaymentDate(); first != nil {
			return utils.ToDate(*first), nil
		}
	}
	raw, err := PeriodDueDate(terms.RepaymentFrequencyType, terms.RepaymentEvery, previous, terms.NthDay, terms.RepaymentWeekday)
	if err != nil {
		return time.Time{}, err
	}
	raw = alignToSeed(raw, terms)
	if terms.RepaymentCalendar == nil {
		return raw, nil
	}
	return nextMeeting(raw, terms.RepaymentCalendar, workingDays)
}

// alignToSeed keeps monthly and yearly cadences on the seed's day of month, so a
// date clamped in a short month recovers the seed day afterwards.
func alignToSeed(date time.Time, terms *domain.LoanApplicationTerms) time.Time {
	if terms.NthDay != 0 {
		return date
	}
	if terms.RepaymentFrequencyType != domain.FrequencyMonths && terms.RepaymentFrequencyType != domain.FrequencyYears {
		return date
	}
	day := terms.SeedDate().Day()
	if last := daycount.DaysInMonth(date); day > last {
		day = last
	}
	return time.Date(date.Year(), date.Month(), day, 0, 0, 0, 0, time.UTC)
}

// nextMeeting snaps date to the first meeting on or after it. Under the
// next-meeting-day policy a meeting on a non-working day is skipped.
func nextMeeting(date time.Time, cal domain.RecurringCalendar, workingDays domain.WorkingDays) (time.Time, error) {
	for i := 0; i < maxCadenceSteps; i++ {
		meeting := cal.NextOccurrenceOnOrAfter(date)
		if meeting.IsZero() {
			return time.Time{}, customError.Upstream("meeting calendar has no occurrence on or after %s", utils.FormatDate(date))
		}
		if workingDays.RescheduleType != domain.RescheduleNextMeetingDay || calendar.IsWorkingDay(workingDays, meeting) {
			return meeting, nil
		}
		date = meeting.AddDate(0, 0, 1)
	}
	return time.Time{}, customError.Upstream("no working meeting day after %s", utils.FormatDate(date))
}

// AdjustRepaymentDate moves candidate off non-working days and, when holidays are
// enabled, out of holidays. Working-day adjustment runs before holiday adjustment
// and the pair is repeated until the date is stable, so adjusting an adjusted date
// returns it unchanged.
func AdjustRepaymentDate(candidate time.Time, terms *domain.LoanApplicationTerms, detail domain.HolidayDetail) (time.Time, error) {
	date := utils.ToDate(candidate)
	for pass := 0; pass < maxAdjustPasses; pass++ {
		adjusted, err := adjustOnce(date, terms, detail)
		if err != nil {
			return time.Time{}, err
		}
		if adjusted.Equal(date) {
			return date, nil
		}
		date = adjusted
	}
	return time.Time{}, customError.Upstream("due date %s does not settle under the working days and holidays", utils.FormatDate(candidate))
}

func adjustOnce(date time.Time, terms *domain.LoanApplicationTerms, detail domain.HolidayDetail) (time.Time, error) {
	workingDays := detail.WorkingDays
	nextMeetingDate := date
	if workingDays.RescheduleType == domain.RescheduleNextMeetingDay && !calendar.IsWorkingDay(workingDays, date) {
		var err error
		nextMeetingDate, err = followingWorkingCadenceDate(date, terms, workingDays)
		if err != nil {
			return time.Time{}, err
		}
	}
	adjusted, err := calendar.OffsetIfNonWorkingDay(date, nextMeetingDate, workingDays)
	if err != nil {
		return time.Time{}, err
	}
	if detail.HolidaysEnabled {
		return calendar.RescheduleIfHoliday(adjusted, detail.Holidays)
	}
	return adjusted, nil
}

// followingWorkingCadenceDate advances from date by whole cadence steps until it
// reaches a working day.
func followingWorkingCadenceDate(date time.Time, terms *domain.LoanApplicationTerms, workingDays domain.WorkingDays) (time.Time, error) {
	next := date
	for i := 0; i < maxCadenceSteps; i++ {
		var err error
		next, err = NextRepaymentDate(next, terms, false, workingDays)
		if err != nil {
			return time.Time{}, err
		}
		if calendar.IsWorkingDay(workingDays, next) {
			return next, nil
		}
	}
	return time.Time{}, customError.Upstream("no working cadence date follows %s", utils.FormatDate(date))
}

// LastRepaymentDate walks the cadence from disbursement for every repayment and
// adjusts the final date.
func LastRepaymentDate(terms *domain.LoanApplicationTerms, detail domain.HolidayDetail) (time.Time, error) {
	date := utils.ToDate(terms.ExpectedDisbursementDate)
	for i := 0; i < terms.ActualNumberOfRepayments(); i++ {
		var err error
		date, err = NextRepaymentDate(date, terms, i == 0, detail.WorkingDays)
		if err != nil {
			return time.Time{}, err
		}
	}
	return AdjustRepaymentDate(date, terms, detail)
}
