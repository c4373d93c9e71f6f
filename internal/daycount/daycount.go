// Package daycount holds the calendar arithmetic the schedule engine is built on:
// adding frequency units to dates, measuring whole and fractional periods between
// dates, and resolving nth-weekday-of-month constraints.
//
// All functions expect and return UTC calendar dates (see utils.ToDate).
package daycount

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

const (
	hoursPerDay = 24
	daysPerWeek = 7
)

// LastWeekOfMonth selects the last occurrence of a weekday in NthWeekdayOfMonth.
const LastWeekOfMonth = -1

// AddPeriods adds n units of freq to date. Month and year arithmetic clamps to
// the end of the target month: Jan 31 + 1 month is the last day of February.
func AddPeriods(date time.Time, freq domain.FrequencyType, n int) (time.Time, error) {
	date = utils.ToDate(date)
	switch freq {
	case domain.FrequencyDays:
		return date.AddDate(0, 0, n), nil
	case domain.FrequencyWeeks:
		return date.AddDate(0, 0, n*daysPerWeek), nil
	case domain.FrequencyMonths:
		return addMonths(date, n), nil
	case domain.FrequencyYears:
		return addMonths(date, 12*n), nil
	}
	return time.Time{}, customError.Unsupported("frequency type %q", string(freq))
}

func addMonths(date time.Time, n int) time.Time {
	y, m, d := date.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := DaysInMonth(first); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the length of the month date falls in.
func DaysInMonth(date time.Time) int {
	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1).Day()
}

// DaysBetween counts calendar days from -> to; negative when to is earlier.
func DaysBetween(from, to time.Time) int {
	return int(utils.ToDate(to).Sub(utils.ToDate(from)).Hours() / hoursPerDay)
}

// Days30 counts days from -> to with every month taken as 30 days long; the
// 31st of a month counts as the 30th.
func Days30(from, to time.Time) int {
	from, to = utils.ToDate(from), utils.ToDate(to)
	d1, d2 := from.Day(), to.Day()
	if d1 > 30 {
		d1 = 30
	}
	if d2 > 30 {
		d2 = 30
	}
	return (to.Year()-from.Year())*360 + int(to.Month()-from.Month())*30 + d2 - d1
}

// CountDays counts days from -> to under the days-in-month convention.
func CountDays(monthType domain.DaysInMonthType, from, to time.Time) (int, error) {
	switch monthType {
	case domain.DaysInMonth30:
		return Days30(from, to), nil
	case domain.DaysInMonthActual:
		return DaysBetween(from, to), nil
	}
	return 0, monthType.Validate()
}

// YearFraction measures from -> to as a share of a year. With 30-day months an
// ACTUAL year is 360 days. With actual months and an ACTUAL year the days of
// each calendar year are divided by that year's length.
func YearFraction(monthType domain.DaysInMonthType, yearType domain.DaysInYearType, from, to time.Time) (decimal.Decimal, error) {
	from, to = utils.ToDate(from), utils.ToDate(to)
	if !to.After(from) {
		return decimal.Zero, nil
	}
	days, err := CountDays(monthType, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	if monthType == domain.DaysInMonth30 {
		basis := 360
		if yearType != domain.DaysInYearActual {
			if basis, err = yearType.DaysIn(from.Year()); err != nil {
				return decimal.Zero, err
			}
		}
		return decimal.NewFromInt(int64(days)).Div(decimal.NewFromInt(int64(basis))), nil
	}
	if yearType != domain.DaysInYearActual {
		basis, err := yearType.DaysIn(from.Year())
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromInt(int64(days)).Div(decimal.NewFromInt(int64(basis))), nil
	}

	fraction := decimal.Zero
	for start := from; start.Before(to); {
		end := utils.MinDate(time.Date(start.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC), to)
		segment := decimal.NewFromInt(int64(DaysBetween(start, end)))
		fraction = fraction.Add(segment.Div(decimal.NewFromInt(int64(domain.YearLength(start.Year())))))
		start = end
	}
	return fraction, nil
}

// MonthsBetween counts whole months from -> to: the largest k for which
// AddPeriods(from, months, k) is not after to. Because AddPeriods clamps,
// Jan 31 -> Feb 29 (2024) is one month while Jan 31 -> Feb 28 is none.
func MonthsBetween(from, to time.Time) int {
	from, to = utils.ToDate(from), utils.ToDate(to)
	if to.Before(from) {
		return -MonthsBetween(to, from)
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
	if months > 0 && addMonths(from, months).After(to) {
		months--
	}
	return months
}

// UnitsBetween counts whole freq units from -> to.
func UnitsBetween(freq domain.FrequencyType, from, to time.Time) (int, error) {
	switch freq {
	case domain.FrequencyDays:
		return DaysBetween(from, to), nil
	case domain.FrequencyWeeks:
		return DaysBetween(from, to) / daysPerWeek, nil
	case domain.FrequencyMonths:
		return MonthsBetween(from, to), nil
	case domain.FrequencyYears:
		return MonthsBetween(from, to) / 12, nil
	}
	return 0, customError.Unsupported("frequency type %q", string(freq))
}

// PeriodFraction measures from -> to in repayment periods of `every` freq units:
// the whole periods plus the leftover days as a share of the following period.
func PeriodFraction(freq domain.FrequencyType, every int, from, to time.Time) (decimal.Decimal, error) {
	if every <= 0 {
		return decimal.Zero, customError.Unsupported("repayment every %d", every)
	}
	units, err := UnitsBetween(freq, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	whole := units / every
	anchor, err := AddPeriods(from, freq, whole*every)
	if err != nil {
		return decimal.Zero, err
	}
	next, err := AddPeriods(anchor, freq, every)
	if err != nil {
		return decimal.Zero, err
	}
	result := decimal.NewFromInt(int64(whole))
	remaining := DaysBetween(anchor, to)
	if remaining <= 0 {
		return result, nil
	}
	span := DaysBetween(anchor, next)
	return result.Add(decimal.NewFromInt(int64(remaining)).Div(decimal.NewFromInt(int64(span)))), nil
}

// NthWeekdayOfMonth returns the nth weekday of the month date falls in: nth in
// 1..5, or LastWeekOfMonth. A fifth occurrence that does not exist falls back to
// the last one.
func NthWeekdayOfMonth(date time.Time, nth int, weekday time.Weekday) (time.Time, error) {
	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	if nth == LastWeekOfMonth {
		last := first.AddDate(0, 1, -1)
		back := (int(last.Weekday()) - int(weekday) + daysPerWeek) % daysPerWeek
		return last.AddDate(0, 0, -back), nil
	}
	if nth < 1 || nth > 5 {
		return time.Time{}, customError.Unsupported("nth day %d", nth)
	}
	forward := (int(weekday) - int(first.Weekday()) + daysPerWeek) % daysPerWeek
	result := first.AddDate(0, 0, forward+(nth-1)*daysPerWeek)
	if result.Month() != first.Month() {
		result = result.AddDate(0, 0, -daysPerWeek)
	}
	return result, nil
}
