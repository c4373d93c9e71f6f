package domain

import "time"

// WorkingDays is the organisation's working-week table.
type WorkingDays struct {
	NonWorkingDays []time.Weekday `json:"non_working_days"`
	RescheduleType RescheduleType `json:"reschedule_type"`
}

// IsNonWorking reports whether the weekday is listed as non-working.
func (w WorkingDays) IsNonWorking(day time.Weekday) bool {
	for _, d := range w.NonWorkingDays {
		if d == day {
			return true
		}
	}
	return false
}

// Holiday moves repayments falling in [FromDate, ToDate] to RescheduledTo.
type Holiday struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	FromDate      time.Time `json:"from_date" db:"from_date"`
	ToDate        time.Time `json:"to_date" db:"to_date"`
	RescheduledTo time.Time `json:"rescheduled_to" db:"rescheduled_to"`
	Active        bool      `json:"active" db:"active"`
}

// Covers reports whether date (compared by calendar day) lies inside the holiday.
func (h Holiday) Covers(date time.Time) bool {
	return !date.Before(h.FromDate) && !date.After(h.ToDate)
}

// HolidayDetail bundles everything the date adjuster needs from the holiday collaborator.
type HolidayDetail struct {
	HolidaysEnabled bool        `json:"holidays_enabled"`
	Holidays        []Holiday   `json:"holidays"`
	WorkingDays     WorkingDays `json:"working_days"`
}

// RecurringCalendar is a meeting calendar the repayments can be synced to. Recurrence
// syntax stays with the implementation; the engine only asks for the next occurrence.
type RecurringCalendar interface {
	// NextOccurrenceOnOrAfter returns the first meeting date on or after date.
	NextOccurrenceOnOrAfter(date time.Time) time.Time
	// Frequency is the cadence unit of the meetings; it must match the loan's repayment frequency.
	Frequency() FrequencyType
}
