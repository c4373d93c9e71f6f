// Package calendar decides where a candidate due date has to move: off non-working
// weekdays, out of holidays, and onto meeting dates of a recurring calendar.
package calendar

import (
	"time"

	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

const daysPerWeek = 7

// IsWorkingDay reports whether date falls on a working weekday.
func IsWorkingDay(workingDays domain.WorkingDays, date time.Time) bool {
	return !workingDays.IsNonWorking(date.Weekday())
}

// NextWorkingDay returns date, or the first working day after it.
func NextWorkingDay(workingDays domain.WorkingDays, date time.Time) (time.Time, error) {
	return stepToWorkingDay(workingDays, utils.ToDate(date), 1)
}

// PreviousWorkingDay returns date, or the last working day before it.
func PreviousWorkingDay(workingDays domain.WorkingDays, date time.Time) (time.Time, error) {
	return stepToWorkingDay(workingDays, utils.ToDate(date), -1)
}

func stepToWorkingDay(workingDays domain.WorkingDays, date time.Time, step int) (time.Time, error) {
	for i := 0; i < daysPerWeek; i++ {
		if IsWorkingDay(workingDays, date) {
			return date, nil
		}
		date = date.AddDate(0, 0, step)
	}
	return time.Time{}, customError.Upstream("working days table marks every weekday as non-working")
}

// OffsetIfNonWorkingDay moves date according to the reschedule policy when it falls
// on a non-working day. nextMeetingDate is only used by MOVE_TO_NEXT_MEETING_DAY.
func OffsetIfNonWorkingDay(date, nextMeetingDate time.Time, workingDays domain.WorkingDays) (time.Time, error) {
	date = utils.ToDate(date)
	if IsWorkingDay(workingDays, date) {
		return date, nil
	}
	switch workingDays.RescheduleType {
	case domain.RescheduleSameDay:
		return date, nil
	case domain.RescheduleNextWorkingDay:
		return NextWorkingDay(workingDays, date)
	case domain.RescheduleNextMeetingDay:
		return utils.ToDate(nextMeetingDate), nil
	case domain.ReschedulePreviousWorkingDay:
		return PreviousWorkingDay(workingDays, date)
	}
	return time.Time{}, customError.Unsupported("reschedule type %q", string(workingDays.RescheduleType))
}
