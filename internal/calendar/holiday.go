package calendar

import (
	"time"

	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

// maxHolidayHops bounds how many chained reschedule-to dates are followed.
const maxHolidayHops = 32

// HolidayFor returns the active holiday covering date, if any.
func HolidayFor(holidays []domain.Holiday, date time.Time) (domain.Holiday, bool) {
	date = utils.ToDate(date)
	for _, h := range holidays {
		if h.Active && h.Covers(date) {
			return h, true
		}
	}
	return domain.Holiday{}, false
}

// RescheduleIfHoliday moves date to the reschedule-to date of the holiday covering
// it. A reschedule-to date inside another holiday is followed in turn.
func RescheduleIfHoliday(date time.Time, holidays []domain.Holiday) (time.Time, error) {
	date = utils.ToDate(date)
	for hop := 0; hop < maxHolidayHops; hop++ {
		h, ok := HolidayFor(holidays, date)
		if !ok {
			return date, nil
		}
		next := utils.ToDate(h.RescheduledTo)
		if next.IsZero() || h.Covers(next) {
			return time.Time{}, customError.Upstream("holiday %q reschedules %s into itself", h.Name, utils.FormatDate(date))
		}
		date = next
	}
	return time.Time{}, customError.Upstream("holidays reschedule %s in a cycle", utils.FormatDate(date))
}
