package dates

import (
	"time"

	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

// PeriodDates is the date frame of one repayment period.
type PeriodDates struct {
	Number   int
	FromDate time.Time
	DueDate  time.Time
	// Scheduled is the unadjusted cadence date the next period is generated from.
	Scheduled time.Time
}

// Periods generates the frames of every repayment period. Explicit due dates from
// term variations replace the cadence date of their period.
func Periods(terms *domain.LoanApplicationTerms, detail domain.HolidayDetail, overrides domain.OverrideTable) ([]PeriodDates, error) {
	n := terms.ActualNumberOfRepayments()
	frames := make([]PeriodDates, 0, n)
	from := utils.ToDate(terms.ExpectedDisbursementDate)
	scheduled := from
	for number := 1; number <= n; number++ {
		var err error
		scheduled, err = NextRepaymentDate(scheduled, terms, number == 1, detail.WorkingDays)
		if err != nil {
			return nil, err
		}
		if fixed, ok := overrides.DueDate(number); ok {
			scheduled = utils.ToDate(fixed)
		}
		due, err := AdjustRepaymentDate(scheduled, terms, detail)
		if err != nil {
			return nil, err
		}
		if !due.After(from) {
			return nil, customError.Upstream("period %d is due %s, not after %s", number, utils.FormatDate(due), utils.FormatDate(from))
		}
		frames = append(frames, PeriodDates{Number: number, FromDate: from, DueDate: due, Scheduled: scheduled})
		from = due
	}
	return frames, nil
}
