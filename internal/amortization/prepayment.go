package amortization

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/segyhp/amortization-engine/internal/daycount"
	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/money"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

// CalculatePrepaymentAmount returns what closes the loan on onDate: all unpaid
// principal, the unpaid interest and charges of periods already due, and the
// interest accrued so far in the current period.
func (e *Engine) CalculatePrepaymentAmount(
	terms *domain.LoanApplicationTerms,
	schedule *domain.Schedule,
	transactions []domain.Transaction,
	processor TransactionProcessor,
	onDate time.Time,
) (domain.Period, error) {
	if len(schedule.Periods) == 0 {
		return domain.Period{}, customError.Invariant("schedule has no repayment periods")
	}
	if processor == nil {
		processor = NewDefaultProcessor()
	}
	processed, err := processor.Process(schedule.Periods, transactions)
	if err != nil {
		return domain.Period{}, err
	}

	on := utils.ToDate(onDate)
	zero := money.Zero(schedule.Currency)
	principal, interest, fees, penalties := zero, zero, zero, zero
	current := schedule.Periods[0]
	unpaidPrincipal := make([]money.Money, len(schedule.Periods))
	for i, p := range schedule.Periods {
		if unpaidPrincipal[i], err = p.PrincipalDue.Sub(processed.Paid[i].Principal); err != nil {
			return domain.Period{}, err
		}
		if principal, err = principal.Add(unpaidPrincipal[i]); err != nil {
			return domain.Period{}, err
		}
	}

	for i, p := range schedule.Periods {
		paid := processed.Paid[i]
		switch {
		case !p.DueDate.After(on):
			current = p
			for _, part := range []struct {
				total *money.Money
				due   money.Money
				paid  money.Money
			}{
				{&interest, p.InterestDue, paid.Interest},
				{&fees, p.FeeChargesDue, paid.Fees},
				{&penalties, p.PenaltyChargesDue, paid.Penalties},
			} {
				unpaid, err := part.due.Sub(part.paid)
				if err != nil {
					return domain.Period{}, err
				}
				if *part.total, err = part.total.Add(unpaid); err != nil {
					return domain.Period{}, err
				}
			}
		case p.FromDate.Before(on):
			current = p
			balance := zero
			for _, u := range unpaidPrincipal[i:] {
				if balance, err = balance.Add(u); err != nil {
					return domain.Period{}, err
				}
			}
			accrued, err := e.accruedInterest(terms, p, balance, paid.Interest, on)
			if err != nil {
				return domain.Period{}, err
			}
			if interest, err = interest.Add(accrued); err != nil {
				return domain.Period{}, err
			}
		}
	}

	if processed.Excess.IsPositive() {
		if principal, err = principal.Sub(processed.Excess); err != nil {
			return domain.Period{}, err
		}
		principal = floorZero(principal)
	}

	payoff, err := domain.NewRepaymentPeriod(current.PeriodNumber, current.FromDate, on, principal, interest, zero)
	if err != nil {
		return domain.Period{}, err
	}
	if err := payoff.AddCharge(fees, false); err != nil {
		return domain.Period{}, err
	}
	if err := payoff.AddCharge(penalties, true); err != nil {
		return domain.Period{}, err
	}
	e.logger.Info("prepayment calculated",
		zap.String("op", "amortization.Engine.CalculatePrepaymentAmount"),
		zap.String("date", utils.FormatDate(on)),
		zap.String("total", payoff.TotalDue.String()),
	)
	return payoff, nil
}

// accruedInterest is the part of the current period's interest earned by on,
// pro rata by days, less interest already paid for the period.
func (e *Engine) accruedInterest(terms *domain.LoanApplicationTerms, p domain.Period, balance, paid money.Money, on time.Time) (money.Money, error) {
	elapsed := decimal.NewFromInt(int64(daycount.DaysBetween(p.FromDate, on)))
	span := decimal.NewFromInt(int64(daycount.DaysBetween(p.FromDate, p.DueDate)))
	if !span.IsPositive() {
		return money.Zero(balance.Currency()), nil
	}

	var accrued money.Money
	switch terms.InterestMethod {
	case domain.InterestFlat:
		accrued = p.InterestDue.Mul(elapsed.Div(span), terms.RoundingMode)
	case domain.InterestDecliningBalance:
		rate, err := periodRate(terms, p.FromDate, p.FromDate, p.DueDate)
		if err != nil {
			return money.Money{}, err
		}
		accrued = balance.Mul(rate.Mul(elapsed).Div(span), terms.RoundingMode)
	default:
		return money.Money{}, terms.InterestMethod.Validate()
	}
	owed, err := accrued.Sub(paid)
	if err != nil {
		return money.Money{}, err
	}
	return floorZero(owed), nil
}
