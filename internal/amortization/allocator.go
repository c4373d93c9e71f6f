package amortization

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/pkg/money"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

// allocatorState is carried from one period to the next.
type allocatorState struct {
	cumulativePrincipal money.Money
	cumulativeInterest  money.Money
	// interestCarried is declining-balance interest deferred by payment grace.
	interestCarried money.Money
	// flatCarried and flatAccrued are unrounded: the deferred flat interest and
	// the flat interest due so far. Rounding the running total spreads rounding
	// drift over the periods instead of piling it on the last one.
	flatCarried decimal.Decimal
	flatAccrued decimal.Decimal
	// emi and fixedPrincipal are frozen once computed and cleared when a tranche
	// or a reschedule changes the balance they were computed on.
	emi            *money.Money
	fixedPrincipal *money.Money
	// flatAdjustment is added to an overridden flat principal so the override
	// still retires the loan over the remaining periods. It is fixed where the
	// override starts.
	flatAdjustment *money.Money
}

// periodInput is what the allocator knows about the period being split.
type periodInput struct {
	number int
	from   time.Time
	due    time.Time
	// opening is the balance at from; tranches are disbursed after from.
	opening  money.Money
	tranches []domain.Disbursement
	// outstanding is opening plus tranches: the most principal the period can take.
	outstanding     money.Money
	pendingTranches bool
}

type allocation struct {
	principal money.Money
	interest  money.Money
	payoff    bool
}

type allocator struct {
	logger    *zap.Logger
	terms     *domain.LoanApplicationTerms
	overrides domain.OverrideTable
	currency  money.Currency
	mode      money.RoundingMode
	n         int
	principal money.Money

	flatGross      decimal.Decimal
	flatChargedRaw decimal.Decimal
	flatCharged    money.Money

	state allocatorState
}

func newAllocator(logger *zap.Logger, terms *domain.LoanApplicationTerms, overrides domain.OverrideTable, loanEnd time.Time) (*allocator, error) {
	zero := money.Zero(terms.Currency)
	a := &allocator{
		logger:      logger,
		terms:       terms,
		overrides:   overrides,
		currency:    terms.Currency,
		mode:        terms.RoundingMode,
		n:           terms.ActualNumberOfRepayments(),
		principal:   terms.Principal,
		flatCharged: zero,
		state: allocatorState{
			cumulativePrincipal: zero,
			cumulativeInterest:  zero,
			interestCarried:     zero,
		},
	}
	if terms.InterestMethod == domain.InterestFlat {
		if err := a.computeFlatTotals(loanEnd); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// computeFlatTotals sets the flat interest for the whole term and the part of it
// left after interest-charging grace forgives its periods.
func (a *allocator) computeFlatTotals(loanEnd time.Time) error {
	periods, err := PeriodsInLoanTerm(a.terms, loanEnd)
	if err != nil {
		return err
	}
	annual, err := a.terms.AnnualNominalRate()
	if err != nil {
		return err
	}
	unitsPerYear, err := a.terms.RepaymentPeriodsPerYear()
	if err != nil {
		return err
	}
	a.flatGross = a.principal.Amount().Mul(annual).Div(unitsPerYear).Div(hundred).Mul(periods)
	forgiven := a.flatGross.Mul(decimal.NewFromInt(int64(a.terms.InterestChargingGrace))).Div(decimal.NewFromInt(int64(a.n)))
	a.flatChargedRaw = a.flatGross.Sub(forgiven)
	a.flatCharged = money.NewRounded(a.flatChargedRaw, a.currency, a.mode)
	return nil
}

func (a *allocator) round(d decimal.Decimal) money.Money {
	return money.NewRounded(d, a.currency, a.mode)
}

// allocate splits one period into principal and interest and advances the state.
func (a *allocator) allocate(in periodInput) (allocation, error) {
	var (
		interestDue    money.Money
		periodInterest money.Money
		err            error
	)
	switch a.terms.InterestMethod {
	case domain.InterestFlat:
		interestDue, err = a.flatInterest(in.number)
		periodInterest = interestDue
	case domain.InterestDecliningBalance:
		interestDue, periodInterest, err = a.decliningInterest(in)
	default:
		err = a.terms.InterestMethod.Validate()
	}
	if err != nil {
		return allocation{}, err
	}

	principal, fixedEMI, err := a.rawPrincipal(in, interestDue, periodInterest)
	if err != nil {
		return allocation{}, err
	}
	result, err := a.reconcile(in, principal, interestDue, fixedEMI)
	if err != nil {
		return allocation{}, err
	}

	if a.state.cumulativePrincipal, err = a.state.cumulativePrincipal.Add(result.principal); err != nil {
		return allocation{}, err
	}
	if a.state.cumulativeInterest, err = a.state.cumulativeInterest.Add(result.interest); err != nil {
		return allocation{}, err
	}
	a.logger.Debug("period allocated",
		zap.String("op", "amortization.allocator.allocate"),
		zap.Int("period", in.number),
		zap.String("principal", result.principal.String()),
		zap.String("interest", result.interest.String()),
		zap.Bool("payoff", result.payoff),
	)
	return result, nil
}

// flatInterest returns the flat interest due in the period.
func (a *allocator) flatInterest(number int) (money.Money, error) {
	due := decimal.Zero
	switch a.terms.AmortizationMethod {
	case domain.AmortizationEqualInstallments:
		free := a.terms.InterestFreePeriods()
		if number > free {
			due = a.flatChargedRaw.Div(decimal.NewFromInt(int64(a.n - free)))
		}
	case domain.AmortizationEqualPrincipal:
		perPeriod := a.flatGross.Div(decimal.NewFromInt(int64(a.n)))
		switch {
		case a.terms.IsInterestChargingGrace(number):
		case a.terms.IsInterestPaymentGrace(number):
			a.state.flatCarried = a.state.flatCarried.Add(perPeriod)
		default:
			due = perPeriod.Add(a.state.flatCarried)
			a.state.flatCarried = decimal.Zero
		}
	default:
		return money.Money{}, a.terms.AmortizationMethod.Validate()
	}
	a.state.flatAccrued = a.state.flatAccrued.Add(due)
	return a.round(a.state.flatAccrued).Sub(a.state.cumulativeInterest)
}

// decliningInterest returns the interest due in the period and the interest the
// period itself accrued, before grace deferral.
func (a *allocator) decliningInterest(in periodInput) (money.Money, money.Money, error) {
	zero := money.Zero(a.currency)
	start := a.terms.InterestStartDate()

	rate, err := periodRate(a.terms, in.from, utils.MaxDate(in.from, start), in.due)
	if err != nil {
		return zero, zero, err
	}
	raw := in.opening.Amount().Mul(rate)
	for _, tranche := range in.tranches {
		trancheRate, err := periodRate(a.terms, in.from, utils.MaxDate(tranche.Date, start), in.due)
		if err != nil {
			return zero, zero, err
		}
		raw = raw.Add(tranche.Amount.Amount().Mul(trancheRate))
	}
	accrued := a.round(raw)

	switch {
	case a.terms.IsInterestChargingGrace(in.number):
		return zero, accrued, nil
	case a.terms.IsInterestPaymentGrace(in.number):
		a.state.interestCarried, err = a.state.interestCarried.Add(accrued)
		return zero, accrued, err
	}
	due, err := accrued.Add(a.state.interestCarried)
	if err != nil {
		return zero, zero, err
	}
	a.state.interestCarried = zero
	return due, accrued, nil
}

// currentEMI is the installment override in force for the period, if any.
func (a *allocator) currentEMI(number int) *money.Money {
	if emi := a.overrides.FixedEMI(number); emi != nil {
		return emi
	}
	if a.state.emi != nil {
		return a.state.emi
	}
	return a.terms.FixedEMI
}

// rawPrincipal is the period's principal before reconciliation, and whether a
// fixed installment produced it.
func (a *allocator) rawPrincipal(in periodInput, interestDue, periodInterest money.Money) (money.Money, bool, error) {
	zero := money.Zero(a.currency)
	if a.terms.IsPrincipalGrace(in.number) {
		return zero, false, nil
	}
	if fixed := a.overrides.FixedPrincipal(in.number); fixed != nil {
		if a.terms.InterestMethod == domain.InterestFlat {
			principal, err := a.spreadOverride(in, *fixed)
			return floorZero(principal), false, err
		}
		return *fixed, false, nil
	}
	remainingPeriods := decimal.NewFromInt(int64(a.n - in.number + 1))

	switch a.terms.InterestMethod {
	case domain.InterestFlat:
		if emi := a.currentEMI(in.number); emi != nil {
			principal, err := emi.Sub(interestDue)
			if err != nil {
				return zero, false, err
			}
			principal, err = a.spreadOverride(in, principal)
			return floorZero(principal), true, err
		}
		if a.state.fixedPrincipal != nil {
			return *a.state.fixedPrincipal, false, nil
		}
		remaining, err := a.principal.Sub(a.state.cumulativePrincipal)
		if err != nil {
			return zero, false, err
		}
		principal := a.round(remaining.Amount().Div(remainingPeriods))
		if multiple := a.terms.InstallmentMultiple(); a.terms.AmortizationMethod == domain.AmortizationEqualInstallments && multiple.IsPositive() {
			installment, err := principal.Add(interestDue)
			if err != nil {
				return zero, false, err
			}
			principal, err = installment.RoundToMultiplesOf(multiple).Sub(interestDue)
			if err != nil {
				return zero, false, err
			}
		}
		return floorZero(principal), false, nil

	case domain.InterestDecliningBalance:
		switch a.terms.AmortizationMethod {
		case domain.AmortizationEqualInstallments:
			emi := a.currentEMI(in.number)
			if emi == nil {
				computed, err := a.annuity(in.outstanding, a.n-in.number+1)
				if err != nil {
					return zero, false, err
				}
				a.state.emi = &computed
				emi = &computed
			}
			principal, err := emi.Sub(periodInterest)
			return floorZero(principal), true, err
		case domain.AmortizationEqualPrincipal:
			if a.state.fixedPrincipal == nil {
				fixed := a.round(in.outstanding.Amount().Div(remainingPeriods))
				if a.terms.FixedPrincipal != nil {
					fixed = *a.terms.FixedPrincipal
				}
				a.state.fixedPrincipal = &fixed
			}
			return *a.state.fixedPrincipal, false, nil
		}
		return zero, false, a.terms.AmortizationMethod.Validate()
	}
	return zero, false, a.terms.InterestMethod.Validate()
}

// spreadOverride adds the flat smoothing term to an overridden principal. The
// term is the remaining principal less the override over the remaining periods,
// shared evenly between them.
func (a *allocator) spreadOverride(in periodInput, principal money.Money) (money.Money, error) {
	if a.state.flatAdjustment == nil || a.overrides.StartsAt(in.number) {
		remaining, err := a.principal.Sub(a.state.cumulativePrincipal)
		if err != nil {
			return money.Money{}, err
		}
		periods := decimal.NewFromInt(int64(a.n - in.number + 1))
		shortfall := remaining.Amount().Sub(principal.Amount().Mul(periods))
		adjustment := a.round(shortfall.Div(periods))
		a.state.flatAdjustment = &adjustment
	}
	return principal.Add(*a.state.flatAdjustment)
}

// annuity solves the level payment that retires balance over periods at the
// periodic rate, rounded to the installment multiple.
func (a *allocator) annuity(balance money.Money, periods int) (money.Money, error) {
	rate, err := a.terms.PeriodicRate()
	if err != nil {
		return money.Money{}, err
	}
	n := decimal.NewFromInt(int64(periods))
	var payment decimal.Decimal
	if rate.IsZero() {
		payment = balance.Amount().Div(n)
	} else {
		growth := decimal.NewFromInt(1).Add(rate).Pow(n)
		payment = balance.Amount().Mul(rate).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1)))
	}
	emi := a.round(payment)
	if multiple := a.terms.InstallmentMultiple(); multiple.IsPositive() {
		emi = emi.RoundToMultiplesOf(multiple)
	}
	a.logger.Debug("installment computed",
		zap.String("op", "amortization.allocator.annuity"),
		zap.String("balance", balance.String()),
		zap.Int("periods", periods),
		zap.String("installment", emi.String()),
	)
	return emi, nil
}

// reconcile caps over-payment, folds a small remainder into the period when a
// fixed installment is in force, and makes the last period absorb all drift.
func (a *allocator) reconcile(in periodInput, principal, interest money.Money, fixedEMI bool) (allocation, error) {
	last := in.number >= a.n
	result := allocation{principal: principal, interest: interest}

	cmp, err := principal.Cmp(in.outstanding)
	if err != nil {
		return allocation{}, err
	}
	switch {
	case cmp >= 0:
		result.principal = in.outstanding
		result.payoff = !in.pendingTranches
	case last:
		result.principal = in.outstanding
		result.payoff = true
	case fixedEMI && !in.pendingTranches:
		rest, err := in.outstanding.Sub(principal)
		if err != nil {
			return allocation{}, err
		}
		threshold := principal.Amount().Mul(a.terms.ThresholdFraction())
		if rest.Amount().LessThanOrEqual(threshold) {
			a.logger.Info("remaining principal folded into installment",
				zap.String("op", "amortization.allocator.reconcile"),
				zap.Int("period", in.number),
				zap.String("remainder", rest.String()),
			)
			result.principal = in.outstanding
			result.payoff = true
		}
	}

	if a.terms.InterestMethod == domain.InterestFlat && result.payoff {
		if result.interest, err = a.flatCharged.Sub(a.state.cumulativeInterest); err != nil {
			return allocation{}, err
		}
	}
	if result.interest.IsNegative() {
		a.logger.Warn("negative reconciled interest clamped to zero",
			zap.String("op", "amortization.allocator.reconcile"),
			zap.Int("period", in.number),
			zap.String("interest", result.interest.String()),
		)
		result.interest = money.Zero(a.currency)
	}
	return result, nil
}

func floorZero(m money.Money) money.Money {
	if m.IsNegative() {
		return money.Zero(m.Currency())
	}
	return m
}
