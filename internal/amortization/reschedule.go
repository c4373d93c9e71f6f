package amortization

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/segyhp/amortization-engine/internal/dates"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/pkg/money"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

// Reschedule rebuilds a schedule after transactions. Periods due before
// rescheduleFrom are kept as they are; repayment beyond what they owe prepays
// principal and is folded into the last kept period. The remaining periods are
// regenerated from the reduced balance under the terms' recalculation strategy.
func (e *Engine) Reschedule(
	terms *domain.LoanApplicationTerms,
	charges []domain.Charge,
	transactions []domain.Transaction,
	processor TransactionProcessor,
	existing []domain.Period,
	rescheduleFrom time.Time,
	detail domain.HolidayDetail,
) (*domain.Schedule, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	if processor == nil {
		processor = NewDefaultProcessor()
	}
	overrides := domain.NewOverrideTable(terms.Variations)
	frames, err := dates.Periods(terms, detail, overrides)
	if err != nil {
		return nil, err
	}
	alloc, err := newAllocator(e.logger, terms, overrides, frames[len(frames)-1].DueDate)
	if err != nil {
		return nil, err
	}

	repayments := repaymentRows(existing)
	from := utils.ToDate(rescheduleFrom)
	kept := 0
	for kept < len(repayments) && kept < len(frames) && repayments[kept].DueDate.Before(from) {
		kept++
	}
	processed, err := processor.Process(repayments[:kept], transactions)
	if err != nil {
		return nil, err
	}

	// Replaying the kept frames restores the tranche, grace and installment state
	// the regenerated periods continue from.
	r := newRun(terms, alloc)
	if err := e.assemble(r, frames[:kept]); err != nil {
		return nil, err
	}
	r.schedule.Periods = append([]domain.Period(nil), repayments[:kept]...)
	if kept == 0 {
		// Release the tranches disbursed at the start so a prepayment can reduce them.
		opening := dates.PeriodDates{Number: 1, FromDate: frames[0].FromDate, DueDate: frames[0].FromDate.AddDate(0, 0, 1)}
		if _, _, err := e.disburse(r, opening); err != nil {
			return nil, err
		}
	}

	zero := money.Zero(terms.Currency)
	cumulativePrincipal, cumulativeInterest := zero, zero
	for _, p := range r.schedule.Periods {
		if cumulativePrincipal, err = cumulativePrincipal.Add(p.PrincipalDue); err != nil {
			return nil, err
		}
		if cumulativeInterest, err = cumulativeInterest.Add(p.InterestDue); err != nil {
			return nil, err
		}
	}
	outstanding, err := r.disbursed.Sub(cumulativePrincipal)
	if err != nil {
		return nil, err
	}

	prepaid := zero
	if processed.Excess.IsPositive() {
		prepaid = processed.Excess
		if cmp, err := prepaid.Cmp(outstanding); err != nil {
			return nil, err
		} else if cmp > 0 {
			e.logger.Warn("repayment exceeds the outstanding principal",
				zap.String("op", "amortization.Engine.Reschedule"),
				zap.String("excess", prepaid.String()),
				zap.String("outstanding", outstanding.String()),
			)
			prepaid = outstanding
		}
	}
	if cumulativePrincipal, err = cumulativePrincipal.Add(prepaid); err != nil {
		return nil, err
	}
	if outstanding, err = outstanding.Sub(prepaid); err != nil {
		return nil, err
	}

	alloc.state.cumulativePrincipal = cumulativePrincipal
	alloc.state.cumulativeInterest = cumulativeInterest
	applyStrategy(alloc, repayments, kept)
	r.outstanding = outstanding
	r.recalculated = terms.InterestMethod == domain.InterestDecliningBalance

	if kept > 0 && prepaid.IsPositive() {
		last := &r.schedule.Periods[kept-1]
		if err := last.AddDue(prepaid, zero); err != nil {
			return nil, err
		}
		if last.OutstandingBalance, err = last.OutstandingBalance.Sub(prepaid); err != nil {
			return nil, err
		}
	}

	if kept < len(frames) && (kept == 0 || outstanding.IsPositive() || len(r.pending) > 0) {
		if err := e.assemble(r, frames[kept:]); err != nil {
			return nil, err
		}
		if kept == 0 && prepaid.IsPositive() {
			if err := r.schedule.Periods[0].AddDue(prepaid, zero); err != nil {
				return nil, err
			}
		}
	} else if terms.InterestMethod == domain.InterestFlat && kept > 0 {
		rest, err := alloc.flatCharged.Sub(cumulativeInterest)
		if err != nil {
			return nil, err
		}
		if rest.IsPositive() {
			if err := r.schedule.Periods[kept-1].AddDue(zero, rest); err != nil {
				return nil, err
			}
		}
	}

	if err := applyCharges(r.schedule, charges, kept+1); err != nil {
		return nil, err
	}
	if err := e.verify(r); err != nil {
		return nil, err
	}
	e.logger.Info("schedule rescheduled",
		zap.String("op", "amortization.Engine.Reschedule"),
		zap.String("from", utils.FormatDate(from)),
		zap.Int("kept", kept),
		zap.Int("periods", len(r.schedule.Periods)),
		zap.String("prepaid", prepaid.String()),
	)
	return r.schedule, nil
}

// applyStrategy prepares the frozen installment for the regenerated periods.
// REDUCE_NUMBER_OF_INSTALLMENTS keeps it so a smaller balance pays off sooner;
// REDUCE_EMI clears it so it is solved again over the remaining periods.
func applyStrategy(a *allocator, existing []domain.Period, kept int) {
	a.state.flatAdjustment = nil
	if a.terms.InterestRecalculationEnabled && a.terms.RecalculationStrategy == domain.RecalculationReduceNumberOfInstallments {
		if a.terms.InterestMethod == domain.InterestFlat && kept < len(existing) && existing[kept].PrincipalDue.IsPositive() {
			fixed := existing[kept].PrincipalDue
			a.state.fixedPrincipal = &fixed
		}
		return
	}
	a.state.emi = nil
	a.state.fixedPrincipal = nil
}

func repaymentRows(periods []domain.Period) []domain.Period {
	rows := make([]domain.Period, 0, len(periods))
	for _, p := range periods {
		if !p.IsDisbursement() {
			rows = append(rows, p)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].PeriodNumber < rows[j].PeriodNumber
	})
	return rows
}
