// Package amortization builds loan repayment schedules: it walks the due dates
// from the date generator, splits each period into principal and interest, and
// reconciles rounding so the schedule sums exactly to the loan's totals.
package amortization

import (
	"go.uber.org/zap"

	"github.com/segyhp/amortization-engine/internal/dates"
	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/money"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

// Engine generates and reschedules amortization schedules. It holds no per-loan
// state, so one Engine serves concurrent calls.
type Engine struct {
	logger *zap.Logger
}

func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// run is the mutable state of one schedule build.
type run struct {
	schedule     *domain.Schedule
	alloc        *allocator
	pending      []domain.Disbursement
	disbursed    money.Money
	outstanding  money.Money
	recalculated bool
}

func newRun(terms *domain.LoanApplicationTerms, alloc *allocator) *run {
	zero := money.Zero(terms.Currency)
	pending := make([]domain.Disbursement, len(terms.Tranches()))
	copy(pending, terms.Tranches())
	return &run{
		schedule:    domain.NewSchedule(terms.Currency),
		alloc:       alloc,
		pending:     pending,
		disbursed:   zero,
		outstanding: zero,
	}
}

// Generate builds the schedule for terms, attaches charges and checks that the
// periods sum to the loan's principal and interest.
func (e *Engine) Generate(terms *domain.LoanApplicationTerms, charges []domain.Charge, detail domain.HolidayDetail) (*domain.Schedule, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
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

	r := newRun(terms, alloc)
	if err := e.assemble(r, frames); err != nil {
		return nil, err
	}
	if err := applyCharges(r.schedule, charges, 1); err != nil {
		return nil, err
	}
	if err := e.verify(r); err != nil {
		return nil, err
	}

	e.logger.Info("schedule generated",
		zap.String("op", "amortization.Engine.Generate"),
		zap.Int("periods", len(r.schedule.Periods)),
		zap.String("principal", r.schedule.TotalPrincipal.String()),
		zap.String("interest", r.schedule.TotalInterest.String()),
	)
	return r.schedule, nil
}

// assemble allocates each frame in turn until the frames run out or the loan is
// paid off with no tranche left to disburse.
func (e *Engine) assemble(r *run, frames []dates.PeriodDates) error {
	for _, frame := range frames {
		opening, inPeriod, err := e.disburse(r, frame)
		if err != nil {
			return err
		}
		in := periodInput{
			number:          frame.Number,
			from:            frame.FromDate,
			due:             frame.DueDate,
			opening:         opening,
			tranches:        inPeriod,
			outstanding:     r.outstanding,
			pendingTranches: len(r.pending) > 0,
		}
		result, err := r.alloc.allocate(in)
		if err != nil {
			return err
		}
		if r.outstanding, err = r.outstanding.Sub(result.principal); err != nil {
			return err
		}
		period, err := domain.NewRepaymentPeriod(frame.Number, frame.FromDate, frame.DueDate, result.principal, result.interest, r.outstanding)
		if err != nil {
			return err
		}
		period.RecalculatedInterestComponent = r.recalculated
		r.schedule.Periods = append(r.schedule.Periods, period)

		if r.outstanding.IsZero() && len(r.pending) == 0 {
			if frame.Number < r.alloc.n {
				e.logger.Info("loan paid off before the last period",
					zap.String("op", "amortization.Engine.assemble"),
					zap.Int("period", frame.Number),
					zap.Int("periods", r.alloc.n),
				)
			}
			break
		}
	}
	return nil
}

// disburse releases the tranches falling before the frame's due date. It returns
// the balance at the frame's start and the tranches released inside the frame.
func (e *Engine) disburse(r *run, frame dates.PeriodDates) (money.Money, []domain.Disbursement, error) {
	terms := r.alloc.terms
	opening := r.outstanding
	var inPeriod []domain.Disbursement
	for len(r.pending) > 0 && r.pending[0].Date.Before(frame.DueDate) {
		tranche := r.pending[0]
		r.pending = r.pending[1:]

		var err error
		if r.outstanding, err = r.outstanding.Add(tranche.Amount); err != nil {
			return money.Money{}, nil, err
		}
		if r.disbursed, err = r.disbursed.Add(tranche.Amount); err != nil {
			return money.Money{}, nil, err
		}
		if ceiling := terms.MaxOutstandingBalance; ceiling != nil {
			if cmp, err := r.outstanding.Cmp(*ceiling); err != nil {
				return money.Money{}, nil, err
			} else if cmp > 0 {
				return money.Money{}, nil, customError.Upstream("tranche on %s takes the balance to %s, above the maximum %s",
					utils.FormatDate(tranche.Date), r.outstanding, *ceiling)
			}
		}
		r.schedule.Disbursements = append(r.schedule.Disbursements, domain.NewDisbursementPeriod(tranche.Date, tranche.Amount, r.outstanding))

		if tranche.Date.After(frame.FromDate) {
			inPeriod = append(inPeriod, tranche)
		} else {
			opening = r.outstanding
		}
		if frame.Number > 1 || tranche.Date.After(frame.FromDate) {
			r.alloc.state.emi = nil
			r.alloc.state.fixedPrincipal = nil
			r.alloc.state.flatAdjustment = nil
		}
		if tranche.FixedEMI != nil {
			r.alloc.state.emi = tranche.FixedEMI
		}
	}
	return opening, inPeriod, nil
}

// verify recomputes the totals and fails when the schedule does not reconcile.
func (e *Engine) verify(r *run) error {
	s := r.schedule
	if err := s.Recalculate(); err != nil {
		return err
	}
	if len(r.pending) > 0 {
		return customError.Upstream("tranche on %s falls after the last repayment", utils.FormatDate(r.pending[0].Date))
	}

	var violation error
	switch {
	case len(s.Periods) == 0:
		violation = customError.Invariant("schedule has no repayment periods")
	case !s.TotalPrincipal.Equal(r.alloc.principal):
		violation = customError.Invariant("periods repay %s of a %s principal", s.TotalPrincipal, r.alloc.principal)
	case !s.Periods[len(s.Periods)-1].OutstandingBalance.IsZero():
		violation = customError.Invariant("balance %s left after the last period", s.Periods[len(s.Periods)-1].OutstandingBalance)
	case r.alloc.terms.InterestMethod == domain.InterestFlat && !s.TotalInterest.Equal(r.alloc.flatCharged):
		violation = customError.Invariant("periods charge %s of %s flat interest", s.TotalInterest, r.alloc.flatCharged)
	}
	if violation != nil {
		e.logger.Error("schedule does not reconcile",
			zap.String("op", "amortization.Engine.verify"),
			zap.Error(violation),
		)
		return violation
	}
	return nil
}
