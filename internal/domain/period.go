package domain

import (
	"time"

	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/money"
)

// Period is one row of a generated schedule. Period number 0 is a disbursement row.
type Period struct {
	PeriodNumber       int         `json:"period_number"`
	FromDate           time.Time   `json:"from_date"`
	DueDate            time.Time   `json:"due_date"`
	PrincipalDisbursed money.Money `json:"principal_disbursed"`
	PrincipalDue       money.Money `json:"principal_due"`
	InterestDue        money.Money `json:"interest_due"`
	FeeChargesDue      money.Money `json:"fee_charges_due"`
	PenaltyChargesDue  money.Money `json:"penalty_charges_due"`
	TotalDue           money.Money `json:"total_due"`
	OutstandingBalance money.Money `json:"outstanding_balance"`

	RecalculatedInterestComponent bool `json:"recalculated_interest_component"`
}

// NewRepaymentPeriod builds a repayment row with zero charges.
func NewRepaymentPeriod(number int, from, due time.Time, principal, interest, outstanding money.Money) (Period, error) {
	zero := money.Zero(principal.Currency())
	p := Period{
		PeriodNumber:       number,
		FromDate:           from,
		DueDate:            due,
		PrincipalDisbursed: zero,
		PrincipalDue:       principal,
		InterestDue:        interest,
		FeeChargesDue:      zero,
		PenaltyChargesDue:  zero,
		OutstandingBalance: outstanding,
	}
	if err := p.refreshTotal(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// NewDisbursementPeriod builds the period-0 row for one tranche.
func NewDisbursementPeriod(date time.Time, amount, outstanding money.Money) Period {
	zero := money.Zero(amount.Currency())
	return Period{
		FromDate:           date,
		DueDate:            date,
		PrincipalDisbursed: amount,
		PrincipalDue:       zero,
		InterestDue:        zero,
		FeeChargesDue:      zero,
		PenaltyChargesDue:  zero,
		TotalDue:           zero,
		OutstandingBalance: outstanding,
	}
}

func (p *Period) IsDisbursement() bool {
	return p.PeriodNumber == 0
}

// AddCharge adds a fee or penalty to the period and updates TotalDue.
func (p *Period) AddCharge(amount money.Money, penalty bool) error {
	var err error
	if penalty {
		p.PenaltyChargesDue, err = p.PenaltyChargesDue.Add(amount)
	} else {
		p.FeeChargesDue, err = p.FeeChargesDue.Add(amount)
	}
	if err != nil {
		return err
	}
	return p.refreshTotal()
}

// AddDue adds principal and interest to the period's dues. The outstanding
// balance is left to the caller.
func (p *Period) AddDue(principal, interest money.Money) error {
	var err error
	if p.PrincipalDue, err = p.PrincipalDue.Add(principal); err != nil {
		return err
	}
	if p.InterestDue, err = p.InterestDue.Add(interest); err != nil {
		return err
	}
	return p.refreshTotal()
}

func (p *Period) refreshTotal() error {
	total := p.PrincipalDue
	for _, part := range []money.Money{p.InterestDue, p.FeeChargesDue, p.PenaltyChargesDue} {
		sum, err := total.Add(part)
		if err != nil {
			return err
		}
		total = sum
	}
	p.TotalDue = total
	return nil
}

// Schedule is a generated repayment schedule with loan-level totals.
type Schedule struct {
	Currency      money.Currency `json:"currency"`
	Disbursements []Period       `json:"disbursements"`
	Periods       []Period       `json:"periods"`
	LoanEndDate   time.Time      `json:"loan_end_date"`

	TotalPrincipal      money.Money `json:"total_principal"`
	TotalInterest       money.Money `json:"total_interest"`
	TotalFeeCharges     money.Money `json:"total_fee_charges"`
	TotalPenaltyCharges money.Money `json:"total_penalty_charges"`
	TotalRepayment      money.Money `json:"total_repayment"`
}

// NewSchedule returns an empty schedule in currency.
func NewSchedule(currency money.Currency) *Schedule {
	zero := money.Zero(currency)
	return &Schedule{
		Currency:            currency,
		TotalPrincipal:      zero,
		TotalInterest:       zero,
		TotalFeeCharges:     zero,
		TotalPenaltyCharges: zero,
		TotalRepayment:      zero,
	}
}

// Period returns the repayment period with the given number.
func (s *Schedule) Period(number int) (*Period, bool) {
	for i := range s.Periods {
		if s.Periods[i].PeriodNumber == number {
			return &s.Periods[i], true
		}
	}
	return nil, false
}

// AddCharge attaches a fee or penalty to an existing repayment period.
func (s *Schedule) AddCharge(periodNumber int, amount money.Money, penalty bool) error {
	p, ok := s.Period(periodNumber)
	if !ok {
		return customError.Invariant("no period %d to charge", periodNumber)
	}
	if err := p.AddCharge(amount, penalty); err != nil {
		return err
	}
	return s.Recalculate()
}

// Recalculate recomputes the loan-level totals from the repayment periods.
func (s *Schedule) Recalculate() error {
	zero := money.Zero(s.Currency)
	totals := [5]money.Money{zero, zero, zero, zero, zero}
	for _, p := range s.Periods {
		for i, part := range []money.Money{p.PrincipalDue, p.InterestDue, p.FeeChargesDue, p.PenaltyChargesDue, p.TotalDue} {
			sum, err := totals[i].Add(part)
			if err != nil {
				return err
			}
			totals[i] = sum
		}
	}
	s.TotalPrincipal = totals[0]
	s.TotalInterest = totals[1]
	s.TotalFeeCharges = totals[2]
	s.TotalPenaltyCharges = totals[3]
	s.TotalRepayment = totals[4]
	if n := len(s.Periods); n > 0 {
		s.LoanEndDate = s.Periods[n-1].DueDate
	}
	return nil
}
