package amortization

import (
	"sort"

	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/money"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

// Paid is what transactions covered of one period's dues.
type Paid struct {
	PeriodNumber int
	Principal    money.Money
	Interest     money.Money
	Fees         money.Money
	Penalties    money.Money
}

// ProcessResult is the outcome of applying transactions to a run of periods.
type ProcessResult struct {
	Paid []Paid
	// Excess is repayment left over once every period is settled.
	Excess money.Money
	Waived money.Money
}

// TransactionProcessor allocates posted transactions across schedule periods.
type TransactionProcessor interface {
	Process(periods []domain.Period, transactions []domain.Transaction) (ProcessResult, error)
}

// PenaltiesFeesInterestPrincipalProcessor settles periods oldest first and, inside
// a period, pays penalties, then fees, then interest, then principal.
type PenaltiesFeesInterestPrincipalProcessor struct{}

func NewDefaultProcessor() *PenaltiesFeesInterestPrincipalProcessor {
	return &PenaltiesFeesInterestPrincipalProcessor{}
}

func (p *PenaltiesFeesInterestPrincipalProcessor) Process(periods []domain.Period, transactions []domain.Transaction) (ProcessResult, error) {
	if len(periods) == 0 && len(transactions) == 0 {
		return ProcessResult{}, nil
	}
	currency, err := processorCurrency(periods, transactions)
	if err != nil {
		return ProcessResult{}, err
	}
	zero := money.Zero(currency)
	result := ProcessResult{Paid: make([]Paid, len(periods)), Excess: zero, Waived: zero}
	for i, period := range periods {
		result.Paid[i] = Paid{PeriodNumber: period.PeriodNumber, Principal: zero, Interest: zero, Fees: zero, Penalties: zero}
	}

	ordered := make([]domain.Transaction, len(transactions))
	copy(ordered, transactions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	for _, tx := range ordered {
		if tx.Amount.Currency().Code != currency.Code {
			return ProcessResult{}, customError.WrapCurrencyMismatch(currency.Code, tx.Amount.Currency().Code)
		}
		if !tx.Amount.IsPositive() {
			return ProcessResult{}, customError.WrapInvalidPaymentAmount(tx.Amount.String())
		}
		switch tx.Type {
		case domain.TransactionRepayment:
			left, err := settle(periods, result.Paid, tx.Amount)
			if err != nil {
				return ProcessResult{}, err
			}
			if result.Excess, err = result.Excess.Add(left); err != nil {
				return ProcessResult{}, err
			}
		case domain.TransactionInterestWaiver:
			left, err := waive(periods, result.Paid, tx.Amount)
			if err != nil {
				return ProcessResult{}, err
			}
			if left.IsPositive() {
				return ProcessResult{}, customError.Upstream("waiver %s on %s exceeds the interest due", tx.ID, utils.FormatDate(tx.Date))
			}
			if result.Waived, err = result.Waived.Add(tx.Amount); err != nil {
				return ProcessResult{}, err
			}
		default:
			return ProcessResult{}, customError.Unsupported("transaction type %q", string(tx.Type))
		}
	}
	return result, nil
}

func processorCurrency(periods []domain.Period, transactions []domain.Transaction) (money.Currency, error) {
	if len(periods) > 0 {
		return periods[0].PrincipalDue.Currency(), nil
	}
	return transactions[0].Amount.Currency(), nil
}

func settle(periods []domain.Period, paid []Paid, amount money.Money) (money.Money, error) {
	left := amount
	for i := range periods {
		steps := []struct {
			due  money.Money
			paid *money.Money
		}{
			{periods[i].PenaltyChargesDue, &paid[i].Penalties},
			{periods[i].FeeChargesDue, &paid[i].Fees},
			{periods[i].InterestDue, &paid[i].Interest},
			{periods[i].PrincipalDue, &paid[i].Principal},
		}
		for _, step := range steps {
			var err error
			if left, err = take(step.due, step.paid, left); err != nil {
				return money.Money{}, err
			}
			if left.IsZero() {
				return left, nil
			}
		}
	}
	return left, nil
}

func waive(periods []domain.Period, paid []Paid, amount money.Money) (money.Money, error) {
	left := amount
	for i := range periods {
		var err error
		if left, err = take(periods[i].InterestDue, &paid[i].Interest, left); err != nil {
			return money.Money{}, err
		}
		if left.IsZero() {
			break
		}
	}
	return left, nil
}

// take moves up to the unpaid part of due from left into paid and returns what is left.
func take(due money.Money, paid *money.Money, left money.Money) (money.Money, error) {
	unpaid, err := due.Sub(*paid)
	if err != nil {
		return money.Money{}, err
	}
	if !unpaid.IsPositive() {
		return left, nil
	}
	portion := unpaid
	if cmp, err := left.Cmp(unpaid); err != nil {
		return money.Money{}, err
	} else if cmp < 0 {
		portion = left
	}
	if *paid, err = paid.Add(portion); err != nil {
		return money.Money{}, err
	}
	return left.Sub(portion)
}
