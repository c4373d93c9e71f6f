package domain

import (
	"sort"
	"time"

	"github.com/segyhp/amortization-engine/pkg/money"
)

// VariationType enumerates the loan-term variations the engine understands.
type VariationType string

const (
	VariationDueDate               VariationType = "DUE_DATE"
	VariationInsertInstallment     VariationType = "INSERT_INSTALLMENT"
	VariationDeleteInstallment     VariationType = "DELETE_INSTALLMENT"
	VariationExtendRepaymentPeriod VariationType = "EXTEND_REPAYMENT_PERIOD"
	VariationEMIAmount             VariationType = "EMI_AMOUNT"
	VariationPrincipalAmount       VariationType = "PRINCIPAL_AMOUNT"
)

// TermVariation is an explicit override of the loan's terms owned by the
// rescheduling collaborator.
type TermVariation struct {
	Type VariationType `json:"type"`
	// PeriodNumber is the period a due-date change applies to, or the first
	// period an EMI/principal override applies from.
	PeriodNumber int          `json:"period_number"`
	DueDate      time.Time    `json:"due_date,omitempty"`
	Count        int          `json:"count,omitempty"`
	Amount       *money.Money `json:"amount,omitempty"`
}

// RepaymentAdjustment is this variation's contribution to the actual number of repayments.
func (v TermVariation) RepaymentAdjustment() int {
	switch v.Type {
	case VariationInsertInstallment:
		return 1
	case VariationDeleteInstallment:
		return -1
	case VariationExtendRepaymentPeriod:
		return v.Count
	}
	return 0
}

// Disbursement is one tranche of a multi-disbursement loan.
type Disbursement struct {
	Date   time.Time   `json:"date"`
	Amount money.Money `json:"amount"`
	// FixedEMI replaces the installment for the periods after this tranche.
	FixedEMI *money.Money `json:"fixed_emi,omitempty"`
}

// PeriodOverride fixes the installment or principal from FromPeriod onwards.
type PeriodOverride struct {
	FromPeriod     int
	FixedEMI       *money.Money
	FixedPrincipal *money.Money
}

// OverrideTable is the per-period override table derived from term variations.
// It is built once per generation and never mutated by the allocator.
type OverrideTable struct {
	overrides []PeriodOverride
	dueDates  map[int]time.Time
}

// NewOverrideTable builds the table from variations; later variations win on ties.
func NewOverrideTable(variations []TermVariation) OverrideTable {
	table := OverrideTable{dueDates: make(map[int]time.Time)}
	for _, v := range variations {
		switch v.Type {
		case VariationDueDate:
			table.dueDates[v.PeriodNumber] = v.DueDate
		case VariationEMIAmount:
			table.overrides = append(table.overrides, PeriodOverride{FromPeriod: v.PeriodNumber, FixedEMI: v.Amount})
		case VariationPrincipalAmount:
			table.overrides = append(table.overrides, PeriodOverride{FromPeriod: v.PeriodNumber, FixedPrincipal: v.Amount})
		}
	}
	sort.SliceStable(table.overrides, func(i, j int) bool {
		return table.overrides[i].FromPeriod < table.overrides[j].FromPeriod
	})
	return table
}

// FixedEMI returns the installment override in force for the period, if any.
func (t OverrideTable) FixedEMI(period int) *money.Money {
	var current *money.Money
	for _, o := range t.overrides {
		if o.FromPeriod > period {
			break
		}
		if o.FixedEMI != nil {
			current = o.FixedEMI
		}
	}
	return current
}

// FixedPrincipal returns the principal override in force for the period, if any.
func (t OverrideTable) FixedPrincipal(period int) *money.Money {
	var current *money.Money
	for _, o := range t.overrides {
		if o.FromPeriod > period {
			break
		}
		if o.FixedPrincipal != nil {
			current = o.FixedPrincipal
		}
	}
	return current
}

// StartsAt reports whether an override begins exactly at period.
func (t OverrideTable) StartsAt(period int) bool {
	for _, o := range t.overrides {
		if o.FromPeriod == period {
			return true
		}
	}
	return false
}

// DueDate returns the explicit due date for the period, if a variation set one.
func (t OverrideTable) DueDate(period int) (time.Time, bool) {
	d, ok := t.dueDates[period]
	return d, ok
}
