package domain

import (
	"time"

	"github.com/shopspring/decimal"

	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/money"
)

var hundred = decimal.NewFromInt(100)

// LoanApplicationTerms is the parameter set every schedule calculation is driven by.
// The engine treats it as read-only; installment overrides that change mid-term
// live in an OverrideTable instead of on the terms.
//
// Rates are nominal percentages (24 means 24%).
type LoanApplicationTerms struct {
	Currency     money.Currency
	RoundingMode money.RoundingMode

	InterestMethod                  InterestMethod
	AmortizationMethod              AmortizationMethod
	InterestCalculationPeriodMethod InterestCalculationPeriodMethod

	LoanTermFrequency      int
	LoanTermFrequencyType  FrequencyType
	RepaymentEvery         int
	RepaymentFrequencyType FrequencyType
	NumberOfRepayments     int
	// NthDay pins monthly due dates to the nth RepaymentWeekday of the month
	// (1..5, or -1 for the last one). Zero means unset.
	NthDay           int
	RepaymentWeekday time.Weekday

	Principal                 money.Money
	ApprovedPrincipal         money.Money
	InterestRatePerPeriod     decimal.Decimal
	InterestRateFrequencyType FrequencyType
	// AnnualNominalInterestRate is derived from the per-period rate when zero.
	AnnualNominalInterestRate decimal.Decimal
	InArrearsTolerance        money.Money
	MaxOutstandingBalance     *money.Money
	FixedEMI                  *money.Money
	FixedPrincipal            *money.Money
	Disbursements             []Disbursement

	ExpectedDisbursementDate             time.Time
	RepaymentsStartingFromDate           *time.Time
	CalculatedRepaymentsStartingFromDate *time.Time
	InterestChargedFromDate              *time.Time

	PrincipalGrace        int
	InterestPaymentGrace  int
	InterestChargingGrace int
	ArrearsAgeingGrace    int

	DaysInMonthType            DaysInMonthType
	DaysInYearType             DaysInYearType
	AllowPartialPeriodInterest bool

	InterestRecalculationEnabled bool
	RecalculationStrategy        RecalculationStrategy
	CompoundingMethod            CompoundingMethod
	SyncRepaymentsWithMeeting    bool
	RepaymentCalendar            RecurringCalendar

	// InstallmentAmountInMultiplesOf falls back to the currency's increment when zero.
	InstallmentAmountInMultiplesOf decimal.Decimal
	// PrincipalThresholdForLastInstallment is a percentage of the period's principal.
	PrincipalThresholdForLastInstallment decimal.Decimal

	Variations []TermVariation
}

// Validate fails fast on any value the engine cannot compute with.
func (t *LoanApplicationTerms) Validate() error {
	for _, err := range []error{
		t.InterestMethod.Validate(),
		t.AmortizationMethod.Validate(),
		t.InterestCalculationPeriodMethod.Validate(),
		t.RepaymentFrequencyType.Validate(),
		t.DaysInMonthType.Validate(),
		t.DaysInYearType.Validate(),
	} {
		if err != nil {
			return err
		}
	}
	if err := t.RoundingMode.Validate(); err != nil {
		return customError.Unsupported("%v", err)
	}
	if t.LoanTermFrequencyType != "" {
		if err := t.LoanTermFrequencyType.Validate(); err != nil {
			return err
		}
	}
	if t.InterestRateFrequencyType != "" {
		if err := t.InterestRateFrequencyType.Validate(); err != nil {
			return err
		}
	}
	if t.InterestRecalculationEnabled {
		if err := t.RecalculationStrategy.Validate(); err != nil {
			return err
		}
	}
	if t.CompoundingMethod != "" {
		if err := t.CompoundingMethod.Validate(); err != nil {
			return err
		}
	}

	if t.RepaymentEvery <= 0 {
		return customError.Unsupported("repayment every must be positive, got %d", t.RepaymentEvery)
	}
	if t.NumberOfRepayments <= 0 {
		return customError.Unsupported("number of repayments must be positive, got %d", t.NumberOfRepayments)
	}
	n := t.ActualNumberOfRepayments()
	if n <= 0 {
		return customError.Unsupported("term variations leave %d repayments", n)
	}
	if t.PrincipalGrace < 0 || t.InterestPaymentGrace < 0 || t.InterestChargingGrace < 0 || t.ArrearsAgeingGrace < 0 {
		return customError.Unsupported("grace counts must not be negative")
	}
	if t.PrincipalGrace >= n {
		return customError.Unsupported("principal grace %d leaves no repayment period out of %d", t.PrincipalGrace, n)
	}
	if t.InterestFreePeriods() >= n {
		return customError.Unsupported("interest grace %d leaves no interest period out of %d", t.InterestFreePeriods(), n)
	}
	if t.NthDay != 0 {
		if t.RepaymentFrequencyType != FrequencyMonths {
			return customError.Unsupported("nth day is only valid for monthly repayments")
		}
		if t.NthDay != -1 && (t.NthDay < 1 || t.NthDay > 5) {
			return customError.Unsupported("nth day %d", t.NthDay)
		}
	}

	if t.Principal.Currency().Code != t.Currency.Code {
		return customError.WrapCurrencyMismatch(t.Currency.Code, t.Principal.Currency().Code)
	}
	if !t.Principal.IsPositive() {
		return customError.Unsupported("principal must be positive, got %s", t.Principal)
	}
	if t.InterestRatePerPeriod.IsNegative() || t.AnnualNominalInterestRate.IsNegative() {
		return customError.Unsupported("interest rate must not be negative")
	}
	if t.PrincipalThresholdForLastInstallment.IsNegative() || t.PrincipalThresholdForLastInstallment.GreaterThan(hundred) {
		return customError.Unsupported("principal threshold %s%% out of range", t.PrincipalThresholdForLastInstallment)
	}
	for _, m := range []*money.Money{t.FixedEMI, t.FixedPrincipal, t.MaxOutstandingBalance} {
		if m != nil && m.Currency().Code != t.Currency.Code {
			return customError.WrapCurrencyMismatch(t.Currency.Code, m.Currency().Code)
		}
	}
	if err := t.validateTranches(); err != nil {
		return err
	}

	if t.SyncRepaymentsWithMeeting && t.RepaymentCalendar == nil {
		return customError.Upstream("repayments are synced with meetings but no calendar is attached")
	}
	if t.RepaymentCalendar != nil && t.RepaymentCalendar.Frequency() != t.RepaymentFrequencyType {
		return customError.Upstream("meeting calendar frequency %s does not match repayment frequency %s",
			t.RepaymentCalendar.Frequency(), t.RepaymentFrequencyType)
	}
	return nil
}

func (t *LoanApplicationTerms) validateTranches() error {
	if len(t.Disbursements) == 0 {
		return nil
	}
	if t.IsMultiTranche() && t.InterestMethod == InterestFlat {
		return customError.Unsupported("multi-tranche disbursement is not supported for flat interest")
	}
	total := money.Zero(t.Currency)
	previous := t.ExpectedDisbursementDate
	for i, d := range t.Disbursements {
		if d.Date.Before(previous) {
			return customError.Upstream("tranche %d on %s is before the previous disbursement", i+1, d.Date.Format("2006-01-02"))
		}
		previous = d.Date
		sum, err := total.Add(d.Amount)
		if err != nil {
			return err
		}
		total = sum
	}
	if !total.Equal(t.Principal) {
		return customError.Upstream("tranches total %s but principal is %s", total, t.Principal)
	}
	return nil
}

// ActualNumberOfRepayments is the requested count adjusted by term variations.
func (t *LoanApplicationTerms) ActualNumberOfRepayments() int {
	n := t.NumberOfRepayments
	for _, v := range t.Variations {
		n += v.RepaymentAdjustment()
	}
	return n
}

// FirstRepaymentDate is the calculated start date, else the explicit one, else nil.
func (t *LoanApplicationTerms) FirstRepaymentDate() *time.Time {
	if t.CalculatedRepaymentsStartingFromDate != nil {
		return t.CalculatedRepaymentsStartingFromDate
	}
	return t.RepaymentsStartingFromDate
}

// SeedDate anchors calendar alignment: the first repayment date when one is
// fixed, otherwise the disbursement date.
func (t *LoanApplicationTerms) SeedDate() time.Time {
	if first := t.FirstRepaymentDate(); first != nil {
		return *first
	}
	return t.ExpectedDisbursementDate
}

// InterestStartDate is the later of disbursement and the interest-charged-from date.
func (t *LoanApplicationTerms) InterestStartDate() time.Time {
	if t.InterestChargedFromDate != nil && t.InterestChargedFromDate.After(t.ExpectedDisbursementDate) {
		return *t.InterestChargedFromDate
	}
	return t.ExpectedDisbursementDate
}

// Tranches returns the disbursements, or the whole principal on the expected date.
func (t *LoanApplicationTerms) Tranches() []Disbursement {
	if len(t.Disbursements) > 0 {
		return t.Disbursements
	}
	return []Disbursement{{Date: t.ExpectedDisbursementDate, Amount: t.Principal}}
}

// IsMultiTranche reports whether the principal is released in more than one tranche.
func (t *LoanApplicationTerms) IsMultiTranche() bool {
	return len(t.Disbursements) > 1
}

// PeriodsPerYear maps a frequency to its nominal number of periods in a year.
func PeriodsPerYear(f FrequencyType) (int64, error) {
	switch f {
	case FrequencyDays:
		return 365, nil
	case FrequencyWeeks:
		return 52, nil
	case FrequencyMonths:
		return 12, nil
	case FrequencyYears:
		return 1, nil
	}
	return 0, customError.Unsupported("frequency type %q", string(f))
}

// AnnualNominalRate returns the annual rate, annualizing the per-period rate when
// no annual rate is set. This is a nominal rate, not an APR.
func (t *LoanApplicationTerms) AnnualNominalRate() (decimal.Decimal, error) {
	if !t.AnnualNominalInterestRate.IsZero() || t.InterestRatePerPeriod.IsZero() {
		return t.AnnualNominalInterestRate, nil
	}
	freq := t.InterestRateFrequencyType
	if freq == "" {
		freq = t.RepaymentFrequencyType
	}
	perYear, err := PeriodsPerYear(freq)
	if err != nil {
		return decimal.Zero, err
	}
	return t.InterestRatePerPeriod.Mul(decimal.NewFromInt(perYear)), nil
}

// RepaymentPeriodsPerYear is the number of repayment-frequency units in a year
// under the terms' day-count convention.
func (t *LoanApplicationTerms) RepaymentPeriodsPerYear() (decimal.Decimal, error) {
	if t.RepaymentFrequencyType == FrequencyDays {
		days, err := t.DaysInYearType.DaysIn(t.ExpectedDisbursementDate.Year())
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromInt(int64(days)), nil
	}
	perYear, err := PeriodsPerYear(t.RepaymentFrequencyType)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromInt(perYear), nil
}

// PeriodicRate is the frequency-based rate (as a fraction) for one standard
// repayment period of RepaymentEvery units.
func (t *LoanApplicationTerms) PeriodicRate() (decimal.Decimal, error) {
	annual, err := t.AnnualNominalRate()
	if err != nil {
		return decimal.Zero, err
	}
	perYear, err := t.RepaymentPeriodsPerYear()
	if err != nil {
		return decimal.Zero, err
	}
	return annual.Div(hundred).Div(perYear).Mul(decimal.NewFromInt(int64(t.RepaymentEvery))), nil
}

// InstallmentMultiple is the increment installments are rounded to; zero when unset.
func (t *LoanApplicationTerms) InstallmentMultiple() decimal.Decimal {
	if t.InstallmentAmountInMultiplesOf.IsPositive() {
		return t.InstallmentAmountInMultiplesOf
	}
	return decimal.NewFromInt(t.Currency.InMultiplesOf)
}

func (t *LoanApplicationTerms) IsPrincipalGrace(period int) bool {
	return period <= t.PrincipalGrace
}

func (t *LoanApplicationTerms) IsInterestPaymentGrace(period int) bool {
	return period <= t.InterestPaymentGrace
}

func (t *LoanApplicationTerms) IsInterestChargingGrace(period int) bool {
	return period <= t.InterestChargingGrace
}

// InterestFreePeriods is the number of leading periods with no interest due.
func (t *LoanApplicationTerms) InterestFreePeriods() int {
	if t.InterestChargingGrace > t.InterestPaymentGrace {
		return t.InterestChargingGrace
	}
	return t.InterestPaymentGrace
}

// ThresholdFraction returns the last-installment principal threshold as a fraction.
func (t *LoanApplicationTerms) ThresholdFraction() decimal.Decimal {
	return t.PrincipalThresholdForLastInstallment.Div(hundred)
}
