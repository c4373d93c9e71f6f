package amortization

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/amortization-engine/internal/daycount"
	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// AnnualizedRate multiplies a per-period rate by the periods in a year for its
// frequency. The result is a nominal rate; it is not an APR.
func AnnualizedRate(frequency domain.FrequencyType, ratePerPeriod decimal.Decimal) (decimal.Decimal, error) {
	perYear, err := domain.PeriodsPerYear(frequency)
	if err != nil {
		return decimal.Zero, err
	}
	return ratePerPeriod.Mul(decimal.NewFromInt(perYear)), nil
}

// PeriodsInLoanTerm measures the interest-bearing term in repayment frequency
// units, according to the interest calculation period method.
func PeriodsInLoanTerm(terms *domain.LoanApplicationTerms, loanEnd time.Time) (decimal.Decimal, error) {
	switch terms.InterestCalculationPeriodMethod {
	case domain.InterestPeriodDaily:
		fraction, err := daycount.YearFraction(terms.DaysInMonthType, terms.DaysInYearType, terms.InterestStartDate(), loanEnd)
		if err != nil {
			return decimal.Zero, err
		}
		unitsPerYear, err := terms.RepaymentPeriodsPerYear()
		if err != nil {
			return decimal.Zero, err
		}
		return fraction.Mul(unitsPerYear), nil
	case domain.InterestPeriodSameAsRepayment:
		every := decimal.NewFromInt(int64(terms.RepaymentEvery))
		if terms.AllowPartialPeriodInterest {
			fraction, err := daycount.PeriodFraction(terms.RepaymentFrequencyType, terms.RepaymentEvery, terms.InterestStartDate(), loanEnd)
			if err != nil {
				return decimal.Zero, err
			}
			return fraction.Mul(every), nil
		}
		return loanTermUnits(terms)
	}
	return decimal.Zero, terms.InterestCalculationPeriodMethod.Validate()
}

// loanTermUnits converts the configured loan term into repayment frequency
// units. Variations that add or drop installments redefine the term, so the
// adjusted repayment count is used once any applies.
func loanTermUnits(terms *domain.LoanApplicationTerms) (decimal.Decimal, error) {
	n := terms.ActualNumberOfRepayments()
	if terms.LoanTermFrequency <= 0 || terms.LoanTermFrequencyType == "" || n != terms.NumberOfRepayments {
		return decimal.NewFromInt(int64(n * terms.RepaymentEvery)), nil
	}
	if terms.LoanTermFrequencyType == terms.RepaymentFrequencyType {
		return decimal.NewFromInt(int64(terms.LoanTermFrequency)), nil
	}
	start := terms.ExpectedDisbursementDate
	end, err := daycount.AddPeriods(start, terms.LoanTermFrequencyType, terms.LoanTermFrequency)
	if err != nil {
		return decimal.Zero, err
	}
	units, err := daycount.UnitsBetween(terms.RepaymentFrequencyType, start, end)
	if err != nil {
		return decimal.Zero, err
	}
	if units <= 0 {
		return decimal.Zero, customError.Unsupported("loan term of %d %s is shorter than one %s",
			terms.LoanTermFrequency, terms.LoanTermFrequencyType, terms.RepaymentFrequencyType)
	}
	return decimal.NewFromInt(int64(units)), nil
}

// periodRate is the interest rate, as a fraction, for a balance outstanding
// over [from, to] of a period that spans [periodFrom, to].
func periodRate(terms *domain.LoanApplicationTerms, periodFrom, from, to time.Time) (decimal.Decimal, error) {
	days, err := daycount.CountDays(terms.DaysInMonthType, from, to)
	if err != nil || days <= 0 {
		return decimal.Zero, err
	}
	annual, err := terms.AnnualNominalRate()
	if err != nil {
		return decimal.Zero, err
	}
	switch terms.InterestCalculationPeriodMethod {
	case domain.InterestPeriodDaily:
		fraction, err := daycount.YearFraction(terms.DaysInMonthType, terms.DaysInYearType, from, to)
		if err != nil {
			return decimal.Zero, err
		}
		return annual.Div(hundred).Mul(fraction), nil
	case domain.InterestPeriodSameAsRepayment:
		rate, err := terms.PeriodicRate()
		if err != nil {
			return decimal.Zero, err
		}
		if terms.AllowPartialPeriodInterest {
			fraction, err := daycount.PeriodFraction(terms.RepaymentFrequencyType, terms.RepaymentEvery, periodFrom, to)
			if err != nil {
				return decimal.Zero, err
			}
			rate = rate.Mul(fraction)
		}
		span, err := daycount.CountDays(terms.DaysInMonthType, periodFrom, to)
		if err != nil {
			return decimal.Zero, err
		}
		if from.After(periodFrom) && span > 0 {
			rate = rate.Mul(decimal.NewFromInt(int64(days))).Div(decimal.NewFromInt(int64(span)))
		}
		return rate, nil
	}
	return decimal.Zero, terms.InterestCalculationPeriodMethod.Validate()
}
