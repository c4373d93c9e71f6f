package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/amortization-engine/internal/calendar"
	"github.com/segyhp/amortization-engine/internal/domain"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/money"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

var knownCurrencies = map[string]money.Currency{
	money.USD.Code: money.USD,
	money.EUR.Code: money.EUR,
	money.IDR.Code: money.IDR,
}

// currencyFor resolves a request's currency code against the configured default.
func (s *ScheduleService) currencyFor(code string) (money.Currency, error) {
	def, err := s.config.Currency()
	if err != nil {
		return money.Currency{}, err
	}
	if code == "" || code == def.Code {
		return def, nil
	}
	if c, ok := knownCurrencies[code]; ok {
		return c, nil
	}
	return money.NewCurrency(code, 2, 0)
}

func parseOptionalDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := utils.ParseDate(value)
	if err != nil {
		return nil, customError.WrapValidation(fmt.Errorf("%s: %w", field, err))
	}
	return &d, nil
}

func optionalMoney(amount *decimal.Decimal, currency money.Currency) *money.Money {
	if amount == nil {
		return nil
	}
	m := money.New(*amount, currency)
	return &m
}

// buildTerms turns a request into engine terms and charges, filling the gaps
// from configuration.
func (s *ScheduleService) buildTerms(req *domain.ScheduleRequest) (*domain.LoanApplicationTerms, []domain.Charge, error) {
	currency, err := s.currencyFor(req.Currency)
	if err != nil {
		return nil, nil, customError.WrapValidation(err)
	}
	mode := s.config.GetRoundingMode()
	if req.RoundingMode != "" {
		if mode, err = money.ParseRoundingMode(req.RoundingMode); err != nil {
			return nil, nil, customError.WrapValidation(err)
		}
	}
	disbursed, err := utils.ParseDate(req.DisbursementDate)
	if err != nil {
		return nil, nil, customError.WrapValidation(fmt.Errorf("disbursement_date: %w", err))
	}
	firstRepayment, err := parseOptionalDate("first_repayment_date", req.FirstRepaymentDate)
	if err != nil {
		return nil, nil, err
	}
	interestFrom, err := parseOptionalDate("interest_charged_from", req.InterestChargedFrom)
	if err != nil {
		return nil, nil, err
	}

	principal := money.New(req.Principal, currency)
	terms := &domain.LoanApplicationTerms{
		Currency:                        currency,
		RoundingMode:                    mode,
		InterestMethod:                  domain.InterestMethod(req.InterestMethod),
		AmortizationMethod:              domain.AmortizationMethod(req.AmortizationMethod),
		InterestCalculationPeriodMethod: domain.InterestCalculationPeriodMethod(req.InterestCalculationPeriod),
		LoanTermFrequency:               req.NumberOfRepayments * req.RepaymentEvery,
		LoanTermFrequencyType:           domain.FrequencyType(req.RepaymentFrequency),
		RepaymentEvery:                  req.RepaymentEvery,
		RepaymentFrequencyType:          domain.FrequencyType(req.RepaymentFrequency),
		NumberOfRepayments:              req.NumberOfRepayments,
		NthDay:                          req.NthDay,
		RepaymentWeekday:                time.Weekday(req.RepaymentWeekday),
		Principal:                       principal,
		ApprovedPrincipal:               principal,
		AnnualNominalInterestRate:       req.AnnualInterestRate,
		InArrearsTolerance:              money.Zero(currency),
		MaxOutstandingBalance:           optionalMoney(req.MaxOutstandingBalance, currency),
		FixedEMI:                        optionalMoney(req.FixedEMI, currency),
		ExpectedDisbursementDate:        disbursed,
		RepaymentsStartingFromDate:      firstRepayment,
		InterestChargedFromDate:         interestFrom,
		PrincipalGrace:                  req.PrincipalGrace,
		InterestPaymentGrace:            req.InterestPaymentGrace,
		InterestChargingGrace:           req.InterestChargingGrace,
		DaysInMonthType:                 domain.DaysInMonthType(req.DaysInMonth),
		DaysInYearType:                  domain.DaysInYearType(req.DaysInYear),
		AllowPartialPeriodInterest:      req.PartialPeriodInterest,
		InterestRecalculationEnabled:    req.InterestRecalculation,
		RecalculationStrategy:           domain.RecalculationStrategy(req.RecalculationStrategy),
		InstallmentAmountInMultiplesOf:  req.InstallmentMultiple,
	}
	terms.PrincipalThresholdForLastInstallment = s.config.GetPrincipalThreshold()
	if terms.InterestCalculationPeriodMethod == "" {
		terms.InterestCalculationPeriodMethod = domain.InterestPeriodSameAsRepayment
	}
	if terms.DaysInMonthType == "" {
		terms.DaysInMonthType = domain.DaysInMonthActual
	}
	if terms.DaysInYearType == "" {
		terms.DaysInYearType = domain.DaysInYearActual
	}
	if terms.InterestRecalculationEnabled && terms.RecalculationStrategy == "" {
		terms.RecalculationStrategy = domain.RecalculationReduceEMI
	}
	if req.PrincipalThreshold != nil {
		terms.PrincipalThresholdForLastInstallment = *req.PrincipalThreshold
	}

	for i, d := range req.Disbursements {
		date, err := utils.ParseDate(d.Date)
		if err != nil {
			return nil, nil, customError.WrapValidation(fmt.Errorf("disbursements[%d].date: %w", i, err))
		}
		terms.Disbursements = append(terms.Disbursements, domain.Disbursement{
			Date:     date,
			Amount:   money.New(d.Amount, currency),
			FixedEMI: optionalMoney(d.FixedEMI, currency),
		})
	}

	for i, v := range req.Variations {
		dueDate, err := parseOptionalDate(fmt.Sprintf("variations[%d].due_date", i), v.DueDate)
		if err != nil {
			return nil, nil, err
		}
		variation := domain.TermVariation{
			Type:         domain.VariationType(v.Type),
			PeriodNumber: v.PeriodNumber,
			Count:        v.Count,
			Amount:       optionalMoney(v.Amount, currency),
		}
		if dueDate != nil {
			variation.DueDate = *dueDate
		}
		terms.Variations = append(terms.Variations, variation)
	}

	if mc := req.MeetingCalendar; mc != nil {
		start, err := utils.ParseDate(mc.StartDate)
		if err != nil {
			return nil, nil, customError.WrapValidation(fmt.Errorf("meeting_calendar.start_date: %w", err))
		}
		cal, err := calendar.NewCronCalendar(start, mc.Expression, domain.FrequencyType(mc.Frequency))
		if err != nil {
			return nil, nil, err
		}
		terms.RepaymentCalendar = cal
		terms.SyncRepaymentsWithMeeting = mc.Sync
	}

	charges := make([]domain.Charge, 0, len(req.Charges))
	for i, c := range req.Charges {
		charge := domain.Charge{
			Name:     c.Name,
			TimeType: domain.ChargeTimeType(c.TimeType),
			Amount:   money.New(c.Amount, currency),
			Penalty:  c.Penalty,
		}
		if charge.TimeType == domain.ChargeOnSpecifiedDueDate {
			dueDate, err := parseOptionalDate(fmt.Sprintf("charges[%d].due_date", i), c.DueDate)
			if err != nil {
				return nil, nil, err
			}
			if dueDate == nil {
				return nil, nil, customError.WrapValidation(fmt.Errorf("charges[%d].due_date is required for %s", i, c.TimeType))
			}
			charge.DueDate = *dueDate
		}
		charges = append(charges, charge)
	}

	return terms, charges, nil
}
