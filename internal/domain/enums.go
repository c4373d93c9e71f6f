package domain

import (
	"time"

	customError "github.com/segyhp/amortization-engine/pkg/errors"
)

// FrequencyType is the unit a loan term or repayment cadence is expressed in.
type FrequencyType string

const (
	FrequencyDays   FrequencyType = "DAYS"
	FrequencyWeeks  FrequencyType = "WEEKS"
	FrequencyMonths FrequencyType = "MONTHS"
	FrequencyYears  FrequencyType = "YEARS"
)

func (f FrequencyType) Validate() error {
	switch f {
	case FrequencyDays, FrequencyWeeks, FrequencyMonths, FrequencyYears:
		return nil
	}
	return customError.Unsupported("frequency type %q", string(f))
}

// InterestMethod decides what balance interest is charged on.
type InterestMethod string

const (
	InterestFlat             InterestMethod = "FLAT"
	InterestDecliningBalance InterestMethod = "DECLINING_BALANCE"
)

func (m InterestMethod) Validate() error {
	switch m {
	case InterestFlat, InterestDecliningBalance:
		return nil
	}
	return customError.Unsupported("interest method %q", string(m))
}

// AmortizationMethod decides which component of the installment is held constant.
type AmortizationMethod string

const (
	AmortizationEqualInstallments AmortizationMethod = "EQUAL_INSTALLMENTS"
	AmortizationEqualPrincipal    AmortizationMethod = "EQUAL_PRINCIPAL"
)

func (m AmortizationMethod) Validate() error {
	switch m {
	case AmortizationEqualInstallments, AmortizationEqualPrincipal:
		return nil
	}
	return customError.Unsupported("amortization method %q", string(m))
}

// InterestCalculationPeriodMethod selects day-exact or per-period interest.
type InterestCalculationPeriodMethod string

const (
	InterestPeriodDaily           InterestCalculationPeriodMethod = "DAILY"
	InterestPeriodSameAsRepayment InterestCalculationPeriodMethod = "SAME_AS_REPAYMENT_PERIOD"
)

func (m InterestCalculationPeriodMethod) Validate() error {
	switch m {
	case InterestPeriodDaily, InterestPeriodSameAsRepayment:
		return nil
	}
	return customError.Unsupported("interest calculation period method %q", string(m))
}

type DaysInMonthType string

const (
	DaysInMonthActual DaysInMonthType = "ACTUAL"
	DaysInMonth30     DaysInMonthType = "DAYS_30"
)

func (t DaysInMonthType) Validate() error {
	switch t {
	case DaysInMonthActual, DaysInMonth30:
		return nil
	}
	return customError.Unsupported("days in month type %q", string(t))
}

type DaysInYearType string

const (
	DaysInYearActual DaysInYearType = "ACTUAL"
	DaysInYear360    DaysInYearType = "DAYS_360"
	DaysInYear364    DaysInYearType = "DAYS_364"
	DaysInYear365    DaysInYearType = "DAYS_365"
)

func (t DaysInYearType) Validate() error {
	switch t {
	case DaysInYearActual, DaysInYear360, DaysInYear364, DaysInYear365:
		return nil
	}
	return customError.Unsupported("days in year type %q", string(t))
}

// DaysIn resolves the convention for a period falling in year.
func (t DaysInYearType) DaysIn(year int) (int, error) {
	switch t {
	case DaysInYearActual:
		return YearLength(year), nil
	case DaysInYear360:
		return 360, nil
	case DaysInYear364:
		return 364, nil
	case DaysInYear365:
		return 365, nil
	}
	return 0, customError.Unsupported("days in year type %q", string(t))
}

// YearLength returns 366 for leap years and 365 otherwise.
func YearLength(year int) int {
	if time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay() == 366 {
		return 366
	}
	return 365
}

// RescheduleType is the working-days policy for a due date landing on a non-working day.
type RescheduleType string

const (
	RescheduleSameDay            RescheduleType = "SAME_DAY"
	RescheduleNextWorkingDay     RescheduleType = "MOVE_TO_NEXT_WORKING_DAY"
	RescheduleNextMeetingDay     RescheduleType = "MOVE_TO_NEXT_MEETING_DAY"
	ReschedulePreviousWorkingDay RescheduleType = "MOVE_TO_PREVIOUS_WORKING_DAY"
)

func (t RescheduleType) Validate() error {
	switch t {
	case RescheduleSameDay, RescheduleNextWorkingDay, RescheduleNextMeetingDay, ReschedulePreviousWorkingDay:
		return nil
	}
	return customError.Unsupported("reschedule type %q", string(t))
}

// RecalculationStrategy decides how a reschedule absorbs a prepayment.
type RecalculationStrategy string

const (
	RecalculationReduceEMI                  RecalculationStrategy = "REDUCE_EMI"
	RecalculationReduceNumberOfInstallments RecalculationStrategy = "REDUCE_NUMBER_OF_INSTALLMENTS"
)

func (s RecalculationStrategy) Validate() error {
	switch s {
	case RecalculationReduceEMI, RecalculationReduceNumberOfInstallments:
		return nil
	}
	return customError.Unsupported("recalculation strategy %q", string(s))
}

// CompoundingMethod is carried for the recalculation collaborator; the engine does not compound.
type CompoundingMethod string

const (
	CompoundingNone           CompoundingMethod = "NONE"
	CompoundingInterest       CompoundingMethod = "INTEREST"
	CompoundingFee            CompoundingMethod = "FEE"
	CompoundingInterestAndFee CompoundingMethod = "INTEREST_AND_FEE"
)

func (c CompoundingMethod) Validate() error {
	switch c {
	case CompoundingNone, CompoundingInterest, CompoundingFee, CompoundingInterestAndFee:
		return nil
	}
	return customError.Unsupported("compounding method %q", string(c))
}
