package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusActive = "active"
	LoanStatusClosed = "closed"
)

const (
	ScheduleStatusPending = "pending"
	ScheduleStatusOverdue = "overdue"
	ScheduleStatusPaid    = "paid"
)

// Loan represents a persisted loan. Request holds the ScheduleRequest the loan
// was created from so its terms can be rebuilt for a reschedule.
type Loan struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	LoanID    string          `json:"loan_id" db:"loan_id"`
	Currency  string          `json:"currency" db:"currency"`
	Principal decimal.Decimal `json:"principal" db:"principal"`
	Request   json.RawMessage `json:"request" db:"request"`
	Status    string          `json:"status" db:"status"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// LoanSchedule is one persisted schedule row. Disbursement rows have period number 0.
type LoanSchedule struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	LoanID             string          `json:"loan_id" db:"loan_id"`
	PeriodNumber       int             `json:"period_number" db:"period_number"`
	FromDate           time.Time       `json:"from_date" db:"from_date"`
	DueDate            time.Time       `json:"due_date" db:"due_date"`
	PrincipalDisbursed decimal.Decimal `json:"principal_disbursed" db:"principal_disbursed"`
	PrincipalDue       decimal.Decimal `json:"principal_due" db:"principal_due"`
	InterestDue        decimal.Decimal `json:"interest_due" db:"interest_due"`
	FeeChargesDue      decimal.Decimal `json:"fee_charges_due" db:"fee_charges_due"`
	PenaltyChargesDue  decimal.Decimal `json:"penalty_charges_due" db:"penalty_charges_due"`
	TotalDue           decimal.Decimal `json:"total_due" db:"total_due"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance" db:"outstanding_balance"`
	Recalculated       bool            `json:"recalculated" db:"recalculated"`
	Status             string          `json:"status" db:"status"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
}

// LoanTransaction is a persisted repayment or interest waiver.
type LoanTransaction struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	LoanID          string          `json:"loan_id" db:"loan_id"`
	Type            string          `json:"type" db:"type"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	TransactionDate time.Time       `json:"transaction_date" db:"transaction_date"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// DTOs for requests and responses

// ScheduleRequest describes a loan product and its terms. Enum fields take the
// same values as the engine's enums; empty optional fields fall back to configuration.
type ScheduleRequest struct {
	Currency                  string           `json:"currency,omitempty" validate:"omitempty,len=3,uppercase"`
	RoundingMode              string           `json:"rounding_mode,omitempty"`
	Principal                 decimal.Decimal  `json:"principal" validate:"decimal_gt=0"`
	AnnualInterestRate        decimal.Decimal  `json:"annual_interest_rate" validate:"decimal_gte=0"`
	InterestMethod            string           `json:"interest_method" validate:"required,oneof=FLAT DECLINING_BALANCE"`
	AmortizationMethod        string           `json:"amortization_method" validate:"required,oneof=EQUAL_INSTALLMENTS EQUAL_PRINCIPAL"`
	InterestCalculationPeriod string           `json:"interest_calculation_period,omitempty" validate:"omitempty,oneof=DAILY SAME_AS_REPAYMENT_PERIOD"`
	RepaymentEvery            int              `json:"repayment_every" validate:"required,gt=0"`
	RepaymentFrequency        string           `json:"repayment_frequency" validate:"required,oneof=DAYS WEEKS MONTHS YEARS"`
	NumberOfRepayments        int              `json:"number_of_repayments" validate:"required,gt=0"`
	NthDay                    int              `json:"nth_day,omitempty" validate:"min=-1,max=5"`
	RepaymentWeekday          int              `json:"repayment_weekday,omitempty" validate:"min=0,max=6"`
	DisbursementDate          string           `json:"disbursement_date" validate:"required,datetime=2006-01-02"`
	FirstRepaymentDate        string           `json:"first_repayment_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	InterestChargedFrom       string           `json:"interest_charged_from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PrincipalGrace            int              `json:"principal_grace,omitempty" validate:"gte=0"`
	InterestPaymentGrace      int              `json:"interest_payment_grace,omitempty" validate:"gte=0"`
	InterestChargingGrace     int              `json:"interest_charging_grace,omitempty" validate:"gte=0"`
	DaysInMonth               string           `json:"days_in_month,omitempty" validate:"omitempty,oneof=ACTUAL DAYS_30"`
	DaysInYear                string           `json:"days_in_year,omitempty" validate:"omitempty,oneof=ACTUAL DAYS_360 DAYS_364 DAYS_365"`
	PartialPeriodInterest     bool             `json:"partial_period_interest,omitempty"`
	InterestRecalculation     bool             `json:"interest_recalculation,omitempty"`
	RecalculationStrategy     string           `json:"recalculation_strategy,omitempty" validate:"omitempty,oneof=REDUCE_EMI REDUCE_NUMBER_OF_INSTALLMENTS"`
	InstallmentMultiple       decimal.Decimal  `json:"installment_multiple,omitempty" validate:"decimal_gte=0"`
	PrincipalThreshold        *decimal.Decimal `json:"principal_threshold,omitempty"`
	FixedEMI                  *decimal.Decimal `json:"fixed_emi,omitempty"`
	MaxOutstandingBalance     *decimal.Decimal `json:"max_outstanding_balance,omitempty"`

	Disbursements   []DisbursementRequest   `json:"disbursements,omitempty" validate:"dive"`
	Charges         []ChargeRequest         `json:"charges,omitempty" validate:"dive"`
	Variations      []VariationRequest      `json:"variations,omitempty" validate:"dive"`
	MeetingCalendar *MeetingCalendarRequest `json:"meeting_calendar,omitempty"`
}

type DisbursementRequest struct {
	Date     string           `json:"date" validate:"required,datetime=2006-01-02"`
	Amount   decimal.Decimal  `json:"amount" validate:"decimal_gt=0"`
	FixedEMI *decimal.Decimal `json:"fixed_emi,omitempty"`
}

type ChargeRequest struct {
	Name     string          `json:"name" validate:"required"`
	TimeType string          `json:"time_type" validate:"required,oneof=DISBURSEMENT SPECIFIED_DUE_DATE INSTALLMENT_FEE"`
	Amount   decimal.Decimal `json:"amount" validate:"decimal_gt=0"`
	Penalty  bool            `json:"penalty,omitempty"`
	DueDate  string          `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type VariationRequest struct {
	Type         string           `json:"type" validate:"required,oneof=DUE_DATE INSERT_INSTALLMENT DELETE_INSTALLMENT EXTEND_REPAYMENT_PERIOD EMI_AMOUNT PRINCIPAL_AMOUNT"`
	PeriodNumber int              `json:"period_number,omitempty" validate:"gte=0"`
	DueDate      string           `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Count        int              `json:"count,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
}

// MeetingCalendarRequest attaches a recurring meeting calendar given as a
// standard five-field cron expression.
type MeetingCalendarRequest struct {
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	Expression string `json:"expression" validate:"required"`
	Frequency  string `json:"frequency" validate:"required,oneof=DAYS WEEKS MONTHS YEARS"`
	Sync       bool   `json:"sync,omitempty"`
}

type CreateLoanRequest struct {
	LoanID string `json:"loan_id" validate:"required"`
	ScheduleRequest
}

type CreateLoanResponse struct {
	Loan     *Loan     `json:"loan"`
	Schedule *Schedule `json:"schedule"`
}

type MakePaymentRequest struct {
	Type   string          `json:"type,omitempty" validate:"omitempty,oneof=REPAYMENT WAIVE_INTEREST"`
	Amount decimal.Decimal `json:"amount" validate:"decimal_gt=0"`
	Date   string          `json:"date" validate:"required,datetime=2006-01-02"`
}

type PaymentResponse struct {
	Transaction *LoanTransaction `json:"transaction"`
	Schedule    *Schedule        `json:"schedule"`
}
