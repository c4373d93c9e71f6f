package domain

import (
	"time"

	"github.com/segyhp/amortization-engine/pkg/money"
)

// ChargeTimeType says when a charge becomes due.
type ChargeTimeType string

const (
	ChargeAtDisbursement     ChargeTimeType = "DISBURSEMENT"
	ChargeOnSpecifiedDueDate ChargeTimeType = "SPECIFIED_DUE_DATE"
	ChargePerInstallment     ChargeTimeType = "INSTALLMENT_FEE"
)

// Charge is a fee or penalty supplied by the charge subsystem.
type Charge struct {
	Name     string         `json:"name"`
	TimeType ChargeTimeType `json:"time_type"`
	Amount   money.Money    `json:"amount"`
	Penalty  bool           `json:"penalty"`
	// DueDate is only read for ChargeOnSpecifiedDueDate.
	DueDate time.Time `json:"due_date,omitempty"`
}

// TransactionType classifies loan transactions replayed during a reschedule.
type TransactionType string

const (
	TransactionRepayment      TransactionType = "REPAYMENT"
	TransactionInterestWaiver TransactionType = "WAIVE_INTEREST"
)

// Transaction is a posted loan transaction.
type Transaction struct {
	ID     string          `json:"id"`
	Type   TransactionType `json:"type"`
	Date   time.Time       `json:"date"`
	Amount money.Money     `json:"amount"`
}
