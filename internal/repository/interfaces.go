package repository

import (
	"context"
	"time"

	"github.com/segyhp/amortization-engine/internal/domain"
)

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create creates a new loan together with its schedule rows
	Create(ctx context.Context, loan *domain.Loan, schedule []*domain.LoanSchedule) error

	// GetByLoanID retrieves a loan by its loan ID
	GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error)

	// ListByStatus retrieves every loan with the given status
	ListByStatus(ctx context.Context, status string) ([]*domain.Loan, error)

	// UpdateStatus updates the status of a loan
	UpdateStatus(ctx context.Context, loanID string, status string) error

	// GetScheduleByLoanID retrieves loan schedule rows ordered by period number
	GetScheduleByLoanID(ctx context.Context, loanID string) ([]*domain.LoanSchedule, error)

	// ReplaceSchedule swaps the loan's schedule rows for a regenerated schedule
	ReplaceSchedule(ctx context.Context, loanID string, schedule []*domain.LoanSchedule) error
}

// TransactionRepository defines the interface for repayment and waiver records
type TransactionRepository interface {
	// Create creates a new transaction record
	Create(ctx context.Context, tx *domain.LoanTransaction) error

	// GetByLoanID retrieves all transactions for a loan ordered by date
	GetByLoanID(ctx context.Context, loanID string) ([]*domain.LoanTransaction, error)
}

// HolidayRepository defines the interface for the holiday calendar
type HolidayRepository interface {
	// ListActive retrieves active holidays overlapping [from, to]
	ListActive(ctx context.Context, from, to time.Time) ([]domain.Holiday, error)
}
