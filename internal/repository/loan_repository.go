package repository

import (
	"context"
	"time"

	"github.com/segyhp/amortization-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

const scheduleColumns = `id, loan_id, period_number, from_date, due_date, principal_disbursed, principal_due,
	interest_due, fee_charges_due, penalty_charges_due, total_due, outstanding_balance, recalculated, status, created_at`

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan, schedule []*domain.LoanSchedule) error {
	query := `
		INSERT INTO loans (id, loan_id, currency, principal, request, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8)
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, query,
		loan.ID,
		loan.LoanID,
		loan.Currency,
		loan.Principal,
		string(loan.Request),
		loan.Status,
		loan.CreatedAt,
		loan.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if err := insertSchedule(ctx, tx, schedule); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *loanRepository) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	query := `
		SELECT id, loan_id, currency, principal, request, status, created_at, updated_at
		FROM loans
		WHERE loan_id = $1
	`

	var loan domain.Loan
	err := r.db.GetContext(ctx, &loan, query, loanID)
	if err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) ListByStatus(ctx context.Context, status string) ([]*domain.Loan, error) {
	query := `
		SELECT id, loan_id, currency, principal, request, status, created_at, updated_at
		FROM loans
		WHERE status = $1
		ORDER BY created_at
	`

	var loans []*domain.Loan
	err := r.db.SelectContext(ctx, &loans, query, status)
	if err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) UpdateStatus(ctx context.Context, loanID string, status string) error {
	query := `
		UPDATE loans
		SET status = $2, updated_at = $3
		WHERE loan_id = $1
	`

	_, err := r.db.ExecContext(ctx, query, loanID, status, time.Now())
	return err
}

func (r *loanRepository) GetScheduleByLoanID(ctx context.Context, loanID string) ([]*domain.LoanSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM loan_schedule
		WHERE loan_id = $1
		ORDER BY period_number, due_date
	`

	var schedules []*domain.LoanSchedule
	err := r.db.SelectContext(ctx, &schedules, query, loanID)
	if err != nil {
		return nil, err
	}

	return schedules, nil
}

func (r *loanRepository) ReplaceSchedule(ctx context.Context, loanID string, schedule []*domain.LoanSchedule) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM loan_schedule WHERE loan_id = $1`, loanID); err != nil {
		return err
	}
	if err := insertSchedule(ctx, tx, schedule); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE loans SET updated_at = $2 WHERE loan_id = $1`, loanID, time.Now()); err != nil {
		return err
	}

	return tx.Commit()
}

func insertSchedule(ctx context.Context, tx *sqlx.Tx, schedule []*domain.LoanSchedule) error {
	query := `
		INSERT INTO loan_schedule (` + scheduleColumns + `)
		VALUES (:id, :loan_id, :period_number, :from_date, :due_date, :principal_disbursed, :principal_due,
			:interest_due, :fee_charges_due, :penalty_charges_due, :total_due, :outstanding_balance, :recalculated, :status, :created_at)
	`

	for _, row := range schedule {
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return err
		}
	}
	return nil
}
