package repository

import (
	"context"

	"github.com/segyhp/amortization-engine/internal/domain"

	"github.com/jmoiron/sqlx"
)

type transactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *domain.LoanTransaction) error {
	query := `
		INSERT INTO loan_transactions (id, loan_id, type, amount, transaction_date, created_at)
		VALUES (:id, :loan_id, :type, :amount, :transaction_date, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, tx)
	return err
}

func (r *transactionRepository) GetByLoanID(ctx context.Context, loanID string) ([]*domain.LoanTransaction, error) {
	query := `
		SELECT id, loan_id, type, amount, transaction_date, created_at
		FROM loan_transactions
		WHERE loan_id = $1
		ORDER BY transaction_date, created_at
	`

	var txs []*domain.LoanTransaction
	err := r.db.SelectContext(ctx, &txs, query, loanID)
	if err != nil {
		return nil, err
	}

	return txs, nil
}
