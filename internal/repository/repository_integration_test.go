package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

// testDB connects to TEST_DATABASE_URL and migrates it. Tests skip when it is unset.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, MigrateDown(ctx, db))
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db), "second run is a no-op")
	return db
}

func testLoan(loanID string) *domain.Loan {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Loan{
		ID:        uuid.New(),
		LoanID:    loanID,
		Currency:  "USD",
		Principal: decimal.NewFromInt(1000),
		Request:   json.RawMessage(`{"principal":"1000"}`),
		Status:    domain.LoanStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testRow(loanID string, period int, due time.Time, total string) *domain.LoanSchedule {
	amount := decimal.RequireFromString(total)
	return &domain.LoanSchedule{
		ID:           uuid.New(),
		LoanID:       loanID,
		PeriodNumber: period,
		FromDate:     due.AddDate(0, -1, 0),
		DueDate:      due,
		PrincipalDue: amount,
		TotalDue:     amount,
		Status:       domain.ScheduleStatusPending,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestLoanRepository_CreateAndReplaceSchedule(t *testing.T) {
	db := testDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()
	loan := testLoan("LOAN-IT-1")

	rows := []*domain.LoanSchedule{
		testRow(loan.LoanID, 1, utils.Date(2024, 2, 1), "500"),
		testRow(loan.LoanID, 2, utils.Date(2024, 3, 1), "500"),
	}
	require.NoError(t, repo.Create(ctx, loan, rows))

	stored, err := repo.GetByLoanID(ctx, loan.LoanID)
	require.NoError(t, err)
	assert.True(t, loan.Principal.Equal(stored.Principal))
	assert.JSONEq(t, string(loan.Request), string(stored.Request))

	got, err := repo.GetScheduleByLoanID(ctx, loan.LoanID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, utils.Date(2024, 2, 1), got[0].DueDate.UTC())

	replacement := []*domain.LoanSchedule{testRow(loan.LoanID, 1, utils.Date(2024, 2, 1), "1000")}
	replacement[0].Status = domain.ScheduleStatusPaid
	require.NoError(t, repo.ReplaceSchedule(ctx, loan.LoanID, replacement))

	got, err = repo.GetScheduleByLoanID(ctx, loan.LoanID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.ScheduleStatusPaid, got[0].Status)
	assert.True(t, decimal.NewFromInt(1000).Equal(got[0].TotalDue))
}

func TestLoanRepository_StatusAndMissingLoan(t *testing.T) {
	db := testDB(t)
	repo := NewLoanRepository(db)
	ctx := context.Background()
	loan := testLoan("LOAN-IT-2")
	require.NoError(t, repo.Create(ctx, loan, nil))

	require.NoError(t, repo.UpdateStatus(ctx, loan.LoanID, domain.LoanStatusClosed))

	active, err := repo.ListByStatus(ctx, domain.LoanStatusActive)
	require.NoError(t, err)
	assert.Empty(t, active)
	closed, err := repo.ListByStatus(ctx, domain.LoanStatusClosed)
	require.NoError(t, err)
	assert.Len(t, closed, 1)

	_, err = repo.GetByLoanID(ctx, "NOPE")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTransactionRepository(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	loan := testLoan("LOAN-IT-3")
	require.NoError(t, NewLoanRepository(db).Create(ctx, loan, nil))
	repo := NewTransactionRepository(db)

	for _, date := range []time.Time{utils.Date(2024, 3, 1), utils.Date(2024, 2, 1)} {
		require.NoError(t, repo.Create(ctx, &domain.LoanTransaction{
			ID:              uuid.New(),
			LoanID:          loan.LoanID,
			Type:            string(domain.TransactionRepayment),
			Amount:          decimal.NewFromInt(100),
			TransactionDate: date,
			CreatedAt:       time.Now().UTC(),
		}))
	}

	txs, err := repo.GetByLoanID(ctx, loan.LoanID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, utils.Date(2024, 2, 1), txs[0].TransactionDate.UTC())
}

func TestHolidayRepository_ListActive(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	insert := `INSERT INTO holidays (id, name, from_date, to_date, rescheduled_to, active) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := db.ExecContext(ctx, insert, uuid.New(), "in range", utils.Date(2024, 2, 1), utils.Date(2024, 2, 2), utils.Date(2024, 2, 5), true)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert, uuid.New(), "inactive", utils.Date(2024, 3, 1), utils.Date(2024, 3, 1), utils.Date(2024, 3, 4), false)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert, uuid.New(), "out of range", utils.Date(2026, 1, 1), utils.Date(2026, 1, 1), utils.Date(2026, 1, 2), true)
	require.NoError(t, err)

	holidays, err := NewHolidayRepository(db).ListActive(ctx, utils.Date(2024, 1, 1), utils.Date(2025, 1, 1))

	require.NoError(t, err)
	require.Len(t, holidays, 1)
	assert.Equal(t, "in range", holidays[0].Name)
}
