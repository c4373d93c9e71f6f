package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/amortization-engine/internal/amortization"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/pkg/money"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

// toRows flattens a schedule into persisted rows, marking the periods the
// processed transactions have fully settled and the unsettled ones already past due.
func toRows(loanID string, schedule *domain.Schedule, processed amortization.ProcessResult, now time.Time) []*domain.LoanSchedule {
	paid := make(map[int]bool, len(processed.Paid))
	for i, p := range processed.Paid {
		if i < len(schedule.Periods) {
			paid[p.PeriodNumber] = isSettled(schedule.Periods[i], p)
		}
	}

	rows := make([]*domain.LoanSchedule, 0, len(schedule.Disbursements)+len(schedule.Periods))
	add := func(p domain.Period, status string) {
		rows = append(rows, &domain.LoanSchedule{
			ID:                 uuid.New(),
			LoanID:             loanID,
			PeriodNumber:       p.PeriodNumber,
			FromDate:           p.FromDate,
			DueDate:            p.DueDate,
			PrincipalDisbursed: p.PrincipalDisbursed.Amount(),
			PrincipalDue:       p.PrincipalDue.Amount(),
			InterestDue:        p.InterestDue.Amount(),
			FeeChargesDue:      p.FeeChargesDue.Amount(),
			PenaltyChargesDue:  p.PenaltyChargesDue.Amount(),
			TotalDue:           p.TotalDue.Amount(),
			OutstandingBalance: p.OutstandingBalance.Amount(),
			Recalculated:       p.RecalculatedInterestComponent,
			Status:             status,
			CreatedAt:          now,
		})
	}
	for _, d := range schedule.Disbursements {
		add(d, domain.ScheduleStatusPaid)
	}
	for _, p := range schedule.Periods {
		status := domain.ScheduleStatusPending
		switch {
		case paid[p.PeriodNumber]:
			status = domain.ScheduleStatusPaid
		case utils.IsDateOverdue(p.DueDate, now):
			status = domain.ScheduleStatusOverdue
		}
		add(p, status)
	}
	return rows
}

func isSettled(period domain.Period, paid amortization.Paid) bool {
	total := paid.Principal
	for _, part := range []money.Money{paid.Interest, paid.Fees, paid.Penalties} {
		sum, err := total.Add(part)
		if err != nil {
			return false
		}
		total = sum
	}
	cmp, err := total.Cmp(period.TotalDue)
	return err == nil && cmp >= 0
}

// toSchedule rebuilds a schedule from its persisted rows.
func toSchedule(rows []*domain.LoanSchedule, currency money.Currency) (*domain.Schedule, error) {
	schedule := domain.NewSchedule(currency)
	amount := func(v decimal.Decimal) money.Money {
		return money.New(v, currency)
	}
	for _, row := range rows {
		p := domain.Period{
			PeriodNumber:                  row.PeriodNumber,
			FromDate:                      row.FromDate,
			DueDate:                       row.DueDate,
			PrincipalDisbursed:            amount(row.PrincipalDisbursed),
			PrincipalDue:                  amount(row.PrincipalDue),
			InterestDue:                   amount(row.InterestDue),
			FeeChargesDue:                 amount(row.FeeChargesDue),
			PenaltyChargesDue:             amount(row.PenaltyChargesDue),
			TotalDue:                      amount(row.TotalDue),
			OutstandingBalance:            amount(row.OutstandingBalance),
			RecalculatedInterestComponent: row.Recalculated,
		}
		if p.IsDisbursement() {
			schedule.Disbursements = append(schedule.Disbursements, p)
			continue
		}
		schedule.Periods = append(schedule.Periods, p)
	}
	if err := schedule.Recalculate(); err != nil {
		return nil, err
	}
	return schedule, nil
}

func toTransactions(records []*domain.LoanTransaction, currency money.Currency) []domain.Transaction {
	txs := make([]domain.Transaction, 0, len(records))
	for _, r := range records {
		txs = append(txs, domain.Transaction{
			ID:     r.ID.String(),
			Type:   domain.TransactionType(r.Type),
			Date:   r.TransactionDate,
			Amount: money.New(r.Amount, currency),
		})
	}
	return txs
}
