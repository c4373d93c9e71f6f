package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/amortization-engine/internal/amortization"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/pkg/money"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

func TestToRows_Statuses(t *testing.T) {
	svc, _ := newTestService(testConfig())
	request := monthlyRequest()
	schedule, err := svc.PreviewSchedule(context.Background(), &request)
	require.NoError(t, err)
	txs := toTransactions([]*domain.LoanTransaction{
		{Type: string(domain.TransactionRepayment), Amount: decimal.RequireFromString("11347.15"), TransactionDate: utils.Date(2024, 2, 1)},
	}, money.USD)
	processed, err := amortization.NewDefaultProcessor().Process(schedule.Periods, txs)
	require.NoError(t, err)

	rows := toRows("LOAN123", schedule, processed, utils.Date(2024, 3, 15))

	assert.Equal(t, domain.ScheduleStatusPaid, rowFor(rows, 0).Status)
	assert.Equal(t, domain.ScheduleStatusPaid, rowFor(rows, 1).Status)
	assert.Equal(t, domain.ScheduleStatusOverdue, rowFor(rows, 2).Status)
	assert.Equal(t, domain.ScheduleStatusPending, rowFor(rows, 3).Status)
	assert.False(t, allPaid(rows))
}

func TestToScheduleRoundTrip(t *testing.T) {
	svc, _ := newTestService(testConfig())
	request := monthlyRequest()
	request.Charges = []domain.ChargeRequest{{Name: "service fee", TimeType: string(domain.ChargePerInstallment), Amount: decimal.NewFromInt(5)}}
	schedule, err := svc.PreviewSchedule(context.Background(), &request)
	require.NoError(t, err)

	rebuilt, err := toSchedule(toRows("LOAN123", schedule, amortization.ProcessResult{}, svc.now()), money.USD)

	require.NoError(t, err)
	assert.Equal(t, len(schedule.Periods), len(rebuilt.Periods))
	assert.Equal(t, len(schedule.Disbursements), len(rebuilt.Disbursements))
	assert.True(t, schedule.TotalFeeCharges.Equal(rebuilt.TotalFeeCharges))
	assert.True(t, schedule.TotalRepayment.Equal(rebuilt.TotalRepayment))
	assert.Equal(t, schedule.LoanEndDate, rebuilt.LoanEndDate)
}
