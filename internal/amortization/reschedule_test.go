package amortization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

func rescheduleTerms(strategy domain.RecalculationStrategy) *domain.LoanApplicationTerms {
	terms := monthlyTerms("120000", 24, 12)
	terms.InterestRecalculationEnabled = true
	terms.RecalculationStrategy = strategy
	return terms
}

func TestRescheduleReduceEMI(t *testing.T) {
	// Arrange
	terms := rescheduleTerms(domain.RecalculationReduceEMI)
	engine := NewEngine(zap.NewNop())
	existing, err := engine.Generate(terms, nil, domain.HolidayDetail{})
	require.NoError(t, err)
	payments := []domain.Transaction{repayment(utils.Date(2024, 2, 1), "31347.15")}

	// Act
	schedule, err := engine.Reschedule(terms, nil, payments, nil, existing.Periods, utils.Date(2024, 2, 2), domain.HolidayDetail{})

	// Assert
	require.NoError(t, err)
	require.Len(t, schedule.Periods, 12)
	first := schedule.Periods[0]
	assertMoney(t, "28947.15", first.PrincipalDue)
	assertMoney(t, "2400.00", first.InterestDue)
	assertMoney(t, "91052.85", first.OutstandingBalance)
	assert.False(t, first.RecalculatedInterestComponent)

	second := schedule.Periods[1]
	assertMoney(t, "1821.06", second.InterestDue)
	assertMoney(t, "9303.59", second.TotalDue)
	for _, p := range schedule.Periods[1:] {
		assert.True(t, p.RecalculatedInterestComponent, "period %d", p.PeriodNumber)
	}
	assertMoney(t, "120000.00", schedule.TotalPrincipal)
	assert.True(t, schedule.Periods[11].OutstandingBalance.IsZero())
}

func TestRescheduleReduceNumberOfInstallments(t *testing.T) {
	terms := rescheduleTerms(domain.RecalculationReduceNumberOfInstallments)
	engine := NewEngine(zap.NewNop())
	existing, err := engine.Generate(terms, nil, domain.HolidayDetail{})
	require.NoError(t, err)
	payments := []domain.Transaction{repayment(utils.Date(2024, 2, 1), "31347.15")}

	schedule, err := engine.Reschedule(terms, nil, payments, nil, existing.Periods, utils.Date(2024, 2, 2), domain.HolidayDetail{})

	require.NoError(t, err)
	require.Len(t, schedule.Periods, 10)
	for _, p := range schedule.Periods[1:9] {
		assertMoney(t, "11347.15", p.TotalDue, "period %d", p.PeriodNumber)
	}
	last := schedule.Periods[9]
	assertMoney(t, "9290.68", last.PrincipalDue)
	assertMoney(t, "185.81", last.InterestDue)
	assertMoney(t, "120000.00", schedule.TotalPrincipal)
	assert.Equal(t, utils.Date(2024, 11, 1), schedule.LoanEndDate)
}

func TestRescheduleWithoutTransactionsReproducesSchedule(t *testing.T) {
	terms := rescheduleTerms(domain.RecalculationReduceNumberOfInstallments)
	engine := NewEngine(zap.NewNop())
	existing, err := engine.Generate(terms, nil, domain.HolidayDetail{})
	require.NoError(t, err)

	schedule, err := engine.Reschedule(terms, nil, nil, nil, existing.Periods, utils.Date(2024, 4, 15), domain.HolidayDetail{})

	require.NoError(t, err)
	require.Len(t, schedule.Periods, len(existing.Periods))
	for i, p := range schedule.Periods {
		assert.True(t, p.TotalDue.Equal(existing.Periods[i].TotalDue), "period %d", p.PeriodNumber)
	}
	assert.True(t, schedule.TotalInterest.Equal(existing.TotalInterest))
}

func TestReschedulePrepaymentBeforeFirstDueDate(t *testing.T) {
	terms := rescheduleTerms(domain.RecalculationReduceEMI)
	engine := NewEngine(zap.NewNop())
	existing, err := engine.Generate(terms, nil, domain.HolidayDetail{})
	require.NoError(t, err)
	payments := []domain.Transaction{repayment(utils.Date(2024, 1, 10), "20000")}

	schedule, err := engine.Reschedule(terms, nil, payments, nil, existing.Periods, utils.Date(2024, 1, 10), domain.HolidayDetail{})

	require.NoError(t, err)
	require.NotEmpty(t, schedule.Periods)
	assertMoney(t, "120000.00", schedule.TotalPrincipal)
	assert.True(t, schedule.Periods[0].PrincipalDue.Amount().GreaterThan(usd("20000").Amount()))
	assert.True(t, schedule.TotalInterest.Amount().LessThan(existing.TotalInterest.Amount()))
}

func TestRescheduleFlatFullPrepayment(t *testing.T) {
	terms := monthlyTerms("12000", 12, 12)
	terms.InterestMethod = domain.InterestFlat
	engine := NewEngine(zap.NewNop())
	existing, err := engine.Generate(terms, nil, domain.HolidayDetail{})
	require.NoError(t, err)
	payments := []domain.Transaction{repayment(utils.Date(2024, 2, 1), "20000")}

	schedule, err := engine.Reschedule(terms, nil, payments, nil, existing.Periods, utils.Date(2024, 2, 2), domain.HolidayDetail{})

	require.NoError(t, err)
	require.Len(t, schedule.Periods, 1)
	assertMoney(t, "12000.00", schedule.TotalPrincipal)
	assertMoney(t, "1440.00", schedule.TotalInterest)
	assert.True(t, schedule.Periods[0].OutstandingBalance.IsZero())
}
