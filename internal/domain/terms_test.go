package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/segyhp/amortization-engine/pkg/money"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSeedDate(t *testing.T) {
	disbursed := date(2024, 1, 1)
	explicit := date(2024, 2, 16)
	calculated := date(2024, 2, 20)

	tests := []struct {
		name       string
		explicit   *time.Time
		calculated *time.Time
		first      *time.Time
		seed       time.Time
	}{
		{"disbursement only", nil, nil, nil, disbursed},
		{"explicit first repayment", &explicit, nil, &explicit, explicit},
		{"calculated wins over explicit", &explicit, &calculated, &calculated, calculated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := &LoanApplicationTerms{
				ExpectedDisbursementDate:             disbursed,
				RepaymentsStartingFromDate:           tt.explicit,
				CalculatedRepaymentsStartingFromDate: tt.calculated,
			}

			assert.Equal(t, tt.first, terms.FirstRepaymentDate())
			assert.Equal(t, tt.seed, terms.SeedDate())
		})
	}
}

func TestIsMultiTranche(t *testing.T) {
	usd := func(amount int64) money.Money { return money.New(decimal.NewFromInt(amount), money.USD) }
	terms := &LoanApplicationTerms{ExpectedDisbursementDate: date(2024, 1, 1)}
	assert.False(t, terms.IsMultiTranche())

	terms.Disbursements = []Disbursement{{Date: date(2024, 1, 1), Amount: usd(1000)}}
	assert.False(t, terms.IsMultiTranche())

	terms.Disbursements = append(terms.Disbursements, Disbursement{Date: date(2024, 3, 1), Amount: usd(500)})
	assert.True(t, terms.IsMultiTranche())
}
