package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/pkg/money"
	"github.com/segyhp/amortization-engine/pkg/utils"
)

func TestScheduleKey(t *testing.T) {
	assert.Equal(t, "schedule:LOAN123", scheduleKey("LOAN123"))
}

// TestRedisScheduleCache runs against TEST_REDIS_ADDR and skips when it is unset.
func TestRedisScheduleCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	ctx := context.Background()
	c := NewRedisScheduleCache(client, time.Minute)
	loanID := "LOAN-CACHE-IT"
	require.NoError(t, c.Delete(ctx, loanID))

	_, err := c.Get(ctx, loanID)
	assert.ErrorIs(t, err, ErrMiss)

	schedule := domain.NewSchedule(money.USD)
	period, err := domain.NewRepaymentPeriod(1, utils.Date(2024, 1, 1), utils.Date(2024, 2, 1),
		money.New(decimal.RequireFromString("100"), money.USD), money.New(decimal.RequireFromString("2.50"), money.USD), money.Zero(money.USD))
	require.NoError(t, err)
	schedule.Periods = append(schedule.Periods, period)
	require.NoError(t, schedule.Recalculate())

	require.NoError(t, c.Set(ctx, loanID, schedule))
	got, err := c.Get(ctx, loanID)
	require.NoError(t, err)
	require.Len(t, got.Periods, 1)
	assert.True(t, schedule.TotalRepayment.Equal(got.TotalRepayment))
	assert.Equal(t, utils.Date(2024, 2, 1), got.LoanEndDate.UTC())

	ttl, err := client.TTL(ctx, scheduleKey(loanID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
