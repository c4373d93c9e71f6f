// Package cache keeps generated schedules in Redis so a schedule read does not
// have to rebuild it from the schedule rows.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/segyhp/amortization-engine/internal/domain"
)

// ErrMiss is returned when no schedule is cached for the loan.
var ErrMiss = errors.New("schedule not cached")

// ScheduleCache stores schedules by loan ID.
type ScheduleCache interface {
	Get(ctx context.Context, loanID string) (*domain.Schedule, error)
	Set(ctx context.Context, loanID string, schedule *domain.Schedule) error
	Delete(ctx context.Context, loanID string) error
}

type redisScheduleCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisScheduleCache(client redis.Cmdable, ttl time.Duration) ScheduleCache {
	return &redisScheduleCache{client: client, ttl: ttl}
}

func scheduleKey(loanID string) string {
	return fmt.Sprintf("schedule:%s", loanID)
}

func (c *redisScheduleCache) Get(ctx context.Context, loanID string) (*domain.Schedule, error) {
	raw, err := c.client.Get(ctx, scheduleKey(loanID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	var schedule domain.Schedule
	if err := json.Unmarshal(raw, &schedule); err != nil {
		return nil, fmt.Errorf("decode cached schedule %s: %w", loanID, err)
	}
	return &schedule, nil
}

func (c *redisScheduleCache) Set(ctx context.Context, loanID string, schedule *domain.Schedule) error {
	raw, err := json.Marshal(schedule)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, scheduleKey(loanID), raw, c.ttl).Err()
}

func (c *redisScheduleCache) Delete(ctx context.Context, loanID string) error {
	return c.client.Del(ctx, scheduleKey(loanID)).Err()
}
