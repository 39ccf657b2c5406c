package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"followup/internal/model"
	"followup/pkg/metrics"
)

const keyPrefix = "tasks:today:"

// TodayCache holds the rendered today-view task list in Redis, keyed by the
// local calendar date. Every failure degrades to a miss: the store stays the
// source of truth.
type TodayCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewTodayCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *TodayCache {
	if ttl == 0 {
		ttl = 30 * time.Second
	}
	return &TodayCache{rdb: rdb, ttl: ttl, logger: logger}
}

func (c *TodayCache) key(day time.Time) string {
	return keyPrefix + day.Format("2006-01-02")
}

func (c *TodayCache) Get(ctx context.Context, day time.Time) ([]model.Task, bool) {
	data, err := c.rdb.Get(ctx, c.key(day)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Today cache read failed", zap.Error(err))
			metrics.IncrementTodayCache("error")
			return nil, false
		}
		metrics.IncrementTodayCache("miss")
		return nil, false
	}

	var tasks []model.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		c.logger.Warn("Today cache entry corrupt, dropping it", zap.Error(err))
		_ = c.rdb.Del(ctx, c.key(day)).Err()
		metrics.IncrementTodayCache("error")
		return nil, false
	}

	metrics.IncrementTodayCache("hit")
	return tasks, true
}

func (c *TodayCache) Set(ctx context.Context, day time.Time, tasks []model.Task) {
	data, err := json.Marshal(tasks)
	if err != nil {
		c.logger.Warn("Today cache marshal failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, c.key(day), data, c.ttl).Err(); err != nil {
		c.logger.Warn("Today cache write failed", zap.Error(err))
	}
}

func (c *TodayCache) Invalidate(ctx context.Context, day time.Time) {
	if err := c.rdb.Del(ctx, c.key(day)).Err(); err != nil {
		c.logger.Warn("Today cache invalidation failed", zap.Error(err))
	}
}
