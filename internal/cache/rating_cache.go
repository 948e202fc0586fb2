// Package cache holds the redis-backed cache for derived title ratings.
// The cache is best-effort: any redis failure is logged and treated as a
// miss so a degraded cache never fails a request.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// absent marks titles known to have no reviews, so the miss is cached too.
const absent = "none"

type RatingCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRatingCache(redisURL string, ttl time.Duration, logger *slog.Logger) (*RatingCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &RatingCache{
		rdb:    redis.NewClient(opts),
		ttl:    ttl,
		logger: logger,
	}, nil
}

func ratingKey(titleID int64) string {
	return fmt.Sprintf("title:%d:rating", titleID)
}

// Get returns (rating, hit). A nil rating with hit=true means the title is
// known to have no reviews.
func (c *RatingCache) Get(ctx context.Context, titleID int64) (*float64, bool) {
	val, err := c.rdb.Get(ctx, ratingKey(titleID)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("rating cache get failed", "title_id", titleID, "error", err)
		return nil, false
	}
	if val == absent {
		return nil, true
	}
	rating, err := strconv.ParseFloat(val, 64)
	if err != nil {
		c.logger.Warn("rating cache holds garbage, dropping", "title_id", titleID, "value", val)
		c.Invalidate(ctx, titleID)
		return nil, false
	}
	return &rating, true
}

func (c *RatingCache) Set(ctx context.Context, titleID int64, rating *float64) {
	val := absent
	if rating != nil {
		val = strconv.FormatFloat(*rating, 'f', -1, 64)
	}
	if err := c.rdb.Set(ctx, ratingKey(titleID), val, c.ttl).Err(); err != nil {
		c.logger.Warn("rating cache set failed", "title_id", titleID, "error", err)
	}
}

func (c *RatingCache) Invalidate(ctx context.Context, titleID int64) {
	if err := c.rdb.Del(ctx, ratingKey(titleID)).Err(); err != nil {
		c.logger.Warn("rating cache invalidate failed", "title_id", titleID, "error", err)
	}
}

// Ping verifies connectivity at startup.
func (c *RatingCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RatingCache) Close() error {
	return c.rdb.Close()
}
