package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const limitWindow = 24 * time.Hour

// RedisLimiter caps how many analyses a single caller (teams channel or
// client address) can trigger per day. Optional capability: when redis is not
// configured the handler simply skips the check.
type RedisLimiter struct {
	client *redis.Client
	limit  int // max requests per caller per window
}

func NewRedisLimiter(client *redis.Client, limit int) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, caller string) (bool, error) {
	key := "requests:" + caller
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		r.client.Expire(ctx, key, limitWindow)
	}
	return count <= int64(r.limit), nil
}
