// Package ratelimit bounds login attempts per username with a redis-backed
// fixed window.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func New(addr string, limit int, window time.Duration) (*Limiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &Limiter{
		client: client,
		limit:  limit,
		window: window,
	}, nil
}

func (l *Limiter) Close() error {
	return l.client.Close()
}

// Allow records one attempt for key and reports whether it is still within
// the window's budget. The first attempt in a window starts its expiry.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := "login_attempts:" + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, err
		}
	}

	return count <= int64(l.limit), nil
}
