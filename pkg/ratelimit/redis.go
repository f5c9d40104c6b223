package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter 是基于 Redis INCR + PEXPIRE 的固定窗口限流器，可在多实例之间共享计数。
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisLimiter 创建一个新的 RedisLimiter 实例。
func NewRedisLimiter(rdb *redis.Client) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: "ratelimit:"}
}

// Allow 检查 key 在当前窗口内是否还有余量。窗口从第一次计数开始。
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	k := l.prefix + key

	count, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit incr: %w", err)
	}
	if count == 1 {
		if err := l.rdb.PExpire(ctx, k, window).Err(); err != nil {
			return Result{}, fmt.Errorf("ratelimit pexpire: %w", err)
		}
	}
	if count <= int64(limit) {
		return Result{Allowed: true}, nil
	}

	ttl, err := l.rdb.PTTL(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit pttl: %w", err)
	}
	if ttl < 0 {
		// 键丢失了过期时间，重新设置以免永久封禁
		_ = l.rdb.PExpire(ctx, k, window).Err()
		ttl = window
	}
	return Result{Allowed: false, RetryAfter: retryAfterSeconds(ttl)}, nil
}
