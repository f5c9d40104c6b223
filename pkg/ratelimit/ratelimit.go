// Package ratelimit 提供按键计数的固定窗口限流。
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"hoa-advisor-go/pkg/log"
)

// Result 是一次限流检查的结果。
type Result struct {
	Allowed bool
	// RetryAfter 是被拒绝时距离窗口重置的剩余秒数（向上取整）。
	RetryAfter int
}

// Limiter 定义了固定窗口限流器的接口。
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter 是进程内的固定窗口限流器，在进程启动时创建一次并注入到需要它的地方。
// 不支持多实例共享状态。
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// NewMemoryLimiter 创建一个新的 MemoryLimiter 实例。
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// WithClock 替换时间源，供测试使用。
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

// Allow 检查 key 在当前窗口内是否还有余量。
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || now.After(e.resetAt) {
		l.entries[key] = &entry{count: 1, resetAt: now.Add(window)}
		return Result{Allowed: true}, nil
	}
	if e.count >= limit {
		return Result{Allowed: false, RetryAfter: retryAfterSeconds(e.resetAt.Sub(now))}, nil
	}
	e.count++
	return Result{Allowed: true}, nil
}

// Prune 删除所有已过期的窗口，返回删除的条目数。
func (l *MemoryLimiter) Prune() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Len 返回当前跟踪的键数量。
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// StartPruner 启动后台清理协程，ctx 取消时退出。返回的 channel 在协程退出后关闭。
func (l *MemoryLimiter) StartPruner(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := l.Prune(); n > 0 {
					log.Infof("限流器清理过期窗口 %d 个", n)
				}
			}
		}
	}()
	return done
}

func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
