package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket 令牌桶限流器，速率以每分钟请求数(QPM)表示
type TokenBucket struct {
	mu         sync.Mutex
	rate       float64 // 每秒生成的令牌数
	capacity   float64
	tokens     float64
	lastRefill time.Time
	now        func() time.Time
}

// NewTokenBucket 创建限流器，burst<=0 时取 QPM 的一半（至少为1）
func NewTokenBucket(qpm int, burst int) *TokenBucket {
	if qpm <= 0 {
		qpm = 1
	}
	if burst <= 0 {
		burst = qpm / 2
		if burst <= 0 {
			burst = 1
		}
	}
	tb := &TokenBucket{
		rate:     float64(qpm) / 60.0,
		capacity: float64(burst),
		tokens:   float64(burst),
		now:      time.Now,
	}
	tb.lastRefill = tb.now()
	return tb
}

// refill 按流逝时间补充令牌，调用方需持有锁
func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.lastRefill = now
	tb.tokens += elapsed * tb.rate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
}

// Allow 尝试立即获取一个令牌
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1.0 {
		tb.tokens--
		return true
	}
	return false
}

// Wait 阻塞直到获得令牌或 ctx 结束
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		tb.mu.Lock()
		tb.refill()
		if tb.tokens >= 1.0 {
			tb.tokens--
			tb.mu.Unlock()
			return nil
		}
		wait := time.Duration((1.0 - tb.tokens) / tb.rate * float64(time.Second))
		tb.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Available 当前可用令牌数，主要用于日志与测试
func (tb *TokenBucket) Available() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	return tb.tokens
}
