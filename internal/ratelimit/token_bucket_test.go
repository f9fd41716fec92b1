package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketAllowConsumesBurst(t *testing.T) {
	tb := NewTokenBucket(60, 2)
	fixed := time.Now()
	tb.now = func() time.Time { return fixed }
	tb.lastRefill = fixed

	assert.True(t, tb.Allow(), "第一个令牌应可用")
	assert.True(t, tb.Allow(), "第二个令牌应可用")
	assert.False(t, tb.Allow(), "桶已空，不应放行")

	// 60 QPM = 每秒1个令牌
	fixed = fixed.Add(time.Second)
	assert.True(t, tb.Allow(), "一秒后应补充一个令牌")
}

func TestTokenBucketDefaultBurst(t *testing.T) {
	tb := NewTokenBucket(1, 0)
	assert.Equal(t, 1.0, tb.capacity, "QPM过小时容量至少为1")

	tb = NewTokenBucket(120, 0)
	assert.Equal(t, 60.0, tb.capacity, "默认容量为QPM的一半")
}

func TestTokenBucketWaitRespectsContext(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := tb.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second, "上下文结束后应尽快返回")
}
