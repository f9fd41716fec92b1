package entity

import (
	"context"

	"resume-extractor/internal/ratelimit"
	"resume-extractor/internal/types"
)

// LimitedRecognizer 按令牌桶限制对下游识别服务的调用频率
type LimitedRecognizer struct {
	next   Recognizer
	bucket *ratelimit.TokenBucket
}

// NewLimitedRecognizer qpm<=0 时不限流，直接返回 next
func NewLimitedRecognizer(next Recognizer, qpm, burst int) Recognizer {
	if qpm <= 0 {
		return next
	}
	return &LimitedRecognizer{
		next:   next,
		bucket: ratelimit.NewTokenBucket(qpm, burst),
	}
}

// DetectEntities 等待令牌后调用下游
func (l *LimitedRecognizer) DetectEntities(ctx context.Context, text, languageHint string) ([]types.Entity, error) {
	if err := l.bucket.Wait(ctx); err != nil {
		return nil, &ServiceError{Provider: "ratelimit", Op: "Wait", Err: err}
	}
	return l.next.DetectEntities(ctx, text, languageHint)
}
