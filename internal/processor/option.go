package processor

import (
	"context"
	"time"

	"resume-extractor/internal/storage"

	"github.com/rs/zerolog"
)

// BatchStatusStore 批次摘要存储，storage.Redis 实现了该接口
type BatchStatusStore interface {
	SetBatchStatus(ctx context.Context, batchID string, summaryJSON string, ttl time.Duration) error
}

var _ BatchStatusStore = (*storage.Redis)(nil)

// Option 批处理器选项
type Option func(*BatchProcessor)

// WithStore 设置候选人存储，未设置时只提取不入库
func WithStore(store storage.CandidateStore) Option {
	return func(p *BatchProcessor) {
		p.store = store
	}
}

// WithConcurrency 同时处理的文档数
func WithConcurrency(n int) Option {
	return func(p *BatchProcessor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithDocumentTimeout 单个文档的处理超时
func WithDocumentTimeout(d time.Duration) Option {
	return func(p *BatchProcessor) {
		if d > 0 {
			p.documentTimeout = d
		}
	}
}

// WithDefaultBucket 事件记录未带存储桶时使用
func WithDefaultBucket(bucket string) Option {
	return func(p *BatchProcessor) {
		p.defaultBucket = bucket
	}
}

// WithBatchStatusStore 处理结束后保存批次摘要
func WithBatchStatusStore(s BatchStatusStore, ttl time.Duration) Option {
	return func(p *BatchProcessor) {
		p.statusStore = s
		p.statusTTL = ttl
	}
}

// WithLogger 设置日志记录器
func WithLogger(l zerolog.Logger) Option {
	return func(p *BatchProcessor) {
		p.logger = l
	}
}
