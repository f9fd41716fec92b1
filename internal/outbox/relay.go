// Package outbox 发件箱模式：候选人记录与事件消息同事务写入，由中继异步发布
package outbox

import (
	"context"
	"sync"
	"time"

	"resume-extractor/internal/logger"
	"resume-extractor/internal/storage/models"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPollingInterval = 5 * time.Second
	defaultBatchSize       = 10
	maxRetryCount          = 5
)

// Publisher 消息发布器，storage.RabbitMQ 实现了该接口
type Publisher interface {
	PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error
}

// MessageRelay 轮询 outbox 表并将消息发布到消息代理
type MessageRelay struct {
	db              *gorm.DB
	publisher       Publisher
	logger          zerolog.Logger
	pollingInterval time.Duration
	batchSize       int
	done            chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
	tracer          trace.Tracer
}

// Option 中继选项
type Option func(*MessageRelay)

// WithPollingInterval 设置轮询间隔
func WithPollingInterval(d time.Duration) Option {
	return func(r *MessageRelay) {
		if d > 0 {
			r.pollingInterval = d
		}
	}
}

// WithBatchSize 设置每批最多处理的消息数
func WithBatchSize(n int) Option {
	return func(r *MessageRelay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// NewMessageRelay 创建一个新的 MessageRelay 实例
func NewMessageRelay(db *gorm.DB, publisher Publisher, opts ...Option) *MessageRelay {
	r := &MessageRelay{
		db:              db,
		publisher:       publisher,
		logger:          logger.Logger.With().Str("component", "outbox_relay").Logger(),
		pollingInterval: defaultPollingInterval,
		batchSize:       defaultBatchSize,
		done:            make(chan struct{}),
		tracer:          otel.Tracer("outbox-relay"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start 开始后台轮询
func (r *MessageRelay) Start() {
	r.logger.Info().Dur("interval", r.pollingInterval).Int("batch_size", r.batchSize).Msg("MessageRelay starting")
	ticker := time.NewTicker(r.pollingInterval)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-r.done:
				r.logger.Info().Msg("MessageRelay stopped")
				return
			case <-ticker.C:
				if _, err := r.ProcessOnce(context.Background()); err != nil {
					r.logger.Error().Err(err).Msg("处理发件箱消息失败")
				}
			}
		}
	}()
}

// Stop 停止轮询并等待当前批次结束
func (r *MessageRelay) Stop() {
	r.stopOnce.Do(func() {
		r.logger.Info().Msg("MessageRelay stopping")
		close(r.done)
	})
	r.wg.Wait()
}

// ProcessOnce 取一批待发送消息并发布，返回本批处理的条数
func (r *MessageRelay) ProcessOnce(ctx context.Context) (int, error) {
	var messages []models.OutboxMessage

	// 空轮询不创建 span
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return 0, tx.Error
	}
	defer tx.Rollback()

	query := tx.Where("status = ?", models.OutboxStatusPending).
		Order("created_at asc").
		Order("id asc").
		Limit(r.batchSize)
	// sqlite 不支持行锁，单进程下也不需要
	if r.db.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}
	if err := query.Find(&messages).Error; err != nil {
		return 0, err
	}

	if len(messages) == 0 {
		return 0, tx.Commit().Error
	}

	ctx, span := r.tracer.Start(ctx, "outbox.ProcessBatch",
		trace.WithAttributes(
			attribute.Int("messaging.batch.message_count", len(messages)),
		),
	)
	defer span.End()

	r.logger.Debug().Int("count", len(messages)).Msg("获取到待发送的发件箱消息")

	for i := range messages {
		msg := &messages[i]
		err := r.publisher.PublishMessage(ctx, msg.TargetExchange, msg.TargetRoutingKey, []byte(msg.Payload), true)
		if err != nil {
			msg.RetryCount++
			msg.ErrorMessage = err.Error()
			if msg.RetryCount >= maxRetryCount {
				msg.Status = models.OutboxStatusFailed
			}
			r.logger.Warn().Err(err).
				Uint64("id", msg.ID).
				Str("aggregate_id", msg.AggregateID).
				Int("retries", msg.RetryCount).
				Msg("发布发件箱消息失败")
		} else {
			now := time.Now()
			msg.Status = models.OutboxStatusSent
			msg.ProcessedAt = &now
			msg.ErrorMessage = ""
		}

		// 更新失败时整批回滚，下一轮重新拾取
		if err := tx.Save(msg).Error; err != nil {
			return 0, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return 0, err
	}
	return len(messages), nil
}
