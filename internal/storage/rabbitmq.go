package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"resume-extractor/internal/config"
	"resume-extractor/internal/logger"
	"resume-extractor/internal/tracing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var mqTracer = otel.Tracer("storage/rabbitmq")

// headerCarrier 让 otel 传播器读写 AMQP 消息头
type headerCarrier amqp.Table

func (c headerCarrier) Get(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	c[key] = value
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// MessageQueue 上传事件与候选人事件使用的队列操作
type MessageQueue interface {
	PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error
	PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error
	StartConsumer(ctx context.Context, queueName string, prefetchCount int, handler DeliveryHandler) (<-chan struct{}, error)
	Close() error
}

// DeliveryHandler 处理一条消息，ctx 带有发布方的链路上下文；返回 false 时消息重新入队
type DeliveryHandler func(ctx context.Context, body []byte) bool

var _ MessageQueue = (*RabbitMQ)(nil)

// RabbitMQ 提供消息队列功能
type RabbitMQ struct {
	conn        *amqp.Connection
	channelPool sync.Pool

	mu          sync.Mutex
	exchangeMap map[string]bool
	queueMap    map[string]bool
	bindingMap  map[string]bool // exchange:queue:routingKey

	cfg    *config.RabbitMQConfig
	logger zerolog.Logger
}

// NewRabbitMQ 创建RabbitMQ客户端
func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("RabbitMQ配置不能为空")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL配置不能为空")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到RabbitMQ服务器: %w", err)
	}

	mq := &RabbitMQ{
		conn:        conn,
		exchangeMap: make(map[string]bool),
		queueMap:    make(map[string]bool),
		bindingMap:  make(map[string]bool),
		cfg:         cfg,
		logger:      logger.Logger.With().Str("component", "rabbitmq").Logger(),
	}

	mq.channelPool = sync.Pool{
		New: func() interface{} {
			ch, errPool := conn.Channel()
			if errPool != nil {
				mq.logger.Error().Err(errPool).Msg("创建RabbitMQ通道失败")
				return nil
			}
			return ch
		},
	}

	testCh := mq.getChannel()
	if testCh == nil {
		conn.Close()
		return nil, fmt.Errorf("无法创建RabbitMQ通道")
	}
	mq.putChannel(testCh)

	mq.logger.Info().Msg("成功连接到RabbitMQ服务器")
	return mq, nil
}

// SetupTopology 声明上传事件与候选人事件所需的交换机、队列和绑定
func (r *RabbitMQ) SetupTopology() error {
	if err := r.EnsureExchange(r.cfg.EventsExchange, "direct", true); err != nil {
		return err
	}
	if err := r.EnsureQueue(r.cfg.UploadedQueue, true); err != nil {
		return err
	}
	if err := r.BindQueue(r.cfg.UploadedQueue, r.cfg.EventsExchange, r.cfg.UploadedRoutingKey); err != nil {
		return err
	}

	if err := r.EnsureExchange(r.cfg.CandidateExchange, "topic", true); err != nil {
		return err
	}
	if r.cfg.CandidateQueue == "" {
		return nil
	}
	if err := r.EnsureQueue(r.cfg.CandidateQueue, true); err != nil {
		return err
	}
	return r.BindQueue(r.cfg.CandidateQueue, r.cfg.CandidateExchange, r.cfg.CandidateRoutingKey)
}

func (r *RabbitMQ) getChannel() *amqp.Channel {
	ch := r.channelPool.Get()
	if ch == nil {
		newCh, err := r.conn.Channel()
		if err != nil {
			r.logger.Error().Err(err).Msg("创建新RabbitMQ通道失败")
			return nil
		}
		return newCh
	}
	c := ch.(*amqp.Channel)
	if c.IsClosed() {
		return r.getChannel()
	}
	return c
}

func (r *RabbitMQ) putChannel(ch *amqp.Channel) {
	if ch != nil && !ch.IsClosed() {
		r.channelPool.Put(ch)
	}
}

// Close 关闭连接
func (r *RabbitMQ) Close() error {
	return r.conn.Close()
}

// EnsureExchange 确保exchange存在
func (r *RabbitMQ) EnsureExchange(exchangeName, exchangeType string, durable bool) error {
	if exchangeName == "" {
		return fmt.Errorf("exchange名称不能为空")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.exchangeMap[exchangeName] {
		return nil
	}

	ch := r.getChannel()
	if ch == nil {
		return fmt.Errorf("无法获取RabbitMQ通道")
	}
	defer r.putChannel(ch)

	err := ch.ExchangeDeclare(
		exchangeName, // exchange名称
		exchangeType, // exchange类型
		durable,      // 持久化
		false,        // 自动删除
		false,        // 内部专用
		false,        // 非阻塞
		nil,          // 参数
	)
	if err != nil {
		return fmt.Errorf("声明exchange失败: %w", err)
	}

	r.exchangeMap[exchangeName] = true
	r.logger.Debug().Str("exchange", exchangeName).Str("type", exchangeType).Msg("已确保exchange存在")
	return nil
}

// EnsureQueue 确保队列存在
func (r *RabbitMQ) EnsureQueue(queueName string, durable bool) error {
	if queueName == "" {
		return fmt.Errorf("队列名称不能为空")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.queueMap[queueName] {
		return nil
	}

	ch := r.getChannel()
	if ch == nil {
		return fmt.Errorf("无法获取RabbitMQ通道")
	}
	defer r.putChannel(ch)

	_, err := ch.QueueDeclare(
		queueName, // 队列名称
		durable,   // 持久化
		false,     // 自动删除
		false,     // 独占
		false,     // 非阻塞
		nil,       // 参数
	)
	if err != nil {
		return fmt.Errorf("声明队列失败: %w", err)
	}

	r.queueMap[queueName] = true
	r.logger.Debug().Str("queue", queueName).Msg("已确保队列存在")
	return nil
}

// BindQueue 绑定队列到exchange
func (r *RabbitMQ) BindQueue(queueName, exchangeName, routingKey string) error {
	bindingKey := fmt.Sprintf("%s:%s:%s", exchangeName, queueName, routingKey)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bindingMap[bindingKey] {
		return nil
	}

	ch := r.getChannel()
	if ch == nil {
		return fmt.Errorf("无法获取RabbitMQ通道")
	}
	defer r.putChannel(ch)

	if err := ch.QueueBind(queueName, routingKey, exchangeName, false, nil); err != nil {
		return fmt.Errorf("绑定队列到exchange失败: %w", err)
	}

	r.bindingMap[bindingKey] = true
	r.logger.Debug().Str("queue", queueName).Str("exchange", exchangeName).Str("routing_key", routingKey).Msg("已绑定队列")
	return nil
}

// PublishMessage 发布消息，当前链路上下文写入消息头
func (r *RabbitMQ) PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error {
	messageID := uuid.NewString()
	ctx, span := mqTracer.Start(ctx, "RabbitMQ.Publish "+exchangeName,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination.name", exchangeName),
			attribute.String("messaging.rabbitmq.destination.routing_key", routingKey),
			attribute.String("messaging.message.id", messageID),
			attribute.Int("messaging.message.body.size", len(message)),
		))
	defer span.End()

	ch := r.getChannel()
	if ch == nil {
		err := fmt.Errorf("无法获取RabbitMQ通道")
		tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ)
		return err
	}
	defer r.putChannel(ch)

	deliveryMode := amqp.Transient
	if persistent {
		deliveryMode = amqp.Persistent
	}

	headers := amqp.Table{}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier(headers))

	err := ch.PublishWithContext(ctx, exchangeName, routingKey, false, false, amqp.Publishing{
		Headers:      headers,
		MessageId:    messageID,
		DeliveryMode: deliveryMode,
		ContentType:  "application/json",
		Body:         message,
		Timestamp:    time.Now(),
	})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ)
		return fmt.Errorf("发布消息到 %s/%s 失败: %w", exchangeName, routingKey, err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// PublishJSON 发布JSON格式的消息
func (r *RabbitMQ) PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("JSON序列化失败: %w", err)
	}
	return r.PublishMessage(ctx, exchangeName, routingKey, jsonData, persistent)
}

// StartConsumer 启动消费者，ctx 取消时停止；返回的通道在消费协程退出后关闭
func (r *RabbitMQ) StartConsumer(ctx context.Context, queueName string, prefetchCount int, handler DeliveryHandler) (<-chan struct{}, error) {
	ch := r.getChannel()
	if ch == nil {
		return nil, fmt.Errorf("无法获取RabbitMQ通道")
	}

	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("设置QoS失败: %w", err)
	}

	// 消费者标签留空由 server 生成，手动确认
	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("注册消费者失败: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		// 设置过 QoS 的通道不归还到池中
		defer ch.Close()
		defer r.logger.Info().Str("queue", queueName).Msg("RabbitMQ消费者已停止")

		r.logger.Info().Str("queue", queueName).Int("prefetch", prefetchCount).Msg("RabbitMQ消费者已启动")

		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					r.logger.Warn().Str("queue", queueName).Msg("RabbitMQ通道已关闭")
					return
				}
				r.handleDelivery(ctx, queueName, delivery, handler)
			}
		}
	}()

	return done, nil
}

func (r *RabbitMQ) handleDelivery(ctx context.Context, queueName string, delivery amqp.Delivery, handler DeliveryHandler) {
	if delivery.Headers != nil {
		ctx = otel.GetTextMapPropagator().Extract(ctx, headerCarrier(delivery.Headers))
	}
	ctx, span := mqTracer.Start(ctx, "RabbitMQ.Consume "+queueName,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.source.name", queueName),
			attribute.String("messaging.message.id", delivery.MessageId),
			attribute.Bool("messaging.rabbitmq.redelivered", delivery.Redelivered),
		))
	defer span.End()

	if handler(ctx, delivery.Body) {
		if err := delivery.Ack(false); err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ)
			r.logger.Error().Err(err).Str("message_id", delivery.MessageId).Msg("确认消息失败")
		}
		return
	}

	span.SetAttributes(attribute.Bool("messaging.requeued", true))
	if err := delivery.Nack(false, true); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ)
		r.logger.Error().Err(err).Str("message_id", delivery.MessageId).Msg("拒绝消息失败")
	}
}
