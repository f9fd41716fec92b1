package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resume-extractor/internal/config"
	"resume-extractor/internal/constants"
	"resume-extractor/internal/tracing"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound is returned when a key is not found in Redis.
var ErrNotFound = redis.Nil

var redisTracer = otel.Tracer("resume-extractor/storage/redis")

// Redis wraps the Redis client
type Redis struct {
	Client *redis.Client
}

// NewRedisAdapter creates a new Redis client connection
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries:      cfg.MaxRetries,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute,
	})

	// 所有 Redis 命令都会产生 span
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{Client: client}, nil
}

// NewRedisFromClient 包装一个已有的客户端，不做连通性检查
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{Client: client}
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// Get 获取键的值，键不存在时返回 ErrNotFound
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("redis客户端未初始化")
	}
	return r.Client.Get(ctx, key).Result()
}

// Set 设置键的值
func (r *Redis) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	return r.Client.Set(ctx, key, value, expiration).Err()
}

// SetBatchStatus 保存批次处理摘要(JSON)
func (r *Redis) SetBatchStatus(ctx context.Context, batchID string, summaryJSON string, ttl time.Duration) error {
	ctx, span := redisTracer.Start(ctx, "Redis.SetBatchStatus", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	key := fmt.Sprintf(constants.KeyBatchStatus, batchID)
	span.SetAttributes(
		semconv.DBSystemRedis,
		attribute.String("db.operation", "SET"),
		attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
		attribute.Int("db.redis.value_length", len(summaryJSON)),
	)

	if err := r.Set(ctx, key, summaryJSON, ttl); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return fmt.Errorf("保存批次状态失败: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// GetBatchStatus 读取批次处理摘要，不存在时返回 ErrNotFound
func (r *Redis) GetBatchStatus(ctx context.Context, batchID string) (string, error) {
	ctx, span := redisTracer.Start(ctx, "Redis.GetBatchStatus", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	key := fmt.Sprintf(constants.KeyBatchStatus, batchID)
	span.SetAttributes(
		semconv.DBSystemRedis,
		attribute.String("db.operation", "GET"),
		attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
	)

	val, err := r.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			span.SetAttributes(attribute.Bool("db.redis.key_exists", false))
			return "", err
		}
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return "", err
	}
	span.SetAttributes(attribute.Bool("db.redis.key_exists", true))
	return val, nil
}
