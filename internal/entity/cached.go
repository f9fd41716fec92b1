package entity

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resume-extractor/internal/constants"
	"resume-extractor/internal/logger"
	"resume-extractor/internal/storage"
	"resume-extractor/internal/types"

	"github.com/rs/zerolog"
)

// Cache 识别结果缓存，storage.Redis 实现了该接口
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
}

var _ Cache = (*storage.Redis)(nil)

// CachedRecognizer 以文本MD5为键缓存识别结果，缓存故障不影响识别本身
type CachedRecognizer struct {
	next   Recognizer
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedRecognizer 包装一个识别器
func NewCachedRecognizer(next Recognizer, cache Cache, ttl time.Duration) *CachedRecognizer {
	if ttl <= 0 {
		ttl = constants.EntityCacheDuration
	}
	return &CachedRecognizer{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.Logger.With().Str("component", "entity_cache").Logger(),
	}
}

// CacheKey 计算缓存键
func CacheKey(text, languageHint string) string {
	sum := md5.Sum([]byte(text))
	return fmt.Sprintf(constants.KeyEntityCache, languageHint, hex.EncodeToString(sum[:]))
}

// DetectEntities 先查缓存，未命中再调用下游；只缓存成功结果
func (c *CachedRecognizer) DetectEntities(ctx context.Context, text, languageHint string) ([]types.Entity, error) {
	key := CacheKey(text, languageHint)

	cached, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var entities []types.Entity
		if jsonErr := json.Unmarshal([]byte(cached), &entities); jsonErr == nil {
			c.logger.Debug().Str("key", key).Int("entities", len(entities)).Msg("实体识别缓存命中")
			return entities, nil
		}
		c.logger.Warn().Str("key", key).Msg("缓存内容无法解析，重新识别")
	case errors.Is(err, storage.ErrNotFound):
	default:
		c.logger.Warn().Err(err).Str("key", key).Msg("读取实体识别缓存失败")
	}

	entities, err := c.next.DetectEntities(ctx, text, languageHint)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(entities)
	if err == nil {
		if setErr := c.cache.Set(ctx, key, string(payload), c.ttl); setErr != nil {
			c.logger.Warn().Err(setErr).Str("key", key).Msg("写入实体识别缓存失败")
		}
	}
	return entities, nil
}
