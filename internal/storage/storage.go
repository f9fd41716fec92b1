package storage

import (
	"context"
	"fmt"
	"strings"

	"resume-extractor/internal/config"
	"resume-extractor/internal/logger"
)

// Storage 存储管理器，聚合所有存储相关依赖
type Storage struct {
	// 关系型数据库，保存候选人记录与发件箱
	DB *Database

	// 对象存储
	MinIO *MinIO

	// 键值存储
	Redis *Redis

	// 消息队列
	RabbitMQ *RabbitMQ
}

// NewStorage 创建存储管理器。数据库是必需的，其余组件初始化失败只记录警告。
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	log := logger.Logger.With().Str("component", "storage").Logger()
	storage := &Storage{}
	var err error
	var initErrors []string

	storage.DB, err = NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}
	log.Info().Str("driver", storage.DB.Driver()).Msg("数据库初始化成功")

	if cfg.MinIO.Endpoint != "" {
		minioLogger := logger.Logger.With().Str("component", "minio").Logger()
		storage.MinIO, err = NewMinIO(&cfg.MinIO, minioLogger)
		if err != nil {
			log.Warn().Err(err).Msg("初始化MinIO失败")
			initErrors = append(initErrors, fmt.Sprintf("MinIO: %v", err))
		}
	}

	if cfg.Redis.Address != "" {
		log.Info().Str("address", cfg.Redis.Address).Msg("初始化Redis")
		storage.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("初始化Redis失败")
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
		}
	} else {
		log.Info().Msg("Redis未配置, 跳过初始化")
	}

	if cfg.RabbitMQ.URL != "" {
		storage.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
		if err == nil {
			err = storage.RabbitMQ.SetupTopology()
			if err != nil {
				storage.RabbitMQ.Close()
				storage.RabbitMQ = nil
			}
		}
		if err != nil {
			log.Warn().Err(err).Msg("初始化RabbitMQ失败")
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ: %v", err))
		}
	}

	if len(initErrors) > 0 {
		log.Warn().Str("failed", strings.Join(initErrors, "; ")).Msg("以下存储组件初始化失败")
	}

	return storage, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	log := logger.Logger.With().Str("component", "storage").Logger()

	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			log.Error().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("关闭Redis连接失败")
		}
	}
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			log.Error().Err(err).Msg("关闭数据库连接失败")
		}
	}
}
