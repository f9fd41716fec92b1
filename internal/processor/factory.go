package processor

import (
	"context"
	"fmt"
	"time"

	"resume-extractor/internal/awsclient"
	"resume-extractor/internal/config"
	"resume-extractor/internal/constants"
	"resume-extractor/internal/entity"
	"resume-extractor/internal/extractor"
	"resume-extractor/internal/logger"
	"resume-extractor/internal/storage"
	"resume-extractor/internal/textsource"
)

var (
	_ textsource.ObjectLocator = (*storage.MinIO)(nil)
	_ textsource.ObjectReader  = (*storage.MinIO)(nil)
	_ Extractor                = (*extractor.Engine)(nil)
)

// BuildConverter 按类型创建二进制到文本的转换器
func BuildConverter(ctx context.Context, typ string, tika config.TikaConfig) (textsource.Converter, error) {
	switch typ {
	case "plain", "":
		return textsource.PlainConverter{}, nil
	case "tika":
		opts := []textsource.TikaOption{textsource.WithAnnotations(tika.MetadataMode == "full")}
		if tika.Timeout > 0 {
			opts = append(opts, textsource.WithTimeout(time.Duration(tika.Timeout)*time.Second))
		}
		return textsource.NewTikaConverter(tika.ServerURL, opts...), nil
	case "eino":
		c, err := textsource.NewEinoPDFConverter(ctx)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "docconv":
		return textsource.DocconvConverter{}, nil
	default:
		return nil, fmt.Errorf("不支持的文本转换器类型: %s", typ)
	}
}

// BuildProvider 按配置创建文本来源。textract 直接对存储桶中的文档做 OCR，其余类型先读取原件再转换。
func BuildProvider(ctx context.Context, cfg *config.Config, st *storage.Storage) (textsource.Provider, error) {
	if cfg.TextSource.Type == "textract" {
		awsCfg, err := awsclient.LoadConfig(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		var opts []textsource.TextractOption
		if st != nil && st.MinIO != nil {
			opts = append(opts, textsource.WithObjectLocator(st.MinIO))
		}
		return textsource.NewTextractProvider(awsclient.NewTextractClient(awsCfg, cfg.AWS.Endpoint), opts...), nil
	}

	var source textsource.Source
	switch cfg.TextSource.Source {
	case "minio":
		if st == nil || st.MinIO == nil {
			return nil, fmt.Errorf("文本来源配置为 minio，但 MinIO 不可用")
		}
		source = textsource.NewObjectSource(st.MinIO)
	default:
		source = textsource.NewFileSource(cfg.TextSource.BaseDir)
	}

	converter, err := BuildConverter(ctx, cfg.TextSource.Type, cfg.TextSource.Tika)
	if err != nil {
		return nil, err
	}
	return textsource.NewConvertingProvider(source, converter), nil
}

// BuildRecognizer 按配置创建实体识别链：缓存 -> 限流 -> Comprehend。type 为 none 时返回 nil。
func BuildRecognizer(ctx context.Context, cfg *config.Config, st *storage.Storage) (entity.Recognizer, error) {
	if cfg.Entity.Type != "comprehend" {
		return nil, nil
	}

	awsCfg, err := awsclient.LoadConfig(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}

	var opts []entity.ComprehendOption
	if cfg.Entity.EndpointArn != "" {
		opts = append(opts, entity.WithEndpointArn(cfg.Entity.EndpointArn))
	}
	var rec entity.Recognizer = entity.NewComprehendRecognizer(awsclient.NewComprehendClient(awsCfg, cfg.AWS.Endpoint), opts...)
	rec = entity.NewLimitedRecognizer(rec, cfg.Entity.QPM, cfg.Entity.Burst)

	if cfg.Entity.CacheEnabled {
		if st != nil && st.Redis != nil {
			ttl := config.GetDuration(cfg.Entity.CacheTTL, constants.EntityCacheDuration)
			rec = entity.NewCachedRecognizer(rec, st.Redis, ttl)
		} else {
			logger.Warn().Msg("实体识别缓存已启用，但 Redis 不可用，跳过缓存")
		}
	}
	return rec, nil
}

// BuildEngine 按配置创建字段提取引擎
func BuildEngine(cfg *config.Config, rec entity.Recognizer) *extractor.Engine {
	names := cfg.Extraction.Skills
	if len(names) == 0 {
		names = extractor.DefaultSkillNames()
	}
	return extractor.NewEngine(extractor.NewSkillCatalog(names...),
		extractor.WithRecognizer(rec),
		extractor.WithLanguageHint(cfg.Extraction.LanguageHint),
		extractor.WithSkillEntityType(cfg.Extraction.SkillEntityType),
		extractor.WithEntityTimeout(config.GetDuration(cfg.Extraction.EntityTimeout, 5*time.Second)),
	)
}

// BuildCandidateStore 创建候选人存储；RabbitMQ 可用且启用发件箱时附带事件消息
func BuildCandidateStore(cfg *config.Config, st *storage.Storage) *storage.GormCandidateStore {
	var opts []storage.CandidateStoreOption
	if cfg.Outbox.Enabled {
		opts = append(opts, storage.WithOutbox(cfg.RabbitMQ.CandidateExchange, cfg.RabbitMQ.CandidateRoutingKey))
	}
	return storage.NewGormCandidateStore(st.DB.DB(), opts...)
}

// NewBatchProcessorFromConfig 组装完整的批处理器
func NewBatchProcessorFromConfig(ctx context.Context, cfg *config.Config, st *storage.Storage) (*BatchProcessor, *extractor.Engine, error) {
	provider, err := BuildProvider(ctx, cfg, st)
	if err != nil {
		return nil, nil, fmt.Errorf("创建文本来源失败: %w", err)
	}
	rec, err := BuildRecognizer(ctx, cfg, st)
	if err != nil {
		return nil, nil, fmt.Errorf("创建实体识别服务失败: %w", err)
	}
	engine := BuildEngine(cfg, rec)

	opts := []Option{
		WithConcurrency(cfg.Processor.Concurrency),
		WithDocumentTimeout(config.GetDuration(cfg.Processor.DocumentTimeout, constants.DefaultDocumentTimeout)),
		WithDefaultBucket(cfg.TextSource.Bucket),
	}
	if cfg.Processor.Persist && st != nil && st.DB != nil {
		opts = append(opts, WithStore(BuildCandidateStore(cfg, st)))
	}
	if st != nil && st.Redis != nil {
		opts = append(opts, WithBatchStatusStore(st.Redis, 24*time.Hour))
	}

	return NewBatchProcessor(provider, engine, opts...), engine, nil
}
