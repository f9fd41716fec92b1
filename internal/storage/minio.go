package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"resume-extractor/internal/config"
	"resume-extractor/internal/tracing"
	"resume-extractor/internal/types"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var minioTracer = otel.Tracer("resume-extractor/storage/minio")

// MinIO 存放上传的简历原件，同时作为文本来源读取对象
type MinIO struct {
	client *minio.Client
	cfg    *config.MinIOConfig
	bucket string
	logger zerolog.Logger
}

// NewMinIO 创建MinIO客户端并确保默认存储桶存在
func NewMinIO(cfg *config.MinIOConfig, logger zerolog.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("MinIO存储桶名称不能为空")
	}
	logger.Debug().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.BucketName).Msg("初始化MinIO客户端")

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client: client,
		cfg:    cfg,
		bucket: cfg.BucketName,
		logger: logger,
	}

	ctx := context.Background()
	if err := m.ensureBucketExists(ctx, m.bucket, cfg.Location); err != nil {
		return nil, err
	}

	if cfg.ObjectExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.bucket, "expire-uploads", cfg.ObjectExpireDays); err != nil {
			logger.Warn().Err(err).Str("bucket", m.bucket).Msg("设置生命周期规则失败")
		}
	}

	logger.Info().Str("endpoint", cfg.Endpoint).Msg("MinIO客户端初始化成功")
	return m, nil
}

// Bucket 默认存储桶
func (m *MinIO) Bucket() string {
	return m.bucket
}

func (m *MinIO) ensureBucketExists(ctx context.Context, bucketName, location string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if exists {
		m.logger.Debug().Str("bucket", bucketName).Msg("存储桶已存在")
		return nil
	}
	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
	}
	m.logger.Info().Str("bucket", bucketName).Msg("存储桶创建成功")
	return nil
}

func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	return m.client.SetBucketLifecycle(ctx, bucketName, cfg)
}

func (m *MinIO) bucketOrDefault(bucket string) string {
	if bucket == "" {
		return m.bucket
	}
	return bucket
}

// ObjectExists 检查对象是否存在
func (m *MinIO) ObjectExists(ctx context.Context, bucket, key string) (bool, error) {
	bucket = m.bucketOrDefault(bucket)
	_, err := m.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isMissingObject(err) {
		return false, nil
	}
	return false, fmt.Errorf("查询对象 %s/%s 失败: %w", bucket, key, err)
}

// GetObject 打开对象读取流，对象或存储桶不存在时返回 types.ErrDocumentUnavailable
func (m *MinIO) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	bucket = m.bucketOrDefault(bucket)
	ctx, span := minioTracer.Start(ctx, "MinIO.GetObject", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("object_store.bucket", bucket),
			attribute.String("object_store.key", tracing.SafeObjectKey(key)),
		))
	defer span.End()

	// GetObject 是惰性的，先 Stat 以区分“不存在”与其他错误
	if _, err := m.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		if isMissingObject(err) {
			return nil, fmt.Errorf("%w: %s/%s", types.ErrDocumentUnavailable, bucket, key)
		}
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return nil, fmt.Errorf("查询对象 %s/%s 失败: %w", bucket, key, err)
	}

	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return nil, fmt.Errorf("读取对象 %s/%s 失败: %w", bucket, key, err)
	}
	return obj, nil
}

// UploadDocument 上传简历原件到默认存储桶
func (m *MinIO) UploadDocument(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (types.DocumentRef, error) {
	ctx, span := minioTracer.Start(ctx, "MinIO.UploadDocument", trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("object_store.bucket", m.bucket),
			attribute.String("object_store.key", tracing.SafeObjectKey(key)),
			attribute.Int64("object_store.size", size),
		))
	defer span.End()

	if contentType == "" {
		contentType = getContentType(path.Ext(key))
	}

	info, err := m.client.PutObject(ctx, m.bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return types.DocumentRef{}, fmt.Errorf("上传对象 %s/%s 失败: %w", m.bucket, key, err)
	}

	m.logger.Debug().Str("bucket", m.bucket).Str("key", key).Str("etag", info.ETag).Int64("size", info.Size).Msg("上传简历原件成功")
	return types.DocumentRef{Bucket: m.bucket, Key: key}, nil
}

func isMissingObject(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	}
	return false
}

// getContentType 根据文件扩展名获取Content-Type
func getContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
