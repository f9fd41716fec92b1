// Package awsclient 构建 Comprehend 和 Textract 客户端
package awsclient

import (
	"context"
	"errors"
	"fmt"

	"resume-extractor/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/smithy-go"
)

// LoadConfig 加载 AWS SDK 配置。配置了静态密钥时优先使用，否则走默认凭证链（环境变量、实例角色等）。
func LoadConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			cfg.SessionToken,
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("加载AWS配置失败: %w", err)
	}
	return awsCfg, nil
}

// NewComprehendClient 创建 Comprehend 客户端，endpoint 非空时覆盖服务地址
func NewComprehendClient(awsCfg aws.Config, endpoint string) *comprehend.Client {
	return comprehend.NewFromConfig(awsCfg, func(o *comprehend.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// NewTextractClient 创建 Textract 客户端，endpoint 非空时覆盖服务地址
func NewTextractClient(awsCfg aws.Config, endpoint string) *textract.Client {
	return textract.NewFromConfig(awsCfg, func(o *textract.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// IsAPIError 判断错误链中是否有 AWS 服务端返回的错误
func IsAPIError(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr)
}

// ErrorCode 返回 AWS 错误码，非 AWS 错误时返回空串
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
