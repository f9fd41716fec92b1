package textsource

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"resume-extractor/internal/logger"

	"github.com/rs/zerolog"
)

// TikaConverter 通过 Apache Tika 服务器 (PUT /tika) 转换文档
type TikaConverter struct {
	ServerURL string
	Client    *http.Client
	// 是否提取链接注释文本
	extractAnnotations bool
	logger             zerolog.Logger
}

// TikaOption 配置选项
type TikaOption func(*TikaConverter)

// WithAnnotations 是否提取PDF链接注释文本
func WithAnnotations(extract bool) TikaOption {
	return func(c *TikaConverter) {
		c.extractAnnotations = extract
	}
}

// WithTimeout HTTP客户端超时
func WithTimeout(timeout time.Duration) TikaOption {
	return func(c *TikaConverter) {
		if timeout > 0 {
			c.Client.Timeout = timeout
		}
	}
}

// WithHTTPClient 替换HTTP客户端
func WithHTTPClient(client *http.Client) TikaOption {
	return func(c *TikaConverter) {
		if client != nil {
			c.Client = client
		}
	}
}

// NewTikaConverter 创建 Tika 转换器
func NewTikaConverter(serverURL string, options ...TikaOption) *TikaConverter {
	c := &TikaConverter{
		ServerURL:          strings.TrimRight(serverURL, "/"),
		Client:             &http.Client{Timeout: 60 * time.Second},
		extractAnnotations: true,
		logger:             logger.Logger.With().Str("component", "tika").Logger(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Convert 实现 Converter
func (c *TikaConverter) Convert(ctx context.Context, r io.Reader, name string) (string, error) {
	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.ServerURL+"/tika", r)
	if err != nil {
		return "", fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	if name != "" {
		req.Header.Set("X-Tika-Resource-Name", filepath.Base(name))
	}
	if !c.extractAnnotations {
		req.Header.Set("X-Tika-PDFExtractAnnotationText", "false")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("发送请求到Tika服务器失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tika服务器返回错误状态码: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("读取Tika响应失败: %w", err)
	}

	c.logger.Debug().
		Str("resource", name).
		Int("chars", len(body)).
		Dur("duration", time.Since(startTime)).
		Msg("Tika文本提取完成")
	return string(body), nil
}
