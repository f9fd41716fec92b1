// Package textsource 把文档引用解析为原始文本：OCR（Textract）或 读取原文件后转换（Tika/Eino/docconv/纯文本）。
package textsource

import (
	"context"
	"fmt"
	"strings"

	"resume-extractor/internal/types"
)

var (
	// ErrDocumentUnavailable 文档不存在或无权访问
	ErrDocumentUnavailable = types.ErrDocumentUnavailable
	// ErrNoTextExtracted 文档中只有空白
	ErrNoTextExtracted = types.ErrNoTextExtracted
)

// Provider 文档文本提供者
type Provider interface {
	GetText(ctx context.Context, ref types.DocumentRef) (string, error)
}

// ProviderFunc 函数适配器
type ProviderFunc func(ctx context.Context, ref types.DocumentRef) (string, error)

// GetText 实现 Provider
func (f ProviderFunc) GetText(ctx context.Context, ref types.DocumentRef) (string, error) {
	return f(ctx, ref)
}

// NormalizeText 把任意空白序列折叠为单个空格，得到按阅读顺序以空格连接的词序列
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// JoinWords 以单个空格连接非空词
func JoinWords(words []string) string {
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func ensureText(ref types.DocumentRef, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s", ErrNoTextExtracted, ref)
	}
	return text, nil
}

func unavailable(ref types.DocumentRef, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrDocumentUnavailable, ref)
	}
	return fmt.Errorf("%w: %s: %v", ErrDocumentUnavailable, ref, err)
}
