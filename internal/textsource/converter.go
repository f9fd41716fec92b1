package textsource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"code.sajari.com/docconv"
)

// Converter 把原始文件内容转换为文本，name 用于推断文件类型
type Converter interface {
	Convert(ctx context.Context, r io.Reader, name string) (string, error)
}

// PlainConverter 按 UTF-8 文本直接读取
type PlainConverter struct{}

// Convert 实现 Converter
func (PlainConverter) Convert(ctx context.Context, r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("读取文本失败: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("文件 %s 不是有效的UTF-8文本", name)
	}
	return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), nil
}

// DocconvConverter 使用 docconv 转换 PDF/DOCX/RTF/ODT/HTML
type DocconvConverter struct {
	// Readability 对 HTML 启用正文抽取
	Readability bool
}

// Convert 实现 Converter，MIME 类型由扩展名推断
func (c DocconvConverter) Convert(ctx context.Context, r io.Reader, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	mimeType := docconv.MimeTypeByExtension(name)
	res, err := docconv.Convert(r, mimeType, c.Readability)
	if err != nil {
		return "", fmt.Errorf("docconv转换 %s (%s) 失败: %w", name, mimeType, err)
	}
	return res.Body, nil
}
