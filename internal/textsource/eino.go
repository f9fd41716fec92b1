package textsource

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
)

// EinoPDFConverter 使用 Eino PDF Parser 提取整份 PDF 的文本
type EinoPDFConverter struct {
	parser *pdf.PDFParser
}

// NewEinoPDFConverter 初始化解析器，不按页面切分
func NewEinoPDFConverter(ctx context.Context) (*EinoPDFConverter, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("创建Eino PDF解析器失败: %w", err)
	}
	return &EinoPDFConverter{parser: p}, nil
}

// Convert 实现 Converter
func (c *EinoPDFConverter) Convert(ctx context.Context, r io.Reader, name string) (string, error) {
	docs, err := c.parser.Parse(ctx, r, einoParser.WithURI(name))
	if err != nil {
		return "", fmt.Errorf("eino PDF解析 %s 失败: %w", name, err)
	}

	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, doc.Content)
	}
	return strings.Join(parts, "\n"), nil
}
