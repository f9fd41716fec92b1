package textsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"resume-extractor/internal/types"
)

// Source 按引用打开原始文档
type Source interface {
	Open(ctx context.Context, ref types.DocumentRef) (io.ReadCloser, error)
}

// FileSource 从本地目录读取，Bucket 作为子目录
type FileSource struct {
	BaseDir string
}

// NewFileSource 创建本地文件来源
func NewFileSource(baseDir string) *FileSource {
	if baseDir == "" {
		baseDir = "."
	}
	return &FileSource{BaseDir: baseDir}
}

// Open 打开 BaseDir/Bucket/Key，拒绝越出 BaseDir 的路径
func (s *FileSource) Open(ctx context.Context, ref types.DocumentRef) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := filepath.Abs(s.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("解析基础目录失败: %w", err)
	}
	path := filepath.Join(base, ref.Bucket, filepath.FromSlash(ref.Key))
	if path != base && !strings.HasPrefix(path, base+string(filepath.Separator)) {
		return nil, unavailable(ref, errors.New("路径越界"))
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, unavailable(ref, err)
		}
		return nil, fmt.Errorf("打开文件失败: %w", err)
	}
	return f, nil
}

// ObjectReader 对象读取，storage.MinIO 实现了该接口
type ObjectReader interface {
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// ObjectSource 从对象存储读取
type ObjectSource struct {
	store ObjectReader
}

// NewObjectSource 创建对象存储来源
func NewObjectSource(store ObjectReader) *ObjectSource {
	return &ObjectSource{store: store}
}

// Open 读取对象，对象不存在时返回 ErrDocumentUnavailable
func (s *ObjectSource) Open(ctx context.Context, ref types.DocumentRef) (io.ReadCloser, error) {
	rc, err := s.store.GetObject(ctx, ref.Bucket, ref.Key)
	if err != nil {
		if errors.Is(err, ErrDocumentUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("读取对象失败: %w", err)
	}
	return rc, nil
}
