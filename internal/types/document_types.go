package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTextExtracted 文档存在但只得到空白文本
	ErrNoTextExtracted = errors.New("文档中未提取到文本")
	// ErrDocumentUnavailable 引用的文档无法定位
	ErrDocumentUnavailable = errors.New("文档不存在或无法访问")
)

// DocumentRef 待处理文档的引用
type DocumentRef struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key" validate:"required,notblank"`
}

func (r DocumentRef) String() string {
	if r.Bucket == "" {
		return r.Key
	}
	return fmt.Sprintf("%s/%s", r.Bucket, r.Key)
}

// BatchEvent 批处理事件，沿用S3对象通知的结构
type BatchEvent struct {
	Records []EventRecord `json:"Records"`
}

// EventRecord 单条通知记录
type EventRecord struct {
	S3 S3Entity `json:"s3"`
}

// S3Entity 通知中的存储桶与对象
type S3Entity struct {
	Bucket S3Bucket `json:"bucket"`
	Object S3Object `json:"object"`
}

// S3Bucket 存储桶信息
type S3Bucket struct {
	Name string `json:"name"`
}

// S3Object 对象信息
type S3Object struct {
	Key  string `json:"key"`
	Size int64  `json:"size,omitempty"`
}

// DocumentRefs 将事件展开为文档引用，记录未携带桶名时使用 defaultBucket
func (e BatchEvent) DocumentRefs(defaultBucket string) []DocumentRef {
	refs := make([]DocumentRef, 0, len(e.Records))
	for _, rec := range e.Records {
		bucket := rec.S3.Bucket.Name
		if bucket == "" {
			bucket = defaultBucket
		}
		refs = append(refs, DocumentRef{Bucket: bucket, Key: rec.S3.Object.Key})
	}
	return refs
}

// NewBatchEvent 由文档引用构造事件，上传接口和命令行复用
func NewBatchEvent(refs ...DocumentRef) BatchEvent {
	event := BatchEvent{Records: make([]EventRecord, 0, len(refs))}
	for _, ref := range refs {
		event.Records = append(event.Records, EventRecord{S3: S3Entity{
			Bucket: S3Bucket{Name: ref.Bucket},
			Object: S3Object{Key: ref.Key},
		}})
	}
	return event
}
