package processor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"resume-extractor/internal/config"
	"resume-extractor/internal/constants"
	"resume-extractor/internal/extractor"
	"resume-extractor/internal/storage"
	"resume-extractor/internal/textsource"
	"resume-extractor/internal/types"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/smithy-go"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resumeText = "Jane Doe resume jane@example.com 5 years of Python and AWS"

type fakeStore struct {
	mu      sync.Mutex
	records []*types.CandidateRecord
	sources []types.DocumentRef
	err     error
}

func (f *fakeStore) Put(ctx context.Context, record *types.CandidateRecord, source types.DocumentRef) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.records = append(f.records, record)
	f.sources = append(f.sources, source)
	return "id-" + source.Key, nil
}

func (f *fakeStore) Get(ctx context.Context, resumeID string) (*types.StoredCandidate, error) {
	return nil, storage.ErrCandidateNotFound
}

// textByKey 按对象键返回文本；键以 "missing" 开头时文档不存在，以 "blank" 开头时无文本
func textByKey(ctx context.Context, ref types.DocumentRef) (string, error) {
	switch {
	case strings.HasPrefix(ref.Key, "missing"):
		return "", textsource.ErrDocumentUnavailable
	case strings.HasPrefix(ref.Key, "blank"):
		return "", textsource.ErrNoTextExtracted
	}
	return resumeText, nil
}

func newTestProcessor(store storage.CandidateStore, opts ...Option) *BatchProcessor {
	if store != nil {
		opts = append(opts, WithStore(store))
	}
	return NewBatchProcessor(textsource.ProviderFunc(textByKey), extractor.NewEngine(nil), opts...)
}

func event(keys ...string) types.BatchEvent {
	refs := make([]types.DocumentRef, 0, len(keys))
	for _, k := range keys {
		refs = append(refs, types.DocumentRef{Bucket: "resumes", Key: k})
	}
	return types.NewBatchEvent(refs...)
}

func TestProcessEventAllSucceed(t *testing.T) {
	store := &fakeStore{}
	p := newTestProcessor(store)

	result := p.ProcessEvent(context.Background(), event("a.pdf", "b.pdf"))
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, constants.MsgProcessedSuccessfully, result.Message)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	assert.NotEmpty(t, result.BatchID)

	require.Len(t, result.Documents, 2)
	assert.Equal(t, "a.pdf", result.Documents[0].Key, "结果顺序与事件记录顺序一致")
	assert.Equal(t, "id-a.pdf", result.Documents[0].ResumeID)
	assert.Equal(t, constants.StatusExtracted, result.Documents[0].Status)
	require.NotNil(t, result.Documents[0].Record)
	assert.Equal(t, "jane@example.com", result.Documents[0].Record.Email)
	assert.Equal(t, "5", result.Documents[0].Record.ExperienceYears)

	assert.Len(t, store.records, 2)
}

func TestProcessEventWithoutRecords(t *testing.T) {
	store := &fakeStore{}
	result := newTestProcessor(store).ProcessEvent(context.Background(), types.BatchEvent{})
	assert.Equal(t, http.StatusBadRequest, result.StatusCode)
	assert.Equal(t, constants.MsgInvalidEvent, result.Message)
	assert.Empty(t, result.Documents)
	assert.Empty(t, store.records)
}

func TestProcessEventClientFailures(t *testing.T) {
	store := &fakeStore{}
	p := newTestProcessor(store)

	result := p.ProcessEvent(context.Background(), event("blank.pdf"))
	assert.Equal(t, http.StatusBadRequest, result.StatusCode)
	assert.Equal(t, constants.MsgNoTextFound, result.Message)
	assert.True(t, errors.Is(result.Documents[0].Err(), types.ErrNoTextExtracted))
	assert.True(t, errors.Is(result.Documents[0].Err(), ErrFetchTextFailed))

	result = p.ProcessEvent(context.Background(), event("ok.pdf", "missing.pdf", "blank.pdf"))
	assert.Equal(t, http.StatusBadRequest, result.StatusCode, "失败都属于客户端原因时返回400")
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, constants.StatusFailed, result.Documents[1].Status)
	assert.NotEmpty(t, result.Documents[1].Error)
	assert.Len(t, store.records, 1, "失败的文档不影响其他文档入库")
}

func TestProcessEventServerFailures(t *testing.T) {
	awsErr := &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "not authorized"}
	provider := textsource.ProviderFunc(func(ctx context.Context, ref types.DocumentRef) (string, error) {
		if ref.Key == "aws.pdf" {
			return "", awsErr
		}
		return textByKey(ctx, ref)
	})
	p := NewBatchProcessor(provider, extractor.NewEngine(nil))

	result := p.ProcessEvent(context.Background(), event("blank.pdf", "aws.pdf", "ok.pdf"))
	assert.Equal(t, http.StatusInternalServerError, result.StatusCode)
	assert.True(t, strings.HasPrefix(result.Message, "AWS Error: "), "实际: %s", result.Message)
	assert.Contains(t, result.Message, "AccessDeniedException")

	store := &fakeStore{err: errors.New("connection reset")}
	result = newTestProcessor(store).ProcessEvent(context.Background(), event("ok.pdf"))
	assert.Equal(t, http.StatusInternalServerError, result.StatusCode)
	assert.True(t, strings.HasPrefix(result.Message, "Error: "), "实际: %s", result.Message)
	assert.True(t, errors.Is(result.Documents[0].Err(), ErrStoreFailed))
}

func TestProcessEventEmptyKeyIsInvalid(t *testing.T) {
	for _, key := range []string{"", "   "} {
		result := newTestProcessor(nil).ProcessEvent(context.Background(), event(key))
		assert.Equal(t, http.StatusBadRequest, result.StatusCode, "键为 %q", key)
		require.Len(t, result.Documents, 1)
		assert.True(t, errors.Is(result.Documents[0].Err(), ErrInvalidEvent))

		var verrs validator.ValidationErrors
		require.True(t, errors.As(result.Documents[0].Err(), &verrs), "应由 validate 标签拒绝")
		assert.Equal(t, "Key", verrs[0].Field())
	}
}

func TestProcessEventDefaultBucket(t *testing.T) {
	store := &fakeStore{}
	p := newTestProcessor(store, WithDefaultBucket("fallback"))

	evt := types.NewBatchEvent(types.DocumentRef{Key: "a.pdf"}, types.DocumentRef{Bucket: "explicit", Key: "b.pdf"})
	result := p.ProcessEvent(context.Background(), evt)
	require.Equal(t, http.StatusOK, result.StatusCode)

	buckets := map[string]string{}
	for _, src := range store.sources {
		buckets[src.Key] = src.Bucket
	}
	assert.Equal(t, "fallback", buckets["a.pdf"], "事件未带桶名时使用默认桶")
	assert.Equal(t, "explicit", buckets["b.pdf"], "事件中的桶名优先")
}

func TestProcessEventWithoutStoreOnlyExtracts(t *testing.T) {
	result := newTestProcessor(nil).ProcessEvent(context.Background(), event("a.pdf"))
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Empty(t, result.Documents[0].ResumeID)
	assert.NotNil(t, result.Documents[0].Record)
}

func TestProcessEventBoundedConcurrency(t *testing.T) {
	var inFlight, maxInFlight int32
	provider := textsource.ProviderFunc(func(ctx context.Context, ref types.DocumentRef) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			old := atomic.LoadInt32(&maxInFlight)
			if n <= old || atomic.CompareAndSwapInt32(&maxInFlight, old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return resumeText, nil
	})
	p := NewBatchProcessor(provider, extractor.NewEngine(nil), WithConcurrency(2))

	result := p.ProcessEvent(context.Background(), event("1", "2", "3", "4", "5", "6"))
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.LessOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(2), "同时处理的文档数不超过并发上限")
}

func TestProcessEventPerDocumentTimeout(t *testing.T) {
	provider := textsource.ProviderFunc(func(ctx context.Context, ref types.DocumentRef) (string, error) {
		if ref.Key == "slow.pdf" {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return resumeText, nil
	})
	p := NewBatchProcessor(provider, extractor.NewEngine(nil), WithDocumentTimeout(30*time.Millisecond))

	result := p.ProcessEvent(context.Background(), event("slow.pdf", "fast.pdf"))
	assert.Equal(t, http.StatusInternalServerError, result.StatusCode)
	assert.True(t, errors.Is(result.Documents[0].Err(), context.DeadlineExceeded))
	assert.Equal(t, constants.StatusExtracted, result.Documents[1].Status, "一个文档超时不影响其他文档")
}

func TestProcessEventSavesBatchStatus(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	rdb := storage.NewRedisFromClient(client)

	p := newTestProcessor(nil, WithBatchStatusStore(rdb, time.Hour))
	result := p.ProcessEvent(context.Background(), event("a.pdf"))

	raw, err := rdb.GetBatchStatus(context.Background(), result.BatchID)
	require.NoError(t, err)
	var saved BatchResult
	require.NoError(t, json.Unmarshal([]byte(raw), &saved))
	assert.Equal(t, http.StatusOK, saved.StatusCode)
	assert.Equal(t, result.BatchID, saved.BatchID)
	assert.Len(t, saved.Documents, 1)
}

func TestDocumentError(t *testing.T) {
	err := NewFetchError("resumes/a.pdf", textsource.ErrDocumentUnavailable)
	assert.True(t, errors.Is(err, ErrFetchTextFailed))
	assert.True(t, errors.Is(err, types.ErrDocumentUnavailable))
	assert.False(t, errors.Is(err, ErrStoreFailed))
	assert.Contains(t, err.Error(), "resumes/a.pdf")

	var docErr *DocumentError
	require.True(t, errors.As(err, &docErr))
	assert.Equal(t, "fetch", docErr.Op)
}

func TestHandleMessage(t *testing.T) {
	store := &fakeStore{}
	p := newTestProcessor(store)

	assert.True(t, p.HandleMessage(context.Background(), []byte("{not json")), "无法解析的消息应确认丢弃")

	body, err := json.Marshal(event("a.pdf"))
	require.NoError(t, err)
	assert.True(t, p.HandleMessage(context.Background(), body))
	assert.Len(t, store.records, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := NewBatchProcessor(textsource.ProviderFunc(func(ctx context.Context, ref types.DocumentRef) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), extractor.NewEngine(nil))
	assert.False(t, slow.HandleMessage(ctx, body), "服务停止导致未完成的批次应重新入队")
}

func TestBuildConverter(t *testing.T) {
	for _, typ := range []string{"plain", "tika", "docconv"} {
		c, err := BuildConverter(context.Background(), typ, config.TikaConfig{ServerURL: "http://localhost:9998", Timeout: 5})
		require.NoError(t, err, typ)
		assert.NotNil(t, c, typ)
	}
	_, err := BuildConverter(context.Background(), "ocr", config.TikaConfig{})
	assert.Error(t, err)
}

func TestBuildEngineAndRecognizer(t *testing.T) {
	cfg := &config.Config{}
	cfg.Entity.Type = "none"
	cfg.Extraction.Skills = []string{"Go", "Rust"}

	rec, err := BuildRecognizer(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, rec, "type 为 none 时不创建识别器")

	engine := BuildEngine(cfg, rec)
	assert.Equal(t, []string{"Go", "Rust"}, engine.Catalog().Names())

	cfg.Extraction.Skills = nil
	assert.Equal(t, extractor.DefaultSkillNames(), BuildEngine(cfg, nil).Catalog().Names())
}

func TestBuildProviderRequiresMinIO(t *testing.T) {
	cfg := &config.Config{}
	cfg.TextSource.Type = "plain"
	cfg.TextSource.Source = "minio"
	_, err := BuildProvider(context.Background(), cfg, &storage.Storage{})
	assert.Error(t, err)

	cfg.TextSource.Source = "file"
	cfg.TextSource.BaseDir = t.TempDir()
	p, err := BuildProvider(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, p)
}
