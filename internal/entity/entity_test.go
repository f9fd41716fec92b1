package entity

import (
	"context"
	"errors"
	"testing"
	"time"

	"resume-extractor/internal/storage"
	"resume-extractor/internal/types"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	comprehendtypes "github.com/aws/aws-sdk-go-v2/service/comprehend/types"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeComprehend struct {
	input *comprehend.DetectEntitiesInput
	out   *comprehend.DetectEntitiesOutput
	err   error
}

func (f *fakeComprehend) DetectEntities(ctx context.Context, params *comprehend.DetectEntitiesInput, optFns ...func(*comprehend.Options)) (*comprehend.DetectEntitiesOutput, error) {
	f.input = params
	return f.out, f.err
}

func TestComprehendRecognizerMapsEntities(t *testing.T) {
	fake := &fakeComprehend{out: &comprehend.DetectEntitiesOutput{
		Entities: []comprehendtypes.Entity{
			{Text: aws.String("Kubernetes"), Type: comprehendtypes.EntityType("SKILL")},
			{Text: aws.String("Acme"), Type: comprehendtypes.EntityTypeOrganization},
		},
	}}

	r := NewComprehendRecognizer(fake)
	entities, err := r.DetectEntities(context.Background(), "some text", "en")
	require.NoError(t, err)
	assert.Equal(t, []types.Entity{
		{Label: "Kubernetes", Type: "SKILL"},
		{Label: "Acme", Type: "ORGANIZATION"},
	}, entities)

	require.NotNil(t, fake.input)
	assert.Equal(t, "some text", aws.ToString(fake.input.Text))
	assert.Equal(t, comprehendtypes.LanguageCode("en"), fake.input.LanguageCode)
	assert.Nil(t, fake.input.EndpointArn)
}

func TestComprehendRecognizerCustomEndpoint(t *testing.T) {
	fake := &fakeComprehend{out: &comprehend.DetectEntitiesOutput{}}
	arn := "arn:aws:comprehend:us-east-1:123456789012:entity-recognizer-endpoint/skills"

	r := NewComprehendRecognizer(fake, WithEndpointArn(arn))
	_, err := r.DetectEntities(context.Background(), "text", "en")
	require.NoError(t, err)
	assert.Equal(t, arn, aws.ToString(fake.input.EndpointArn))
	assert.Empty(t, fake.input.LanguageCode, "使用自定义端点时不传语言")
}

func TestComprehendRecognizerWrapsErrors(t *testing.T) {
	r := NewComprehendRecognizer(&fakeComprehend{err: errors.New("ThrottlingException")})
	_, err := r.DetectEntities(context.Background(), "text", "en")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceUnavailable)

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "comprehend", svcErr.Provider)

	r = NewComprehendRecognizer(&fakeComprehend{})
	_, err = r.DetectEntities(context.Background(), "text", "en")
	assert.ErrorIs(t, err, ErrServiceUnavailable, "空响应也视为服务失败")
}

func TestDetectReturnsExplicitResult(t *testing.T) {
	ok := Detect(context.Background(), RecognizerFunc(func(ctx context.Context, text, lang string) ([]types.Entity, error) {
		return []types.Entity{{Label: "Go", Type: "SKILL"}}, nil
	}), "text", "en")
	assert.True(t, ok.OK())
	assert.Len(t, ok.Entities, 1)

	failed := Detect(context.Background(), RecognizerFunc(func(ctx context.Context, text, lang string) ([]types.Entity, error) {
		return nil, errors.New("boom")
	}), "text", "en")
	assert.False(t, failed.OK())
	assert.ErrorIs(t, failed.Err, ErrServiceUnavailable, "普通错误也应归为服务不可用")

	none := Detect(context.Background(), nil, "text", "en")
	assert.True(t, none.OK(), "未配置识别器时视为成功且无实体")
	assert.Empty(t, none.Entities)
}

func TestDetectHonoursDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res := Detect(ctx, RecognizerFunc(func(ctx context.Context, text, lang string) ([]types.Entity, error) {
		time.Sleep(time.Second)
		return nil, nil
	}), "text", "en")
	require.False(t, res.OK())
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func newTestRedis(t *testing.T) (*storage.Redis, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return storage.NewRedisFromClient(client), mr
}

func TestCachedRecognizerCachesSuccess(t *testing.T) {
	cache, mr := newTestRedis(t)

	calls := 0
	next := RecognizerFunc(func(ctx context.Context, text, lang string) ([]types.Entity, error) {
		calls++
		return []types.Entity{{Label: "Terraform", Type: "SKILL"}}, nil
	})
	r := NewCachedRecognizer(next, cache, time.Hour)

	first, err := r.DetectEntities(context.Background(), "resume text", "en")
	require.NoError(t, err)
	second, err := r.DetectEntities(context.Background(), "resume text", "en")
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "第二次应命中缓存")
	assert.Equal(t, first, second)

	key := CacheKey("resume text", "en")
	assert.True(t, mr.Exists(key), "缓存键应存在: %s", key)
	assert.Greater(t, mr.TTL(key), time.Duration(0), "缓存键应设置过期时间")
}

func TestCachedRecognizerDoesNotCacheFailures(t *testing.T) {
	cache, mr := newTestRedis(t)

	calls := 0
	next := RecognizerFunc(func(ctx context.Context, text, lang string) ([]types.Entity, error) {
		calls++
		return nil, &ServiceError{Provider: "test", Op: "DetectEntities", Err: errors.New("down")}
	})
	r := NewCachedRecognizer(next, cache, time.Hour)

	_, err := r.DetectEntities(context.Background(), "text", "en")
	require.ErrorIs(t, err, ErrServiceUnavailable)
	_, err = r.DetectEntities(context.Background(), "text", "en")
	require.Error(t, err)

	assert.Equal(t, 2, calls)
	assert.False(t, mr.Exists(CacheKey("text", "en")))
}

func TestCachedRecognizerSurvivesCacheOutage(t *testing.T) {
	cache, mr := newTestRedis(t)
	mr.Close()

	r := NewCachedRecognizer(RecognizerFunc(func(ctx context.Context, text, lang string) ([]types.Entity, error) {
		return []types.Entity{{Label: "Linux", Type: "SKILL"}}, nil
	}), cache, time.Minute)

	entities, err := r.DetectEntities(context.Background(), "text", "en")
	require.NoError(t, err, "缓存不可用时仍应调用下游")
	assert.Len(t, entities, 1)
}

func TestLimitedRecognizer(t *testing.T) {
	next := RecognizerFunc(func(ctx context.Context, text, lang string) ([]types.Entity, error) {
		return []types.Entity{{Label: "SQL", Type: "SKILL"}}, nil
	})

	assert.IsType(t, RecognizerFunc(nil), NewLimitedRecognizer(next, 0, 0), "QPM为0时不包装")

	limited := NewLimitedRecognizer(next, 1, 1)
	_, err := limited.DetectEntities(context.Background(), "t", "en")
	require.NoError(t, err, "首个令牌可用")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = limited.DetectEntities(ctx, "t", "en")
	assert.ErrorIs(t, err, ErrServiceUnavailable, "限流等待超时视为服务不可用")
}
