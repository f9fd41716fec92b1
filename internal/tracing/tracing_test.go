package tracing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestMaskPII(t *testing.T) {
	assert.Equal(t, "", MaskPII(""))
	assert.Equal(t, "*", MaskPII("A"))
	assert.Equal(t, "L*", MaskPII("Li"))
	assert.Equal(t, "A*n", MaskPII("Ann"))
	assert.Equal(t, "ja************om", MaskPII("jane@example.com"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	got := TruncateString(strings.Repeat("a", 50)+strings.Repeat("b", 50), 23)
	assert.Equal(t, strings.Repeat("a", 10)+"..."+strings.Repeat("b", 10), got)
}

func TestTextSample(t *testing.T) {
	assert.Equal(t, "abc", TextSample("abc"))
	long := strings.Repeat("简", TextSampleLength+10)
	assert.Len(t, []rune(TextSample(long)), TextSampleLength, "按字符而非字节截断")
}

func TestSafeAttributeValue(t *testing.T) {
	assert.Equal(t, "ja************om", SafeAttributeValue("candidate.email", "jane@example.com", 100))
	assert.Equal(t, "resume.pdf", SafeAttributeValue("object.key", "resume.pdf", 100))
}

func TestRecordError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	_, span := tp.Tracer("test").Start(context.Background(), "op")

	RecordError(span, errors.New("boom"), ErrorTypeExternal)
	RecordError(span, nil, ErrorTypeExternal)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "external_system", attrs["error.type"])
	assert.Equal(t, "boom", attrs["error.message"])
}

func TestInitProviderDisabled(t *testing.T) {
	shutdown, err := InitProvider(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j**e@example.com", MaskEmail("jane@example.com"))
	assert.Equal(t, "j*@corp.io", MaskEmail("jo@corp.io"))
	assert.Equal(t, "No*****nd", MaskEmail("Not found"), "非邮箱按普通个人信息处理")
}

func TestClassifyTimeout(t *testing.T) {
	wrapped := fmt.Errorf("调用识别服务: %w", context.DeadlineExceeded)
	assert.Equal(t, ErrorTypeTimeout, Classify(wrapped, ErrorTypeExternal))
	assert.Equal(t, ErrorTypeDB, Classify(errors.New("dup key"), ErrorTypeDB))
}
