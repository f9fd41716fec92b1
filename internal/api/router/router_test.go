package router

import (
	"bytes"
	"net/http"
	"testing"

	"resume-extractor/internal/api/handler"
	"resume-extractor/internal/extractor"
	"resume-extractor/internal/processor"
	"resume-extractor/internal/textsource"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
)

func newTestServer(apiKeys []string) *server.Hertz {
	engine := extractor.NewEngine(nil)
	proc := processor.NewBatchProcessor(textsource.NewConvertingProvider(textsource.NewFileSource(""), textsource.PlainConverter{}), engine)
	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	RegisterRoutes(h, handler.NewResumeHandler(proc, engine), apiKeys)
	return h
}

func extract(h *server.Hertz, headers ...ut.Header) *ut.ResponseRecorder {
	body := bytes.NewBufferString(`{"text":"Jane Doe knows Go"}`)
	headers = append(headers, ut.Header{Key: "Content-Type", Value: "application/json"})
	return ut.PerformRequest(h.Engine, "POST", "/api/v1/resume/extract", &ut.Body{Body: body, Len: body.Len()}, headers...)
}

func TestRoutesWithoutAPIKeys(t *testing.T) {
	h := newTestServer(nil)

	resp := extract(h)
	assert.Equal(t, http.StatusOK, resp.Code, "未配置 API Key 时不启用认证")

	resp = ut.PerformRequest(h.Engine, "GET", "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRoutesRequireAPIKey(t *testing.T) {
	h := newTestServer([]string{"k1", "k2"})

	resp := extract(h)
	assert.Equal(t, http.StatusUnauthorized, resp.Code, "缺少 API Key 应返回401")

	resp = extract(h, ut.Header{Key: APIKeyHeader, Value: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code, "错误的 API Key 应返回401")

	resp = extract(h, ut.Header{Key: APIKeyHeader, Value: "k2"})
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ut.PerformRequest(h.Engine, "GET", "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, resp.Code, "健康检查不需要认证")
}
