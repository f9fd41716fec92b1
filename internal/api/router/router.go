package router

import (
	"context"
	"crypto/subtle"

	"resume-extractor/internal/api/handler"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// APIKeyHeader 认证请求头
const APIKeyHeader = "X-API-Key"

// RegisterRoutes 注册 API 路由，apiKeys 为空时不启用认证
func RegisterRoutes(h *server.Hertz, resumeHandler *handler.ResumeHandler, apiKeys []string) {
	api := h.Group("/api/v1")

	// 健康检查不需要认证
	api.GET("/health", resumeHandler.HandleHealth)

	secured := api.Group("")
	if len(apiKeys) > 0 {
		secured.Use(newKeyAuth(apiKeys))
	}

	secured.POST("/resume/extract", resumeHandler.HandleExtract)
	secured.POST("/resume/events", resumeHandler.HandleEvents)
	secured.POST("/resume/upload", resumeHandler.HandleUpload)
	secured.GET("/resume/:id", resumeHandler.HandleGetCandidate)
	secured.GET("/resumes", resumeHandler.HandleListCandidates)
	secured.GET("/batch/:batch_id", resumeHandler.HandleGetBatch)
}

func newKeyAuth(apiKeys []string) app.HandlerFunc {
	return keyauth.New(
		keyauth.WithKeyLookUp("header:"+APIKeyHeader, ""),
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
			for _, k := range apiKeys {
				if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
					return true, nil
				}
			}
			return false, keyauth.ErrMissingOrMalformedAPIKey
		}),
		keyauth.WithErrorHandler(func(ctx context.Context, c *app.RequestContext, err error) {
			c.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"error": "API Key 无效或缺失"})
		}),
	)
}
