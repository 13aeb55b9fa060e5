package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"jobhunt-ai/internal/api/handler"
	"jobhunt-ai/internal/metrics"
)

// Options 路由可选项
type Options struct {
	MetricsEnabled bool
	MetricsPath    string
}

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, sessionHandler *handler.SessionHandler, opts Options) {
	h.Use(handler.RequestID())
	if opts.MetricsEnabled {
		h.Use(metrics.HertzMiddleware())
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		h.GET(path, metrics.Handler())
	}

	api := h.Group("/api/v1")

	api.GET("/health", sessionHandler.Health)
	api.GET("/session", sessionHandler.GetSession)
	api.POST("/resume", sessionHandler.UploadResume)
	api.POST("/profile/sync", sessionHandler.SyncProfile)
	api.POST("/navigate", sessionHandler.Navigate)
	api.DELETE("/error", sessionHandler.DismissError)

	jobs := api.Group("/jobs")
	jobs.POST("/search", sessionHandler.SearchJobs)
	jobs.POST("/:id/select", sessionHandler.SelectJob)
	jobs.PUT("/:id/cover-letter", sessionHandler.UpdateCoverLetter)
	jobs.POST("/:id/connection-note", sessionHandler.ConnectionNote)
	jobs.GET("/:id/mailto", sessionHandler.Mailto)
}
