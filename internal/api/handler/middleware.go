package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"

	"jobhunt-ai/internal/logger"
)

// RequestIDHeader 请求 ID 头
const RequestIDHeader = "X-Request-ID"

// RequestID 为每个请求分配 ID，写入响应头，并把带 request_id 的日志放进上下文
func RequestID() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		id := string(ctx.GetHeader(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Response.Header.Set(RequestIDHeader, id)

		l := logger.Logger.With().Str("request_id", id).Logger()
		ctx.Next(l.WithContext(c))
	}
}
