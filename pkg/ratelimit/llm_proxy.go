package ratelimit

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// RateLimitedChatModel 对模型调用限流的代理。只排队等待令牌，失败不重试。
type RateLimitedChatModel struct {
	original    model.ToolCallingChatModel
	rateLimiter *TokenBucket
}

// NewRateLimitedChatModel 创建一个新的限流代理
func NewRateLimitedChatModel(original model.ToolCallingChatModel, qpm int) *RateLimitedChatModel {
	return &RateLimitedChatModel{
		original:    original,
		rateLimiter: NewTokenBucket(qpm, qpm/2), // 容量设为QPM的一半，允许一定的突发流量
	}
}

// Generate 等待令牌后调用原模型
func (rl *RateLimitedChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	if err := rl.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	return rl.original.Generate(ctx, messages, options...)
}

// Stream 等待令牌后调用原模型
func (rl *RateLimitedChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if err := rl.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	return rl.original.Stream(ctx, messages, options...)
}

// WithTools 代理WithTools方法，共享同一个令牌桶
func (rl *RateLimitedChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	newModel, err := rl.original.WithTools(tools)
	if err != nil {
		return nil, err
	}
	return &RateLimitedChatModel{
		original:    newModel,
		rateLimiter: rl.rateLimiter,
	}, nil
}

// NewChatModelWithRateLimit 根据模型 QPM 配置创建带限流的模型
// 配置表中有该模型时取其限额的90%，否则使用 customQPM，仍为0时默认30
func NewChatModelWithRateLimit(original model.ToolCallingChatModel, modelName string, limits map[string]int, customQPM int) model.ToolCallingChatModel {
	qpm := customQPM

	if limits != nil && modelName != "" {
		if modelQPM, ok := limits[modelName]; ok && modelQPM > 0 {
			qpm = int(float64(modelQPM) * 0.9)
		}
	}

	if qpm <= 0 {
		qpm = 30
	}

	return NewRateLimitedChatModel(original, qpm)
}

var _ model.ToolCallingChatModel = (*RateLimitedChatModel)(nil)
