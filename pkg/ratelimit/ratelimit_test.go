package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobhunt-ai/pkg/agent"
)

func TestTokenBucketAllow(t *testing.T) {
	tb := NewTokenBucket(60, 2)
	current := time.Now()
	tb.now = func() time.Time { return current }
	tb.lastRefillTime = current

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "容量耗尽后应拒绝")

	// 60 QPM = 每秒1个令牌
	current = current.Add(time.Second)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	current = current.Add(time.Hour)
	assert.Equal(t, 2, tb.Available(), "令牌数不超过容量")
}

func TestTokenBucketWaitHonoursContext(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimitedChatModelDoesNotRetry(t *testing.T) {
	mock := agent.NewMockChatClientSequential(
		agent.MockResponse{Error: errors.New("429 Too Many Requests")},
		agent.MockResponse{Content: "should not be reached"},
	)
	limited := NewRateLimitedChatModel(mock, 600)

	_, err := limited.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.Error(t, err)
	assert.Equal(t, 1, mock.CallCount(), "失败后不应自动重试")
}

func TestRateLimitedChatModelWithToolsSharesBucket(t *testing.T) {
	mock := agent.NewMockChatClient("ok", nil)
	limited := NewRateLimitedChatModel(mock, 60)

	bound, err := limited.WithTools([]*schema.ToolInfo{agent.GoogleSearchTool()})
	require.NoError(t, err)
	assert.Same(t, limited.rateLimiter, bound.(*RateLimitedChatModel).rateLimiter)
}

func TestNewChatModelWithRateLimit(t *testing.T) {
	mock := agent.NewMockChatClient("ok", nil)

	m := NewChatModelWithRateLimit(mock, "gemini-2.5-flash", map[string]int{"gemini-2.5-flash": 100}, 0)
	rl := m.(*RateLimitedChatModel)
	assert.InDelta(t, 90.0/60.0, rl.rateLimiter.rate, 1e-9, "应使用配置限额的90%")

	m = NewChatModelWithRateLimit(mock, "unknown", nil, 0)
	assert.InDelta(t, 30.0/60.0, m.(*RateLimitedChatModel).rateLimiter.rate, 1e-9)
}
