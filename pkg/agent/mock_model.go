package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockResponse 定义了 MockChatClient 的单次预期响应
type MockResponse struct {
	Content string
	Error   error
}

// MockCall 记录一次 Generate 调用
type MockCall struct {
	Messages []*schema.Message
	Options  GenerateOptions
	Tools    []*schema.ToolInfo
}

// MockChatClient 是一个用于测试的 model.ToolCallingChatModel 模拟实现，可并发使用
type MockChatClient struct {
	mu sync.Mutex

	// 固定响应
	ExpectedResponse string
	ExpectedError    error

	// 按顺序返回不同响应
	SequentialResponses []MockResponse
	ResponseIndex       int
	IsSequential        bool

	// Handler 不为空时优先使用，可用于阻塞或按内容分支
	Handler func(ctx context.Context, call MockCall) (string, error)

	Calls []MockCall

	tools []*schema.ToolInfo
}

// NewMockChatClient 创建一个返回固定响应的 MockChatClient
func NewMockChatClient(expectedResponse string, expectedError error) *MockChatClient {
	return &MockChatClient{
		ExpectedResponse: expectedResponse,
		ExpectedError:    expectedError,
	}
}

// NewMockChatClientSequential 创建一个按顺序返回不同响应的 MockChatClient
func NewMockChatClientSequential(responses ...MockResponse) *MockChatClient {
	if len(responses) == 0 {
		responses = []MockResponse{{Error: errors.New("mock client has no responses configured")}}
	}
	return &MockChatClient{
		SequentialResponses: responses,
		IsSequential:        true,
	}
}

// NewMockChatClientFunc 使用回调生成响应
func NewMockChatClientFunc(handler func(ctx context.Context, call MockCall) (string, error)) *MockChatClient {
	return &MockChatClient{Handler: handler}
}

// Generate 模拟 LLM 的 Generate 方法
func (m *MockChatClient) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	call := MockCall{
		Messages: append([]*schema.Message(nil), input...),
		Options:  *GetGenerateOptions(opts...),
	}

	m.mu.Lock()
	call.Tools = m.tools
	m.Calls = append(m.Calls, call)
	handler := m.Handler
	m.mu.Unlock()

	if handler != nil {
		content, err := handler(ctx, call)
		if err != nil {
			return nil, err
		}
		return schema.AssistantMessage(content, nil), nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IsSequential {
		if m.ResponseIndex >= len(m.SequentialResponses) {
			return nil, errors.New("mock client has run out of sequential responses")
		}
		resp := m.SequentialResponses[m.ResponseIndex]
		m.ResponseIndex++
		if resp.Error != nil {
			return nil, resp.Error
		}
		return schema.AssistantMessage(resp.Content, nil), nil
	}

	if m.ExpectedError != nil {
		return nil, m.ExpectedError
	}
	return schema.AssistantMessage(m.ExpectedResponse, nil), nil
}

// Stream 模拟 LLM 的 Stream 方法
func (m *MockChatClient) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, ErrStreamUnsupported
}

// WithTools 记录绑定的工具，共享同一份响应脚本
func (m *MockChatClient) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tools = tools
	return m, nil
}

// CallCount 返回调用次数
func (m *MockChatClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Call 返回第 i 次调用
func (m *MockChatClient) Call(i int) MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[i]
}

// LastPrompt 返回最后一次调用中最后一条消息的文本
func (m *MockChatClient) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return ""
	}
	msgs := m.Calls[len(m.Calls)-1].Messages
	if len(msgs) == 0 {
		return ""
	}
	return MessageText(msgs[len(msgs)-1])
}

var _ model.ToolCallingChatModel = (*MockChatClient)(nil)
