package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrGroundingUnsupported 后端不支持搜索增强
	ErrGroundingUnsupported = errors.New("当前模型后端不支持搜索增强")
	// ErrStreamUnsupported 未实现流式输出
	ErrStreamUnsupported = errors.New("流式输出未实现")
	// ErrUnsupportedContent 消息中包含后端无法处理的内容
	ErrUnsupportedContent = errors.New("不支持的消息内容")
)

// ServiceError 外部 AI 服务返回的错误，保留状态码与状态标识供上层分类
type ServiceError struct {
	Provider   string
	StatusCode int    // HTTP 状态码，例如 403、429
	Status     string // 服务端状态标识，例如 PERMISSION_DENIED、RESOURCE_EXHAUSTED
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s 服务错误 (%d %s): %s", e.Provider, e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("%s 服务错误 (%d): %s", e.Provider, e.StatusCode, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
