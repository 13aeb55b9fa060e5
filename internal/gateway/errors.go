package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"jobhunt-ai/internal/tracing"
	"jobhunt-ai/pkg/agent"
)

// Kind 网关失败分类
type Kind int

const (
	KindInvalidInput Kind = iota + 1
	KindPermissionDenied
	KindRateLimited
	KindOperationFailed
	KindMalformedResponse
	KindEmptyResponse
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindRateLimited:
		return "RateLimited"
	case KindOperationFailed:
		return "OperationFailed"
	case KindMalformedResponse:
		return "MalformedResponse"
	case KindEmptyResponse:
		return "EmptyResponse"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// 每种分类对应的哨兵错误，配合 errors.Is 使用
var (
	ErrInvalidInput      = errors.New("gateway: invalid input")
	ErrPermissionDenied  = errors.New("gateway: permission denied")
	ErrRateLimited       = errors.New("gateway: rate limited")
	ErrOperationFailed   = errors.New("gateway: operation failed")
	ErrMalformedResponse = errors.New("gateway: malformed response")
	ErrEmptyResponse     = errors.New("gateway: empty response")
)

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindPermissionDenied:
		return ErrPermissionDenied
	case KindRateLimited:
		return ErrRateLimited
	case KindOperationFailed:
		return ErrOperationFailed
	case KindMalformedResponse:
		return ErrMalformedResponse
	case KindEmptyResponse:
		return ErrEmptyResponse
	}
	return nil
}

func (k Kind) errorType() tracing.ErrorType {
	switch k {
	case KindInvalidInput:
		return tracing.ErrorTypeValidation
	case KindPermissionDenied:
		return tracing.ErrorTypePermission
	case KindRateLimited:
		return tracing.ErrorTypeRateLimit
	case KindMalformedResponse, KindEmptyResponse:
		return tracing.ErrorTypeMalformed
	default:
		return tracing.ErrorTypeExternal
	}
}

// 面向用户的错误文案
const (
	msgPermissionDenied = "API Permission Denied. Please check your API Key permissions."
	msgGroundingOff     = "Search Grounding API not enabled. Please check your Google Cloud project settings."
	msgRateLimited      = "API Rate limit exceeded. Please wait a moment and try again."
)

func failedMessage(opContext string) string {
	return fmt.Sprintf("Failed to %s. Please try again.", opContext)
}

// GatewayError 网关对外暴露的唯一错误类型，Message 可直接展示给用户
type GatewayError struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	return e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Is 支持 errors.Is(err, gateway.ErrRateLimited) 这类判断
func (e *GatewayError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func newError(kind Kind, op, message string, cause error) *GatewayError {
	return &GatewayError{Kind: kind, Op: op, Message: message, Err: cause}
}

// classify 把底层错误归入失败分类
// grounded 表示失败的请求开启了搜索增强，此时权限错误使用 search grounding 的提示
func classify(err error, op, opContext string, grounded bool) *GatewayError {
	if err == nil {
		return nil
	}
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr
	}

	if errors.Is(err, agent.ErrGroundingUnsupported) {
		return newError(KindPermissionDenied, op, msgGroundingOff, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newError(KindOperationFailed, op, failedMessage(opContext), err)
	}

	var (
		status string
		code   int
	)
	var svcErr *agent.ServiceError
	if errors.As(err, &svcErr) {
		status = strings.ToUpper(svcErr.Status)
		code = svcErr.StatusCode
	}
	msg := err.Error()

	switch {
	case status == "PERMISSION_DENIED" || code == http.StatusForbidden ||
		strings.Contains(msg, "403") || strings.Contains(strings.ToLower(msg), "permission"):
		if grounded {
			return newError(KindPermissionDenied, op, msgGroundingOff, err)
		}
		return newError(KindPermissionDenied, op, msgPermissionDenied, err)
	case status == "RESOURCE_EXHAUSTED" || code == http.StatusTooManyRequests || strings.Contains(msg, "429"):
		return newError(KindRateLimited, op, msgRateLimited, err)
	default:
		return newError(KindOperationFailed, op, failedMessage(opContext), err)
	}
}

// UserMessage 取出可展示的错误文案，非网关错误返回 fallback
func UserMessage(err error, fallback string) string {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		return gwErr.Message
	}
	return fallback
}
