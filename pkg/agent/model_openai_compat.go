package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"jobhunt-ai/internal/constants"
)

const (
	// DashScope 的 OpenAI 兼容接口，也可以指向任何 OpenAI 兼容服务
	defaultOpenAICompatAPIURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
)

// --- OpenAI Compatible Request/Response Structures ---

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

type openAIRequestMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string 或 []openAIContentPart
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIChatCompletionRequest struct {
	Model          string                 `json:"model"`
	Messages       []openAIRequestMessage `json:"messages"`
	Temperature    *float32               `json:"temperature,omitempty"`
	MaxTokens      *int                   `json:"max_tokens,omitempty"`
	ResponseFormat *openAIResponseFormat  `json:"response_format,omitempty"`
}

type openAIChatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string  `json:"role"`
		Content *string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type openAICompletionResponse struct {
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Choices []openAIChatChoice `json:"choices"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string          `json:"message"`
		Type    string          `json:"type"`
		Code    json.RawMessage `json:"code"`
	} `json:"error"`
}

// OpenAICompatChatModel 通过 OpenAI 兼容的 chat/completions 接口调用模型（例如阿里云通义千问）。
// 仅支持文本与图片输入，不支持搜索增强。
type OpenAICompatChatModel struct {
	apiKey      string
	modelName   string
	apiURL      string
	temperature *float32
	httpClient  *http.Client
	logger      zerolog.Logger
}

// OpenAICompatOption 配置选项
type OpenAICompatOption func(*OpenAICompatChatModel)

// WithOpenAICompatTimeout 单次请求超时
func WithOpenAICompatTimeout(d time.Duration) OpenAICompatOption {
	return func(m *OpenAICompatChatModel) {
		if d > 0 {
			m.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithOpenAICompatHTTPClient 自定义 HTTP 客户端
func WithOpenAICompatHTTPClient(c *http.Client) OpenAICompatOption {
	return func(m *OpenAICompatChatModel) {
		if c != nil {
			m.httpClient = c
		}
	}
}

// WithOpenAICompatTemperature 采样温度
func WithOpenAICompatTemperature(t float32) OpenAICompatOption {
	return func(m *OpenAICompatChatModel) {
		m.temperature = &t
	}
}

// WithOpenAICompatLogger 配置日志记录器
func WithOpenAICompatLogger(l zerolog.Logger) OpenAICompatOption {
	return func(m *OpenAICompatChatModel) {
		m.logger = l
	}
}

// NewOpenAICompatChatModel 创建一个新的 OpenAICompatChatModel 实例。
func NewOpenAICompatChatModel(apiKey string, modelName string, apiURL string, opts ...OpenAICompatOption) (*OpenAICompatChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空")
	}

	mn := modelName
	if strings.TrimSpace(mn) == "" {
		mn = constants.DefaultOpenAICompatModel
	}

	url := apiURL
	if strings.TrimSpace(url) == "" {
		url = defaultOpenAICompatAPIURL
	}

	m := &OpenAICompatChatModel{
		apiKey:     apiKey,
		modelName:  mn,
		apiURL:     url,
		httpClient: &http.Client{Timeout: constants.DefaultAITimeout},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.logger.Info().Str("api_url", url).Str("model", mn).Msg("使用 OpenAI 兼容 LLM 客户端")
	return m, nil
}

// Generate 实现 model.BaseChatModel 接口
func (m *OpenAICompatChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	common := model.GetCommonOptions(&model.Options{Temperature: m.temperature}, opts...)
	specific := GetGenerateOptions(opts...)

	if specific.GoogleSearch {
		return nil, ErrGroundingUnsupported
	}

	reqPayload := openAIChatCompletionRequest{
		Model:       m.modelName,
		Temperature: common.Temperature,
		MaxTokens:   common.MaxTokens,
	}
	if common.Model != nil && *common.Model != "" {
		reqPayload.Model = *common.Model
	}
	if specific.JSONResponse {
		reqPayload.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	for _, msg := range messages {
		if msg == nil {
			continue
		}
		converted, err := toOpenAIMessage(msg)
		if err != nil {
			return nil, err
		}
		reqPayload.Messages = append(reqPayload.Messages, converted)
	}

	jsonData, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建 HTTP 请求失败: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("发送 HTTP 请求失败: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	m.logger.Debug().
		Str("model", reqPayload.Model).
		Int("status", httpResp.StatusCode).
		Int("bytes", len(bodyBytes)).
		Dur("elapsed", time.Since(start)).
		Msg("[OpenAI兼容模型] 收到响应")

	if httpResp.StatusCode != http.StatusOK {
		return nil, newOpenAIServiceError(httpResp.StatusCode, bodyBytes)
	}

	var openAIResp openAICompletionResponse
	if err := json.Unmarshal(bodyBytes, &openAIResp); err != nil {
		return nil, fmt.Errorf("反序列化 API 响应失败: %w", err)
	}
	if len(openAIResp.Choices) == 0 {
		return schema.AssistantMessage("", nil), nil
	}

	content := ""
	if c := openAIResp.Choices[0].Message.Content; c != nil {
		content = *c
	}
	return schema.AssistantMessage(content, nil), nil
}

// Stream 未实现
func (m *OpenAICompatChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, ErrStreamUnsupported
}

// WithTools 本模型不做函数调用，工具列表必须为空
func (m *OpenAICompatChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	if hasGoogleSearchTool(tools) {
		return nil, ErrGroundingUnsupported
	}
	if len(tools) > 0 {
		return nil, fmt.Errorf("OpenAI 兼容模型未启用工具调用，收到 %d 个工具", len(tools))
	}
	return m, nil
}

var _ model.ToolCallingChatModel = (*OpenAICompatChatModel)(nil)

func toOpenAIMessage(msg *schema.Message) (openAIRequestMessage, error) {
	role := string(msg.Role)
	if role == "" {
		role = string(schema.User)
	}
	if len(msg.MultiContent) == 0 {
		return openAIRequestMessage{Role: role, Content: msg.Content}, nil
	}

	parts := make([]openAIContentPart, 0, len(msg.MultiContent)+1)
	if msg.Content != "" {
		parts = append(parts, openAIContentPart{Type: "text", Text: msg.Content})
	}
	for _, p := range msg.MultiContent {
		switch p.Type {
		case schema.ChatMessagePartTypeText:
			parts = append(parts, openAIContentPart{Type: "text", Text: p.Text})
		case schema.ChatMessagePartTypeImageURL:
			if p.ImageURL != nil {
				parts = append(parts, openAIContentPart{Type: "image_url", ImageURL: &openAIImageURL{URL: p.ImageURL.URL}})
			}
		default:
			return openAIRequestMessage{}, fmt.Errorf("%w: OpenAI 兼容接口不接受 %s", ErrUnsupportedContent, p.Type)
		}
	}
	return openAIRequestMessage{Role: role, Content: parts}, nil
}

func newOpenAIServiceError(statusCode int, body []byte) error {
	svcErr := &ServiceError{Provider: "openai-compatible", StatusCode: statusCode, Message: strings.TrimSpace(string(body))}
	var errResp openAIErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		svcErr.Message = errResp.Error.Message
		svcErr.Status = errResp.Error.Type
	}
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if svcErr.Status == "" {
			svcErr.Status = "PERMISSION_DENIED"
		}
	case http.StatusTooManyRequests:
		if svcErr.Status == "" {
			svcErr.Status = "RESOURCE_EXHAUSTED"
		}
	}
	return svcErr
}
