package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"jobhunt-ai/internal/constants"
)

// GeminiChatModel 基于 Google GenAI SDK 的 eino ToolCallingChatModel 实现，
// 支持内联文档（PDF / 图片）、JSON 输出和 Google Search 搜索增强。
type GeminiChatModel struct {
	client       *genai.Client
	modelName    string
	temperature  *float32
	googleSearch bool // 通过 WithTools 绑定的搜索增强
	logger       zerolog.Logger
}

// GeminiOption Gemini 模型的配置选项
type GeminiOption func(*geminiSettings)

type geminiSettings struct {
	modelName   string
	timeout     time.Duration
	temperature *float32
	httpClient  *http.Client
	logger      zerolog.Logger
}

// WithGeminiModel 指定模型名称
func WithGeminiModel(name string) GeminiOption {
	return func(s *geminiSettings) {
		if strings.TrimSpace(name) != "" {
			s.modelName = name
		}
	}
}

// WithGeminiTimeout 单次请求超时
func WithGeminiTimeout(d time.Duration) GeminiOption {
	return func(s *geminiSettings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithGeminiTemperature 采样温度
func WithGeminiTemperature(t float32) GeminiOption {
	return func(s *geminiSettings) {
		s.temperature = &t
	}
}

// WithGeminiHTTPClient 自定义 HTTP 客户端（测试或代理场景）
func WithGeminiHTTPClient(c *http.Client) GeminiOption {
	return func(s *geminiSettings) {
		s.httpClient = c
	}
}

// WithGeminiLogger 配置日志记录器
func WithGeminiLogger(l zerolog.Logger) GeminiOption {
	return func(s *geminiSettings) {
		s.logger = l
	}
}

// NewGeminiChatModel 创建 Gemini 模型客户端
func NewGeminiChatModel(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空")
	}

	s := &geminiSettings{
		modelName: constants.DefaultGeminiModel,
		timeout:   constants.DefaultAITimeout,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: s.timeout}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: s.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 GenAI 客户端失败: %w", err)
	}

	s.logger.Info().Str("model", s.modelName).Dur("timeout", s.timeout).Msg("使用 Gemini LLM 客户端")

	return &GeminiChatModel{
		client:      client,
		modelName:   s.modelName,
		temperature: s.temperature,
		logger:      s.logger,
	}, nil
}

// Generate 实现 model.BaseChatModel 接口
func (g *GeminiChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	common := model.GetCommonOptions(&model.Options{Temperature: g.temperature}, opts...)
	specific := GetGenerateOptions(opts...)

	modelName := g.modelName
	if common.Model != nil && *common.Model != "" {
		modelName = *common.Model
	}

	contents, system, err := toGenAIContents(messages)
	if err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       common.Temperature,
	}
	if specific.JSONResponse {
		cfg.ResponseMIMEType = constants.MIMETypeJSON
	}
	if specific.GoogleSearch || g.googleSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, modelName, contents, cfg)
	if err != nil {
		g.logger.Warn().Err(err).Str("model", modelName).Dur("elapsed", time.Since(start)).Msg("[Gemini] 调用失败")
		return nil, wrapGenAIError(err)
	}

	text := responseText(resp)
	g.logger.Debug().
		Str("model", modelName).
		Bool("json", specific.JSONResponse).
		Bool("grounded", len(cfg.Tools) > 0).
		Int("chars", len(text)).
		Dur("elapsed", time.Since(start)).
		Msg("[Gemini] 收到响应")

	return schema.AssistantMessage(text, nil), nil
}

// Stream 未实现
func (g *GeminiChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, ErrStreamUnsupported
}

// WithTools 仅支持 google_search 工具，其余工具返回错误
func (g *GeminiChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	for _, t := range tools {
		if t != nil && t.Name != constants.GoogleSearchToolName {
			return nil, fmt.Errorf("Gemini 模型不支持工具 %q", t.Name)
		}
	}
	c := *g
	c.googleSearch = hasGoogleSearchTool(tools)
	return &c, nil
}

var _ model.ToolCallingChatModel = (*GeminiChatModel)(nil)

// toGenAIContents 把 eino 消息转换为 GenAI 请求内容，system 消息合并为 SystemInstruction
func toGenAIContents(messages []*schema.Message) ([]*genai.Content, *genai.Content, error) {
	var contents []*genai.Content
	var systemParts []*genai.Part

	for _, msg := range messages {
		if msg == nil {
			continue
		}
		parts, err := toGenAIParts(msg)
		if err != nil {
			return nil, nil, err
		}
		if len(parts) == 0 {
			continue
		}
		switch msg.Role {
		case schema.System:
			systemParts = append(systemParts, parts...)
		case schema.Assistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: parts})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: parts})
		}
	}

	var system *genai.Content
	if len(systemParts) > 0 {
		system = &genai.Content{Parts: systemParts}
	}
	return contents, system, nil
}

func toGenAIParts(msg *schema.Message) ([]*genai.Part, error) {
	var parts []*genai.Part
	if msg.Content != "" {
		parts = append(parts, &genai.Part{Text: msg.Content})
	}
	for _, p := range msg.MultiContent {
		switch p.Type {
		case schema.ChatMessagePartTypeText:
			if p.Text != "" {
				parts = append(parts, &genai.Part{Text: p.Text})
			}
		case schema.ChatMessagePartTypeImageURL:
			if p.ImageURL == nil {
				continue
			}
			blob, err := inlineBlob(p.ImageURL.URL, p.ImageURL.MIMEType)
			if err != nil {
				return nil, err
			}
			parts = append(parts, &genai.Part{InlineData: blob})
		case schema.ChatMessagePartTypeFileURL:
			if p.FileURL == nil {
				continue
			}
			blob, err := inlineBlob(p.FileURL.URL, p.FileURL.MIMEType)
			if err != nil {
				return nil, err
			}
			parts = append(parts, &genai.Part{InlineData: blob})
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedContent, p.Type)
		}
	}
	return parts, nil
}

// inlineBlob 只接受 data URI，远程 URL 不在此处下载
func inlineBlob(uri, mimeType string) (*genai.Blob, error) {
	mt, data, err := ParseDataURI(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedContent, err)
	}
	if mimeType == "" {
		mimeType = mt
	}
	return &genai.Blob{MIMEType: mimeType, Data: data}, nil
}

// responseText 拼接首个候选的文本片段，跳过思考片段
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// wrapGenAIError 把 SDK 错误转换为 ServiceError，保留原始错误链
func wrapGenAIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ServiceError{Provider: "gemini", StatusCode: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &ServiceError{Provider: "gemini", StatusCode: apiErrPtr.Code, Status: apiErrPtr.Status, Message: apiErrPtr.Message, Err: err}
	}
	return fmt.Errorf("Gemini 请求失败: %w", err)
}
