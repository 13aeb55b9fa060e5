package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"jobhunt-ai/internal/constants"
	"jobhunt-ai/internal/metrics"
	"jobhunt-ai/internal/parser"
	"jobhunt-ai/internal/tracing"
	"jobhunt-ai/pkg/agent"
)

var tracer = otel.Tracer("jobhunt-ai/gateway")

// 操作名，用于日志、指标与 span
const (
	OpAnalyzeResume  = "analyze_resume"
	OpEnrichProfile  = "enrich_profile"
	OpFindJobs       = "find_jobs"
	OpAnalyzeMatch   = "analyze_job_match"
	OpConnectionNote = "connection_note"
)

// 拼进 "Failed to %s" 的操作描述
const (
	ctxAnalyzeResume  = "analyze resume"
	ctxEnrichProfile  = "enrich profile"
	ctxFindJobs       = "find jobs"
	ctxAnalyzeMatch   = "analyze job match"
	ctxConnectionNote = "generate connection note"
)

// Client AI 网关客户端，负责拼装提示词、调用模型并把输出解析为领域对象
// 每个操作只调用一次模型，不做任何重试
type Client struct {
	model     model.ToolCallingChatModel
	extractor parser.TextExtractor
	logger    zerolog.Logger
	modelName string
	now       func() time.Time
}

// Option 客户端配置
type Option func(*Client)

// WithLogger 设置日志
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithTextExtractor 设置文本提取器
// 模型后端不能直接读取 PDF 时使用，PDF 会先转成文本再发送
func WithTextExtractor(e parser.TextExtractor) Option {
	return func(c *Client) {
		c.extractor = e
	}
}

// WithModelName 记录在 span 上的模型名
func WithModelName(name string) Option {
	return func(c *Client) {
		c.modelName = name
	}
}

// NewClient 创建网关客户端
func NewClient(m model.ToolCallingChatModel, opts ...Option) (*Client, error) {
	if m == nil {
		return nil, errors.New("gateway: chat model is nil")
	}
	c := &Client{
		model:  m,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// generate 发起一次模型调用并返回去掉首尾空白的文本
func (c *Client) generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (string, error) {
	if len(messages) > 0 {
		trace.SpanFromContext(ctx).AddEvent("ai.request", trace.WithAttributes(
			attribute.String("ai.prompt", tracing.SafePrompt(agent.MessageText(messages[len(messages)-1]))),
		))
	}
	resp, err := c.model.Generate(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(agent.MessageText(resp)), nil
}

// documentMessage 构造携带简历文件的用户消息，文件在前、指令在后
func (c *Client) documentMessage(ctx context.Context, data []byte, mimeType, prompt string) (*schema.Message, error) {
	if c.extractor != nil && strings.EqualFold(mimeType, constants.MIMETypePDF) {
		text, err := c.extractor.ExtractText(ctx, data, "resume.pdf")
		if err != nil {
			return nil, err
		}
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.Int("resume.text_length", len(text)),
			attribute.String("resume.text_preview", tracing.SafeResumeContent(text)),
		)
		return schema.UserMessage("RESUME TEXT:\n" + text + "\n\n" + prompt), nil
	}
	return &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			agent.NewDocumentPart(data, mimeType, "resume"),
			agent.NewTextPart(prompt),
		},
	}, nil
}

// operation 一次网关操作的观测上下文
type operation struct {
	name   string
	span   trace.Span
	start  time.Time
	logger zerolog.Logger
}

func (c *Client) begin(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *operation) {
	ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("ai.model", c.modelName))
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, &operation{
		name:   name,
		span:   span,
		start:  c.now(),
		logger: c.logger.With().Str("op", name).Logger(),
	}
}

// ok 结束一次成功的操作
func (o *operation) ok(outcome string) {
	elapsed := time.Since(o.start)
	o.span.SetStatus(codes.Ok, "")
	o.span.End()
	metrics.ObserveGatewayCall(o.name, outcome, elapsed)
	o.logger.Debug().Str("outcome", outcome).Dur("elapsed", elapsed).Msg("网关调用完成")
}

// fail 结束一次失败的操作并返回分类后的错误
func (o *operation) fail(gwErr *GatewayError) *GatewayError {
	elapsed := time.Since(o.start)
	tracing.RecordErrorWithInfo(o.span, gwErr, gwErr.Kind.errorType(),
		attribute.String("gateway.kind", gwErr.Kind.String()))
	o.span.End()
	metrics.ObserveGatewayCall(o.name, metrics.OutcomeError, elapsed)
	o.logger.Error().Err(gwErr.Err).Str("kind", gwErr.Kind.String()).Dur("elapsed", elapsed).Msg(gwErr.Message)
	return gwErr
}

// fallback 结束一次降级的操作，调用方拿到的是默认数据
func (o *operation) fallback(reason error) {
	elapsed := time.Since(o.start)
	tracing.RecordFallback(o.span, reason)
	o.span.End()
	metrics.ObserveGatewayCall(o.name, metrics.OutcomeFallback, elapsed)
	o.logger.Warn().Err(reason).Dur("elapsed", elapsed).Msg("使用降级结果")
}
