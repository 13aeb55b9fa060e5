package gateway

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel/attribute"

	"jobhunt-ai/internal/metrics"
	"jobhunt-ai/internal/parser"
	"jobhunt-ai/internal/types"
	"jobhunt-ai/pkg/agent"
)

// AnalyzeResume 把简历文件交给模型做 ATS 分析
// 只接受 PDF 与常见图片格式；atsScore 在返回前截断到 [0,100]
func (c *Client) AnalyzeResume(ctx context.Context, data []byte, mimeType string) (*types.ResumeAnalysis, error) {
	ctx, op := c.begin(ctx, OpAnalyzeResume,
		attribute.String("resume.mime_type", mimeType),
		attribute.Int("resume.size_bytes", len(data)),
	)

	if len(data) == 0 {
		return nil, op.fail(newError(KindInvalidInput, OpAnalyzeResume, failedMessage(ctxAnalyzeResume), errors.New("empty resume file")))
	}
	if !types.IsAcceptedMIMEType(mimeType) {
		return nil, op.fail(newError(KindInvalidInput, OpAnalyzeResume, failedMessage(ctxAnalyzeResume), errors.New("unsupported mime type: "+mimeType)))
	}

	msg, err := c.documentMessage(ctx, data, mimeType, analyzeResumePrompt)
	if err != nil {
		return nil, op.fail(newError(KindOperationFailed, OpAnalyzeResume, failedMessage(ctxAnalyzeResume), err))
	}

	text, err := c.generate(ctx, []*schema.Message{msg}, agent.WithJSONResponse())
	if err != nil {
		return nil, op.fail(classify(err, OpAnalyzeResume, ctxAnalyzeResume, false))
	}
	if text == "" {
		return nil, op.fail(newError(KindMalformedResponse, OpAnalyzeResume, failedMessage(ctxAnalyzeResume), errors.New("no response generated from AI")))
	}

	var raw rawAnalysis
	if err := parser.DecodeModelJSON(text, &raw); err != nil {
		return nil, op.fail(newError(KindMalformedResponse, OpAnalyzeResume, failedMessage(ctxAnalyzeResume), err))
	}
	analysis := raw.toAnalysis()

	op.span.SetAttributes(
		attribute.Int("resume.ats_score", analysis.ATSScore),
		attribute.Int("resume.skill_count", len(analysis.Skills)),
	)
	op.ok(metrics.OutcomeOK)
	return analysis, nil
}
