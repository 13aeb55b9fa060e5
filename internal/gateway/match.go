package gateway

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel/attribute"

	"jobhunt-ai/internal/metrics"
	"jobhunt-ai/internal/parser"
	"jobhunt-ai/internal/types"
	"jobhunt-ai/pkg/agent"
)

// AnalyzeJobMatch 对比简历摘要与职位，生成匹配分析、求职信和冷邮件
// 结果的 jobId 总是等于传入职位的 id
func (c *Client) AnalyzeJobMatch(ctx context.Context, profileText string, job types.JobListing) (*types.JobMatchAnalysis, error) {
	ctx, op := c.begin(ctx, OpAnalyzeMatch,
		attribute.String("job.id", job.ID),
		attribute.String("job.company", job.Company),
	)

	if strings.TrimSpace(job.ID) == "" {
		return nil, op.fail(newError(KindInvalidInput, OpAnalyzeMatch, failedMessage(ctxAnalyzeMatch), errors.New("job id is empty")))
	}

	text, err := c.generate(ctx,
		[]*schema.Message{schema.UserMessage(jobMatchPrompt(profileText, job))},
		agent.WithJSONResponse(),
	)
	if err != nil {
		return nil, op.fail(classify(err, OpAnalyzeMatch, ctxAnalyzeMatch, false))
	}
	if text == "" {
		return nil, op.fail(newError(KindEmptyResponse, OpAnalyzeMatch, failedMessage(ctxAnalyzeMatch), errors.New("no analysis generated")))
	}

	var raw rawMatch
	if err := parser.DecodeModelJSON(text, &raw); err != nil {
		return nil, op.fail(newError(KindMalformedResponse, OpAnalyzeMatch, failedMessage(ctxAnalyzeMatch), err))
	}
	match := raw.toMatch(job.ID)

	op.span.SetAttributes(attribute.Int("job.match_score", match.MatchScore))
	op.ok(metrics.OutcomeOK)
	return match, nil
}
