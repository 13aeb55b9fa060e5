package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"jobhunt-ai/internal/constants"
	"jobhunt-ai/internal/metrics"
	"jobhunt-ai/internal/parser"
	"jobhunt-ai/internal/tracing"
	"jobhunt-ai/internal/types"
	"jobhunt-ai/pkg/agent"
)

// IsProfileURL 输入以 http 开头（不区分大小写）时按链接处理
func IsProfileURL(input string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "http")
}

// EnrichWithExternalProfile 用 LinkedIn 资料补充已有的简历分析
// 链接输入会先尝试搜索增强抓取资料，失败时退化为以链接本身作为上下文
// 合并结果的 atsScore 限定在 [原分数, 原分数+10]；模型无输出时原样返回 current
func (c *Client) EnrichWithExternalProfile(ctx context.Context, current *types.ResumeAnalysis, profileInput string) (*types.ResumeAnalysis, error) {
	input := strings.TrimSpace(profileInput)
	isURL := IsProfileURL(input)
	ctx, op := c.begin(ctx, OpEnrichProfile, attribute.Bool("profile.is_url", isURL))

	if current == nil {
		return nil, op.fail(newError(KindInvalidInput, OpEnrichProfile, failedMessage(ctxEnrichProfile), errors.New("no current analysis")))
	}
	if input == "" {
		return nil, op.fail(newError(KindInvalidInput, OpEnrichProfile, failedMessage(ctxEnrichProfile), errors.New("empty profile input")))
	}

	profileContext := input
	degraded := false
	if isURL {
		profileContext, degraded = c.fetchProfile(ctx, op, input)
	}

	currentJSON, err := json.Marshal(current)
	if err != nil {
		return nil, op.fail(newError(KindOperationFailed, OpEnrichProfile, failedMessage(ctxEnrichProfile), err))
	}

	text, err := c.generate(ctx,
		[]*schema.Message{schema.UserMessage(mergeProfilePrompt(string(currentJSON), profileContext))},
		agent.WithJSONResponse(),
	)
	if err != nil {
		return nil, op.fail(classify(err, OpEnrichProfile, ctxEnrichProfile, false))
	}
	if text == "" {
		op.span.AddEvent("empty_merge_response")
		op.ok(metrics.OutcomeOK)
		return current.Clone(), nil
	}

	var raw rawAnalysis
	if err := parser.DecodeModelJSON(text, &raw); err != nil {
		return nil, op.fail(newError(KindMalformedResponse, OpEnrichProfile, failedMessage(ctxEnrichProfile), err))
	}
	merged := mergeAnalysis(current, &raw)

	op.span.SetAttributes(
		attribute.Int("resume.ats_score.before", current.ATSScore),
		attribute.Int("resume.ats_score.after", merged.ATSScore),
	)
	if degraded {
		op.ok(metrics.OutcomeDegraded)
	} else {
		op.ok(metrics.OutcomeOK)
	}
	return merged, nil
}

// fetchProfile 通过搜索增强读取资料页文本，返回上下文以及是否发生了降级
func (c *Client) fetchProfile(ctx context.Context, op *operation, url string) (string, bool) {
	text, err := c.generate(ctx,
		[]*schema.Message{schema.UserMessage(profileExtractionPrompt(url))},
		agent.WithGoogleSearch(),
	)
	if err != nil {
		op.span.AddEvent("profile_fetch_failed", trace.WithAttributes(
			attribute.String("error.message", tracing.TruncateString(err.Error(), tracing.DefaultMaxLength)),
		))
		op.logger.Warn().Err(err).Msg("LinkedIn 资料抓取失败，使用链接作为上下文")
		return "Profile URL: " + url, true
	}
	if text == "" {
		return url, false
	}
	return text, false
}

// mergeAnalysis 以模型的合并结果为准，缺失的字段沿用原值
// 原有技能不会丢失，分数只能在原分数基础上最多提高 MaxScoreBoost
func mergeAnalysis(current *types.ResumeAnalysis, raw *rawAnalysis) *types.ResumeAnalysis {
	merged := raw.toAnalysis()

	if merged.Summary == "" {
		merged.Summary = current.Summary
	}
	if merged.ExperienceLevel == "" {
		merged.ExperienceLevel = current.ExperienceLevel
	}
	if raw.ATSIssues == nil {
		merged.ATSIssues = append([]string{}, current.ATSIssues...)
	}
	if raw.ImprovementAreas == nil {
		merged.ImprovementAreas = append([]string{}, current.ImprovementAreas...)
	}
	if len(merged.SuggestedRoles) == 0 {
		merged.SuggestedRoles = append([]string{}, current.SuggestedRoles...)
	}
	merged.Skills = unionSkills(merged.Skills, current.Skills)

	low := current.ATSScore
	high := types.ClampScore(current.ATSScore + constants.MaxScoreBoost)
	switch {
	case merged.ATSScore < low:
		merged.ATSScore = low
	case merged.ATSScore > high:
		merged.ATSScore = high
	}
	return merged
}

// unionSkills 保留模型给出的顺序，再追加被遗漏的原有技能（忽略大小写）
func unionSkills(merged, original []string) []string {
	seen := make(map[string]bool, len(merged))
	out := make([]string, 0, len(merged)+len(original))
	for _, s := range merged {
		seen[strings.ToLower(s)] = true
		out = append(out, s)
	}
	for _, s := range original {
		if !seen[strings.ToLower(s)] {
			seen[strings.ToLower(s)] = true
			out = append(out, s)
		}
	}
	return out
}
