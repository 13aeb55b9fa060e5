package gateway

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel/attribute"

	"jobhunt-ai/internal/constants"
	"jobhunt-ai/internal/metrics"
	"jobhunt-ai/internal/types"
)

// FallbackConnectionNote 生成失败时使用的固定文案
func FallbackConnectionNote(job types.JobListing) string {
	return "Hi, I noticed your hiring for the " + job.Title + " role and would love to connect."
}

// GenerateConnectionNote 生成 LinkedIn 人脉邀请附言，失败时返回固定文案，从不返回错误
func (c *Client) GenerateConnectionNote(ctx context.Context, job types.JobListing, topSkills []string) string {
	note, err := c.ConnectionNote(ctx, job, topSkills)
	if err != nil {
		return FallbackConnectionNote(job)
	}
	return note
}

// ConnectionNote 生成附言；只使用前 ConnectionSkill 个技能，长度目标 300 字符但不强制
func (c *Client) ConnectionNote(ctx context.Context, job types.JobListing, topSkills []string) (string, error) {
	ctx, op := c.begin(ctx, OpConnectionNote, attribute.String("job.id", job.ID))

	skills := topSkills
	if len(skills) > constants.ConnectionSkill {
		skills = skills[:constants.ConnectionSkill]
	}

	text, err := c.generate(ctx, []*schema.Message{schema.UserMessage(connectionNotePrompt(job, skills))})
	if err != nil {
		gwErr := classify(err, OpConnectionNote, ctxConnectionNote, false)
		op.fallback(gwErr)
		return "", gwErr
	}
	note := strings.Trim(text, "\"“” \n")
	if note == "" {
		gwErr := newError(KindEmptyResponse, OpConnectionNote, failedMessage(ctxConnectionNote), errors.New("empty connection note"))
		op.fallback(gwErr)
		return "", gwErr
	}

	op.span.SetAttributes(attribute.Int("note.length", len([]rune(note))))
	op.ok(metrics.OutcomeOK)
	return note, nil
}
