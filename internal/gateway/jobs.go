package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"jobhunt-ai/internal/constants"
	"jobhunt-ai/internal/metrics"
	"jobhunt-ai/internal/parser"
	"jobhunt-ai/internal/tracing"
	"jobhunt-ai/internal/types"
	"jobhunt-ai/pkg/agent"
	"jobhunt-ai/pkg/utils"
)

// FindJobs 搜索职位，任何失败都返回固定的 3 条示例职位，从不向调用方返回错误
func (c *Client) FindJobs(ctx context.Context, query, location string, filters types.JobFilters) []types.JobListing {
	jobs, err := c.SearchJobs(ctx, query, location, filters)
	if err != nil {
		return FallbackJobs(strings.TrimSpace(query), strings.TrimSpace(location))
	}
	return jobs
}

// SearchJobs 先用搜索增强查找职位，再让模型把结果整理成 JSON 数组
// 返回的职位最多 MaxJobResults 条，id 在本批次内唯一
func (c *Client) SearchJobs(ctx context.Context, query, location string, filters types.JobFilters) ([]types.JobListing, error) {
	query = strings.TrimSpace(query)
	location = strings.TrimSpace(location)
	ctx, op := c.begin(ctx, OpFindJobs,
		attribute.String("jobs.query", tracing.SafeAttributeValue("query", query, tracing.MaxQueryLength)),
		attribute.String("jobs.location", location),
		attribute.String("jobs.filters", filters.Describe()),
	)

	jobs, err := c.searchJobs(ctx, query, location, filters)
	if err != nil {
		op.fallback(err)
		return nil, err
	}
	op.span.SetAttributes(attribute.Int("jobs.count", len(jobs)))
	op.ok(metrics.OutcomeOK)
	return jobs, nil
}

func (c *Client) searchJobs(ctx context.Context, query, location string, filters types.JobFilters) ([]types.JobListing, error) {
	if query == "" {
		return nil, newError(KindInvalidInput, OpFindJobs, failedMessage(ctxFindJobs), errors.New("empty search query"))
	}

	grounded, err := c.generate(ctx,
		[]*schema.Message{schema.UserMessage(jobSearchPrompt(query, location, filters, constants.MaxJobResults))},
		agent.WithGoogleSearch(),
	)
	if err != nil {
		return nil, classify(err, OpFindJobs, ctxFindJobs, true)
	}
	if grounded == "" {
		return nil, newError(KindEmptyResponse, OpFindJobs, failedMessage(ctxFindJobs), errors.New("search grounding returned no text"))
	}

	formatted, err := c.generate(ctx,
		[]*schema.Message{schema.UserMessage(jobFormattingPrompt(grounded))},
		agent.WithJSONResponse(),
	)
	if err != nil {
		return nil, classify(err, OpFindJobs, ctxFindJobs, false)
	}
	if formatted == "" {
		return nil, newError(KindEmptyResponse, OpFindJobs, failedMessage(ctxFindJobs), errors.New("formatting step returned no text"))
	}

	jobs, err := parseJobListings(formatted)
	if err != nil {
		return nil, newError(KindMalformedResponse, OpFindJobs, failedMessage(ctxFindJobs), err)
	}
	return jobs, nil
}

// parseJobListings 解析模型整理出的职位数组，也接受 {"jobs": [...]} 这种包装
func parseJobListings(text string) ([]types.JobListing, error) {
	var items []any
	if err := parser.DecodeModelJSONArray(text, &items); err != nil || !hasObjects(items) {
		var payload any
		if err := parser.DecodeModelJSON(text, &payload); err != nil {
			return nil, err
		}
		var ok bool
		if items, ok = listingItems(payload); !ok {
			return nil, fmt.Errorf("job listings are not a JSON array")
		}
	}

	seen := make(map[string]bool, len(items))
	jobs := make([]types.JobListing, 0, constants.MaxJobResults)
	for _, item := range items {
		if len(jobs) == constants.MaxJobResults {
			break
		}
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		job := types.JobListing{
			ID:       field(obj, "id"),
			Title:    field(obj, "title"),
			Company:  field(obj, "company"),
			Location: field(obj, "location"),
			Snippet:  field(obj, "snippet", "description"),
			URL:      listingURL(obj),
		}
		if job.Title == "" {
			continue
		}
		if job.ID == "" || seen[job.ID] {
			job.ID = uuid.NewString()
		}
		seen[job.ID] = true
		jobs = append(jobs, job)
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no usable job listings in response")
	}
	return jobs, nil
}

func hasObjects(items []any) bool {
	for _, item := range items {
		if _, ok := item.(map[string]any); ok {
			return true
		}
	}
	return false
}

func listingItems(payload any) ([]any, bool) {
	switch v := payload.(type) {
	case []any:
		return v, true
	case map[string]any:
		for _, key := range []string{"jobs", "listings", "results", "data"} {
			if arr, ok := v[key].([]any); ok {
				return arr, true
			}
		}
		for _, val := range v {
			if arr, ok := val.([]any); ok {
				return arr, true
			}
		}
	}
	return nil, false
}

func field(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := stringValue(obj[k]); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// listingURL null、空串以及字面量 "null" 都视为没有链接
func listingURL(obj map[string]any) *string {
	raw, ok := obj["url"].(string)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "null") {
		return nil
	}
	return utils.StringPtr(raw)
}

// FallbackJobs 搜索不可用时返回的示例职位
func FallbackJobs(query, location string) []types.JobListing {
	loc := location
	if loc == "" {
		loc = "Remote"
	}
	return []types.JobListing{
		{
			ID:       "mock-1",
			Title:    query + " (Mock)",
			Company:  "Demo Company A",
			Location: loc,
			Snippet:  "This is a sample listing shown because real-time search unavailable. Please check API permissions for 'Search Grounding'.",
			URL:      utils.StringPtr(constants.FallbackJobURL),
		},
		{
			ID:       "mock-2",
			Title:    "Senior " + query,
			Company:  "Tech Corp B",
			Location: "New York, NY",
			Snippet:  "Great opportunity for an experienced professional. (Sample Data)",
			URL:      utils.StringPtr(constants.FallbackJobURL),
		},
		{
			ID:       "mock-3",
			Title:    "Lead " + query,
			Company:  "Future Systems",
			Location: "San Francisco, CA",
			Snippet:  "Join our fast growing team working on cutting edge tech. (Sample Data)",
			URL:      utils.StringPtr(constants.FallbackJobURL),
		},
	}
}
