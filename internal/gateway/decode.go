package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"jobhunt-ai/internal/types"
)

// flexScore 接受 82、82.4、"82"、"82%" 等写法的分数
type flexScore int

func (s *flexScore) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = 0
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "%")
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid score %s", string(b))
	}
	*s = flexScore(math.Round(f))
	return nil
}

// flexList 接受字符串数组；单个字符串视为一个元素
// 字段缺失或为 null 时保持 nil，便于和空数组区分
type flexList []string

func (l *flexList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = flexList{s}
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	out := make(flexList, 0, len(items))
	for _, item := range items {
		if s, ok := scalarString(item); ok {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}

// scalarString 把字符串或数字转成文本
func scalarString(raw json.RawMessage) (string, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return stringValue(v)
}

func stringValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// rawAnalysis 模型返回的简历分析，ingest 前的原始形态
type rawAnalysis struct {
	Summary          string    `json:"summary"`
	Skills           flexList  `json:"skills"`
	ExperienceLevel  string    `json:"experienceLevel"`
	ATSScore         flexScore `json:"atsScore"`
	ATSIssues        flexList  `json:"atsIssues"`
	ImprovementAreas flexList  `json:"improvementAreas"`
	SuggestedRoles   flexList  `json:"suggestedRoles"`
}

func (r *rawAnalysis) toAnalysis() *types.ResumeAnalysis {
	a := &types.ResumeAnalysis{
		Summary:          r.Summary,
		Skills:           []string(r.Skills),
		ExperienceLevel:  r.ExperienceLevel,
		ATSScore:         int(r.ATSScore),
		ATSIssues:        []string(r.ATSIssues),
		ImprovementAreas: []string(r.ImprovementAreas),
		SuggestedRoles:   []string(r.SuggestedRoles),
	}
	a.Normalize()
	return a
}

// rawMatch 模型返回的匹配分析
type rawMatch struct {
	MatchScore    flexScore `json:"matchScore"`
	MissingSkills flexList  `json:"missingSkills"`
	Strengths     flexList  `json:"strengths"`
	Reasoning     string    `json:"reasoning"`
	CoverLetter   string    `json:"coverLetter"`
	ColdEmail     string    `json:"coldEmail"`
}

func (r *rawMatch) toMatch(jobID string) *types.JobMatchAnalysis {
	m := &types.JobMatchAnalysis{
		JobID:         jobID,
		MatchScore:    int(r.MatchScore),
		MissingSkills: []string(r.MissingSkills),
		Strengths:     []string(r.Strengths),
		Reasoning:     r.Reasoning,
		CoverLetter:   r.CoverLetter,
		ColdEmail:     r.ColdEmail,
	}
	m.Normalize()
	return m
}
