package types

import (
	"strings"

	"jobhunt-ai/internal/constants"
)

// ExperienceLevel 经验级别，来自外部模型，按自由文本处理
type ExperienceLevel = string

// acceptedMIMETypes 允许上传的简历文件类型
var acceptedMIMETypes = map[string]bool{
	constants.MIMETypePDF:  true,
	constants.MIMETypeJPEG: true,
	constants.MIMETypePNG:  true,
	constants.MIMETypeWEBP: true,
}

// IsAcceptedMIMEType 判断 MIME 类型是否在允许列表中
func IsAcceptedMIMEType(mimeType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return acceptedMIMETypes[mt]
}

// ResumeFile 已上传简历的引用
type ResumeFile struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mimeType"`
	Name     string `json:"name"`
}

// Size 文件字节数
func (f *ResumeFile) Size() int {
	if f == nil {
		return 0
	}
	return len(f.Data)
}

// Clone 深拷贝
func (f *ResumeFile) Clone() *ResumeFile {
	if f == nil {
		return nil
	}
	c := *f
	c.Data = append([]byte(nil), f.Data...)
	return &c
}

// ResumeAnalysis 简历的 ATS 分析结果
type ResumeAnalysis struct {
	Summary          string          `json:"summary"`
	Skills           []string        `json:"skills"`
	ExperienceLevel  ExperienceLevel `json:"experienceLevel"`
	ATSScore         int             `json:"atsScore"`
	ATSIssues        []string        `json:"atsIssues"`
	ImprovementAreas []string        `json:"improvementAreas"`
	SuggestedRoles   []string        `json:"suggestedRoles"`
}

// Normalize 将外部模型返回的数据整理为满足不变量的形式
// atsScore 截断到 [0,100]，nil 列表替换为空列表
func (a *ResumeAnalysis) Normalize() {
	a.Summary = strings.TrimSpace(a.Summary)
	a.ExperienceLevel = strings.TrimSpace(a.ExperienceLevel)
	a.ATSScore = ClampScore(a.ATSScore)
	a.Skills = cleanList(a.Skills)
	a.ATSIssues = cleanList(a.ATSIssues)
	a.ImprovementAreas = cleanList(a.ImprovementAreas)
	a.SuggestedRoles = cleanList(a.SuggestedRoles)
}

// HasIssues 空的 atsIssues 表示"未发现问题"
func (a *ResumeAnalysis) HasIssues() bool {
	return len(a.ATSIssues) > 0
}

// ProfileText 生成用于岗位匹配的简要文本
func (a *ResumeAnalysis) ProfileText() string {
	var sb strings.Builder
	sb.WriteString("Summary: ")
	sb.WriteString(a.Summary)
	sb.WriteString("\nSkills: ")
	sb.WriteString(strings.Join(a.Skills, ", "))
	sb.WriteString("\nExperience Level: ")
	sb.WriteString(a.ExperienceLevel)
	return sb.String()
}

// DefaultSearchQuery 职位搜索的默认关键词（第一个推荐岗位）
func (a *ResumeAnalysis) DefaultSearchQuery() string {
	if len(a.SuggestedRoles) == 0 {
		return ""
	}
	return a.SuggestedRoles[0]
}

// Clone 深拷贝
func (a *ResumeAnalysis) Clone() *ResumeAnalysis {
	if a == nil {
		return nil
	}
	c := *a
	c.Skills = copyList(a.Skills)
	c.ATSIssues = copyList(a.ATSIssues)
	c.ImprovementAreas = copyList(a.ImprovementAreas)
	c.SuggestedRoles = copyList(a.SuggestedRoles)
	return &c
}

// ClampScore 把分数限制在 [0,100]
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// cleanList 去掉首尾空白和空项，保留顺序，不去重
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func copyList(in []string) []string {
	if in == nil {
		return nil
	}
	return append(make([]string, 0, len(in)), in...)
}
