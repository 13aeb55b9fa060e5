package types

import "strings"

// 职位筛选项（与原前端表单一致，模型侧按自由文本处理）
const (
	JobTypeFullTime = "Full-time"
	JobTypePartTime = "Part-time"
	JobTypeContract = "Contract"
	JobTypeRemote   = "Remote"

	ExperienceFilterEntry     = "Entry Level"
	ExperienceFilterMid       = "Mid Level"
	ExperienceFilterSenior    = "Senior Level"
	ExperienceFilterExecutive = "Executive"
)

// JobFilters 职位搜索过滤条件，空字段表示不过滤
type JobFilters struct {
	Type       string `json:"type,omitempty"`
	Experience string `json:"experience,omitempty"`
}

var (
	knownJobTypes    = []string{JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeRemote}
	knownExperiences = []string{ExperienceFilterEntry, ExperienceFilterMid, ExperienceFilterSenior, ExperienceFilterExecutive}
)

// Normalize 去掉首尾空白，大小写不同的已知选项统一为标准写法，其他取值原样保留
func (f JobFilters) Normalize() JobFilters {
	return JobFilters{
		Type:       canonical(f.Type, knownJobTypes),
		Experience: canonical(f.Experience, knownExperiences),
	}
}

func canonical(value string, known []string) string {
	value = strings.TrimSpace(value)
	for _, k := range known {
		if strings.EqualFold(value, k) {
			return k
		}
	}
	return value
}

// Describe 生成 "Type: x, Experience: y" 形式的描述
func (f JobFilters) Describe() string {
	parts := make([]string, 0, 2)
	if t := strings.TrimSpace(f.Type); t != "" {
		parts = append(parts, "Type: "+t)
	}
	if e := strings.TrimSpace(f.Experience); e != "" {
		parts = append(parts, "Experience: "+e)
	}
	return strings.Join(parts, ", ")
}

// JobListing 一次搜索返回的职位，创建后不再修改
type JobListing struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Company  string  `json:"company"`
	Location string  `json:"location"`
	Snippet  string  `json:"snippet"`
	URL      *string `json:"url"` // nil 表示没有链接，区别于空字符串
}

// HasURL 是否有投递链接
func (j *JobListing) HasURL() bool {
	return j.URL != nil
}

// Clone 深拷贝
func (j *JobListing) Clone() *JobListing {
	if j == nil {
		return nil
	}
	c := *j
	if j.URL != nil {
		u := *j.URL
		c.URL = &u
	}
	return &c
}

// CloneJobs 深拷贝一批职位
func CloneJobs(jobs []JobListing) []JobListing {
	out := make([]JobListing, 0, len(jobs))
	for i := range jobs {
		out = append(out, *jobs[i].Clone())
	}
	return out
}

// JobMatchAnalysis 简历与某个职位的匹配分析及申请材料
type JobMatchAnalysis struct {
	JobID         string   `json:"jobId"`
	MatchScore    int      `json:"matchScore"`
	MissingSkills []string `json:"missingSkills"`
	Strengths     []string `json:"strengths"`
	Reasoning     string   `json:"reasoning"`
	CoverLetter   string   `json:"coverLetter"`
	ColdEmail     string   `json:"coldEmail"`
}

// Normalize matchScore 截断到 [0,100]，nil 列表替换为空列表
func (m *JobMatchAnalysis) Normalize() {
	m.MatchScore = ClampScore(m.MatchScore)
	m.MissingSkills = cleanList(m.MissingSkills)
	m.Strengths = cleanList(m.Strengths)
	m.Reasoning = strings.TrimSpace(m.Reasoning)
	m.CoverLetter = strings.TrimSpace(m.CoverLetter)
	m.ColdEmail = strings.TrimSpace(m.ColdEmail)
}

// TopStrengths 返回前 n 个优势技能
func (m *JobMatchAnalysis) TopStrengths(n int) []string {
	if n < 0 {
		n = 0
	}
	if n > len(m.Strengths) {
		n = len(m.Strengths)
	}
	return copyList(m.Strengths[:n])
}

// Clone 深拷贝
func (m *JobMatchAnalysis) Clone() *JobMatchAnalysis {
	if m == nil {
		return nil
	}
	c := *m
	c.MissingSkills = copyList(m.MissingSkills)
	c.Strengths = copyList(m.Strengths)
	return &c
}
