package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"jobhunt-ai/internal/metrics"
	"jobhunt-ai/internal/types"
)

// Category 需要调用 AI 的操作类别，每类同一时间最多一个在途
type Category string

const (
	CategoryUpload Category = "upload"
	CategoryEnrich Category = "enrich"
	CategorySearch Category = "search"
	CategoryMatch  Category = "match"
	CategoryNote   Category = "note"
)

// Categories 固定顺序的全部类别
func Categories() []Category {
	return []Category{CategoryUpload, CategoryEnrich, CategorySearch, CategoryMatch, CategoryNote}
}

// Gateway 状态机依赖的 AI 网关
type Gateway interface {
	AnalyzeResume(ctx context.Context, data []byte, mimeType string) (*types.ResumeAnalysis, error)
	EnrichWithExternalProfile(ctx context.Context, current *types.ResumeAnalysis, profileInput string) (*types.ResumeAnalysis, error)
	FindJobs(ctx context.Context, query, location string, filters types.JobFilters) []types.JobListing
	AnalyzeJobMatch(ctx context.Context, profileText string, job types.JobListing) (*types.JobMatchAnalysis, error)
	GenerateConnectionNote(ctx context.Context, job types.JobListing, topSkills []string) string
}

// matchEntry 匹配缓存条目，保存计算时的职位，新的搜索替换职位列表后仍可展示
type matchEntry struct {
	job      types.JobListing
	analysis *types.JobMatchAnalysis
	note     string
}

// SearchParams 最近一次职位搜索的条件
type SearchParams struct {
	Query    string           `json:"query"`
	Location string           `json:"location"`
	Filters  types.JobFilters `json:"filters"`
}

// Session 单个用户会话的全部状态
// 网关调用在锁外进行，结果回来后按字段提交，不整体替换
type Session struct {
	mu     sync.RWMutex
	gw     Gateway
	logger zerolog.Logger

	view       types.View
	resume     *types.ResumeFile
	analysis   *types.ResumeAnalysis
	jobs       []types.JobListing
	lastSearch *SearchParams
	matches    map[string]*matchEntry
	selectedID string
	pendingID  string
	lastErr    string
	inFlight   map[Category]bool

	// resumeGen 每次成功上传加一；selectGen 每次选择职位或切换视图加一
	resumeGen uint64
	selectGen uint64
}

// Option 会话配置
type Option func(*Session)

// WithLogger 设置日志
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// New 创建会话，初始视图为 Upload
func New(gw Gateway, opts ...Option) *Session {
	s := &Session{
		gw:       gw,
		logger:   zerolog.Nop(),
		view:     types.ViewUpload,
		matches:  make(map[string]*matchEntry),
		inFlight: make(map[Category]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// begin 标记类别在途；clearErr 为 true 时清空 last-error。调用方需持有写锁
func (s *Session) begin(cat Category, clearErr bool) error {
	if s.inFlight[cat] {
		return ErrBusy
	}
	s.inFlight[cat] = true
	if clearErr {
		s.lastErr = ""
	}
	return nil
}

// end 清除在途标记。调用方需持有写锁
func (s *Session) end(cat Category) {
	s.inFlight[cat] = false
}

// InFlight 某类操作是否在途
func (s *Session) InFlight(cat Category) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight[cat]
}

// View 当前视图
func (s *Session) View() types.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// LastError 当前错误文案，没有错误时返回空串
func (s *Session) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// DismissError 清除错误横幅
func (s *Session) DismissError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
	metrics.ObserveIntent("dismiss_error", "ok")
}

func (s *Session) observe(intent string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case err == ErrStale:
		result = "stale"
	case err == ErrBusy:
		result = "busy"
	default:
		result = "error"
	}
	metrics.ObserveIntent(intent, result)
	if err != nil {
		s.logger.Debug().Str("intent", intent).Err(err).Msg("意图未生效")
	}
}
