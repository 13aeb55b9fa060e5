package session

import (
	"jobhunt-ai/internal/types"
	"jobhunt-ai/pkg/utils"
)

// ResumeInfo 已上传简历的元信息，不包含文件内容
type ResumeInfo struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Size     int    `json:"size"`
	MD5      string `json:"md5"`
}

// Snapshot 会话状态的只读副本，供展示层渲染
type Snapshot struct {
	View               types.View                         `json:"view"`
	ResumeFile         *ResumeInfo                        `json:"resumeFile"`
	Analysis           *types.ResumeAnalysis              `json:"analysis"`
	Jobs               []types.JobListing                 `json:"jobs"`
	LastSearch         *SearchParams                      `json:"lastSearch,omitempty"`
	DefaultSearchQuery string                             `json:"defaultSearchQuery"`
	SelectedJobID      *string                            `json:"selectedJobId"`
	SelectedJob        *types.JobListing                  `json:"selectedJob,omitempty"`
	PendingJobID       *string                            `json:"pendingJobId,omitempty"`
	Matches            map[string]*types.JobMatchAnalysis `json:"matches"`
	ConnectionNotes    map[string]string                  `json:"connectionNotes"`
	InFlight           map[Category]bool                  `json:"inFlight"`
	IsLoading          bool                               `json:"isLoading"`
	Error              *string                            `json:"error"`
}

// Snapshot 返回深拷贝的状态，调用方修改它不会影响会话
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		View:            s.view,
		Analysis:        s.analysis.Clone(),
		Jobs:            types.CloneJobs(s.jobs),
		Matches:         make(map[string]*types.JobMatchAnalysis, len(s.matches)),
		ConnectionNotes: make(map[string]string),
		InFlight:        make(map[Category]bool, len(Categories())),
	}
	if s.resume != nil {
		snap.ResumeFile = &ResumeInfo{
			Name:     s.resume.Name,
			MIMEType: s.resume.MIMEType,
			Size:     s.resume.Size(),
			MD5:      utils.CalculateMD5(s.resume.Data),
		}
	}
	if s.analysis != nil {
		snap.DefaultSearchQuery = s.analysis.DefaultSearchQuery()
	}
	if s.lastSearch != nil {
		ls := *s.lastSearch
		snap.LastSearch = &ls
	}
	for id, entry := range s.matches {
		snap.Matches[id] = entry.analysis.Clone()
		if entry.note != "" {
			snap.ConnectionNotes[id] = entry.note
		}
	}
	if s.selectedID != "" {
		snap.SelectedJobID = utils.StringPtr(s.selectedID)
		if entry, ok := s.matches[s.selectedID]; ok {
			snap.SelectedJob = entry.job.Clone()
		} else if job, ok := s.findJob(s.selectedID); ok {
			snap.SelectedJob = &job
		}
	}
	if s.pendingID != "" {
		snap.PendingJobID = utils.StringPtr(s.pendingID)
	}
	for _, cat := range Categories() {
		snap.InFlight[cat] = s.inFlight[cat]
	}
	snap.IsLoading = s.inFlight[CategoryUpload] || s.inFlight[CategorySearch] || s.inFlight[CategoryMatch]
	if s.lastErr != "" {
		snap.Error = utils.StringPtr(s.lastErr)
	}
	return snap
}
