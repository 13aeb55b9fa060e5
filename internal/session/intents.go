package session

import (
	"context"
	"strings"

	"jobhunt-ai/internal/gateway"
	"jobhunt-ai/internal/metrics"
	"jobhunt-ai/internal/types"
)

// UploadResume 分析上传的简历，成功后保存简历与分析结果并切换到 Dashboard
// 失败时写入 last-error，视图保持不变
func (s *Session) UploadResume(ctx context.Context, file types.ResumeFile) (err error) {
	defer func() { s.observe("upload_resume", err) }()

	if !types.IsAcceptedMIMEType(file.MIMEType) || len(file.Data) == 0 {
		s.mu.Lock()
		s.lastErr = msgUnsupportedFile
		s.mu.Unlock()
		return ErrUnsupportedFile
	}

	s.mu.Lock()
	if err := s.begin(CategoryUpload, true); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	analysis, err := s.gw.AnalyzeResume(ctx, file.Data, file.MIMEType)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.end(CategoryUpload)
	if err != nil {
		s.lastErr = gateway.UserMessage(err, msgAnalyzeFailed)
		return err
	}

	s.resume = file.Clone()
	s.analysis = analysis.Clone()
	s.view = types.ViewDashboard
	s.resumeGen++
	s.logger.Info().Str("file", file.Name).Int("ats_score", analysis.ATSScore).Msg("简历分析完成")
	return nil
}

// SyncProfile 用 LinkedIn 链接或资料文本补充当前分析
func (s *Session) SyncProfile(ctx context.Context, input string) (err error) {
	defer func() { s.observe("sync_profile", err) }()

	input = strings.TrimSpace(input)
	s.mu.Lock()
	if s.analysis == nil {
		s.mu.Unlock()
		return ErrNoAnalysis
	}
	if input == "" {
		s.mu.Unlock()
		return ErrEmptyInput
	}
	if err := s.begin(CategoryEnrich, true); err != nil {
		s.mu.Unlock()
		return err
	}
	current := s.analysis.Clone()
	gen := s.resumeGen
	s.mu.Unlock()

	merged, err := s.gw.EnrichWithExternalProfile(ctx, current, input)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.end(CategoryEnrich)
	if gen != s.resumeGen {
		// 期间上传了新简历，结果针对的是旧分析
		return ErrStale
	}
	if err != nil {
		s.lastErr = gateway.UserMessage(err, msgSyncFailed)
		return err
	}
	s.analysis = merged.Clone()
	return nil
}

// SearchJobs 搜索职位并替换当前职位列表
// 网关在搜索不可用时返回示例职位，因此这里通常不会失败
func (s *Session) SearchJobs(ctx context.Context, query, location string, filters types.JobFilters) (err error) {
	defer func() { s.observe("search_jobs", err) }()

	query = strings.TrimSpace(query)
	location = strings.TrimSpace(location)
	filters = filters.Normalize()
	if query == "" {
		return ErrEmptyInput
	}

	s.mu.Lock()
	if err := s.begin(CategorySearch, true); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	jobs := s.gw.FindJobs(ctx, query, location, filters)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.end(CategorySearch)
	if len(jobs) == 0 {
		s.lastErr = msgSearchFailed
		return ErrNoResults
	}
	s.jobs = types.CloneJobs(jobs)
	s.lastSearch = &SearchParams{Query: query, Location: location, Filters: filters}
	return nil
}

// SelectJob 选择职位
// 缓存中已有匹配分析时直接切换到 JobDetails，不调用 AI；否则计算匹配分析并写入缓存
// 计算期间用户选择了其他职位或切换了视图，结果只进缓存不切换视图；期间重新上传了简历则整体丢弃
func (s *Session) SelectJob(ctx context.Context, jobID string) (match *types.JobMatchAnalysis, err error) {
	s.mu.Lock()
	if entry, ok := s.matches[jobID]; ok {
		s.selectedID = jobID
		s.view = types.ViewJobDetails
		s.supersedePending()
		out := entry.analysis.Clone()
		s.mu.Unlock()
		metrics.ObserveIntent("select_job", "cache_hit")
		return out, nil
	}
	defer func() { s.observe("select_job", err) }()

	job, ok := s.findJob(jobID)
	if !ok {
		s.mu.Unlock()
		return nil, ErrUnknownJob
	}
	if s.analysis == nil {
		s.mu.Unlock()
		return nil, ErrNoAnalysis
	}
	if err := s.begin(CategoryMatch, true); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.selectGen++
	gen, rgen := s.selectGen, s.resumeGen
	s.pendingID = jobID
	profile := s.analysis.ProfileText()
	s.mu.Unlock()

	result, err := s.gw.AnalyzeJobMatch(ctx, profile, job)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.end(CategoryMatch)
	superseded := gen != s.selectGen
	if !superseded {
		s.pendingID = ""
	}
	// 简历已更换，分析基于旧简历，整体丢弃
	if rgen != s.resumeGen {
		return nil, ErrStale
	}
	if err != nil {
		if superseded {
			return nil, ErrStale
		}
		s.lastErr = gateway.UserMessage(err, msgMatchFailed)
		return nil, err
	}

	result = result.Clone()
	result.JobID = jobID
	s.matches[jobID] = &matchEntry{job: job, analysis: result}
	// 用户已离开或改选其他职位：结果仍写入缓存，但不切换视图
	if superseded {
		return nil, ErrStale
	}
	s.selectedID = jobID
	s.view = types.ViewJobDetails
	return result.Clone(), nil
}

// findJob 在当前职位列表中查找。调用方需持有锁
func (s *Session) findJob(jobID string) (types.JobListing, bool) {
	for i := range s.jobs {
		if s.jobs[i].ID == jobID {
			return *s.jobs[i].Clone(), true
		}
	}
	return types.JobListing{}, false
}

// supersedePending 在途的匹配分析完成后不再切换视图。调用方需持有写锁
func (s *Session) supersedePending() {
	s.selectGen++
	s.pendingID = ""
}
