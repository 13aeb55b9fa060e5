package session

import (
	"context"

	"jobhunt-ai/internal/constants"
	"jobhunt-ai/internal/metrics"
	"jobhunt-ai/pkg/utils"
)

// UpdateCoverLetter 编辑缓存中的求职信，不会重新触发匹配分析
func (s *Session) UpdateCoverLetter(jobID, coverLetter string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.matches[jobID]
	if !ok {
		metrics.ObserveIntent("update_cover_letter", "rejected")
		return ErrNoMatch
	}
	entry.analysis.CoverLetter = coverLetter
	metrics.ObserveIntent("update_cover_letter", "ok")
	return nil
}

// GenerateConnectionNote 根据匹配分析中的优势技能生成 LinkedIn 邀请附言并保存
// 网关失败时返回固定文案，因此只有前置条件不满足时才会出错
func (s *Session) GenerateConnectionNote(ctx context.Context, jobID string) (note string, err error) {
	defer func() { s.observe("connection_note", err) }()

	s.mu.Lock()
	entry, ok := s.matches[jobID]
	if !ok {
		s.mu.Unlock()
		return "", ErrNoMatch
	}
	if err := s.begin(CategoryNote, false); err != nil {
		s.mu.Unlock()
		return "", err
	}
	job := *entry.job.Clone()
	skills := entry.analysis.TopStrengths(constants.ConnectionSkill)
	s.mu.Unlock()

	note = s.gw.GenerateConnectionNote(ctx, job, skills)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.end(CategoryNote)
	entry.note = note
	return note, nil
}

// ApplicationMailto 生成 "Send via Email" 使用的 mailto 链接，正文为当前求职信
func (s *Session) ApplicationMailto(jobID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.matches[jobID]
	if !ok {
		return "", ErrNoMatch
	}
	subject := "Application for " + entry.job.Title + " - " + entry.job.Company
	return utils.MailtoURL(subject, entry.analysis.CoverLetter), nil
}

// ApplyURL 职位的投递链接，没有链接时第二个返回值为 false
func (s *Session) ApplyURL(jobID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.matches[jobID]
	if !ok {
		return "", false, ErrNoMatch
	}
	if entry.job.URL == nil {
		return "", false, nil
	}
	return *entry.job.URL, true, nil
}
