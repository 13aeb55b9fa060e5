package session

import (
	"jobhunt-ai/internal/metrics"
	"jobhunt-ai/internal/types"
)

// Navigate 纯视图切换。视图确实变化时，在途的匹配分析完成后只写缓存，不再跳转
// Dashboard 需要已有分析；JobDetails 需要已选职位且缓存中有其匹配分析
func (s *Session) Navigate(view types.View) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch view {
	case types.ViewUpload:
	case types.ViewDashboard:
		if s.analysis == nil {
			metrics.ObserveIntent("navigate", "rejected")
			return ErrInvalidTransition
		}
	case types.ViewJobDetails:
		if _, ok := s.matches[s.selectedID]; s.selectedID == "" || !ok {
			metrics.ObserveIntent("navigate", "rejected")
			return ErrInvalidTransition
		}
	default:
		metrics.ObserveIntent("navigate", "rejected")
		return ErrInvalidTransition
	}

	if s.view != view {
		s.view = view
		s.supersedePending()
	}
	metrics.ObserveIntent("navigate", "ok")
	return nil
}

// Home 顶部标题导航：有分析时回到 Dashboard，否则回到 Upload
func (s *Session) Home() types.View {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := types.ViewUpload
	if s.analysis != nil {
		target = types.ViewDashboard
	}
	if s.view != target {
		s.view = target
		s.supersedePending()
	}
	metrics.ObserveIntent("home", "ok")
	return s.view
}
