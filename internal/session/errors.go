package session

import "errors"

// 状态机的前置条件错误，不写入 last-error
var (
	ErrBusy              = errors.New("session: operation already in flight")
	ErrNoAnalysis        = errors.New("session: no resume analysis yet")
	ErrUnknownJob        = errors.New("session: job not found in current results")
	ErrNoMatch           = errors.New("session: job has no match analysis")
	ErrInvalidTransition = errors.New("session: view transition not allowed")
	ErrUnsupportedFile   = errors.New("session: unsupported resume file")
	ErrEmptyInput        = errors.New("session: input is empty")
	ErrNoResults         = errors.New("session: job search returned no listings")
	// ErrStale 结果返回时所针对的状态已经过期，结果被丢弃
	ErrStale = errors.New("session: result discarded as stale")
)

// last-error 的兜底文案，网关错误自带文案时优先使用网关的
const (
	msgAnalyzeFailed   = "Failed to analyze resume. Please try again."
	msgSyncFailed      = "Failed to sync LinkedIn profile."
	msgSearchFailed    = "Job search failed."
	msgMatchFailed     = "Failed to analyze job match."
	msgUnsupportedFile = "Please upload a PDF or Image file."
)
