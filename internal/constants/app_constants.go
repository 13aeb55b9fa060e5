package constants

import "time"

const (
	// 模型相关
	DefaultGeminiModel       = "gemini-2.5-flash"
	DefaultOpenAICompatModel = "qwen-plus"
	DefaultAITimeout         = 60 * time.Second
	DefaultQPM               = 60

	// 支持的简历文件类型
	MIMETypePDF  = "application/pdf"
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeWEBP = "image/webp"
	MIMETypeJSON = "application/json"

	// 职位搜索
	MaxJobResults   = 6
	FallbackJobURL  = "#"
	MaxScoreBoost   = 10
	ConnectionSkill = 2 // 人脉邀请中引用的技能数量

	// 上传限制
	DefaultMaxUploadMB = 10

	// Search grounding 工具名
	GoogleSearchToolName = "google_search"
)
