package handler

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"jobhunt-ai/internal/constants"
	"jobhunt-ai/internal/gateway"
	"jobhunt-ai/internal/logger"
	"jobhunt-ai/internal/session"
	"jobhunt-ai/internal/tracing"
	"jobhunt-ai/internal/types"
)

// SessionHandler 把 HTTP 请求翻译成会话意图，每个响应都带上最新快照
type SessionHandler struct {
	session        *session.Session
	maxUploadBytes int
	logger         zerolog.Logger
}

// Option SessionHandler 配置项
type Option func(*SessionHandler)

// WithMaxUploadBytes 设置简历上传大小上限
func WithMaxUploadBytes(n int) Option {
	return func(h *SessionHandler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// WithLogger 设置日志
func WithLogger(l zerolog.Logger) Option {
	return func(h *SessionHandler) {
		h.logger = l
	}
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(s *session.Session, opts ...Option) *SessionHandler {
	h := &SessionHandler{
		session:        s,
		maxUploadBytes: constants.DefaultMaxUploadMB << 20,
		logger:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Response 所有接口的统一响应
type Response struct {
	Snapshot session.Snapshot `json:"snapshot"`
	Result   any              `json:"result,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// SyncProfileRequest LinkedIn 同步请求
type SyncProfileRequest struct {
	Input string `json:"input"`
}

// SearchJobsRequest 职位搜索请求
type SearchJobsRequest struct {
	Query      string `json:"query"`
	Location   string `json:"location"`
	Type       string `json:"type"`
	Experience string `json:"experience"`
}

// NavigateRequest 视图切换请求，view 为 upload/dashboard/job_details/home
type NavigateRequest struct {
	View string `json:"view"`
}

// CoverLetterRequest 求职信编辑请求
type CoverLetterRequest struct {
	CoverLetter string `json:"coverLetter"`
}

// MailtoResult 邮件投递与公司官网投递链接
type MailtoResult struct {
	Mailto   string `json:"mailto"`
	ApplyURL string `json:"applyUrl,omitempty"`
}

// Health 存活检查
func (h *SessionHandler) Health(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
}

// GetSession 读取当前快照
func (h *SessionHandler) GetSession(c context.Context, ctx *app.RequestContext) {
	h.respond(c, ctx, nil, nil)
}

// UploadResume 处理 multipart 简历上传，文件字段名为 file
func (h *SessionHandler) UploadResume(c context.Context, ctx *app.RequestContext) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		h.fail(c, ctx, consts.StatusBadRequest, "文件未找到")
		return
	}
	if fileHeader.Size > int64(h.maxUploadBytes) {
		h.fail(c, ctx, consts.StatusRequestEntityTooLarge, "文件过大")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.fail(c, ctx, consts.StatusInternalServerError, "打开文件失败")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, int64(h.maxUploadBytes)+1))
	if err != nil {
		h.fail(c, ctx, consts.StatusInternalServerError, "读取文件失败")
		return
	}
	if len(data) > h.maxUploadBytes {
		h.fail(c, ctx, consts.StatusRequestEntityTooLarge, "文件过大")
		return
	}

	resume := types.ResumeFile{
		Data:     data,
		MIMEType: detectMIMEType(fileHeader.Header.Get("Content-Type"), data),
		Name:     fileHeader.Filename,
	}
	err = h.session.UploadResume(c, resume)
	h.respond(c, ctx, nil, err)
}

// SyncProfile 用 LinkedIn 链接或资料文本补充分析
func (h *SessionHandler) SyncProfile(c context.Context, ctx *app.RequestContext) {
	var req SyncProfileRequest
	if err := ctx.BindJSON(&req); err != nil {
		h.fail(c, ctx, consts.StatusBadRequest, "请求格式错误")
		return
	}
	h.respond(c, ctx, nil, h.session.SyncProfile(c, req.Input))
}

// SearchJobs 搜索职位
func (h *SessionHandler) SearchJobs(c context.Context, ctx *app.RequestContext) {
	var req SearchJobsRequest
	if err := ctx.BindJSON(&req); err != nil {
		h.fail(c, ctx, consts.StatusBadRequest, "请求格式错误")
		return
	}
	filters := types.JobFilters{Type: req.Type, Experience: req.Experience}
	h.respond(c, ctx, nil, h.session.SearchJobs(c, req.Query, req.Location, filters))
}

// SelectJob 选择职位并返回匹配分析
func (h *SessionHandler) SelectJob(c context.Context, ctx *app.RequestContext) {
	match, err := h.session.SelectJob(c, ctx.Param("id"))
	h.respond(c, ctx, match, err)
}

// Navigate 视图切换
func (h *SessionHandler) Navigate(c context.Context, ctx *app.RequestContext) {
	var req NavigateRequest
	if err := ctx.BindJSON(&req); err != nil {
		h.fail(c, ctx, consts.StatusBadRequest, "请求格式错误")
		return
	}
	if strings.EqualFold(strings.TrimSpace(req.View), "home") {
		h.respond(c, ctx, h.session.Home(), nil)
		return
	}
	view, err := types.ParseView(req.View)
	if err != nil {
		h.fail(c, ctx, consts.StatusBadRequest, err.Error())
		return
	}
	h.respond(c, ctx, nil, h.session.Navigate(view))
}

// DismissError 关闭错误横幅
func (h *SessionHandler) DismissError(c context.Context, ctx *app.RequestContext) {
	h.session.DismissError()
	h.respond(c, ctx, nil, nil)
}

// UpdateCoverLetter 编辑求职信
func (h *SessionHandler) UpdateCoverLetter(c context.Context, ctx *app.RequestContext) {
	var req CoverLetterRequest
	if err := ctx.BindJSON(&req); err != nil {
		h.fail(c, ctx, consts.StatusBadRequest, "请求格式错误")
		return
	}
	h.respond(c, ctx, nil, h.session.UpdateCoverLetter(ctx.Param("id"), req.CoverLetter))
}

// ConnectionNote 生成 LinkedIn 邀请附言
func (h *SessionHandler) ConnectionNote(c context.Context, ctx *app.RequestContext) {
	note, err := h.session.GenerateConnectionNote(c, ctx.Param("id"))
	if err != nil {
		h.respond(c, ctx, nil, err)
		return
	}
	h.respond(c, ctx, utils.H{"note": note}, nil)
}

// Mailto 返回邮件投递链接以及职位官网链接
func (h *SessionHandler) Mailto(c context.Context, ctx *app.RequestContext) {
	id := ctx.Param("id")
	link, err := h.session.ApplicationMailto(id)
	if err != nil {
		h.respond(c, ctx, nil, err)
		return
	}
	result := MailtoResult{Mailto: link}
	if u, ok, _ := h.session.ApplyURL(id); ok {
		result.ApplyURL = u
	}
	h.respond(c, ctx, result, nil)
}

func (h *SessionHandler) respond(c context.Context, ctx *app.RequestContext, result any, err error) {
	status := StatusFor(err)
	resp := Response{Snapshot: h.session.Snapshot(), Result: result}
	if err != nil {
		resp.Error = err.Error()
		tracing.RecordHTTPError(trace.SpanFromContext(c), err, status)
		logger.Ctx(c).Debug().Err(err).Int("status", status).Str("path", string(ctx.Path())).Msg("意图未生效")
	}
	ctx.JSON(status, resp)
}

func (h *SessionHandler) fail(c context.Context, ctx *app.RequestContext, status int, msg string) {
	h.logger.Warn().Int("status", status).Str("path", string(ctx.Path())).Msg(msg)
	ctx.JSON(status, Response{Snapshot: h.session.Snapshot(), Error: msg})
}

// StatusFor 把意图错误映射为 HTTP 状态码
func StatusFor(err error) int {
	switch {
	case err == nil:
		return consts.StatusOK
	case errors.Is(err, session.ErrUnsupportedFile):
		return consts.StatusUnsupportedMediaType
	case errors.Is(err, session.ErrEmptyInput), errors.Is(err, gateway.ErrInvalidInput):
		return consts.StatusBadRequest
	case errors.Is(err, session.ErrBusy),
		errors.Is(err, session.ErrNoAnalysis),
		errors.Is(err, session.ErrUnknownJob),
		errors.Is(err, session.ErrNoMatch),
		errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, session.ErrStale):
		return consts.StatusConflict
	case errors.Is(err, session.ErrNoResults):
		return consts.StatusBadGateway
	}
	var gwErr *gateway.GatewayError
	if errors.As(err, &gwErr) {
		return consts.StatusBadGateway
	}
	return consts.StatusInternalServerError
}

// detectMIMEType 优先使用上传时声明的类型，缺失或为通用二进制类型时根据内容判断
func detectMIMEType(declared string, data []byte) string {
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
			return mt
		}
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}
