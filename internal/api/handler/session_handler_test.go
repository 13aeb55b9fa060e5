package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobhunt-ai/internal/api/handler"
	"jobhunt-ai/internal/api/router"
	"jobhunt-ai/internal/gateway"
	"jobhunt-ai/internal/session"
	"jobhunt-ai/internal/types"
	"jobhunt-ai/pkg/agent"
)

const (
	analysisJSON = `{"summary":"Go dev","skills":["Go","SQL","gRPC"],"experienceLevel":"Mid","atsScore":82,"atsIssues":[],"improvementAreas":["Metrics"],"suggestedRoles":["Backend Engineer"]}`
	matchJSON    = `{"matchScore":71,"missingSkills":["Kafka"],"strengths":["Go","SQL"],"reasoning":"Solid overlap.","coverLetter":"Dear team,","coldEmail":"Subject: Backend role"}`
	testPDF      = "%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"
)

// scriptedModel 按调用选项返回脚本响应：搜索增强始终返回权限错误
func scriptedModel() *agent.MockChatClient {
	return agent.NewMockChatClientFunc(func(ctx context.Context, call agent.MockCall) (string, error) {
		switch {
		case call.Options.GoogleSearch:
			return "", &agent.ServiceError{Provider: "gemini", StatusCode: 403, Status: "PERMISSION_DENIED", Message: "search grounding disabled"}
		case call.Options.JSONResponse && len(call.Messages) > 0 && len(call.Messages[0].MultiContent) > 0:
			return analysisJSON, nil
		case call.Options.JSONResponse:
			return matchJSON, nil
		default:
			return `"Hi! Your Go team looks great, would love to connect."`, nil
		}
	})
}

func newTestEngine(t *testing.T, opts ...handler.Option) (*server.Hertz, *agent.MockChatClient) {
	t.Helper()
	mock := scriptedModel()
	client, err := gateway.NewClient(mock)
	require.NoError(t, err)

	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	sh := handler.NewSessionHandler(session.New(client), opts...)
	router.RegisterRoutes(h, sh, router.Options{MetricsEnabled: true})
	return h, mock
}

// createMultipartFormWithContent 通过字节内容创建 multipart 表单，contentType 为空时使用默认的 octet-stream
func createMultipartFormWithContent(t *testing.T, fileName, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func doJSON(h *server.Hertz, method, path string, payload any) *ut.ResponseRecorder {
	var body *ut.Body
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = &ut.Body{Body: bytes.NewReader(data), Len: len(data)}
	}
	return ut.PerformRequest(h.Engine, method, path, body,
		ut.Header{Key: "Content-Type", Value: "application/json"},
	)
}

func upload(t *testing.T, h *server.Hertz, name, contentType string, content []byte) *ut.ResponseRecorder {
	t.Helper()
	body, ct := createMultipartFormWithContent(t, name, contentType, content)
	return ut.PerformRequest(h.Engine, "POST", "/api/v1/resume",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: ct},
	)
}

func decode(t *testing.T, resp *ut.ResponseRecorder) handler.Response {
	t.Helper()
	var out handler.Response
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out), resp.Body.String())
	return out
}

func TestHealthAndInitialSession(t *testing.T) {
	h, _ := newTestEngine(t)

	resp := ut.PerformRequest(h.Engine, "GET", "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NotEmpty(t, resp.Header().Get(handler.RequestIDHeader))

	resp = ut.PerformRequest(h.Engine, "GET", "/api/v1/session", nil,
		ut.Header{Key: handler.RequestIDHeader, Value: "req-123"},
	)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "req-123", resp.Header().Get(handler.RequestIDHeader))
	out := decode(t, resp)
	assert.Equal(t, types.ViewUpload, out.Snapshot.View)
	assert.Nil(t, out.Snapshot.Error)
}

func TestUploadResume(t *testing.T) {
	h, mock := newTestEngine(t)

	resp := upload(t, h, "cv.pdf", "", []byte(testPDF))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	out := decode(t, resp)
	assert.Equal(t, types.ViewDashboard, out.Snapshot.View)
	require.NotNil(t, out.Snapshot.Analysis)
	assert.Equal(t, 82, out.Snapshot.Analysis.ATSScore)
	require.NotNil(t, out.Snapshot.ResumeFile)
	assert.Equal(t, "application/pdf", out.Snapshot.ResumeFile.MIMEType, "octet-stream 时按内容识别类型")
	assert.Equal(t, 1, mock.CallCount())
}

func TestUploadRejectsBadFiles(t *testing.T) {
	h, mock := newTestEngine(t, handler.WithMaxUploadBytes(64))

	resp := upload(t, h, "notes.txt", "text/plain; charset=utf-8", []byte("plain text resume"))
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.Code)
	out := decode(t, resp)
	require.NotNil(t, out.Snapshot.Error)
	assert.Equal(t, "Please upload a PDF or Image file.", *out.Snapshot.Error)

	resp = upload(t, h, "big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 65))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)

	resp = doJSON(h, "POST", "/api/v1/resume", map[string]string{"file": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, 0, mock.CallCount())
}

func TestNavigateGuards(t *testing.T) {
	h, _ := newTestEngine(t)

	resp := doJSON(h, "POST", "/api/v1/navigate", handler.NavigateRequest{View: "job_details"})
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, types.ViewUpload, decode(t, resp).Snapshot.View)

	resp = doJSON(h, "POST", "/api/v1/navigate", handler.NavigateRequest{View: "settings"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = doJSON(h, "POST", "/api/v1/navigate", handler.NavigateRequest{View: "home"})
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, types.ViewUpload, decode(t, resp).Snapshot.View)

	resp = doJSON(h, "POST", "/api/v1/profile/sync", handler.SyncProfileRequest{Input: "https://linkedin.com/in/someone"})
	assert.Equal(t, http.StatusConflict, resp.Code, "没有分析结果时不能同步")
}

func TestSearchSelectAndApplicationKit(t *testing.T) {
	h, mock := newTestEngine(t)
	require.Equal(t, http.StatusOK, upload(t, h, "cv.pdf", "application/pdf", []byte(testPDF)).Code)

	resp := doJSON(h, "POST", "/api/v1/jobs/search", handler.SearchJobsRequest{Query: "  "})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = doJSON(h, "POST", "/api/v1/jobs/search", handler.SearchJobsRequest{Query: "Backend Engineer", Location: "Remote", Type: types.JobTypeFullTime})
	require.Equal(t, http.StatusOK, resp.Code)
	out := decode(t, resp)
	require.Len(t, out.Snapshot.Jobs, 3)
	assert.Equal(t, "mock-1", out.Snapshot.Jobs[0].ID)
	assert.Nil(t, out.Snapshot.Error, "搜索降级不显示错误")

	resp = doJSON(h, "POST", "/api/v1/jobs/unknown/select", nil)
	assert.Equal(t, http.StatusConflict, resp.Code)

	before := mock.CallCount()
	resp = doJSON(h, "POST", "/api/v1/jobs/mock-1/select", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	out = decode(t, resp)
	assert.Equal(t, types.ViewJobDetails, out.Snapshot.View)
	require.Contains(t, out.Snapshot.Matches, "mock-1")
	assert.Equal(t, 71, out.Snapshot.Matches["mock-1"].MatchScore)
	assert.Equal(t, before+1, mock.CallCount())

	resp = doJSON(h, "POST", "/api/v1/jobs/mock-1/select", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, before+1, mock.CallCount(), "缓存命中不调用模型")

	resp = doJSON(h, "PUT", "/api/v1/jobs/mock-1/cover-letter", handler.CoverLetterRequest{CoverLetter: "Dear Tech Corp, hello"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Dear Tech Corp, hello", decode(t, resp).Snapshot.Matches["mock-1"].CoverLetter)

	resp = ut.PerformRequest(h.Engine, "GET", "/api/v1/jobs/mock-1/mailto", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var mailto struct {
		Result handler.MailtoResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &mailto))
	assert.True(t, strings.HasPrefix(mailto.Result.Mailto, "mailto:?subject=Application%20for%20"))
	assert.Contains(t, mailto.Result.Mailto, "&body=Dear%20Tech%20Corp%2C%20hello")

	resp = doJSON(h, "POST", "/api/v1/jobs/mock-1/connection-note", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	out = decode(t, resp)
	assert.Equal(t, "Hi! Your Go team looks great, would love to connect.", out.Snapshot.ConnectionNotes["mock-1"])

	resp = doJSON(h, "POST", "/api/v1/jobs/mock-2/connection-note", nil)
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = doJSON(h, "POST", "/api/v1/navigate", handler.NavigateRequest{View: "dashboard"})
	require.Equal(t, http.StatusOK, resp.Code)
	resp = doJSON(h, "POST", "/api/v1/navigate", handler.NavigateRequest{View: "JOB_DETAILS"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, types.ViewJobDetails, decode(t, resp).Snapshot.View)
}

func TestDismissError(t *testing.T) {
	h, _ := newTestEngine(t)
	upload(t, h, "notes.txt", "text/plain", []byte("hello"))

	resp := doJSON(h, "DELETE", "/api/v1/error", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Nil(t, decode(t, resp).Snapshot.Error)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestEngine(t)
	ut.PerformRequest(h.Engine, "GET", "/api/v1/health", nil)

	resp := ut.PerformRequest(h.Engine, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "jobhunt_http_requests_total")
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{session.ErrUnsupportedFile, http.StatusUnsupportedMediaType},
		{session.ErrEmptyInput, http.StatusBadRequest},
		{&gateway.GatewayError{Kind: gateway.KindInvalidInput}, http.StatusBadRequest},
		{session.ErrBusy, http.StatusConflict},
		{session.ErrNoAnalysis, http.StatusConflict},
		{session.ErrInvalidTransition, http.StatusConflict},
		{session.ErrStale, http.StatusConflict},
		{session.ErrNoResults, http.StatusBadGateway},
		{&gateway.GatewayError{Kind: gateway.KindRateLimited}, http.StatusBadGateway},
		{fmt.Errorf("wrapped: %w", &gateway.GatewayError{Kind: gateway.KindMalformedResponse}), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, handler.StatusFor(tc.err), "%v", tc.err)
	}
}
