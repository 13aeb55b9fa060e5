package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURIRoundTrip(t *testing.T) {
	data := []byte("%PDF-1.4 fake")
	uri := DataURI("application/pdf", data)
	assert.Contains(t, uri, "data:application/pdf;base64,")

	mt, back, err := ParseDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", mt)
	assert.Equal(t, data, back)

	_, _, err = ParseDataURI("https://example.com/a.pdf")
	assert.Error(t, err, "远程 URL 不是 data URI")
	_, _, err = ParseDataURI("data:text/plain,hello")
	assert.Error(t, err, "非 base64 编码应报错")
}

func TestNewDocumentPart(t *testing.T) {
	img := NewDocumentPart([]byte{1, 2, 3}, "image/png", "cv.png")
	assert.Equal(t, schema.ChatMessagePartTypeImageURL, img.Type)
	require.NotNil(t, img.ImageURL)
	assert.Equal(t, "image/png", img.ImageURL.MIMEType)

	pdf := NewDocumentPart([]byte("%PDF"), "application/pdf", "cv.pdf")
	assert.Equal(t, schema.ChatMessagePartTypeFileURL, pdf.Type)
	require.NotNil(t, pdf.FileURL)
	assert.Equal(t, "cv.pdf", pdf.FileURL.Name)
}

func TestMessageText(t *testing.T) {
	msg := &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			NewDocumentPart([]byte("x"), "application/pdf", "a.pdf"),
			NewTextPart("analyze this"),
		},
	}
	assert.Equal(t, "analyze this", MessageText(msg))
	assert.Equal(t, "plain", MessageText(schema.UserMessage("plain")))
	assert.Equal(t, "", MessageText(nil))
}

func TestGenerateOptions(t *testing.T) {
	o := GetGenerateOptions(WithJSONResponse())
	assert.True(t, o.JSONResponse)
	assert.False(t, o.GoogleSearch)

	o = GetGenerateOptions(WithGoogleSearch(), model.WithTemperature(0.2))
	assert.True(t, o.GoogleSearch)
}

func TestMockChatClientSequential(t *testing.T) {
	m := NewMockChatClientSequential(
		MockResponse{Content: "first"},
		MockResponse{Error: errors.New("boom")},
	)
	ctx := context.Background()

	out, err := m.Generate(ctx, []*schema.Message{schema.UserMessage("a")}, WithJSONResponse())
	require.NoError(t, err)
	assert.Equal(t, "first", out.Content)
	assert.True(t, m.Call(0).Options.JSONResponse, "应记录调用选项")

	_, err = m.Generate(ctx, []*schema.Message{schema.UserMessage("b")})
	assert.EqualError(t, err, "boom")

	_, err = m.Generate(ctx, []*schema.Message{schema.UserMessage("c")})
	assert.Error(t, err, "脚本耗尽后应报错")
	assert.Equal(t, 3, m.CallCount())
	assert.Equal(t, "c", m.LastPrompt())
}

func TestOpenAICompatChatModelGenerate(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","model":"qwen-plus","choices":[{"index":0,"message":{"role":"assistant","content":"{\"ok\":true}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	m, err := NewOpenAICompatChatModel("test-key", "", srv.URL)
	require.NoError(t, err)

	out, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("sys"),
		{Role: schema.User, MultiContent: []schema.ChatMessagePart{
			NewDocumentPart([]byte{1}, "image/png", "cv.png"),
			NewTextPart("analyze"),
		}},
	}, WithJSONResponse())
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out.Content)

	assert.Equal(t, "qwen-plus", captured["model"])
	assert.Equal(t, map[string]interface{}{"type": "json_object"}, captured["response_format"])
	msgs := captured["messages"].([]interface{})
	require.Len(t, msgs, 2)
	parts := msgs[1].(map[string]interface{})["content"].([]interface{})
	assert.Equal(t, "image_url", parts[0].(map[string]interface{})["type"])
}

func TestOpenAICompatChatModelErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	m, err := NewOpenAICompatChatModel("k", "m", srv.URL)
	require.NoError(t, err)

	_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, http.StatusTooManyRequests, svcErr.StatusCode)
	assert.Equal(t, "RESOURCE_EXHAUSTED", svcErr.Status)
	assert.Equal(t, "quota exceeded", svcErr.Message)

	_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")}, WithGoogleSearch())
	assert.ErrorIs(t, err, ErrGroundingUnsupported, "OpenAI 兼容后端不支持搜索增强")

	_, err = m.Generate(context.Background(), []*schema.Message{{Role: schema.User, MultiContent: []schema.ChatMessagePart{
		NewDocumentPart([]byte("%PDF"), "application/pdf", "cv.pdf"),
	}}})
	assert.ErrorIs(t, err, ErrUnsupportedContent, "PDF 需先抽取文本")

	_, err = NewOpenAICompatChatModel(" ", "", "")
	assert.Error(t, err)
}

func TestGeminiWithToolsRejectsUnknownTools(t *testing.T) {
	g := &GeminiChatModel{modelName: "gemini-2.5-flash"}
	bound, err := g.WithTools([]*schema.ToolInfo{GoogleSearchTool()})
	require.NoError(t, err)
	assert.True(t, bound.(*GeminiChatModel).googleSearch)
	assert.False(t, g.googleSearch, "WithTools 不应修改原实例")

	_, err = g.WithTools([]*schema.ToolInfo{{Name: "get_weather"}})
	assert.Error(t, err)
}

func TestToGenAIContents(t *testing.T) {
	contents, system, err := toGenAIContents([]*schema.Message{
		schema.SystemMessage("be strict"),
		{Role: schema.User, MultiContent: []schema.ChatMessagePart{
			NewDocumentPart([]byte("%PDF"), "application/pdf", "cv.pdf"),
			NewTextPart("analyze"),
		}},
	})
	require.NoError(t, err)
	require.NotNil(t, system)
	assert.Equal(t, "be strict", system.Parts[0].Text)
	require.Len(t, contents, 1)
	assert.Equal(t, "user", contents[0].Role)
	require.Len(t, contents[0].Parts, 2)
	require.NotNil(t, contents[0].Parts[0].InlineData)
	assert.Equal(t, "application/pdf", contents[0].Parts[0].InlineData.MIMEType)
	assert.Equal(t, []byte("%PDF"), contents[0].Parts[0].InlineData.Data)
	assert.Equal(t, "analyze", contents[0].Parts[1].Text)

	_, _, err = toGenAIContents([]*schema.Message{{Role: schema.User, MultiContent: []schema.ChatMessagePart{{
		Type:     schema.ChatMessagePartTypeImageURL,
		ImageURL: &schema.ChatMessageImageURL{URL: "https://example.com/cv.png"},
	}}}})
	assert.ErrorIs(t, err, ErrUnsupportedContent)
}
