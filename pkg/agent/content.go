package agent

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// DataURI 把二进制内容编码为 data URI
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI 解析 base64 形式的 data URI
func ParseDataURI(uri string) (string, []byte, error) {
	if !strings.HasPrefix(uri, "data:") {
		return "", nil, fmt.Errorf("不是 data URI")
	}
	header, payload, ok := strings.Cut(uri[len("data:"):], ",")
	if !ok {
		return "", nil, fmt.Errorf("data URI 缺少数据段")
	}
	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("仅支持 base64 编码的 data URI")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("解码 data URI 失败: %w", err)
	}
	return mimeType, data, nil
}

// NewDocumentPart 构造携带文档内容的消息片段，图片走 image_url，其余走 file_url
func NewDocumentPart(data []byte, mimeType, name string) schema.ChatMessagePart {
	uri := DataURI(mimeType, data)
	if strings.HasPrefix(mimeType, "image/") {
		return schema.ChatMessagePart{
			Type: schema.ChatMessagePartTypeImageURL,
			ImageURL: &schema.ChatMessageImageURL{
				URL:      uri,
				MIMEType: mimeType,
			},
		}
	}
	return schema.ChatMessagePart{
		Type: schema.ChatMessagePartTypeFileURL,
		FileURL: &schema.ChatMessageFileURL{
			URL:      uri,
			MIMEType: mimeType,
			Name:     name,
		},
	}
}

// NewTextPart 文本片段
func NewTextPart(text string) schema.ChatMessagePart {
	return schema.ChatMessagePart{Type: schema.ChatMessagePartTypeText, Text: text}
}

// MessageText 取出消息中的全部文本（Content 与文本片段）
func MessageText(msg *schema.Message) string {
	if msg == nil {
		return ""
	}
	if len(msg.MultiContent) == 0 {
		return msg.Content
	}
	var sb strings.Builder
	if msg.Content != "" {
		sb.WriteString(msg.Content)
	}
	for _, p := range msg.MultiContent {
		if p.Type != schema.ChatMessagePartTypeText || p.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}
