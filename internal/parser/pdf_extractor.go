package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"
)

// defaultExtractTimeout 单次解析的超时时间
const defaultExtractTimeout = 30 * time.Second

// TextExtractor 从上传的文档中提取纯文本
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, name string) (string, error)
}

// PDFTextExtractor 使用 Eino PDF Parser 提取文本，供不支持文件输入的模型后端使用
type PDFTextExtractor struct {
	parser  *pdf.PDFParser
	logger  zerolog.Logger
	timeout time.Duration
}

// PDFOption 提取器配置选项
type PDFOption func(*PDFTextExtractor)

// WithPDFLogger 自定义日志
func WithPDFLogger(logger zerolog.Logger) PDFOption {
	return func(e *PDFTextExtractor) {
		e.logger = logger
	}
}

// WithPDFTimeout 自定义超时
func WithPDFTimeout(d time.Duration) PDFOption {
	return func(e *PDFTextExtractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewPDFTextExtractor 创建提取器，不按页面分割，整个文档作为一段连续文本
func NewPDFTextExtractor(ctx context.Context, options ...PDFOption) (*PDFTextExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("failed to create Eino PDF parser: %w", err)
	}

	extractor := &PDFTextExtractor{
		parser:  p,
		logger:  zerolog.Nop(),
		timeout: defaultExtractTimeout,
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor, nil
}

// ExtractText 从 PDF 字节中提取全部文本
func (e *PDFTextExtractor) ExtractText(ctx context.Context, data []byte, name string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("PDF 内容为空: %s", name)
	}

	startTime := time.Now()
	e.logger.Debug().Str("file", name).Int("bytes", len(data)).Msg("开始提取PDF文本")

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	docs, err := e.parser.Parse(ctx, bytes.NewReader(data),
		einoParser.WithURI(name),
		einoParser.WithExtraMeta(map[string]any{"source_name": name}),
	)
	duration := time.Since(startTime)
	if err != nil {
		e.logger.Warn().Err(err).Str("file", name).Dur("duration", duration).Msg("PDF解析失败")
		return "", fmt.Errorf("eino PDF parser failed for %s: %w", name, err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("eino PDF parser returned no documents for %s", name)
	}

	// 合并所有文档的内容（以防返回了多个）
	contents := make([]string, 0, len(docs))
	for _, doc := range docs {
		if c := strings.TrimSpace(doc.Content); c != "" {
			contents = append(contents, c)
		}
	}
	text := strings.Join(contents, "\n\n")
	if text == "" {
		return "", fmt.Errorf("PDF 中没有可提取的文本: %s", name)
	}

	e.logger.Debug().Str("file", name).Int("chars", len(text)).Dur("duration", duration).Msg("PDF文本提取完成")
	return text, nil
}

var _ TextExtractor = (*PDFTextExtractor)(nil)
