package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrNoJSON 模型输出中找不到 JSON
var ErrNoJSON = errors.New("no JSON found in model output")

// CleanModelText 去掉 BOM、首尾空白以及 markdown 代码块围栏
func CleanModelText(text string) string {
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	// ```json ... ``` 或 ``` ... ```
	if nl := strings.Index(text, "\n"); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// ExtractJSON 从文本中提取第一个完整的 JSON 对象或数组，括号配对时跳过字符串字面量
func ExtractJSON(text string) string {
	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return ""
	}
	return extractBalanced(text, start)
}

// ExtractJSONObject 只提取 JSON 对象，对象之前正文里的 [1] 之类的方括号不会被当作 JSON
func ExtractJSONObject(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	return extractBalanced(text, start)
}

// ExtractJSONArray 只提取 JSON 数组
func ExtractJSONArray(text string) string {
	start := strings.Index(text, "[")
	if start == -1 {
		return ""
	}
	return extractBalanced(text, start)
}

func extractBalanced(text string, start int) string {
	level := 0
	inStr := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{', '[':
			level++
		case '}', ']':
			level--
			if level == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// DecodeModelJSON 把模型输出中的 JSON 对象解析到 v，没有对象时退回到第一个数组
// 先清理围栏和 BOM，解析失败时用 SanitizeJSON 修复未转义的引号再试一次
func DecodeModelJSON(text string, v any) error {
	cleaned := CleanModelText(text)
	jsonStr := ExtractJSONObject(cleaned)
	if jsonStr == "" {
		jsonStr = ExtractJSON(cleaned)
	}
	if jsonStr == "" {
		return ErrNoJSON
	}
	return decodeWithRepair(jsonStr, v)
}

// DecodeModelJSONArray 同 DecodeModelJSON，但只接受数组
func DecodeModelJSONArray(text string, v any) error {
	jsonStr := ExtractJSONArray(CleanModelText(text))
	if jsonStr == "" {
		return ErrNoJSON
	}
	return decodeWithRepair(jsonStr, v)
}

func decodeWithRepair(jsonStr string, v any) error {
	if !utf8.ValidString(jsonStr) {
		jsonStr = strings.ToValidUTF8(jsonStr, "")
	}
	err := json.Unmarshal([]byte(jsonStr), v)
	if err == nil {
		return nil
	}
	// 解析失败 -> 自动修复再试一次
	if fixErr := json.Unmarshal([]byte(SanitizeJSON(jsonStr)), v); fixErr != nil {
		return fmt.Errorf("failed to unmarshal model JSON after sanitization: %w (sanitize: %v)", err, fixErr)
	}
	return nil
}

// SanitizeJSON 将字符串字面量内部未转义的双引号改写为 \"
// 一个 " 之后的下一个非空白字符是 : , ] } 之一时，才认为它是字符串的结束
func SanitizeJSON(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	inStr := false
	escaped := false

	for i := 0; i < len(src); i++ {
		c := src[i]

		switch {
		case c == '"' && !escaped:
			if !inStr {
				inStr = true
				b.WriteByte(c)
				break
			}
			j := i + 1
			for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r') {
				j++
			}
			if j >= len(src) || src[j] == ':' || src[j] == ',' || src[j] == ']' || src[j] == '}' {
				inStr = false
				b.WriteByte(c)
			} else {
				b.WriteString("\\\"")
			}
		case c == '\\' && !escaped:
			escaped = true
			b.WriteByte(c)
			continue
		case inStr && (c == '\n' || c == '\r'):
			// 字符串中的裸换行也会导致解析失败
			if c == '\n' {
				b.WriteString("\\n")
			}
		default:
			b.WriteByte(c)
		}
		escaped = false
	}

	return b.String()
}
