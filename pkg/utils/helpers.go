package utils

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
)

// StringPtr 返回字符串的指针
func StringPtr(s string) *string {
	return &s
}

// CalculateMD5 computes the MD5 hash of a byte slice.
func CalculateMD5(data []byte) string {
	hasher := md5.New()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}

// EncodeURIComponent 与浏览器 encodeURIComponent 的编码结果一致
// 空格编码为 %20，保留 A-Z a-z 0-9 - _ . ! ~ * ' ( )
func EncodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")
	r := strings.NewReplacer("%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*", "%7E", "~")
	return r.Replace(escaped)
}

// MailtoURL 构造不带收件人的 mailto 链接
func MailtoURL(subject, body string) string {
	return "mailto:?subject=" + EncodeURIComponent(subject) + "&body=" + EncodeURIComponent(body)
}
