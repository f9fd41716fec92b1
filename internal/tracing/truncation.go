package tracing

import (
	"strings"
)

// span 属性与日志字段的长度上限
const (
	DefaultMaxLength   = 200
	MaxSQLLength       = 500
	MaxRedisLength     = 100
	MaxObjectKeyLength = 150
	TextSampleLength   = 500
)

// 属性名包含这些片段时值按个人信息处理
var sensitiveKeys = []string{"email", "name", "phone", "姓名", "password", "secret", "token"}

// SafeAttributeValue 属性名像个人信息时返回掩码值，否则截断到 maxLength
func SafeAttributeValue(name string, value string, maxLength int) string {
	lowerName := strings.ToLower(name)
	for _, k := range sensitiveKeys {
		if strings.Contains(lowerName, k) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 保留首尾字符，中间替换为星号
//
//	"Li" -> "L*"  "Ann" -> "A*n"  "jane@example.com" -> "ja************om"
func MaskPII(value string) string {
	runes := []rune(value)
	n := len(runes)
	switch {
	case n == 0:
		return ""
	case n == 1:
		return "*"
	case n == 2:
		return string(runes[0]) + "*"
	case n <= 4:
		return string(runes[0]) + strings.Repeat("*", n-2) + string(runes[n-1])
	}
	return string(runes[:2]) + strings.Repeat("*", n-4) + string(runes[n-2:])
}

// MaskEmail 只掩码本地部分，保留域名便于排查
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return MaskPII(email)
	}
	return MaskPII(email[:at]) + email[at:]
}

// TruncateString 超长时保留首尾，中间以 "..." 代替
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	half := max((maxLength-3)/2, 1)
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

// TextSample 文档文本的开头部分，按字符截断
func TextSample(text string) string {
	runes := []rune(text)
	if len(runes) <= TextSampleLength {
		return text
	}
	return string(runes[:TextSampleLength])
}

func SafeSQL(sql string) string       { return TruncateString(sql, MaxSQLLength) }
func SafeRedisKey(key string) string  { return TruncateString(key, MaxRedisLength) }
func SafeObjectKey(key string) string { return TruncateString(key, MaxObjectKeyLength) }
