package extractor

import (
	"regexp"
	"strings"
	"unicode"

	"resume-extractor/internal/types"
)

var (
	// 首个连续的首字母大写单词序列，两端的词边界由 findBounded 按 Unicode 检查
	namePattern = regexp.MustCompile(`[A-Z][a-z]+(?:\s[A-Z][a-z]+)*`)
	// 不锚定，整段文本中查找
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	// 数字 + 可选空白 + year/yr/years，不区分大小写
	experiencePattern = regexp.MustCompile(`(?i)(\d+)\s*(?:year|yr|years)`)
)

// ExtractName 返回文本中第一段首字母大写的单词序列。
// 这是启发式规则：标题、公司名出现在姓名之前时会被优先匹配。
//
// 末尾单词紧跟其他字母时（如 "José"）回退到前一个单词；只有一个单词时放弃这一段，
// 从下一个大写字母继续找。
func ExtractName(text string) string {
	start, end, ok := findBounded(namePattern, text, func(start, end int) (int, bool) {
		if atWordBoundary(text, end) {
			return end, true
		}
		// 单词之间是空白，前一个单词的末尾一定是词边界
		if i := strings.LastIndexFunc(text[start:end], unicode.IsSpace); i > 0 {
			return start + i, true
		}
		return 0, false
	})
	if !ok {
		return types.NotFound
	}
	name := strings.TrimSpace(text[start:end])
	if name == "" {
		return types.NotFound
	}
	return name
}

// ExtractEmail 返回第一个邮箱地址
func ExtractEmail(text string) string {
	if m := emailPattern.FindString(text); m != "" {
		return m
	}
	return types.NotFound
}

// ExtractExperience 返回第一处工作年限的数字部分，不做范围校验
func ExtractExperience(text string) string {
	m := experiencePattern.FindStringSubmatch(text)
	if m == nil {
		return types.NotFound
	}
	return m[1]
}
