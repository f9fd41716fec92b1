package extractor

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// RE2 的 \b 只认 ASCII 单词字符，这里按 Unicode 重新判断词边界

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// atWordBoundary 报告 text[i] 两侧是否一侧为单词字符、另一侧不是
func atWordBoundary(text string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:i])
		before = isWordRune(r)
	}
	if i < len(text) {
		r, _ := utf8.DecodeRuneInString(text[i:])
		after = isWordRune(r)
	}
	return before != after
}

// findBounded 从左到右查找首个两端都落在词边界上的匹配。
// 被拒绝的匹配从其起点后一个字符继续查找，不会漏掉重叠的候选。
func findBounded(re *regexp.Regexp, text string, accept func(start, end int) (int, bool)) (int, int, bool) {
	for from := 0; from <= len(text); {
		loc := re.FindStringIndex(text[from:])
		if loc == nil {
			return 0, 0, false
		}
		start, end := from+loc[0], from+loc[1]
		if atWordBoundary(text, start) {
			if e, ok := accept(start, end); ok {
				return start, e, true
			}
		}
		if start == len(text) {
			return 0, 0, false
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		from = start + size
	}
	return 0, 0, false
}
