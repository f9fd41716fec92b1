package extractor

import (
	"regexp"
	"strings"
)

// defaultSkillNames 未配置技能目录时使用
var defaultSkillNames = []string{
	"AWS", "Python", "Terraform", "Java", "JavaScript", "DevOps", "Kubernetes", "SQL", "Linux",
}

// DefaultSkillNames 返回默认技能目录的副本
func DefaultSkillNames() []string {
	out := make([]string, len(defaultSkillNames))
	copy(out, defaultSkillNames)
	return out
}

type catalogEntry struct {
	name    string
	pattern *regexp.Regexp
}

// SkillCatalog 只读的技能目录，创建时预编译匹配规则，可被并发共享
type SkillCatalog struct {
	entries []catalogEntry
}

// NewSkillCatalog 按给定顺序构建目录，空白项和重复项（忽略大小写）会被跳过
func NewSkillCatalog(names ...string) *SkillCatalog {
	c := &SkillCatalog{}
	seen := make(map[string]bool, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		lower := strings.ToLower(name)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		c.entries = append(c.entries, catalogEntry{
			name:    name,
			pattern: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(name)),
		})
	}
	return c
}

// Names 目录中的技能名，保持原始顺序
func (c *SkillCatalog) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.name)
	}
	return out
}

// Len 目录大小
func (c *SkillCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// DetectSkills 返回在文本中以整词出现的目录技能，顺序与目录一致
func DetectSkills(text string, catalog *SkillCatalog) []string {
	if catalog == nil {
		return nil
	}
	var found []string
	for _, e := range catalog.entries {
		if e.matches(text) {
			found = append(found, e.name)
		}
	}
	return found
}

// matches 不区分大小写的整词匹配，词边界按 Unicode 判断
func (e catalogEntry) matches(text string) bool {
	_, _, ok := findBounded(e.pattern, text, func(start, end int) (int, bool) {
		return end, atWordBoundary(text, end)
	})
	return ok
}
