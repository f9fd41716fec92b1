package types

import (
	"encoding/json"
	"sort"
	"time"
)

// NotFound 字段无法确定时使用的哨兵值，所有字段缺失时都用它表示而不是空值
const NotFound = "Not found"

// SkillSet 技能集合，成员唯一，顺序无语义
type SkillSet map[string]struct{}

// NewSkillSet 由若干技能名构建集合，空字符串会被忽略
func NewSkillSet(skills ...string) SkillSet {
	set := make(SkillSet, len(skills))
	for _, s := range skills {
		set.Add(s)
	}
	return set
}

// Add 添加一个技能
func (s SkillSet) Add(skill string) {
	if skill == "" {
		return
	}
	s[skill] = struct{}{}
}

// Contains 判断技能是否存在（区分大小写）
func (s SkillSet) Contains(skill string) bool {
	_, ok := s[skill]
	return ok
}

// Len 集合大小
func (s SkillSet) Len() int {
	return len(s)
}

// Union 返回两个集合的并集，不修改原集合
func (s SkillSet) Union(other SkillSet) SkillSet {
	out := make(SkillSet, len(s)+len(other))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

// Equal 判断两个集合成员是否完全一致
func (s SkillSet) Equal(other SkillSet) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}

// IsSentinel 集合是否仅包含哨兵值
func (s SkillSet) IsSentinel() bool {
	return len(s) == 1 && s.Contains(NotFound)
}

// Sorted 按字典序输出，保证序列化结果稳定
func (s SkillSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON 以有序数组形式输出
func (s SkillSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON 从数组读取
func (s *SkillSet) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = NewSkillSet(list...)
	return nil
}

// CandidateRecord 从单份文档提取出的候选人记录
// 每个字段都必须有值，无法确定时为 NotFound；Skills 永不为空
type CandidateRecord struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	ExperienceYears string   `json:"experience_years"`
	Skills          SkillSet `json:"skills"`
}

// Entity 外部实体识别服务返回的单个实体
type Entity struct {
	Label string `json:"label"`
	Type  string `json:"type"`
}

// StoredCandidate 已持久化的候选人记录
type StoredCandidate struct {
	ResumeID string `json:"resume_id"`
	CandidateRecord
	SourceBucket string    `json:"source_bucket,omitempty"`
	SourceKey    string    `json:"source_key,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
