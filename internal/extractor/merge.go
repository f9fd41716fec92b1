package extractor

import "resume-extractor/internal/types"

// DefaultSkillEntityType 识别服务中表示技能的实体类型
const DefaultSkillEntityType = "SKILL"

// SkillLabels 取出类型为 skillType 的实体文本，原样保留
func SkillLabels(entities []types.Entity, skillType string) []string {
	var labels []string
	for _, e := range entities {
		if e.Type == skillType {
			labels = append(labels, e.Label)
		}
	}
	return labels
}

// MergeSkills 合并目录技能和外部技能并去重；都为空时返回只含哨兵值的集合
func MergeSkills(catalogSkills, externalSkills []string) types.SkillSet {
	merged := types.NewSkillSet(catalogSkills...)
	for _, s := range externalSkills {
		merged.Add(s)
	}
	if merged.Len() == 0 {
		return types.NewSkillSet(types.NotFound)
	}
	return merged
}
