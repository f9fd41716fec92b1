package extractor

import (
	"testing"

	"resume-extractor/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestExtractExperience(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"带空格的years", "I have 5 years of experience", "5"},
		{"紧挨着的yr", "over 3yr in backend work", "3"},
		{"大小写不敏感", "10 Years Of Experience", "10"},
		{"单数year", "1 year at startup", "1"},
		{"只取第一处", "2 years at A, then 7 years at B", "2"},
		{"不做范围校验", "9999 years", "9999"},
		{"月份不匹配", "18 months in total", types.NotFound},
		{"有数字但无年限", "Phone 555 1234, room 42", types.NotFound},
		{"没有数字", "many years of experience", types.NotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractExperience(tc.text))
		})
	}
}

func TestExtractEmail(t *testing.T) {
	assert.Equal(t, "jane.doe@example.com", ExtractEmail("contact: jane.doe@example.com please"))
	assert.Equal(t, "first@a.io", ExtractEmail("first@a.io or second@b.org"), "多个邮箱时只取从左到右的第一个")
	assert.Equal(t, "x+tag@mail.example.co", ExtractEmail("mail x+tag@mail.example.co now"))
	assert.Equal(t, types.NotFound, ExtractEmail("no address here @ all"))
	assert.Equal(t, types.NotFound, ExtractEmail("user@localhost"), "顶级域名缺失时不匹配")
}

func TestExtractName(t *testing.T) {
	assert.Equal(t, "John Smith", ExtractName("resume of John Smith, engineer"))
	assert.Equal(t, types.NotFound, ExtractName("all lower case 123"), "没有首字母大写单词时返回哨兵值")
	assert.Equal(t, types.NotFound, ExtractName("ALL CAPS HEADER"), "全大写单词不算")
	assert.Equal(t, types.NotFound, ExtractName(""))
}

// 第一段匹配胜出：出现在姓名前的标题会被当作姓名
func TestExtractNameFirstRunWins(t *testing.T) {
	assert.Equal(t, "Report Summary", ExtractName("Report Summary: John Smith worked"))
	assert.Equal(t, "Report Summary John Smith", ExtractName("Report Summary John Smith worked"),
		"空白连接的首字母大写单词属于同一段")
	assert.NotEqual(t, "John Smith", ExtractName("Curriculum Vitae - John Smith"))
}

func TestDetectSkillsWholeWordCaseInsensitive(t *testing.T) {
	catalog := NewSkillCatalog(DefaultSkillNames()...)
	text := "Experienced in aws, PYTHON and kubernetes; wrote javascript and MySQL queries"

	got := DetectSkills(text, catalog)
	assert.Equal(t, []string{"AWS", "Python", "JavaScript", "Kubernetes"}, got,
		"应保持目录顺序，且 java/SQL 不能在 javascript/MySQL 中命中")
}

func TestDetectSkillsAlternateCatalog(t *testing.T) {
	catalog := NewSkillCatalog("Go", "Rust", " ", "go")
	assert.Equal(t, []string{"Go", "Rust"}, catalog.Names(), "空白项和重复项应被忽略")
	assert.Equal(t, []string{"Go"}, DetectSkills("we use Go and gopher tools", catalog))
	assert.Empty(t, DetectSkills("anything", nil))
}

func TestMergeSkills(t *testing.T) {
	catalogSkills := []string{"AWS", "Python"}
	external := []string{"Kubernetes"}

	a := MergeSkills(catalogSkills, external)
	b := MergeSkills(external, catalogSkills)
	assert.True(t, a.Equal(types.NewSkillSet("AWS", "Python", "Kubernetes")))
	assert.True(t, a.Equal(b), "合并结果与来源顺序无关")

	again := MergeSkills(append(catalogSkills, catalogSkills...), append(external, external...))
	assert.True(t, a.Equal(again), "重复输入不改变结果")

	empty := MergeSkills(nil, nil)
	assert.True(t, empty.IsSentinel(), "两个来源都为空时返回哨兵集合")
	assert.Equal(t, 1, empty.Len())
}

func TestSkillLabelsKeepsVerbatim(t *testing.T) {
	entities := []types.Entity{
		{Label: "kubernetes", Type: "SKILL"},
		{Label: "Amazon", Type: "ORGANIZATION"},
		{Label: "Terraform Cloud", Type: "SKILL"},
		{Label: "python", Type: "skill"},
	}
	assert.Equal(t, []string{"kubernetes", "Terraform Cloud"}, SkillLabels(entities, "SKILL"))
}

// 词边界按 Unicode 判断：紧贴非 ASCII 字母的片段不算完整单词
func TestExtractNameUnicodeWordBoundary(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"José Garcia senior engineer", "Garcia"},
		{"Zoë Smith", "Smith"},
		{"résumé of André Lee", "Lee"},
		{"John Smithé wrote this", "John"},
		{"éJohn Smith", "Smith"},
		{"Ãnna", types.NotFound},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractName(tc.text))
		})
	}
}

func TestDetectSkillsUnicodeWordBoundary(t *testing.T) {
	catalog := NewSkillCatalog(DefaultSkillNames()...)
	assert.Equal(t, []string{"Linux"}, DetectSkills("AWSé and Pythonñ, naïve Linux", catalog),
		"紧贴非 ASCII 字母的技能名不算整词")
	assert.Equal(t, []string{"AWS"}, DetectSkills("AWSé, later plain AWS", catalog), "后面的完整出现仍应命中")
	assert.Equal(t, []string{"SQL"}, DetectSkills("数据库：SQL。", catalog), "中文标点两侧是词边界")
}

func TestDetectSkillsNonWordEdges(t *testing.T) {
	catalog := NewSkillCatalog("C++", ".NET")
	assert.Equal(t, []string{"C++"}, DetectSkills("C++x", catalog), "与正则 \\b 一致：符号结尾的技能后面须接单词字符")
	assert.Equal(t, []string{".NET"}, DetectSkills("C++ and a.NET", catalog), "符号开头的技能前面须接单词字符")
}
