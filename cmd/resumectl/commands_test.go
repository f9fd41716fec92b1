package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"resume-extractor/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInitConfigThenCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	_, err := run(t, "init-config", "-o", path)
	require.NoError(t, err)
	_, err = run(t, "init-config", "-o", path)
	assert.Error(t, err, "已有文件不应被覆盖")

	out, err := run(t, "catalog", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Python")
	assert.Contains(t, out, "AWS")
}

func TestExtractLocalTextFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	_, err := run(t, "init-config", "-o", cfgPath)
	require.NoError(t, err)

	resume := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(resume, []byte("Jane Doe jane@example.com 7 years of Java and SQL"), 0644))

	out, err := run(t, "extract", "-c", cfgPath, "--file", resume, "--converter", "plain", "--no-entities")
	require.NoError(t, err)

	var parsed struct {
		Record types.CandidateRecord `json:"record"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed), out)
	assert.Equal(t, "jane@example.com", parsed.Record.Email)
	assert.Equal(t, "7", parsed.Record.ExperienceYears)
	assert.True(t, parsed.Record.Skills.Contains("Java"))
	assert.True(t, parsed.Record.Skills.Contains("SQL"))
}

func TestExtractRequiresFile(t *testing.T) {
	_, err := run(t, "extract")
	assert.Error(t, err)
}

func TestBatchWithoutPersistence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	_, err := run(t, "init-config", "-o", cfgPath)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "inbox"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inbox", "a.txt"), []byte("John Smith john@corp.io 3 years Python"), 0644))

	// 文件来源的基础目录写入配置
	cfgData, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	cfgData = append(cfgData, []byte("\n")...)
	require.NoError(t, os.WriteFile(cfgPath, bytes.Replace(cfgData, []byte("base_dir: ."), []byte("base_dir: "+dir), 1), 0644))

	event := types.NewBatchEvent(types.DocumentRef{Bucket: "inbox", Key: "a.txt"})
	data, err := json.Marshal(event)
	require.NoError(t, err)
	eventPath := filepath.Join(dir, "event.json")
	require.NoError(t, os.WriteFile(eventPath, data, 0644))

	out, err := run(t, "batch", "-c", cfgPath, "--event", eventPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Resume processed successfully!")

	missing := types.NewBatchEvent(types.DocumentRef{Bucket: "inbox", Key: "nope.txt"})
	data, err = json.Marshal(missing)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(eventPath, data, 0644))
	_, err = run(t, "batch", "-c", cfgPath, "--event", eventPath)
	assert.Error(t, err, "批次未全部成功时命令应失败")
}
