package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "无法写入临时配置文件")
	return path
}

// TestLoadConfigOverlaysDefaults 文件中未出现的字段保留默认值
func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
extraction:
  skills: ["Go", "Rust"]
  entity_timeout: "2s"
textsource:
  type: tika
  source: minio
  bucket: uploads
processor:
  concurrency: 8
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Go", "Rust"}, cfg.Extraction.Skills)
	assert.Equal(t, 2*time.Second, GetDuration(cfg.Extraction.EntityTimeout, time.Second))
	assert.Equal(t, "tika", cfg.TextSource.Type)
	assert.Equal(t, "uploads", cfg.TextSource.Bucket)
	assert.Equal(t, 8, cfg.Processor.Concurrency)

	assert.Equal(t, ":8080", cfg.Server.Address, "未配置时使用默认地址")
	assert.Equal(t, "SKILL", cfg.Extraction.SkillEntityType)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "http://localhost:9998", cfg.TextSource.Tika.ServerURL)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("RESUME_API_KEY", "key-from-env")

	cfg, err := LoadConfig(writeConfig(t, "aws:\n  region: us-east-2\n"))
	require.NoError(t, err)

	assert.Equal(t, "eu-west-1", cfg.AWS.Region, "环境变量优先于文件")
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Contains(t, cfg.Server.APIKeys, "key-from-env")
}

func TestLoadConfigValidation(t *testing.T) {
	cases := map[string]string{
		"未知文本来源":   "textsource:\n  type: ocr\n",
		"未知识别服务":   "entity:\n  type: spacy\n",
		"未知数据库驱动":  "database:\n  driver: oracle\n",
		"并发数为0":    "processor:\n  concurrency: 0\n",
		"启用追踪但无端点": "tracing:\n  enabled: true\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "指定的文件不存在时应返回错误")

	_, err = LoadConfig(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err, "YAML语法错误应返回错误")
}

func TestCreateSampleConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	require.NoError(t, CreateSampleConfig(path))
	assert.Error(t, CreateSampleConfig(path), "不应覆盖已有文件")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, createDefaultConfig().Processor, cfg.Processor)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, GetDuration("3s", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("soon", time.Minute))
}

func TestShippedConfigIsValid(t *testing.T) {
	cfg, err := LoadConfig("config.yaml")
	require.NoError(t, err, "仓库中的示例配置应能通过校验")
	assert.Equal(t, "tika", cfg.TextSource.Type)
	assert.Equal(t, "comprehend", cfg.Entity.Type)
	assert.True(t, cfg.Outbox.Enabled)
}
