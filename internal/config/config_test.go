package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlblack/sad-sandbox-sub000/store"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, StorageFile, cfg.Storage.Type)
	assert.Equal(t, store.DefaultKey, cfg.Storage.Key)
	assert.NotEmpty(t, cfg.Storage.File.Dir)
	assert.True(t, cfg.Defaults.IncludePeakFlowFrequency)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "plotstyle.yaml", `
log:
  level: debug
  format: json
storage:
  type: redis
  redis:
    addr: redis:6379
    db: 2
defaults:
  include_peak_flow_frequency: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, StorageRedis, cfg.Storage.Type)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 2, cfg.Storage.Redis.DB)
	assert.Equal(t, store.DefaultKey, cfg.Storage.Key, "unset fields keep their defaults")
	assert.False(t, cfg.Defaults.IncludePeakFlowFrequency)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "plotstyle.json", `{
  "storage": {"type": "s3", "s3": {"bucket": "styles", "force_path_style": true}}
}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "styles", cfg.Storage.S3.Bucket)
	assert.True(t, cfg.Storage.S3.ForcePathStyle)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown backend", content: "storage:\n  type: mongo\n"},
		{name: "postgres without dsn", content: "storage:\n  type: postgres\n"},
		{name: "s3 without bucket", content: "storage:\n  type: s3\n"},
		{name: "mysql without dsn", content: "storage:\n  type: mysql\n"},
		{name: "bad log format", content: "log:\n  format: xml\n"},
		{name: "bad log level", content: "log:\n  level: loud\n"},
		{name: "malformed", content: "storage: [\n"},
		{name: "unknown feed", content: "storage:\n  type: memory\n  feed:\n    type: nats\n"},
		{name: "kafka feed without brokers", content: "storage:\n  type: memory\n  feed:\n    type: kafka\n"},
		{name: "amqp feed without url", content: "storage:\n  type: memory\n  feed:\n    type: amqp\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.yaml", tt.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, StorageFile, cfg.Storage.Type)
}
