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
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	// 显式配置生效
	assert.Equal(t, 9090, cfg.Server.Port)

	// 未配置的字段取默认值
	assert.Equal(t, 23, cfg.Telnet.Port)
	assert.Equal(t, 10*time.Second, cfg.Telnet.ConnectTimeout)
	assert.Equal(t, 5*time.Second, cfg.Telnet.StepTimeout)
	assert.Equal(t, "utf-8", cfg.Telnet.Charset)
	assert.Equal(t, 8, cfg.Runner.Concurrent)
	assert.Equal(t, "local", cfg.Archive.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 8888
telnet:
  charset: "gbk"
  step_timeout: 3s
runner:
  concurrent: 2
archive:
  backend: "minio"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8888", cfg.GetServerAddr())
	assert.Equal(t, "gbk", cfg.Telnet.Charset)
	assert.Equal(t, 3*time.Second, cfg.Telnet.StepTimeout)
	assert.Equal(t, 2, cfg.Runner.Concurrent)
	assert.Equal(t, "minio", cfg.Archive.Backend)

	// 全局配置被更新
	assert.Same(t, cfg, Get())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
