package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "generated", cfg.Storage.OutputDir)
	assert.Equal(t, 1000, cfg.Tracking.LogLimit)
	assert.Equal(t, int64(60), cfg.ClickLimit.Requests)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
tracking:
  redirect_url: https://example.org/thanks
storage:
  output_dir: /tmp/docs
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://example.org/thanks", cfg.Tracking.RedirectURL)
	assert.Equal(t, "/tmp/docs", cfg.Storage.OutputDir)
	// 未出现在文件中的字段保留默认值
	assert.Equal(t, "admin", cfg.Auth.AdminPassword)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SECRET_KEY": "s3cret",
		"ADMIN_PASS": "hunter2",
		"OUTPUT_DIR": "/data/out",
		"PORT":       "8080",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, applyEnv(cfg, lookup))

	assert.Equal(t, "s3cret", cfg.Auth.Secret)
	assert.Equal(t, "hunter2", cfg.Auth.AdminPassword)
	assert.Equal(t, "/data/out", cfg.Storage.OutputDir)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestApplyEnv_BadPort(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "PORT" {
			return "http", true
		}
		return "", false
	}
	assert.Error(t, applyEnv(Default(), lookup))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Auth.AdminPassword = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Database.Driver = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Tracking.LogLimit = 0
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1000, cfg.Tracking.LogLimit)
}

func TestValidate_UploadCaps(t *testing.T) {
	cfg := Default()
	cfg.Storage.MaxUploadMB = 0
	cfg.Storage.MaxPixels = -1
	cfg.Cache.PoolSize = 0
	require.NoError(t, cfg.Validate())

	assert.Equal(t, int64(16<<20), cfg.Storage.MaxUploadBytes())
	assert.Equal(t, int64(40_000_000), cfg.Storage.MaxPixels)
	assert.Equal(t, 20, cfg.Cache.PoolSize)
}

func TestLoad_PoolSizeFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  host: redis\n  pool_size: 64\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Cache.PoolSize)
	assert.Equal(t, 6379, cfg.Cache.Port)
}
