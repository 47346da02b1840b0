package appconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Should load compiled defaults with no file or environment", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "ally:config", cfg.Cache.KeyPrefix)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.False(t, cfg.DatabaseEnabled())
		assert.False(t, cfg.RedisEnabled())
	})

	t.Run("Should apply a settings file over defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "settings.yaml")
		content := `
server:
  port: 9090
  admin_token: file-secret
store:
  path: /etc/ally/config.json
cache:
  memory_ttl: 30s
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "file-secret", cfg.Server.AdminToken)
		assert.Equal(t, "/etc/ally/config.json", cfg.Store.Path)
		assert.Equal(t, 30*time.Second, cfg.Cache.MemoryTTL)
	})

	t.Run("Should apply environment over file and defaults", func(t *testing.T) {
		t.Setenv("ALLY_SERVER_PORT", "7070")
		t.Setenv("ALLY_SERVER_ADMIN_TOKEN", "env-secret")
		t.Setenv("ALLY_DATABASE_CONN_STRING", "postgres://localhost/ally")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 7070, cfg.Server.Port)
		assert.Equal(t, "env-secret", cfg.Server.AdminToken)
		assert.True(t, cfg.DatabaseEnabled())
	})

	t.Run("Should reject an out-of-range port", func(t *testing.T) {
		t.Setenv("ALLY_SERVER_PORT", "99999")
		_, err := Load("")
		assert.Error(t, err)
	})

	t.Run("Should reject an unreadable settings file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestTransformEnvKey(t *testing.T) {
	t.Run("Should split section from field keeping underscores", func(t *testing.T) {
		key, _ := transformEnvKey("ALLY_SERVER_ADMIN_TOKEN", "x")
		assert.Equal(t, "server.admin_token", key)
		key, _ = transformEnvKey("ALLY_CACHE_MEMORY_TTL", "x")
		assert.Equal(t, "cache.memory_ttl", key)
		key, _ = transformEnvKey("ALLY_STORE_PATH", "x")
		assert.Equal(t, "store.path", key)
	})
}
