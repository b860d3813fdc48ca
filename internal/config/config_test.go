package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_FileAndEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ADMIN_PASSWORD", "pass")
	t.Setenv("DB_HOST", "db.internal")

	path := writeConfig(t, `
env: dev
httpServer:
  port: "8080"
db:
  host: localhost
  name: events
relay:
  ports: [4000, 4001]
scraper:
  schedule: "@every 1h"
  sites:
    - name: smalls
      url: https://www.facebook.com/events/123
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, "localhost:8080", cfg.HttpServer.HTTPAddr())
	assert.Equal(t, "secret", cfg.HttpServer.Secret)
	assert.Equal(t, "db.internal", cfg.DBConfig.Host, "env overrides file")
	assert.Equal(t, []int{4000, 4001}, cfg.RelayConfig.Ports)
	assert.Equal(t, 4*time.Second, cfg.RelayConfig.UploadTimeout)
	assert.Equal(t, 8*time.Second, cfg.ExtractorConfig.ImageTimeout)
	assert.Equal(t, []string{"fileio", "catbox", "s3", "local"}, cfg.ImageHostConfig.Hosts)
	require.Len(t, cfg.ScraperConfig.Sites, 1)
	assert.Equal(t, "@every 1h", cfg.ScraperConfig.Schedule)
	assert.False(t, cfg.BotConfig.AI.Enabled())
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ADMIN_PASSWORD", "pass")
	t.Setenv("RELAY_PORTS", "3000,3001")
	t.Setenv("AI_API_TOKEN", "token")
	t.Setenv("AI_MODEL_NAME", "model")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, []int{3000, 3001}, cfg.RelayConfig.Ports)
	assert.True(t, cfg.BotConfig.AI.Enabled())
}

func TestLoad_MissingRequired(t *testing.T) {
	for _, key := range []string{"JWT_SECRET", "ADMIN_PASSWORD"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	_, err := Load(writeConfig(t, "env: local\n"))
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	c := DBConfig{Host: "h", Port: "5432", Name: "n", User: "u", Password: "p", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=n sslmode=disable", c.DSN())
}
