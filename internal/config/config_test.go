package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/promobot/core/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalYAML = `
telegram:
  token: "123:abc"
database:
  host: localhost
  user: promo
  name: promobot
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, coreconfig.RunModeLongpoll, cfg.Core.Telegram.RunMode)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 4, cfg.Database.MaxConnections)
	assert.Equal(t, 15*time.Minute, cfg.Forms.Timeout())
	assert.Equal(t, time.Minute, cfg.Forms.SweepInterval())
	assert.Equal(t, 5*time.Minute, cfg.Admins.CacheTTL())
	assert.Equal(t, 10, cfg.Catalog.PageSize)
	assert.Equal(t, 20, cfg.AI.HistoryLimit)
	assert.False(t, cfg.AI.Enabled(), "AI must stay disabled without credentials")
	assert.Empty(t, cfg.Ops.Listen)
}

func TestLoadReadsAllSections(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
telegram:
  token: "123:abc"
  admin_id: 42
database:
  host: db.internal
  port: "6432"
  user: promo
  password: secret
  name: promobot
  sslmode: require
  max_connections: 8
forms:
  timeout_seconds: 300
  sweep_interval_seconds: 30
admins:
  cache_ttl_seconds: 120
catalog:
  page_size: 5
ai:
  api_key: test-key
  model: doubao-pro
  max_tokens: 512
  temperature: 0.7
  history_limit: 6
  system_prompt: "You answer shopping questions."
ops:
  listen: ":8081"
`))
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Core.Telegram.AdminID)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "6432", cfg.Database.Port)
	assert.Equal(t, 8, cfg.Database.MaxConnections)
	assert.Equal(t, 5*time.Minute, cfg.Forms.Timeout())
	assert.Equal(t, 30*time.Second, cfg.Forms.SweepInterval())
	assert.Equal(t, 2*time.Minute, cfg.Admins.CacheTTL())
	assert.Equal(t, 5, cfg.Catalog.PageSize)
	assert.True(t, cfg.AI.Enabled())
	require.NotNil(t, cfg.AI.MaxTokens)
	assert.Equal(t, 512, *cfg.AI.MaxTokens)
	require.NotNil(t, cfg.AI.Temperature)
	assert.InDelta(t, 0.7, float64(*cfg.AI.Temperature), 0.001)
	assert.Nil(t, cfg.AI.TopP)
	assert.Equal(t, ":8081", cfg.Ops.Listen)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("FORM_TIMEOUT_SECONDS", "120")
	t.Setenv("ARK_API_KEY", "env-key")
	t.Setenv("ARK_MODEL", "doubao-lite")
	t.Setenv("OPS_LISTEN", ":9090")

	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Forms.Timeout())
	assert.True(t, cfg.AI.Enabled())
	assert.Equal(t, ":9090", cfg.Ops.Listen)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{
			name: "missing telegram token",
			yaml: `
database:
  host: localhost
  user: promo
  name: promobot
`,
		},
		{
			name: "missing database host",
			yaml: `
telegram:
  token: "123:abc"
database:
  user: promo
  name: promobot
`,
		},
		{
			name: "missing database name",
			yaml: `
telegram:
  token: "123:abc"
database:
  host: localhost
  user: promo
`,
		},
		{
			name: "negative form timeout",
			yaml: `
telegram:
  token: "123:abc"
database:
  host: localhost
  user: promo
  name: promobot
forms:
  timeout_seconds: -1
`,
		},
		{
			name: "negative admin cache ttl",
			yaml: `
telegram:
  token: "123:abc"
database:
  host: localhost
  user: promo
  name: promobot
admins:
  cache_ttl_seconds: -5
`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}
