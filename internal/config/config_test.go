package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"hoa-advisor-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
jwt:
  secret: "test-secret"
gate:
  passcode: "open-sesame"
admin:
  username: "admin"
  password: "pw"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsAndEnvOverride(t *testing.T) {
	t.Setenv("HOA_GATE_PASSCODE", "from-env")
	t.Setenv("HOA_RATE_LIMIT_CHAT_LIMIT", "5")

	cfg, err := config.Load(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Gate.Passcode)
	assert.Equal(t, "hoa_access", cfg.Gate.CookieName)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.False(t, cfg.Database.Redis.Enabled())
	assert.Equal(t, 8, cfg.JWT.AccessTokenExpireHours)
	assert.Equal(t, 10, cfg.RateLimit.Analyze.Limit)
	assert.Equal(t, time.Hour, cfg.RateLimit.Analyze.Window())
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Gate.Window())
	assert.Equal(t, 5, cfg.RateLimit.Chat.Limit)
	assert.Equal(t, "local", cfg.Storage.Driver)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing passcode": `
jwt: {secret: "s"}
admin: {username: "admin", password: "pw"}
`,
		"missing admin password": `
jwt: {secret: "s"}
gate: {passcode: "p"}
admin: {username: "admin"}
`,
		"minio without endpoint": baseYAML + `
storage:
  driver: "minio"
`,
		"redis limiter without redis": baseYAML + `
rate_limit:
  backend: "redis"
`,
		"unknown driver": baseYAML + `
database:
  driver: "oracle"
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
