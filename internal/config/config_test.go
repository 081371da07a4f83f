package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/brain-service/internal/config"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATABASE_URL", "REDIS_URL", "BRAIN_HTTP_PORT", "BRAIN_GRPC_PORT",
		"AMQP_URL", "UPLOAD_DIR", "LOG_LEVEL",
		"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_BUCKET",
		"AWS_REGION", "AWS_S3_BUCKET", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
	} {
		t.Setenv(k, "")
	}
	// Run from a temp dir so a developer's .env is not picked up.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `
server:
  http_port: "9000"
store:
  backend: memory
session:
  backend: memory
  ttl: 1h
  sweep_interval: 5m
events:
  backend: none
upload:
  keywords: [" Skills ", "Projects"]
logger:
  level: debug
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.HTTPPort)
	assert.Equal(t, "9094", cfg.Server.GRPCPort, "unset fields keep defaults")
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Session.SweepInterval)
	assert.Equal(t, []string{"skills", "projects"}, cfg.Upload.Keywords)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "data/uploads", cfg.Storage.UploadDir)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/brain")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Backend)
	assert.Equal(t, "postgres://localhost/brain", cfg.Store.DatabaseURL)
	assert.Equal(t, []string{"experience", "education", "skills"}, cfg.Upload.Keywords)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `
store:
  backend: postgres
  database_url: postgres://from-yaml/db
redis:
  url: redis://from-yaml:6379
`)
	t.Setenv("DATABASE_URL", "postgres://from-env/db")
	t.Setenv("BRAIN_HTTP_PORT", "7000")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://from-env/db", cfg.Store.DatabaseURL)
	assert.Equal(t, "redis://from-yaml:6379", cfg.Redis.URL)
	assert.Equal(t, "7000", cfg.Server.HTTPPort)
	assert.True(t, cfg.Telegram.Enabled)
	assert.Equal(t, int64(42), cfg.Telegram.ChatID)
}

func TestLoad_FailFast(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "postgres without url",
			yaml:    "store:\n  backend: postgres\n",
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "redis sessions without url",
			yaml:    "store:\n  backend: memory\nevents:\n  backend: none\n",
			wantErr: "REDIS_URL is required",
		},
		{
			name:    "amqp without url",
			yaml:    "store:\n  backend: memory\nsession:\n  backend: memory\nevents:\n  backend: amqp\n",
			wantErr: "AMQP_URL is required",
		},
		{
			name:    "unknown storage backend",
			yaml:    "store:\n  backend: memory\nsession:\n  backend: memory\nevents:\n  backend: none\nstorage:\n  backend: ftp\n",
			wantErr: `unknown backend "ftp"`,
		},
		{
			name:    "bad chat id",
			yaml:    "store:\n  backend: memory\n",
			env:     map[string]string{"TELEGRAM_CHAT_ID": "me"},
			wantErr: "TELEGRAM_CHAT_ID must be an integer",
		},
		{
			name:    "malformed yaml",
			yaml:    "store: [",
			wantErr: "parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load(writeYAML(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
