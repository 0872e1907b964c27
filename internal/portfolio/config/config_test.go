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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadYAMLWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
HTTP_PORT: 9000
DB_DRIVER: sqlite
DB_PATH: test.db
KAFKA_BROKERS: [a:9092]
JWT_SECRET: from-file
SESSION_TTL: 2h
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("KAFKA_BROKERS", "b:9092, c:9092")
	t.Setenv("ADMIN_PAGE_SIZE", "25")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, []string{"b:9092", "c:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 25, cfg.AdminPageSize)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "media", cfg.MediaRoot, "defaults survive")

	dbc := cfg.Database()
	assert.Equal(t, "sqlite", dbc.Driver)
	assert.Equal(t, "test.db", dbc.Path)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "no secret", body: "HTTP_PORT: 8080\n", env: map[string]string{"JWT_SECRET": ""}},
		{name: "bad yaml", body: "HTTP_PORT: [\n", env: map[string]string{"JWT_SECRET": "s"}},
		{name: "bad port env", body: "JWT_SECRET: s\n", env: map[string]string{"HTTP_PORT": "eighty"}},
		{name: "bad ttl env", body: "JWT_SECRET: s\n", env: map[string]string{"SESSION_TTL": "forever"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := defaults()
	cfg.LogFile = filepath.Join(t.TempDir(), "vcpms.log")
	logger, err := NewLogger(&cfg)
	require.NoError(t, err)
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)

	cfg.LogLevel = "loud"
	_, err = NewLogger(&cfg)
	assert.Error(t, err)
}
