package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"BUNQ_API_KEY", "BUNQ_API_URL", "BUNQ_APP_ID", "BUNQ_STORE_BACKEND", "BUNQ_STORE_PATH",
	"BUNQ_DB_DSN", "BUNQ_REDIS_URL", "BUNQ_LOG_LEVEL", "BUNQ_METRICS_ADDR", "BUNQ_PAGE_SIZE",
	"BUNQ_SANDBOX_ADDR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bunqledger.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://api.bunq.com", cfg.API.URL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout.Get())
	assert.Equal(t, []string{"*"}, cfg.API.PermittedIPs)
	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, DefaultAppID, cfg.Store.AppID)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":8090", cfg.Sandbox.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[api]
url = "https://public-api.sandbox.bunq.com"
key = "from-file"
timeout = "5s"
page_size = 50

[store]
backend = "redis"
redis_url = "redis://localhost:6379/0"

[log]
level = "debug"
development = true

[sandbox]
session_ttl = "90s"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://public-api.sandbox.bunq.com", cfg.API.URL)
	assert.Equal(t, "from-file", cfg.API.Key)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout.Get())
	assert.Equal(t, 50, cfg.API.PageSize)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, 90*time.Second, cfg.Sandbox.SessionTTL.Get())

	// untouched keys keep their defaults
	assert.Equal(t, "bunqledger/1.0", cfg.API.UserAgent)
	assert.Equal(t, DefaultAppID, cfg.Store.AppID)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[api]
key = "from-file"
page_size = 50
`)
	t.Setenv("BUNQ_API_KEY", "from-env")
	t.Setenv("BUNQ_PAGE_SIZE", "20")
	t.Setenv("BUNQ_STORE_BACKEND", "memory")
	t.Setenv("BUNQ_APP_ID", "work")
	t.Setenv("BUNQ_METRICS_ADDR", ":9191")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.API.Key)
	assert.Equal(t, 20, cfg.API.PageSize)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "work", cfg.Store.AppID)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9191", cfg.Metrics.Addr)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `[api`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[api]\ntimeout = \"soon\"\n"))
	assert.Error(t, err)

	t.Setenv("BUNQ_PAGE_SIZE", "many")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"memory", func(c *Config) { c.Store.Backend = BackendMemory }, false},
		{"postgres without dsn", func(c *Config) { c.Store.Backend = BackendPostgres }, true},
		{"postgres with dsn", func(c *Config) {
			c.Store.Backend = BackendPostgres
			c.Store.DSN = "host=localhost dbname=bunqledger sslmode=disable"
		}, false},
		{"redis without url", func(c *Config) { c.Store.Backend = BackendRedis }, true},
		{"unknown backend", func(c *Config) { c.Store.Backend = "etcd" }, true},
		{"negative page size", func(c *Config) { c.API.PageSize = -1 }, true},
		{"empty url", func(c *Config) { c.API.URL = "" }, true},
		{"empty app id", func(c *Config) { c.Store.AppID = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Get())

	out, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(out))

	assert.Error(t, d.UnmarshalText([]byte("later")))
}
