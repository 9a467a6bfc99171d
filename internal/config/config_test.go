package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "sql", cfg.Store.Backend)
	assert.Equal(t, 100, cfg.Feed.Limit)
	assert.Equal(t, 72*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Twilio.Enabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("STORE_BACKEND", "doc")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_AFFINITY_TTL", "30s")
	t.Setenv("SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_CALLER", "true")
	t.Setenv("FEED_LIMIT", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "doc", cfg.Store.Backend)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Redis.AffinityTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Log.Caller)
	assert.Equal(t, 50, cfg.Feed.Limit)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cheffry.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feed:\n  limit: 25\nlog:\n  level: debug\n"), 0o600))

	t.Setenv("JWT_SECRET", "secret")
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Feed.Limit)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	cfg.Auth.JWTSecret = "s"

	cfg.Store.Backend = "mongo"
	assert.Error(t, cfg.Validate())

	cfg.Store.Backend = "sql"
	cfg.Database.Driver = "oracle"
	assert.Error(t, cfg.Validate())

	cfg.Database.Driver = "sqlite"
	cfg.Feed.Limit = 1000
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.Feed.Limit)
}

func TestEnvTransformFunc(t *testing.T) {
	assert.Equal(t, "redis.affinity_ttl", envTransformFunc("REDIS_AFFINITY_TTL"))
	assert.Equal(t, "auth.jwt_secret", envTransformFunc("JWT_SECRET"))
	assert.Equal(t, "ai.gemini_api_key", envTransformFunc("API_KEY"))
	assert.Equal(t, "", envTransformFunc("HOME"))
	assert.Equal(t, "", envTransformFunc("GOPATH"))
}

func TestDSN(t *testing.T) {
	d := defaultConfig().Database
	assert.Contains(t, d.PostgresDSN(), "dbname=cheffry")
	assert.Contains(t, d.MySQLDSN(), "@tcp(localhost:5432)/cheffry")

	d.DSN = "postgres://x"
	assert.Equal(t, "postgres://x", d.PostgresDSN())
}
