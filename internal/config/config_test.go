package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookupDefaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.InsecureSecret())
}

func TestFromLookupOverrides(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"HTTP_HOST":         "127.0.0.1",
		"HTTP_PORT":         "9001",
		"STORAGE_TYPE":      "REDIS",
		"REDIS_URL":         "redis://localhost:6379/0",
		"JWT_SECRET":        "s3cret",
		"ACCESS_TOKEN_TTL":  "5m",
		"REFRESH_TOKEN_TTL": "48h",
		"MEDIA_ROOT":        "/srv/media",
		"LOGIN_RATE":        "0.5",
		"LOGIN_BURST":       "3",
		"LOG_LEVEL":         "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.HTTPHost)
	assert.Equal(t, 9001, cfg.HTTPPort)
	assert.Equal(t, StorageRedis, cfg.StorageType)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 48*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, "/srv/media", cfg.MediaRoot)
	assert.Equal(t, rate.Limit(0.5), cfg.LoginRate)
	assert.Equal(t, 3, cfg.LoginBurst)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.False(t, cfg.InsecureSecret())
}

func TestFromLookupCollectsParseErrors(t *testing.T) {
	_, err := FromLookup(lookupFrom(map[string]string{
		"HTTP_PORT":        "eighty",
		"ACCESS_TOKEN_TTL": "soon",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_PORT")
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_TTL")
}

func TestValidateRedisNeedsURL(t *testing.T) {
	_, err := FromLookup(lookupFrom(map[string]string{"STORAGE_TYPE": "redis"}))
	assert.ErrorContains(t, err, "REDIS_URL")
}

func TestValidateRejectsUnknownStorage(t *testing.T) {
	_, err := FromLookup(lookupFrom(map[string]string{"STORAGE_TYPE": "postgres"}))
	assert.ErrorContains(t, err, "STORAGE_TYPE")
}

func TestDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_PORT=8123\nJWT_SECRET=from-file\n"), 0o600))

	env, err := godotenv.Read(path)
	require.NoError(t, err)

	cfg, err := FromLookup(lookupFrom(env))
	require.NoError(t, err)
	assert.Equal(t, 8123, cfg.HTTPPort)
	assert.Equal(t, "from-file", cfg.JWTSecret)
}

func TestLoadIgnoresMissingFile(t *testing.T) {
	t.Setenv("HTTP_PORT", "8456")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 8456, cfg.HTTPPort)
}
