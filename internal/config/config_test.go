package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Second, cfg.PlacementTimeout)
	assert.Equal(t, 5, cfg.LowStockThreshold)
	assert.Equal(t, "USD", cfg.DefaultCurrency)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.RedisAddr)
}

func TestOverrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"DB_DRIVER":            "MySQL",
		"DB_DSN":               "user:pw@tcp(db:3306)/shop",
		"CACHE_TTL":            "30s",
		"RATE_LIMIT_RPS":       "2.5",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example",
		"DEFAULT_CURRENCY":     "eur",
	}))
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 1e-9)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "EUR", cfg.DefaultCurrency)
}

func TestMalformedValuesAreReportedTogether(t *testing.T) {
	_, err := FromEnv(env(map[string]string{
		"PLACEMENT_TIMEOUT": "soon",
		"RATE_LIMIT_BURST":  "many",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PLACEMENT_TIMEOUT")
	assert.Contains(t, err.Error(), "RATE_LIMIT_BURST")
}

func TestUnknownDriverRejected(t *testing.T) {
	_, err := FromEnv(env(map[string]string{"DB_DRIVER": "postgres"}))
	require.Error(t, err)
}

func TestLoadReadsDotEnvWithoutOverridingEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("KAFKA_TOPIC=from-file\nLOW_STOCK_THRESHOLD=9\n"), 0o600))
	t.Setenv("LOW_STOCK_THRESHOLD", "2")
	t.Cleanup(func() { _ = os.Unsetenv("KAFKA_TOPIC") })

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.KafkaTopic)
	assert.Equal(t, 2, cfg.LowStockThreshold)
}
