package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, BackendMemory, cfg.Idempotency.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.Equal(t, "containment", cfg.Matcher.Policy)
	assert.Equal(t, 10.0, cfg.Receipt.LineThreshold)
	assert.Equal(t, time.Second, cfg.DedupWindow)
	assert.Equal(t, 2, cfg.InventoryAPI.RetryCount)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("INVENTORY_API_BASE_URL", "http://inventory.internal/api")
	t.Setenv("APP_MATCHER_POLICY", "similarity")
	t.Setenv("APP_IDEMPOTENCY_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("APP_RECEIPT_BRAND_TOKENS", "한우마을,dole")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http://inventory.internal/api", cfg.InventoryAPI.BaseURL)
	assert.Equal(t, "similarity", cfg.Matcher.Policy)
	assert.Equal(t, BackendRedis, cfg.Idempotency.Backend)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"한우마을", "dole"}, cfg.Receipt.BrandTokens)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown backend", "APP_IDEMPOTENCY_BACKEND", "memcached"},
		{"unknown policy", "APP_MATCHER_POLICY", "exact"},
		{"threshold out of range", "APP_MATCHER_SIMILARITY_THRESHOLD", "1.5"},
		{"negative line threshold", "APP_RECEIPT_LINE_THRESHOLD", "-1"},
		{"zero port", "APP_SERVER_PORT", "0"},
		{"relative metrics path", "APP_METRICS_PATH", "metrics"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "****", MaskToken("short"))
	assert.Equal(t, "abcd...wxyz", MaskToken("abcdefghijklmnopqrstuvwxyz"))
}
