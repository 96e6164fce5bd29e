package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry-engine/internal/infrastructure/config"
	"pantry-engine/internal/infrastructure/idempotency"
	"pantry-engine/internal/pkg/common"
)

func init() {
	gin.SetMode(gin.TestMode)
	common.InitNopLogger()
}

// downStore 永遠無法連線的儲存
type downStore struct {
	idempotency.Store
}

func (downStore) Ping(ctx context.Context) error { return errors.New("connection refused") }
func (downStore) Backend() string                { return config.BackendRedis }

func newEngine(cfg *config.Config, store idempotency.Store) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if cfg != nil {
			c.Set("config", cfg)
		}
		if store != nil {
			c.Set("idempotency_store", store)
		}
		c.Next()
	})
	r.GET("/health", HealthCheck)
	r.GET("/ready", ReadinessCheck)
	r.GET("/live", LivenessCheck)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthCheck(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Version: "9.9.9"}}
	store := idempotency.NewMemoryStore(config.IdempotencyConfig{MaxSize: 10})
	t.Cleanup(func() { _ = store.Close() })

	w := get(newEngine(cfg, store), "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "9.9.9", resp.Version)
	require.NotNil(t, resp.Idempotency)
	assert.Equal(t, config.BackendMemory, resp.Idempotency.Backend)
	assert.NotEmpty(t, resp.Idempotency.Stats)
}

func TestHealthCheck_MissingConfig(t *testing.T) {
	w := get(newEngine(nil, nil), "/health")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestReadinessCheck(t *testing.T) {
	store := idempotency.NewMemoryStore(config.IdempotencyConfig{MaxSize: 10})
	t.Cleanup(func() { _ = store.Close() })

	tests := []struct {
		name   string
		store  idempotency.Store
		status int
	}{
		{"memory store", store, http.StatusOK},
		{"unreachable store", downStore{}, http.StatusServiceUnavailable},
		{"no store", nil, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(newEngine(&config.Config{}, tt.store), "/ready")
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestLivenessCheck(t *testing.T) {
	w := get(newEngine(nil, nil), "/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"alive"}`, w.Body.String())
}
