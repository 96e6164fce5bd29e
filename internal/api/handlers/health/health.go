package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"pantry-engine/internal/infrastructure/config"
	"pantry-engine/internal/infrastructure/idempotency"
	"pantry-engine/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// pingTimeout 就緒檢查等待儲存後端的上限
const pingTimeout = 2 * time.Second

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Version     string                 `json:"version"`
	Runtime     map[string]interface{} `json:"runtime"`
	Idempotency *StoreStatus           `json:"idempotency,omitempty"`
}

// StoreStatus 冪等儲存狀態
type StoreStatus struct {
	Backend string                 `json:"backend"`
	Stats   map[string]interface{} `json:"stats,omitempty"`
}

// statsProvider 提供統計資訊的儲存後端（記憶體版）
type statsProvider interface {
	Stats() map[string]interface{}
}

// storeFrom 從上下文取得冪等儲存，未設定時回傳 nil
func storeFrom(c *gin.Context) idempotency.Store {
	v, exists := c.Get("idempotency_store")
	if !exists {
		return nil
	}
	store, _ := v.(idempotency.Store)
	return store
}

// HealthCheck 健康檢查處理器
func HealthCheck(c *gin.Context) {
	// 獲取配置
	cfg, exists := c.Get("config")
	if !exists {
		common.LogError("Configuration not found in context")
		c.JSON(http.StatusInternalServerError, common.ErrInternalError.Response(false))
		return
	}
	appConfig, ok := cfg.(*config.Config)
	if !ok {
		common.LogError("Invalid configuration type in context")
		c.JSON(http.StatusInternalServerError, common.ErrInternalError.Response(false))
		return
	}

	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   appConfig.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if store := storeFrom(c); store != nil {
		status := &StoreStatus{Backend: store.Backend()}
		if sp, ok := store.(statsProvider); ok {
			status.Stats = sp.Stats()
		}
		response.Idempotency = status
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器：冪等儲存必須可用
func ReadinessCheck(c *gin.Context) {
	store := storeFrom(c)
	if store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "idempotency store not configured",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		common.LogWarn("冪等儲存無法連線", zap.Error(err), zap.String("backend", store.Backend()))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not_ready",
			"backend": store.Backend(),
			"reason":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"backend": store.Backend(),
	})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
