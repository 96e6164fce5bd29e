// Package pantry 食材解析、庫存比對、烹飪扣庫存與收據匯入的 HTTP 處理程序
package pantry

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pantry-engine/internal/core/cooking"
	"pantry-engine/internal/core/inventory"
	"pantry-engine/internal/core/receipt"
	"pantry-engine/internal/core/unit"
	"pantry-engine/internal/infrastructure/metrics"
	"pantry-engine/internal/pkg/common"
)

// InventoryClient 外部庫存 API
type InventoryClient interface {
	ListInventory(ctx context.Context, requestID string) ([]common.InventoryItem, error)
	AddFoods(ctx context.Context, entries []common.FoodEntry, requestID string) error
}

// Handler 食材與庫存處理程序
type Handler struct {
	converter *unit.Converter
	matcher   *inventory.Matcher
	extractor *receipt.Extractor
	cooking   *cooking.Service
	inventory InventoryClient
	metrics   *metrics.Metrics
	debug     bool
}

// NewHandler 創建處理程序
func NewHandler(converter *unit.Converter, matcher *inventory.Matcher, extractor *receipt.Extractor, cookingService *cooking.Service, client InventoryClient, m *metrics.Metrics, debug bool) *Handler {
	return &Handler{
		converter: converter,
		matcher:   matcher,
		extractor: extractor,
		cooking:   cookingService,
		inventory: client,
		metrics:   m,
		debug:     debug,
	}
}

// getRequestID 取得請求 ID，沒有時生成一個
func getRequestID(c *gin.Context) string {
	requestID := requestid.Get(c)
	if requestID == "" {
		requestID = c.GetHeader("X-Request-ID")
	}
	if requestID == "" {
		requestID = common.GenerateUUID()
		c.Header("X-Request-ID", requestID)
	}
	return requestID
}

// bindJSON 解析請求體，失敗時直接回應 400
func (h *Handler) bindJSON(c *gin.Context, requestID string, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		common.LogError("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
			zap.String("path", c.Request.URL.Path),
		)
		h.writeError(c, common.ErrInvalidRequest.WithCause(err))
		return false
	}
	return true
}

// writeError 以 CustomError 的狀態碼與格式回應錯誤
func (h *Handler) writeError(c *gin.Context, err error) {
	ce := common.AsCustomError(err)
	c.JSON(ce.Status, ce.Response(h.debug))
}

// listInventory 請求未附庫存時從外部 API 讀取
func (h *Handler) listInventory(c *gin.Context, items []common.InventoryItem, requestID string) ([]common.InventoryItem, error) {
	if items != nil {
		return items, nil
	}
	if h.inventory == nil {
		return nil, common.NewValidationError("inventory is required")
	}
	return h.inventory.ListInventory(c.Request.Context(), requestID)
}

// rawAmount 將 JSON 數字或字串轉為數量字串
func rawAmount(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	return strings.Trim(s, `"`)
}
