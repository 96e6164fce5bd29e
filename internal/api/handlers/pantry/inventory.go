package pantry

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pantry-engine/internal/core/inventory"
	"pantry-engine/internal/pkg/common"
)

// ClassifyRequest 食材狀態比對請求；inventory 省略時從外部 API 讀取
type ClassifyRequest struct {
	Ingredients []string                        `json:"ingredients"`
	Records     []common.RecipeIngredientRecord `json:"records"`
	Inventory   []common.InventoryItem          `json:"inventory"`
}

// ClassifyResponse 顯示用狀態列表
type ClassifyResponse struct {
	Statuses []common.StatusEntry `json:"statuses"`
	Skipped  int                  `json:"skipped"`
}

// HandleClassify 處理 /inventory/classify
func (h *Handler) HandleClassify(c *gin.Context) {
	requestID := getRequestID(c)

	var req ClassifyRequest
	if !h.bindJSON(c, requestID, &req) {
		return
	}

	items, err := h.listInventory(c, req.Inventory, requestID)
	if err != nil {
		common.LogError("讀取庫存失敗", zap.Error(err), zap.String("request_id", requestID))
		h.writeError(c, err)
		return
	}

	descriptors, skipped := descriptorsFrom(req.Ingredients, req.Records)
	statuses := h.matcher.ClassifyAll(descriptors, inventory.BatchesFromItems(items))
	for _, s := range statuses {
		h.metrics.MatchStatus(s.Status)
	}

	common.LogInfo("食材狀態比對完成",
		zap.Int("ingredients", len(statuses)),
		zap.Int("inventory", len(items)),
		zap.String("policy", string(h.matcher.Policy())),
		zap.String("request_id", requestID),
	)
	c.JSON(http.StatusOK, ClassifyResponse{Statuses: statuses, Skipped: skipped})
}
