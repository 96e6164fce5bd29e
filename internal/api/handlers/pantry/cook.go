package pantry

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pantry-engine/internal/core/ingredient"
	"pantry-engine/internal/core/inventory"
	"pantry-engine/internal/infrastructure/inventoryapi"
	"pantry-engine/internal/infrastructure/metrics"
	"pantry-engine/internal/pkg/common"
)

// ConsumptionBody 單一食材的消耗量
type ConsumptionBody struct {
	IngredientName  string                `json:"ingredientName"`
	RequestedAmount common.LenientDecimal `json:"requestedAmount"`
	Unit            string                `json:"unit"`
}

// CookRequest 烹飪完成請求
// requests: 結構化的消耗量
// lines: "양파 150g" 形式的文字，會先解析
// inventory: 省略時從外部 API 讀取
type CookRequest struct {
	Requests  []ConsumptionBody      `json:"requests"`
	Lines     []string               `json:"lines"`
	Inventory []common.InventoryItem `json:"inventory"`
}

// PlanResponse 規劃結果
type PlanResponse struct {
	Plan    inventory.RecipePlan     `json:"plan"`
	Updates []common.InventoryUpdate `json:"updates"`
}

// consumptionRequests 合併結構化與文字形式的消耗量
func (r CookRequest) consumptionRequests() ([]inventory.ConsumptionRequest, error) {
	out := make([]inventory.ConsumptionRequest, 0, len(r.Requests)+len(r.Lines))
	for _, body := range r.Requests {
		out = append(out, inventory.ConsumptionRequest{
			IngredientName:  body.IngredientName,
			RequestedAmount: body.RequestedAmount.Decimal,
			Unit:            body.Unit,
		})
	}
	descriptors, _ := ingredient.ParseAll(r.Lines)
	for _, d := range descriptors {
		amount, ok := d.Quantity()
		if !ok {
			continue
		}
		out = append(out, inventory.ConsumptionRequest{
			IngredientName:  d.Name,
			RequestedAmount: amount,
			Unit:            d.Unit,
		})
	}
	if len(out) == 0 {
		return nil, common.NewValidationError("no consumption requests")
	}
	return out, nil
}

// HandlePlan 處理 /cook/plan，只計算不提交
func (h *Handler) HandlePlan(c *gin.Context) {
	requestID := getRequestID(c)

	var req CookRequest
	if !h.bindJSON(c, requestID, &req) {
		return
	}
	requests, err := req.consumptionRequests()
	if err != nil {
		h.writeError(c, err)
		return
	}

	plan, err := h.cooking.Plan(c.Request.Context(), requests, req.Inventory, requestID)
	if err != nil {
		common.LogError("扣庫存規劃失敗", zap.Error(err), zap.String("request_id", requestID))
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, PlanResponse{Plan: plan, Updates: plan.UpdatePayload()})
}

// HandleCommit 處理 /cook/commit
//
// 需要 Idempotency-Key 標頭；同一個鍵只會提交一次。
func (h *Handler) HandleCommit(c *gin.Context) {
	requestID := getRequestID(c)
	key := c.GetHeader(inventoryapi.IdempotencyHeader)

	common.LogInfo("開始處理烹飪完成請求",
		zap.String("request_id", requestID),
		zap.String("idempotency_key", key),
		zap.String("client_ip", c.ClientIP()),
	)

	var req CookRequest
	if !h.bindJSON(c, requestID, &req) {
		return
	}
	requests, err := req.consumptionRequests()
	if err != nil {
		h.writeError(c, err)
		return
	}

	result, err := h.cooking.Commit(c.Request.Context(), key, requests, req.Inventory, requestID)
	h.metrics.CookCommit(commitOutcome(err))
	if err != nil {
		common.LogWarn("烹飪扣庫存失敗",
			zap.Error(err),
			zap.String("idempotency_key", key),
			zap.String("request_id", requestID),
		)
		if errors.Is(err, common.ErrOverConsumption) && result != nil {
			ce := common.AsCustomError(err)
			c.JSON(ce.Status, gin.H{
				"code":    ce.Code,
				"message": ce.Message,
				"plan":    result.Plan,
			})
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// commitOutcome 提交結果的指標標籤
func commitOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeCommitted
	case errors.Is(err, common.ErrOverConsumption):
		return metrics.OutcomeOverConsumed
	case errors.Is(err, common.ErrDuplicateCommit):
		return metrics.OutcomeDuplicate
	case errors.Is(err, common.ErrMissingIdempotency), common.IsValidationError(err):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}
