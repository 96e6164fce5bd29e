package pantry

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pantry-engine/internal/core/receipt"
	"pantry-engine/internal/pkg/common"
)

// ReceiptRequest OCR 片段
type ReceiptRequest struct {
	Fragments []receipt.Fragment `json:"fragments" binding:"required"`
}

// ImportResponse 匯入結果
type ImportResponse struct {
	Records  []receipt.Record `json:"records"`
	Imported int              `json:"imported"`
}

// HandleExtract 處理 /receipts/extract
func (h *Handler) HandleExtract(c *gin.Context) {
	requestID := getRequestID(c)

	var req ReceiptRequest
	if !h.bindJSON(c, requestID, &req) {
		return
	}

	result := h.extractor.Extract(req.Fragments)
	h.metrics.ReceiptExtracted(len(result.Records))
	common.LogInfo("收據擷取完成",
		zap.Int("fragment_count", len(req.Fragments)),
		zap.Int("records", len(result.Records)),
		zap.String("request_id", requestID),
	)
	c.JSON(http.StatusOK, result)
}

// HandleImport 處理 /receipts/import：擷取後送到外部新增食材 API
func (h *Handler) HandleImport(c *gin.Context) {
	requestID := getRequestID(c)

	var req ReceiptRequest
	if !h.bindJSON(c, requestID, &req) {
		return
	}

	result := h.extractor.Extract(req.Fragments)
	resp := ImportResponse{Records: result.Records}
	if len(result.Records) == 0 {
		c.JSON(http.StatusOK, resp)
		return
	}
	if h.inventory == nil {
		h.writeError(c, common.ErrServiceUnavailable)
		return
	}

	if err := h.inventory.AddFoods(c.Request.Context(), result.FoodEntries(), requestID); err != nil {
		common.LogError("收據食材匯入失敗", zap.Error(err), zap.String("request_id", requestID))
		h.writeError(c, err)
		return
	}

	resp.Imported = len(result.Records)
	h.metrics.ReceiptImported(resp.Imported)
	common.LogInfo("收據食材匯入完成",
		zap.Int("imported", resp.Imported),
		zap.String("request_id", requestID),
	)
	c.JSON(http.StatusOK, resp)
}
