package pantry

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pantry-engine/internal/core/ingredient"
	"pantry-engine/internal/core/unit"
	"pantry-engine/internal/pkg/common"
)

// ParseRequest 食材文字解析請求
// lines: 每個元素可包含多行
// records: 外部食譜資料的 {IRDNT_NM, IRDNT_CPCTY}
type ParseRequest struct {
	Lines   []string                        `json:"lines"`
	Records []common.RecipeIngredientRecord `json:"records"`
}

// ParseResponse 解析結果，無法解析的行只計數
type ParseResponse struct {
	Descriptors []ingredient.Descriptor `json:"descriptors"`
	Skipped     int                     `json:"skipped"`
}

// StripRequest 名稱清理請求
type StripRequest struct {
	Names []string `json:"names" binding:"required"`
}

// StripResponse 名稱清理結果
type StripResponse struct {
	Names []string `json:"names"`
}

// ConvertRequest 單位換算請求，amount 可為數字或 "1/2" 之類的字串
type ConvertRequest struct {
	Ingredient string          `json:"ingredient"`
	Amount     json.RawMessage `json:"amount" binding:"required"`
	From       string          `json:"from"`
	To         string          `json:"to"`
}

// ConvertResponse 換算結果；無法換算時 amount 為 null
type ConvertResponse struct {
	Amount      *string `json:"amount"`
	Unit        string  `json:"unit"`
	Convertible bool    `json:"convertible"`
}

// descriptorsFrom 解析文字與結構化紀錄
func descriptorsFrom(lines []string, records []common.RecipeIngredientRecord) ([]ingredient.Descriptor, int) {
	descriptors, skipped := ingredient.ParseAll(lines)
	for _, rec := range records {
		if d, ok := ingredient.FromRecord(rec.Name, rec.Capacity); ok {
			descriptors = append(descriptors, d)
		} else {
			skipped++
		}
	}
	if descriptors == nil {
		descriptors = []ingredient.Descriptor{}
	}
	return descriptors, skipped
}

// HandleParse 處理 /ingredients/parse
func (h *Handler) HandleParse(c *gin.Context) {
	requestID := getRequestID(c)

	var req ParseRequest
	if !h.bindJSON(c, requestID, &req) {
		return
	}

	descriptors, skipped := descriptorsFrom(req.Lines, req.Records)
	common.LogInfo("食材解析完成",
		zap.Int("descriptors", len(descriptors)),
		zap.Int("skipped", skipped),
		zap.String("request_id", requestID),
	)
	c.JSON(http.StatusOK, ParseResponse{Descriptors: descriptors, Skipped: skipped})
}

// HandleStrip 處理 /ingredients/strip
func (h *Handler) HandleStrip(c *gin.Context) {
	requestID := getRequestID(c)

	var req StripRequest
	if !h.bindJSON(c, requestID, &req) {
		return
	}

	names := make([]string, 0, len(req.Names))
	for _, name := range req.Names {
		names = append(names, ingredient.StripQuantity(name))
	}
	c.JSON(http.StatusOK, StripResponse{Names: names})
}

// HandleConvert 處理 /units/convert
func (h *Handler) HandleConvert(c *gin.Context) {
	requestID := getRequestID(c)

	var req ConvertRequest
	if !h.bindJSON(c, requestID, &req) {
		return
	}

	resp := ConvertResponse{Unit: unit.Normalize(req.To)}
	if amount, ok := h.converter.ConvertString(req.Ingredient, rawAmount(req.Amount), req.From, req.To); ok {
		s := unit.FormatAmount(amount)
		resp.Amount = &s
		resp.Convertible = true
	}

	common.LogDebug("單位換算",
		zap.String("ingredient", req.Ingredient),
		zap.String("from", req.From),
		zap.String("to", req.To),
		zap.Bool("convertible", resp.Convertible),
		zap.String("request_id", requestID),
	)
	c.JSON(http.StatusOK, resp)
}
