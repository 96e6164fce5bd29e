package common

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// InventoryItem 外部庫存 API 的食材項目
type InventoryItem struct {
	ID       LenientID      `json:"id"`
	FoodID   LenientID      `json:"foodId"`
	FoodName string         `json:"foodName"`
	Quantity LenientDecimal `json:"quantity"`
	Unit     string         `json:"unit"`
	// AcquisitionOrder 入庫順序，越小越舊；外部 API 未提供時以列表順序代替
	AcquisitionOrder int `json:"acquisitionOrder,omitempty"`
}

// InventoryUpdate 庫存更新項目（新的剩餘量，不是差額）
type InventoryUpdate struct {
	FoodID string          `json:"foodId"`
	Amount decimal.Decimal `json:"amount"`
	Unit   string          `json:"unit"`
}

// InventoryUpdateRequest 一次送出的庫存更新
type InventoryUpdateRequest struct {
	Items []InventoryUpdate `json:"items"`
}

// FoodEntry 新增食材的請求項目（收據辨識結果）
type FoodEntry struct {
	Name   string `json:"name"`
	Weight string `json:"weight"`
	Unit   string `json:"unit"`
	Count  string `json:"count"`
}

// RecipeIngredientRecord 外部食譜資料來源的食材欄位
type RecipeIngredientRecord struct {
	Name     string `json:"IRDNT_NM"`
	Capacity string `json:"IRDNT_CPCTY"`
}

// StatusEntry 顯示用的食材狀態
type StatusEntry struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Display string `json:"display"`
	Status  string `json:"status"`
}

// FormatInventory 格式化庫存列表（除錯日誌使用）
func FormatInventory(items []InventoryItem) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("- %s (%s): %s%s\n",
			item.FoodName, item.FoodID, item.Quantity.String(), item.Unit))
	}
	return sb.String()
}

// FormatUpdates 格式化庫存更新列表
func FormatUpdates(items []InventoryUpdate) string {
	if len(items) == 0 {
		return ""
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s=%s%s", item.FoodID, item.Amount.String(), item.Unit))
	}
	return strings.Join(parts, "、")
}
