// Package inventory 比對食譜食材與庫存，並規劃烹飪後的先進先出扣庫存
package inventory

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"pantry-engine/internal/pkg/common"
)

// Batch 一批庫存（同一食材可能有多批）
type Batch struct {
	ID               string          `json:"id"`
	FoodID           string          `json:"foodId"`
	IngredientName   string          `json:"ingredientName"`
	Amount           decimal.Decimal `json:"amount"`
	Unit             string          `json:"unit"`
	AcquisitionOrder int             `json:"acquisitionOrder"`
}

// BatchesFromItems 將外部庫存 API 的項目轉為 Batch
//
// 沒有入庫順序的項目以列表位置代替；負數或無法解析的數量視為 0。
// id 空白時依序改用 foodId 或 "item-<位置>"。
func BatchesFromItems(items []common.InventoryItem) []Batch {
	batches := make([]Batch, 0, len(items))
	for i, item := range items {
		amount := item.Quantity.Decimal
		if amount.IsNegative() {
			amount = decimal.Zero
		}
		order := item.AcquisitionOrder
		if order == 0 {
			order = i
		}
		id, foodID := item.ID.String(), item.FoodID.String()
		if foodID == "" {
			foodID = id
		}
		if id == "" {
			id = foodID
		}
		if id == "" {
			id = fmt.Sprintf("item-%d", i)
		}
		batches = append(batches, Batch{
			ID:               id,
			FoodID:           foodID,
			IngredientName:   item.FoodName,
			Amount:           amount,
			Unit:             item.Unit,
			AcquisitionOrder: order,
		})
	}
	return batches
}

// MatchStatus 食材充足狀態
type MatchStatus int

const (
	StatusHeld MatchStatus = iota
	StatusInsufficient
	StatusMissing
)

var statusNames = map[MatchStatus]string{
	StatusHeld:         "held",
	StatusInsufficient: "insufficient",
	StatusMissing:      "missing",
}

func (s MatchStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("MatchStatus(%d)", int(s))
}

// MarshalText 實現 encoding.TextMarshaler
func (s MatchStatus) MarshalText() ([]byte, error) {
	name, ok := statusNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown match status %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText 實現 encoding.TextUnmarshaler
func (s *MatchStatus) UnmarshalText(text []byte) error {
	want := strings.ToLower(strings.TrimSpace(string(text)))
	for status, name := range statusNames {
		if name == want {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("unknown match status %q", string(text))
}

// ConsumptionRequest 烹飪完成時某一食材的消耗量
type ConsumptionRequest struct {
	IngredientName  string          `json:"ingredientName"`
	RequestedAmount decimal.Decimal `json:"requestedAmount"`
	Unit            string          `json:"unit"`
}

// Allocation 單一批次的扣除結果，數量以批次自身單位表示
type Allocation struct {
	// position 批次在規劃輸入中的位置
	position int

	BatchID            string          `json:"batchId"`
	FoodID             string          `json:"foodId"`
	Unit               string          `json:"unit"`
	ConsumedAmount     decimal.Decimal `json:"consumedAmount"`
	NewRemainingAmount decimal.Decimal `json:"newRemainingAmount"`
	// ConsumedInRequestUnit 以請求單位表示的扣除量
	ConsumedInRequestUnit decimal.Decimal `json:"consumedInRequestUnit"`
}

// Plan 單一食材的扣庫存規劃
type Plan struct {
	IngredientName string          `json:"ingredientName"`
	Unit           string          `json:"unit"`
	Requested      decimal.Decimal `json:"requested"`
	Available      decimal.Decimal `json:"available"`
	Allocations    []Allocation    `json:"allocations"`
	OverConsumed   bool            `json:"overConsumed"`
}

// Shortfall 不足的數量（以請求單位表示）
func (p Plan) Shortfall() decimal.Decimal {
	if !p.OverConsumed {
		return decimal.Zero
	}
	return p.Requested.Sub(p.Available)
}

// TotalConsumed 以請求單位表示的總扣除量
func (p Plan) TotalConsumed() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.Allocations {
		total = total.Add(a.ConsumedInRequestUnit)
	}
	return total
}

// UpdatePayload 轉為庫存更新項目（新的剩餘量）
func (p Plan) UpdatePayload() []common.InventoryUpdate {
	return updatesFrom(p.Allocations)
}

// RecipePlan 一次烹飪事件中所有食材的規劃
type RecipePlan struct {
	Plans        []Plan   `json:"plans"`
	OverConsumed bool     `json:"overConsumed"`
	Shortages    []string `json:"shortages,omitempty"`
}

// Allocations 依規劃順序列出所有批次扣除
func (r RecipePlan) Allocations() []Allocation {
	var all []Allocation
	for _, p := range r.Plans {
		all = append(all, p.Allocations...)
	}
	return all
}

// UpdatePayload 一次送出的庫存更新，同一批次只出現一次且為最後的剩餘量
func (r RecipePlan) UpdatePayload() []common.InventoryUpdate {
	if r.OverConsumed {
		return nil
	}
	return updatesFrom(r.Allocations())
}

func updatesFrom(allocations []Allocation) []common.InventoryUpdate {
	index := make(map[int]int, len(allocations))
	updates := make([]common.InventoryUpdate, 0, len(allocations))
	for _, a := range allocations {
		update := common.InventoryUpdate{
			FoodID: a.FoodID,
			Amount: a.NewRemainingAmount,
			Unit:   a.Unit,
		}
		if i, ok := index[a.position]; ok {
			updates[i] = update
			continue
		}
		index[a.position] = len(updates)
		updates = append(updates, update)
	}
	return updates
}
