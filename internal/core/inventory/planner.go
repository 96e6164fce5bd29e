package inventory

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pantry-engine/internal/pkg/common"
)

// ErrNilInventory 傳入 nil 的批次列表（呼叫端程式錯誤）
var ErrNilInventory = errors.New("inventory: nil batch list")

// Planner 先進先出扣庫存規劃器
//
// 規劃只計算新的剩餘量，不修改傳入的批次。同一次烹飪事件只能提交一次規劃結果。
type Planner struct {
	matcher *Matcher
}

// NewPlanner 創建規劃器，名稱比對與單位換算沿用 matcher
func NewPlanner(matcher *Matcher) *Planner {
	return &Planner{matcher: matcher}
}

// candidate 可扣除的批次與其以請求單位表示的可用量
type candidate struct {
	batch     Batch
	position  int
	available decimal.Decimal
}

// Plan 依入庫順序由舊到新扣除 request 的數量
//
// 總可用量不足時不產生任何扣除，OverConsumed 為 true。單位無法換算的批次視為 0。
func (p *Planner) Plan(request ConsumptionRequest, batches []Batch) (Plan, error) {
	if batches == nil {
		return Plan{}, ErrNilInventory
	}

	plan := Plan{
		IngredientName: request.IngredientName,
		Unit:           request.Unit,
		Requested:      request.RequestedAmount,
		Available:      decimal.Zero,
	}
	if !request.RequestedAmount.IsPositive() {
		return plan, nil
	}

	candidates := p.candidates(request, batches)
	for _, c := range candidates {
		plan.Available = plan.Available.Add(c.available)
	}
	if plan.Available.LessThan(request.RequestedAmount) {
		plan.OverConsumed = true
		common.LogDebug("庫存不足，不扣除",
			zap.String("ingredient", request.IngredientName),
			zap.String("requested", request.RequestedAmount.String()),
			zap.String("available", plan.Available.String()),
		)
		return plan, nil
	}

	remaining := request.RequestedAmount
	for _, c := range candidates {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, c.available)
		plan.Allocations = append(plan.Allocations, p.allocate(request, c, take))
		remaining = remaining.Sub(take)
	}
	return plan, nil
}

func (p *Planner) candidates(request ConsumptionRequest, batches []Batch) []candidate {
	key := NameKey(request.IngredientName)

	positions := make([]int, len(batches))
	for i := range positions {
		positions[i] = i
	}
	sort.SliceStable(positions, func(i, j int) bool {
		return batches[positions[i]].AcquisitionOrder < batches[positions[j]].AcquisitionOrder
	})

	// 有名稱完全相同的批次時只扣這些批次，"파" 不會扣到 "양파"
	exact := false
	for _, b := range batches {
		if key != "" && NameKey(b.IngredientName) == key {
			exact = true
			break
		}
	}

	out := make([]candidate, 0, len(batches))
	for _, pos := range positions {
		b := batches[pos]
		bkey := NameKey(b.IngredientName)
		if exact && bkey != key {
			continue
		}
		if !exact && !p.matcher.matchKeys(key, bkey) {
			continue
		}
		if !b.Amount.IsPositive() {
			continue
		}
		v, ok := p.matcher.convert(b.Amount, b.Unit, request.Unit, request.IngredientName, b.IngredientName)
		if !ok {
			common.LogDebug("批次單位無法換算，略過",
				zap.String("batch_id", b.ID),
				zap.String("from", b.Unit),
				zap.String("to", request.Unit),
			)
			continue
		}
		out = append(out, candidate{batch: b, position: pos, available: v})
	}
	return out
}

// allocate 將以請求單位表示的扣除量換回批次單位
func (p *Planner) allocate(request ConsumptionRequest, c candidate, take decimal.Decimal) Allocation {
	b := c.batch
	consumed := b.Amount
	if !take.Equal(c.available) {
		if v, ok := p.matcher.convert(take, request.Unit, b.Unit, request.IngredientName, b.IngredientName); ok {
			consumed = decimal.Min(v, b.Amount)
		} else {
			consumed = take.Mul(b.Amount).Div(c.available)
		}
	}
	return Allocation{
		position:              c.position,
		BatchID:               b.ID,
		FoodID:                b.FoodID,
		Unit:                  b.Unit,
		ConsumedAmount:        consumed,
		NewRemainingAmount:    b.Amount.Sub(consumed),
		ConsumedInRequestUnit: take,
	}
}

// PlanRecipe 規劃一次烹飪事件的所有食材
//
// 任一食材不足時整份規劃作廢，不產生任何扣除。多個食材扣到同一批次時依序累計；
// 批次以在 batches 中的位置識別，id 空白或重複也不會互相覆蓋。
func (p *Planner) PlanRecipe(requests []ConsumptionRequest, batches []Batch) (RecipePlan, error) {
	if batches == nil {
		return RecipePlan{}, ErrNilInventory
	}

	working := make([]Batch, len(batches))
	copy(working, batches)

	var result RecipePlan
	for _, req := range requests {
		plan, err := p.Plan(req, working)
		if err != nil {
			return RecipePlan{}, err
		}
		if plan.OverConsumed {
			result.OverConsumed = true
			result.Shortages = append(result.Shortages, req.IngredientName)
		}
		for _, a := range plan.Allocations {
			working[a.position].Amount = a.NewRemainingAmount
		}
		result.Plans = append(result.Plans, plan)
	}

	if result.OverConsumed {
		for i := range result.Plans {
			result.Plans[i].Allocations = nil
		}
	}
	return result, nil
}
