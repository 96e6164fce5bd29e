package inventory

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pantry-engine/internal/core/ingredient"
	"pantry-engine/internal/core/unit"
	"pantry-engine/internal/pkg/common"
	"pantry-engine/internal/pkg/textutil"
)

// Policy 名稱比對策略
type Policy string

const (
	// PolicyContainment 任一方名稱包含另一方即視為同一食材（預設）
	//
	// 寬鬆比對會有誤判，例如 "대파" 與 "대파무침"。
	PolicyContainment Policy = "containment"
	// PolicySimilarity 名稱相同或編輯距離相似度達門檻
	PolicySimilarity Policy = "similarity"
)

// DefaultSimilarityThreshold similarity 策略的預設門檻
const DefaultSimilarityThreshold = 0.75

// MatcherConfig 比對設定
type MatcherConfig struct {
	Policy              Policy
	SimilarityThreshold float64
}

// Classification 單一食材的比對結果
type Classification struct {
	Status      MatchStatus `json:"status"`
	DisplayText string      `json:"displayText"`
	// MatchedBatchIDs 名稱相符的批次
	MatchedBatchIDs []string `json:"matchedBatchIds,omitempty"`
}

// Matcher 食譜食材與庫存的比對器
type Matcher struct {
	conv      *unit.Converter
	policy    Policy
	threshold float64
}

// NewMatcher 創建比對器
func NewMatcher(conv *unit.Converter, cfg MatcherConfig) (*Matcher, error) {
	if conv == nil {
		return nil, fmt.Errorf("matcher: converter is required")
	}
	policy := cfg.Policy
	if policy == "" {
		policy = PolicyContainment
	}
	threshold := cfg.SimilarityThreshold
	if threshold == 0 {
		threshold = DefaultSimilarityThreshold
	}
	switch policy {
	case PolicyContainment, PolicySimilarity:
	default:
		return nil, fmt.Errorf("matcher: unknown policy %q", policy)
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("matcher: similarity threshold %v out of range", threshold)
	}
	return &Matcher{conv: conv, policy: policy, threshold: threshold}, nil
}

// Policy 返回比對策略
func (m *Matcher) Policy() Policy {
	return m.policy
}

// NameKey 名稱比較鍵：去除數量與括號後去空白、轉小寫
func NameKey(name string) string {
	return textutil.CompactKey(ingredient.StripQuantity(name))
}

// SameIngredient 依策略判斷兩個名稱是否指同一食材
func (m *Matcher) SameIngredient(a, b string) bool {
	return m.matchKeys(NameKey(a), NameKey(b))
}

func (m *Matcher) matchKeys(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	switch m.policy {
	case PolicySimilarity:
		return similarity(a, b) >= m.threshold
	default:
		return strings.Contains(a, b) || strings.Contains(b, a)
	}
}

// similarity 1 - 編輯距離 / 較長字串長度（以字元計）
func similarity(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// Classify 判斷食譜所需食材在庫存中的狀態
//
// 無法比較數量時（無數量或單位無法換算）一律視為持有。
func (m *Matcher) Classify(required ingredient.Descriptor, batches []Batch) Classification {
	result := Classification{
		Status:      StatusMissing,
		DisplayText: DisplayText(required),
	}

	key := NameKey(required.Name)
	var matched []Batch
	for _, b := range batches {
		if m.matchKeys(key, NameKey(b.IngredientName)) {
			matched = append(matched, b)
			result.MatchedBatchIDs = append(result.MatchedBatchIDs, b.ID)
		}
	}
	if len(matched) == 0 {
		return result
	}

	result.Status = StatusHeld
	need, ok := required.Quantity()
	if !ok {
		return result
	}

	held, compared, skipped := m.heldAmount(required, matched)
	if compared == 0 {
		common.LogDebug("無法比較庫存數量，視為持有",
			zap.String("ingredient", required.Name),
			zap.String("unit", required.Unit),
		)
		return result
	}
	if held.LessThan(need) && skipped == 0 {
		result.Status = StatusInsufficient
	}
	return result
}

// heldAmount 將相符批次的數量換算為食譜單位後加總
//
// 主要單位無法換算時，若有括號數量則換算到括號單位，再依兩者比例換回主要單位。
func (m *Matcher) heldAmount(required ingredient.Descriptor, matched []Batch) (total decimal.Decimal, compared, skipped int) {
	primary, _ := required.Quantity()
	bracket, hasBracket := required.BracketQuantity()
	hasBracket = hasBracket && !bracket.IsZero() && required.BracketUnit != ""

	total = decimal.Zero
	for _, b := range matched {
		if v, ok := m.convert(b.Amount, b.Unit, required.Unit, required.Name, b.IngredientName); ok {
			total = total.Add(v)
			compared++
			continue
		}
		if hasBracket {
			if v, ok := m.convert(b.Amount, b.Unit, required.BracketUnit, required.Name, b.IngredientName); ok {
				total = total.Add(v.Mul(primary).Div(bracket))
				compared++
				continue
			}
		}
		skipped++
	}
	return total, compared, skipped
}

// convert 依序以各個名稱查詢換算表，第一個可換算的名稱為準
//
// 食譜名稱常帶修飾語（"유기농 계란"），查不到時再用庫存名稱（"계란"）。
func (m *Matcher) convert(amount decimal.Decimal, from, to string, names ...string) (decimal.Decimal, bool) {
	tried := make(map[string]bool, len(names))
	for _, name := range names {
		key := unit.IngredientKey(name)
		if tried[key] {
			continue
		}
		tried[key] = true
		if v, ok := m.conv.Convert(name, amount, from, to); ok {
			return v, true
		}
	}
	return decimal.Zero, false
}

// ClassifyAll 產生顯示用的狀態列表，id 為食材在列表中的位置
func (m *Matcher) ClassifyAll(required []ingredient.Descriptor, batches []Batch) []common.StatusEntry {
	entries := make([]common.StatusEntry, 0, len(required))
	for i, d := range required {
		c := m.Classify(d, batches)
		entries = append(entries, common.StatusEntry{
			ID:      strconv.Itoa(i),
			Name:    d.Name,
			Display: c.DisplayText,
			Status:  c.Status.String(),
		})
	}
	return entries
}

// DisplayText 顯示文字；括號數量與主要數量相同時省略括號
func DisplayText(d ingredient.Descriptor) string {
	if d.BracketSameAsPrimary() {
		d.BracketAmount, d.BracketUnit = "", ""
	}
	return ingredient.Render(d)
}
