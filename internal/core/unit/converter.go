package unit

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pantry-engine/internal/pkg/common"
)

// maxHops 換算路徑的最大步數（例如 개 -> g -> kg 為兩步）
const maxHops = 3

// Converter 依食材換算單位
type Converter struct {
	table *Table
}

// NewConverter 創建換算器；table 為 nil 時使用內建表
func NewConverter(table *Table) (*Converter, error) {
	if table == nil {
		var err error
		table, err = DefaultTable()
		if err != nil {
			return nil, err
		}
	}
	return &Converter{table: table}, nil
}

// Convert 將 amount 從 fromUnit 換算為 toUnit
//
// 單位相同（不分大小寫）時直接返回 amount；找不到換算路徑時返回 false，從不 panic。
// 大小寫有意義的縮寫例外："T"（tbsp）與 "t"（tsp）視為不同單位。
func (c *Converter) Convert(ingredient string, amount decimal.Decimal, fromUnit, toUnit string) (decimal.Decimal, bool) {
	if sameSpelling(fromUnit, toUnit) {
		return amount, true
	}

	from, to := Normalize(fromUnit), Normalize(toUnit)
	if from == to {
		return amount, true
	}
	if from == "" || to == "" {
		return decimal.Zero, false
	}

	key := IngredientKey(ingredient)
	r, ok := c.findPath(key, from, to)
	if !ok {
		common.LogDebug("無法換算單位",
			zap.String("ingredient", ingredient),
			zap.String("from", from),
			zap.String("to", to),
		)
		return decimal.Zero, false
	}
	return r.apply(amount), true
}

func sameSpelling(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == b {
		return true
	}
	_, caseA := caseSensitive[a]
	_, caseB := caseSensitive[b]
	return !caseA && !caseB && strings.EqualFold(a, b)
}

// ConvertString 與 Convert 相同，但數量為字串（可為分數）
func (c *Converter) ConvertString(ingredient, amount, fromUnit, toUnit string) (decimal.Decimal, bool) {
	d, ok := ParseAmount(amount)
	if !ok {
		return decimal.Zero, false
	}
	return c.Convert(ingredient, d, fromUnit, toUnit)
}

// Convertible 判斷兩個單位對該食材是否可換算
func (c *Converter) Convertible(ingredient, fromUnit, toUnit string) bool {
	_, ok := c.Convert(ingredient, decimal.NewFromInt(1), fromUnit, toUnit)
	return ok
}

// findPath 廣度優先搜尋最短換算路徑
func (c *Converter) findPath(ingredient, from, to string) (ratio, bool) {
	type node struct {
		unit string
		r    ratio
	}
	visited := map[string]bool{from: true}
	frontier := []node{{unit: from, r: identity}}

	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		var next []node
		for _, n := range frontier {
			nb := c.table.neighbours(ingredient, n.unit)
			units := make([]string, 0, len(nb))
			for u := range nb {
				units = append(units, u)
			}
			sort.Strings(units)

			for _, u := range units {
				if visited[u] {
					continue
				}
				r := n.r.then(nb[u])
				if u == to {
					return r, true
				}
				visited[u] = true
				next = append(next, node{unit: u, r: r})
			}
		}
		frontier = next
	}
	return ratio{}, false
}
