// Package ingredient 將食材自由文字解析為結構化的名稱、數量與單位
package ingredient

import (
	"strings"

	"github.com/shopspring/decimal"

	"pantry-engine/internal/core/unit"
)

// Descriptor 一行食材文字的解析結果，產生後不再修改
//
// 數量保留原始記號（"100"、"1.5"、"1/2"），需要數值時呼叫 Quantity。
type Descriptor struct {
	Name          string `json:"name"`
	Amount        string `json:"amount"`
	Unit          string `json:"unit"`
	BracketAmount string `json:"bracketAmount,omitempty"`
	BracketUnit   string `json:"bracketUnit,omitempty"`
}

// Quantity 主要數量的數值
func (d Descriptor) Quantity() (decimal.Decimal, bool) {
	return unit.ParseAmount(d.Amount)
}

// BracketQuantity 括號數量的數值
func (d Descriptor) BracketQuantity() (decimal.Decimal, bool) {
	return unit.ParseAmount(d.BracketAmount)
}

// HasBracket 是否帶有括號數量
func (d Descriptor) HasBracket() bool {
	return d.BracketAmount != ""
}

// BracketSameAsPrimary 括號數量與主要數量在數值與單位上是否相同
func (d Descriptor) BracketSameAsPrimary() bool {
	if !d.HasBracket() {
		return false
	}
	if !unit.Equal(d.Unit, d.BracketUnit) {
		return false
	}
	a, okA := d.Quantity()
	b, okB := d.BracketQuantity()
	if !okA || !okB {
		return d.Amount == d.BracketAmount
	}
	return a.Equal(b)
}

// String 等同 Render
func (d Descriptor) String() string {
	return Render(d)
}

// Render 輸出 "<name> <amount><unit>(<bracketAmount><bracketUnit>)"
//
// 此格式可再被 Parse 讀回相同的 Descriptor。
func Render(d Descriptor) string {
	var sb strings.Builder
	sb.WriteString(d.Name)
	if d.Amount != "" {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(d.Amount)
		sb.WriteString(d.Unit)
	}
	if d.HasBracket() {
		sb.WriteByte('(')
		sb.WriteString(d.BracketAmount)
		sb.WriteString(d.BracketUnit)
		sb.WriteByte(')')
	}
	return sb.String()
}
