package unit

import (
	"strings"

	"github.com/shopspring/decimal"

	"pantry-engine/internal/pkg/textutil"
)

// ParseAmount 將數量字串（整數、小數或 a/b 分數）轉為 decimal
//
// 格式錯誤或分母為 0 時返回 false。
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(textutil.Fold(s))
	if s == "" {
		return decimal.Zero, false
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := decimal.NewFromString(strings.TrimSpace(num))
		if err != nil {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(strings.TrimSpace(den))
		if err != nil || d.IsZero() {
			return decimal.Zero, false
		}
		return n.Div(d), true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatAmount 輸出不帶多餘零的數量字串
func FormatAmount(d decimal.Decimal) string {
	return d.String()
}
