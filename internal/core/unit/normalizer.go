// Package unit 提供食材單位的正規化與依食材換算
package unit

import (
	"strings"

	"pantry-engine/internal/pkg/textutil"
)

// 標準單位
const (
	Each    = "ea"
	Gram    = "g"
	Kilo    = "kg"
	Milli   = "ml"
	Liter   = "l"
	Tsp     = "tsp"
	Tbsp    = "tbsp"
	Cup     = "cup"
	Pack    = "pack"
	Clove   = "clove"
	Handful = "handful"
	Block   = "block"
	Sheet   = "sheet"
	Whole   = "whole"
	Bunch   = "bunch"
	Can     = "can"
	Bottle  = "bottle"
	Stalk   = "stalk"
	Bowl    = "bowl"
	Head    = "head"
	Serving = "serving"
)

// caseSensitive 大小寫有意義的縮寫，必須在轉小寫前處理
var caseSensitive = map[string]string{
	"T": Tbsp,
	"t": Tsp,
}

// aliases 別名對照表（鍵皆為小寫）
var aliases = map[string]string{
	// 個數
	"개": Each, "ea": Each, "each": Each, "piece": Each, "pieces": Each, "pc": Each, "pcs": Each,
	"알": Each, "입": Each, "구": Each, "p": Each,
	// 重量
	"g": Gram, "gr": Gram, "gram": Gram, "grams": Gram, "그램": Gram, "그람": Gram,
	"kg": Kilo, "kilo": Kilo, "kilogram": Kilo, "kilograms": Kilo, "킬로": Kilo, "킬로그램": Kilo, "키로": Kilo,
	// 容量
	"ml": Milli, "mℓ": Milli, "cc": Milli, "milliliter": Milli, "millilitre": Milli, "밀리": Milli, "밀리리터": Milli, "미리": Milli,
	"l": Liter, "ℓ": Liter, "liter": Liter, "litre": Liter, "liters": Liter, "리터": Liter,
	// 湯匙
	"tsp": Tsp, "teaspoon": Tsp, "teaspoons": Tsp, "작은술": Tsp, "티스푼": Tsp, "ts": Tsp,
	"tbsp": Tbsp, "tbs": Tbsp, "tablespoon": Tbsp, "tablespoons": Tbsp, "큰술": Tbsp, "큰스푼": Tbsp, "스푼": Tbsp, "숟가락": Tbsp,
	"cup": Cup, "cups": Cup, "컵": Cup,
	// 其他
	"봉": Pack, "봉지": Pack, "팩": Pack, "pack": Pack, "pkg": Pack, "package": Pack,
	"쪽": Clove, "톨": Clove, "clove": Clove, "cloves": Clove,
	"줌": Handful, "handful": Handful,
	"모": Block, "block": Block,
	"장": Sheet, "sheet": Sheet, "sheets": Sheet,
	"마리": Whole, "whole": Whole,
	"단": Bunch, "bunch": Bunch,
	"캔": Can, "can": Can,
	"병": Bottle, "bottle": Bottle,
	"대": Stalk, "줄기": Stalk, "stalk": Stalk,
	"공기": Bowl, "그릇": Bowl, "bowl": Bowl,
	"포기": Head, "통": Head, "head": Head,
	"인분": Serving, "serving": Serving, "servings": Serving,
}

// Normalize 將單位拼寫轉為標準單位
//
// 未知單位以小寫、去空白後的形式原樣返回。
func Normalize(u string) string {
	trimmed := strings.TrimSpace(textutil.Fold(u))
	if canonical, ok := caseSensitive[trimmed]; ok {
		return canonical
	}
	lower := strings.ToLower(trimmed)
	if canonical, ok := aliases[lower]; ok {
		return canonical
	}
	return lower
}

// Known 判斷單位是否在別名表中
func Known(u string) bool {
	trimmed := strings.TrimSpace(textutil.Fold(u))
	if _, ok := caseSensitive[trimmed]; ok {
		return true
	}
	_, ok := aliases[strings.ToLower(trimmed)]
	return ok
}

// Equal 判斷兩個單位正規化後是否相同
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
