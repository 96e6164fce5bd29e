package ingredient

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// amountRe 數量記號：整數、小數或 a/b 分數
var amountRe = regexp.MustCompile(`\d+(?:\.\d+)?(?:/\d+(?:\.\d+)?)?`)

// thousandsRe 千分位逗號，例如 "1,000"
var thousandsRe = regexp.MustCompile(`(\d),(\d{3})(\D|$)`)

// joinThousands 移除數字之間的千分位逗號
func joinThousands(s string) string {
	for {
		next := thousandsRe.ReplaceAllString(s, "${1}${2}${3}")
		if next == s {
			return s
		}
		s = next
	}
}

// unitRe 緊接在數量之後（可隔空白）的單位記號
var unitRe = regexp.MustCompile(`^\s*([^\d\s()/~,.\-]+)`)

// amountSpan 一個數量記號在字串中的位置
type amountSpan struct {
	start, end int
}

// scanAmounts 找出所有數量記號
func scanAmounts(s string) []amountSpan {
	idx := amountRe.FindAllStringIndex(s, -1)
	spans := make([]amountSpan, 0, len(idx))
	for _, m := range idx {
		spans = append(spans, amountSpan{start: m[0], end: m[1]})
	}
	return spans
}

// scanUnit 讀取 rest 開頭的單位記號，返回單位與消耗的位元組數
func scanUnit(rest string) (string, int) {
	m := unitRe.FindStringSubmatchIndex(rest)
	if m == nil {
		return "", 0
	}
	return rest[m[2]:m[3]], m[1]
}

// scanBracket 從括號內文字讀取「數量 單位」
func scanBracket(inner string) (amount, unit string, ok bool) {
	spans := scanAmounts(inner)
	if len(spans) == 0 {
		return "", "", false
	}
	first := spans[0]
	amount = inner[first.start:first.end]
	unit, _ = scanUnit(inner[first.end:])
	return amount, unit, true
}

// splitParens 將括號外文字與括號內文字分開
//
// 支援巢狀括號；未閉合的 "(" 之後視為括號內文字，多餘的 ")" 直接丟棄。
func splitParens(s string) (outside string, inners []string) {
	var out, cur strings.Builder
	depth := 0
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		switch {
		case r == '(':
			if depth > 0 {
				cur.WriteRune(r)
			} else {
				out.WriteRune(' ')
			}
			depth++
		case r == ')':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				inners = append(inners, cur.String())
				cur.Reset()
			} else {
				cur.WriteRune(r)
			}
		case depth > 0:
			cur.WriteRune(r)
		default:
			out.WriteRune(r)
		}
	}
	if depth > 0 && cur.Len() > 0 {
		inners = append(inners, cur.String())
	}
	return out.String(), inners
}
