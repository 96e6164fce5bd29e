package ingredient

import (
	"strings"

	"go.uber.org/zap"

	"pantry-engine/internal/core/unit"
	"pantry-engine/internal/pkg/common"
	"pantry-engine/internal/pkg/textutil"
)

// Parse 解析一行食材文字
//
// 空白或無法解析的行返回 false，呼叫端應直接略過。多個食材以換行連接時請先用 ParseLines 拆開。
func Parse(line string) (Descriptor, bool) {
	line = strings.TrimSpace(joinThousands(textutil.Fold(line)))
	if line == "" {
		return Descriptor{}, false
	}

	outside, inners := splitParens(line)

	var d Descriptor
	for _, inner := range inners {
		if amount, u, ok := scanBracket(inner); ok {
			d.BracketAmount = amount
			d.BracketUnit = u
			break
		}
	}

	rest := textutil.CollapseSpaces(outside)
	name, amount, u, ok := splitNameAmount(rest)
	switch {
	case ok:
		d.Name, d.Amount, d.Unit = name, amount, u
	case d.HasBracket():
		// 只有括號內有數量時，以括號數量作為主要數量
		d.Name = rest
		d.Amount, d.Unit = d.BracketAmount, d.BracketUnit
	default:
		common.LogDebug("無法解析食材行", zap.String("line", line))
		return Descriptor{}, false
	}

	if d.Name == "" {
		common.LogDebug("食材行缺少名稱", zap.String("line", line))
		return Descriptor{}, false
	}
	return d, true
}

// splitNameAmount 以「名稱 數量 單位」拆分括號外文字
//
// 取第一個前面有名稱的數量記號；若所有數量都在開頭（"2개 계란"），名稱取單位之後的文字。
func splitNameAmount(s string) (name, amount, u string, ok bool) {
	spans := scanAmounts(s)
	if len(spans) == 0 {
		return "", "", "", false
	}

	for _, sp := range spans {
		prefix := strings.TrimSpace(s[:sp.start])
		if prefix == "" {
			continue
		}
		u, _ = scanUnit(s[sp.end:])
		return prefix, s[sp.start:sp.end], u, true
	}

	first := spans[0]
	u, n := scanUnit(s[first.end:])
	name = StripQuantity(s[first.end+n:])
	return name, s[first.start:first.end], u, true
}

// StripQuantity 去除名稱中的數量、單位與括號文字，只留下食材名
//
// 結果再次呼叫 StripQuantity 不會改變。
func StripQuantity(name string) string {
	outside, _ := splitParens(joinThousands(textutil.Fold(name)))

	var sb strings.Builder
	last := 0
	for _, sp := range scanAmounts(outside) {
		sb.WriteString(outside[last:sp.start])
		last = sp.end
		// 只在單位為已知單位時連同單位一起移除，避免吃掉 "3분카레" 的名稱部分
		if u, n := scanUnit(outside[sp.end:]); u != "" && unit.Known(u) {
			last = sp.end + n
		}
		sb.WriteByte(' ')
	}
	sb.WriteString(outside[last:])
	return textutil.CollapseSpaces(sb.String())
}

// ParseLines 拆分多行文字並逐行解析，無法解析的行直接略過
func ParseLines(block string) []Descriptor {
	lines := strings.FieldsFunc(block, func(r rune) bool {
		return r == '\n' || r == '\r'
	})
	out := make([]Descriptor, 0, len(lines))
	for _, line := range lines {
		if d, ok := Parse(line); ok {
			out = append(out, d)
		}
	}
	return out
}

// ParseAll 解析多個字串，每個字串可包含多行
func ParseAll(blocks []string) (descriptors []Descriptor, skipped int) {
	for _, block := range blocks {
		lines := strings.FieldsFunc(block, func(r rune) bool {
			return r == '\n' || r == '\r'
		})
		for _, line := range lines {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if d, ok := Parse(line); ok {
				descriptors = append(descriptors, d)
			} else {
				skipped++
			}
		}
	}
	return descriptors, skipped
}

// FromRecord 將外部食譜資料的 {IRDNT_NM, IRDNT_CPCTY} 轉為 Descriptor
//
// 容量無法解析時（例如 "약간"）仍保留名稱，數量留空。
func FromRecord(name, capacity string) (Descriptor, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Descriptor{}, false
	}
	if d, ok := Parse(name + " " + capacity); ok {
		return d, true
	}
	stripped := StripQuantity(name)
	if stripped == "" {
		return Descriptor{}, false
	}
	return Descriptor{Name: stripped}, true
}
