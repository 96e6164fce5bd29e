// Package textutil 提供食材與收據文字共用的正規化工具
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Fold 將全形英數字轉為半形，並將韓文組合為 NFC
//
// OCR 與手機鍵盤輸入常混入全形字（"１００ｇ"）或分解的 Hangul jamo。
func Fold(s string) string {
	t := transform.Chain(norm.NFC, width.Fold)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// CompactKey 去除所有空白並轉小寫，作為名稱比較鍵
func CompactKey(s string) string {
	s = strings.ToLower(Fold(s))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// CollapseSpaces 合併連續空白並去除首尾空白
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsHangul 判斷字元是否為韓文
func IsHangul(r rune) bool {
	return unicode.Is(unicode.Hangul, r)
}

// IsLatin 判斷字元是否為拉丁字母
func IsLatin(r rune) bool {
	return unicode.Is(unicode.Latin, r)
}
