package receipt

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"pantry-engine/internal/pkg/common"
	"pantry-engine/internal/pkg/textutil"
)

// DefaultLineThreshold 同一行的最大垂直距離（像素）
const DefaultLineThreshold = 10.0

var (
	barcodeRe   = regexp.MustCompile(`\d{10,}`)
	priceRe     = regexp.MustCompile(`\d{1,3}[,.]\d{3}`)
	countLineRe = regexp.MustCompile(`^\s*0{0,2}\d{1,2}[Pp]?\b`)
	countOnlyRe = regexp.MustCompile(`^0{0,2}\d{1,2}p?$`)
	countHeadRe = regexp.MustCompile(`^0{0,2}\d{1,2}p?\b\s*`)
	weightRe    = regexp.MustCompile(`(?i)(\d+(\.\d+)?)(kg|g|ml|l)`)
)

// Options 擷取設定
type Options struct {
	// LineThreshold 分行門檻，0 表示使用預設值
	LineThreshold float64
	// BrandTokens 額外的品牌名稱，會加在 DefaultBrandTokens 之後
	BrandTokens []string
}

// Extractor 收據擷取器，建立後可同時被多個 goroutine 使用
type Extractor struct {
	threshold float64
	brandRe   *regexp.Regexp
}

// NewExtractor 創建擷取器
func NewExtractor(opts Options) (*Extractor, error) {
	threshold := opts.LineThreshold
	if threshold == 0 {
		threshold = DefaultLineThreshold
	}
	if threshold < 0 {
		return nil, fmt.Errorf("receipt: negative line threshold %v", threshold)
	}
	brandRe, err := compileBrands(append(append([]string{}, DefaultBrandTokens...), opts.BrandTokens...))
	if err != nil {
		return nil, err
	}
	return &Extractor{threshold: threshold, brandRe: brandRe}, nil
}

// compileBrands 將品牌名稱組成不分大小寫的正則，長的優先比對
func compileBrands(tokens []string) (*regexp.Regexp, error) {
	seen := make(map[string]bool, len(tokens))
	quoted := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(textutil.Fold(tok)))
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		q := regexp.QuoteMeta(tok)
		if isASCIIWord(tok) {
			// 英文品牌只比對完整單字，避免 "cu" 吃掉 "cucumber"
			q = `\b` + q + `\b`
		}
		quoted = append(quoted, q)
	}
	if len(quoted) == 0 {
		return nil, nil
	}
	sort.SliceStable(quoted, func(i, j int) bool {
		return len(quoted[i]) > len(quoted[j])
	})
	re, err := regexp.Compile(`(?i)(` + strings.Join(quoted, "|") + `)`)
	if err != nil {
		return nil, fmt.Errorf("receipt: compile brand tokens: %w", err)
	}
	return re, nil
}

func isASCIIWord(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// Extract 將 OCR 片段轉為食材紀錄
func (e *Extractor) Extract(fragments []Fragment) Result {
	kept := filterNoise(fragments)
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Y < kept[j].Y
	})

	result := Result{
		Records: []Record{},
		Lines:   GroupLines(kept, e.threshold),
	}

	var withText, onlyDigits []string
	for _, f := range kept {
		if !countLineRe.MatchString(f.Text) {
			continue
		}
		cleaned := e.Clean(f.Text)
		switch {
		case countOnlyRe.MatchString(cleaned):
			onlyDigits = append(onlyDigits, cleaned)
		case hasLetter(cleaned):
			withText = append(withText, cleaned)
		}
	}

	n := len(withText)
	if len(onlyDigits) < n {
		n = len(onlyDigits)
	}
	for i := 0; i < n; i++ {
		rec, ok := buildRecord(withText[i], onlyDigits[i])
		if !ok {
			continue
		}
		result.Records = append(result.Records, rec)
	}

	common.LogDebug("收據擷取完成",
		zap.Int("fragments", len(fragments)),
		zap.Int("kept", len(kept)),
		zap.Int("with_text", len(withText)),
		zap.Int("only_digits", len(onlyDigits)),
		zap.Int("records", len(result.Records)),
	)
	return result
}

// filterNoise 去除條碼與價格片段，並將全形字轉為半形
func filterNoise(fragments []Fragment) []Fragment {
	kept := make([]Fragment, 0, len(fragments))
	for _, f := range fragments {
		text := textutil.Fold(f.Text)
		if strings.TrimSpace(text) == "" {
			continue
		}
		if barcodeRe.MatchString(text) || priceRe.MatchString(text) {
			continue
		}
		kept = append(kept, Fragment{Text: text, Y: f.Y})
	}
	return kept
}

// GroupLines 依垂直位置將已排序的片段分行
//
// 與該行第一個片段的距離不超過 threshold 即視為同一行。
func GroupLines(sorted []Fragment, threshold float64) [][]Fragment {
	lines := [][]Fragment{}
	var anchor float64
	for _, f := range sorted {
		last := len(lines) - 1
		if last >= 0 && abs(f.Y-anchor) <= threshold {
			lines[last] = append(lines[last], f)
			continue
		}
		anchor = f.Y
		lines = append(lines, []Fragment{f})
	}
	return lines
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Clean 移除品牌名稱與符號，在韓文與英文之間補空白並轉小寫
//
// 只保留韓文、英數字與 "/"；數字之間的小數點保留給重量使用。
func (e *Extractor) Clean(text string) string {
	text = textutil.Fold(text)
	if e.brandRe != nil {
		text = e.brandRe.ReplaceAllString(text, " ")
	}

	runes := []rune(text)
	var sb strings.Builder
	var prev rune
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '/':
		case r == '.' && i > 0 && i+1 < len(runes) && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]):
		default:
			r = ' '
		}
		if prev != 0 && scriptChange(prev, r) {
			sb.WriteByte(' ')
		}
		sb.WriteRune(r)
		prev = r
	}
	return strings.ToLower(textutil.CollapseSpaces(sb.String()))
}

// scriptChange 韓文與拉丁字母相鄰
func scriptChange(a, b rune) bool {
	return (textutil.IsHangul(a) && textutil.IsLatin(b)) || (textutil.IsLatin(a) && textutil.IsHangul(b))
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// buildRecord 由品名行與數量行組成紀錄
func buildRecord(text, count string) (Record, bool) {
	text = countHeadRe.ReplaceAllString(text, "")
	rec := Record{Count: normalizeCount(count)}

	if loc := weightRe.FindStringSubmatchIndex(text); loc != nil {
		rec.Name = strings.TrimSpace(text[:loc[0]])
		rec.Weight = text[loc[2]:loc[3]]
		rec.Unit = strings.ToLower(text[loc[6]:loc[7]])
	} else {
		name := text
		if i := strings.IndexFunc(name, unicode.IsDigit); i >= 0 {
			name = name[:i]
		}
		rec.Name = strings.TrimSpace(name)
		rec.Weight = "0"
		rec.Unit = NoUnit
	}

	if rec.Name == "" {
		return Record{}, false
	}
	return rec, true
}

// normalizeCount 去除補零與結尾的 P，"01p" -> "1"
func normalizeCount(s string) string {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "p")
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	return s
}
