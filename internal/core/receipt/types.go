// Package receipt 將收據 OCR 片段轉為食材紀錄
package receipt

import "pantry-engine/internal/pkg/common"

// NoUnit 找不到重量時的單位
const NoUnit = "없음"

// Fragment OCR 辨識出的一段文字與其垂直位置
type Fragment struct {
	Text string  `json:"text"`
	Y    float64 `json:"y"`
}

// Record 一項收據食材
type Record struct {
	Name   string `json:"name"`
	Weight string `json:"weight"`
	Unit   string `json:"unit"`
	Count  string `json:"count"`
}

// Result 擷取結果；Lines 僅供除錯顯示
type Result struct {
	Records []Record     `json:"records"`
	Lines   [][]Fragment `json:"lines"`
}

// FoodEntries 轉為新增食材 API 的請求項目
func (r Result) FoodEntries() []common.FoodEntry {
	entries := make([]common.FoodEntry, 0, len(r.Records))
	for _, rec := range r.Records {
		entries = append(entries, common.FoodEntry{
			Name:   rec.Name,
			Weight: rec.Weight,
			Unit:   rec.Unit,
			Count:  rec.Count,
		})
	}
	return entries
}
