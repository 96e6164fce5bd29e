package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseJSON 解析 JSON 字符串到結構體
func ParseJSON(data string, v interface{}) error {
	return decodeJSON(strings.NewReader(data), v)
}

// ParseJSONBytes 解析 JSON 位元組切片到結構體
func ParseJSONBytes(data []byte, v interface{}) error {
	return decodeJSON(bytes.NewReader(data), v)
}

// DecodeJSON 使用統一設定解析 JSON
func DecodeJSON(r io.Reader, v interface{}) error {
	return decodeJSON(r, v)
}

func decodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := dec.Decode(v); err != nil {
		return err
	}

	// 確保沒有多餘資料
	if _, err := dec.Token(); err != io.EOF {
		if err != nil {
			return err
		}
		return fmt.Errorf("unexpected extra JSON data")
	}
	return nil
}

// ToJSON 將結構體轉換為 JSON 字符串
func ToJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// LenientDecimal 寬鬆數量：接受數字或數字字串，無法解析時視為 0
//
// 外部庫存 API 偶爾回傳 "" 、null 或 "1/2" 之類的值，這些都不應讓整個請求失敗。
type LenientDecimal struct {
	decimal.Decimal
}

// NewLenientDecimal 由 decimal 建立
func NewLenientDecimal(d decimal.Decimal) LenientDecimal {
	return LenientDecimal{Decimal: d}
}

// UnmarshalJSON 實現 json.Unmarshaler
func (l *LenientDecimal) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	raw = strings.Trim(raw, `"`)
	raw = strings.ReplaceAll(raw, ",", "")
	if raw == "" || raw == "null" {
		l.Decimal = decimal.Zero
		return nil
	}
	if num, den, ok := strings.Cut(raw, "/"); ok {
		n, errN := decimal.NewFromString(strings.TrimSpace(num))
		d, errD := decimal.NewFromString(strings.TrimSpace(den))
		if errN != nil || errD != nil || d.IsZero() {
			l.Decimal = decimal.Zero
			return nil
		}
		l.Decimal = n.Div(d)
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		l.Decimal = decimal.Zero
		return nil
	}
	l.Decimal = d
	return nil
}

// MarshalJSON 以數字輸出
func (l LenientDecimal) MarshalJSON() ([]byte, error) {
	return []byte(l.Decimal.String()), nil
}

// LenientID 寬鬆識別碼：接受數字或字串，以字串形式保存
//
// 外部庫存 API 的 id 有時是數字、有時是字串；null 或其他型別視為空字串。
type LenientID string

// UnmarshalJSON 實現 json.Unmarshaler
func (id *LenientID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = LenientID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		*id = ""
		return nil
	}
	*id = LenientID(n.String())
	return nil
}

// String 返回字串形式
func (id LenientID) String() string {
	return string(id)
}
