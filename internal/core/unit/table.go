package unit

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"pantry-engine/internal/pkg/common"
	"pantry-engine/internal/pkg/textutil"
)

//go:embed default_conversions.yaml
var defaultTableYAML []byte

// Rule 一條換算規則：1 From = Factor To
type Rule struct {
	Ingredient string  `mapstructure:"ingredient"`
	From       string  `mapstructure:"from"`
	To         string  `mapstructure:"to"`
	Factor     float64 `mapstructure:"factor"`
}

type tableFile struct {
	Generic     []Rule `mapstructure:"generic"`
	Ingredients []Rule `mapstructure:"ingredients"`
}

// edges 單位 -> 目標單位 -> 倍率
type edges map[string]map[string]decimal.Decimal

func (e edges) add(from, to string, factor decimal.Decimal) {
	if e[from] == nil {
		e[from] = make(map[string]decimal.Decimal)
	}
	e[from][to] = factor
}

// Table 食材別換算表，載入後不再變動
type Table struct {
	generic     edges
	ingredients map[string]edges
}

// NewTable 由規則建立換算表，鍵一律正規化
func NewTable(generic, ingredients []Rule) (*Table, error) {
	t := &Table{
		generic:     make(edges),
		ingredients: make(map[string]edges),
	}
	for _, r := range generic {
		from, to, factor, err := normalizeRule(r)
		if err != nil {
			return nil, fmt.Errorf("generic rule %s->%s: %w", r.From, r.To, err)
		}
		t.generic.add(from, to, factor)
	}
	for _, r := range ingredients {
		key := IngredientKey(r.Ingredient)
		if key == "" {
			return nil, fmt.Errorf("rule %s->%s: ingredient is required", r.From, r.To)
		}
		from, to, factor, err := normalizeRule(r)
		if err != nil {
			return nil, fmt.Errorf("rule for %s %s->%s: %w", r.Ingredient, r.From, r.To, err)
		}
		if t.ingredients[key] == nil {
			t.ingredients[key] = make(edges)
		}
		t.ingredients[key].add(from, to, factor)
	}
	return t, nil
}

func normalizeRule(r Rule) (string, string, decimal.Decimal, error) {
	from, to := Normalize(r.From), Normalize(r.To)
	if from == "" || to == "" {
		return "", "", decimal.Zero, fmt.Errorf("from and to units are required")
	}
	if r.Factor <= 0 {
		return "", "", decimal.Zero, fmt.Errorf("factor must be positive, got %v", r.Factor)
	}
	return from, to, decimal.NewFromFloat(r.Factor), nil
}

// IngredientKey 換算表使用的食材鍵
func IngredientKey(name string) string {
	return textutil.CompactKey(name)
}

// DefaultTable 內建換算表
func DefaultTable() (*Table, error) {
	return parseTable(bytes.NewReader(defaultTableYAML), "yaml")
}

// LoadTable 從檔案載入換算表；path 為空時使用內建表
func LoadTable(path string) (*Table, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultTable()
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read conversion table %s: %w", path, err)
	}
	t, err := decodeTable(v)
	if err != nil {
		return nil, fmt.Errorf("invalid conversion table %s: %w", path, err)
	}

	common.LogInfo("換算表已載入",
		zap.String("path", path),
		zap.Int("ingredients", len(t.ingredients)),
		zap.Int("generic_units", len(t.generic)),
	)
	return t, nil
}

func parseTable(r *bytes.Reader, configType string) (*Table, error) {
	v := viper.New()
	v.SetConfigType(configType)
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("failed to read conversion table: %w", err)
	}
	return decodeTable(v)
}

func decodeTable(v *viper.Viper) (*Table, error) {
	var file tableFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversion table: %w", err)
	}
	return NewTable(file.Generic, file.Ingredients)
}

// Ingredients 換算表中有規則的食材鍵（排序後）
func (t *Table) Ingredients() []string {
	keys := make([]string, 0, len(t.ingredients))
	for k := range t.ingredients {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ratio 換算倍率，以乘數與除數分開保存，最後才做一次除法以避免循環小數誤差
type ratio struct {
	mul decimal.Decimal
	div decimal.Decimal
}

func (r ratio) then(next ratio) ratio {
	return ratio{mul: r.mul.Mul(next.mul), div: r.div.Mul(next.div)}
}

func (r ratio) apply(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(r.mul).Div(r.div)
}

var identity = ratio{mul: decimal.NewFromInt(1), div: decimal.NewFromInt(1)}

// neighbours 列出某單位可一步換算到的單位，含反向規則
func (t *Table) neighbours(ingredient, from string) map[string]ratio {
	out := make(map[string]ratio)
	collect := func(e edges) {
		for to, factor := range e[from] {
			if _, seen := out[to]; !seen {
				out[to] = ratio{mul: factor, div: decimal.NewFromInt(1)}
			}
		}
		for src, targets := range e {
			if factor, ok := targets[from]; ok {
				if _, seen := out[src]; !seen {
					out[src] = ratio{mul: decimal.NewFromInt(1), div: factor}
				}
			}
		}
	}
	// 食材規則優先於通用規則
	if e, ok := t.ingredients[ingredient]; ok {
		collect(e)
	}
	collect(t.generic)
	return out
}
