package inventory

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry-engine/internal/core/ingredient"
	"pantry-engine/internal/core/unit"
	"pantry-engine/internal/pkg/common"
)

func newTestMatcher(t *testing.T, cfg MatcherConfig) *Matcher {
	t.Helper()
	conv, err := unit.NewConverter(nil)
	require.NoError(t, err)
	m, err := NewMatcher(conv, cfg)
	require.NoError(t, err)
	return m
}

func batch(id, name, amount, u string, order int) Batch {
	return Batch{
		ID:               id,
		FoodID:           "food-" + id,
		IngredientName:   name,
		Amount:           decimal.RequireFromString(amount),
		Unit:             u,
		AcquisitionOrder: order,
	}
}

func TestClassify(t *testing.T) {
	m := newTestMatcher(t, MatcherConfig{})

	tests := []struct {
		name     string
		required ingredient.Descriptor
		batches  []Batch
		want     MatchStatus
	}{
		{
			name:     "same unit insufficient",
			required: ingredient.Descriptor{Name: "계란", Amount: "3", Unit: "개"},
			batches:  []Batch{batch("1", "계란", "1", "개", 1)},
			want:     StatusInsufficient,
		},
		{
			name:     "same unit held",
			required: ingredient.Descriptor{Name: "계란", Amount: "3", Unit: "개"},
			batches:  []Batch{batch("1", "계란", "3", "개", 1)},
			want:     StatusHeld,
		},
		{
			name:     "missing",
			required: ingredient.Descriptor{Name: "계란", Amount: "3", Unit: "개"},
			batches:  []Batch{batch("1", "양파", "3", "개", 1)},
			want:     StatusMissing,
		},
		{
			name:     "empty inventory",
			required: ingredient.Descriptor{Name: "계란", Amount: "3", Unit: "개"},
			batches:  nil,
			want:     StatusMissing,
		},
		{
			name:     "recipe name contains inventory name",
			required: ingredient.Descriptor{Name: "다진 마늘", Amount: "2", Unit: "쪽"},
			batches:  []Batch{batch("1", "마늘", "10", "쪽", 1)},
			want:     StatusHeld,
		},
		{
			name:     "alias units compared directly",
			required: ingredient.Descriptor{Name: "우유", Amount: "200", Unit: "ml"},
			batches:  []Batch{batch("1", "우유", "1", "l", 1)},
			want:     StatusHeld,
		},
		{
			name:     "converted amount insufficient",
			required: ingredient.Descriptor{Name: "계란", Amount: "2", Unit: "개"},
			batches:  []Batch{batch("1", "계란", "60", "g", 1)},
			want:     StatusInsufficient,
		},
		{
			name:     "multiple batches summed",
			required: ingredient.Descriptor{Name: "양파", Amount: "300", Unit: "g"},
			batches: []Batch{
				batch("1", "양파", "100", "g", 1),
				batch("2", "양파", "1", "개", 2),
			},
			want: StatusHeld,
		},
		{
			name:     "bracket unit used when primary unconvertible",
			required: ingredient.Descriptor{Name: "배추", Amount: "500", Unit: "g", BracketAmount: "1/2", BracketUnit: "포기"},
			batches:  []Batch{batch("1", "배추", "1", "포기", 1)},
			want:     StatusHeld,
		},
		{
			name:     "bracket unit insufficient",
			required: ingredient.Descriptor{Name: "배추", Amount: "500", Unit: "g", BracketAmount: "1", BracketUnit: "포기"},
			batches:  []Batch{batch("1", "배추", "0.5", "포기", 1)},
			want:     StatusInsufficient,
		},
		{
			name:     "unconvertible defaults to held",
			required: ingredient.Descriptor{Name: "두부", Amount: "2", Unit: "컵"},
			batches:  []Batch{batch("1", "두부", "0", "모", 1)},
			want:     StatusHeld,
		},
		{
			name:     "inventory name used for conversion",
			required: ingredient.Descriptor{Name: "유기농 계란", Amount: "3", Unit: "개"},
			batches:  []Batch{batch("1", "계란", "100", "g", 1)},
			want:     StatusInsufficient,
		},
		{
			name:     "inventory name conversion held",
			required: ingredient.Descriptor{Name: "유기농 계란", Amount: "3", Unit: "개"},
			batches:  []Batch{batch("1", "계란", "200", "g", 1)},
			want:     StatusHeld,
		},
		{
			name:     "no amount defaults to held",
			required: ingredient.Descriptor{Name: "후추"},
			batches:  []Batch{batch("1", "후추", "0", "g", 1)},
			want:     StatusHeld,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Classify(tt.required, tt.batches)
			assert.Equal(t, tt.want, got.Status)
		})
	}
}

func TestClassify_DisplayText(t *testing.T) {
	m := newTestMatcher(t, MatcherConfig{})

	c := m.Classify(ingredient.Descriptor{Name: "양파", Amount: "100", Unit: "g", BracketAmount: "1/2", BracketUnit: "개"}, []Batch{})
	assert.Equal(t, "양파 100g(1/2개)", c.DisplayText)

	c = m.Classify(ingredient.Descriptor{Name: "소금", Amount: "1", Unit: "작은술", BracketAmount: "1", BracketUnit: "작은술"}, []Batch{})
	assert.Equal(t, "소금 1작은술", c.DisplayText)
}

func TestMatcher_Policies(t *testing.T) {
	containment := newTestMatcher(t, MatcherConfig{Policy: PolicyContainment})
	strict := newTestMatcher(t, MatcherConfig{Policy: PolicySimilarity})

	assert.True(t, containment.SameIngredient("대파", "대파무침"))
	assert.False(t, strict.SameIngredient("대파", "대파무침"))

	assert.True(t, strict.SameIngredient("Green Onion", "green onion"))
	assert.True(t, strict.SameIngredient("토마토소스", "토마토 소스 1컵"))
	assert.True(t, strict.SameIngredient("mozzarella", "mozarella"))

	assert.False(t, containment.SameIngredient("", "대파"))
	assert.False(t, strict.SameIngredient("양파", ""))
}

func TestNewMatcher_Validation(t *testing.T) {
	conv, err := unit.NewConverter(nil)
	require.NoError(t, err)

	_, err = NewMatcher(nil, MatcherConfig{})
	assert.Error(t, err)

	_, err = NewMatcher(conv, MatcherConfig{Policy: "exact"})
	assert.Error(t, err)

	_, err = NewMatcher(conv, MatcherConfig{Policy: PolicySimilarity, SimilarityThreshold: 1.5})
	assert.Error(t, err)

	m, err := NewMatcher(conv, MatcherConfig{})
	require.NoError(t, err)
	assert.Equal(t, PolicyContainment, m.Policy())
}

func TestClassifyAll(t *testing.T) {
	m := newTestMatcher(t, MatcherConfig{})
	required := ingredient.ParseLines("계란 3개\n양파 1개\n버터 10g")
	batches := []Batch{
		batch("1", "계란", "1", "개", 1),
		batch("2", "양파", "2", "개", 2),
	}

	got := m.ClassifyAll(required, batches)
	assert.Equal(t, []common.StatusEntry{
		{ID: "0", Name: "계란", Display: "계란 3개", Status: "insufficient"},
		{ID: "1", Name: "양파", Display: "양파 1개", Status: "held"},
		{ID: "2", Name: "버터", Display: "버터 10g", Status: "missing"},
	}, got)
}

func TestMatchStatus_Text(t *testing.T) {
	data, err := json.Marshal(map[string]MatchStatus{"s": StatusInsufficient})
	require.NoError(t, err)
	assert.JSONEq(t, `{"s":"insufficient"}`, string(data))

	var s MatchStatus
	require.NoError(t, s.UnmarshalText([]byte("Missing")))
	assert.Equal(t, StatusMissing, s)
	assert.Error(t, s.UnmarshalText([]byte("unknown")))
	assert.Equal(t, "MatchStatus(9)", MatchStatus(9).String())
}

func TestBatchesFromItems(t *testing.T) {
	var items []common.InventoryItem
	require.NoError(t, common.ParseJSON(`[
		{"id":"a","foodId":"f1","foodName":"양파","quantity":"2","unit":"개"},
		{"id":"b","foodName":"계란","quantity":null,"unit":"개","acquisitionOrder":7},
		{"id":"c","foodId":"f3","foodName":"우유","quantity":-3,"unit":"ml"}
	]`, &items))

	batches := BatchesFromItems(items)
	require.Len(t, batches, 3)
	assert.Equal(t, "2", batches[0].Amount.String())
	assert.Equal(t, 0, batches[0].AcquisitionOrder)
	assert.Equal(t, "b", batches[1].FoodID)
	assert.True(t, batches[1].Amount.IsZero())
	assert.Equal(t, 7, batches[1].AcquisitionOrder)
	assert.True(t, batches[2].Amount.IsZero())
}

func TestBatchesFromItems_IDFallback(t *testing.T) {
	var items []common.InventoryItem
	require.NoError(t, common.ParseJSON(`[
		{"id":1,"foodId":10,"foodName":"양파","quantity":100,"unit":"g"},
		{"foodId":"f2","foodName":"감자","quantity":100,"unit":"g"},
		{"foodName":"당근","quantity":1,"unit":"개"}
	]`, &items))

	batches := BatchesFromItems(items)
	require.Len(t, batches, 3)
	assert.Equal(t, "1", batches[0].ID)
	assert.Equal(t, "10", batches[0].FoodID)
	assert.Equal(t, "f2", batches[1].ID)
	assert.Equal(t, "f2", batches[1].FoodID)
	assert.Equal(t, "item-2", batches[2].ID)
	assert.Equal(t, "item-2", batches[2].FoodID)
}
