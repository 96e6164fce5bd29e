package receipt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry-engine/internal/pkg/common"
)

func newTestExtractor(t *testing.T, opts Options) *Extractor {
	t.Helper()
	e, err := NewExtractor(opts)
	require.NoError(t, err)
	return e
}

func TestExtract(t *testing.T) {
	e := newTestExtractor(t, Options{})

	fragments := []Fragment{
		{Text: "이마트 성수점", Y: 5},
		{Text: "8801234567890", Y: 40},
		{Text: "01 서울우유 1L", Y: 50},
		{Text: "2,980", Y: 52},
		{Text: "01P", Y: 55},
		{Text: "02 CJ 햇반 210g", Y: 80},
		{Text: "3", Y: 84},
		{Text: "03 노브랜드 대파", Y: 110},
		{Text: "1", Y: 112},
		{Text: "합계", Y: 200},
	}

	got := e.Extract(fragments)
	assert.Equal(t, []Record{
		{Name: "서울우유", Weight: "1", Unit: "l", Count: "1"},
		{Name: "햇반", Weight: "210", Unit: "g", Count: "3"},
		{Name: "대파", Weight: "0", Unit: NoUnit, Count: "1"},
	}, got.Records)

	for _, line := range got.Lines {
		for _, f := range line {
			assert.NotEqual(t, "8801234567890", f.Text)
			assert.NotEqual(t, "2,980", f.Text)
		}
	}
}

func TestExtract_BarcodeExcluded(t *testing.T) {
	e := newTestExtractor(t, Options{})

	got := e.Extract([]Fragment{
		{Text: "01 1234567890123", Y: 10},
		{Text: "2", Y: 12},
	})
	assert.Empty(t, got.Records)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, []Fragment{{Text: "2", Y: 12}}, got.Lines[0])
}

func TestExtract_PairsUpToShorterGroup(t *testing.T) {
	e := newTestExtractor(t, Options{})

	got := e.Extract([]Fragment{
		{Text: "1 양파 1kg", Y: 10},
		{Text: "2 감자 500g", Y: 30},
		{Text: "2", Y: 50},
	})
	require.Len(t, got.Records, 1)
	assert.Equal(t, Record{Name: "양파", Weight: "1", Unit: "kg", Count: "2"}, got.Records[0])
}

func TestExtract_Empty(t *testing.T) {
	e := newTestExtractor(t, Options{})

	got := e.Extract(nil)
	assert.Empty(t, got.Records)
	assert.Empty(t, got.Lines)
	assert.Empty(t, got.FoodEntries())
}

func TestGroupLines(t *testing.T) {
	tests := []struct {
		name   string
		ys     []float64
		groups int
	}{
		{"within threshold", []float64{100, 110}, 1},
		{"beyond threshold", []float64{100, 110.5}, 2},
		{"anchored to first fragment", []float64{100, 106, 112}, 2},
		{"separate rows", []float64{0, 50, 100}, 3},
		{"none", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fragments := make([]Fragment, 0, len(tt.ys))
			for _, y := range tt.ys {
				fragments = append(fragments, Fragment{Text: "x", Y: y})
			}
			assert.Len(t, GroupLines(fragments, DefaultLineThreshold), tt.groups)
		})
	}
}

func TestExtract_CustomThreshold(t *testing.T) {
	e := newTestExtractor(t, Options{LineThreshold: 2})

	got := e.Extract([]Fragment{{Text: "a", Y: 10}, {Text: "b", Y: 13}})
	assert.Len(t, got.Lines, 2)

	_, err := NewExtractor(Options{LineThreshold: -1})
	assert.Error(t, err)
}

func TestClean(t *testing.T) {
	e := newTestExtractor(t, Options{BrandTokens: []string{"한우마을"}})

	tests := []struct {
		in   string
		want string
	}{
		{"02 CJ 햇반 210g", "02 햇반 210g"},
		{"01 노브랜드*대파", "01 대파"},
		{"03 한우마을 불고기 1.5kg", "03 불고기 1.5kg"},
		{"04 우유abc", "04 우유 abc"},
		{"05 Cucumber 2ea", "05 cucumber 2ea"},
		{"06 식빵 1/2", "06 식빵 1/2"},
		{"０１Ｐ", "01p"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Clean(tt.in))
		})
	}
}

func TestNormalizeCount(t *testing.T) {
	assert.Equal(t, "1", normalizeCount("01p"))
	assert.Equal(t, "12", normalizeCount("0012"))
	assert.Equal(t, "0", normalizeCount("00"))
	assert.Equal(t, "3", normalizeCount("3"))
}

func TestFoodEntries(t *testing.T) {
	r := Result{Records: []Record{{Name: "대파", Weight: "0", Unit: NoUnit, Count: "1"}}}
	assert.Equal(t, []common.FoodEntry{{Name: "대파", Weight: "0", Unit: NoUnit, Count: "1"}}, r.FoodEntries())
}
