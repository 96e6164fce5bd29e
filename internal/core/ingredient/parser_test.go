package ingredient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Descriptor
	}{
		{
			name: "primary with bracket",
			line: "양파 100g(1/2개)",
			want: Descriptor{Name: "양파", Amount: "100", Unit: "g", BracketAmount: "1/2", BracketUnit: "개"},
		},
		{
			name: "surrounding whitespace",
			line: "   계란 3개  ",
			want: Descriptor{Name: "계란", Amount: "3", Unit: "개"},
		},
		{
			name: "no space between name and amount",
			line: "감자2개",
			want: Descriptor{Name: "감자", Amount: "2", Unit: "개"},
		},
		{
			name: "decimal amount",
			line: "간장 1.5큰술",
			want: Descriptor{Name: "간장", Amount: "1.5", Unit: "큰술"},
		},
		{
			name: "fraction amount",
			line: "우유 1/2컵",
			want: Descriptor{Name: "우유", Amount: "1/2", Unit: "컵"},
		},
		{
			name: "amount without unit",
			line: "계란 2",
			want: Descriptor{Name: "계란", Amount: "2"},
		},
		{
			name: "multi word name",
			line: "닭 가슴살 200 g",
			want: Descriptor{Name: "닭 가슴살", Amount: "200", Unit: "g"},
		},
		{
			name: "trailing modifier dropped",
			line: "설탕 1큰술 정도",
			want: Descriptor{Name: "설탕", Amount: "1", Unit: "큰술"},
		},
		{
			name: "thousands separator",
			line: "우유 1,000ml",
			want: Descriptor{Name: "우유", Amount: "1000", Unit: "ml"},
		},
		{
			name: "thousands separator in bracket",
			line: "쌀 2컵(1,200,000mg)",
			want: Descriptor{Name: "쌀", Amount: "2", Unit: "컵", BracketAmount: "1200000", BracketUnit: "mg"},
		},
		{
			name: "bracket only",
			line: "소금(1작은술)",
			want: Descriptor{Name: "소금", Amount: "1", Unit: "작은술", BracketAmount: "1", BracketUnit: "작은술"},
		},
		{
			name: "leading quantity",
			line: "2개 계란",
			want: Descriptor{Name: "계란", Amount: "2", Unit: "개"},
		},
		{
			name: "full width input",
			line: "양파 １００ｇ",
			want: Descriptor{Name: "양파", Amount: "100", Unit: "g"},
		},
		{
			name: "bracket without amount ignored",
			line: "대파(흰 부분) 1대",
			want: Descriptor{Name: "대파", Amount: "1", Unit: "대"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, line := range []string{"", "   ", "소금 약간", "(약간)", "100g"} {
		t.Run(line, func(t *testing.T) {
			_, ok := Parse(line)
			assert.False(t, ok)
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	descriptors := []Descriptor{
		{Name: "양파", Amount: "100", Unit: "g"},
		{Name: "계란", Amount: "3", Unit: "개"},
		{Name: "닭 가슴살", Amount: "250", Unit: "g", BracketAmount: "1", BracketUnit: "팩"},
		{Name: "간장", Amount: "1.5", Unit: "큰술"},
		{Name: "물", Amount: "500", Unit: "ml", BracketAmount: "2.5", BracketUnit: "컵"},
		{Name: "두부", Amount: "1"},
	}
	for _, d := range descriptors {
		t.Run(Render(d), func(t *testing.T) {
			got, ok := Parse(Render(d))
			require.True(t, ok)
			assert.Equal(t, d, got)
		})
	}
}

func TestRender(t *testing.T) {
	d := Descriptor{Name: "양파", Amount: "100", Unit: "g", BracketAmount: "1/2", BracketUnit: "개"}
	assert.Equal(t, "양파 100g(1/2개)", Render(d))
	assert.Equal(t, "양파 100g(1/2개)", d.String())
	assert.Equal(t, "양파", Render(Descriptor{Name: "양파"}))
}

func TestDescriptor_Quantities(t *testing.T) {
	d := Descriptor{Name: "양파", Amount: "100", Unit: "g", BracketAmount: "1/2", BracketUnit: "개"}

	q, ok := d.Quantity()
	require.True(t, ok)
	assert.Equal(t, "100", q.String())

	bq, ok := d.BracketQuantity()
	require.True(t, ok)
	assert.Equal(t, "0.5", bq.String())

	assert.True(t, d.HasBracket())
	assert.False(t, d.BracketSameAsPrimary())

	same := Descriptor{Name: "소금", Amount: "1", Unit: "작은술", BracketAmount: "1.0", BracketUnit: "tsp"}
	assert.True(t, same.BracketSameAsPrimary())

	_, ok = Descriptor{Name: "소금", Amount: "1/0"}.Quantity()
	assert.False(t, ok)
}

func TestStripQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"양파 100g(1/2개)", "양파"},
		{"계란 3개", "계란"},
		{"다진 마늘 2쪽", "다진 마늘"},
		{"우유 1/2컵 (냉장)", "우유"},
		{"3분카레", "분카레"},
		{"닭 가슴살", "닭 가슴살"},
		{"  소금   약간 ", "소금 약간"},
		{"우유 1,000ml", "우유"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, StripQuantity(tt.in))
		})
	}
}

func TestStripQuantity_Idempotent(t *testing.T) {
	inputs := []string{
		"양파 100g(1/2개)",
		"3분카레 2개입",
		"((중첩) 괄호) 1큰술",
		"닫히지 않은 (괄호 1g",
		"1.5kg 감자 2 개",
		"토마토) 2",
	}
	for _, s := range inputs {
		once := StripQuantity(s)
		assert.Equal(t, once, StripQuantity(once), "input %q", s)
	}
}

func TestParseLines(t *testing.T) {
	got := ParseLines("양파 1개\n\n소금 약간\r\n계란 2개")
	require.Len(t, got, 2)
	assert.Equal(t, "양파", got[0].Name)
	assert.Equal(t, "계란", got[1].Name)

	descriptors, skipped := ParseAll([]string{"양파 1개\n소금 약간", "", "물 200ml"})
	assert.Len(t, descriptors, 2)
	assert.Equal(t, 1, skipped)
}

func TestFromRecord(t *testing.T) {
	d, ok := FromRecord("돼지고기", "300g")
	require.True(t, ok)
	assert.Equal(t, Descriptor{Name: "돼지고기", Amount: "300", Unit: "g"}, d)

	d, ok = FromRecord("후추", "약간")
	require.True(t, ok)
	assert.Equal(t, Descriptor{Name: "후추"}, d)

	_, ok = FromRecord("  ", "1개")
	assert.False(t, ok)
}
