package screening

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhoneticScore(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "samsʌŋ", "samsʌŋ", 1},
		{"both empty", "", "", 1},
		{"one empty", "abc", "", 0},
		{"two edits in ten", "abcdefghij", "abcdefgh", 0.8},
		{"substitution", "abcd", "abxd", 0.75},
		{"runes not bytes", "ʌŋ", "ʌn", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PhoneticScore(tt.a, tt.b), 1e-9)
		})
	}
}

func TestPhoneticScore_Symmetric(t *testing.T) {
	assert.Equal(t, PhoneticScore("kʰatʰɯ", "katɯ"), PhoneticScore("katɯ", "kʰatʰɯ"))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-6)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	assert.Zero(t, CosineSimilarity(nil, nil))
	assert.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 2}))

	nan := float32(math.NaN())
	assert.Zero(t, CosineSimilarity([]float32{nan, 1}, []float32{1, 1}))
}

func TestSplitScript(t *testing.T) {
	got := splitScript("삼성abc전자 X")
	assert.Equal(t, []segment{
		{text: "삼성", hangul: true},
		{text: "abc"},
		{text: "전자", hangul: true},
		{text: " X"},
	}, got)

	assert.Nil(t, splitScript(""))
	assert.Equal(t, []segment{{text: "치킨", hangul: true}}, splitScript("치킨"))
	assert.Equal(t, []segment{{text: "KFC"}}, splitScript("KFC"))
}

func TestPolicy_AcceptPhonetic(t *testing.T) {
	p := DefaultPolicy()
	assert.True(t, p.AcceptPhonetic(0.6, true))
	assert.False(t, p.AcceptPhonetic(0.6, false))
	assert.True(t, p.AcceptPhonetic(0.75, false))
	assert.False(t, p.AcceptPhonetic(0.55, true))
	assert.False(t, p.AcceptPhonetic(0.7, false))
}
