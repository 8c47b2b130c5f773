package screening

import (
	"math"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// PhoneticScore is one minus the Levenshtein distance between a and b
// divided by the longer length, measured in runes. Identical strings score 1.
func PhoneticScore(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	d := edlib.LevenshteinDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// CosineSimilarity of two equal-length vectors. Zero-norm inputs and
// non-finite results yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return 0
	}
	return sim
}
