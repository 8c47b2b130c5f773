package trademark

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns the canonical comparison form of a name: every Unicode
// white-space rune removed, then NFC-composed. Casing is kept. Whitespace goes
// first so that composition cannot be changed by a later strip, which keeps
// Normalize idempotent.
func Normalize(raw string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	return norm.NFC.String(stripped)
}

// Fold case-folds a name for comparison. A Caser keeps state, so one is built
// per call.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// SameName reports whether two raw names are identical after normalization
// and case folding.
func SameName(a, b string) bool {
	return Fold(Normalize(a)) == Fold(Normalize(b))
}
