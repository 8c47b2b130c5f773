package models

import (
	"context"
	"strings"

	"github.com/mozillazg/go-unidecode"

	"github.com/turtacn/trademark-screening/internal/domain/trademark"
)

// LocalTransliterator serves romanization in-process when no transliteration
// service is configured. IPA requests go to the grapheme-to-IPA service.
type LocalTransliterator struct {
	ipa trademark.GraphemeToIPA
}

// NewLocalTransliterator builds the fallback over ipa.
func NewLocalTransliterator(ipa trademark.GraphemeToIPA) *LocalTransliterator {
	return &LocalTransliterator{ipa: ipa}
}

// Transliterate implements trademark.Transliterator.
func (l *LocalTransliterator) Transliterate(ctx context.Context, text string, mode trademark.TransliterationMode) (string, error) {
	if err := checkMode(mode); err != nil {
		return "", err
	}
	if mode == trademark.ModeIPA {
		return l.ipa.ToIPA(ctx, text)
	}
	return Romanize(text), nil
}

// Romanize transliterates text to ASCII, dropping the separators unidecode
// inserts between syllables.
func Romanize(text string) string {
	return strings.Join(strings.Fields(unidecode.Unidecode(text)), "")
}
