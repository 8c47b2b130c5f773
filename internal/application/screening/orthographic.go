package screening

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/trademark-screening/internal/domain/trademark"
)

// orthographicMatcher collects marks spelled close to the candidate, both by
// romanization and by the native title.
type orthographicMatcher struct {
	index     trademark.MarkIndex
	translit  trademark.Transliterator
	fuzziness int
}

func (m *orthographicMatcher) match(ctx context.Context, name string) (trademark.SimilarNames, error) {
	romanized, err := m.translit.Transliterate(ctx, name, trademark.ModeRomanized)
	if err != nil {
		return trademark.SimilarNames{}, collaboratorErr(ctx, "transliterator", err)
	}

	var byRomanized, byNative []trademark.MarkRecord
	g, gctx := errgroup.WithContext(ctx)
	goSafe(g, "search index", func() error {
		hits, err := m.index.Fuzzy(gctx, trademark.FieldRomanizedTitle, romanized, m.fuzziness)
		if err != nil {
			return collaboratorErr(gctx, "search index", err)
		}
		byRomanized = hits
		return nil
	})
	goSafe(g, "search index", func() error {
		hits, err := m.index.Fuzzy(gctx, trademark.FieldTitle, name, m.fuzziness)
		if err != nil {
			return collaboratorErr(gctx, "search index", err)
		}
		byNative = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		return trademark.SimilarNames{}, err
	}

	// Plain union: a mark hit by both queries is listed twice.
	matches := make([]trademark.SimilarMark, 0, len(byRomanized)+len(byNative))
	for _, rec := range byRomanized {
		matches = append(matches, trademark.SimilarMarkFrom(rec))
	}
	for _, rec := range byNative {
		matches = append(matches, trademark.SimilarMarkFrom(rec))
	}
	return trademark.NewSimilarNames(matches), nil
}
