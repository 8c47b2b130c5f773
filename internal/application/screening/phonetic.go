package screening

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/trademark-screening/internal/domain/trademark"
)

// phoneticMatcher ranks registered marks by resemblance of their IPA
// transcription to the candidate's.
type phoneticMatcher struct {
	index    trademark.MarkIndex
	entities trademark.EntityRegistry
	translit trademark.Transliterator
	g2p      trademark.GraphemeToIPA
	policy   Policy
}

// transcribe builds the candidate's IPA key. Hangul runs go through the
// transliterator, everything else through grapheme-to-phoneme.
func (m *phoneticMatcher) transcribe(ctx context.Context, name string) (string, error) {
	var b strings.Builder
	for _, seg := range splitScript(name) {
		var (
			ipa string
			err error
		)
		if seg.hangul {
			ipa, err = m.translit.Transliterate(ctx, seg.text, trademark.ModeIPA)
			if err != nil {
				return "", collaboratorErr(ctx, "transliterator", err)
			}
		} else {
			ipa, err = m.g2p.ToIPA(ctx, seg.text)
			if err != nil {
				return "", collaboratorErr(ctx, "grapheme-to-phoneme", err)
			}
		}
		b.WriteString(ipa)
	}
	return b.String(), nil
}

func (m *phoneticMatcher) match(ctx context.Context, name string) (trademark.SimilarPronunciations, error) {
	ipa, err := m.transcribe(ctx, name)
	if err != nil {
		return trademark.SimilarPronunciations{}, err
	}
	if ipa == "" {
		return trademark.NewSimilarPronunciations(nil), nil
	}

	hits, err := m.index.Fuzzy(ctx, trademark.FieldIPATitle, ipa, m.policy.Fuzziness)
	if err != nil {
		return trademark.SimilarPronunciations{}, collaboratorErr(ctx, "search index", err)
	}

	large := make([]bool, len(hits))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.policy.concurrency())
	for i, hit := range hits {
		goSafe(g, "entity registry", func() error {
			ok, err := m.entities.IsLargeEntity(gctx, hit.Title)
			if err != nil {
				return collaboratorErr(gctx, "entity registry", err)
			}
			large[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return trademark.SimilarPronunciations{}, err
	}

	var ranked []trademark.SimilarityScore
	for i, hit := range hits {
		score := PhoneticScore(ipa, hit.IPATitle)
		if !m.policy.AcceptPhonetic(score, large[i]) {
			continue
		}
		s := trademark.SimilarityScore{
			MatchedTitle:    hit.Title,
			Score:           score,
			LargeEntity:     large[i],
			ApplicationDate: hit.DateOrPlaceholder(),
		}
		if hit.ImageReference != "" {
			img := hit.ImageReference
			s.ImageReference = &img
		}
		ranked = append(ranked, s)
	}
	// Stable: equal scores keep index order.
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].Score > ranked[b].Score })
	return trademark.NewSimilarPronunciations(ranked), nil
}
