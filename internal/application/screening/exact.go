package screening

import (
	"context"

	"github.com/turtacn/trademark-screening/internal/domain/trademark"
)

// exactMatcher finds a registered mark whose title equals the candidate name
// after normalization and case folding.
type exactMatcher struct {
	index  trademark.MarkIndex
	window int
}

func (m *exactMatcher) match(ctx context.Context, name string) (trademark.ExactMatch, error) {
	hits, err := m.index.MatchTitle(ctx, name, m.window)
	if err != nil {
		return trademark.ExactMatch{}, collaboratorErr(ctx, "search index", err)
	}
	for _, hit := range hits {
		if trademark.SameName(hit.Title, name) {
			return trademark.NewExactMatch(hit.Title, true), nil
		}
	}
	return trademark.NewExactMatch("", false), nil
}
