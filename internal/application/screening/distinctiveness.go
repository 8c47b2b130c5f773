package screening

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/trademark-screening/internal/domain/trademark"
)

// distinctivenessScorer measures how much of the candidate name is just its
// product category restated.
type distinctivenessScorer struct {
	embedder trademark.Embedder
	policy   Policy
}

// Remainder drops the first occurrence of category from name and trims the
// result.
func Remainder(name, category string) string {
	return strings.TrimSpace(strings.Replace(name, category, "", 1))
}

func (s *distinctivenessScorer) score(ctx context.Context, name, category string) (float64, error) {
	if s.policy.PinDistinctiveness {
		return s.policy.DistinctivenessValue, nil
	}
	if strings.TrimSpace(category) == "" {
		return 0, nil
	}
	remainder := Remainder(name, category)

	var remVec, catVec []float32
	g, gctx := errgroup.WithContext(ctx)
	goSafe(g, "embedder", func() error {
		v, err := s.embedder.Embed(gctx, remainder)
		if err != nil {
			return collaboratorErr(gctx, "embedder", err)
		}
		remVec = v
		return nil
	})
	goSafe(g, "embedder", func() error {
		v, err := s.embedder.Embed(gctx, category)
		if err != nil {
			return collaboratorErr(gctx, "embedder", err)
		}
		catVec = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if len(remVec) != len(catVec) {
		return 0, computationErr("embedding dimensions differ: %d vs %d", len(remVec), len(catVec))
	}
	return CosineSimilarity(remVec, catVec), nil
}
