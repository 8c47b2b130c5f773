package screening

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/trademark-screening/internal/domain/trademark"
)

const sentimentTopK = 2

// acceptabilityScreener flags tokens of the candidate name that the
// sentiment classifier reads as confidently negative.
type acceptabilityScreener struct {
	tokenizer  trademark.Tokenizer
	classifier trademark.SentimentClassifier
	policy     Policy
	allow      map[string]struct{}
}

func newAcceptabilityScreener(tok trademark.Tokenizer, cls trademark.SentimentClassifier, p Policy) *acceptabilityScreener {
	return &acceptabilityScreener{tokenizer: tok, classifier: cls, policy: p, allow: p.allowSet()}
}

func (s *acceptabilityScreener) tokens(ctx context.Context, name string) (trademark.TokenList, error) {
	toks, err := s.tokenizer.Tokenize(ctx, name)
	if err != nil {
		return trademark.TokenList{}, collaboratorErr(ctx, "tokenizer", err)
	}
	if toks == nil {
		toks = []string{}
	}
	return trademark.TokenList{Tokens: toks}, nil
}

func (s *acceptabilityScreener) screen(ctx context.Context, name string) (trademark.Acceptability, error) {
	list, err := s.tokens(ctx, name)
	if err != nil {
		return trademark.Acceptability{}, err
	}

	verdicts := make([]*trademark.NegativeToken, len(list.Tokens))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.policy.concurrency())
	for i, tok := range list.Tokens {
		if _, skip := s.allow[tok]; skip {
			continue
		}
		goSafe(g, "sentiment classifier", func() error {
			classes, err := s.classifier.Classify(gctx, tok, sentimentTopK)
			if err != nil {
				return collaboratorErr(gctx, "sentiment classifier", err)
			}
			if !s.policy.IsNegative(classes) {
				return nil
			}
			v := &trademark.NegativeToken{Token: tok, Negative: classes[0].Score}
			if len(classes) > 1 {
				v.Positive = classes[1].Score
			}
			verdicts[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return trademark.Acceptability{}, err
	}

	out := trademark.Acceptability{NegativeTokens: []trademark.NegativeToken{}}
	seen := make(map[trademark.NegativeToken]struct{})
	for _, v := range verdicts {
		if v == nil {
			continue
		}
		if _, dup := seen[*v]; dup {
			continue
		}
		seen[*v] = struct{}{}
		out.NegativeTokens = append(out.NegativeTokens, *v)
	}
	out.AnyNegative = len(out.NegativeTokens) > 0
	return out, nil
}
