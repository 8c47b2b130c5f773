package screening

import (
	"github.com/turtacn/trademark-screening/internal/config"
	"github.com/turtacn/trademark-screening/internal/domain/trademark"
)

// Policy carries the thresholds and limits the checks apply.
type Policy struct {
	// ExactWindow bounds the hits inspected by the identical-name check.
	ExactWindow int

	// Fuzziness is the edit distance used by the fuzzy index queries.
	Fuzziness int

	// LargeEntityThreshold and StandardThreshold are the strict lower bounds
	// a phonetic score must exceed for notable and ordinary marks.
	LargeEntityThreshold float64
	StandardThreshold    float64

	// NegativeLabel is the classifier label meaning negative sentiment;
	// NegativeThreshold is the strict lower bound on its score.
	NegativeLabel     string
	NegativeThreshold float64

	// AllowList tokens are never sent to the sentiment classifier.
	AllowList []string

	// LookupConcurrency bounds parallel per-hit and per-token collaborator
	// calls inside one check.
	LookupConcurrency int

	PinDistinctiveness   bool
	DistinctivenessValue float64
}

// DefaultPolicy returns the production thresholds.
func DefaultPolicy() Policy {
	return Policy{
		ExactWindow:          config.DefaultExactWindow,
		Fuzziness:            config.DefaultFuzziness,
		LargeEntityThreshold: config.DefaultLargeEntityThreshold,
		StandardThreshold:    config.DefaultStandardThreshold,
		NegativeLabel:        config.DefaultNegativeLabel,
		NegativeThreshold:    config.DefaultNegativeThreshold,
		AllowList:            append([]string(nil), config.DefaultAllowList...),
		LookupConcurrency:    config.DefaultLookupConcurrency,
		DistinctivenessValue: config.DefaultDistinctivenessValue,
	}
}

// PolicyFromConfig maps the engine and index sections onto a Policy.
func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		ExactWindow:          cfg.OpenSearch.ExactWindow,
		Fuzziness:            cfg.Engine.Fuzziness,
		LargeEntityThreshold: cfg.Engine.LargeEntityThreshold,
		StandardThreshold:    cfg.Engine.StandardThreshold,
		NegativeLabel:        cfg.Engine.NegativeLabel,
		NegativeThreshold:    cfg.Engine.NegativeThreshold,
		AllowList:            append([]string(nil), cfg.Engine.AllowList...),
		LookupConcurrency:    cfg.Engine.LookupConcurrency,
		PinDistinctiveness:   cfg.Engine.PinDistinctiveness,
		DistinctivenessValue: cfg.Engine.DistinctivenessValue,
	}
}

// AcceptPhonetic applies the tier-aware acceptance rule: notable marks are
// surfaced at a lower resemblance than ordinary ones.
func (p Policy) AcceptPhonetic(score float64, largeEntity bool) bool {
	if largeEntity {
		return score > p.LargeEntityThreshold
	}
	return score > p.StandardThreshold
}

// IsNegative reports whether the classifier's top class flags a token.
func (p Policy) IsNegative(top []trademark.ClassScore) bool {
	return len(top) > 0 && top[0].Label == p.NegativeLabel && top[0].Score > p.NegativeThreshold
}

func (p Policy) allowSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.AllowList))
	for _, tok := range p.AllowList {
		set[tok] = struct{}{}
	}
	return set
}

func (p Policy) concurrency() int {
	if p.LookupConcurrency < 1 {
		return 1
	}
	return p.LookupConcurrency
}
