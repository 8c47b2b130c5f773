// Package screening is the trademark conflict-analysis engine. Given a
// candidate name and an optional product category it runs six independent
// checks against the registered-mark index and the NLP collaborators and
// aggregates them into a single report. One failed check never hides the
// results of the others.
package screening

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/trademark-screening/pkg/errors"
)

// DefaultCheckTimeout bounds each check when Deps.CheckTimeout is zero.
const DefaultCheckTimeout = 10 * time.Second

// ---------------------------------------------------------------------------
// Port interfaces
// ---------------------------------------------------------------------------

// Service screens one candidate at a time. Implementations hold no state
// between calls and are safe for concurrent use.
type Service interface {
	Screen(ctx context.Context, candidate trademark.Candidate) (*trademark.Report, error)
}

// Observer receives one event per finished check. err is nil on success.
type Observer interface {
	ObserveCheck(check trademark.CheckName, elapsed time.Duration, err *apperrors.AppError)
}

// Deps wires the engine to its collaborators.
type Deps struct {
	Index          trademark.MarkIndex
	Entities       trademark.EntityRegistry
	Transliterator trademark.Transliterator
	G2P            trademark.GraphemeToIPA
	Tokenizer      trademark.Tokenizer
	Classifier     trademark.SentimentClassifier
	Embedder       trademark.Embedder

	Policy       Policy
	CheckTimeout time.Duration

	Observer Observer
	Logger   logging.Logger

	// Now and NewID default to time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type engine struct {
	exact    *exactMatcher
	ortho    *orthographicMatcher
	phonetic *phoneticMatcher
	accept   *acceptabilityScreener
	distinct *distinctivenessScorer
	timeout  time.Duration
	observer Observer
	logger   logging.Logger
	now      func() time.Time
	newID    func() string
}

// NewEngine validates deps and returns a ready Service.
func NewEngine(deps Deps) (Service, error) {
	missing := func(name string) error {
		return apperrors.InvalidParam(fmt.Sprintf("screening engine: %s is required", name))
	}
	switch {
	case deps.Index == nil:
		return nil, missing("mark index")
	case deps.Entities == nil:
		return nil, missing("entity registry")
	case deps.Transliterator == nil:
		return nil, missing("transliterator")
	case deps.G2P == nil:
		return nil, missing("grapheme-to-phoneme converter")
	case deps.Tokenizer == nil:
		return nil, missing("tokenizer")
	case deps.Classifier == nil:
		return nil, missing("sentiment classifier")
	case deps.Embedder == nil:
		return nil, missing("embedder")
	}

	e := &engine{
		exact:    &exactMatcher{index: deps.Index, window: deps.Policy.ExactWindow},
		ortho:    &orthographicMatcher{index: deps.Index, translit: deps.Transliterator, fuzziness: deps.Policy.Fuzziness},
		phonetic: &phoneticMatcher{index: deps.Index, entities: deps.Entities, translit: deps.Transliterator, g2p: deps.G2P, policy: deps.Policy},
		accept:   newAcceptabilityScreener(deps.Tokenizer, deps.Classifier, deps.Policy),
		distinct: &distinctivenessScorer{embedder: deps.Embedder, policy: deps.Policy},
		timeout:  deps.CheckTimeout,
		observer: deps.Observer,
		logger:   deps.Logger,
		now:      deps.Now,
		newID:    deps.NewID,
	}
	if e.timeout <= 0 {
		e.timeout = DefaultCheckTimeout
	}
	if e.logger == nil {
		e.logger = logging.NewNopLogger()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e, nil
}

// Screen runs every check concurrently and waits for all of them. The only
// error it returns is a validation error for an empty name; collaborator and
// computation failures are recorded per check in the report.
func (e *engine) Screen(ctx context.Context, candidate trademark.Candidate) (*trademark.Report, error) {
	name := candidate.NormalizedName()
	if name == "" {
		return nil, apperrors.New(apperrors.ErrCodeCandidateInvalid, "trademark name is required")
	}
	log := logging.FromContext(ctx, e.logger).With(logging.String("name", name))
	started := e.now()

	var (
		res trademark.Results
		wg  sync.WaitGroup
	)
	wg.Add(len(trademark.AllChecks))
	go func() {
		defer wg.Done()
		res.SameName = runCheck(ctx, e, trademark.CheckSameName, func(c context.Context) (trademark.ExactMatch, error) {
			return e.exact.match(c, name)
		})
	}()
	go func() {
		defer wg.Done()
		res.SimilarNames = runCheck(ctx, e, trademark.CheckSimilarName, func(c context.Context) (trademark.SimilarNames, error) {
			return e.ortho.match(c, name)
		})
	}()
	go func() {
		defer wg.Done()
		res.SimilarPronun = runCheck(ctx, e, trademark.CheckSimilarPronun, func(c context.Context) (trademark.SimilarPronunciations, error) {
			return e.phonetic.match(c, name)
		})
	}()
	go func() {
		defer wg.Done()
		res.Tokens = runCheck(ctx, e, trademark.CheckTokenize, func(c context.Context) (trademark.TokenList, error) {
			return e.accept.tokens(c, name)
		})
	}()
	go func() {
		defer wg.Done()
		res.Acceptability = runCheck(ctx, e, trademark.CheckAcceptability, func(c context.Context) (trademark.Acceptability, error) {
			return e.accept.screen(c, name)
		})
	}()
	go func() {
		defer wg.Done()
		res.Distinctiveness = runCheck(ctx, e, trademark.CheckDistinctiveness, func(c context.Context) (float64, error) {
			return e.distinct.score(c, candidate.Name, candidate.ProductCategory)
		})
	}()
	wg.Wait()

	failures := res.Failures()
	for check, ae := range failures {
		log.Warn("check failed",
			logging.String("check", string(check)),
			logging.String("code", ae.Code.String()),
			logging.Err(ae))
	}
	log.Info("screening completed",
		logging.Int("failed_checks", len(failures)),
		logging.Duration("elapsed", e.now().Sub(started)))

	return &trademark.Report{
		ID:              e.newID(),
		RequesterID:     candidate.RequesterID,
		Name:            candidate.Name,
		ProductCategory: candidate.ProductCategory,
		CreatedAt:       started.UTC(),
		Results:         res,
	}, nil
}

type checkResult[T any] struct {
	value T
	err   error
}

// runCheck executes fn under the per-check deadline. A check that panics or
// outlives its deadline becomes a failed Outcome; the collaborator call left
// behind is abandoned and its result discarded.
func runCheck[T any](ctx context.Context, e *engine, check trademark.CheckName, fn func(context.Context) (T, error)) trademark.Outcome[T] {
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	started := e.now()

	done := make(chan checkResult[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- checkResult[T]{err: apperrors.New(apperrors.ErrCodeCheckComputation, fmt.Sprintf("%s panicked: %v", check, r))}
			}
		}()
		v, err := fn(cctx)
		done <- checkResult[T]{value: v, err: err}
	}()

	var out trademark.Outcome[T]
	select {
	case r := <-done:
		if r.err != nil {
			out = trademark.Failed[T](r.err)
		} else {
			out = trademark.Succeeded(r.value)
		}
	case <-cctx.Done():
		code := apperrors.ErrCodeCollaboratorTimeout
		msg := fmt.Sprintf("%s exceeded %s", check, e.timeout)
		if errors.Is(ctx.Err(), context.Canceled) {
			code = apperrors.ErrCodeCollaboratorUnavailable
			msg = fmt.Sprintf("%s cancelled", check)
		}
		out = trademark.Failed[T](apperrors.Wrap(cctx.Err(), code, msg))
	}

	if e.observer != nil {
		e.observer.ObserveCheck(check, e.now().Sub(started), out.Err())
	}
	return out
}
