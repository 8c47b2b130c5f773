package screening

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	apperrors "github.com/turtacn/trademark-screening/pkg/errors"
)

type mockMarkIndex struct {
	matchTitleFn func(ctx context.Context, title string, size int) ([]trademark.MarkRecord, error)
	fuzzyFn      func(ctx context.Context, field trademark.MarkField, value string, fuzziness int) ([]trademark.MarkRecord, error)

	mu      sync.Mutex
	queries []trademark.MarkField
}

func (m *mockMarkIndex) MatchTitle(ctx context.Context, title string, size int) ([]trademark.MarkRecord, error) {
	if m.matchTitleFn != nil {
		return m.matchTitleFn(ctx, title, size)
	}
	return nil, nil
}

func (m *mockMarkIndex) Fuzzy(ctx context.Context, field trademark.MarkField, value string, fuzziness int) ([]trademark.MarkRecord, error) {
	m.mu.Lock()
	m.queries = append(m.queries, field)
	m.mu.Unlock()
	if m.fuzzyFn != nil {
		return m.fuzzyFn(ctx, field, value, fuzziness)
	}
	return nil, nil
}

type mockEntityRegistry struct {
	large map[string]bool
	err   error
}

func (m *mockEntityRegistry) IsLargeEntity(_ context.Context, title string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.large[title], nil
}

type mockTransliterator struct {
	transliterateFn func(ctx context.Context, text string, mode trademark.TransliterationMode) (string, error)
}

func (m *mockTransliterator) Transliterate(ctx context.Context, text string, mode trademark.TransliterationMode) (string, error) {
	if m.transliterateFn != nil {
		return m.transliterateFn(ctx, text, mode)
	}
	return string(mode) + ":" + text, nil
}

type mockG2P struct {
	toIPAFn func(ctx context.Context, text string) (string, error)
}

func (m *mockG2P) ToIPA(ctx context.Context, text string) (string, error) {
	if m.toIPAFn != nil {
		return m.toIPAFn(ctx, text)
	}
	return strings.ToLower(text), nil
}

type mockTokenizer struct {
	tokenizeFn func(ctx context.Context, text string) ([]string, error)
}

func (m *mockTokenizer) Tokenize(ctx context.Context, text string) ([]string, error) {
	if m.tokenizeFn != nil {
		return m.tokenizeFn(ctx, text)
	}
	return []string{text}, nil
}

type mockClassifier struct {
	classifyFn func(ctx context.Context, text string, topK int) ([]trademark.ClassScore, error)

	mu    sync.Mutex
	calls []string
}

func (m *mockClassifier) Classify(ctx context.Context, text string, topK int) ([]trademark.ClassScore, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()
	if m.classifyFn != nil {
		return m.classifyFn(ctx, text, topK)
	}
	return []trademark.ClassScore{{Label: "LABEL_1", Score: 0.9}, {Label: "LABEL_0", Score: 0.1}}, nil
}

func (m *mockClassifier) called() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return []float32{1, 0}, nil
}

type observed struct {
	check trademark.CheckName
	err   *apperrors.AppError
}

type mockObserver struct {
	mu     sync.Mutex
	events []observed
}

func (m *mockObserver) ObserveCheck(check trademark.CheckName, _ time.Duration, err *apperrors.AppError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, observed{check: check, err: err})
}

type fixture struct {
	index      *mockMarkIndex
	entities   *mockEntityRegistry
	translit   *mockTransliterator
	g2p        *mockG2P
	tokenizer  *mockTokenizer
	classifier *mockClassifier
	embedder   *mockEmbedder
	observer   *mockObserver
}

func newFixture() *fixture {
	return &fixture{
		index:      &mockMarkIndex{},
		entities:   &mockEntityRegistry{},
		translit:   &mockTransliterator{},
		g2p:        &mockG2P{},
		tokenizer:  &mockTokenizer{},
		classifier: &mockClassifier{},
		embedder:   &mockEmbedder{},
		observer:   &mockObserver{},
	}
}

func (f *fixture) deps() Deps {
	return Deps{
		Index:          f.index,
		Entities:       f.entities,
		Transliterator: f.translit,
		G2P:            f.g2p,
		Tokenizer:      f.tokenizer,
		Classifier:     f.classifier,
		Embedder:       f.embedder,
		Policy:         DefaultPolicy(),
		CheckTimeout:   time.Second,
		Observer:       f.observer,
		NewID:          func() string { return "report-1" },
	}
}
