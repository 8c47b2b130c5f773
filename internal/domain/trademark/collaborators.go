package trademark

import "context"

// MarkField names a searchable field of the combined mark index.
type MarkField string

const (
	FieldTitle          MarkField = "title"
	FieldRomanizedTitle MarkField = "eng_title"
	FieldIPATitle       MarkField = "ipa_title"
)

// MarkIndex is the read side of the registered-mark search index.
type MarkIndex interface {
	// MatchTitle runs a broad match on the name-exact index and returns at
	// most size records in relevance order.
	MatchTitle(ctx context.Context, title string, size int) ([]MarkRecord, error)

	// Fuzzy runs an edit-distance query on one field of the combined index.
	Fuzzy(ctx context.Context, field MarkField, value string, fuzziness int) ([]MarkRecord, error)
}

// EntityRegistry answers whether a title belongs to a notable company.
type EntityRegistry interface {
	IsLargeEntity(ctx context.Context, title string) (bool, error)
}

// TransliterationMode selects the output of a Transliterator.
type TransliterationMode string

const (
	ModeRomanized TransliterationMode = "rr"
	ModeIPA       TransliterationMode = "ipa"
)

// Transliterator converts Hangul text to a Latin romanization or to IPA.
type Transliterator interface {
	Transliterate(ctx context.Context, text string, mode TransliterationMode) (string, error)
}

// GraphemeToIPA converts non-Hangul text to IPA.
type GraphemeToIPA interface {
	ToIPA(ctx context.Context, text string) (string, error)
}

// Tokenizer splits text into morphemes, in order.
type Tokenizer interface {
	Tokenize(ctx context.Context, text string) ([]string, error)
}

// SentimentClassifier returns the topK classes for text, best first.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string, topK int) ([]ClassScore, error)
}

// Embedder maps text to a fixed-length sentence vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
