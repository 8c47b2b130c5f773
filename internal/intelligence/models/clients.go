package models

import (
	"context"

	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

// Endpoint paths relative to each service's base URL.
const (
	TokenizePath      = "/v1/tokenize"
	TransliteratePath = "/v1/transliterate"
	G2PPath           = "/v1/g2p"
	EmbedPath         = "/v1/embed"
)

type textRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode,omitempty"`
}

// Tokenizer is the morphological tokenizer client.
type Tokenizer struct {
	serving *ServingClient
}

// NewTokenizer wraps a serving client.
func NewTokenizer(c *ServingClient) *Tokenizer { return &Tokenizer{serving: c} }

// Tokenize implements trademark.Tokenizer.
func (t *Tokenizer) Tokenize(ctx context.Context, text string) ([]string, error) {
	var out struct {
		Tokens []string `json:"tokens"`
	}
	if err := t.serving.Predict(ctx, TokenizePath, textRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	if out.Tokens == nil {
		out.Tokens = []string{}
	}
	return out.Tokens, nil
}

// Transliterator is the Hangul romanization / IPA client.
type Transliterator struct {
	serving *ServingClient
}

// NewTransliterator wraps a serving client.
func NewTransliterator(c *ServingClient) *Transliterator { return &Transliterator{serving: c} }

// Transliterate implements trademark.Transliterator.
func (t *Transliterator) Transliterate(ctx context.Context, text string, mode trademark.TransliterationMode) (string, error) {
	if err := checkMode(mode); err != nil {
		return "", err
	}
	var out struct {
		Result string `json:"result"`
	}
	if err := t.serving.Predict(ctx, TransliteratePath, textRequest{Text: text, Mode: string(mode)}, &out); err != nil {
		return "", err
	}
	return out.Result, nil
}

// G2P converts non-Hangul graphemes to IPA.
type G2P struct {
	serving *ServingClient
}

// NewG2P wraps a serving client.
func NewG2P(c *ServingClient) *G2P { return &G2P{serving: c} }

// ToIPA implements trademark.GraphemeToIPA.
func (g *G2P) ToIPA(ctx context.Context, text string) (string, error) {
	var out struct {
		IPA string `json:"ipa"`
	}
	if err := g.serving.Predict(ctx, G2PPath, textRequest{Text: text}, &out); err != nil {
		return "", err
	}
	return out.IPA, nil
}

// Embedder is the sentence-embedding client.
type Embedder struct {
	serving *ServingClient
}

// NewEmbedder wraps a serving client.
func NewEmbedder(c *ServingClient) *Embedder { return &Embedder{serving: c} }

// Embed implements trademark.Embedder. An empty vector is a computation
// failure, not a zero-similarity answer.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var out struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := e.serving.Predict(ctx, EmbedPath, textRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, errors.New(errors.ErrCodeCheckComputation, "embedding response carries no vector")
	}
	return out.Embedding, nil
}

func checkMode(mode trademark.TransliterationMode) error {
	switch mode {
	case trademark.ModeRomanized, trademark.ModeIPA:
		return nil
	default:
		return errors.New(errors.ErrCodeValidation, "unsupported transliteration mode "+string(mode))
	}
}
