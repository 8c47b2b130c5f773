package models

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/trademark-screening/internal/config"
	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
)

// Registry holds the configured model collaborators.
type Registry struct {
	Tokenizer      trademark.Tokenizer
	Transliterator trademark.Transliterator
	G2P            trademark.GraphemeToIPA
	Embedder       trademark.Embedder

	clients []*ServingClient
}

// NewRegistry dials nothing; it builds one serving client per configured URL.
// Without a transliterator URL romanization runs locally.
func NewRegistry(cfg config.ModelsConfig, logger logging.Logger) (*Registry, error) {
	r := &Registry{}
	build := func(name, url string) (*ServingClient, error) {
		c, err := NewServingClient(name, url, cfg, logger)
		if err != nil {
			return nil, err
		}
		r.clients = append(r.clients, c)
		return c, nil
	}

	tok, err := build("tokenizer", cfg.TokenizerURL)
	if err != nil {
		return nil, err
	}
	g2p, err := build("g2p", cfg.G2PURL)
	if err != nil {
		return nil, err
	}
	emb, err := build("embedder", cfg.EmbedderURL)
	if err != nil {
		return nil, err
	}
	r.Tokenizer = NewTokenizer(tok)
	r.G2P = NewG2P(g2p)
	r.Embedder = NewEmbedder(emb)

	if cfg.TransliteratorURL == "" {
		logger.Info("no transliteration service configured, romanizing locally")
		r.Transliterator = NewLocalTransliterator(r.G2P)
	} else {
		tr, err := build("transliterator", cfg.TransliteratorURL)
		if err != nil {
			return nil, err
		}
		r.Transliterator = NewTransliterator(tr)
	}
	return r, nil
}

// HealthCheck probes every remote model service concurrently.
func (r *Registry) HealthCheck(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range r.clients {
		c := c
		g.Go(func() error { return c.Healthy(ctx) })
	}
	return g.Wait()
}

// Close closes every serving client.
func (r *Registry) Close() error {
	for _, c := range r.clients {
		_ = c.Close()
	}
	return nil
}
