package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"time"

	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
)

// Collaborator answers are pure functions of their input, so they can be
// memoized across screening runs and instances.

// MemoTransliterator caches transliterations per mode and text.
type MemoTransliterator struct {
	inner trademark.Transliterator
	cache Cache
	ttl   time.Duration
}

// NewMemoTransliterator wraps inner with cache.
func NewMemoTransliterator(inner trademark.Transliterator, cache Cache, ttl time.Duration) *MemoTransliterator {
	return &MemoTransliterator{inner: inner, cache: cache, ttl: ttl}
}

// Transliterate implements trademark.Transliterator.
func (m *MemoTransliterator) Transliterate(ctx context.Context, text string, mode trademark.TransliterationMode) (string, error) {
	var out string
	err := m.cache.GetOrSet(ctx, memoKey("translit:"+string(mode), text), &out, m.ttl, func(ctx context.Context) (interface{}, error) {
		return m.inner.Transliterate(ctx, text, mode)
	})
	if err == ErrCacheMiss {
		return "", nil
	}
	return out, err
}

// MemoEntityRegistry caches large-entity lookups per title.
type MemoEntityRegistry struct {
	inner  trademark.EntityRegistry
	cache  Cache
	ttl    time.Duration
	logger logging.Logger
}

// NewMemoEntityRegistry wraps inner with cache.
func NewMemoEntityRegistry(inner trademark.EntityRegistry, cache Cache, ttl time.Duration, logger logging.Logger) *MemoEntityRegistry {
	return &MemoEntityRegistry{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

// IsLargeEntity implements trademark.EntityRegistry.
func (m *MemoEntityRegistry) IsLargeEntity(ctx context.Context, title string) (bool, error) {
	var large bool
	err := m.cache.GetOrSet(ctx, memoKey("entity", title), &large, m.ttl, func(ctx context.Context) (interface{}, error) {
		return m.inner.IsLargeEntity(ctx, title)
	})
	if err != nil {
		return false, err
	}
	m.logger.Debug("entity lookup", logging.String("title", title), logging.Bool("large", large))
	return large, nil
}

func memoKey(kind, text string) string {
	sum := sha1.Sum([]byte(text))
	return kind + ":" + hex.EncodeToString(sum[:])
}
