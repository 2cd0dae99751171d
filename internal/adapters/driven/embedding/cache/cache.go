// Package cache provides decorators around an EmbeddingService.
//
// Cached wraps a provider with an expiring LRU keyed by input text, so
// repeated queries skip the provider round trip. Serialized wraps a
// provider that cannot handle concurrent calls behind a mutex.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
)

var (
	_ driven.EmbeddingService = (*Cached)(nil)
	_ driven.EmbeddingService = (*Serialized)(nil)
)

// Cached memoises embeddings in an expiring LRU.
type Cached struct {
	driven.EmbeddingService
	lru *expirable.LRU[string, []float32]
}

// NewCached wraps inner with an LRU of the given size and TTL.
// A non-positive size returns inner unchanged.
func NewCached(inner driven.EmbeddingService, size int, ttl time.Duration) driven.EmbeddingService {
	if size <= 0 {
		return inner
	}
	return &Cached{
		EmbeddingService: inner,
		lru:              expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

// Embed returns the cached vector for text or asks the provider.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.lru.Get(text); ok {
		return vec, nil
	}
	vec, err := c.EmbeddingService.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.lru.Add(text, vec)
	return vec, nil
}

// EmbedBatch serves hits from the cache and sends only misses to the provider.
func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		if vec, ok := c.lru.Get(text); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.EmbeddingService.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
		c.lru.Add(missTexts[j], vecs[j])
	}
	return out, nil
}

// Len returns the number of cached entries.
func (c *Cached) Len() int {
	return c.lru.Len()
}

// Close purges the cache and closes the provider.
func (c *Cached) Close() error {
	c.lru.Purge()
	return c.EmbeddingService.Close()
}

// Serialized allows one provider call at a time.
type Serialized struct {
	driven.EmbeddingService
	mu sync.Mutex
}

// NewSerialized wraps inner behind a mutex.
func NewSerialized(inner driven.EmbeddingService) *Serialized {
	return &Serialized{EmbeddingService: inner}
}

// Embed calls the provider while holding the lock.
func (s *Serialized) Embed(ctx context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.EmbeddingService.Embed(ctx, text)
}

// EmbedBatch calls the provider while holding the lock.
func (s *Serialized) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.EmbeddingService.EmbedBatch(ctx, texts)
}
