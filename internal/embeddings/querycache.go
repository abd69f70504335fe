package embeddings

import (
	"context"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// WithQueryCache wraps p so repeated single-text Embed calls are served from
// an expirable LRU. EmbedBatch is passed through untouched.
func WithQueryCache(p Provider, size int, ttl time.Duration) Provider {
	if p == nil || size <= 0 || ttl <= 0 {
		return p
	}
	return &cachedProvider{
		next:  p,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type cachedProvider struct {
	next  Provider
	cache *expirable.LRU[string, []float32]
}

func (c *cachedProvider) ModelID() string { return c.next.ModelID() }

func (c *cachedProvider) Dim() int { return c.next.Dim() }

func (c *cachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(c.next.ModelID(), text)
	if v, ok := c.cache.Get(key); ok {
		return cloneVector(v), nil
	}
	v, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, cloneVector(v))
	return v, nil
}

func (c *cachedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return c.next.EmbedBatch(ctx, texts)
}

func cacheKey(modelID, text string) string {
	return modelID + ":" + strconv.FormatUint(xxhash.Sum64String(text), 16) + ":" + strconv.Itoa(len(text))
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
