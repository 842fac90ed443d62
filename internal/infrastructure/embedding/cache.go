package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/journal-assistant/internal/core/ports"
	"github.com/kirillkom/journal-assistant/internal/infrastructure/cache/redis"
)

const cacheKeyPrefix = "journal:emb:"

type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cached memoizes embeddings in a key-value store keyed by model and text.
// Cache failures are logged and never fail the request.
type Cached struct {
	inner   ports.Embedder
	store   kvStore
	ttl     time.Duration
	lookups *prometheus.CounterVec
}

// NewCached wraps inner. lookups, when set, is incremented with label
// "result" = hit or miss.
func NewCached(inner ports.Embedder, store kvStore, ttl time.Duration, lookups *prometheus.CounterVec) *Cached {
	return &Cached{
		inner:   inner,
		store:   store,
		ttl:     ttl,
		lookups: lookups,
	}
}

// Embed keys the cache by the resolved model when inner is an Identifier,
// so hints naming the same model share entries and a backend switch
// never serves vectors of another dimension.
func (c *Cached) Embed(ctx context.Context, text, modelHint string) ([]float32, error) {
	model := modelHint
	if id, ok := c.inner.(Identifier); ok {
		model = id.EmbeddingModel(modelHint)
	}
	key := cacheKey(model, text)

	if vec, ok := c.get(ctx, key); ok {
		c.count("hit")
		return vec, nil
	}
	c.count("miss")

	vec, err := c.inner.Embed(ctx, text, modelHint)
	if err != nil {
		return nil, err
	}

	if err := c.store.SetWithTTL(ctx, key, encodeVector(vec), c.ttl); err != nil {
		slog.Warn("embedding_cache_put_failed", "error", err)
	}
	return vec, nil
}

func (c *Cached) get(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.ErrKeyNotFound) {
			slog.Warn("embedding_cache_get_failed", "error", err)
		}
		return nil, false
	}

	vec, err := decodeVector(data)
	if err != nil || len(vec) == 0 {
		slog.Warn("embedding_cache_corrupt_entry", "key", key, "error", err)
		return nil, false
	}
	return vec, true
}

func (c *Cached) count(result string) {
	if c.lookups != nil {
		c.lookups.WithLabelValues(result).Inc()
	}
}

func cacheKey(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("cached vector length %d is not a multiple of 4", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
