package embedding

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kirillkom/journal-assistant/internal/core/domain"
	"github.com/kirillkom/journal-assistant/internal/infrastructure/cache/redis"
)

func TestSyntheticIsDeterministicUnitVector(t *testing.T) {
	s := NewSynthetic(OpenAIDimensions)

	a, _ := s.Embed(context.Background(), "walked by the river", "")
	b, _ := s.Embed(context.Background(), "walked by the river", "")
	c, _ := s.Embed(context.Background(), "walked by the sea", "")

	if len(a) != OpenAIDimensions {
		t.Fatalf("expected %d dimensions, got %d", OpenAIDimensions, len(a))
	}
	var norm float64
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d", i)
		}
		norm += float64(a[i]) * float64(a[i])
	}
	if math.Abs(norm-1) > 1e-4 {
		t.Fatalf("expected unit norm, got %f", norm)
	}
	if a[0] == c[0] && a[1] == c[1] {
		t.Fatalf("different texts should give different vectors")
	}
	if d := len(syntheticVector("x", 0)); d != 0 {
		t.Fatalf("expected empty vector for zero dimensions, got %d", d)
	}
}

type namedEmbedder struct{ name string }

func (n namedEmbedder) Embed(context.Context, string, string) ([]float32, error) {
	if n.name == "" {
		return nil, errors.New("unnamed")
	}
	return []float32{float32(len(n.name))}, nil
}

func TestRouterPicksBackendByHint(t *testing.T) {
	r := &Router{
		Default:   namedEmbedder{"d"},
		Ollama:    namedEmbedder{"ollama"},
		OpenAI:    namedEmbedder{"openai"},
		Synthetic: namedEmbedder{"synthetic"},
	}

	tests := map[string]float32{
		"":                       1,
		"default":                1,
		"nomic-embed-text":       6,
		"llama3.1:8b":            6,
		"text-embedding-3-small": 6,
		"mock":                   9,
		"bge-m3":                 1,
	}
	for hint, want := range tests {
		got, err := r.Embed(context.Background(), "text", hint)
		if err != nil || got[0] != want {
			t.Fatalf("hint %q: got %v (%v), want %v", hint, got, err, want)
		}
	}

	r.OpenAI = nil
	if got, _ := r.Embed(context.Background(), "text", "text-embedding-3-large"); got[0] != 1 {
		t.Fatalf("missing backend should fall back to default, got %v", got)
	}

	empty := &Router{}
	if _, err := empty.Embed(context.Background(), "text", ""); !domain.IsKind(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

type memoryKV struct {
	data   map[string][]byte
	getErr error
	ttl    time.Duration
}

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, redis.ErrKeyNotFound
	}
	return v, nil
}

func (m *memoryKV) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.ttl = ttl
	return nil
}

type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) Embed(context.Context, string, string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{0.25, -0.5, 1}, nil
}

func TestCachedHitsAfterFirstCall(t *testing.T) {
	inner := &countingEmbedder{}
	kv := &memoryKV{data: map[string][]byte{}}
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "lookups_total"}, []string{"result"})
	cached := NewCached(inner, kv, time.Hour, lookups)

	for i := 0; i < 3; i++ {
		vec, err := cached.Embed(context.Background(), "same text", "nomic-embed-text")
		if err != nil {
			t.Fatalf("Embed() error = %v", err)
		}
		if len(vec) != 3 || vec[1] != -0.5 {
			t.Fatalf("unexpected vector %v", vec)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}
	if kv.ttl != time.Hour {
		t.Fatalf("expected ttl to be passed, got %s", kv.ttl)
	}
	if hits := testutil.ToFloat64(lookups.WithLabelValues("hit")); hits != 2 {
		t.Fatalf("expected 2 hits, got %f", hits)
	}

	if _, err := cached.Embed(context.Background(), "same text", "text-embedding-3-small"); err != nil || inner.calls != 2 {
		t.Fatalf("a different model must miss the cache, calls=%d err=%v", inner.calls, err)
	}
}

func TestCachedToleratesStoreFailureAndPropagatesInnerError(t *testing.T) {
	inner := &countingEmbedder{}
	kv := &memoryKV{data: map[string][]byte{}, getErr: errors.New("redis down")}
	cached := NewCached(inner, kv, 0, nil)

	if _, err := cached.Embed(context.Background(), "t", ""); err != nil {
		t.Fatalf("store failure must not fail embedding, got %v", err)
	}

	inner.err = domain.ErrEmbeddingUnavailable
	if _, err := cached.Embed(context.Background(), "t", ""); !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected inner error, got %v", err)
	}
}

func TestDecodeVectorRejectsTruncatedData(t *testing.T) {
	if _, err := decodeVector([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for truncated data")
	}
	vec, err := decodeVector(encodeVector([]float32{1.5, -2}))
	if err != nil || vec[0] != 1.5 || vec[1] != -2 {
		t.Fatalf("unexpected round trip %v (%v)", vec, err)
	}
}

type modelEmbedder struct {
	countingEmbedder
	model string
	dims  int
}

func (m *modelEmbedder) EmbeddingModel(hint string) string {
	if hint == "" || hint == "default" {
		return m.model
	}
	return hint
}

func (m *modelEmbedder) Embed(ctx context.Context, text, hint string) ([]float32, error) {
	if _, err := m.countingEmbedder.Embed(ctx, text, hint); err != nil {
		return nil, err
	}
	return make([]float32, m.dims), nil
}

func TestCachedKeysByResolvedModel(t *testing.T) {
	ollama := &modelEmbedder{model: "ollama/nomic-embed-text", dims: 768}
	kv := &memoryKV{data: map[string][]byte{}}
	router := &Router{Default: ollama, Ollama: ollama}

	cached := NewCached(router, kv, time.Hour, nil)
	for _, hint := range []string{"", "default", "ollama/nomic-embed-text"} {
		if _, err := cached.Embed(context.Background(), "same text", hint); err != nil {
			t.Fatalf("Embed(%q) error = %v", hint, err)
		}
	}
	if ollama.calls != 1 || len(kv.data) != 1 {
		t.Fatalf("equivalent hints must share one entry, calls=%d entries=%d", ollama.calls, len(kv.data))
	}

	openai := &modelEmbedder{model: "openai/text-embedding-3-small", dims: 1536}
	switched := NewCached(&Router{Default: openai, OpenAI: openai}, kv, time.Hour, nil)
	vec, err := switched.Embed(context.Background(), "same text", "")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if openai.calls != 1 || len(vec) != 1536 {
		t.Fatalf("a new default backend must not reuse old vectors, calls=%d dims=%d", openai.calls, len(vec))
	}
}

func TestRouterEmbeddingModelFollowsPickedBackend(t *testing.T) {
	synthetic := NewSynthetic(64)
	r := &Router{Default: synthetic, Synthetic: synthetic, Ollama: namedEmbedder{"ollama"}}

	if got := r.EmbeddingModel(""); got != "synthetic/64" {
		t.Fatalf("expected synthetic identity, got %q", got)
	}
	if got := r.EmbeddingModel("nomic-embed-text"); got != "nomic-embed-text" {
		t.Fatalf("backends without identity keep the hint, got %q", got)
	}
}
