package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strconv"
)

const (
	OllamaDimensions = 768
	OpenAIDimensions = 1536
)

// Synthetic produces deterministic pseudo-embeddings from a text hash. It
// needs no model server and is meant for local runs and tests; vectors
// carry no meaning beyond text identity.
type Synthetic struct {
	dimensions int
}

func NewSynthetic(dimensions int) *Synthetic {
	if dimensions <= 0 {
		dimensions = OllamaDimensions
	}
	return &Synthetic{dimensions: dimensions}
}

func (s *Synthetic) EmbeddingModel(string) string {
	return "synthetic/" + strconv.Itoa(s.dimensions)
}

func (s *Synthetic) Embed(_ context.Context, text, _ string) ([]float32, error) {
	return syntheticVector(text, s.dimensions), nil
}

func syntheticVector(text string, dimensions int) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, dimensions)
	var norm float64
	for i := range vec {
		seed = seed*1103515245 + 12345
		v := (float64(seed)/math.MaxUint64*2 - 1) * 0.1
		vec[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
