package embedding

import (
	"context"
	"hash/fnv"
)

const mockDimensions = 1536

// Mock is a deterministic offline provider. The same input text always
// produces the same vector, which is enough for tests and local demos
// where vector equality matters more than semantic quality.
type Mock struct {
	dims int
}

// NewMock returns a mock provider emitting vectors of the given dimension.
func NewMock(dims int) *Mock {
	return &Mock{dims: dims}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.vector(text)
	}
	return vectors, nil
}

func (m *Mock) vector(text string) []float32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum32()

	vec := make([]float32, m.dims)
	for i := range vec {
		// xorshift keeps the sequence deterministic per seed.
		seed ^= seed << 13
		seed ^= seed >> 17
		seed ^= seed << 5
		vec[i] = float32(seed%2000)/1000 - 1
	}
	return vec
}
