package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"sync/atomic"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector produces deterministic pseudo-embeddings without calling any
// service. Identical texts always map to identical vectors, so cosine
// ranking in tests behaves sensibly. Token cost approximates the usual
// four-characters-per-token rule.
type MockConnector struct {
	dimension int
	calls     atomic.Int64
	logger    *zap.Logger
}

func NewMockConnector(dimension int, logger *zap.Logger) *MockConnector {
	return &MockConnector{
		dimension: dimension,
		logger:    logger,
	}
}

func (m *MockConnector) EmbedBatch(ctx context.Context, texts []string) (*Result, error) {
	m.calls.Add(1)

	result := &Result{Vectors: make([][]float32, len(texts))}
	for i, text := range texts {
		result.Vectors[i] = m.vectorFor(text)
		result.Tokens += int64(len(text)/4 + 1)
	}

	ctxzap.Debug(ctx, "[MOCK] batch embedded",
		zap.Int("text_count", len(texts)),
		zap.Int64("tokens", result.Tokens),
	)

	return result, nil
}

func (m *MockConnector) Dimension() int {
	return m.dimension
}

// Calls returns how many EmbedBatch calls were made. Tests use it to verify
// that invalid input is rejected before any embedding spend.
func (m *MockConnector) Calls() int64 {
	return m.calls.Load()
}

// vectorFor hashes the text into a unit-length vector. Seeding per dimension
// keeps components independent enough for distinct texts to rank apart.
func (m *MockConnector) vectorFor(text string) []float32 {
	vec := make([]float32, m.dimension)
	var norm float64
	for i := range vec {
		h := fnv.New64a()
		h.Write([]byte(text))
		h.Write([]byte{byte(i), byte(i >> 8)})
		v := float64(int64(h.Sum64()%2000)-1000) / 1000.0
		vec[i] = float32(v)
		norm += v * v
	}

	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}
