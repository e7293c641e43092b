package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/snobbots/chatbot-backend/internal/entity"
	"go.uber.org/zap"
)

// MockConnector is an in-memory vector index with real cosine ranking. It
// mirrors the remote adapter's semantics: namespaces are isolated inside a
// per-tenant index, querying a missing index yields no matches, deleting
// from a missing index is a NotFound error.
type MockConnector struct {
	mu      sync.RWMutex
	tenants map[string]map[string][]entity.VectorRecord
	logger  *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		tenants: make(map[string]map[string][]entity.VectorRecord),
		logger:  logger,
	}
}

func (m *MockConnector) EnsureIndex(ctx context.Context, tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tenants[tenantID]; !ok {
		m.tenants[tenantID] = make(map[string][]entity.VectorRecord)
		ctxzap.Info(ctx, "[MOCK] vector index created", zap.String("tenant_id", tenantID))
	}
	return nil
}

func (m *MockConnector) Upsert(ctx context.Context, tenantID, namespace string, records []entity.VectorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	index, ok := m.tenants[tenantID]
	if !ok {
		return fmt.Errorf("%w: tenant %s", entity.ErrIndexNotFound, tenantID)
	}

	existing := index[namespace]
	byID := make(map[string]int, len(existing))
	for i, r := range existing {
		byID[r.ID] = i
	}
	for _, r := range records {
		if i, ok := byID[r.ID]; ok {
			existing[i] = r
			continue
		}
		existing = append(existing, r)
	}
	index[namespace] = existing

	ctxzap.Info(ctx, "[MOCK] vectors upserted",
		zap.String("namespace", namespace),
		zap.Int("vector_count", len(records)),
	)
	return nil
}

func (m *MockConnector) Query(ctx context.Context, tenantID, namespace string, vector []float32, topK int) ([]entity.VectorMatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	index, ok := m.tenants[tenantID]
	if !ok {
		return nil, nil
	}

	records := index[namespace]
	matches := make([]entity.VectorMatch, 0, len(records))
	for _, r := range records {
		matches = append(matches, entity.VectorMatch{
			ID:       r.ID,
			Score:    cosine(vector, r.Values),
			Metadata: r.Metadata,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (m *MockConnector) DeleteNamespace(ctx context.Context, tenantID, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	index, ok := m.tenants[tenantID]
	if !ok {
		return fmt.Errorf("%w: tenant %s", entity.ErrIndexNotFound, tenantID)
	}

	delete(index, namespace)
	ctxzap.Info(ctx, "[MOCK] namespace deleted", zap.String("namespace", namespace))
	return nil
}

// Count reports how many vectors a namespace holds. Test helper.
func (m *MockConnector) Count(tenantID, namespace string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	index, ok := m.tenants[tenantID]
	if !ok {
		return 0
	}
	return len(index[namespace])
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
