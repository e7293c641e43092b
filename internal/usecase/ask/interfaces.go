package ask

import (
	"context"

	"github.com/snobbots/chatbot-backend/internal/entity"
	"github.com/snobbots/chatbot-backend/internal/integration/embedding"
)

type EmbeddingConnector interface {
	EmbedBatch(ctx context.Context, texts []string) (*embedding.Result, error)
}

type VectorIndexConnector interface {
	Query(ctx context.Context, tenantID, namespace string, vector []float32, topK int) ([]entity.VectorMatch, error)
}

type ChatConnector interface {
	Complete(ctx context.Context, prompt string) (string, entity.Usage, error)
	CompleteStream(ctx context.Context, prompt string, onDelta func(string) error) (entity.Usage, error)
}
