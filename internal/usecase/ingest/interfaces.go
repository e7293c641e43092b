package ingest

import (
	"context"

	"github.com/snobbots/chatbot-backend/internal/entity"
	"github.com/snobbots/chatbot-backend/internal/integration/embedding"
	"github.com/snobbots/chatbot-backend/internal/pkg/crawler"
)

type EmbeddingConnector interface {
	EmbedBatch(ctx context.Context, texts []string) (*embedding.Result, error)
}

type VectorIndexConnector interface {
	EnsureIndex(ctx context.Context, tenantID string) error
	Upsert(ctx context.Context, tenantID, namespace string, records []entity.VectorRecord) error
	DeleteNamespace(ctx context.Context, tenantID, namespace string) error
}

type PageCrawler interface {
	Links(ctx context.Context, baseURL string) ([]string, error)
	Blocks(ctx context.Context, pageURL string) ([]crawler.Block, error)
}
