package rag

import (
	"context"

	"github.com/snobbots/chatbot-backend/internal/entity"
)

type IngestUsecase interface {
	Ingest(ctx context.Context, req *entity.IngestRequest) (*entity.IngestResult, error)
	IngestFromURL(ctx context.Context, tenantID, chatbotTitle, crawlURL string) (*entity.IngestResult, error)
	Flush(ctx context.Context, tenantID, chatbotTitle string) error
}

type AskUsecase interface {
	Ask(ctx context.Context, req *entity.AskRequest) (*entity.AskResult, error)
	AskStream(ctx context.Context, req *entity.AskRequest, onDelta func(string) error) (*entity.AskResult, error)
}

type APIKeyResolver interface {
	ResolveAPIKey(ctx context.Context, key string) (*entity.APIKey, error)
}
