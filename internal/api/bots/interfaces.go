package bots

import (
	"context"

	"github.com/snobbots/chatbot-backend/internal/entity"
)

type BotUsecase interface {
	CreateBot(ctx context.Context, tenantID, title string) (*entity.Bot, bool, error)
	ListBots(ctx context.Context, tenantID string) ([]*entity.Bot, error)
	MintAPIKey(ctx context.Context, tenantID, title string) (*entity.APIKey, error)
}
