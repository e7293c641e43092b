package usage

import (
	"context"

	"github.com/snobbots/chatbot-backend/internal/entity"
)

type UsageUsecase interface {
	TenantUsage(ctx context.Context, tenantID string) ([]*entity.BotUsage, error)
	BotUsage(ctx context.Context, tenantID, chatbotTitle string) (*entity.BotUsage, error)
	Report(ctx context.Context, tenantID string) ([]byte, string, error)
	ContentType() string
}
