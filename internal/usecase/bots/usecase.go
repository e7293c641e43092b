// Package bots manages chatbot registrations and their widget API keys.
package bots

import (
	"context"
	"fmt"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	gocache "github.com/patrickmn/go-cache"
	"github.com/snobbots/chatbot-backend/internal/entity"
	"github.com/snobbots/chatbot-backend/internal/pkg/validator"
	"github.com/snobbots/chatbot-backend/internal/repository"
	"go.uber.org/zap"
)

type BotUsecase struct {
	botRepo    repository.BotRepository
	apiKeyRepo repository.APIKeyRepository

	// keyCache holds resolved API keys so the widget hot path does not hit
	// Postgres on every ask. Entries expire; revocation via flush becomes
	// effective within the TTL.
	keyCache *gocache.Cache
	logger   *zap.Logger
}

func NewUsecase(
	botRepo repository.BotRepository,
	apiKeyRepo repository.APIKeyRepository,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *BotUsecase {
	return &BotUsecase{
		botRepo:    botRepo,
		apiKeyRepo: apiKeyRepo,
		keyCache:   gocache.New(cacheTTL, 2*cacheTTL),
		logger:     logger,
	}
}

// CreateBot registers a chatbot for the tenant. Creating a title that already
// exists returns the existing bot; the per-tenant limit applies only to new
// registrations.
func (uc *BotUsecase) CreateBot(ctx context.Context, tenantID, title string) (*entity.Bot, bool, error) {
	if err := validator.ValidateTenantID(tenantID); err != nil {
		return nil, false, err
	}
	if err := validator.ValidateChatbotTitle(title); err != nil {
		return nil, false, err
	}

	return uc.botRepo.GetOrCreate(ctx, tenantID, title)
}

// ListBots returns the tenant's chatbots in creation order.
func (uc *BotUsecase) ListBots(ctx context.Context, tenantID string) ([]*entity.Bot, error) {
	if err := validator.ValidateTenantID(tenantID); err != nil {
		return nil, err
	}

	return uc.botRepo.List(ctx, tenantID)
}

// MintAPIKey returns the bot's widget API key, creating one on first call.
// The bot must exist.
func (uc *BotUsecase) MintAPIKey(ctx context.Context, tenantID, title string) (*entity.APIKey, error) {
	if err := validator.ValidateTenantID(tenantID); err != nil {
		return nil, err
	}
	if err := validator.ValidateChatbotTitle(title); err != nil {
		return nil, err
	}

	if _, err := uc.botRepo.Get(ctx, tenantID, title); err != nil {
		return nil, err
	}

	key, err := uc.apiKeyRepo.GetOrCreate(ctx, tenantID, title)
	if err != nil {
		return nil, fmt.Errorf("mint api key: %w", err)
	}

	return key, nil
}

// ResolveAPIKey maps a presented key to its (tenant, bot) pair, serving from
// the cache when possible. Unknown keys are not negatively cached so a key
// minted moments ago resolves immediately.
func (uc *BotUsecase) ResolveAPIKey(ctx context.Context, key string) (*entity.APIKey, error) {
	if cached, found := uc.keyCache.Get(key); found {
		return cached.(*entity.APIKey), nil
	}

	record, err := uc.apiKeyRepo.Resolve(ctx, key)
	if err != nil {
		return nil, err
	}

	uc.keyCache.SetDefault(key, record)

	ctxzap.Debug(ctx, "api key resolved",
		zap.String("tenant_id", record.TenantID),
		zap.String("chatbot_title", record.ChatbotTitle),
	)

	return record, nil
}
