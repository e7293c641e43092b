package repository

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/snobbots/chatbot-backend/internal/entity"
	"github.com/snobbots/chatbot-backend/internal/pkg/apikey"
	"go.uber.org/zap"
)

type APIKeyRepository interface {
	GetOrCreate(ctx context.Context, tenantID, chatbotTitle string) (*entity.APIKey, error)
	Resolve(ctx context.Context, key string) (*entity.APIKey, error)
	DeleteForBot(ctx context.Context, tenantID, chatbotTitle string) error
}

type APIKeyPostgres struct {
	db *pgxpool.Pool
}

func NewAPIKeyPostgres(db *pgxpool.Pool) *APIKeyPostgres {
	return &APIKeyPostgres{db: db}
}

// GetOrCreate mints an API key for the bot, or returns the existing one.
// Each (tenant, bot) pair owns at most one key.
func (r *APIKeyPostgres) GetOrCreate(ctx context.Context, tenantID, chatbotTitle string) (*entity.APIKey, error) {
	chatbotTitle = entity.NormalizeTitle(chatbotTitle)

	minted, err := apikey.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate api key: %w", err)
	}

	record := &entity.APIKey{TenantID: tenantID, ChatbotTitle: chatbotTitle}
	err = r.db.QueryRow(ctx, `
		INSERT INTO api_keys (key, tenant_id, chatbot_title)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, chatbot_title) DO NOTHING
		RETURNING key, created_at`,
		minted, tenantID, chatbotTitle,
	).Scan(&record.Key, &record.CreatedAt)
	if err == nil {
		ctxzap.Info(ctx, "api key minted",
			zap.String("tenant_id", tenantID),
			zap.String("chatbot_title", chatbotTitle),
		)
		return record, nil
	}
	if err != pgx.ErrNoRows {
		ctxzap.Error(ctx, "failed to mint api key", zap.Error(err))
		return nil, fmt.Errorf("mint api key: %w", err)
	}

	// A key already exists for this bot, hand that one back.
	err = r.db.QueryRow(ctx, `
		SELECT key, created_at
		FROM api_keys
		WHERE tenant_id = $1 AND chatbot_title = $2`,
		tenantID, chatbotTitle,
	).Scan(&record.Key, &record.CreatedAt)
	if err != nil {
		ctxzap.Error(ctx, "failed to load existing api key", zap.Error(err))
		return nil, fmt.Errorf("load existing api key: %w", err)
	}

	return record, nil
}

// Resolve maps a presented key back to its (tenant, bot) pair.
func (r *APIKeyPostgres) Resolve(ctx context.Context, key string) (*entity.APIKey, error) {
	record := &entity.APIKey{Key: key}
	err := r.db.QueryRow(ctx, `
		SELECT tenant_id, chatbot_title, created_at
		FROM api_keys
		WHERE key = $1`,
		key,
	).Scan(&record.TenantID, &record.ChatbotTitle, &record.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, entity.ErrAPIKeyNotFound
		}
		ctxzap.Error(ctx, "failed to resolve api key", zap.Error(err))
		return nil, fmt.Errorf("resolve api key: %w", err)
	}

	return record, nil
}

// DeleteForBot revokes the bot's key, if any. Deleting a bot's knowledge base
// also invalidates its widget credential.
func (r *APIKeyPostgres) DeleteForBot(ctx context.Context, tenantID, chatbotTitle string) error {
	chatbotTitle = entity.NormalizeTitle(chatbotTitle)

	_, err := r.db.Exec(ctx, `
		DELETE FROM api_keys
		WHERE tenant_id = $1 AND chatbot_title = $2`,
		tenantID, chatbotTitle,
	)
	if err != nil {
		ctxzap.Error(ctx, "failed to delete api key", zap.Error(err))
		return fmt.Errorf("delete api key: %w", err)
	}

	return nil
}
