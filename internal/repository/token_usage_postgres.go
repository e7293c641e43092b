package repository

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/snobbots/chatbot-backend/internal/entity"
	"go.uber.org/zap"
)

type TokenUsageRepository interface {
	Record(ctx context.Context, tenantID, chatbotTitle string, category entity.UsageCategory, tokens int64) (int64, error)
	GetBotUsage(ctx context.Context, tenantID, chatbotTitle string) (*entity.BotUsage, error)
	ListTenantUsage(ctx context.Context, tenantID string) ([]*entity.BotUsage, error)
	DeleteBotUsage(ctx context.Context, tenantID, chatbotTitle string) error
}

// categoryColumns whitelists the ledger columns. Categories never reach SQL
// text without passing through this map.
var categoryColumns = map[entity.UsageCategory]string{
	entity.CategoryFileUpload: "file_upload_tokens",
	entity.CategoryRawText:    "raw_text_tokens",
	entity.CategoryQAPairs:    "qa_pairs_tokens",
	entity.CategoryWebCrawl:   "web_crawl_tokens",
	entity.CategoryAskQuery:   "ask_query_tokens",
}

// recordQueries holds one prebuilt upsert statement per category. The insert
// seeds a zeroed row on first touch; the conflict branch is a single additive
// update, so concurrent Record calls for the same bot never lose updates.
var recordQueries = func() map[entity.UsageCategory]string {
	queries := make(map[entity.UsageCategory]string, len(categoryColumns))
	for category, column := range categoryColumns {
		queries[category] = fmt.Sprintf(`
			INSERT INTO bot_token_usage (tenant_id, chatbot_title, %s)
			VALUES ($1, $2, $3)
			ON CONFLICT (tenant_id, chatbot_title)
			DO UPDATE SET %s = bot_token_usage.%s + EXCLUDED.%s
			RETURNING %s`,
			column, column, column, column, column)
	}
	return queries
}()

type TokenUsagePostgres struct {
	db *pgxpool.Pool
}

func NewTokenUsagePostgres(db *pgxpool.Pool) *TokenUsagePostgres {
	return &TokenUsagePostgres{db: db}
}

// Record adds tokens to one category counter and returns the new total for
// that category. The row is created lazily on first touch with every other
// category at zero.
func (r *TokenUsagePostgres) Record(ctx context.Context, tenantID, chatbotTitle string, category entity.UsageCategory, tokens int64) (int64, error) {
	query, ok := recordQueries[category]
	if !ok {
		return 0, fmt.Errorf("%w: %s", entity.ErrInvalidCategory, category)
	}

	chatbotTitle = entity.NormalizeTitle(chatbotTitle)

	var newTotal int64
	err := r.db.QueryRow(ctx, query, tenantID, chatbotTitle, tokens).Scan(&newTotal)
	if err != nil {
		ctxzap.Error(ctx, "failed to record token usage", zap.Error(err))
		return 0, fmt.Errorf("record token usage: %w", err)
	}

	ctxzap.Info(ctx, "token usage recorded",
		zap.String("tenant_id", tenantID),
		zap.String("chatbot_title", chatbotTitle),
		zap.String("category", string(category)),
		zap.Int64("tokens_added", tokens),
		zap.Int64("new_total", newTotal),
	)

	return newTotal, nil
}

// GetBotUsage returns the ledger row for one bot. A bot that was never
// touched reads as all-zero counters rather than an error.
func (r *TokenUsagePostgres) GetBotUsage(ctx context.Context, tenantID, chatbotTitle string) (*entity.BotUsage, error) {
	chatbotTitle = entity.NormalizeTitle(chatbotTitle)

	usage := &entity.BotUsage{TenantID: tenantID, ChatbotTitle: chatbotTitle}
	err := r.db.QueryRow(ctx, `
		SELECT file_upload_tokens, raw_text_tokens, qa_pairs_tokens, web_crawl_tokens, ask_query_tokens
		FROM bot_token_usage
		WHERE tenant_id = $1 AND chatbot_title = $2`,
		tenantID, chatbotTitle,
	).Scan(
		&usage.FileUploadTokens,
		&usage.RawTextTokens,
		&usage.QAPairsTokens,
		&usage.WebCrawlTokens,
		&usage.AskQueryTokens,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return usage, nil
		}
		ctxzap.Error(ctx, "failed to get bot usage", zap.Error(err))
		return nil, fmt.Errorf("get bot usage: %w", err)
	}

	return usage, nil
}

// ListTenantUsage returns the ledger rows for every bot the tenant owns.
func (r *TokenUsagePostgres) ListTenantUsage(ctx context.Context, tenantID string) ([]*entity.BotUsage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT chatbot_title, file_upload_tokens, raw_text_tokens, qa_pairs_tokens, web_crawl_tokens, ask_query_tokens
		FROM bot_token_usage
		WHERE tenant_id = $1
		ORDER BY chatbot_title`,
		tenantID,
	)
	if err != nil {
		ctxzap.Error(ctx, "failed to list tenant usage", zap.Error(err))
		return nil, fmt.Errorf("list tenant usage: %w", err)
	}
	defer rows.Close()

	var usages []*entity.BotUsage
	for rows.Next() {
		usage := &entity.BotUsage{TenantID: tenantID}
		if err := rows.Scan(
			&usage.ChatbotTitle,
			&usage.FileUploadTokens,
			&usage.RawTextTokens,
			&usage.QAPairsTokens,
			&usage.WebCrawlTokens,
			&usage.AskQueryTokens,
		); err != nil {
			return nil, fmt.Errorf("scan tenant usage row: %w", err)
		}
		usages = append(usages, usage)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenant usage rows: %w", err)
	}

	return usages, nil
}

// DeleteBotUsage removes the ledger row when a bot is flushed.
func (r *TokenUsagePostgres) DeleteBotUsage(ctx context.Context, tenantID, chatbotTitle string) error {
	chatbotTitle = entity.NormalizeTitle(chatbotTitle)

	_, err := r.db.Exec(ctx, `
		DELETE FROM bot_token_usage
		WHERE tenant_id = $1 AND chatbot_title = $2`,
		tenantID, chatbotTitle,
	)
	if err != nil {
		ctxzap.Error(ctx, "failed to delete bot usage", zap.Error(err))
		return fmt.Errorf("delete bot usage: %w", err)
	}

	return nil
}
