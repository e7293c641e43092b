package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/snobbots/chatbot-backend/internal/entity"
	"go.uber.org/zap"
)

type BotRepository interface {
	GetOrCreate(ctx context.Context, tenantID, title string) (*entity.Bot, bool, error)
	Get(ctx context.Context, tenantID, title string) (*entity.Bot, error)
	List(ctx context.Context, tenantID string) ([]*entity.Bot, error)
	Delete(ctx context.Context, tenantID, title string) error
}

type BotPostgres struct {
	db *pgxpool.Pool
}

func NewBotPostgres(db *pgxpool.Pool) *BotPostgres {
	return &BotPostgres{db: db}
}

// GetOrCreate returns the bot for (tenant, title), creating it when absent.
// The second return reports whether a new row was inserted. The bot limit is
// enforced inside the insert statement so concurrent creates cannot overshoot
// it. Returns ErrBotLimitExceeded when the tenant is already at capacity and
// the title does not exist yet.
func (r *BotPostgres) GetOrCreate(ctx context.Context, tenantID, title string) (*entity.Bot, bool, error) {
	title = entity.NormalizeTitle(title)

	bot := &entity.Bot{TenantID: tenantID, Title: title}
	err := r.db.QueryRow(ctx, `
		INSERT INTO bots (id, tenant_id, title)
		SELECT $1, $2, $3
		WHERE (SELECT COUNT(*) FROM bots WHERE tenant_id = $2) < $4
		ON CONFLICT (tenant_id, title) DO NOTHING
		RETURNING id, created_at`,
		uuid.NewString(), tenantID, title, entity.MaxBotsPerTenant,
	).Scan(&bot.ID, &bot.CreatedAt)
	if err == nil {
		ctxzap.Info(ctx, "chatbot created",
			zap.String("tenant_id", tenantID),
			zap.String("title", title),
		)
		return bot, true, nil
	}
	if err != pgx.ErrNoRows {
		ctxzap.Error(ctx, "failed to create chatbot", zap.Error(err))
		return nil, false, fmt.Errorf("create chatbot: %w", err)
	}

	// No row inserted: either the title already exists (fine, return it) or
	// the tenant is at the bot limit.
	existing, err := r.Get(ctx, tenantID, title)
	if err == nil {
		return existing, false, nil
	}
	if err == entity.ErrBotNotFound {
		return nil, false, fmt.Errorf("%w: tenant %s already has %d chatbots", entity.ErrBotLimitExceeded, tenantID, entity.MaxBotsPerTenant)
	}
	return nil, false, err
}

func (r *BotPostgres) Get(ctx context.Context, tenantID, title string) (*entity.Bot, error) {
	title = entity.NormalizeTitle(title)

	bot := &entity.Bot{TenantID: tenantID, Title: title}
	err := r.db.QueryRow(ctx, `
		SELECT id, created_at
		FROM bots
		WHERE tenant_id = $1 AND title = $2`,
		tenantID, title,
	).Scan(&bot.ID, &bot.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, entity.ErrBotNotFound
		}
		ctxzap.Error(ctx, "failed to get chatbot", zap.Error(err))
		return nil, fmt.Errorf("get chatbot: %w", err)
	}

	return bot, nil
}

func (r *BotPostgres) List(ctx context.Context, tenantID string) ([]*entity.Bot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, title, created_at
		FROM bots
		WHERE tenant_id = $1
		ORDER BY created_at`,
		tenantID,
	)
	if err != nil {
		ctxzap.Error(ctx, "failed to list chatbots", zap.Error(err))
		return nil, fmt.Errorf("list chatbots: %w", err)
	}
	defer rows.Close()

	var bots []*entity.Bot
	for rows.Next() {
		bot := &entity.Bot{TenantID: tenantID}
		if err := rows.Scan(&bot.ID, &bot.Title, &bot.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chatbot row: %w", err)
		}
		bots = append(bots, bot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chatbot rows: %w", err)
	}

	return bots, nil
}

func (r *BotPostgres) Delete(ctx context.Context, tenantID, title string) error {
	title = entity.NormalizeTitle(title)

	tag, err := r.db.Exec(ctx, `
		DELETE FROM bots
		WHERE tenant_id = $1 AND title = $2`,
		tenantID, title,
	)
	if err != nil {
		ctxzap.Error(ctx, "failed to delete chatbot", zap.Error(err))
		return fmt.Errorf("delete chatbot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrBotNotFound
	}

	return nil
}
