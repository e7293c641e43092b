// Package usage exposes the token ledger for reading and report export.
package usage

import (
	"context"
	"fmt"

	"github.com/snobbots/chatbot-backend/internal/entity"
	"github.com/snobbots/chatbot-backend/internal/pkg/validator"
	"github.com/snobbots/chatbot-backend/internal/repository"
	"go.uber.org/zap"
)

// ReportFormatter renders a tenant's ledger rows into a downloadable document.
type ReportFormatter interface {
	Format(tenantID string, rows []*entity.BotUsage) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type UsageUsecase struct {
	usageRepo repository.TokenUsageRepository
	formatter ReportFormatter
	logger    *zap.Logger
}

func NewUsecase(
	usageRepo repository.TokenUsageRepository,
	formatter ReportFormatter,
	logger *zap.Logger,
) *UsageUsecase {
	return &UsageUsecase{
		usageRepo: usageRepo,
		formatter: formatter,
		logger:    logger,
	}
}

// TenantUsage returns the ledger rows for every bot the tenant owns.
func (uc *UsageUsecase) TenantUsage(ctx context.Context, tenantID string) ([]*entity.BotUsage, error) {
	if err := validator.ValidateTenantID(tenantID); err != nil {
		return nil, err
	}

	return uc.usageRepo.ListTenantUsage(ctx, tenantID)
}

// BotUsage returns the counters for one bot. A bot with no recorded spend
// reads as zeros.
func (uc *UsageUsecase) BotUsage(ctx context.Context, tenantID, chatbotTitle string) (*entity.BotUsage, error) {
	if err := validator.ValidateTenantID(tenantID); err != nil {
		return nil, err
	}
	if err := validator.ValidateChatbotTitle(chatbotTitle); err != nil {
		return nil, err
	}

	return uc.usageRepo.GetBotUsage(ctx, tenantID, chatbotTitle)
}

// Report renders the tenant's full ledger as a downloadable document.
func (uc *UsageUsecase) Report(ctx context.Context, tenantID string) ([]byte, string, error) {
	rows, err := uc.TenantUsage(ctx, tenantID)
	if err != nil {
		return nil, "", err
	}

	doc, err := uc.formatter.Format(tenantID, rows)
	if err != nil {
		return nil, "", fmt.Errorf("render usage report: %w", err)
	}

	filename := "usage-report" + uc.formatter.FileExtension()
	uc.logger.Debug("usage report rendered",
		zap.String("tenant_id", tenantID),
		zap.Int("bot_count", len(rows)),
		zap.Int("size_bytes", len(doc)),
	)

	return doc, filename, nil
}

// ContentType reports the MIME type of rendered reports.
func (uc *UsageUsecase) ContentType() string {
	return uc.formatter.ContentType()
}
