package usage

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/snobbots/chatbot-backend/internal/entity"
	"github.com/snobbots/chatbot-backend/internal/pkg/report"
	"go.uber.org/zap"
)

type fakeUsageRepo struct {
	rows []*entity.BotUsage
}

func (f *fakeUsageRepo) Record(_ context.Context, _, _ string, _ entity.UsageCategory, _ int64) (int64, error) {
	return 0, nil
}

func (f *fakeUsageRepo) GetBotUsage(_ context.Context, tenantID, title string) (*entity.BotUsage, error) {
	title = entity.NormalizeTitle(title)
	for _, row := range f.rows {
		if row.TenantID == tenantID && row.ChatbotTitle == title {
			return row, nil
		}
	}
	return &entity.BotUsage{TenantID: tenantID, ChatbotTitle: title}, nil
}

func (f *fakeUsageRepo) ListTenantUsage(_ context.Context, tenantID string) ([]*entity.BotUsage, error) {
	var out []*entity.BotUsage
	for _, row := range f.rows {
		if row.TenantID == tenantID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeUsageRepo) DeleteBotUsage(_ context.Context, _, _ string) error {
	return nil
}

func newTestUsecase(rows ...*entity.BotUsage) *UsageUsecase {
	return NewUsecase(&fakeUsageRepo{rows: rows}, report.NewPDFFormatter(), zap.NewNop())
}

func TestTenantUsage(t *testing.T) {
	uc := newTestUsecase(
		&entity.BotUsage{TenantID: "acme", ChatbotTitle: "faq", RawTextTokens: 100, AskQueryTokens: 42},
		&entity.BotUsage{TenantID: "acme", ChatbotTitle: "support", FileUploadTokens: 7},
		&entity.BotUsage{TenantID: "globex", ChatbotTitle: "other", RawTextTokens: 999},
	)

	rows, err := uc.TenantUsage(context.Background(), "acme")
	if err != nil {
		t.Fatalf("TenantUsage: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	var total int64
	for _, row := range rows {
		total += row.Total()
	}
	if total != 149 {
		t.Errorf("tenant total = %d, want 149", total)
	}
}

func TestBotUsageZeroWhenUntouched(t *testing.T) {
	uc := newTestUsecase()

	row, err := uc.BotUsage(context.Background(), "acme", "New Bot")
	if err != nil {
		t.Fatalf("BotUsage: %v", err)
	}
	if row.Total() != 0 {
		t.Errorf("Total = %d for untouched bot, want 0", row.Total())
	}
	if row.ChatbotTitle != "new bot" {
		t.Errorf("ChatbotTitle = %q, want normalized", row.ChatbotTitle)
	}
}

func TestUsageValidation(t *testing.T) {
	uc := newTestUsecase()

	if _, err := uc.TenantUsage(context.Background(), " "); !errors.Is(err, entity.ErrMissingField) {
		t.Errorf("TenantUsage error = %v, want ErrMissingField", err)
	}
	if _, err := uc.BotUsage(context.Background(), "acme", ""); !errors.Is(err, entity.ErrMissingField) {
		t.Errorf("BotUsage error = %v, want ErrMissingField", err)
	}
}

func TestReportRendersPDF(t *testing.T) {
	uc := newTestUsecase(
		&entity.BotUsage{TenantID: "acme", ChatbotTitle: "faq", QAPairsTokens: 1234},
	)

	doc, filename, err := uc.Report(context.Background(), "acme")
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("%PDF")) {
		t.Errorf("report does not start with a PDF header")
	}
	if filename != "usage-report.pdf" {
		t.Errorf("filename = %q, want usage-report.pdf", filename)
	}
	if uc.ContentType() != "application/pdf" {
		t.Errorf("ContentType = %q", uc.ContentType())
	}
}
