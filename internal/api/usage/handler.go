package usage

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/snobbots/chatbot-backend/internal/entity"
	"github.com/snobbots/chatbot-backend/internal/pkg/logger"
	"github.com/snobbots/chatbot-backend/internal/pkg/response"
	"go.uber.org/zap"
)

const tenantHeader = "X-Tenant-ID"

type Handler struct {
	usecase UsageUsecase
}

func NewHandler(usecase UsageUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// GetTenantUsage handles GET /usage
func (h *Handler) GetTenantUsage(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetTenantUsage")

	rows, err := h.usecase.TenantUsage(ctx, r.Header.Get(tenantHeader))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	resp := tenantUsageResponse{Bots: make([]botUsageResponse, 0, len(rows))}
	for _, row := range rows {
		resp.Bots = append(resp.Bots, toBotUsageResponse(row))
		resp.Total += row.Total()
	}

	ctxzap.Info(ctx, "tenant usage read",
		zap.Int("bot_count", len(resp.Bots)),
		zap.Int64("total_tokens", resp.Total),
	)
	response.Success(w, resp)
}

// GetBotUsage handles GET /usage/{title}
func (h *Handler) GetBotUsage(w http.ResponseWriter, r *http.Request) {
	title := chi.URLParam(r, "title")
	ctx := logger.AddFields(r.Context(),
		zap.String("chatbot_title", title),
		zap.String("action", "GetBotUsage"),
	)

	row, err := h.usecase.BotUsage(ctx, r.Header.Get(tenantHeader), title)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, toBotUsageResponse(row))
}

// GetReport handles GET /usage/report and streams the rendered PDF.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetReport")

	doc, filename, err := h.usecase.Report(ctx, r.Header.Get(tenantHeader))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", h.usecase.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		ctxzap.Error(ctx, "failed to write report", zap.Error(err))
	}
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	ctxzap.Error(ctx, "request failed", zap.Error(err))

	switch {
	case errors.Is(err, entity.ErrMissingField), errors.Is(err, entity.ErrInvalidParameter):
		response.Error(w, http.StatusBadRequest, err.Error())
	default:
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
