package bots

import (
	"context"
	"encoding/json"
	"errors"
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
	usecase BotUsecase
}

func NewHandler(usecase BotUsecase) *Handler {
	return &Handler{usecase: usecase}
}

type createBotRequest struct {
	Title string `json:"title"`
}

// CreateBot handles POST /bots
func (h *Handler) CreateBot(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "CreateBot")

	var body createBotRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		ctxzap.Error(ctx, "failed to decode create bot request", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	bot, created, err := h.usecase.CreateBot(ctx, r.Header.Get(tenantHeader), body.Title)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "bot create handled",
		zap.String("title", bot.Title),
		zap.Bool("created", created),
	)

	if created {
		response.Created(w, toBotResponse(bot))
		return
	}
	response.Success(w, toBotResponse(bot))
}

// ListBots handles GET /bots
func (h *Handler) ListBots(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListBots")

	botList, err := h.usecase.ListBots(ctx, r.Header.Get(tenantHeader))
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	resp := listBotsResponse{Bots: make([]botResponse, 0, len(botList))}
	for _, bot := range botList {
		resp.Bots = append(resp.Bots, toBotResponse(bot))
	}

	ctxzap.Info(ctx, "bots listed", zap.Int("count", len(resp.Bots)))
	response.Success(w, resp)
}

// MintAPIKey handles POST /bots/{title}/api-key
func (h *Handler) MintAPIKey(w http.ResponseWriter, r *http.Request) {
	title := chi.URLParam(r, "title")
	ctx := logger.AddFields(r.Context(),
		zap.String("chatbot_title", title),
		zap.String("action", "MintAPIKey"),
	)

	key, err := h.usecase.MintAPIKey(ctx, r.Header.Get(tenantHeader), title)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "api key issued")
	response.Success(w, toAPIKeyResponse(key))
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	ctxzap.Error(ctx, "request failed", zap.Error(err))

	switch {
	case errors.Is(err, entity.ErrBotNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, entity.ErrBotLimitExceeded):
		response.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, entity.ErrMissingField), errors.Is(err, entity.ErrInvalidParameter):
		response.Error(w, http.StatusBadRequest, err.Error())
	default:
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
