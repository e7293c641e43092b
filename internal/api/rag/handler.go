package rag

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/snobbots/chatbot-backend/internal/entity"
	"github.com/snobbots/chatbot-backend/internal/pkg/apikey"
	"github.com/snobbots/chatbot-backend/internal/pkg/logger"
	"github.com/snobbots/chatbot-backend/internal/pkg/response"
	"github.com/snobbots/chatbot-backend/internal/pkg/validator"
	"go.uber.org/zap"
)

const (
	tenantHeader = "X-Tenant-ID"
	apiKeyHeader = "X-API-Key"
)

type Handler struct {
	ingest        IngestUsecase
	ask           AskUsecase
	keys          APIKeyResolver
	maxUploadSize int64
}

func NewHandler(
	ingest IngestUsecase,
	ask AskUsecase,
	keys APIKeyResolver,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		ingest:        ingest,
		ask:           ask,
		keys:          keys,
		maxUploadSize: maxUploadSize,
	}
}

// IngestDocs handles POST /rag/docs. The multipart form carries exactly one
// of: a file upload, raw_text, qa_json, or crawl_url.
func (h *Handler) IngestDocs(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "IngestDocs")

	tenantID := r.Header.Get(tenantHeader)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		ctxzap.Error(ctx, "failed to parse multipart form", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid form data or upload too large")
		return
	}

	chatbotTitle := r.FormValue("chatbot_title")

	if crawlURL := r.FormValue("crawl_url"); crawlURL != "" {
		ctxzap.Info(ctx, "crawl ingestion requested", zap.String("crawl_url", crawlURL))
		result, err := h.ingest.IngestFromURL(ctx, tenantID, chatbotTitle, crawlURL)
		if err != nil {
			h.handleUsecaseError(ctx, w, err)
			return
		}
		response.Success(w, result)
		return
	}

	input, err := h.formInput(r)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	result, err := h.ingest.Ingest(ctx, &entity.IngestRequest{
		TenantID:     tenantID,
		ChatbotTitle: chatbotTitle,
		Input:        input,
	})
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "documents ingested",
		zap.Int("chunks_indexed", result.ChunksIndexed),
		zap.Int64("tokens_used", result.TokensUsed),
	)

	response.Success(w, result)
}

// formInput builds the ingestion input union from the multipart form. The
// usecase re-validates; this only assembles what the client sent.
func (h *Handler) formInput(r *http.Request) (entity.IngestInput, error) {
	var input entity.IngestInput
	provided := 0

	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		content, err := io.ReadAll(file)
		if err != nil {
			return input, err
		}
		input = entity.NewFileInput(header.Filename, content)
		provided++
	}

	if rawText := r.FormValue("raw_text"); rawText != "" {
		input = entity.NewRawTextInput(rawText)
		provided++
	}

	if qaJSON := r.FormValue("qa_json"); qaJSON != "" {
		pairs, err := validator.ParseQAPairs(qaJSON)
		if err != nil {
			return input, err
		}
		input = entity.NewQAPairsInput(pairs)
		provided++
	}

	switch {
	case provided == 0:
		return input, entity.ErrNoInput
	case provided > 1:
		return input, entity.ErrAmbiguousInput
	}
	return input, nil
}

type askRequestBody struct {
	Query        string `json:"query"`
	ChatbotTitle string `json:"chatbot_title"`
}

// Ask handles POST /rag/ask. Dashboard clients authenticate with the tenant
// header; embedded widgets present an API key instead, which pins both the
// tenant and the bot. ?stream=true switches to an incremental text/plain
// response.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Ask")

	var body askRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		ctxzap.Error(ctx, "failed to decode ask request", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req := &entity.AskRequest{
		TenantID:     r.Header.Get(tenantHeader),
		ChatbotTitle: body.ChatbotTitle,
		Query:        body.Query,
	}

	if key := r.Header.Get(apiKeyHeader); key != "" {
		// Malformed keys can never resolve; reject them before touching the
		// cache or the database.
		if !apikey.WellFormed(key) {
			response.Error(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		resolved, err := h.keys.ResolveAPIKey(ctx, key)
		if err != nil {
			h.handleUsecaseError(ctx, w, err)
			return
		}
		req.TenantID = resolved.TenantID
		req.ChatbotTitle = resolved.ChatbotTitle
		ctx = logger.AddFields(ctx, zap.String("auth", "api_key"))
	}

	if r.URL.Query().Get("stream") == "true" {
		h.askStream(ctx, w, req)
		return
	}

	result, err := h.ask.Ask(ctx, req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, result)
}

func (h *Handler) askStream(ctx context.Context, w http.ResponseWriter, req *entity.AskRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	// Tells buffering reverse proxies to pass deltas through immediately.
	w.Header().Set("X-Accel-Buffering", "no")

	wroteHeader := false
	result, err := h.ask.AskStream(ctx, req, func(delta string) error {
		if !wroteHeader {
			w.WriteHeader(http.StatusOK)
			wroteHeader = true
		}
		if _, err := io.WriteString(w, delta); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		if !wroteHeader {
			h.handleUsecaseError(ctx, w, err)
			return
		}
		// Mid-stream failures can only be logged; the status line is gone.
		ctxzap.Error(ctx, "stream aborted", zap.Error(err))
		return
	}

	ctxzap.Info(ctx, "ask answered via stream",
		zap.Int("answer_length", len(result.Answer)),
		zap.Int("total_tokens", result.Usage.TotalTokens),
	)
}

type flushRequestBody struct {
	ChatbotTitle string `json:"chatbot_title"`
}

// Flush handles POST /rag/flush: delete the bot's knowledge base, ledger row,
// API key and registration.
func (h *Handler) Flush(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Flush")

	var body flushRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		ctxzap.Error(ctx, "failed to decode flush request", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tenantID := r.Header.Get(tenantHeader)
	if err := h.ingest.Flush(ctx, tenantID, body.ChatbotTitle); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "knowledge base flushed", zap.String("chatbot_title", body.ChatbotTitle))
	response.Success(w, map[string]string{"status": "flushed"})
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	ctxzap.Error(ctx, "request failed", zap.Error(err))

	switch {
	case errors.Is(err, entity.ErrBotNotFound), errors.Is(err, entity.ErrIndexNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, entity.ErrBotLimitExceeded):
		response.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, entity.ErrAPIKeyNotFound):
		response.Error(w, http.StatusUnauthorized, "invalid api key")
	case errors.Is(err, entity.ErrNoInput),
		errors.Is(err, entity.ErrAmbiguousInput),
		errors.Is(err, entity.ErrInvalidQAPairs),
		errors.Is(err, entity.ErrUnsupportedFileType),
		errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidParameter):
		response.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, entity.ErrPartialIngestion):
		response.Error(w, http.StatusBadGateway, err.Error())
	default:
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
