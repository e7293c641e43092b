// Package ask answers stateless questions against a bot's knowledge base:
// embed the query, retrieve the nearest chunks, ground a completion prompt in
// them, and account the spend.
package ask

import (
	"context"
	"fmt"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/snobbots/chatbot-backend/internal/entity"
	"github.com/snobbots/chatbot-backend/internal/pkg/validator"
	"github.com/snobbots/chatbot-backend/internal/repository"
	"go.uber.org/zap"
)

// topK is how many chunks ground each answer. Three chunks of ~1000 chars fit
// comfortably in the completion context while covering adjacent content via
// the chunk overlap.
const topK = 3

const promptTemplate = `You are a helpful chatbot assistant. Answer the question using only the context below. If the context does not contain the answer, say that you don't know.

Context:
%s

Question: %s
Answer:`

const noContextPlaceholder = "No context found."

type AskUsecase struct {
	usageRepo repository.TokenUsageRepository
	embedder  EmbeddingConnector
	index     VectorIndexConnector
	chat      ChatConnector
	logger    *zap.Logger
}

func NewUsecase(
	usageRepo repository.TokenUsageRepository,
	embedder EmbeddingConnector,
	index VectorIndexConnector,
	chat ChatConnector,
	logger *zap.Logger,
) *AskUsecase {
	return &AskUsecase{
		usageRepo: usageRepo,
		embedder:  embedder,
		index:     index,
		chat:      chat,
		logger:    logger,
	}
}

// Ask returns a grounded answer for one query. A bot with no indexed content
// gets the fixed no-knowledge-base answer with zero usage; the chat service is
// not called in that case.
func (uc *AskUsecase) Ask(ctx context.Context, req *entity.AskRequest) (*entity.AskResult, error) {
	prompt, empty, err := uc.buildPrompt(ctx, req)
	if err != nil {
		return nil, err
	}
	if empty {
		return &entity.AskResult{Answer: entity.NoKnowledgeBaseAnswer}, nil
	}

	answer, usage, err := uc.chat.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	uc.recordUsage(ctx, req, usage)

	return &entity.AskResult{Answer: answer, Usage: usage}, nil
}

// AskStream is Ask with the answer delivered incrementally through onDelta.
// The no-knowledge-base sentinel is streamed as a single delta so clients need
// only one code path.
func (uc *AskUsecase) AskStream(ctx context.Context, req *entity.AskRequest, onDelta func(string) error) (*entity.AskResult, error) {
	prompt, empty, err := uc.buildPrompt(ctx, req)
	if err != nil {
		return nil, err
	}
	if empty {
		if err := onDelta(entity.NoKnowledgeBaseAnswer); err != nil {
			return nil, err
		}
		return &entity.AskResult{Answer: entity.NoKnowledgeBaseAnswer}, nil
	}

	var answer strings.Builder
	usage, err := uc.chat.CompleteStream(ctx, prompt, func(delta string) error {
		answer.WriteString(delta)
		return onDelta(delta)
	})
	if err != nil {
		return nil, fmt.Errorf("streamed chat completion: %w", err)
	}

	uc.recordUsage(ctx, req, usage)

	return &entity.AskResult{Answer: answer.String(), Usage: usage}, nil
}

// buildPrompt validates the request, retrieves the grounding chunks, and
// renders the completion prompt. The second return reports the
// no-knowledge-base case: nothing retrievable for this bot.
func (uc *AskUsecase) buildPrompt(ctx context.Context, req *entity.AskRequest) (string, bool, error) {
	if err := validator.ValidateTenantID(req.TenantID); err != nil {
		return "", false, err
	}
	if err := validator.ValidateChatbotTitle(req.ChatbotTitle); err != nil {
		return "", false, err
	}
	if err := validator.ValidateQuery(req.Query); err != nil {
		return "", false, err
	}

	namespace := entity.DeriveNamespace(req.ChatbotTitle)

	embedded, err := uc.embedder.EmbedBatch(ctx, []string{req.Query})
	if err != nil {
		return "", false, fmt.Errorf("embed query: %w", err)
	}
	if len(embedded.Vectors) != 1 {
		return "", false, fmt.Errorf("embed query: expected 1 vector, got %d", len(embedded.Vectors))
	}

	matches, err := uc.index.Query(ctx, req.TenantID, namespace, embedded.Vectors[0], topK)
	if err != nil {
		return "", false, fmt.Errorf("query vector index: %w", err)
	}
	if len(matches) == 0 {
		ctxzap.Info(ctx, "no knowledge base for bot",
			zap.String("tenant_id", req.TenantID),
			zap.String("namespace", namespace),
		)
		return "", true, nil
	}

	contexts := make([]string, 0, len(matches))
	for _, m := range matches {
		if m.Metadata.ChunkText != "" {
			contexts = append(contexts, m.Metadata.ChunkText)
		}
	}

	contextText := noContextPlaceholder
	if len(contexts) > 0 {
		contextText = strings.Join(contexts, "\n\n")
	}

	ctxzap.Debug(ctx, "grounding context retrieved",
		zap.String("namespace", namespace),
		zap.Int("match_count", len(matches)),
	)

	return fmt.Sprintf(promptTemplate, contextText, req.Query), false, nil
}

// recordUsage credits the ask_query ledger category. Only completion tokens
// count here; prompt tokens are not billed to the bot.
func (uc *AskUsecase) recordUsage(ctx context.Context, req *entity.AskRequest, usage entity.Usage) {
	_, err := uc.usageRepo.Record(ctx, req.TenantID, req.ChatbotTitle, entity.CategoryAskQuery, int64(usage.CompletionTokens))
	if err != nil {
		// The answer is already produced; accounting failures are logged,
		// not surfaced to the asking client.
		ctxzap.Error(ctx, "ask token usage not recorded", zap.Error(err))
	}
}
