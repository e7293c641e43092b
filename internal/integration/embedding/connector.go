// Package embedding talks to the hosted embedding service. One batch call
// embeds many texts; the service reports the token cost of the call.
package embedding

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/snobbots/chatbot-backend/internal/config"
	"github.com/snobbots/chatbot-backend/internal/entity"
	"github.com/snobbots/chatbot-backend/internal/integration/common"
	pkghttp "github.com/snobbots/chatbot-backend/pkg/http"
	"go.uber.org/zap"
)

// Result carries the vectors for one batch call, in input order, plus the
// token cost reported by the service.
type Result struct {
	Vectors [][]float32
	Tokens  int64
}

type Connector struct {
	config    config.EmbeddingConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.EmbeddingConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage struct {
		PromptTokens int64 `json:"prompt_tokens"`
		TotalTokens  int64 `json:"total_tokens"`
	} `json:"usage"`
}

// EmbedBatch embeds all texts in one service call. Output order matches input
// order. Failures are not retried here; the caller decides whether to retry.
func (c *Connector) EmbedBatch(ctx context.Context, texts []string) (*Result, error) {
	if len(texts) == 0 {
		return &Result{}, nil
	}

	ctxzap.Debug(ctx, "embedding batch via embedding service", zap.Int("text_count", len(texts)))

	req := &embeddingsRequest{Model: c.config.Model, Input: texts}

	var resp embeddingsResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.EmbeddingsEndpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	// The service is allowed to reorder; the index field restores input order.
	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		if len(d.Embedding) != c.config.Dimension {
			return nil, fmt.Errorf("%w: got %d, configured %d",
				entity.ErrDimensionMismatch, len(d.Embedding), c.config.Dimension)
		}
		vectors[i] = d.Embedding
	}

	ctxzap.Debug(ctx, "batch embedded",
		zap.Int("vector_count", len(vectors)),
		zap.Int64("tokens", resp.Usage.TotalTokens),
	)

	return &Result{Vectors: vectors, Tokens: resp.Usage.TotalTokens}, nil
}

// Dimension returns the configured embedding dimension.
func (c *Connector) Dimension() int {
	return c.config.Dimension
}
