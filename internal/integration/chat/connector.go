// Package chat talks to the hosted chat completion service. Completions can
// be collected whole or streamed fragment by fragment; either way the final
// token usage is reported once the completion finishes.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/snobbots/chatbot-backend/internal/config"
	"github.com/snobbots/chatbot-backend/internal/entity"
	"github.com/snobbots/chatbot-backend/internal/integration/common"
	pkghttp "github.com/snobbots/chatbot-backend/pkg/http"
	"go.uber.org/zap"
)

type Connector struct {
	config    config.ChatConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.ChatConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model         string         `json:"model"`
	Messages      []message      `json:"messages"`
	Stream        bool           `json:"stream,omitempty"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Usage entity.Usage `json:"usage"`
}

// Complete sends the grounding prompt as a single user message and returns
// the whole completion with its token usage.
func (c *Connector) Complete(ctx context.Context, prompt string) (string, entity.Usage, error) {
	ctxzap.Info(ctx, "requesting chat completion", zap.Int("prompt_length", len(prompt)))

	req := &completionRequest{
		Model:    c.config.Model,
		Messages: []message{{Role: "user", Content: prompt}},
	}

	var resp completionResponse
	if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.CompletionsEndpoint, req, &resp); err != nil {
		return "", entity.Usage{}, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", entity.Usage{}, fmt.Errorf("chat completion: response contains no choices")
	}

	ctxzap.Info(ctx, "chat completion received",
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return resp.Choices[0].Message.Content, resp.Usage, nil
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *entity.Usage `json:"usage"`
}

// CompleteStream streams the completion, invoking onDelta for each text
// fragment as it arrives. The returned usage becomes available only after the
// stream terminates. Cancelling ctx aborts the upstream call.
func (c *Connector) CompleteStream(ctx context.Context, prompt string, onDelta func(string) error) (entity.Usage, error) {
	ctxzap.Info(ctx, "requesting streamed chat completion", zap.Int("prompt_length", len(prompt)))

	req := &completionRequest{
		Model:         c.config.Model,
		Messages:      []message{{Role: "user", Content: prompt}},
		Stream:        true,
		StreamOptions: &streamOptions{IncludeUsage: true},
	}

	var usage entity.Usage
	err := c.connector.DoStreamRequest(ctx, http.MethodPost, c.config.CompletionsEndpoint, req, func(data []byte) error {
		var chunk streamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			return fmt.Errorf("decode stream chunk: %w", err)
		}

		if chunk.Usage != nil {
			usage = *chunk.Usage
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			return onDelta(chunk.Choices[0].Delta.Content)
		}
		return nil
	})
	if err != nil {
		return entity.Usage{}, fmt.Errorf("streamed chat completion: %w", err)
	}

	ctxzap.Info(ctx, "streamed chat completion finished",
		zap.Int("completion_tokens", usage.CompletionTokens),
		zap.Int("total_tokens", usage.TotalTokens),
	)

	return usage, nil
}
