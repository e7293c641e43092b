package chat

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/snobbots/chatbot-backend/internal/entity"
	"go.uber.org/zap"
)

const mockAnswer = "Based on the provided context, here is what I found: the uploaded documents cover your question. (MOCK)"

// MockConnector fabricates completions without calling any service. Usage
// numbers follow the four-characters-per-token approximation so ledger
// arithmetic stays plausible in tests.
type MockConnector struct {
	calls  atomic.Int64
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{logger: logger}
}

func (m *MockConnector) Complete(ctx context.Context, prompt string) (string, entity.Usage, error) {
	m.calls.Add(1)
	ctxzap.Info(ctx, "[MOCK] chat completion", zap.Int("prompt_length", len(prompt)))

	usage := mockUsage(prompt)
	return mockAnswer, usage, nil
}

func (m *MockConnector) CompleteStream(ctx context.Context, prompt string, onDelta func(string) error) (entity.Usage, error) {
	m.calls.Add(1)
	ctxzap.Info(ctx, "[MOCK] streamed chat completion", zap.Int("prompt_length", len(prompt)))

	for _, word := range strings.SplitAfter(mockAnswer, " ") {
		if err := onDelta(word); err != nil {
			return entity.Usage{}, err
		}
	}

	return mockUsage(prompt), nil
}

// Calls returns how many completion calls were made. Tests use it to verify
// the no-knowledge-base short circuit never reaches the chat service.
func (m *MockConnector) Calls() int64 {
	return m.calls.Load()
}

func mockUsage(prompt string) entity.Usage {
	promptTokens := len(prompt)/4 + 1
	completionTokens := len(mockAnswer)/4 + 1
	return entity.Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}
