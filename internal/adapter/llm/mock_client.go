package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MockClient is a mock implementation of LLMClient for local development and
// tests without a provider.
type MockClient struct{}

// NewMockClient creates a new mock LLM client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Ensure MockClient implements LLMClient interface.
var _ LLMClient = (*MockClient)(nil)

// CreateChatCompletion returns a deterministic canned response.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content := m.generateMockResponse(req)
	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{
			{
				Index:        0,
				Message:      &ChatMessage{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
		Usage: &Usage{
			PromptTokens:     m.estimateTokens(req),
			CompletionTokens: len(content) / 4,
			TotalTokens:      m.estimateTokens(req) + len(content)/4,
		},
	}, nil
}

// CreateEmbedding returns a fixed-size vector derived from input length.
func (m *MockClient) CreateEmbedding(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float32, 8)
	for i := range vec {
		vec[i] = float32((len(req.Input)+i)%17) / 17
	}
	return &EmbeddingResponse{
		Model: req.Model,
		Data:  []EmbeddingData{{Index: 0, Embedding: vec}},
	}, nil
}

func (m *MockClient) generateMockResponse(req *ChatCompletionRequest) string {
	last := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			last = req.Messages[i].Content
			break
		}
	}
	lower := strings.ToLower(last)
	switch {
	case strings.Contains(lower, "summarize"), strings.Contains(lower, "summary"):
		return "The caller asked a question and the agent walked them through the answer."
	case strings.Contains(lower, "invoice"), strings.Contains(lower, "billing"):
		return "I can help with that invoice. Could you give me the invoice number?"
	case lower == "":
		return "Hi there, how can I help you today?"
	default:
		return "I understand. Let me help you with that."
	}
}

func (m *MockClient) estimateTokens(req *ChatCompletionRequest) int {
	total := 0
	for _, msg := range req.Messages {
		total += len(msg.Content) / 4
	}
	return total
}
