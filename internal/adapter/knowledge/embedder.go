package knowledge

import (
	"context"

	"github.com/akillionvoice/callcore/internal/adapter/llm"
)

// LLMEmbedder implements Embedder via the LLM provider's embeddings endpoint.
type LLMEmbedder struct {
	client llm.LLMClient
	model  string
}

// Ensure LLMEmbedder implements Embedder.
var _ Embedder = (*LLMEmbedder)(nil)

// NewLLMEmbedder creates an embedder using the given client and model.
func NewLLMEmbedder(client llm.LLMClient, model string) *LLMEmbedder {
	return &LLMEmbedder{client: client, model: model}
}

// Embed implements Embedder.
func (e *LLMEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbedding(ctx, &llm.EmbeddingRequest{
		Model: e.model,
		Input: text,
	})
	if err != nil {
		return nil, err
	}
	return resp.Data[0].Embedding, nil
}
