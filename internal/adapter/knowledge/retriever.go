// Package knowledge provides the optional knowledge-base collaborator:
// ranked context passages for a conversation, retrieved by vector similarity.
package knowledge

import "context"

// Passage is one ranked piece of reference text.
type Passage struct {
	Content string  `json:"content"`
	Score   float32 `json:"score"`
	Domain  string  `json:"domain,omitempty"`
}

// Retriever returns ranked context passages for an agent and query. A nil
// Retriever anywhere in the pipeline means "no knowledge base": no context is
// injected and no error is raised.
type Retriever interface {
	Retrieve(ctx context.Context, agentType, query string, limit int) ([]Passage, error)
}

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
