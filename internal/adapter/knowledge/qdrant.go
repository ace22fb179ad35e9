package knowledge

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantConfig holds Qdrant connection configuration.
type QdrantConfig struct {
	// URL is the Qdrant server address (e.g. "https://example.qdrant.io:6334").
	URL string
	// CollectionName is the collection holding agent knowledge passages.
	CollectionName string
	// APIKey is an optional API key for authentication.
	APIKey string
	// MinScore drops results below this similarity threshold.
	MinScore float32
}

// QdrantRetriever implements Retriever against a Qdrant collection. Passages
// carry an agent_type payload field so each agent only sees its own domain
// knowledge.
type QdrantRetriever struct {
	client         *qdrant.Client
	collectionName string
	embedder       Embedder
	minScore       float32
}

// Ensure QdrantRetriever implements Retriever.
var _ Retriever = (*QdrantRetriever)(nil)

// NewQdrantRetriever creates a retriever over a Qdrant collection.
func NewQdrantRetriever(cfg QdrantConfig, embedder Embedder) (*QdrantRetriever, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	parsedURL := cfg.URL
	if !strings.HasPrefix(parsedURL, "http://") && !strings.HasPrefix(parsedURL, "https://") {
		parsedURL = "https://" + parsedURL
	}
	u, err := url.Parse(parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse qdrant url: %w", err)
	}

	host := u.Hostname()
	port := 6334
	if u.Port() != "" {
		p, err := strconv.Atoi(u.Port())
		if err != nil {
			return nil, fmt.Errorf("invalid port: %w", err)
		}
		port = p
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &QdrantRetriever{
		client:         client,
		collectionName: cfg.CollectionName,
		embedder:       embedder,
		minScore:       cfg.MinScore,
	}, nil
}

// Retrieve implements Retriever.
func (r *QdrantRetriever) Retrieve(ctx context.Context, agentType, query string, limit int) ([]Passage, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	limitUint64 := uint64(limit)
	points, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: r.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limitUint64,
		Filter:         agentFilter(agentType),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	passages := make([]Passage, 0, len(points))
	for _, point := range points {
		if r.minScore > 0 && point.Score < r.minScore {
			continue
		}
		p := Passage{Score: point.Score}
		if point.Payload != nil {
			if v, ok := point.Payload["content"]; ok {
				p.Content = v.GetStringValue()
			}
			if v, ok := point.Payload["domain"]; ok {
				p.Domain = v.GetStringValue()
			}
		}
		if p.Content == "" {
			continue
		}
		passages = append(passages, p)
	}
	return passages, nil
}

// Close releases the underlying gRPC connection.
func (r *QdrantRetriever) Close() error {
	return r.client.Close()
}

func agentFilter(agentType string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key:   "agent_type",
						Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: agentType}},
					},
				},
			},
		},
	}
}
