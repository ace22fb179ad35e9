package knowledge

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "kb:"

// CachedRetriever wraps a Retriever with a Redis cache so repeated queries in
// the same conversation skip the embedding and search round trips. Cache
// failures are logged and treated as misses.
type CachedRetriever struct {
	inner Retriever
	rdb   *redis.Client
	ttl   time.Duration
}

// Ensure CachedRetriever implements Retriever.
var _ Retriever = (*CachedRetriever)(nil)

// NewCachedRetriever wraps inner with a Redis cache.
func NewCachedRetriever(inner Retriever, rdb *redis.Client, ttl time.Duration) *CachedRetriever {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedRetriever{inner: inner, rdb: rdb, ttl: ttl}
}

// Retrieve implements Retriever.
func (c *CachedRetriever) Retrieve(ctx context.Context, agentType, query string, limit int) ([]Passage, error) {
	key := cacheKey(agentType, query)

	if val, err := c.rdb.Get(ctx, key).Result(); err == nil {
		var passages []Passage
		if json.Unmarshal([]byte(val), &passages) == nil {
			return passages, nil
		}
	} else if err != redis.Nil {
		log.Printf("WARN: knowledge cache read failed: %v", err)
	}

	passages, err := c.inner.Retrieve(ctx, agentType, query, limit)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(passages); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Printf("WARN: knowledge cache write failed: %v", err)
		}
	}
	return passages, nil
}

func cacheKey(agentType, query string) string {
	sum := sha1.Sum([]byte(query))
	return cacheKeyPrefix + agentType + ":" + hex.EncodeToString(sum[:])
}
