package knowledge

import "testing"

func TestCacheKeyStableAndScoped(t *testing.T) {
	k1 := cacheKey("billing", "how do refunds work")
	k2 := cacheKey("billing", "how do refunds work")
	if k1 != k2 {
		t.Fatal("cache key must be deterministic")
	}

	if cacheKey("support", "how do refunds work") == k1 {
		t.Fatal("cache key must be scoped per agent")
	}
	if cacheKey("billing", "different query") == k1 {
		t.Fatal("cache key must depend on the query")
	}
}
