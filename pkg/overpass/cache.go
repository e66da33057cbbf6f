package overpass

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/trailscan/brunnels/pkg/monitoring"
	"github.com/trailscan/brunnels/pkg/tracing"
)

const defaultCacheSize = 64

// queryCache is an LRU cache of parsed Overpass responses keyed by the query
// text. Repeated runs over the same route hit the cache instead of the API.
type queryCache struct {
	entries *lru.Cache[string, []Element]
}

func newQueryCache(size int) *queryCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	entries, err := lru.New[string, []Element](size)
	if err != nil {
		entries, _ = lru.New[string, []Element](16) // Fallback to smaller cache
	}
	return &queryCache{entries: entries}
}

func (c *queryCache) get(query string) ([]Element, bool) {
	elements, ok := c.entries.Get(query)
	if ok {
		monitoring.RecordCacheHit(tracing.CacheTypeOverpass)
	} else {
		monitoring.RecordCacheMiss(tracing.CacheTypeOverpass)
	}
	return elements, ok
}

func (c *queryCache) add(query string, elements []Element) {
	c.entries.Add(query, elements)
	monitoring.UpdateCacheSize(tracing.CacheTypeOverpass, c.entries.Len())
}
