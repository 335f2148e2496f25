package rest

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// readCache is a generation-tagged LRU over GET responses. Every resource
// carries a generation counter; cache keys embed the generation current at
// request start, and any mutation to the resource bumps the counter. Old
// entries become unreachable immediately, and a response that started under
// an old generation can never be stored under the new one, so a slow read
// racing a write cannot resurrect stale data.
type readCache struct {
	mu   sync.Mutex
	gens map[string]uint64
	lru  *lru.Cache[string, []byte]
}

const defaultCacheSize = 256

func newReadCache(size int) *readCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	c, err := lru.New[string, []byte](size)
	if err != nil {
		panic(err)
	}
	return &readCache{gens: map[string]uint64{}, lru: c}
}

// generation returns the current generation for a resource.
func (c *readCache) generation(resource string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[resource]
}

// invalidate bumps the resource's generation, orphaning every cached read.
func (c *readCache) invalidate(resource string) {
	c.mu.Lock()
	c.gens[resource]++
	c.mu.Unlock()
}

func (c *readCache) key(resource string, gen uint64, req string) string {
	return fmt.Sprintf("%s@%d?%s", resource, gen, req)
}

func (c *readCache) get(key string) ([]byte, bool) {
	return c.lru.Get(key)
}

// put stores a response only if the resource generation is still the one the
// request started under.
func (c *readCache) put(resource string, gen uint64, key string, body []byte) {
	c.mu.Lock()
	cur := c.gens[resource]
	c.mu.Unlock()
	if cur != gen {
		return
	}
	c.lru.Add(key, body)
}

// purge drops everything, generations included. Used on logout.
func (c *readCache) purge() {
	c.mu.Lock()
	c.gens = map[string]uint64{}
	c.mu.Unlock()
	c.lru.Purge()
}
