package compare

import (
	"sync"
)

// HashCache maps a file path to its digest. Each path is computed at most
// once per cache even under concurrent lookups; failures are remembered too,
// so a vanished file is not retried for every pair that references it.
type HashCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	ready  chan struct{}
	digest []byte
	err    error
}

// NewHashCache creates an empty cache
func NewHashCache() *HashCache {
	return &HashCache{entries: make(map[string]*cacheEntry)}
}

// GetOrCompute returns the cached digest for path, calling compute on first use.
// Concurrent callers for the same path wait for the first one.
// computed is true only for the call that ran compute.
func (c *HashCache) GetOrCompute(path string, compute func() ([]byte, error)) (digest []byte, computed bool, err error) {
	c.mu.Lock()
	entry, ok := c.entries[path]
	if !ok {
		entry = &cacheEntry{ready: make(chan struct{})}
		c.entries[path] = entry
	}
	c.mu.Unlock()

	if ok {
		<-entry.ready
		return entry.digest, false, entry.err
	}

	defer close(entry.ready)
	entry.digest, entry.err = compute()
	return entry.digest, true, entry.err
}

// Get returns a digest that was computed successfully, waiting for an
// in-flight computation of the same path
func (c *HashCache) Get(path string) ([]byte, bool) {
	c.mu.Lock()
	entry, ok := c.entries[path]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}

	<-entry.ready
	if entry.err != nil {
		return nil, false
	}
	return entry.digest, true
}

// Len returns the number of paths seen by the cache
func (c *HashCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
