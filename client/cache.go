package client

import (
	"sync"

	"github.com/sqlpp-io/sqlpp/schema"
)

// serverCache holds the reserved-word table and the schema snapshot for
// one server endpoint. Both are read-mostly; writers install complete
// snapshots under the lock so readers see either the old or the new state,
// never a partial one.
type serverCache struct {
	mu       sync.RWMutex
	reserved map[string]struct{}
	schema   *schema.Schema
}

var (
	cachesMu sync.Mutex
	caches   = map[string]*serverCache{}
)

// cacheFor returns the shared cache for a server key (host:port). Handles
// connecting to the same endpoint share one cache.
func cacheFor(key string) *serverCache {
	cachesMu.Lock()
	defer cachesMu.Unlock()
	c, ok := caches[key]
	if !ok {
		c = &serverCache{}
		caches[key] = c
	}
	return c
}

// Schema returns the cached snapshot, nil when invalidated or never
// loaded.
func (c *serverCache) Schema() *schema.Schema {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.schema
}

// SetSchema installs a fresh snapshot.
func (c *serverCache) SetSchema(s *schema.Schema) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.schema = s
}

// Invalidate drops the schema snapshot. Called after any DDL execution.
func (c *serverCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.schema = nil
}

// Reserved returns the cached reserved-word set, nil when not loaded.
func (c *serverCache) Reserved() map[string]struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reserved
}

// SetReserved installs the reserved-word set loaded from the server.
func (c *serverCache) SetReserved(words map[string]struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reserved = words
}
