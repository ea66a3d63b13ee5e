package resolver

import "sync"

// Cache is a concurrency-safe mapping from lookup key (sensor id or city
// name) to resolved city id. It is unbounded: the key space is the sensor
// and city population, which is small and static relative to telemetry
// volume. Only successful resolutions are ever stored.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]string)}
}

// Get returns the cached city id for key, if present.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cityID, ok := c.entries[key]
	return cityID, ok
}

// Put stores the city id for key, silently overwriting any existing entry.
func (c *Cache) Put(key, cityID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cityID
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
