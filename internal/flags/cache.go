// Package flags implements feature flag resolution: a background-refreshed
// definition cache, local evaluation of simple flags, and the remote decide
// fallback for complex or group-scoped flags.
package flags

import (
	"encoding/json"
	"sync"
	"time"
)

// Definition is one feature flag as served by the flag-definitions endpoint.
// Simple flags resolve locally from Active and RolloutPercentage; complex
// flags (filters, multivariate, cohorts) require a decide call.
type Definition struct {
	Key               string   `json:"key"`
	Active            bool     `json:"active"`
	IsSimpleFlag      bool     `json:"is_simple_flag"`
	RolloutPercentage *float64 `json:"rollout_percentage"`
}

// definitionsResponse accepts both the paginated object form and a bare
// array of definitions.
type definitionsResponse struct {
	Results []Definition `json:"results"`
}

func (r *definitionsResponse) UnmarshalJSON(data []byte) error {
	type object struct {
		Results []Definition `json:"results"`
	}
	var obj object
	if err := json.Unmarshal(data, &obj); err == nil {
		r.Results = obj.Results
		return nil
	}

	var list []Definition
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	r.Results = list
	return nil
}

// snapshot is one immutable generation of the cache. It is replaced
// wholesale on every successful refresh so readers never observe a
// half-updated definition set.
type snapshot struct {
	definitions map[string]Definition
	loadedAt    time.Time
}

// Cache holds the last successfully fetched flag definitions.
type Cache struct {
	mu     sync.RWMutex
	snap   *snapshot
	loaded bool
}

// NewCache creates an empty, unloaded cache.
func NewCache() *Cache {
	return &Cache{snap: &snapshot{definitions: map[string]Definition{}}}
}

// Replace atomically installs a new definition set and marks the cache
// loaded.
func (c *Cache) Replace(definitions []Definition) {
	snap := &snapshot{
		definitions: make(map[string]Definition, len(definitions)),
		loadedAt:    time.Now(),
	}
	for _, def := range definitions {
		snap.definitions[def.Key] = def
	}

	c.mu.Lock()
	c.snap = snap
	c.loaded = true
	c.mu.Unlock()
}

// Lookup returns the definition for key from the current snapshot.
func (c *Cache) Lookup(key string) (Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.snap.definitions[key]
	return def, ok
}

// Loaded reports whether at least one refresh has succeeded since the cache
// was created or last invalidated.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// LastLoadedAt returns the time of the last successful refresh.
func (c *Cache) LastLoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.loadedAt
}

// Size returns the number of cached definitions.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snap.definitions)
}

// Invalidate clears the loaded marker so the next on-demand load refreshes
// from the server. The stale definitions remain readable until then.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
}
