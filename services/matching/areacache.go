// File: services/matching/areacache.go
package matching

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rasel1911/onelimo/utils"
)

// FallbackCities is the static list used when the source is unavailable and
// nothing has been cached yet.
var FallbackCities = []string{
	"London", "Manchester", "Birmingham", "Leeds", "Liverpool",
	"Bristol", "Edinburgh", "Glasgow", "Cardiff", "Newcastle",
}

// AreaCache is a read-mostly, lazily refreshed cache of service-area names
// with a fixed TTL. Staleness inside the TTL window is acceptable.
type AreaCache struct {
	mu        sync.Mutex
	values    []string
	fetchedAt time.Time
	ttl       time.Duration
	source    func() ([]string, error)
}

// NewAreaCache wires a cache over the given source. A non-positive TTL
// defaults to one hour.
func NewAreaCache(source func() ([]string, error), ttl time.Duration) *AreaCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AreaCache{source: source, ttl: ttl}
}

// Get returns the cached values, refreshing from the source when the TTL has
// elapsed or force is set. If the source fails, the previous values are kept;
// with nothing cached, the static fallback list is returned.
func (c *AreaCache) Get(force bool) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fresh := !c.fetchedAt.IsZero() && time.Since(c.fetchedAt) < c.ttl
	if fresh && !force && len(c.values) > 0 {
		return append([]string(nil), c.values...), nil
	}

	values, err := c.source()
	if err != nil {
		utils.GetLogger().Warn("Area cache refresh failed, degrading", zap.Error(err))
		if len(c.values) > 0 {
			return append([]string(nil), c.values...), nil
		}
		return append([]string(nil), FallbackCities...), nil
	}

	c.values = values
	c.fetchedAt = time.Now()
	return append([]string(nil), c.values...), nil
}

// Invalidate drops the cached values so the next Get refreshes.
func (c *AreaCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = nil
	c.fetchedAt = time.Time{}
}
