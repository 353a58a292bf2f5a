package cache

import (
	"sync"
	"time"

	"github.com/AiBunty/BoxCostPro-sub007/internal/pricing"
)

// cachedSnapshot pairs a pricing snapshot with its expiry
type cachedSnapshot struct {
	snapshot  *pricing.Snapshot
	expiresAt time.Time
}

// SnapshotCache provides thread-safe in-memory caching of per-tenant
// pricing snapshots so quote requests do not hit Postgres on every call
type SnapshotCache struct {
	data sync.Map      // thread-safe map: tenantID -> *cachedSnapshot
	ttl  time.Duration // Time-to-live for cache entries
}

// NewSnapshotCache creates a new snapshot cache with the specified TTL
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		data: sync.Map{},
		ttl:  ttl,
	}
}

// Get retrieves a cached snapshot for a tenant
// Returns the snapshot and true if found and not expired, nil and false otherwise
func (c *SnapshotCache) Get(tenantID string) (*pricing.Snapshot, bool) {
	value, ok := c.data.Load(tenantID)
	if !ok {
		return nil, false
	}

	cached := value.(*cachedSnapshot)

	// Check if entry has expired
	if time.Now().After(cached.expiresAt) {
		c.data.Delete(tenantID)
		return nil, false
	}

	return cached.snapshot, true
}

// Set stores a tenant's snapshot in the cache with automatic expiration
func (c *SnapshotCache) Set(tenantID string, snap *pricing.Snapshot) {
	c.data.Store(tenantID, &cachedSnapshot{
		snapshot:  snap,
		expiresAt: time.Now().Add(c.ttl),
	})
}

// Invalidate removes a tenant's snapshot from the cache
// Used when admin pricing writes change the reference data
func (c *SnapshotCache) Invalidate(tenantID string) {
	c.data.Delete(tenantID)
}

// Clear removes all entries from the cache
func (c *SnapshotCache) Clear() {
	c.data = sync.Map{}
}

// Size returns the approximate number of entries in the cache
// Note: This is O(n) as it iterates through all entries
func (c *SnapshotCache) Size() int {
	count := 0
	c.data.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}

// CleanExpired removes all expired entries from the cache
// Should be called periodically to prevent memory bloat
func (c *SnapshotCache) CleanExpired() int {
	now := time.Now()
	removed := 0

	c.data.Range(func(key, value interface{}) bool {
		cached := value.(*cachedSnapshot)
		if now.After(cached.expiresAt) {
			c.data.Delete(key)
			removed++
		}
		return true
	})

	return removed
}

// TenantIDs returns the tenant IDs currently cached
func (c *SnapshotCache) TenantIDs() []string {
	var ids []string
	c.data.Range(func(key, _ interface{}) bool {
		ids = append(ids, key.(string))
		return true
	})
	return ids
}
