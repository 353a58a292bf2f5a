package cache

import (
	"context"
	"log"
	"time"

	"github.com/AiBunty/BoxCostPro-sub007/internal/pricing"
)

// SnapshotFetcher defines the interface for fetching pricing snapshots from
// a data source. This allows for easy mocking in tests.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, tenantID string) (*pricing.Snapshot, error)
}

// RefreshManager keeps cached tenant snapshots warm by re-fetching them in
// the background before their TTL lapses
type RefreshManager struct {
	cache     *SnapshotCache
	fetcher   SnapshotFetcher
	interval  time.Duration
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewRefreshManager creates a new refresh manager
func NewRefreshManager(cache *SnapshotCache, fetcher SnapshotFetcher, interval time.Duration) *RefreshManager {
	return &RefreshManager{
		cache:     cache,
		fetcher:   fetcher,
		interval:  interval,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Start begins the background refresh process
// This should be called in a separate goroutine
func (rm *RefreshManager) Start() {
	log.Printf("[RefreshManager] Starting background snapshot refresh (interval: %v)", rm.interval)

	ticker := time.NewTicker(rm.interval)
	defer ticker.Stop()
	defer close(rm.stoppedCh)

	for {
		select {
		case <-ticker.C:
			rm.refreshAll()
		case <-rm.stopCh:
			log.Println("[RefreshManager] Stopping background refresh")
			return
		}
	}
}

// Stop gracefully stops the background refresh process
func (rm *RefreshManager) Stop() {
	close(rm.stopCh)
	<-rm.stoppedCh // Wait for goroutine to finish
	log.Println("[RefreshManager] Background refresh stopped")
}

// refreshAll re-fetches every tenant snapshot currently in the cache.
// Tenants only enter the cache on first use, so this never fetches data
// nobody is quoting against.
func (rm *RefreshManager) refreshAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tenantIDs := rm.cache.TenantIDs()
	if len(tenantIDs) == 0 {
		return
	}

	refreshed := 0
	for _, tenantID := range tenantIDs {
		snap, err := rm.fetcher.FetchSnapshot(ctx, tenantID)
		if err != nil {
			log.Printf("[RefreshManager] ERROR: Failed to refresh snapshot for tenant %s: %v", tenantID, err)
			continue
		}
		rm.cache.Set(tenantID, snap)
		refreshed++
	}

	removed := rm.cache.CleanExpired()

	log.Printf("[RefreshManager] Snapshot refresh complete: refreshed=%d, removed=%d, total=%d",
		refreshed, removed, rm.cache.Size())
}

// RefreshNow triggers an immediate refresh of all cached tenants (useful for testing)
func (rm *RefreshManager) RefreshNow() {
	rm.refreshAll()
}
