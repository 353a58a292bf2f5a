package cache

import (
	"context"
	"testing"
	"time"

	"github.com/AiBunty/BoxCostPro-sub007/internal/pricing"
)

func sampleSnapshot(basePrice float64) *pricing.Snapshot {
	return &pricing.Snapshot{
		BFPrices: []pricing.BFPriceEntry{{BF: 18, BasePrice: basePrice}},
	}
}

func TestSnapshotCache_SetGet(t *testing.T) {
	c := NewSnapshotCache(time.Minute)

	c.Set("tenant-1", sampleSnapshot(50))

	got, ok := c.Get("tenant-1")
	if !ok {
		t.Fatal("Expected cache hit for tenant-1")
	}
	if got.BFPrices[0].BasePrice != 50 {
		t.Errorf("Base price: got %v, want 50", got.BFPrices[0].BasePrice)
	}

	if _, ok := c.Get("tenant-2"); ok {
		t.Error("Expected cache miss for unknown tenant")
	}
}

func TestSnapshotCache_Expiry(t *testing.T) {
	c := NewSnapshotCache(10 * time.Millisecond)

	c.Set("tenant-1", sampleSnapshot(50))
	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get("tenant-1"); ok {
		t.Error("Expected entry to expire after TTL")
	}
	if c.Size() != 0 {
		t.Errorf("Size after expired Get: got %d, want 0", c.Size())
	}
}

func TestSnapshotCache_Invalidate(t *testing.T) {
	c := NewSnapshotCache(time.Minute)

	c.Set("tenant-1", sampleSnapshot(50))
	c.Invalidate("tenant-1")

	if _, ok := c.Get("tenant-1"); ok {
		t.Error("Expected cache miss after invalidation")
	}
}

func TestSnapshotCache_CleanExpired(t *testing.T) {
	c := NewSnapshotCache(10 * time.Millisecond)

	c.Set("tenant-1", sampleSnapshot(50))
	c.Set("tenant-2", sampleSnapshot(60))
	time.Sleep(25 * time.Millisecond)
	c.Set("tenant-3", sampleSnapshot(70))

	removed := c.CleanExpired()
	if removed != 2 {
		t.Errorf("CleanExpired: got %d removed, want 2", removed)
	}
	if c.Size() != 1 {
		t.Errorf("Size after clean: got %d, want 1", c.Size())
	}
}

// stubFetcher implements SnapshotFetcher for refresh manager tests
type stubFetcher struct {
	basePrice float64
	calls     int
}

func (f *stubFetcher) FetchSnapshot(_ context.Context, tenantID string) (*pricing.Snapshot, error) {
	f.calls++
	return sampleSnapshot(f.basePrice), nil
}

func TestRefreshManager_RefreshNow(t *testing.T) {
	c := NewSnapshotCache(time.Minute)
	fetcher := &stubFetcher{basePrice: 55}

	c.Set("tenant-1", sampleSnapshot(50))

	rm := NewRefreshManager(c, fetcher, time.Minute)
	rm.RefreshNow()

	if fetcher.calls != 1 {
		t.Errorf("Fetcher calls: got %d, want 1", fetcher.calls)
	}

	got, ok := c.Get("tenant-1")
	if !ok {
		t.Fatal("Expected cache hit after refresh")
	}
	if got.BFPrices[0].BasePrice != 55 {
		t.Errorf("Base price after refresh: got %v, want 55", got.BFPrices[0].BasePrice)
	}
}

func TestRefreshManager_OnlyRefreshesCachedTenants(t *testing.T) {
	c := NewSnapshotCache(time.Minute)
	fetcher := &stubFetcher{basePrice: 55}

	rm := NewRefreshManager(c, fetcher, time.Minute)
	rm.RefreshNow()

	if fetcher.calls != 0 {
		t.Errorf("Fetcher calls with empty cache: got %d, want 0", fetcher.calls)
	}
}

func TestRefreshManager_StartStop(t *testing.T) {
	c := NewSnapshotCache(time.Minute)
	fetcher := &stubFetcher{basePrice: 55}

	rm := NewRefreshManager(c, fetcher, 10*time.Millisecond)
	go rm.Start()

	c.Set("tenant-1", sampleSnapshot(50))
	time.Sleep(35 * time.Millisecond)
	rm.Stop()

	if fetcher.calls == 0 {
		t.Error("Expected at least one background refresh")
	}
}
