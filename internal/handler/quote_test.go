package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AiBunty/BoxCostPro-sub007/internal/cache"
	"github.com/AiBunty/BoxCostPro-sub007/internal/events"
	"github.com/AiBunty/BoxCostPro-sub007/internal/middleware"
	"github.com/AiBunty/BoxCostPro-sub007/internal/pricing"
)

type stubFetcher struct {
	snapshot *pricing.Snapshot
	err      error
	calls    int
}

func (f *stubFetcher) FetchSnapshot(ctx context.Context, tenantID string) (*pricing.Snapshot, error) {
	f.calls++
	return f.snapshot, f.err
}

type stubRecorder struct {
	events []events.QuoteEvent
}

func (r *stubRecorder) RecordQuote(event events.QuoteEvent) {
	r.events = append(r.events, event)
}

func testSnapshot() *pricing.Snapshot {
	return &pricing.Snapshot{
		BFPrices: []pricing.BFPriceEntry{
			{BF: 16, BasePrice: 32},
			{BF: 20, BasePrice: 38},
		},
		ShadePremiums: []pricing.ShadePremium{
			{Shade: "golden", Premium: 1.5},
		},
		Rules: &pricing.Rules{
			LowGSMLimit:      100,
			HighGSMLimit:     200,
			LowGSMAdjustment: 2,
			HighGSMAdjustment: 3,
			MarketAdjustment: 0.5,
		},
	}
}

func quoteRequestBody(t *testing.T, bf, gsm float64, shade string) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"bf": bf, "gsm": gsm, "shade": shade})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return bytes.NewBuffer(body)
}

// serveQuote pushes a request through the tenant middleware into the handler,
// the same path production traffic takes.
func serveQuote(h *QuoteHandler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	middleware.TenantContext(http.HandlerFunc(h.CalculateRate)).ServeHTTP(rr, req)
	return rr
}

func TestCalculateRate(t *testing.T) {
	fetcher := &stubFetcher{snapshot: testSnapshot()}
	recorder := &stubRecorder{}
	h := NewQuoteHandler(cache.NewSnapshotCache(time.Minute), fetcher, recorder)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes/rate", quoteRequestBody(t, 20, 150, "Golden"))
	req.Header.Set("X-Tenant-ID", "tenant-1")
	req.Header.Set("X-User-ID", "user-1")

	rr := serveQuote(h, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp quoteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.QuoteID == "" {
		t.Error("expected a quote ID")
	}
	if resp.TenantID != "tenant-1" {
		t.Errorf("expected tenant-1, got %q", resp.TenantID)
	}
	if resp.Breakdown == nil {
		t.Fatal("expected a breakdown")
	}
	// 38 base + 0 GSM (mid band) + 1.5 shade + 0.5 market
	if resp.Breakdown.FinalRate != 40 {
		t.Errorf("expected final rate 40, got %g", resp.Breakdown.FinalRate)
	}

	if len(recorder.events) != 1 {
		t.Fatalf("expected 1 quote event, got %d", len(recorder.events))
	}
	event := recorder.events[0]
	if event.QuoteID != resp.QuoteID {
		t.Errorf("event quote ID %q does not match response %q", event.QuoteID, resp.QuoteID)
	}
	if event.TenantID != "tenant-1" || event.UserID != "user-1" {
		t.Errorf("unexpected event identity: %+v", event)
	}
	if event.FinalRate != 40 {
		t.Errorf("expected event final rate 40, got %g", event.FinalRate)
	}
}

func TestCalculateRateUnpricedBF(t *testing.T) {
	fetcher := &stubFetcher{snapshot: testSnapshot()}
	recorder := &stubRecorder{}
	h := NewQuoteHandler(cache.NewSnapshotCache(time.Minute), fetcher, recorder)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes/rate", quoteRequestBody(t, 35, 150, ""))
	req.Header.Set("X-Tenant-ID", "tenant-1")

	rr := serveQuote(h, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "rate not available for BF 35") {
		t.Errorf("expected unpriced BF message, got %s", rr.Body.String())
	}
	if len(recorder.events) != 0 {
		t.Errorf("expected no quote events for an unpriced BF, got %d", len(recorder.events))
	}
}

func TestCalculateRateValidation(t *testing.T) {
	tests := []struct {
		name string
		bf   float64
		gsm  float64
	}{
		{"zero BF", 0, 150},
		{"negative BF", -16, 150},
		{"zero GSM", 20, 0},
		{"negative GSM", 20, -120},
	}

	h := NewQuoteHandler(cache.NewSnapshotCache(time.Minute), &stubFetcher{snapshot: testSnapshot()}, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes/rate", quoteRequestBody(t, tt.bf, tt.gsm, ""))
			req.Header.Set("X-Tenant-ID", "tenant-1")

			rr := serveQuote(h, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rr.Code)
			}
		})
	}
}

func TestCalculateRateMissingTenant(t *testing.T) {
	h := NewQuoteHandler(cache.NewSnapshotCache(time.Minute), &stubFetcher{snapshot: testSnapshot()}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes/rate", quoteRequestBody(t, 20, 150, ""))

	rr := serveQuote(h, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
}

func TestCalculateRateFetcherError(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("db down")}
	h := NewQuoteHandler(cache.NewSnapshotCache(time.Minute), fetcher, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes/rate", quoteRequestBody(t, 20, 150, ""))
	req.Header.Set("X-Tenant-ID", "tenant-1")

	rr := serveQuote(h, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
}

func TestCalculateRateUsesSnapshotCache(t *testing.T) {
	fetcher := &stubFetcher{snapshot: testSnapshot()}
	h := NewQuoteHandler(cache.NewSnapshotCache(time.Minute), fetcher, nil)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes/rate", quoteRequestBody(t, 16, 90, ""))
		req.Header.Set("X-Tenant-ID", "tenant-1")

		rr := serveQuote(h, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rr.Code)
		}
	}

	if fetcher.calls != 1 {
		t.Errorf("expected a single snapshot fetch, got %d", fetcher.calls)
	}
}
