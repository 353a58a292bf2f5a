package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/AiBunty/BoxCostPro-sub007/internal/cache"
	"github.com/AiBunty/BoxCostPro-sub007/internal/events"
	"github.com/AiBunty/BoxCostPro-sub007/internal/metrics"
	"github.com/AiBunty/BoxCostPro-sub007/internal/middleware"
	"github.com/AiBunty/BoxCostPro-sub007/internal/pricing"
)

// QuoteRecorder queues quote events for usage tracking. Nil-safe at the
// handler level: usage tracking degrades gracefully when Kafka is down.
type QuoteRecorder interface {
	RecordQuote(event events.QuoteEvent)
}

// QuoteHandler computes paper rate quotes
type QuoteHandler struct {
	calc      *pricing.Calculator
	snapshots *cache.SnapshotCache
	fetcher   cache.SnapshotFetcher
	recorder  QuoteRecorder
}

// NewQuoteHandler creates a new quote handler. recorder may be nil when
// usage event tracking is disabled.
func NewQuoteHandler(snapshots *cache.SnapshotCache, fetcher cache.SnapshotFetcher, recorder QuoteRecorder) *QuoteHandler {
	return &QuoteHandler{
		calc:      pricing.NewCalculator(),
		snapshots: snapshots,
		fetcher:   fetcher,
		recorder:  recorder,
	}
}

// quoteRequest is the POST /api/v1/quotes/rate payload
type quoteRequest struct {
	BF    float64 `json:"bf"`
	GSM   float64 `json:"gsm"`
	Shade string  `json:"shade"`
}

// quoteResponse wraps a breakdown with its quote identity
type quoteResponse struct {
	QuoteID   string             `json:"quote_id"`
	TenantID  string             `json:"tenant_id"`
	Breakdown *pricing.Breakdown `json:"breakdown"`
}

// CalculateRate handles POST /api/v1/quotes/rate
func (h *QuoteHandler) CalculateRate(w http.ResponseWriter, r *http.Request) {
	reqCtx, ok := middleware.GetRequestContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing tenant context", "")
		return
	}

	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if req.BF <= 0 || req.GSM <= 0 {
		respondError(w, http.StatusBadRequest, "bf and gsm must be positive", "")
		return
	}

	snap, err := h.getSnapshot(r, reqCtx.TenantID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load pricing data", err.Error())
		return
	}

	breakdown := h.calc.CalculateRate(pricing.PaperSpec{BF: req.BF, GSM: req.GSM, Shade: req.Shade}, *snap)
	if breakdown == nil {
		// Pricing is undefined for this BF: a validation problem with the
		// paper selection, not a system failure.
		metrics.RecordRateLookupMiss(reqCtx.TenantID)
		metrics.RecordQuoteCalculation(reqCtx.TenantID, "bf_not_found")
		respondError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("rate not available for BF %g", req.BF), "")
		return
	}

	quoteID := uuid.New().String()

	if h.recorder != nil {
		h.recorder.RecordQuote(events.QuoteEvent{
			QuoteID:   quoteID,
			TenantID:  reqCtx.TenantID,
			UserID:    reqCtx.UserID,
			BF:        req.BF,
			GSM:       req.GSM,
			Shade:     req.Shade,
			FinalRate: breakdown.FinalRate,
			Timestamp: time.Now().UTC(),
		})
	}

	metrics.RecordQuoteCalculation(reqCtx.TenantID, "ok")

	respondJSON(w, http.StatusOK, quoteResponse{
		QuoteID:   quoteID,
		TenantID:  reqCtx.TenantID,
		Breakdown: breakdown,
	})
}

// getSnapshot serves the tenant's pricing snapshot from cache, falling back
// to the fetcher on a miss
func (h *QuoteHandler) getSnapshot(r *http.Request, tenantID string) (*pricing.Snapshot, error) {
	if snap, ok := h.snapshots.Get(tenantID); ok {
		metrics.RecordCacheHit("snapshot")
		return snap, nil
	}
	metrics.RecordCacheMiss("snapshot")

	snap, err := h.fetcher.FetchSnapshot(r.Context(), tenantID)
	if err != nil {
		return nil, err
	}

	h.snapshots.Set(tenantID, snap)
	return snap, nil
}
