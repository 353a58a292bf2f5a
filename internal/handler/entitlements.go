package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/AiBunty/BoxCostPro-sub007/internal/cache"
	"github.com/AiBunty/BoxCostPro-sub007/internal/entitlement"
	"github.com/AiBunty/BoxCostPro-sub007/internal/metrics"
	"github.com/AiBunty/BoxCostPro-sub007/internal/middleware"
)

// SubscriptionSource loads subscription snapshots
type SubscriptionSource interface {
	GetSubscription(ctx context.Context, userID string) (*entitlement.Subscription, error)
}

// OverrideSource loads admin overrides for a user
type OverrideSource interface {
	ListActive(ctx context.Context, userID string) ([]entitlement.Override, error)
}

// UsageSource loads consumed quota counters for a tenant
type UsageSource interface {
	GetUsage(ctx context.Context, tenantID string) (entitlement.Usage, error)
}

// EntitlementHandler computes entitlement decisions for the current user
type EntitlementHandler struct {
	engine        *entitlement.Engine
	subscriptions SubscriptionSource
	overrides     OverrideSource
	usage         UsageSource
	decisions     *cache.DecisionCache // nil when Redis is not configured
}

// NewEntitlementHandler creates a new entitlement handler. decisions may be
// nil; every request then computes a fresh decision.
func NewEntitlementHandler(
	subscriptions SubscriptionSource,
	overrides OverrideSource,
	usage UsageSource,
	decisions *cache.DecisionCache,
) *EntitlementHandler {
	return &EntitlementHandler{
		engine:        entitlement.NewEngine(),
		subscriptions: subscriptions,
		overrides:     overrides,
		usage:         usage,
		decisions:     decisions,
	}
}

// GetEntitlements handles GET /api/v1/entitlements
//
// Inactive subscriptions still get a 200 with is_active=false: clients
// render the paywall from the decision, not from an error status.
func (h *EntitlementHandler) GetEntitlements(w http.ResponseWriter, r *http.Request) {
	reqCtx, ok := middleware.GetRequestContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing tenant context", "")
		return
	}
	if reqCtx.UserID == "" {
		respondError(w, http.StatusBadRequest, "Missing X-User-ID header", "")
		return
	}

	if h.decisions != nil {
		if decision, hit := h.decisions.Get(r.Context(), reqCtx.UserID); hit {
			metrics.RecordCacheHit("decision")
			respondJSON(w, http.StatusOK, decision)
			return
		}
		metrics.RecordCacheMiss("decision")
	}

	decision, err := h.compute(r.Context(), reqCtx.UserID, reqCtx.TenantID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to compute entitlements", err.Error())
		return
	}

	if h.decisions != nil {
		// Cache write failures are not worth failing the request over.
		_ = h.decisions.Set(r.Context(), decision)
	}

	respondJSON(w, http.StatusOK, decision)
}

// compute gathers the input snapshot and runs the engine
func (h *EntitlementHandler) compute(ctx context.Context, userID, tenantID string) (*entitlement.Decision, error) {
	sub, err := h.subscriptions.GetSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}

	overrides, err := h.overrides.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	usage, err := h.usage.GetUsage(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	decision := h.engine.Compute(entitlement.Input{
		UserID:       userID,
		TenantID:     tenantID,
		Subscription: *sub,
		Overrides:    overrides,
		Usage:        usage,
		Now:          time.Now().UTC(),
	})

	metrics.RecordEntitlementDecision(string(decision.SubscriptionStatus), decision.IsActive)

	return &decision, nil
}
