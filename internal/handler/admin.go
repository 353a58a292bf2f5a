package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/AiBunty/BoxCostPro-sub007/internal/cache"
	"github.com/AiBunty/BoxCostPro-sub007/internal/entitlement"
	"github.com/AiBunty/BoxCostPro-sub007/internal/metrics"
	"github.com/AiBunty/BoxCostPro-sub007/internal/middleware"
	"github.com/AiBunty/BoxCostPro-sub007/internal/pricing"
)

// PricingWriter persists admin pricing changes
type PricingWriter interface {
	UpsertBFPrice(ctx context.Context, tenantID string, entry pricing.BFPriceEntry) error
	UpsertShadePremium(ctx context.Context, tenantID string, premium pricing.ShadePremium) error
	UpdateRules(ctx context.Context, tenantID string, rules pricing.Rules) error
}

// OverrideWriter persists entitlement override changes
type OverrideWriter interface {
	Create(ctx context.Context, userID string, o entitlement.Override) (string, error)
	Revoke(ctx context.Context, overrideID string) (string, error)
}

// AdminHandler serves the back-office pricing and override endpoints.
// Every write invalidates the caches the read path depends on: stale
// snapshots give wrong quotes, stale decisions give wrong entitlements.
type AdminHandler struct {
	pricingWriter PricingWriter
	overrides     OverrideWriter
	snapshots     *cache.SnapshotCache
	decisions     *cache.DecisionCache // nil when Redis is not configured
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(pricingWriter PricingWriter, overrides OverrideWriter, snapshots *cache.SnapshotCache, decisions *cache.DecisionCache) *AdminHandler {
	return &AdminHandler{
		pricingWriter: pricingWriter,
		overrides:     overrides,
		snapshots:     snapshots,
		decisions:     decisions,
	}
}

// UpsertBFPrice handles PUT /api/v1/admin/pricing/bf-prices
func (h *AdminHandler) UpsertBFPrice(w http.ResponseWriter, r *http.Request) {
	reqCtx, ok := middleware.GetRequestContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing tenant context", "")
		return
	}

	var entry pricing.BFPriceEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if entry.BF <= 0 {
		respondError(w, http.StatusBadRequest, "bf must be positive", "")
		return
	}

	if err := h.pricingWriter.UpsertBFPrice(r.Context(), reqCtx.TenantID, entry); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save BF price", err.Error())
		return
	}

	h.snapshots.Invalidate(reqCtx.TenantID)
	respondJSON(w, http.StatusOK, entry)
}

// UpsertShadePremium handles PUT /api/v1/admin/pricing/shade-premiums
func (h *AdminHandler) UpsertShadePremium(w http.ResponseWriter, r *http.Request) {
	reqCtx, ok := middleware.GetRequestContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing tenant context", "")
		return
	}

	var premium pricing.ShadePremium
	if err := json.NewDecoder(r.Body).Decode(&premium); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if premium.Shade == "" {
		respondError(w, http.StatusBadRequest, "shade is required", "")
		return
	}

	if err := h.pricingWriter.UpsertShadePremium(r.Context(), reqCtx.TenantID, premium); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save shade premium", err.Error())
		return
	}

	h.snapshots.Invalidate(reqCtx.TenantID)
	respondJSON(w, http.StatusOK, premium)
}

// UpdateRules handles PUT /api/v1/admin/pricing/rules
func (h *AdminHandler) UpdateRules(w http.ResponseWriter, r *http.Request) {
	reqCtx, ok := middleware.GetRequestContext(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Missing tenant context", "")
		return
	}

	var rules pricing.Rules
	if err := json.NewDecoder(r.Body).Decode(&rules); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if rules.LowGSMLimit < 0 || rules.HighGSMLimit < 0 {
		respondError(w, http.StatusBadRequest, "GSM limits must not be negative", "")
		return
	}
	if rules.LowGSMLimit > 0 && rules.HighGSMLimit > 0 && rules.LowGSMLimit >= rules.HighGSMLimit {
		respondError(w, http.StatusBadRequest, "low_gsm_limit must be below high_gsm_limit", "")
		return
	}

	if err := h.pricingWriter.UpdateRules(r.Context(), reqCtx.TenantID, rules); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save pricing rules", err.Error())
		return
	}

	h.snapshots.Invalidate(reqCtx.TenantID)
	respondJSON(w, http.StatusOK, rules)
}

// overrideRequest is the POST /api/v1/admin/overrides payload
type overrideRequest struct {
	UserID    string     `json:"user_id"`
	Key       string     `json:"key"`
	Kind      string     `json:"kind"`
	Enabled   bool       `json:"enabled"`
	Limit     int64      `json:"limit"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// CreateOverride handles POST /api/v1/admin/overrides
func (h *AdminHandler) CreateOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if req.UserID == "" || req.Key == "" {
		respondError(w, http.StatusBadRequest, "user_id and key are required", "")
		return
	}

	kind := entitlement.OverrideKind(req.Kind)
	if kind != entitlement.OverrideFeature && kind != entitlement.OverrideQuota {
		respondError(w, http.StatusBadRequest, "kind must be 'feature' or 'quota'", "")
		return
	}

	id, err := h.overrides.Create(r.Context(), req.UserID, entitlement.Override{
		Key:       req.Key,
		Kind:      kind,
		Enabled:   req.Enabled,
		Limit:     req.Limit,
		ExpiresAt: req.ExpiresAt,
		IsActive:  true,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create override", err.Error())
		return
	}

	h.invalidateDecision(r.Context(), req.UserID)
	metrics.RecordOverrideWrite("grant")

	respondJSON(w, http.StatusCreated, map[string]string{"id": id, "user_id": req.UserID})
}

// RevokeOverride handles DELETE /api/v1/admin/overrides/{id}
func (h *AdminHandler) RevokeOverride(w http.ResponseWriter, r *http.Request) {
	overrideID := mux.Vars(r)["id"]
	if overrideID == "" {
		respondError(w, http.StatusBadRequest, "override id is required", "")
		return
	}

	userID, err := h.overrides.Revoke(r.Context(), overrideID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Failed to revoke override", err.Error())
		return
	}

	h.invalidateDecision(r.Context(), userID)
	metrics.RecordOverrideWrite("revoke")

	respondJSON(w, http.StatusOK, map[string]string{"id": overrideID, "user_id": userID})
}

// invalidateDecision drops the user's cached decision so the next
// entitlement read reflects the change immediately
func (h *AdminHandler) invalidateDecision(ctx context.Context, userID string) {
	if h.decisions == nil {
		return
	}
	_ = h.decisions.Invalidate(ctx, userID)
}
