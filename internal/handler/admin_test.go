package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/AiBunty/BoxCostPro-sub007/internal/cache"
	"github.com/AiBunty/BoxCostPro-sub007/internal/entitlement"
	"github.com/AiBunty/BoxCostPro-sub007/internal/middleware"
	"github.com/AiBunty/BoxCostPro-sub007/internal/pricing"
)

type stubPricingWriter struct {
	bfPrices []pricing.BFPriceEntry
	shades   []pricing.ShadePremium
	rules    []pricing.Rules
}

func (w *stubPricingWriter) UpsertBFPrice(ctx context.Context, tenantID string, entry pricing.BFPriceEntry) error {
	w.bfPrices = append(w.bfPrices, entry)
	return nil
}

func (w *stubPricingWriter) UpsertShadePremium(ctx context.Context, tenantID string, premium pricing.ShadePremium) error {
	w.shades = append(w.shades, premium)
	return nil
}

func (w *stubPricingWriter) UpdateRules(ctx context.Context, tenantID string, rules pricing.Rules) error {
	w.rules = append(w.rules, rules)
	return nil
}

type stubOverrideWriter struct {
	created []entitlement.Override
	revoked []string
	userID  string
}

func (w *stubOverrideWriter) Create(ctx context.Context, userID string, o entitlement.Override) (string, error) {
	w.created = append(w.created, o)
	return "ovr-1", nil
}

func (w *stubOverrideWriter) Revoke(ctx context.Context, overrideID string) (string, error) {
	w.revoked = append(w.revoked, overrideID)
	return w.userID, nil
}

func adminRequest(t *testing.T, method, path string, payload interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(body))
	req.Header.Set("X-Tenant-ID", "tenant-1")
	return req
}

func TestUpsertBFPriceInvalidatesSnapshot(t *testing.T) {
	snapshots := cache.NewSnapshotCache(time.Minute)
	snapshots.Set("tenant-1", testSnapshot())
	writer := &stubPricingWriter{}
	h := NewAdminHandler(writer, &stubOverrideWriter{}, snapshots, nil)

	req := adminRequest(t, http.MethodPut, "/api/v1/admin/pricing/bf-prices",
		pricing.BFPriceEntry{BF: 24, BasePrice: 44})

	rr := httptest.NewRecorder()
	middleware.TenantContext(http.HandlerFunc(h.UpsertBFPrice)).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(writer.bfPrices) != 1 || writer.bfPrices[0].BF != 24 {
		t.Errorf("expected BF 24 to be written, got %+v", writer.bfPrices)
	}
	if _, ok := snapshots.Get("tenant-1"); ok {
		t.Error("expected tenant snapshot to be invalidated after a pricing write")
	}
}

func TestUpsertBFPriceRejectsNonPositiveBF(t *testing.T) {
	h := NewAdminHandler(&stubPricingWriter{}, &stubOverrideWriter{}, cache.NewSnapshotCache(time.Minute), nil)

	req := adminRequest(t, http.MethodPut, "/api/v1/admin/pricing/bf-prices",
		pricing.BFPriceEntry{BF: 0, BasePrice: 44})

	rr := httptest.NewRecorder()
	middleware.TenantContext(http.HandlerFunc(h.UpsertBFPrice)).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestUpdateRulesValidation(t *testing.T) {
	tests := []struct {
		name     string
		rules    pricing.Rules
		expected int
	}{
		{"valid", pricing.Rules{LowGSMLimit: 120, HighGSMLimit: 220}, http.StatusOK},
		{"zero limits fall back to defaults", pricing.Rules{MarketAdjustment: 1}, http.StatusOK},
		{"negative limit", pricing.Rules{LowGSMLimit: -10, HighGSMLimit: 200}, http.StatusBadRequest},
		{"inverted band", pricing.Rules{LowGSMLimit: 220, HighGSMLimit: 120}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAdminHandler(&stubPricingWriter{}, &stubOverrideWriter{}, cache.NewSnapshotCache(time.Minute), nil)

			req := adminRequest(t, http.MethodPut, "/api/v1/admin/pricing/rules", tt.rules)

			rr := httptest.NewRecorder()
			middleware.TenantContext(http.HandlerFunc(h.UpdateRules)).ServeHTTP(rr, req)

			if rr.Code != tt.expected {
				t.Errorf("expected %d, got %d: %s", tt.expected, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestCreateOverride(t *testing.T) {
	writer := &stubOverrideWriter{}
	h := NewAdminHandler(&stubPricingWriter{}, writer, cache.NewSnapshotCache(time.Minute), nil)

	req := adminRequest(t, http.MethodPost, "/api/v1/admin/overrides", map[string]interface{}{
		"user_id": "user-1",
		"key":     entitlement.FeatureAPIAccess,
		"kind":    "feature",
		"enabled": true,
	})

	rr := httptest.NewRecorder()
	h.CreateOverride(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(writer.created) != 1 {
		t.Fatalf("expected 1 override to be created, got %d", len(writer.created))
	}
	created := writer.created[0]
	if created.Key != entitlement.FeatureAPIAccess || created.Kind != entitlement.OverrideFeature {
		t.Errorf("unexpected override: %+v", created)
	}
	if !created.IsActive {
		t.Error("expected a freshly granted override to be active")
	}
}

func TestCreateOverrideRejectsUnknownKind(t *testing.T) {
	h := NewAdminHandler(&stubPricingWriter{}, &stubOverrideWriter{}, cache.NewSnapshotCache(time.Minute), nil)

	req := adminRequest(t, http.MethodPost, "/api/v1/admin/overrides", map[string]interface{}{
		"user_id": "user-1",
		"key":     "quotes",
		"kind":    "discount",
	})

	rr := httptest.NewRecorder()
	h.CreateOverride(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}

func TestRevokeOverride(t *testing.T) {
	writer := &stubOverrideWriter{userID: "user-1"}
	h := NewAdminHandler(&stubPricingWriter{}, writer, cache.NewSnapshotCache(time.Minute), nil)

	router := mux.NewRouter()
	router.HandleFunc("/api/v1/admin/overrides/{id}", h.RevokeOverride).Methods(http.MethodDelete)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/overrides/ovr-1", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(writer.revoked) != 1 || writer.revoked[0] != "ovr-1" {
		t.Errorf("expected ovr-1 to be revoked, got %+v", writer.revoked)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["user_id"] != "user-1" {
		t.Errorf("expected revoked user in response, got %+v", resp)
	}
}
