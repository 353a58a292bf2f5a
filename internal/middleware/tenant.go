package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// RequestContext carries per-request identity resolved by the upstream auth
// proxy. Authentication itself happens before traffic reaches this service;
// we trust the identity headers it injects.
type RequestContext struct {
	RequestID string
	TenantID  string
	UserID    string
}

type contextKey string

const requestContextKey contextKey = "request_context"

// TenantContext extracts tenant/user identity headers and assigns a request
// ID. Requests without a tenant are rejected: every pricing and entitlement
// operation is tenant-scoped.
func TenantContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get("X-Tenant-ID")
		if tenantID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"error":   "Unauthorized",
				"message": "Missing X-Tenant-ID header",
			})
			return
		}

		reqCtx := &RequestContext{
			RequestID: uuid.New().String(),
			TenantID:  tenantID,
			UserID:    r.Header.Get("X-User-ID"),
		}

		ctx := context.WithValue(r.Context(), requestContextKey, reqCtx)
		w.Header().Set("X-Request-ID", reqCtx.RequestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestContext retrieves the request context if present
func GetRequestContext(r *http.Request) (*RequestContext, bool) {
	reqCtx, ok := r.Context().Value(requestContextKey).(*RequestContext)
	return reqCtx, ok
}
