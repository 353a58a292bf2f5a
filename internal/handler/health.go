package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports backing-store liveness for readiness checks
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health handles health check requests
type Health struct {
	startTime time.Time
	db        Pinger
}

// NewHealth creates a new health check handler
func NewHealth(db Pinger) *Health {
	return &Health{
		startTime: time.Now(),
		db:        db,
	}
}

// ServeHTTP handles the health check endpoint
func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"uptime_seconds": time.Since(h.startTime).Seconds(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// Live handles the liveness probe (process is up)
func (h *Health) Live(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Ready handles the readiness probe (dependencies reachable)
func (h *Health) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, "database unreachable", err.Error())
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
