package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request latency in milliseconds
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pricing_request_duration_ms",
			Help:    "HTTP request duration in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "endpoint", "status"},
	)

	// QuoteCalculations counts rate calculations by tenant and outcome
	QuoteCalculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_quote_calculations_total",
			Help: "Total number of paper rate calculations",
		},
		[]string{"tenant_id", "result"},
	)

	// RateLookupMisses counts BF values with no configured base price
	RateLookupMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_rate_lookup_misses_total",
			Help: "Total number of rate calculations rejected for an unpriced BF",
		},
		[]string{"tenant_id"},
	)

	// EntitlementDecisions counts computed decisions by subscription status
	EntitlementDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_entitlement_decisions_total",
			Help: "Total number of entitlement decisions computed",
		},
		[]string{"status", "active"},
	)

	// CacheHits tracks snapshot/decision cache hits
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	// CacheMisses tracks snapshot/decision cache misses
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// DatabaseQueryDuration tracks database query performance
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pricing_db_query_duration_ms",
			Help:    "Database query duration in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"query_type"},
	)

	// OverrideWrites counts override grants and revocations
	OverrideWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_override_writes_total",
			Help: "Total number of entitlement override grants and revocations",
		},
		[]string{"action"},
	)

	// SweepInvalidations counts decisions invalidated by the lifecycle sweep
	SweepInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricing_sweep_invalidations_total",
			Help: "Total number of cached decisions invalidated by the lifecycle sweep",
		},
	)
)

// RecordRequestDuration records HTTP request duration
func RecordRequestDuration(method, endpoint, status string, duration time.Duration) {
	RequestDuration.WithLabelValues(method, endpoint, status).Observe(float64(duration.Milliseconds()))
}

// RecordQuoteCalculation records a completed rate calculation
func RecordQuoteCalculation(tenantID, result string) {
	QuoteCalculations.WithLabelValues(tenantID, result).Inc()
}

// RecordRateLookupMiss records an unpriced-BF rejection
func RecordRateLookupMiss(tenantID string) {
	RateLookupMisses.WithLabelValues(tenantID).Inc()
}

// RecordEntitlementDecision records a computed decision
func RecordEntitlementDecision(status string, active bool) {
	activeLabel := "false"
	if active {
		activeLabel = "true"
	}
	EntitlementDecisions.WithLabelValues(status, activeLabel).Inc()
}

// RecordCacheHit records a cache hit
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordDBQuery records database query duration
func RecordDBQuery(queryType string, duration time.Duration) {
	DatabaseQueryDuration.WithLabelValues(queryType).Observe(float64(duration.Milliseconds()))
}

// RecordOverrideWrite records an override grant or revocation
func RecordOverrideWrite(action string) {
	OverrideWrites.WithLabelValues(action).Inc()
}

// RecordSweepInvalidations records decisions dropped by the lifecycle sweep
func RecordSweepInvalidations(count int) {
	SweepInvalidations.Add(float64(count))
}
