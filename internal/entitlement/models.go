package entitlement

import (
	"time"
)

// Status is the subscription lifecycle state at the instant of query.
// trialing -> active -> past_due -> cancelled; trialing can also drop
// straight to cancelled, and past_due recovers to active via an external
// payment event (never computed here).
type Status string

const (
	StatusTrialing  Status = "trialing"
	StatusActive    Status = "active"
	StatusPastDue   Status = "past_due"
	StatusCancelled Status = "cancelled"
	StatusUnknown   Status = "unknown"
)

// Feature flag names known to the product.
const (
	FeatureAPIAccess       = "apiAccess"
	FeaturePDFExport       = "pdfExport"
	FeatureEmailDelivery   = "emailDelivery"
	FeatureAdvancedReports = "advancedReports"
	FeatureTeamManagement  = "teamManagement"
	FeaturePrioritySupport = "prioritySupport"
)

// Quota dimension names known to the product.
const (
	QuotaQuotes         = "quotes"
	QuotaEmailProviders = "emailProviders"
	QuotaPartyProfiles  = "partyProfiles"
	QuotaTeamMembers    = "teamMembers"
	QuotaAPICalls       = "apiCalls"
	QuotaStorageMB      = "storageMb"
)

// Subscription is the subscription truth at the instant of query. The
// engine never mutates it. Features/Quotas carry the plan's resolved maps
// when the caller already has them; when nil the engine falls back to the
// plan catalog by PlanID.
type Subscription struct {
	Status           Status           `json:"status"`
	PlanID           string           `json:"plan_id"`
	Features         map[string]bool  `json:"features,omitempty"`
	Quotas           map[string]int64 `json:"quotas,omitempty"`
	CurrentPeriodEnd time.Time        `json:"current_period_end"`
	TrialEndsAt      *time.Time       `json:"trial_ends_at,omitempty"`
	CancelledAt      *time.Time       `json:"cancelled_at,omitempty"`
	PaymentFailures  int              `json:"payment_failures"`
}

// OverrideKind distinguishes feature overrides from quota overrides.
type OverrideKind string

const (
	OverrideFeature OverrideKind = "feature"
	OverrideQuota   OverrideKind = "quota"
)

// Override is an admin-authored, time-bounded patch on top of plan
// defaults. A feature override carries Enabled; a quota override carries
// Limit (it patches the limit only, never the usage).
type Override struct {
	ID        string       `json:"id"`
	Key       string       `json:"key"` // feature name or quota dimension
	Kind      OverrideKind `json:"kind"`
	Enabled   bool         `json:"enabled,omitempty"`
	Limit     int64        `json:"limit,omitempty"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"` // nil = no expiry
	IsActive  bool         `json:"is_active"`
}

// live reports whether the override applies at the given instant. Expired
// or deactivated overrides are treated as absent, not as errors.
func (o Override) live(now time.Time) bool {
	if !o.IsActive {
		return false
	}
	return o.ExpiresAt == nil || o.ExpiresAt.After(now)
}

// Usage holds counters already consumed per quota dimension.
type Usage map[string]int64

// Input is everything the engine needs for one decision. Now is injected
// so decisions are a pure function of their inputs.
type Input struct {
	UserID       string       `json:"user_id"`
	TenantID     string       `json:"tenant_id"`
	Subscription Subscription `json:"subscription"`
	Overrides    []Override   `json:"overrides"`
	Usage        Usage        `json:"usage"`
	Now          time.Time    `json:"now"`
}

// Quota is the resolved limit/used/remaining triple for one dimension.
// Remaining is clamped at zero even when usage already ran past the limit.
type Quota struct {
	Limit     int64 `json:"limit"`
	Used      int64 `json:"used"`
	Remaining int64 `json:"remaining"`
}

// Decision is the authoritative entitlement set for one user at one
// instant. Freshly computed on every call; any caching happens outside the
// engine and must be invalidated on subscription/override changes.
type Decision struct {
	UserID             string           `json:"user_id"`
	SubscriptionStatus Status           `json:"subscription_status"`
	IsActive           bool             `json:"is_active"`
	Features           map[string]bool  `json:"features"`
	Quotas             map[string]Quota `json:"quotas"`
}
