package entitlement

import (
	"sort"
	"time"
)

// Engine computes entitlement decisions from subscription snapshots.
// It is stateless and safe for concurrent use.
type Engine struct {
}

// NewEngine creates a new entitlement engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Compute resolves the authoritative feature and quota set for one user at
// one instant. It is a pure function of its input: no clock reads, no I/O,
// no caching. Callers that cache decisions must invalidate on every
// subscription or override change.
func (e *Engine) Compute(in Input) Decision {
	active := isActive(in.Subscription, in.Now)

	features := make(map[string]bool, len(KnownFeatures))
	for _, name := range featureNames(in) {
		value, _ := resolveFeature(name, in.Subscription, in.Overrides, in.Now)
		// Overrides grant features on top of an active subscription, never
		// instead of one: inactive means every flag is off.
		if !active {
			value = false
		}
		features[name] = value
	}

	// Quotas are computed even for inactive subscriptions so clients can
	// show what a reactivated plan would grant.
	quotas := make(map[string]Quota, len(KnownQuotas))
	for _, name := range quotaNames(in) {
		limit, _ := resolveQuotaLimit(name, in.Subscription, in.Overrides, in.Now)
		used := in.Usage[name]
		quotas[name] = Quota{
			Limit:     limit,
			Used:      used,
			Remaining: remaining(limit, used),
		}
	}

	return Decision{
		UserID:             in.UserID,
		SubscriptionStatus: in.Subscription.Status,
		IsActive:           active,
		Features:           features,
		Quotas:             quotas,
	}
}

// isActive is the single lifecycle predicate: active, or trialing with time
// left on the trial. past_due and cancelled are never active here; recovery
// from past_due is an external payment event that flips the status itself.
func isActive(sub Subscription, now time.Time) bool {
	switch sub.Status {
	case StatusActive:
		return true
	case StatusTrialing:
		return sub.TrialEndsAt != nil && now.Before(*sub.TrialEndsAt)
	default:
		return false
	}
}

// remaining clamps at zero; usage past the limit never goes negative.
func remaining(limit, used int64) int64 {
	if used >= limit {
		return 0
	}
	return limit - used
}

// featureNames is the union of known flags, the plan's flags and any
// feature override keys, sorted for deterministic decisions.
func featureNames(in Input) []string {
	set := make(map[string]struct{}, len(KnownFeatures))
	for _, name := range KnownFeatures {
		set[name] = struct{}{}
	}
	for name := range planFeatures(in.Subscription) {
		set[name] = struct{}{}
	}
	for _, o := range in.Overrides {
		if o.Kind == OverrideFeature {
			set[o.Key] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// quotaNames mirrors featureNames for quota dimensions.
func quotaNames(in Input) []string {
	set := make(map[string]struct{}, len(KnownQuotas))
	for _, name := range KnownQuotas {
		set[name] = struct{}{}
	}
	for name := range planQuotas(in.Subscription) {
		set[name] = struct{}{}
	}
	for _, o := range in.Overrides {
		if o.Kind == OverrideQuota {
			set[o.Key] = struct{}{}
		}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
