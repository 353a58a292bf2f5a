package entitlement

import (
	"time"
)

// Source records which layer produced a resolved value. Every value in a
// decision comes from exactly one source; the layers never blend.
type Source string

const (
	SourceOverride Source = "override"
	SourcePlan     Source = "plan"
	SourceFallback Source = "fallback"
)

// featureResolver tries one resolution layer for a feature flag. ok=false
// means the layer has no opinion and the next one is consulted.
type featureResolver func(name string, sub Subscription, overrides []Override, now time.Time) (value bool, ok bool)

// quotaResolver is the quota-limit counterpart.
type quotaResolver func(name string, sub Subscription, overrides []Override, now time.Time) (limit int64, ok bool)

// Resolution order is override > plan default > fallback. The fallback is
// not a resolver: a feature nobody knows is false, a quota nobody knows has
// limit 0, both failing closed.
var (
	featureResolvers = []featureResolver{featureFromOverride, featureFromPlan}
	quotaResolvers   = []quotaResolver{quotaFromOverride, quotaFromPlan}
)

// resolveFeature runs the resolver chain for one feature name.
func resolveFeature(name string, sub Subscription, overrides []Override, now time.Time) (bool, Source) {
	for i, r := range featureResolvers {
		if v, ok := r(name, sub, overrides, now); ok {
			if i == 0 {
				return v, SourceOverride
			}
			return v, SourcePlan
		}
	}
	return false, SourceFallback
}

// resolveQuotaLimit runs the resolver chain for one quota dimension.
func resolveQuotaLimit(name string, sub Subscription, overrides []Override, now time.Time) (int64, Source) {
	for i, r := range quotaResolvers {
		if v, ok := r(name, sub, overrides, now); ok {
			if i == 0 {
				return v, SourceOverride
			}
			return v, SourcePlan
		}
	}
	return 0, SourceFallback
}

// featureFromOverride returns the first live feature override for the name.
// A live override wins outright, including grants the plan never included.
func featureFromOverride(name string, _ Subscription, overrides []Override, now time.Time) (bool, bool) {
	for _, o := range overrides {
		if o.Kind == OverrideFeature && o.Key == name && o.live(now) {
			return o.Enabled, true
		}
	}
	return false, false
}

// featureFromPlan consults the subscription's feature map, falling back to
// the plan catalog when the snapshot carries none.
func featureFromPlan(name string, sub Subscription, _ []Override, _ time.Time) (bool, bool) {
	features := planFeatures(sub)
	v, ok := features[name]
	return v, ok
}

// quotaFromOverride returns the first live quota override's limit.
func quotaFromOverride(name string, _ Subscription, overrides []Override, now time.Time) (int64, bool) {
	for _, o := range overrides {
		if o.Kind == OverrideQuota && o.Key == name && o.live(now) {
			return o.Limit, true
		}
	}
	return 0, false
}

// quotaFromPlan consults the subscription's quota map or the plan catalog.
func quotaFromPlan(name string, sub Subscription, _ []Override, _ time.Time) (int64, bool) {
	quotas := planQuotas(sub)
	v, ok := quotas[name]
	return v, ok
}

// planFeatures picks the feature map for a subscription: the snapshot's own
// map when present, else the catalog plan, else the fallback plan.
func planFeatures(sub Subscription) map[string]bool {
	if sub.Features != nil {
		return sub.Features
	}
	if plan, ok := GetPlanByID(sub.PlanID); ok {
		return plan.Features
	}
	return PredefinedPlans[FallbackPlanID].Features
}

// planQuotas mirrors planFeatures for quota limits.
func planQuotas(sub Subscription) map[string]int64 {
	if sub.Quotas != nil {
		return sub.Quotas
	}
	if plan, ok := GetPlanByID(sub.PlanID); ok {
		return plan.Quotas
	}
	return PredefinedPlans[FallbackPlanID].Quotas
}
