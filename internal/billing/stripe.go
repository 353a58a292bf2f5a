package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/AiBunty/BoxCostPro-sub007/internal/entitlement"
)

// StripeProvider builds entitlement subscription snapshots from Stripe.
// The webhook pipeline keeps the subscriptions table current; this provider
// is the fallback path when a row looks stale and needs a live read.
type StripeProvider struct {
	client  *client.API
	enabled bool
}

// NewStripeProvider creates a new Stripe provider. An empty API key
// disables live lookups.
func NewStripeProvider(apiKey string) *StripeProvider {
	sp := &StripeProvider{enabled: apiKey != ""}
	if sp.enabled {
		sp.client = &client.API{}
		sp.client.Init(apiKey, nil)
	}
	return sp
}

// Enabled reports whether live Stripe lookups are configured
func (sp *StripeProvider) Enabled() bool {
	return sp.enabled
}

// GetSubscription fetches a subscription from Stripe and maps it to an
// entitlement snapshot
func (sp *StripeProvider) GetSubscription(ctx context.Context, stripeSubID string) (*entitlement.Subscription, error) {
	if !sp.enabled {
		return nil, fmt.Errorf("Stripe integration is disabled")
	}

	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := sp.client.Subscriptions.Get(stripeSubID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Stripe subscription: %w", err)
	}

	mapped := MapSubscription(sub)
	return &mapped, nil
}

// MapSubscription converts a Stripe subscription object into the snapshot
// the entitlement engine consumes. Pure mapping, no API calls.
func MapSubscription(sub *stripe.Subscription) entitlement.Subscription {
	out := entitlement.Subscription{
		Status:           mapStatus(sub.Status),
		PlanID:           planIDFor(sub),
		CurrentPeriodEnd: time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
	}

	if sub.TrialEnd > 0 {
		t := time.Unix(sub.TrialEnd, 0).UTC()
		out.TrialEndsAt = &t
	}
	if sub.CanceledAt > 0 {
		t := time.Unix(sub.CanceledAt, 0).UTC()
		out.CancelledAt = &t
	}

	return out
}

// mapStatus translates Stripe's subscription status into the lifecycle
// enum. Everything Stripe considers non-collectible (incomplete, unpaid,
// paused) maps to a state the engine treats as inactive.
func mapStatus(s stripe.SubscriptionStatus) entitlement.Status {
	switch s {
	case stripe.SubscriptionStatusTrialing:
		return entitlement.StatusTrialing
	case stripe.SubscriptionStatusActive:
		return entitlement.StatusActive
	case stripe.SubscriptionStatusPastDue:
		return entitlement.StatusPastDue
	case stripe.SubscriptionStatusCanceled,
		stripe.SubscriptionStatusIncompleteExpired:
		return entitlement.StatusCancelled
	default:
		return entitlement.StatusUnknown
	}
}

// planIDFor resolves the catalog plan ID for a Stripe subscription: the
// subscription metadata wins, then the price lookup key. An unmapped
// subscription falls back to the trial plan (fail closed).
func planIDFor(sub *stripe.Subscription) string {
	if planID, ok := sub.Metadata["plan_id"]; ok && planID != "" {
		return planID
	}

	if sub.Items != nil && len(sub.Items.Data) > 0 {
		price := sub.Items.Data[0].Price
		if price != nil && price.LookupKey != "" {
			return price.LookupKey
		}
	}

	return entitlement.FallbackPlanID
}
