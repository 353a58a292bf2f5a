package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AiBunty/BoxCostPro-sub007/internal/entitlement"
	"github.com/AiBunty/BoxCostPro-sub007/internal/metrics"
)

// SubscriptionRepository loads subscription snapshots for the entitlement
// engine. Subscription rows are written by the billing webhook handlers;
// this repository only reads them.
type SubscriptionRepository struct {
	db *sql.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// GetSubscription retrieves a user's subscription snapshot. A user without
// a subscription row gets a cancelled snapshot on the fallback plan, which
// the engine resolves fail-closed.
func (r *SubscriptionRepository) GetSubscription(ctx context.Context, userID string) (*entitlement.Subscription, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("get_subscription", time.Since(start)) }()

	query := `
		SELECT
			status,
			plan_id,
			current_period_end,
			trial_ends_at,
			cancelled_at,
			COALESCE(payment_failures, 0) as payment_failures
		FROM subscriptions
		WHERE user_id = $1
	`

	var (
		sub         entitlement.Subscription
		status      string
		trialEndsAt sql.NullTime
		cancelledAt sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&status,
		&sub.PlanID,
		&sub.CurrentPeriodEnd,
		&trialEndsAt,
		&cancelledAt,
		&sub.PaymentFailures,
	)

	if err == sql.ErrNoRows {
		return &entitlement.Subscription{
			Status: entitlement.StatusCancelled,
			PlanID: entitlement.FallbackPlanID,
		}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}

	sub.Status = parseStatus(status)
	if trialEndsAt.Valid {
		t := trialEndsAt.Time
		sub.TrialEndsAt = &t
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		sub.CancelledAt = &t
	}

	return &sub, nil
}

// ListUsersWithBoundaryBetween returns user IDs whose trial end or period
// end falls inside the window. The entitlement sweep uses this to
// invalidate cached decisions right after a lifecycle boundary passes.
func (r *SubscriptionRepository) ListUsersWithBoundaryBetween(ctx context.Context, from, to time.Time) ([]string, error) {
	query := `
		SELECT user_id
		FROM subscriptions
		WHERE (trial_ends_at > $1 AND trial_ends_at <= $2)
		   OR (current_period_end > $1 AND current_period_end <= $2)
	`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query boundary subscriptions: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating boundary subscriptions: %w", err)
	}

	return userIDs, nil
}

// GetStripeSubscriptionID returns the user's Stripe subscription ID, or ""
// when the user has no billing link
func (r *SubscriptionRepository) GetStripeSubscriptionID(ctx context.Context, userID string) (string, error) {
	query := `
		SELECT COALESCE(stripe_subscription_id, '')
		FROM subscriptions
		WHERE user_id = $1
	`

	var stripeSubID string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&stripeSubID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query stripe subscription id: %w", err)
	}

	return stripeSubID, nil
}

// RefreshFromBilling replaces the stored snapshot with a freshly fetched
// billing state. The sweep calls this when a lifecycle boundary has passed
// and the stored row may be stale.
func (r *SubscriptionRepository) RefreshFromBilling(ctx context.Context, userID string, sub entitlement.Subscription) error {
	query := `
		UPDATE subscriptions
		SET status = $2,
		    plan_id = $3,
		    current_period_end = $4,
		    trial_ends_at = $5,
		    cancelled_at = $6,
		    payment_failures = $7,
		    updated_at = NOW()
		WHERE user_id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		userID,
		string(sub.Status),
		sub.PlanID,
		sub.CurrentPeriodEnd,
		sub.TrialEndsAt,
		sub.CancelledAt,
		sub.PaymentFailures,
	)
	if err != nil {
		return fmt.Errorf("failed to refresh subscription: %w", err)
	}

	return nil
}

// parseStatus maps a stored status string to the lifecycle enum. Anything
// unrecognized resolves to unknown, which the engine treats as inactive.
func parseStatus(s string) entitlement.Status {
	switch s {
	case "trialing":
		return entitlement.StatusTrialing
	case "active":
		return entitlement.StatusActive
	case "past_due":
		return entitlement.StatusPastDue
	case "cancelled", "canceled":
		return entitlement.StatusCancelled
	default:
		return entitlement.StatusUnknown
	}
}
