package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AiBunty/BoxCostPro-sub007/internal/metrics"
	"github.com/AiBunty/BoxCostPro-sub007/internal/pricing"
)

// PricingRepository loads and maintains per-tenant pricing reference data
type PricingRepository struct {
	db *sql.DB
}

// NewPricingRepository creates a new pricing repository
func NewPricingRepository(db *sql.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

// FetchSnapshot loads a tenant's full pricing snapshot: BF base prices,
// shade premiums and the rules row. A tenant without a rules row gets a nil
// Rules (the calculator applies its defaults).
// Implements cache.SnapshotFetcher.
func (r *PricingRepository) FetchSnapshot(ctx context.Context, tenantID string) (*pricing.Snapshot, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("fetch_snapshot", time.Since(start)) }()

	snap := &pricing.Snapshot{}

	bfQuery := `
		SELECT bf, base_price
		FROM bf_price_entries
		WHERE tenant_id = $1
		ORDER BY bf
	`

	rows, err := r.db.QueryContext(ctx, bfQuery, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bf prices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry pricing.BFPriceEntry
		if err := rows.Scan(&entry.BF, &entry.BasePrice); err != nil {
			return nil, fmt.Errorf("failed to scan bf price row: %w", err)
		}
		snap.BFPrices = append(snap.BFPrices, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bf prices: %w", err)
	}

	shadeQuery := `
		SELECT shade, premium
		FROM shade_premiums
		WHERE tenant_id = $1
		ORDER BY shade
	`

	shadeRows, err := r.db.QueryContext(ctx, shadeQuery, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shade premiums: %w", err)
	}
	defer shadeRows.Close()

	for shadeRows.Next() {
		var premium pricing.ShadePremium
		if err := shadeRows.Scan(&premium.Shade, &premium.Premium); err != nil {
			return nil, fmt.Errorf("failed to scan shade premium row: %w", err)
		}
		snap.ShadePremiums = append(snap.ShadePremiums, premium)
	}
	if err := shadeRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shade premiums: %w", err)
	}

	rules, err := r.fetchRules(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	snap.Rules = rules

	return snap, nil
}

// fetchRules loads the tenant's pricing rules row. Absent columns fall back
// to the documented defaults in SQL; an absent row is not an error.
func (r *PricingRepository) fetchRules(ctx context.Context, tenantID string) (*pricing.Rules, error) {
	query := `
		SELECT
			COALESCE(low_gsm_limit, 100) as low_gsm_limit,
			COALESCE(high_gsm_limit, 200) as high_gsm_limit,
			COALESCE(low_gsm_adjustment, 0) as low_gsm_adjustment,
			COALESCE(high_gsm_adjustment, 0) as high_gsm_adjustment,
			COALESCE(market_adjustment, 0) as market_adjustment
		FROM pricing_rules
		WHERE tenant_id = $1
	`

	var rules pricing.Rules
	err := r.db.QueryRowContext(ctx, query, tenantID).Scan(
		&rules.LowGSMLimit,
		&rules.HighGSMLimit,
		&rules.LowGSMAdjustment,
		&rules.HighGSMAdjustment,
		&rules.MarketAdjustment,
	)

	if err == sql.ErrNoRows {
		return nil, nil // No rules configured for this tenant
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query pricing rules: %w", err)
	}

	return &rules, nil
}

// UpsertBFPrice creates or updates a BF base price for a tenant
func (r *PricingRepository) UpsertBFPrice(ctx context.Context, tenantID string, entry pricing.BFPriceEntry) error {
	query := `
		INSERT INTO bf_price_entries (tenant_id, bf, base_price, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (tenant_id, bf)
		DO UPDATE SET base_price = EXCLUDED.base_price, updated_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query, tenantID, entry.BF, entry.BasePrice); err != nil {
		return fmt.Errorf("failed to upsert bf price: %w", err)
	}

	return nil
}

// UpsertShadePremium creates or updates a shade premium for a tenant.
// Shades are stored as given; lookups are case-insensitive in the
// calculator, so the unique index is on LOWER(shade).
func (r *PricingRepository) UpsertShadePremium(ctx context.Context, tenantID string, premium pricing.ShadePremium) error {
	query := `
		INSERT INTO shade_premiums (tenant_id, shade, premium, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (tenant_id, LOWER(shade))
		DO UPDATE SET shade = EXCLUDED.shade, premium = EXCLUDED.premium, updated_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query, tenantID, premium.Shade, premium.Premium); err != nil {
		return fmt.Errorf("failed to upsert shade premium: %w", err)
	}

	return nil
}

// UpdateRules replaces the tenant's pricing rules row
func (r *PricingRepository) UpdateRules(ctx context.Context, tenantID string, rules pricing.Rules) error {
	query := `
		INSERT INTO pricing_rules
			(tenant_id, low_gsm_limit, high_gsm_limit, low_gsm_adjustment, high_gsm_adjustment, market_adjustment, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (tenant_id)
		DO UPDATE SET
			low_gsm_limit = EXCLUDED.low_gsm_limit,
			high_gsm_limit = EXCLUDED.high_gsm_limit,
			low_gsm_adjustment = EXCLUDED.low_gsm_adjustment,
			high_gsm_adjustment = EXCLUDED.high_gsm_adjustment,
			market_adjustment = EXCLUDED.market_adjustment,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query, tenantID,
		rules.LowGSMLimit, rules.HighGSMLimit,
		rules.LowGSMAdjustment, rules.HighGSMAdjustment, rules.MarketAdjustment)
	if err != nil {
		return fmt.Errorf("failed to update pricing rules: %w", err)
	}

	return nil
}

// Ping checks if the database connection is alive
func (r *PricingRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
