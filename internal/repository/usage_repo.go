package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AiBunty/BoxCostPro-sub007/internal/entitlement"
	"github.com/AiBunty/BoxCostPro-sub007/internal/metrics"
)

// UsageRepository reads consumed quota counters. Counters are maintained by
// the usage event consumers; this repository never writes them.
type UsageRepository struct {
	db *sql.DB
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// GetUsage retrieves the tenant's consumed counters per quota dimension.
// Dimensions with no counter row are simply absent from the map (the
// engine reads absent as zero).
func (r *UsageRepository) GetUsage(ctx context.Context, tenantID string) (entitlement.Usage, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("get_usage", time.Since(start)) }()

	query := `
		SELECT dimension, SUM(used) as used
		FROM usage_counters
		WHERE tenant_id = $1
		GROUP BY dimension
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage counters: %w", err)
	}
	defer rows.Close()

	usage := make(entitlement.Usage)
	for rows.Next() {
		var dimension string
		var used int64
		if err := rows.Scan(&dimension, &used); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		usage[dimension] = used
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage counters: %w", err)
	}

	return usage, nil
}

// GetDimensionUsage retrieves a single dimension counter for a tenant
func (r *UsageRepository) GetDimensionUsage(ctx context.Context, tenantID, dimension string) (int64, error) {
	query := `
		SELECT SUM(used)
		FROM usage_counters
		WHERE tenant_id = $1 AND dimension = $2
		GROUP BY dimension
	`

	var used int64
	err := r.db.QueryRowContext(ctx, query, tenantID, dimension).Scan(&used)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query dimension usage: %w", err)
	}

	return used, nil
}
