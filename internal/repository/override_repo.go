package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/AiBunty/BoxCostPro-sub007/internal/entitlement"
)

// OverrideRepository manages admin-authored entitlement overrides
type OverrideRepository struct {
	db *sql.DB
}

// NewOverrideRepository creates a new override repository
func NewOverrideRepository(db *sql.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

// ListActive retrieves a user's active overrides. Expired overrides are
// returned too; expiry is evaluated by the engine against the decision's
// own clock so a decision stays a pure function of its inputs.
func (r *OverrideRepository) ListActive(ctx context.Context, userID string) ([]entitlement.Override, error) {
	query := `
		SELECT id, key, kind, COALESCE(enabled, false), COALESCE(limit_value, 0), expires_at, is_active
		FROM entitlement_overrides
		WHERE user_id = $1
		  AND is_active = true
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query overrides: %w", err)
	}
	defer rows.Close()

	var overrides []entitlement.Override
	for rows.Next() {
		var (
			o         entitlement.Override
			kind      string
			expiresAt sql.NullTime
		)
		if err := rows.Scan(&o.ID, &o.Key, &kind, &o.Enabled, &o.Limit, &expiresAt, &o.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan override row: %w", err)
		}
		o.Kind = entitlement.OverrideKind(kind)
		if expiresAt.Valid {
			t := expiresAt.Time
			o.ExpiresAt = &t
		}
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overrides: %w", err)
	}

	return overrides, nil
}

// Create stores a new override for a user and returns its ID
func (r *OverrideRepository) Create(ctx context.Context, userID string, o entitlement.Override) (string, error) {
	id := o.ID
	if id == "" {
		id = uuid.New().String()
	}

	query := `
		INSERT INTO entitlement_overrides
			(id, user_id, key, kind, enabled, limit_value, expires_at, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true, NOW())
	`

	_, err := r.db.ExecContext(ctx, query, id, userID, o.Key, string(o.Kind), o.Enabled, o.Limit, o.ExpiresAt)
	if err != nil {
		return "", fmt.Errorf("failed to create override: %w", err)
	}

	return id, nil
}

// Revoke deactivates an override. Revoked overrides stay in the table for
// audit; ListActive stops returning them.
func (r *OverrideRepository) Revoke(ctx context.Context, overrideID string) (string, error) {
	query := `
		UPDATE entitlement_overrides
		SET is_active = false, revoked_at = NOW()
		WHERE id = $1
		RETURNING user_id
	`

	var userID string
	err := r.db.QueryRowContext(ctx, query, overrideID).Scan(&userID)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("override not found: %s", overrideID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to revoke override: %w", err)
	}

	return userID, nil
}

// ListForUser retrieves every override for a user, active or not (CLI view)
func (r *OverrideRepository) ListForUser(ctx context.Context, userID string) ([]entitlement.Override, error) {
	query := `
		SELECT id, key, kind, COALESCE(enabled, false), COALESCE(limit_value, 0), expires_at, is_active
		FROM entitlement_overrides
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query overrides: %w", err)
	}
	defer rows.Close()

	var overrides []entitlement.Override
	for rows.Next() {
		var (
			o         entitlement.Override
			kind      string
			expiresAt sql.NullTime
		)
		if err := rows.Scan(&o.ID, &o.Key, &kind, &o.Enabled, &o.Limit, &expiresAt, &o.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan override row: %w", err)
		}
		o.Kind = entitlement.OverrideKind(kind)
		if expiresAt.Valid {
			t := expiresAt.Time
			o.ExpiresAt = &t
		}
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overrides: %w", err)
	}

	return overrides, nil
}
