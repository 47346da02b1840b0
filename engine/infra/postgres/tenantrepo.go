package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/allyplatform/ally-config/engine/document"
	"github.com/allyplatform/ally-config/engine/tenant"
)

// TenantRepo persists per-tenant override fragments in the tenant_overrides
// table. Fragments are stored as JSONB partial documents; rows are
// soft-deleted via is_active.
type TenantRepo struct {
	pool *pgxpool.Pool
}

// NewTenantRepo builds a repository on top of the shared pool.
func NewTenantRepo(store *Store) *TenantRepo {
	return &TenantRepo{pool: store.Pool()}
}

var _ tenant.Repository = (*TenantRepo)(nil)

// Get returns the active override for a tenant, or tenant.ErrNotFound.
func (r *TenantRepo) Get(ctx context.Context, tenantID string) (*tenant.Override, error) {
	const query = `
		SELECT tenant_id, fragment, version, created_at, updated_at
		FROM tenant_overrides
		WHERE tenant_id = $1 AND is_active = TRUE`
	row := r.pool.QueryRow(ctx, query, tenantID)
	var (
		override tenant.Override
		fragment []byte
	)
	err := row.Scan(&override.TenantID, &fragment, &override.Version,
		&override.CreatedAt, &override.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, tenant.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tenant override query: %w", err)
	}
	if err := json.Unmarshal(fragment, &override.Fragment); err != nil {
		return nil, fmt.Errorf("decoding tenant override fragment: %w", err)
	}
	override.Active = true
	return &override, nil
}

// Upsert stores or replaces the override for a tenant and reactivates it.
func (r *TenantRepo) Upsert(ctx context.Context, override *tenant.Override) error {
	fragment, err := json.Marshal(map[string]any(override.Fragment))
	if err != nil {
		return fmt.Errorf("encoding tenant override fragment: %w", err)
	}
	const query = `
		INSERT INTO tenant_overrides (tenant_id, fragment, version, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, NOW(), NOW(), TRUE)
		ON CONFLICT (tenant_id) DO UPDATE SET
			fragment = EXCLUDED.fragment,
			version = EXCLUDED.version,
			updated_at = NOW(),
			is_active = TRUE`
	if _, err := r.pool.Exec(ctx, query, override.TenantID, fragment, override.Version); err != nil {
		return fmt.Errorf("tenant override upsert: %w", err)
	}
	return nil
}

// Deactivate soft-deletes the override for a tenant.
func (r *TenantRepo) Deactivate(ctx context.Context, tenantID string) error {
	const query = `
		UPDATE tenant_overrides SET is_active = FALSE, updated_at = NOW()
		WHERE tenant_id = $1`
	tag, err := r.pool.Exec(ctx, query, tenantID)
	if err != nil {
		return fmt.Errorf("tenant override deactivate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrNotFound
	}
	return nil
}

// List returns all active overrides.
func (r *TenantRepo) List(ctx context.Context) ([]*tenant.Override, error) {
	const query = `
		SELECT tenant_id, fragment, version, created_at, updated_at
		FROM tenant_overrides
		WHERE is_active = TRUE
		ORDER BY tenant_id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("tenant override list: %w", err)
	}
	defer rows.Close()
	var overrides []*tenant.Override
	for rows.Next() {
		var (
			override tenant.Override
			fragment []byte
		)
		if err := rows.Scan(&override.TenantID, &fragment, &override.Version,
			&override.CreatedAt, &override.UpdatedAt); err != nil {
			return nil, fmt.Errorf("tenant override scan: %w", err)
		}
		var doc document.Document
		if err := json.Unmarshal(fragment, &doc); err != nil {
			return nil, fmt.Errorf("decoding tenant override fragment: %w", err)
		}
		override.Fragment = doc
		override.Active = true
		overrides = append(overrides, &override)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("tenant override rows: %w", err)
	}
	return overrides, nil
}
