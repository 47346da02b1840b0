package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/allyplatform/ally-config/engine/document"
)

// ErrNotFound is returned by repositories when no active override exists for
// a tenant. Absence of an override is not an error on the read path; callers
// translate it into "no tenant layer".
var ErrNotFound = errors.New("tenant: override not found")

// Override is a partial configuration document associated with one tenant.
// It is merged on top of the base document at read time and never mutates
// the base.
type Override struct {
	TenantID  string            `json:"tenant_id"`
	Fragment  document.Document `json:"fragment"`
	Version   string            `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Active    bool              `json:"active"`
}

// Repository persists per-tenant override fragments.
type Repository interface {
	// Get returns the active override for a tenant, or ErrNotFound.
	Get(ctx context.Context, tenantID string) (*Override, error)
	// Upsert stores or replaces the override for a tenant.
	Upsert(ctx context.Context, override *Override) error
	// Deactivate soft-deletes the override for a tenant.
	Deactivate(ctx context.Context, tenantID string) error
	// List returns metadata for all active overrides.
	List(ctx context.Context) ([]*Override, error)
}
