package postgres

import (
	"context"
	"fmt"

	"github.com/kha997/zenamanage/internal/permission"
)

// PermissionRepository persists the permission catalog so role_permissions
// rows have a referential anchor. The in-memory registry stays the source
// of truth for lookups; this table only mirrors it.
type PermissionRepository struct {
	db *DB
}

// NewPermissionRepository creates a new permission repository.
func NewPermissionRepository(db *DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// Seed upserts the catalog. Idempotent; run at bootstrap.
func (r *PermissionRepository) Seed(ctx context.Context, registry *permission.Registry) error {
	for _, p := range registry.All() {
		_, err := r.db.pool.Exec(ctx, `
			INSERT INTO permissions (code, module, action, description)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (code) DO UPDATE SET description = EXCLUDED.description
		`, p.Code.String(), p.Module, p.Action, p.Description)
		if err != nil {
			return fmt.Errorf("failed to seed permission %s: %w", p.Code, err)
		}
	}
	return nil
}
