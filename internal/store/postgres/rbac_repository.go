// Copyright 2026 The ZenaManage Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kha997/zenamanage/internal/audit"
	"github.com/kha997/zenamanage/internal/permission"
	"github.com/kha997/zenamanage/internal/rbac"
)

const uniqueViolation = "23505"

// RBACRepository implements rbac.Store. Mutations and their paired audit
// entries commit in one transaction.
type RBACRepository struct {
	db *DB
}

// NewRBACRepository creates a new role and assignment repository.
func NewRBACRepository(db *DB) *RBACRepository {
	return &RBACRepository{db: db}
}

// CreateRole inserts a role with its permission set atomically.
func (r *RBACRepository) CreateRole(ctx context.Context, role *rbac.Role, entry *audit.Entry) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return storeErr("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO roles (id, name, scope, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, role.ID, role.Name, string(role.Scope), role.IsActive, role.CreatedAt, role.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", rbac.ErrDuplicateRoleName, role.Name)
		}
		return storeErr("create role", err)
	}

	if err := insertRolePermissions(ctx, tx, role.ID, role.Permissions); err != nil {
		return err
	}
	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const roleSelect = `
	SELECT r.id, r.name, r.scope, r.is_active, r.created_at, r.updated_at,
	       COALESCE(array_agg(rp.permission_code ORDER BY rp.permission_code)
	                FILTER (WHERE rp.permission_code IS NOT NULL), '{}')
	FROM roles r
	LEFT JOIN role_permissions rp ON rp.role_id = r.id
`

// GetRole retrieves a role with its permission set.
func (r *RBACRepository) GetRole(ctx context.Context, id string) (*rbac.Role, error) {
	return r.getRole(ctx, roleSelect+` WHERE r.id = $1 GROUP BY r.id`, id)
}

// GetRoleByName retrieves a role by its globally unique name.
func (r *RBACRepository) GetRoleByName(ctx context.Context, name string) (*rbac.Role, error) {
	return r.getRole(ctx, roleSelect+` WHERE r.name = $1 GROUP BY r.id`, name)
}

func (r *RBACRepository) getRole(ctx context.Context, query string, arg any) (*rbac.Role, error) {
	role, err := scanRole(r.db.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, rbac.ErrRoleNotFound
		}
		return nil, storeErr("get role", err)
	}
	return role, nil
}

// ListRoles retrieves all roles with their permission sets.
func (r *RBACRepository) ListRoles(ctx context.Context) ([]*rbac.Role, error) {
	rows, err := r.db.pool.Query(ctx, roleSelect+` GROUP BY r.id ORDER BY r.name`)
	if err != nil {
		return nil, storeErr("list roles", err)
	}
	defer rows.Close()

	var roles []*rbac.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, storeErr("scan role", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// CreateAssignment inserts an assignment plus its audit entry. The unique
// constraint on (user_id, role_id, scope_id) rejects a concurrent
// duplicate even when the application-level check raced.
func (r *RBACRepository) CreateAssignment(ctx context.Context, a *rbac.Assignment, entry *audit.Entry) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return storeErr("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO role_assignments (id, user_id, role_id, scope_id, assigned_at, assigned_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.UserID, a.RoleID, a.ScopeID, a.AssignedAt, a.AssignedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return rbac.ErrDuplicateAssignment
		}
		return storeErr("create assignment", err)
	}

	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetAssignment retrieves an assignment by id.
func (r *RBACRepository) GetAssignment(ctx context.Context, id string) (*rbac.Assignment, error) {
	var (
		a       rbac.Assignment
		scopeID sql.NullString
	)
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, user_id, role_id, scope_id, assigned_at, assigned_by
		FROM role_assignments
		WHERE id = $1
	`, id).Scan(&a.ID, &a.UserID, &a.RoleID, &scopeID, &a.AssignedAt, &a.AssignedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, rbac.ErrAssignmentNotFound
		}
		return nil, storeErr("get assignment", err)
	}
	if scopeID.Valid {
		a.ScopeID = &scopeID.String
	}
	return &a, nil
}

// DeleteAssignment writes the revocation audit entry and deletes the row
// in one transaction: the trail entry lands first so the revocation stays
// reconstructible, and neither side commits without the other.
func (r *RBACRepository) DeleteAssignment(ctx context.Context, id string, entry *audit.Entry) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return storeErr("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return err
	}

	result, err := tx.Exec(ctx, `DELETE FROM role_assignments WHERE id = $1`, id)
	if err != nil {
		return storeErr("delete assignment", err)
	}
	if result.RowsAffected() == 0 {
		return rbac.ErrAssignmentNotFound
	}
	return tx.Commit(ctx)
}

// ListAssignmentsForUser returns every assignment with its resolved role.
func (r *RBACRepository) ListAssignmentsForUser(ctx context.Context, userID string) ([]rbac.ResolvedAssignment, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT a.id, a.user_id, a.role_id, a.scope_id, a.assigned_at, a.assigned_by,
		       r.id, r.name, r.scope, r.is_active, r.created_at, r.updated_at,
		       COALESCE(array_agg(rp.permission_code ORDER BY rp.permission_code)
		                FILTER (WHERE rp.permission_code IS NOT NULL), '{}')
		FROM role_assignments a
		JOIN roles r ON r.id = a.role_id
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		WHERE a.user_id = $1
		GROUP BY a.id, r.id
		ORDER BY a.assigned_at
	`, userID)
	if err != nil {
		return nil, storeErr("list assignments", err)
	}
	defer rows.Close()

	var assignments []rbac.ResolvedAssignment
	for rows.Next() {
		var (
			ra      rbac.ResolvedAssignment
			role    rbac.Role
			scopeID sql.NullString
			scope   string
			codes   []string
		)
		if err := rows.Scan(
			&ra.ID, &ra.UserID, &ra.RoleID, &scopeID, &ra.AssignedAt, &ra.AssignedBy,
			&role.ID, &role.Name, &scope, &role.IsActive, &role.CreatedAt, &role.UpdatedAt,
			&codes,
		); err != nil {
			return nil, storeErr("scan assignment", err)
		}
		if scopeID.Valid {
			ra.ScopeID = &scopeID.String
		}
		role.Scope = rbac.Scope(scope)
		role.Permissions = toCodes(codes)
		ra.Role = &role
		assignments = append(assignments, ra)
	}
	return assignments, rows.Err()
}

// SyncRolePermissions replaces the permission sets of the given roles, one
// audit entry per role, all inside a single transaction.
func (r *RBACRepository) SyncRolePermissions(ctx context.Context, syncs []rbac.PermissionSync, entries []*audit.Entry) error {
	if len(syncs) != len(entries) {
		return fmt.Errorf("sync/entry count mismatch: %d vs %d", len(syncs), len(entries))
	}

	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return storeErr("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	for i, s := range syncs {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, s.RoleID); err != nil {
			return storeErr("clear role permissions", err)
		}
		if err := insertRolePermissions(ctx, tx, s.RoleID, s.Codes); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE roles SET updated_at = now() WHERE id = $1`, s.RoleID); err != nil {
			return storeErr("touch role", err)
		}
		if err := insertAuditEntry(ctx, tx, entries[i]); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func insertRolePermissions(ctx context.Context, tx pgx.Tx, roleID string, codes []permission.Code) error {
	for _, code := range codes {
		_, err := tx.Exec(ctx, `
			INSERT INTO role_permissions (role_id, permission_code)
			VALUES ($1, $2)
		`, roleID, code.String())
		if err != nil {
			return storeErr("insert role permission", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (*rbac.Role, error) {
	var (
		role  rbac.Role
		scope string
		codes []string
	)
	if err := row.Scan(
		&role.ID, &role.Name, &scope, &role.IsActive, &role.CreatedAt, &role.UpdatedAt, &codes,
	); err != nil {
		return nil, err
	}
	role.Scope = rbac.Scope(scope)
	role.Permissions = toCodes(codes)
	return &role, nil
}

func toCodes(raw []string) []permission.Code {
	codes := make([]permission.Code, len(raw))
	for i, s := range raw {
		codes[i] = permission.Code(s)
	}
	return codes
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// storeErr wraps infrastructure failures so callers can distinguish
// unavailability (and fail closed) from domain errors.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", rbac.ErrStoreUnavailable, op, err)
}
