package rbac

import (
	"context"

	"github.com/kha997/zenamanage/internal/audit"
	"github.com/kha997/zenamanage/internal/permission"
)

// PermissionSync pairs a role with the permission set that should replace
// its current one.
type PermissionSync struct {
	RoleID string
	Codes  []permission.Code
}

// Store defines the persistence interface for roles and assignments. It is
// the single writer for both record types.
//
// Every mutating method takes the audit entry that must commit in the same
// transaction as the mutation: both durable, or neither. For revocation the
// entry is written before the row is deleted so the trail stays
// reconstructible.
type Store interface {
	CreateRole(ctx context.Context, role *Role, entry *audit.Entry) error
	GetRole(ctx context.Context, id string) (*Role, error)

	// GetRoleByName resolves a role by its globally unique name.
	GetRoleByName(ctx context.Context, name string) (*Role, error)
	ListRoles(ctx context.Context) ([]*Role, error)

	// CreateAssignment inserts an assignment. The duplicate check for
	// (user_id, role_id, scope_id) is enforced by a storage-level unique
	// constraint, not application logic, so concurrent grants cannot both
	// succeed; the violation surfaces as ErrDuplicateAssignment.
	CreateAssignment(ctx context.Context, a *Assignment, entry *audit.Entry) error
	GetAssignment(ctx context.Context, id string) (*Assignment, error)
	DeleteAssignment(ctx context.Context, id string, entry *audit.Entry) error

	// ListAssignmentsForUser returns all assignments for a user with their
	// roles and permission sets resolved.
	ListAssignmentsForUser(ctx context.Context, userID string) ([]ResolvedAssignment, error)

	// SyncRolePermissions atomically replaces the permission sets of the
	// given roles, one audit entry per role, all in one transaction.
	SyncRolePermissions(ctx context.Context, syncs []PermissionSync, entries []*audit.Entry) error
}
