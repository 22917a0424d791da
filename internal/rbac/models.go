package rbac

import (
	"errors"
	"fmt"
	"time"

	"github.com/kha997/zenamanage/internal/permission"
)

// Domain errors
var (
	ErrRoleNotFound        = errors.New("role not found")
	ErrDuplicateRoleName   = errors.New("role name already exists")
	ErrRoleInactive        = errors.New("role is inactive")
	ErrAssignmentNotFound  = errors.New("assignment not found")
	ErrDuplicateAssignment = errors.New("assignment already exists")
	ErrScopeMismatch       = errors.New("scope id does not match role scope")
	ErrInvalidPermission   = errors.New("invalid permission code")
	ErrInvalidScope        = errors.New("invalid scope")
	ErrStoreUnavailable    = errors.New("authorization store unavailable")
)

// Scope defines the breadth at which a role's grants apply.
type Scope string

const (
	// ScopeSystem grants permissions globally across all tenants.
	ScopeSystem Scope = "system"
	// ScopeTenant grants permissions within one tenant.
	ScopeTenant Scope = "tenant"
	// ScopeProject grants permissions within one project.
	ScopeProject Scope = "project"
)

// ParseScope validates a raw scope string.
func ParseScope(raw string) (Scope, error) {
	switch Scope(raw) {
	case ScopeSystem, ScopeTenant, ScopeProject:
		return Scope(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidScope, raw)
}

// RequiresScopeID reports whether an assignment at this scope must carry a
// scope id (tenant id or project id). System assignments must not.
func (s Scope) RequiresScopeID() bool {
	return s != ScopeSystem
}

// Role represents a scoped role with its granted permission set.
type Role struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Scope       Scope             `json:"scope"`
	IsActive    bool              `json:"is_active"`
	Permissions []permission.Code `json:"permissions"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Grants reports whether the role's permission set contains the code.
// An inactive role never grants.
func (r *Role) Grants(code permission.Code) bool {
	if !r.IsActive {
		return false
	}
	for _, p := range r.Permissions {
		if p == code {
			return true
		}
	}
	return false
}

// Assignment represents a role granted to a user at a specific scope.
// ScopeID is nil for system-scope roles, a tenant id for tenant-scope roles
// and a project id for project-scope roles.
type Assignment struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	RoleID     string    `json:"role_id"`
	ScopeID    *string   `json:"scope_id,omitempty"`
	AssignedAt time.Time `json:"assigned_at"`
	AssignedBy string    `json:"assigned_by"`
}

// ResolvedAssignment is an assignment joined with its role and the role's
// permission set, as materialized at context-build time.
type ResolvedAssignment struct {
	Assignment
	Role *Role `json:"role"`
}

// AuthContext is the request-scoped authorization context. It is built once
// per request by the Extractor and never persisted or shared across
// requests; the role snapshot is not refreshed mid-request even if the
// store changes concurrently.
type AuthContext struct {
	UserID    string               `json:"user_id"`
	TenantID  *string              `json:"tenant_id,omitempty"`
	ProjectID *string              `json:"project_id,omitempty"`
	Roles     []ResolvedAssignment `json:"roles"`
}
