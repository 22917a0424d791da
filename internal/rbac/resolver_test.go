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

package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kha997/zenamanage/internal/permission"
)

func strptr(s string) *string { return &s }

func newRole(name string, scope Scope, codes ...permission.Code) *Role {
	return &Role{
		ID:          "role-" + name,
		Name:        name,
		Scope:       scope,
		IsActive:    true,
		Permissions: codes,
	}
}

func assigned(role *Role, scopeID *string) ResolvedAssignment {
	return ResolvedAssignment{
		Assignment: Assignment{
			ID:      "assign-" + role.ID,
			UserID:  "user-1",
			RoleID:  role.ID,
			ScopeID: scopeID,
		},
		Role: role,
	}
}

// TestPurpose: Validates that system-scope roles grant everywhere, regardless of tenant or project context.
// Scope: Unit Test
// Security: Platform administration must not depend on spoofable tenant context
// Expected: A system role grants with a nil tenant and nil project, and across any tenant.
// Test Case ID: RES-01
func TestResolver_SystemRoleBypassesScoping(t *testing.T) {
	r := NewResolver(permission.NewCatalogRegistry())
	admin := newRole("system_admin", ScopeSystem, permission.PlatformAdminTenant, permission.ProjectsView)

	noContext := &AuthContext{UserID: "user-1", Roles: []ResolvedAssignment{assigned(admin, nil)}}
	d := r.HasPermission(noContext, permission.PlatformAdminTenant, nil)
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonSystemRoleGrant, d.Reason)

	inTenant := &AuthContext{
		UserID:   "user-1",
		TenantID: strptr("tenant-any"),
		Roles:    []ResolvedAssignment{assigned(admin, nil)},
	}
	d = r.HasPermission(inTenant, permission.ProjectsView, nil)
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonSystemRoleGrant, d.Reason)
}

// TestPurpose: Validates tenant isolation: a tenant role granted in T1 never grants in T2.
// Scope: Unit Test
// Security: Cross-tenant privilege leakage (the core multi-tenancy property)
// Expected: The same assignment allows in its own tenant and denies in another.
// Test Case ID: RES-02
func TestResolver_TenantRoleDoesNotCrossTenants(t *testing.T) {
	r := NewResolver(permission.NewCatalogRegistry())
	pm := newRole("project_manager", ScopeTenant, permission.ProjectsCreate)
	roles := []ResolvedAssignment{assigned(pm, strptr("tenant-1"))}

	own := &AuthContext{UserID: "user-1", TenantID: strptr("tenant-1"), Roles: roles}
	d := r.HasPermission(own, permission.ProjectsCreate, nil)
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonTenantRoleGrant, d.Reason)

	other := &AuthContext{UserID: "user-1", TenantID: strptr("tenant-2"), Roles: roles}
	d = r.HasPermission(other, permission.ProjectsCreate, nil)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonNoMatchingGrant, d.Reason)
}

// TestPurpose: Validates that tenant roles never grant without a tenant in context.
// Scope: Unit Test
// Expected: With a nil tenant the tenant assignment is inert.
// Test Case ID: RES-03
func TestResolver_TenantRoleRequiresTenantContext(t *testing.T) {
	r := NewResolver(permission.NewCatalogRegistry())
	pm := newRole("project_manager", ScopeTenant, permission.ProjectsCreate)

	actx := &AuthContext{UserID: "user-1", Roles: []ResolvedAssignment{assigned(pm, strptr("tenant-1"))}}
	d := r.HasPermission(actx, permission.ProjectsCreate, nil)
	assert.False(t, d.Allowed)
}

// TestPurpose: Validates project-scope matching against the context project and an explicit target.
// Scope: Unit Test
// Expected: A project role grants only for its own project; an explicit
// scope id overrides the context's project in either direction.
// Test Case ID: RES-04
func TestResolver_ProjectRoleMatchesTargetProject(t *testing.T) {
	r := NewResolver(permission.NewCatalogRegistry())
	contributor := newRole("project_contributor", ScopeProject, permission.TasksUpdate)
	roles := []ResolvedAssignment{assigned(contributor, strptr("project-1"))}

	inProject := &AuthContext{
		UserID:    "user-1",
		TenantID:  strptr("tenant-1"),
		ProjectID: strptr("project-1"),
		Roles:     roles,
	}
	d := r.HasPermission(inProject, permission.TasksUpdate, nil)
	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonProjectRoleGrant, d.Reason)

	// Explicit target overrides the context project.
	d = r.HasPermission(inProject, permission.TasksUpdate, strptr("project-2"))
	assert.False(t, d.Allowed)

	elsewhere := &AuthContext{
		UserID:    "user-1",
		TenantID:  strptr("tenant-1"),
		ProjectID: strptr("project-2"),
		Roles:     roles,
	}
	d = r.HasPermission(elsewhere, permission.TasksUpdate, nil)
	assert.False(t, d.Allowed)
	d = r.HasPermission(elsewhere, permission.TasksUpdate, strptr("project-1"))
	assert.True(t, d.Allowed)
}

// TestPurpose: Validates that grants from multiple assignments are unioned.
// Scope: Unit Test
// Expected: When any one assignment grants, the check allows; no assignment
// can subtract a grant another one provides.
// Test Case ID: RES-05
func TestResolver_UnionOfGrants(t *testing.T) {
	r := NewResolver(permission.NewCatalogRegistry())
	viewer := newRole("project_viewer", ScopeProject, permission.ProjectsView)
	contributor := newRole("project_contributor", ScopeProject, permission.TasksUpdate)

	actx := &AuthContext{
		UserID:    "user-1",
		TenantID:  strptr("tenant-1"),
		ProjectID: strptr("project-1"),
		Roles: []ResolvedAssignment{
			assigned(viewer, strptr("project-1")),
			assigned(contributor, strptr("project-1")),
		},
	}

	assert.True(t, r.HasPermission(actx, permission.ProjectsView, nil).Allowed)
	assert.True(t, r.HasPermission(actx, permission.TasksUpdate, nil).Allowed)
	assert.False(t, r.HasPermission(actx, permission.ProjectsDelete, nil).Allowed)
}

// TestPurpose: Validates fail-closed behavior for unknown permissions and inactive roles.
// Scope: Unit Test
// Security: Unknown codes and disabled roles must never grant (CWE-862)
// Expected: An unregistered code denies with unknown_permission; an inactive
// role's grants are ignored entirely.
// Test Case ID: RES-06
func TestResolver_FailClosed(t *testing.T) {
	r := NewResolver(permission.NewCatalogRegistry())

	admin := newRole("system_admin", ScopeSystem, permission.PlatformAdminTenant)
	actx := &AuthContext{UserID: "user-1", Roles: []ResolvedAssignment{assigned(admin, nil)}}

	d := r.HasPermission(actx, permission.Code("nonexistent.anything"), nil)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonUnknownPermission, d.Reason)

	admin.IsActive = false
	d = r.HasPermission(actx, permission.PlatformAdminTenant, nil)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonNoMatchingGrant, d.Reason)
}

// TestPurpose: Validates the derived any/all combinators.
// Scope: Unit Test
// Expected: HasAnyPermission allows on one grant; HasAllPermissions denies
// on the first missing grant.
// Test Case ID: RES-07
func TestResolver_AnyAndAll(t *testing.T) {
	r := NewResolver(permission.NewCatalogRegistry())
	viewer := newRole("project_viewer", ScopeProject, permission.ProjectsView)
	actx := &AuthContext{
		UserID:    "user-1",
		TenantID:  strptr("tenant-1"),
		ProjectID: strptr("project-1"),
		Roles:     []ResolvedAssignment{assigned(viewer, strptr("project-1"))},
	}

	assert.True(t, r.HasAnyPermission(actx, permission.ProjectsDelete, permission.ProjectsView).Allowed)
	assert.False(t, r.HasAnyPermission(actx, permission.ProjectsDelete, permission.TasksUpdate).Allowed)

	assert.True(t, r.HasAllPermissions(actx, permission.ProjectsView).Allowed)
	assert.False(t, r.HasAllPermissions(actx, permission.ProjectsView, permission.ProjectsDelete).Allowed)
}

// TestPurpose: Validates that decisions come from the context snapshot, not live state.
// Scope: Unit Test
// Expected: Mutating the role set after building the context does not
// change decisions made against the original snapshot slice.
// Test Case ID: RES-08
func TestResolver_SnapshotSemantics(t *testing.T) {
	r := NewResolver(permission.NewCatalogRegistry())
	viewer := newRole("project_viewer", ScopeProject, permission.ProjectsView)

	snapshot := &AuthContext{
		UserID:    "user-1",
		TenantID:  strptr("tenant-1"),
		ProjectID: strptr("project-1"),
		Roles:     []ResolvedAssignment{assigned(viewer, strptr("project-1"))},
	}

	// A later revocation is modeled as a fresh context, never an edit of
	// the old one.
	fresh := &AuthContext{
		UserID:    "user-1",
		TenantID:  strptr("tenant-1"),
		ProjectID: strptr("project-1"),
	}

	assert.True(t, r.HasPermission(snapshot, permission.ProjectsView, nil).Allowed)
	assert.False(t, r.HasPermission(fresh, permission.ProjectsView, nil).Allowed)
}
