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

import "github.com/kha997/zenamanage/internal/permission"

// -----------------------------------------------------------------------------
// Role Name Constants
// These are the canonical names for the seeded ZenaManage roles.
// -----------------------------------------------------------------------------

const (
	// RoleSystemAdmin is the platform-wide administrator role.
	// Scope: System
	RoleSystemAdmin = "system_admin"

	// RoleTenantAdmin administers one tenant.
	// Scope: Tenant
	RoleTenantAdmin = "tenant_admin"

	// RoleProjectManager manages projects within a tenant.
	// Scope: Tenant
	RoleProjectManager = "project_manager"

	// RoleProjectContributor works inside a single project.
	// Scope: Project
	RoleProjectContributor = "project_contributor"

	// RoleProjectViewer has read access to a single project.
	// Scope: Project
	RoleProjectViewer = "project_viewer"
)

// -----------------------------------------------------------------------------
// Role Permission Mappings
// Default permission sets used for seeding. Administrators can change them
// afterwards through the permission matrix.
// -----------------------------------------------------------------------------

// SystemAdminPermissions grants the full catalog; there is no wildcard
// grant, the seeded set simply covers every registered code.
func SystemAdminPermissions(registry *permission.Registry) []permission.Code {
	all := registry.All()
	codes := make([]permission.Code, 0, len(all))
	for _, p := range all {
		codes = append(codes, p.Code)
	}
	return codes
}

// TenantAdminPermissions defines defaults for the tenant_admin role.
var TenantAdminPermissions = []permission.Code{
	permission.ProjectsView,
	permission.ProjectsCreate,
	permission.ProjectsUpdate,
	permission.ProjectsDelete,
	permission.TasksView,
	permission.TasksCreate,
	permission.TasksUpdate,
	permission.TasksDelete,
	permission.TasksAssign,
	permission.DocumentsView,
	permission.DocumentsUpload,
	permission.DocumentsDelete,
	permission.QuotesView,
	permission.QuotesCreate,
	permission.QuotesApprove,
	permission.ChangeRequestsView,
	permission.ChangeRequestsCreate,
	permission.ChangeRequestsApprove,
	permission.TenantsView,
	permission.TenantsManage,
	permission.UsersView,
	permission.UsersManage,
	permission.RolesView,
	permission.RolesManage,
	permission.MatrixExport,
	permission.MatrixImport,
	permission.AuditView,
}

// ProjectManagerPermissions defines defaults for the project_manager role.
var ProjectManagerPermissions = []permission.Code{
	permission.ProjectsView,
	permission.ProjectsCreate,
	permission.ProjectsUpdate,
	permission.TasksView,
	permission.TasksCreate,
	permission.TasksUpdate,
	permission.TasksAssign,
	permission.DocumentsView,
	permission.DocumentsUpload,
	permission.QuotesView,
	permission.QuotesCreate,
	permission.ChangeRequestsView,
	permission.ChangeRequestsCreate,
}

// ProjectContributorPermissions defines defaults for project_contributor.
var ProjectContributorPermissions = []permission.Code{
	permission.ProjectsView,
	permission.TasksView,
	permission.TasksCreate,
	permission.TasksUpdate,
	permission.DocumentsView,
	permission.DocumentsUpload,
	permission.ChangeRequestsView,
	permission.ChangeRequestsCreate,
}

// ProjectViewerPermissions defines defaults for project_viewer.
var ProjectViewerPermissions = []permission.Code{
	permission.ProjectsView,
	permission.TasksView,
	permission.DocumentsView,
	permission.QuotesView,
	permission.ChangeRequestsView,
}
