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

package permission

// -----------------------------------------------------------------------------
// Permission Code Constants
// These are the canonical codes for the ZenaManage platform. The catalog is
// seeded from here during bootstrap and must stay in sync with the admin
// frontend's permission matrix.
// -----------------------------------------------------------------------------

const (
	// Projects
	ProjectsView   Code = "projects.view"
	ProjectsCreate Code = "projects.create"
	ProjectsUpdate Code = "projects.update"
	ProjectsDelete Code = "projects.delete"

	// Tasks
	TasksView   Code = "tasks.view"
	TasksCreate Code = "tasks.create"
	TasksUpdate Code = "tasks.update"
	TasksDelete Code = "tasks.delete"
	TasksAssign Code = "tasks.assign"

	// Documents
	DocumentsView   Code = "documents.view"
	DocumentsUpload Code = "documents.upload"
	DocumentsDelete Code = "documents.delete"

	// Quotes
	QuotesView    Code = "quotes.view"
	QuotesCreate  Code = "quotes.create"
	QuotesApprove Code = "quotes.approve"

	// Change requests
	ChangeRequestsView    Code = "change_requests.view"
	ChangeRequestsCreate  Code = "change_requests.create"
	ChangeRequestsApprove Code = "change_requests.approve"

	// Tenant administration
	TenantsView         Code = "tenants.view"
	TenantsManage       Code = "tenants.manage"
	UsersView           Code = "users.view"
	UsersManage         Code = "users.manage"
	RolesView           Code = "roles.view"
	RolesManage         Code = "roles.manage"
	MatrixExport        Code = "matrix.export"
	MatrixImport        Code = "matrix.import"
	AuditView           Code = "audit.view"
	PlatformAdminTenant Code = "platform.manage_tenants"
)

// Catalog returns the full static permission catalog.
func Catalog() []Permission {
	return []Permission{
		{Code: ProjectsView, Description: "View projects"},
		{Code: ProjectsCreate, Description: "Create projects"},
		{Code: ProjectsUpdate, Description: "Update project details"},
		{Code: ProjectsDelete, Description: "Delete projects"},
		{Code: TasksView, Description: "View tasks"},
		{Code: TasksCreate, Description: "Create tasks"},
		{Code: TasksUpdate, Description: "Update tasks"},
		{Code: TasksDelete, Description: "Delete tasks"},
		{Code: TasksAssign, Description: "Assign tasks to users"},
		{Code: DocumentsView, Description: "View documents"},
		{Code: DocumentsUpload, Description: "Upload documents"},
		{Code: DocumentsDelete, Description: "Delete documents"},
		{Code: QuotesView, Description: "View quotes"},
		{Code: QuotesCreate, Description: "Create quotes"},
		{Code: QuotesApprove, Description: "Approve quotes"},
		{Code: ChangeRequestsView, Description: "View change requests"},
		{Code: ChangeRequestsCreate, Description: "Create change requests"},
		{Code: ChangeRequestsApprove, Description: "Approve change requests"},
		{Code: TenantsView, Description: "View tenant settings"},
		{Code: TenantsManage, Description: "Manage tenant settings"},
		{Code: UsersView, Description: "View tenant users"},
		{Code: UsersManage, Description: "Manage tenant users"},
		{Code: RolesView, Description: "View roles and assignments"},
		{Code: RolesManage, Description: "Manage roles and assignments"},
		{Code: MatrixExport, Description: "Export the permission matrix"},
		{Code: MatrixImport, Description: "Import the permission matrix"},
		{Code: AuditView, Description: "View the audit log"},
		{Code: PlatformAdminTenant, Description: "Manage tenants platform-wide"},
	}
}
