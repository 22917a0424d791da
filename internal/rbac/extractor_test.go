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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kha997/zenamanage/internal/directory"
	"github.com/kha997/zenamanage/internal/permission"
)

// memDirectory is an in-memory directory.Reader.
type memDirectory struct {
	users    map[string]*directory.User
	tenants  map[string]*directory.Tenant
	projects map[string]*directory.Project
}

func newMemDirectory() *memDirectory {
	return &memDirectory{
		users:    make(map[string]*directory.User),
		tenants:  make(map[string]*directory.Tenant),
		projects: make(map[string]*directory.Project),
	}
}

func (d *memDirectory) GetUser(ctx context.Context, id string) (*directory.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, directory.ErrUserNotFound
	}
	return u, nil
}

func (d *memDirectory) GetTenant(ctx context.Context, id string) (*directory.Tenant, error) {
	t, ok := d.tenants[id]
	if !ok {
		return nil, directory.ErrTenantNotFound
	}
	return t, nil
}

func (d *memDirectory) GetProject(ctx context.Context, id string) (*directory.Project, error) {
	p, ok := d.projects[id]
	if !ok {
		return nil, directory.ErrProjectNotFound
	}
	return p, nil
}

func extractorFixture(t *testing.T) (*Extractor, *Service) {
	t.Helper()
	dir := newMemDirectory()
	dir.users["user-1"] = &directory.User{ID: "user-1", Email: "pm@example.com", IsActive: true}
	dir.users["user-gone"] = &directory.User{ID: "user-gone", Email: "gone@example.com", IsActive: false}
	dir.tenants["tenant-1"] = &directory.Tenant{ID: "tenant-1", Name: "Acme"}
	dir.tenants["tenant-2"] = &directory.Tenant{ID: "tenant-2", Name: "Globex"}
	dir.projects["project-1"] = &directory.Project{ID: "project-1", TenantID: "tenant-1", Name: "HQ Tower"}

	store := newMemStore()
	svc := NewService(store, permission.NewCatalogRegistry(), &captureLogger{})
	return NewExtractor(dir, store), svc
}

// TestPurpose: Validates that only known, active users get a context.
// Scope: Unit Test
// Security: Authentication state must gate context construction
// Expected: Unknown and deactivated users return ErrUnknownUser.
// Test Case ID: EXT-01
func TestExtractor_RejectsUnknownAndInactiveUsers(t *testing.T) {
	extractor, _ := extractorFixture(t)
	ctx := context.Background()

	_, err := extractor.Build(ctx, "nobody", nil, nil)
	assert.ErrorIs(t, err, ErrUnknownUser)

	_, err = extractor.Build(ctx, "user-gone", nil, nil)
	assert.ErrorIs(t, err, ErrUnknownUser)
}

// TestPurpose: Validates hint resolution against the directory.
// Scope: Unit Test
// Expected: Nonexistent tenant and project hints are rejected rather than
// silently dropped.
// Test Case ID: EXT-02
func TestExtractor_RejectsUnresolvableHints(t *testing.T) {
	extractor, _ := extractorFixture(t)
	ctx := context.Background()

	_, err := extractor.Build(ctx, "user-1", strptr("tenant-nope"), nil)
	assert.ErrorIs(t, err, ErrTenantMismatch)

	_, err = extractor.Build(ctx, "user-1", strptr("tenant-1"), strptr("project-nope"))
	assert.ErrorIs(t, err, ErrProjectMismatch)
}

// TestPurpose: Validates the cross-tenant project check.
// Scope: Unit Test
// Security: A request must not smuggle a project from another tenant
// Expected: A project hint whose tenant differs from the tenant hint fails;
// a project hint alone implies its owning tenant.
// Test Case ID: EXT-03
func TestExtractor_ProjectTenantConsistency(t *testing.T) {
	extractor, _ := extractorFixture(t)
	ctx := context.Background()

	_, err := extractor.Build(ctx, "user-1", strptr("tenant-2"), strptr("project-1"))
	assert.ErrorIs(t, err, ErrTenantMismatch)

	actx, err := extractor.Build(ctx, "user-1", nil, strptr("project-1"))
	require.NoError(t, err)
	require.NotNil(t, actx.TenantID)
	assert.Equal(t, "tenant-1", *actx.TenantID)
	require.NotNil(t, actx.ProjectID)
	assert.Equal(t, "project-1", *actx.ProjectID)
}

// TestPurpose: Validates that the context carries a resolved role snapshot.
// Scope: Unit Test
// Expected: Assignments existing at build time appear with their roles
// resolved; assignments made afterwards do not appear in the old context.
// Test Case ID: EXT-04
func TestExtractor_RoleSnapshot(t *testing.T) {
	extractor, svc := extractorFixture(t)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, "admin-1", "tenant_ops", ScopeTenant,
		[]permission.Code{permission.ProjectsView})
	require.NoError(t, err)
	_, err = svc.AssignRole(ctx, "admin-1", "user-1", role.ID, strptr("tenant-1"))
	require.NoError(t, err)

	actx, err := extractor.Build(ctx, "user-1", strptr("tenant-1"), nil)
	require.NoError(t, err)
	require.Len(t, actx.Roles, 1)
	require.NotNil(t, actx.Roles[0].Role)
	assert.Equal(t, "tenant_ops", actx.Roles[0].Role.Name)

	other, err := svc.CreateRole(ctx, "admin-1", "second_role", ScopeTenant,
		[]permission.Code{permission.TasksView})
	require.NoError(t, err)
	_, err = svc.AssignRole(ctx, "admin-1", "user-1", other.ID, strptr("tenant-1"))
	require.NoError(t, err)

	// The earlier snapshot is unchanged; a rebuild sees both.
	assert.Len(t, actx.Roles, 1)
	rebuilt, err := extractor.Build(ctx, "user-1", strptr("tenant-1"), nil)
	require.NoError(t, err)
	assert.Len(t, rebuilt.Roles, 2)
}
