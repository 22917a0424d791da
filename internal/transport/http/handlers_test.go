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

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kha997/zenamanage/internal/audit"
	"github.com/kha997/zenamanage/internal/directory"
	"github.com/kha997/zenamanage/internal/matrix"
	"github.com/kha997/zenamanage/internal/permission"
	"github.com/kha997/zenamanage/internal/rbac"
)

const (
	testSecret = "test-secret-at-least-32-bytes-long"
	testIssuer = "zenamanage-identity"
)

// fakeStore implements rbac.Store in memory for transport tests.
type fakeStore struct {
	roles       map[string]*rbac.Role
	assignments map[string]*rbac.Assignment
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		roles:       make(map[string]*rbac.Role),
		assignments: make(map[string]*rbac.Assignment),
	}
}

func (s *fakeStore) CreateRole(ctx context.Context, role *rbac.Role, entry *audit.Entry) error {
	for _, r := range s.roles {
		if r.Name == role.Name {
			return rbac.ErrDuplicateRoleName
		}
	}
	cp := *role
	s.roles[role.ID] = &cp
	return nil
}

func (s *fakeStore) GetRole(ctx context.Context, id string) (*rbac.Role, error) {
	r, ok := s.roles[id]
	if !ok {
		return nil, rbac.ErrRoleNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) GetRoleByName(ctx context.Context, name string) (*rbac.Role, error) {
	for _, r := range s.roles {
		if r.Name == name {
			cp := *r
			return &cp, nil
		}
	}
	return nil, rbac.ErrRoleNotFound
}

func (s *fakeStore) ListRoles(ctx context.Context) ([]*rbac.Role, error) {
	out := make([]*rbac.Role, 0, len(s.roles))
	for _, r := range s.roles {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (s *fakeStore) CreateAssignment(ctx context.Context, a *rbac.Assignment, entry *audit.Entry) error {
	cp := *a
	s.assignments[a.ID] = &cp
	return nil
}

func (s *fakeStore) GetAssignment(ctx context.Context, id string) (*rbac.Assignment, error) {
	a, ok := s.assignments[id]
	if !ok {
		return nil, rbac.ErrAssignmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *fakeStore) DeleteAssignment(ctx context.Context, id string, entry *audit.Entry) error {
	if _, ok := s.assignments[id]; !ok {
		return rbac.ErrAssignmentNotFound
	}
	delete(s.assignments, id)
	return nil
}

func (s *fakeStore) ListAssignmentsForUser(ctx context.Context, userID string) ([]rbac.ResolvedAssignment, error) {
	var out []rbac.ResolvedAssignment
	for _, a := range s.assignments {
		if a.UserID != userID {
			continue
		}
		cp := *a
		role := *s.roles[a.RoleID]
		out = append(out, rbac.ResolvedAssignment{Assignment: cp, Role: &role})
	}
	return out, nil
}

func (s *fakeStore) SyncRolePermissions(ctx context.Context, syncs []rbac.PermissionSync, entries []*audit.Entry) error {
	for _, sync := range syncs {
		role, ok := s.roles[sync.RoleID]
		if !ok {
			return rbac.ErrRoleNotFound
		}
		role.Permissions = append([]permission.Code(nil), sync.Codes...)
	}
	return nil
}

// fakeDirectory implements directory.Reader.
type fakeDirectory struct {
	users    map[string]*directory.User
	tenants  map[string]*directory.Tenant
	projects map[string]*directory.Project
}

func (d *fakeDirectory) GetUser(ctx context.Context, id string) (*directory.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, directory.ErrUserNotFound
	}
	return u, nil
}

func (d *fakeDirectory) GetTenant(ctx context.Context, id string) (*directory.Tenant, error) {
	t, ok := d.tenants[id]
	if !ok {
		return nil, directory.ErrTenantNotFound
	}
	return t, nil
}

func (d *fakeDirectory) GetProject(ctx context.Context, id string) (*directory.Project, error) {
	p, ok := d.projects[id]
	if !ok {
		return nil, directory.ErrProjectNotFound
	}
	return p, nil
}

// fakeRecorder implements audit.Recorder.
type fakeRecorder struct {
	entries []*audit.Entry
}

func (r *fakeRecorder) Append(ctx context.Context, entry *audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeRecorder) List(ctx context.Context, filter audit.Filter) ([]*audit.Entry, error) {
	return r.entries, nil
}

type noopAudit struct{}

func (noopAudit) Log(ctx context.Context, entry audit.Entry) {}

type testEnv struct {
	router  http.Handler
	store   *fakeStore
	rbacSvc *rbac.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newFakeStore()
	dir := &fakeDirectory{
		users: map[string]*directory.User{
			"user-admin":  {ID: "user-admin", Email: "admin@example.com", IsActive: true},
			"user-viewer": {ID: "user-viewer", Email: "viewer@example.com", IsActive: true},
		},
		tenants: map[string]*directory.Tenant{
			"tenant-1": {ID: "tenant-1", Name: "Acme"},
		},
		projects: map[string]*directory.Project{
			"project-1": {ID: "project-1", TenantID: "tenant-1", Name: "HQ Tower"},
		},
	}

	registry := permission.NewCatalogRegistry()
	rbacSvc := rbac.NewService(store, registry, noopAudit{})
	matrixSvc := matrix.NewService(registry, rbacSvc)
	extractor := rbac.NewExtractor(dir, store)

	handler := NewHandler(rbacSvc, matrixSvc, extractor, &fakeRecorder{}, nil, testSecret, testIssuer)
	return &testEnv{router: handler.Router(nil), store: store, rbacSvc: rbacSvc}
}

func (e *testEnv) grantTenantRole(t *testing.T, userID, roleName string, codes ...permission.Code) {
	t.Helper()
	ctx := context.Background()
	role, err := e.rbacSvc.CreateRole(ctx, "seed", roleName, rbac.ScopeTenant, codes)
	require.NoError(t, err)
	tenant := "tenant-1"
	_, err = e.rbacSvc.AssignRole(ctx, "seed", userID, role.ID, &tenant)
	require.NoError(t, err)
}

func signToken(t *testing.T, subject, tenantID string) string {
	t.Helper()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		TenantID: tenantID,
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return raw
}

func doRequest(t *testing.T, router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// TestPurpose: Validates that the API rejects unauthenticated and badly signed requests.
// Scope: Integration Test (router + middleware)
// Security: Bearer verification is the outermost gate (CWE-287)
// Expected: 401 without a token and with a token signed by another key;
// /healthz stays open.
// Test Case ID: HTTP-01
func TestHTTP_Authentication(t *testing.T) {
	env := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/roles", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-admin",
		Issuer:    testIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	raw, err := forged.SignedString([]byte("some-other-secret-entirely-here!"))
	require.NoError(t, err)
	rec = doRequest(t, env.router, http.MethodGet, "/api/v1/roles", raw, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, env.router, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestPurpose: Validates the permission gate and its generic denial body.
// Scope: Integration Test
// Security: Denials must not reveal which grant was missing
// Expected: A user without roles.manage gets exactly
// {"status":"error","message":"access denied"}; a user holding it passes.
// Test Case ID: HTTP-02
func TestHTTP_RequirePermission_GenericDeny(t *testing.T) {
	env := newTestEnv(t)
	env.grantTenantRole(t, "user-viewer", "viewer_role", permission.RolesView)
	env.grantTenantRole(t, "user-admin", "manager_role", permission.RolesView, permission.RolesManage)

	body := `{"name":"new_role","scope":"project","permissions":["tasks.view"]}`

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/roles",
		signToken(t, "user-viewer", "tenant-1"), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var deny map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deny))
	assert.Equal(t, map[string]string{"status": "error", "message": "access denied"}, deny)

	rec = doRequest(t, env.router, http.MethodPost, "/api/v1/roles",
		signToken(t, "user-admin", "tenant-1"), body)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

// TestPurpose: Validates the decision endpoint's allow and deny shapes.
// Scope: Integration Test
// Expected: allowed=true carries the internal grant reason; allowed=false
// carries only the generic message.
// Test Case ID: HTTP-03
func TestHTTP_Check(t *testing.T) {
	env := newTestEnv(t)
	env.grantTenantRole(t, "user-viewer", "viewer_role", permission.ProjectsView)
	token := signToken(t, "user-viewer", "tenant-1")

	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/authz/check",
		token, `{"permission":"projects.view"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp checkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Allowed)
	assert.Equal(t, rbac.ReasonTenantRoleGrant, resp.Reason)

	rec = doRequest(t, env.router, http.MethodPost, "/api/v1/authz/check",
		token, `{"permission":"projects.delete"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Allowed)
	assert.Equal(t, rbac.GenericDenyMessage, resp.Reason)

	rec = doRequest(t, env.router, http.MethodPost, "/api/v1/authz/check",
		token, `{"permission":"not a code"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestPurpose: Validates context extraction failures fail closed at the transport.
// Scope: Integration Test
// Security: A valid token for a user the directory does not know must not pass
// Expected: 403 with the generic body, not 500.
// Test Case ID: HTTP-04
func TestHTTP_UnknownUserFailsClosed(t *testing.T) {
	env := newTestEnv(t)

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/roles",
		signToken(t, "user-ghost", "tenant-1"), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var deny map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deny))
	assert.Equal(t, "access denied", deny["message"])
}

// TestPurpose: Validates the CSV export endpoint's content type and shape.
// Scope: Integration Test
// Expected: text/csv with the canonical header line.
// Test Case ID: HTTP-05
func TestHTTP_MatrixExport(t *testing.T) {
	env := newTestEnv(t)
	env.grantTenantRole(t, "user-admin", "exporter_role", permission.MatrixExport)

	rec := doRequest(t, env.router, http.MethodGet, "/api/v1/matrix/export",
		signToken(t, "user-admin", "tenant-1"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "role_name,scope,permission_code,granted\n"))
}

// TestPurpose: Validates the import endpoint rejects invalid uploads whole.
// Scope: Integration Test
// Expected: 422 with per-line errors for an upload referencing an unknown
// role; a clean upload reports roles_updated.
// Test Case ID: HTTP-06
func TestHTTP_MatrixImport(t *testing.T) {
	env := newTestEnv(t)
	env.grantTenantRole(t, "user-admin", "importer_role", permission.MatrixImport)
	token := signToken(t, "user-admin", "tenant-1")

	bad := "role_name,scope,permission_code,granted\nghost,project,tasks.view,true\n"
	rec := doRequest(t, env.router, http.MethodPost, "/api/v1/matrix/import", token, bad)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp importResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, 2, resp.Errors[0].Line)
	assert.Equal(t, "role_name", resp.Errors[0].Field)

	good := "role_name,scope,permission_code,granted\nimporter_role,tenant,tasks.view,true\n"
	rec = doRequest(t, env.router, http.MethodPost, "/api/v1/matrix/import", token, good)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.RolesUpdated)
}
