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
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kha997/zenamanage/internal/audit"
	"github.com/kha997/zenamanage/internal/permission"
)

// EntityType values used in audit entries.
const (
	EntityRole       = "role"
	EntityAssignment = "role_assignment"
	EntityPermission = "permission"
)

// Service provides role and assignment management plus the decision
// boundary consumed by the rest of the platform.
type Service struct {
	store       Store
	registry    *permission.Registry
	resolver    *Resolver
	auditLogger audit.Logger
}

// NewService creates a new authorization service.
func NewService(store Store, registry *permission.Registry, auditLogger audit.Logger) *Service {
	return &Service{
		store:       store,
		registry:    registry,
		resolver:    NewResolver(registry),
		auditLogger: auditLogger,
	}
}

// Resolver exposes the pure resolver for callers that already hold a
// context snapshot.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// validateCodes checks every code against the registry. The whole set is
// rejected if any code is unknown, so callers never partially apply.
func (s *Service) validateCodes(codes []permission.Code) error {
	var unknown []string
	for _, code := range codes {
		if !s.registry.Exists(code) {
			unknown = append(unknown, code.String())
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPermission, unknown)
	}
	return nil
}

// CreateRole creates a role with its initial permission set. Every code
// must exist in the registry or the whole operation fails.
func (s *Service) CreateRole(ctx context.Context, actorID, name string, scope Scope, codes []permission.Code) (*Role, error) {
	if name == "" {
		return nil, fmt.Errorf("role name is required")
	}
	if _, err := ParseScope(string(scope)); err != nil {
		return nil, err
	}
	if err := s.validateCodes(codes); err != nil {
		return nil, err
	}

	now := time.Now()
	role := &Role{
		ID:          uuid.NewString(),
		Name:        name,
		Scope:       scope,
		IsActive:    true,
		Permissions: sortedCodes(codes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	entry := s.newEntry(actorID, audit.ActionRoleCreated, EntityRole, role.ID)
	entry.After = map[string]any{
		"name":        role.Name,
		"scope":       string(role.Scope),
		"permissions": codeStrings(role.Permissions),
	}

	if err := s.store.CreateRole(ctx, role, entry); err != nil {
		return nil, err
	}
	s.auditLogger.Log(ctx, *entry)
	return role, nil
}

// AssignRole grants a role to a user at the scope identified by scopeID.
// The scope id must be present exactly when the role's scope requires one.
func (s *Service) AssignRole(ctx context.Context, actorID, userID, roleID string, scopeID *string) (*Assignment, error) {
	role, err := s.store.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if !role.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrRoleInactive, role.Name)
	}
	if role.Scope.RequiresScopeID() && (scopeID == nil || *scopeID == "") {
		return nil, fmt.Errorf("%w: %s role requires a scope id", ErrScopeMismatch, role.Scope)
	}
	if !role.Scope.RequiresScopeID() && scopeID != nil {
		return nil, fmt.Errorf("%w: system role must not carry a scope id", ErrScopeMismatch)
	}

	a := &Assignment{
		ID:         uuid.NewString(),
		UserID:     userID,
		RoleID:     roleID,
		ScopeID:    scopeID,
		AssignedAt: time.Now(),
		AssignedBy: actorID,
	}

	entry := s.newEntry(actorID, audit.ActionRoleAssigned, EntityAssignment, a.ID)
	entry.TenantID = tenantOf(role.Scope, scopeID)
	entry.ProjectID = projectOf(role.Scope, scopeID)
	entry.After = map[string]any{
		"user_id": userID,
		"role":    role.Name,
		"scope":   string(role.Scope),
	}

	if err := s.store.CreateAssignment(ctx, a, entry); err != nil {
		return nil, err
	}
	s.auditLogger.Log(ctx, *entry)
	return a, nil
}

// RevokeAssignment deletes an assignment. The audit entry and the deletion
// commit in a single transaction, with the entry written first, so a failed
// deletion never leaves an unexplained gap in the trail.
func (s *Service) RevokeAssignment(ctx context.Context, actorID, assignmentID string) error {
	a, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	role, err := s.store.GetRole(ctx, a.RoleID)
	if err != nil {
		return err
	}

	entry := s.newEntry(actorID, audit.ActionRoleRevoked, EntityAssignment, a.ID)
	entry.TenantID = tenantOf(role.Scope, a.ScopeID)
	entry.ProjectID = projectOf(role.Scope, a.ScopeID)
	entry.Before = map[string]any{
		"user_id": a.UserID,
		"role":    role.Name,
		"scope":   string(role.Scope),
	}

	if err := s.store.DeleteAssignment(ctx, assignmentID, entry); err != nil {
		return err
	}
	s.auditLogger.Log(ctx, *entry)
	return nil
}

// EffectiveAssignments returns all assignments for a user with roles and
// permission sets resolved. Used by the Extractor to build contexts.
func (s *Service) EffectiveAssignments(ctx context.Context, userID string) ([]ResolvedAssignment, error) {
	return s.store.ListAssignmentsForUser(ctx, userID)
}

// GetRole returns a role by id.
func (s *Service) GetRole(ctx context.Context, id string) (*Role, error) {
	return s.store.GetRole(ctx, id)
}

// GetRoleByName returns a role by its unique name.
func (s *Service) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	return s.store.GetRoleByName(ctx, name)
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]*Role, error) {
	return s.store.ListRoles(ctx)
}

// SyncRolePermissions replaces the full permission set of one role.
func (s *Service) SyncRolePermissions(ctx context.Context, actorID, roleID string, codes []permission.Code) error {
	_, err := s.SyncRolesPermissions(ctx, actorID, []PermissionSync{{RoleID: roleID, Codes: codes}})
	return err
}

// SyncRolesPermissions replaces the permission sets of several roles in one
// transaction and returns how many actually changed. Roles whose set is
// already identical are skipped, which makes export-then-import a no-op.
func (s *Service) SyncRolesPermissions(ctx context.Context, actorID string, updates []PermissionSync) (int, error) {
	var (
		syncs   []PermissionSync
		entries []*audit.Entry
	)
	for _, u := range updates {
		if err := s.validateCodes(u.Codes); err != nil {
			return 0, err
		}
		role, err := s.store.GetRole(ctx, u.RoleID)
		if err != nil {
			return 0, err
		}

		next := sortedCodes(u.Codes)
		if equalCodes(sortedCodes(role.Permissions), next) {
			continue
		}

		entry := s.newEntry(actorID, audit.ActionPermissionsSynced, EntityRole, role.ID)
		entry.Before = map[string]any{"permissions": codeStrings(role.Permissions)}
		entry.After = map[string]any{"permissions": codeStrings(next)}

		syncs = append(syncs, PermissionSync{RoleID: u.RoleID, Codes: next})
		entries = append(entries, entry)
	}

	if len(syncs) == 0 {
		return 0, nil
	}
	if err := s.store.SyncRolePermissions(ctx, syncs, entries); err != nil {
		return 0, err
	}
	for _, entry := range entries {
		s.auditLogger.Log(ctx, *entry)
	}
	return len(syncs), nil
}

// Check is the decision boundary consumed by the surrounding application.
// Denials are always audited; allows are audited for mutating permissions.
// Store unavailability fails closed: the caller gets a denial, never an
// allow it cannot justify.
func (s *Service) Check(ctx context.Context, actx *AuthContext, code permission.Code, scopeID *string) Decision {
	decision := s.resolver.HasPermission(actx, code, scopeID)

	mutating := true
	if p, err := s.registry.Describe(code); err == nil {
		mutating = p.Mutating()
	}
	if !decision.Allowed || mutating {
		entry := s.newEntry(actx.UserID, audit.ActionPermissionCheck, EntityPermission, code.String())
		entry.TenantID = actx.TenantID
		entry.ProjectID = actx.ProjectID
		entry.Decision = audit.DecisionDenied
		if decision.Allowed {
			entry.Decision = audit.DecisionAllowed
		}
		entry.Reason = decision.Reason
		s.auditLogger.Log(ctx, *entry)
	}
	return decision
}

// CheckErr maps a store-level failure into a fail-closed denial. Callers
// that resolve assignments lazily use it to coerce infrastructure errors.
func CheckErr(err error) Decision {
	if errors.Is(err, ErrStoreUnavailable) {
		return denied(ReasonStoreUnavailable)
	}
	return denied(ReasonNoMatchingGrant)
}

func (s *Service) newEntry(actorID, action, entityType, entityID string) *audit.Entry {
	return &audit.Entry{
		ID:          uuid.NewString(),
		ActorUserID: actorID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Decision:    audit.DecisionNotApplicable,
		OccurredAt:  time.Now(),
	}
}

func tenantOf(scope Scope, scopeID *string) *string {
	if scope == ScopeTenant {
		return scopeID
	}
	return nil
}

func projectOf(scope Scope, scopeID *string) *string {
	if scope == ScopeProject {
		return scopeID
	}
	return nil
}

func sortedCodes(codes []permission.Code) []permission.Code {
	out := make([]permission.Code, 0, len(codes))
	seen := make(map[permission.Code]bool, len(codes))
	for _, c := range codes {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func equalCodes(a, b []permission.Code) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func codeStrings(codes []permission.Code) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = c.String()
	}
	return out
}
