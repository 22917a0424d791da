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

// Package matrix bulk-synchronizes role-to-permission mappings through a
// CSV representation for admin tooling and spreadsheet review.
package matrix

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kha997/zenamanage/internal/permission"
	"github.com/kha997/zenamanage/internal/rbac"
)

// ErrValidationFailed rejects an import whose rows did not validate. The
// individual problems are carried in ValidationErrors.
var ErrValidationFailed = errors.New("matrix validation failed")

// Row is one (role, permission) cell of the matrix.
type Row struct {
	RoleName       string          `json:"role_name"`
	Scope          rbac.Scope      `json:"scope"`
	PermissionCode permission.Code `json:"permission_code"`
	Granted        bool            `json:"granted"`
}

// ValidationError describes one rejected row. Line is 1-based and counts
// the header; 0 means the problem is not tied to a specific line.
type ValidationError struct {
	Line    int    `json:"line"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d, %s: %s", e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every rejected row of one import attempt.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("%d validation errors: %s", len(e), strings.Join(msgs, "; "))
}

// ImportResult summarizes a successful import.
type ImportResult struct {
	RolesUpdated int      `json:"roles_updated"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Service implements matrix export, validation and all-or-nothing import.
type Service struct {
	registry *permission.Registry
	rbac     *rbac.Service
}

// NewService creates a matrix service.
func NewService(registry *permission.Registry, rbacService *rbac.Service) *Service {
	return &Service{registry: registry, rbac: rbacService}
}

// Export projects the current role-permission graph into matrix rows, one
// per granted pair. With full set, ungranted (role, permission) pairs over
// the whole catalog are emitted too with granted=false, which lets a
// reviewer check boxes in a spreadsheet instead of adding rows.
func (s *Service) Export(ctx context.Context, full bool) ([]Row, error) {
	roles, err := s.rbac.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })

	var rows []Row
	for _, role := range roles {
		granted := make(map[permission.Code]bool, len(role.Permissions))
		for _, code := range role.Permissions {
			granted[code] = true
		}

		if full {
			for _, p := range s.registry.All() {
				rows = append(rows, Row{
					RoleName:       role.Name,
					Scope:          role.Scope,
					PermissionCode: p.Code,
					Granted:        granted[p.Code],
				})
			}
			continue
		}

		codes := make([]permission.Code, 0, len(role.Permissions))
		codes = append(codes, role.Permissions...)
		sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
		for _, code := range codes {
			rows = append(rows, Row{
				RoleName:       role.Name,
				Scope:          role.Scope,
				PermissionCode: code,
				Granted:        true,
			})
		}
	}
	return rows, nil
}

// Validate pre-flights rows before any mutation: every role name must
// resolve, the declared scope must match the stored role's scope, and every
// permission code must exist in the registry. Validate never mutates state.
func (s *Service) Validate(ctx context.Context, rows []Row) (ValidationErrors, error) {
	var errs ValidationErrors
	roleByName := make(map[string]*rbac.Role)

	for i, row := range rows {
		line := i + 2 // 1-based, after the header

		role, ok := roleByName[row.RoleName]
		if !ok {
			var err error
			role, err = s.rbac.GetRoleByName(ctx, row.RoleName)
			switch {
			case errors.Is(err, rbac.ErrRoleNotFound):
				role = nil
			case err != nil:
				return nil, err
			}
			roleByName[row.RoleName] = role
		}

		if role == nil {
			errs = append(errs, ValidationError{Line: line, Field: "role_name",
				Message: fmt.Sprintf("unknown role %q", row.RoleName)})
		} else if row.Scope != role.Scope {
			errs = append(errs, ValidationError{Line: line, Field: "scope",
				Message: fmt.Sprintf("role %q has scope %s, not %s", row.RoleName, role.Scope, row.Scope)})
		}

		if !s.registry.Exists(row.PermissionCode) {
			errs = append(errs, ValidationError{Line: line, Field: "permission_code",
				Message: fmt.Sprintf("unknown permission %q", row.PermissionCode)})
		}
	}
	return errs, nil
}

// Import validates rows and then replaces, for each role present in the
// rows, that role's full permission set with exactly its granted=true rows.
// Roles absent from the rows are untouched. If any row fails validation the
// entire import is rejected; the replacement itself is one transaction, so
// the import is all-or-nothing in every failure mode.
func (s *Service) Import(ctx context.Context, actorID string, rows []Row) (*ImportResult, error) {
	errs, err := s.Validate(ctx, rows)
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, errs)
	}

	grantsByRole := make(map[string][]permission.Code)
	order := make([]string, 0)
	for _, row := range rows {
		if _, ok := grantsByRole[row.RoleName]; !ok {
			order = append(order, row.RoleName)
			grantsByRole[row.RoleName] = nil
		}
		if row.Granted {
			grantsByRole[row.RoleName] = append(grantsByRole[row.RoleName], row.PermissionCode)
		}
	}

	var (
		updates  []rbac.PermissionSync
		warnings []string
	)
	for _, name := range order {
		role, err := s.rbac.GetRoleByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if len(grantsByRole[name]) == 0 {
			warnings = append(warnings, fmt.Sprintf("role %q imported with an empty permission set", name))
		}
		updates = append(updates, rbac.PermissionSync{RoleID: role.ID, Codes: grantsByRole[name]})
	}

	changed, err := s.rbac.SyncRolesPermissions(ctx, actorID, updates)
	if err != nil {
		return nil, err
	}
	return &ImportResult{RolesUpdated: changed, Warnings: warnings}, nil
}
