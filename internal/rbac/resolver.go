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
	"github.com/kha997/zenamanage/internal/permission"
)

// Internal decision reasons. These are written to the audit trail; end
// users only ever see GenericDenyMessage.
const (
	ReasonUnknownPermission = "unknown_permission"
	ReasonNoMatchingGrant   = "no_matching_grant"
	ReasonStoreUnavailable  = "store_unavailable"
	ReasonSystemRoleGrant   = "system_role_grant"
	ReasonTenantRoleGrant   = "tenant_role_grant"
	ReasonProjectRoleGrant  = "project_role_grant"
)

// GenericDenyMessage is the only deny reason surfaced to end users, so a
// denied caller cannot enumerate which roles or permissions would have been
// required.
const GenericDenyMessage = "access denied"

// Decision is the outcome of a permission check. A denial is a normal
// return value, not an error; callers must not retry it.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

func allowed(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func denied(reason string) Decision  { return Decision{Allowed: false, Reason: reason} }

// Resolver answers permission checks against an AuthContext snapshot. It is
// a pure function of its inputs; it holds no cache and performs no I/O.
type Resolver struct {
	registry *permission.Registry
}

// NewResolver creates a resolver backed by the permission catalog.
func NewResolver(registry *permission.Registry) *Resolver {
	return &Resolver{registry: registry}
}

// HasPermission computes whether the context grants the permission. All
// matching assignments are unioned; any single grant is sufficient.
//
// scopeID optionally narrows project-scope matching to a specific project;
// when nil, the context's project is used. Unknown permission codes fail
// closed.
func (r *Resolver) HasPermission(actx *AuthContext, code permission.Code, scopeID *string) Decision {
	if !r.registry.Exists(code) {
		return denied(ReasonUnknownPermission)
	}

	// System-scope roles bypass tenant and project scoping entirely.
	for _, a := range actx.Roles {
		if a.Role == nil || a.Role.Scope != ScopeSystem {
			continue
		}
		if a.Role.Grants(code) {
			return allowed(ReasonSystemRoleGrant)
		}
	}

	// Tenant-scope roles grant only within the context's current tenant.
	// An assignment for a different tenant never grants, even though the
	// user legitimately holds the role there.
	if actx.TenantID != nil {
		for _, a := range actx.Roles {
			if a.Role == nil || a.Role.Scope != ScopeTenant {
				continue
			}
			if a.ScopeID == nil || *a.ScopeID != *actx.TenantID {
				continue
			}
			if a.Role.Grants(code) {
				return allowed(ReasonTenantRoleGrant)
			}
		}
	}

	// Project-scope roles grant only for the targeted project: the explicit
	// scopeID when given, otherwise the context's project.
	target := actx.ProjectID
	if scopeID != nil {
		target = scopeID
	}
	if target != nil {
		for _, a := range actx.Roles {
			if a.Role == nil || a.Role.Scope != ScopeProject {
				continue
			}
			if a.ScopeID == nil || *a.ScopeID != *target {
				continue
			}
			if a.Role.Grants(code) {
				return allowed(ReasonProjectRoleGrant)
			}
		}
	}

	return denied(ReasonNoMatchingGrant)
}

// HasAnyPermission is an OR over HasPermission.
func (r *Resolver) HasAnyPermission(actx *AuthContext, codes ...permission.Code) Decision {
	for _, code := range codes {
		if d := r.HasPermission(actx, code, nil); d.Allowed {
			return d
		}
	}
	return denied(ReasonNoMatchingGrant)
}

// HasAllPermissions is an AND over HasPermission; the first denial wins.
func (r *Resolver) HasAllPermissions(actx *AuthContext, codes ...permission.Code) Decision {
	for _, code := range codes {
		if d := r.HasPermission(actx, code, nil); !d.Allowed {
			return d
		}
	}
	return allowed("all_permissions_granted")
}
