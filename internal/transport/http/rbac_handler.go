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
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kha997/zenamanage/internal/observability/logger"
	"github.com/kha997/zenamanage/internal/permission"
	"github.com/kha997/zenamanage/internal/rbac"
)

type checkRequest struct {
	Permission string  `json:"permission"`
	ScopeID    *string `json:"scope_id,omitempty"`
}

type checkResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

// Check answers "can the calling user perform this action". Denial is a
// normal response, not an error status; the surrounding application turns
// it into its own 403 where appropriate.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	actx := GetAuthContext(r.Context())

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	code, err := permission.Parse(req.Permission)
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed permission code")
		return
	}

	decision := h.rbacService.Check(r.Context(), actx, code, req.ScopeID)
	if h.metrics != nil {
		h.metrics.RecordDecision(r.Context(), decision.Allowed, decision.Reason)
	}

	reason := decision.Reason
	if !decision.Allowed {
		// Do not leak which grants would have sufficed.
		reason = rbac.GenericDenyMessage
	}
	respondJSON(w, http.StatusOK, checkResponse{Allowed: decision.Allowed, Reason: reason})
}

// EffectiveAssignments returns the caller's own resolved assignments.
func (h *Handler) EffectiveAssignments(w http.ResponseWriter, r *http.Request) {
	actx := GetAuthContext(r.Context())
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":     actx.UserID,
		"tenant_id":   actx.TenantID,
		"project_id":  actx.ProjectID,
		"assignments": actx.Roles,
	})
}

type createRoleRequest struct {
	Name        string   `json:"name"`
	Scope       string   `json:"scope"`
	Permissions []string `json:"permissions"`
}

// CreateRole creates a role with its initial permission set.
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	actx := GetAuthContext(r.Context())

	var req createRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	scope, err := rbac.ParseScope(req.Scope)
	if err != nil {
		respondError(w, http.StatusBadRequest, "scope must be one of system|tenant|project")
		return
	}

	codes := make([]permission.Code, 0, len(req.Permissions))
	for _, raw := range req.Permissions {
		code, err := permission.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "malformed permission code: "+raw)
			return
		}
		codes = append(codes, code)
	}

	role, err := h.rbacService.CreateRole(r.Context(), actx.UserID, req.Name, scope, codes)
	if err != nil {
		switch {
		case errors.Is(err, rbac.ErrDuplicateRoleName):
			respondError(w, http.StatusConflict, "role name already exists")
		case errors.Is(err, rbac.ErrInvalidPermission):
			respondError(w, http.StatusBadRequest, "unknown permission code")
		default:
			slog.ErrorContext(r.Context(), "failed to create role", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to create role")
		}
		return
	}
	respondJSON(w, http.StatusCreated, role)
}

// GetRole returns one role with its permission set.
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.rbacService.GetRole(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		if errors.Is(err, rbac.ErrRoleNotFound) {
			respondError(w, http.StatusNotFound, "role not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get role", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to get role")
		return
	}
	respondJSON(w, http.StatusOK, role)
}

// ListRoles returns all roles.
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.rbacService.ListRoles(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list roles", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list roles")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"roles": roles})
}

type syncPermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// SyncRolePermissions replaces a role's full permission set.
func (h *Handler) SyncRolePermissions(w http.ResponseWriter, r *http.Request) {
	actx := GetAuthContext(r.Context())
	roleID := chi.URLParam(r, "roleID")

	var req syncPermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	codes := make([]permission.Code, 0, len(req.Permissions))
	for _, raw := range req.Permissions {
		code, err := permission.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "malformed permission code: "+raw)
			return
		}
		codes = append(codes, code)
	}

	if err := h.rbacService.SyncRolePermissions(r.Context(), actx.UserID, roleID, codes); err != nil {
		switch {
		case errors.Is(err, rbac.ErrRoleNotFound):
			respondError(w, http.StatusNotFound, "role not found")
		case errors.Is(err, rbac.ErrInvalidPermission):
			respondError(w, http.StatusBadRequest, "unknown permission code")
		default:
			slog.ErrorContext(r.Context(), "failed to sync role permissions", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to sync role permissions")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type assignRoleRequest struct {
	UserID  string  `json:"user_id"`
	RoleID  string  `json:"role_id"`
	ScopeID *string `json:"scope_id,omitempty"`
}

// AssignRole grants a role to a user.
func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	actx := GetAuthContext(r.Context())

	var req assignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	assignment, err := h.rbacService.AssignRole(r.Context(), actx.UserID, req.UserID, req.RoleID, req.ScopeID)
	if err != nil {
		switch {
		case errors.Is(err, rbac.ErrRoleNotFound):
			respondError(w, http.StatusNotFound, "role not found")
		case errors.Is(err, rbac.ErrRoleInactive):
			respondError(w, http.StatusConflict, "role is inactive")
		case errors.Is(err, rbac.ErrScopeMismatch):
			respondError(w, http.StatusBadRequest, "scope id does not match role scope")
		case errors.Is(err, rbac.ErrDuplicateAssignment):
			respondError(w, http.StatusConflict, "assignment already exists")
		default:
			slog.ErrorContext(r.Context(), "failed to assign role", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to assign role")
		}
		return
	}
	respondJSON(w, http.StatusCreated, assignment)
}

// RevokeAssignment deletes an assignment; the revocation is audited
// within the same transaction as the deletion.
func (h *Handler) RevokeAssignment(w http.ResponseWriter, r *http.Request) {
	actx := GetAuthContext(r.Context())

	err := h.rbacService.RevokeAssignment(r.Context(), actx.UserID, chi.URLParam(r, "assignmentID"))
	if err != nil {
		if errors.Is(err, rbac.ErrAssignmentNotFound) {
			respondError(w, http.StatusNotFound, "assignment not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to revoke assignment", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to revoke assignment")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
