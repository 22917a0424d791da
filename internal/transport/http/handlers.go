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
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kha997/zenamanage/internal/audit"
	"github.com/kha997/zenamanage/internal/matrix"
	"github.com/kha997/zenamanage/internal/observability/metrics"
	"github.com/kha997/zenamanage/internal/permission"
	"github.com/kha997/zenamanage/internal/rbac"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	rbacService   *rbac.Service
	matrixService *matrix.Service
	extractor     *rbac.Extractor
	auditRecorder audit.Recorder
	metrics       *metrics.AuthzMetrics

	jwtSecret string
	jwtIssuer string
}

// NewHandler creates a new HTTP handler
func NewHandler(
	rbacService *rbac.Service,
	matrixService *matrix.Service,
	extractor *rbac.Extractor,
	auditRecorder audit.Recorder,
	authzMetrics *metrics.AuthzMetrics,
	jwtSecret, jwtIssuer string,
) *Handler {
	return &Handler{
		rbacService:   rbacService,
		matrixService: matrixService,
		extractor:     extractor,
		auditRecorder: auditRecorder,
		metrics:       authzMetrics,
		jwtSecret:     jwtSecret,
		jwtIssuer:     jwtIssuer,
	}
}

// Router assembles the API surface.
func (h *Handler) Router(rateLimiter *RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware())
	if rateLimiter != nil {
		r.Use(RateLimitMiddleware(rateLimiter))
	}

	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		// Decision boundary for the surrounding application. Any
		// authenticated caller may ask about itself.
		r.Post("/authz/check", h.Check)
		r.Get("/authz/effective", h.EffectiveAssignments)

		r.Group(func(r chi.Router) {
			r.Use(h.RequirePermission(permission.RolesView))
			r.Get("/roles", h.ListRoles)
			r.Get("/roles/{roleID}", h.GetRole)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequirePermission(permission.RolesManage))
			r.Post("/roles", h.CreateRole)
			r.Put("/roles/{roleID}/permissions", h.SyncRolePermissions)
			r.Post("/assignments", h.AssignRole)
			r.Delete("/assignments/{assignmentID}", h.RevokeAssignment)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequirePermission(permission.MatrixExport))
			r.Get("/matrix/export", h.ExportMatrix)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequirePermission(permission.MatrixImport))
			r.Post("/matrix/validate", h.ValidateMatrix)
			r.Post("/matrix/import", h.ImportMatrix)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequirePermission(permission.AuditView))
			r.Get("/audit", h.ListAuditLog)
		})
	})

	return otelhttp.NewHandler(r, "zenamanage-authz")
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"status":  "error",
		"message": message,
	})
}
