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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/kha997/zenamanage/internal/observability/logger"
	"github.com/kha997/zenamanage/internal/permission"
	"github.com/kha997/zenamanage/internal/rbac"
)

// Authorization context principles:
// 1. The user id comes exclusively from the verified bearer token.
// 2. The tenant hint comes from the token's tid claim, never from a header
//    the caller controls.
// 3. The project hint may come from the X-Project-ID header; the Extractor
//    rejects a project that contradicts the asserted tenant.

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			slog.InfoContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.RemoteAddr(r.RemoteAddr),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// tokenClaims is the slice of the identity provider's token this service
// reads. Issuance and lifetime management belong to the provider.
type tokenClaims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tid,omitempty"`
}

// AuthMiddleware verifies the bearer token and builds the request's
// AuthContext through the Extractor. The role snapshot taken here is the
// one every check in this request sees.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		var claims tokenClaims
		token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(h.jwtSecret), nil
		}, jwt.WithIssuer(h.jwtIssuer), jwt.WithExpirationRequired())
		if err != nil || !token.Valid || claims.Subject == "" {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		var tenantHint *string
		if claims.TenantID != "" {
			tenantHint = &claims.TenantID
		}
		var projectHint *string
		if v := r.Header.Get("X-Project-ID"); v != "" {
			projectHint = &v
		}

		actx, err := h.extractor.Build(r.Context(), claims.Subject, tenantHint, projectHint)
		if err != nil {
			switch {
			case isContextError(err):
				slog.WarnContext(r.Context(), "context extraction rejected",
					logger.UserID(claims.Subject),
					logger.Error(err),
				)
				respondError(w, http.StatusForbidden, rbac.GenericDenyMessage)
			default:
				slog.ErrorContext(r.Context(), "context extraction failed", logger.Error(err))
				// Fail closed: an unavailable store denies, never allows.
				respondError(w, http.StatusForbidden, rbac.GenericDenyMessage)
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(withAuthContext(r.Context(), actx)))
	})
}

func isContextError(err error) bool {
	for _, target := range []error{rbac.ErrUnknownUser, rbac.ErrTenantMismatch, rbac.ErrProjectMismatch} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// RequirePermission runs the resolver before the wrapped handler and turns
// a denial into a structured 403. The reason surfaced to the caller is the
// generic one; the internal reason goes to the audit trail via Check.
func (h *Handler) RequirePermission(code permission.Code) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actx := GetAuthContext(r.Context())
			if actx == nil {
				respondError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			decision := h.rbacService.Check(r.Context(), actx, code, nil)
			if h.metrics != nil {
				h.metrics.RecordDecision(r.Context(), decision.Allowed, decision.Reason)
			}
			if !decision.Allowed {
				respondError(w, http.StatusForbidden, rbac.GenericDenyMessage)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return after
	}
	return ""
}
