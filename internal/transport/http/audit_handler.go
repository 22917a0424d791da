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
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kha997/zenamanage/internal/audit"
	"github.com/kha997/zenamanage/internal/observability/logger"
)

const defaultAuditPageSize = 100

// ListAuditLog returns audit entries matching the query filters, oldest
// first so the hash chain reads in order.
func (h *Handler) ListAuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := audit.Filter{
		TenantID: q.Get("tenant_id"),
		UserID:   q.Get("user_id"),
		Limit:    defaultAuditPageSize,
	}
	if raw := q.Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "since must be RFC 3339")
			return
		}
		filter.Since = t
	}
	if raw := q.Get("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "until must be RFC 3339")
			return
		}
		filter.Until = t
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		filter.Limit = n
	}

	entries, err := h.auditRecorder.List(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list audit log", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list audit log")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
