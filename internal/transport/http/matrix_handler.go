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
	"log/slog"
	"net/http"

	"github.com/kha997/zenamanage/internal/matrix"
	"github.com/kha997/zenamanage/internal/observability/logger"
)

// ExportMatrix streams the permission matrix as CSV. With ?full=true the
// export is a complete grid including granted=false rows, which is the
// shape admins edit in a spreadsheet and re-import.
func (h *Handler) ExportMatrix(w http.ResponseWriter, r *http.Request) {
	full := r.URL.Query().Get("full") == "true"

	rows, err := h.matrixService.Export(r.Context(), full)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to export permission matrix", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to export permission matrix")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="permission_matrix.csv"`)
	if err := matrix.WriteCSV(w, rows); err != nil {
		slog.ErrorContext(r.Context(), "failed to write permission matrix", logger.Error(err))
	}
}

type validationIssue struct {
	Line    int    `json:"line"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type validateResponse struct {
	Valid  bool              `json:"valid"`
	Errors []validationIssue `json:"errors,omitempty"`
}

// ValidateMatrix runs the import validation pass without mutating anything.
func (h *Handler) ValidateMatrix(w http.ResponseWriter, r *http.Request) {
	rows, shapeErrs, err := matrix.ReadCSV(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	semanticErrs, err := h.matrixService.Validate(r.Context(), rows)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to validate permission matrix", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to validate permission matrix")
		return
	}

	all := append(shapeErrs, semanticErrs...)
	if len(all) == 0 {
		respondJSON(w, http.StatusOK, validateResponse{Valid: true})
		return
	}
	respondJSON(w, http.StatusUnprocessableEntity, validateResponse{Valid: false, Errors: toIssues(all)})
}

type importResponse struct {
	RolesUpdated int               `json:"roles_updated"`
	Warnings     []string          `json:"warnings,omitempty"`
	Errors       []validationIssue `json:"errors,omitempty"`
}

// ImportMatrix applies an uploaded CSV matrix. Any validation error, shape
// or semantic, rejects the whole upload before a single role changes.
func (h *Handler) ImportMatrix(w http.ResponseWriter, r *http.Request) {
	actx := GetAuthContext(r.Context())

	rows, shapeErrs, err := matrix.ReadCSV(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(shapeErrs) > 0 {
		if h.metrics != nil {
			h.metrics.RecordImport(r.Context(), false, 0)
		}
		respondJSON(w, http.StatusUnprocessableEntity, importResponse{Errors: toIssues(shapeErrs)})
		return
	}

	result, err := h.matrixService.Import(r.Context(), actx.UserID, rows)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordImport(r.Context(), false, 0)
		}
		var verrs matrix.ValidationErrors
		if errors.As(err, &verrs) {
			respondJSON(w, http.StatusUnprocessableEntity, importResponse{Errors: toIssues(verrs)})
			return
		}
		slog.ErrorContext(r.Context(), "failed to import permission matrix", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to import permission matrix")
		return
	}

	if h.metrics != nil {
		h.metrics.RecordImport(r.Context(), true, result.RolesUpdated)
	}
	respondJSON(w, http.StatusOK, importResponse{RolesUpdated: result.RolesUpdated, Warnings: result.Warnings})
}

func toIssues(errs matrix.ValidationErrors) []validationIssue {
	issues := make([]validationIssue, 0, len(errs))
	for _, e := range errs {
		issues = append(issues, validationIssue{Line: e.Line, Field: e.Field, Message: e.Message})
	}
	return issues
}
