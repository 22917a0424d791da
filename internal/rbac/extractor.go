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

	"github.com/kha997/zenamanage/internal/directory"
)

// Extraction errors
var (
	ErrUnknownUser     = errors.New("unknown user")
	ErrTenantMismatch  = errors.New("tenant hint does not match")
	ErrProjectMismatch = errors.New("project hint does not resolve")
)

// Extractor turns raw request identity signals into a validated
// AuthContext. It performs no permission logic; the resulting role snapshot
// is taken once and never refreshed mid-request.
type Extractor struct {
	directory directory.Reader
	store     Store
}

// NewExtractor creates a context extractor.
func NewExtractor(dir directory.Reader, store Store) *Extractor {
	return &Extractor{directory: dir, store: store}
}

// Build validates the hints and assembles the context.
//
// A request must not claim access through a project that belongs to a
// different tenant than it asserts: when both hints are given, the
// project's tenant must equal the tenant hint.
func (e *Extractor) Build(ctx context.Context, userID string, tenantHint, projectHint *string) (*AuthContext, error) {
	user, err := e.directory.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownUser, userID)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: %s is deactivated", ErrUnknownUser, userID)
	}

	actx := &AuthContext{UserID: user.ID}

	if tenantHint != nil && *tenantHint != "" {
		tenant, err := e.directory.GetTenant(ctx, *tenantHint)
		if err != nil {
			if errors.Is(err, directory.ErrTenantNotFound) {
				return nil, fmt.Errorf("%w: tenant %s", ErrTenantMismatch, *tenantHint)
			}
			return nil, err
		}
		actx.TenantID = &tenant.ID
	}

	if projectHint != nil && *projectHint != "" {
		project, err := e.directory.GetProject(ctx, *projectHint)
		if err != nil {
			if errors.Is(err, directory.ErrProjectNotFound) {
				return nil, fmt.Errorf("%w: project %s", ErrProjectMismatch, *projectHint)
			}
			return nil, err
		}
		if actx.TenantID != nil && project.TenantID != *actx.TenantID {
			return nil, fmt.Errorf("%w: project %s belongs to another tenant", ErrTenantMismatch, project.ID)
		}
		actx.ProjectID = &project.ID
		if actx.TenantID == nil {
			// The project implies its tenant.
			actx.TenantID = &project.TenantID
		}
	}

	roles, err := e.store.ListAssignmentsForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	actx.Roles = roles

	return actx, nil
}
