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

package audit

import (
	"context"
	"time"
)

// Actions recorded in the audit trail.
const (
	ActionRoleCreated       = "role_created"
	ActionRoleAssigned      = "role_assigned"
	ActionRoleRevoked       = "role_revoked"
	ActionPermissionsSynced = "permissions_synced"
	ActionMatrixImported    = "matrix_imported"
	ActionPermissionCheck   = "permission_check"
	ActionTenantScopeBypass = "tenant_scope_bypass"
)

// Decision is the outcome attached to an audit entry.
type Decision string

const (
	DecisionAllowed       Decision = "allowed"
	DecisionDenied        Decision = "denied"
	DecisionNotApplicable Decision = "not_applicable"
)

// Entry is a single append-only audit record. Entries are never updated or
// deleted, not even by administrators.
type Entry struct {
	ID          string         `json:"id"`
	ActorUserID string         `json:"actor_user_id"`
	Action      string         `json:"action"`
	EntityType  string         `json:"entity_type"`
	EntityID    string         `json:"entity_id"`
	TenantID    *string        `json:"tenant_id,omitempty"`
	ProjectID   *string        `json:"project_id,omitempty"`
	Decision    Decision       `json:"decision"`
	Reason      string         `json:"reason,omitempty"`
	Before      map[string]any `json:"before,omitempty"`
	After       map[string]any `json:"after,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`

	// Chain fields, set by the recorder on append.
	PrevHash string `json:"prev_hash,omitempty"`
	Hash     string `json:"hash,omitempty"`
}

// Logger defines the interface for audit logging.
type Logger interface {
	Log(ctx context.Context, entry Entry)
}

// Filter narrows List queries. Zero fields match everything.
type Filter struct {
	TenantID string
	UserID   string
	Since    time.Time
	Until    time.Time
	Limit    int
}

// Recorder is the durable, append-only store behind the Logger. There is
// deliberately no update or delete method on this interface.
type Recorder interface {
	Append(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter Filter) ([]*Entry, error)
}
