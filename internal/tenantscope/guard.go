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

// Package tenantscope guarantees that every tenant-scoped read or write
// touches only rows of the caller's tenant. The guard runs before and
// independently of permission checks: a user denied a permission must never
// see another tenant's row leak through an unrelated, permitted query.
//
// Scoping is a deliberate query-building step at each data-access call
// site, not an implicit model-level hook, so a bypass is always a visible,
// named, audited operation.
package tenantscope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kha997/zenamanage/internal/audit"
	"github.com/kha997/zenamanage/internal/rbac"
)

// ErrNoTenantContext is returned when a tenant-scoped query is attempted
// without a tenant in the context. Silent unscoped access is the one
// failure mode this package exists to prevent.
var ErrNoTenantContext = errors.New("no tenant context")

// Query is a SQL fragment plus its positional arguments.
type Query struct {
	SQL  string
	Args []any
}

// TenantOwned is implemented by entities that carry a tenant column.
type TenantOwned interface {
	GetTenantID() string
	SetTenantID(string)
}

// Guard injects tenant predicates into queries and stamps tenant ownership
// on creates.
type Guard struct {
	auditLogger audit.Logger
}

// NewGuard creates a guard that audits every bypass.
func NewGuard(auditLogger audit.Logger) *Guard {
	return &Guard{auditLogger: auditLogger}
}

// Scope appends an equality filter on the tenant column. The base query
// must already contain a WHERE clause; the predicate is appended with AND
// using the next positional placeholder.
//
// Inside a WithoutTenantScope operation the query passes through unscoped.
func (g *Guard) Scope(ctx context.Context, q Query, actx *rbac.AuthContext) (Query, error) {
	if bypassed(ctx) {
		return q, nil
	}
	if actx == nil || actx.TenantID == nil || *actx.TenantID == "" {
		return Query{}, ErrNoTenantContext
	}
	q.SQL = fmt.Sprintf("%s AND tenant_id = $%d", q.SQL, len(q.Args)+1)
	q.Args = append(q.Args, *actx.TenantID)
	return q, nil
}

// StampTenant sets the entity's tenant from the context before a create.
// A caller-supplied tenant id never wins over the context, even when one
// was set; a mismatch is logged and overwritten.
func (g *Guard) StampTenant(ctx context.Context, entity TenantOwned, actx *rbac.AuthContext) error {
	if actx == nil || actx.TenantID == nil || *actx.TenantID == "" {
		return ErrNoTenantContext
	}
	if supplied := entity.GetTenantID(); supplied != "" && supplied != *actx.TenantID {
		slog.WarnContext(ctx, "caller-supplied tenant id overridden by context",
			slog.String("supplied", supplied),
			slog.String("context", *actx.TenantID),
			slog.String("user_id", actx.UserID),
		)
	}
	entity.SetTenantID(*actx.TenantID)
	return nil
}

type bypassKey struct{}

func bypassed(ctx context.Context) bool {
	v, _ := ctx.Value(bypassKey{}).(bool)
	return v
}

// WithoutTenantScope runs op with tenant scoping disabled for genuinely
// cross-tenant work (platform migrations, system-scope administration). The
// bypass is audited with the caller identity and reason before op runs; it
// is never the default path.
func WithoutTenantScope[T any](ctx context.Context, g *Guard, actorID, reason string, op func(context.Context) (T, error)) (T, error) {
	g.auditLogger.Log(ctx, audit.Entry{
		ID:          uuid.NewString(),
		ActorUserID: actorID,
		Action:      audit.ActionTenantScopeBypass,
		EntityType:  "query",
		Decision:    audit.DecisionNotApplicable,
		Reason:      reason,
		OccurredAt:  time.Now(),
	})
	return op(context.WithValue(ctx, bypassKey{}, true))
}
