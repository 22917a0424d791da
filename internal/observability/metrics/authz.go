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

package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AuthzMetrics tracks authorization engine activity.
type AuthzMetrics struct {
	decisions metric.Int64Counter
	imports   metric.Int64Counter
}

// NewAuthzMetrics registers the authorization instruments on the meter.
func NewAuthzMetrics(m *Meter) (*AuthzMetrics, error) {
	decisions, err := m.CreateCounter("authz_decisions_total", "Authorization decisions by outcome and reason")
	if err != nil {
		return nil, err
	}
	imports, err := m.CreateCounter("authz_matrix_imports_total", "Permission matrix import attempts by outcome")
	if err != nil {
		return nil, err
	}
	return &AuthzMetrics{decisions: decisions, imports: imports}, nil
}

// RecordDecision counts one permission check.
func (a *AuthzMetrics) RecordDecision(ctx context.Context, allowed bool, reason string) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	a.decisions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("outcome", outcome),
			attribute.String("reason", reason),
		),
	)
}

// RecordImport counts one matrix import attempt.
func (a *AuthzMetrics) RecordImport(ctx context.Context, succeeded bool, rolesUpdated int) {
	outcome := "failed"
	if succeeded {
		outcome = "succeeded"
	}
	a.imports.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("outcome", outcome),
			attribute.Int("roles_updated", rolesUpdated),
		),
	)
}
